package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrInvalidArgument = errors.New("invalid argument")

	// Ledger / unlock / settlement errors
	ErrInsufficientTokens = errors.New("insufficient tokens")
	ErrInvalidAmount      = errors.New("amount must be a non-negative integer")
	ErrAlreadyUnlocked    = errors.New("content already unlocked")
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrPaymentNotPaid     = errors.New("payment not confirmed by provider")
	ErrProducerFailed     = errors.New("content producer failed")
	ErrRateLimited        = errors.New("too many generation requests")
	ErrGenerationBusy     = errors.New("user already has a generation in progress")

	// Storage-level sentinels kept coarse so use cases can branch
	// without importing driver packages.
	ErrOperationFailed    = errors.New("storage operation failed")
	ErrInvalidExecContext = errors.New("invalid executor context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
)
