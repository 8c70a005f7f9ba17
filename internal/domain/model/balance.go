package model

import "time"

// UserBalance is the single mutable resource contended by unlocks,
// generations and settlements. Tokens never go below zero; every
// mutation goes through the ledger use case, never by direct
// assignment.
type UserBalance struct {
	UserID    string
	Tokens    int64
	UpdatedAt time.Time
}
