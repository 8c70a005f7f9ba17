package model

import "time"

// UnlockRecord marks a piece of content as permanently visible to one
// user. Its existence is the sole source of truth for "is this content
// unblurred"; records are never deleted. The (UserID, ContentID) pair
// is unique at the storage layer, which is the concurrency control for
// double-unlock.
type UnlockRecord struct {
	UserID      string
	ContentID   string
	UnlockPrice int64 // tokens charged at unlock time, captured, not recomputed
	UnlockedAt  time.Time
}
