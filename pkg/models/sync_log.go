package models

import "time"

// Sync log status values. A log row is terminal and never mutated.
const (
	SyncStatusSuccess = "success"
	SyncStatusFailed  = "failed"
)

// SyncLog is one append-only audit row per (account, sync run).
type SyncLog struct {
	ID              int64     `json:"id"`
	AccountID       int64     `json:"account_id"`
	Status          string    `json:"status"`
	Message         string    `json:"message"`
	NewReviewsCount int       `json:"new_reviews_count"`
	CreatedAt       time.Time `json:"created_at"`
}
