package models

// Settings is the single-row global configuration operators edit in the
// dashboard. The pipeline reads it once per run.
type Settings struct {
	ID              int64  `json:"id"`
	WebhookURL      string `json:"webhook_url"`
	NotifyThreshold int    `json:"notify_threshold"`
	SyncInterval    int    `json:"sync_interval"` // minutes, consumed by the external scheduler
}
