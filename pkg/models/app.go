package models

import "time"

// App is one externally tracked application. AppStoreID is the
// vendor-assigned identifier, distinct from our own serial ID.
type App struct {
	ID         int64     `json:"id"`
	AccountID  int64     `json:"account_id"`
	AppStoreID string    `json:"app_store_id"`
	Name       string    `json:"name"`
	BundleID   string    `json:"bundle_id,omitempty"`
	Platform   string    `json:"platform,omitempty"`
	IconURL    string    `json:"icon_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
