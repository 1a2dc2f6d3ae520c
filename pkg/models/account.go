package models

import "time"

// Account holds one set of App Store Connect API credentials.
// An account owns zero or more monitored apps. The sync pipeline only
// reads accounts; they are created and edited through the admin surface.
type Account struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	IssuerID     string    `json:"issuer_id"`
	KeyID        string    `json:"key_id"`
	PrivateKey   string    `json:"private_key,omitempty"` // PEM, secret
	VendorNumber string    `json:"vendor_number,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// HasCredentials reports whether the account carries a complete credential set.
func (a *Account) HasCredentials() bool {
	return a.IssuerID != "" && a.KeyID != "" && a.PrivateKey != ""
}
