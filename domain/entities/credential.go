package entities

import (
	"errors"
	"time"
)

// CredentialTTL is the fixed lifetime of a session credential, measured
// from issuance. It is independent of how long the conversation lasts.
const CredentialTTL = 60 * time.Second

// MaxDigestBytes bounds the rendered catalog digest embedded in a credential.
const MaxDigestBytes = 5 * 1024

// SessionCredential authorizes exactly one realtime connection to the
// external speech service. It is minted per ordering attempt, never
// persisted, and discarded on expiry or session teardown.
type SessionCredential struct {
	Secret        string    `json:"secret"`
	RestaurantID  string    `json:"restaurant_id"`
	IssuedAt      time.Time `json:"issued_at"`
	ExpiresAt     time.Time `json:"expires_at"`
	CatalogDigest string    `json:"catalog_digest"`
}

// Expired reports whether the credential is past its expiry at the given time
func (c *SessionCredential) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// TimeRemaining returns how long until expiry; zero or negative when expired
func (c *SessionCredential) TimeRemaining(now time.Time) time.Duration {
	return c.ExpiresAt.Sub(now)
}

// Validate validates the credential data
func (c *SessionCredential) Validate() error {
	if c.Secret == "" {
		return errors.New("credential secret is required")
	}
	if c.RestaurantID == "" {
		return errors.New("restaurant id is required")
	}
	if !c.ExpiresAt.After(c.IssuedAt) {
		return errors.New("credential expiry must follow issuance")
	}
	if len(c.CatalogDigest) > MaxDigestBytes {
		return errors.New("catalog digest exceeds size bound")
	}
	return nil
}
