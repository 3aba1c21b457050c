package entities

import (
	"strings"
	"testing"
	"time"
)

func TestCredentialExpiry(t *testing.T) {
	issued := time.Now()
	cred := &SessionCredential{
		Secret:       "opaque",
		RestaurantID: "rst-1",
		IssuedAt:     issued,
		ExpiresAt:    issued.Add(CredentialTTL),
	}

	if cred.Expired(issued) {
		t.Error("Credential should not be expired at issuance")
	}
	if cred.Expired(issued.Add(59 * time.Second)) {
		t.Error("Credential should still be valid at t=59s")
	}
	if !cred.Expired(issued.Add(60 * time.Second)) {
		t.Error("Credential should be expired at exactly t=60s")
	}

	remaining := cred.TimeRemaining(issued.Add(55 * time.Second))
	if remaining != 5*time.Second {
		t.Errorf("Expected 5s remaining, got %v", remaining)
	}
}

func TestCredentialValidate(t *testing.T) {
	issued := time.Now()
	cred := &SessionCredential{
		Secret:       "opaque",
		RestaurantID: "rst-1",
		IssuedAt:     issued,
		ExpiresAt:    issued.Add(CredentialTTL),
	}
	if err := cred.Validate(); err != nil {
		t.Errorf("Valid credential should not error, got: %v", err)
	}

	oversize := *cred
	oversize.CatalogDigest = strings.Repeat("x", MaxDigestBytes+1)
	if err := oversize.Validate(); err == nil {
		t.Error("Expected validation error for oversized digest")
	}

	missing := *cred
	missing.Secret = ""
	if err := missing.Validate(); err == nil {
		t.Error("Expected validation error for missing secret")
	}
}
