package repositories

import (
	"context"

	"github.com/tabletalk/tabletalk/domain/entities"
)

// CredentialIssuer mints short-lived session credentials for the realtime
// speech connection. Implemented server-side by the broker service and
// kiosk-side by an HTTP client against the broker endpoint.
type CredentialIssuer interface {
	CreateSession(ctx context.Context, restaurantID string) (*entities.SessionCredential, error)
}
