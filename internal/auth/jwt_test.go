package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateSessionToken(t *testing.T) {
	token, err := GenerateSessionToken("rst-1", time.Now())
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateSessionToken(token)
	require.NoError(t, err)
	assert.Equal(t, "rst-1", claims.RestaurantID)
	assert.Equal(t, RoleVoiceSession, claims.Role)
	assert.NotEmpty(t, claims.ID)

	ttl := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	assert.Equal(t, 60*time.Second, ttl)
}

func TestValidateExpiredToken(t *testing.T) {
	// Issued long enough ago that the 60s TTL has elapsed
	token, err := GenerateSessionToken("rst-1", time.Now().Add(-2*time.Minute))
	require.NoError(t, err)

	_, err = ValidateSessionToken(token)
	assert.Error(t, err)
}

func TestGenerateSessionTokenRequiresRestaurant(t *testing.T) {
	_, err := GenerateSessionToken("", time.Now())
	assert.Error(t, err)
}
