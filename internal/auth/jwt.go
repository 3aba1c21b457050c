package auth

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tabletalk/tabletalk/domain/entities"
)

// SessionClaims represents the claims in a voice-session token
type SessionClaims struct {
	RestaurantID string `json:"restaurant_id"`
	Role         string `json:"role"` // always "voice_session"
	jwt.RegisteredClaims
}

// RoleVoiceSession is the only role minted for realtime connections
const RoleVoiceSession = "voice_session"

var jwtSecret = []byte(defaultSecret())

func defaultSecret() string {
	if s := os.Getenv("SESSION_TOKEN_SECRET"); s != "" {
		return s
	}
	return "dev-only-secret"
}

// GenerateSessionToken mints the opaque secret for a session credential.
// TTL is always exactly entities.CredentialTTL from issuance.
func GenerateSessionToken(restaurantID string, issuedAt time.Time) (string, error) {
	if restaurantID == "" {
		return "", errors.New("restaurant id is required")
	}

	claims := &SessionClaims{
		RestaurantID: restaurantID,
		Role:         RoleVoiceSession,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(entities.CredentialTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

// ValidateSessionToken validates a session token and returns its claims
func ValidateSessionToken(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrInvalidKey
	}
	if claims.Role != RoleVoiceSession {
		return nil, errors.New("token is not a voice session token")
	}
	return claims, nil
}
