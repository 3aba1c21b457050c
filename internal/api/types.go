package api

// CreateSessionRequest represents the request payload for minting a
// voice-session credential
type CreateSessionRequest struct {
	RestaurantID string `json:"restaurant_id" validate:"required"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
