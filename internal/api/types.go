package api

import (
	"time"

	"github.com/echodiary/echodiary/domain/entities"
)

// AuthRequest represents the request payload for gateway authentication
type AuthRequest struct {
	AccessKey string `json:"access_key" validate:"required"`
}

// AuthResponse represents the response payload for gateway authentication
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	ClientID  string    `json:"client_id"`
}

// JournalListResponse lists recorded entries, newest first
type JournalListResponse struct {
	Entries []entities.JournalEntry `json:"entries"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
