// Package api wires the gateway's HTTP surface: authentication, journal
// listing, health, and the WebSocket upgrade.
package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/echodiary/echodiary/internal/auth"
	"github.com/echodiary/echodiary/internal/websocket"
	"github.com/echodiary/echodiary/usecase"
)

// InitRoutes initializes all API routes
func InitRoutes(
	e *echo.Echo,
	hub *websocket.Hub,
	authenticator *auth.Authenticator,
	journal *usecase.JournalService,
	accessKey string,
	logger *zap.Logger,
) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "echodiary-gateway",
		})
	})

	// API v1 routes
	v1 := e.Group("/api/v1")

	v1.POST("/auth", func(c echo.Context) error {
		return clientAuth(c, authenticator, accessKey, logger)
	})

	v1.GET("/journal", func(c echo.Context) error {
		return listJournal(c, authenticator, journal)
	})

	// WebSocket endpoint with JWT validation
	e.GET("/ws", func(c echo.Context) error {
		return websocketWithAuth(hub, c, authenticator, logger)
	})
}

// clientAuth exchanges the shared gateway access key for a JWT.
func clientAuth(c echo.Context, authenticator *auth.Authenticator, accessKey string, logger *zap.Logger) error {
	var req AuthRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind auth request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	if req.AccessKey == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "Access key is required",
		})
	}

	if subtle.ConstantTimeCompare([]byte(req.AccessKey), []byte(accessKey)) != 1 {
		logger.Warn("Client authentication failed")
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "authentication_failed",
			Message: "Invalid access key",
		})
	}

	clientID := uuid.NewString()
	token, expiresAt, err := authenticator.GenerateToken(clientID)
	if err != nil {
		logger.Error("Failed to generate token",
			zap.String("client_id", clientID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate authentication token",
		})
	}

	logger.Info("Client authenticated", zap.String("client_id", clientID))

	return c.JSON(http.StatusOK, AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		ClientID:  clientID,
	})
}

// listJournal returns the in-memory history for an authenticated client.
func listJournal(c echo.Context, authenticator *auth.Authenticator, journal *usecase.JournalService) error {
	if _, err := validateRequestToken(c, authenticator); err != nil {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token",
			Message: "Invalid or expired JWT token",
		})
	}
	return c.JSON(http.StatusOK, JournalListResponse{Entries: journal.Entries()})
}

// websocketWithAuth handles WebSocket connections with JWT authentication.
// Browsers cannot set headers on WebSocket upgrades, so the token is also
// accepted as a query parameter.
func websocketWithAuth(hub *websocket.Hub, c echo.Context, authenticator *auth.Authenticator, logger *zap.Logger) error {
	claims, err := validateRequestToken(c, authenticator)
	if err != nil {
		logger.Warn("WebSocket connection rejected", zap.Error(err))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token",
			Message: "A valid JWT token is required",
		})
	}

	logger.Info("WebSocket connection authenticated",
		zap.String("client_id", claims.ClientID))

	return websocket.HandleWebSocket(hub, c, claims.ClientID, logger)
}

func validateRequestToken(c echo.Context, authenticator *auth.Authenticator) (*auth.Claims, error) {
	var token string
	authHeader := c.Request().Header.Get("Authorization")
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		token = authHeader[7:]
	}
	if token == "" {
		token = c.QueryParam("token")
	}
	if token == "" {
		return nil, echo.ErrUnauthorized
	}
	return authenticator.ValidateToken(token)
}
