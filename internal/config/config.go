// Package config loads gateway configuration from the environment.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/echodiary/echodiary/domain/entities"
)

// ServerConfig holds everything the gateway process needs beyond the model
// adapter's own credentials.
type ServerConfig struct {
	// Port the HTTP server listens on.
	Port string
	// JWTSecret signs gateway tokens.
	JWTSecret string
	// AccessKey is the shared key clients exchange for a token.
	AccessKey string
	// MaxSessionDuration bounds a single live session; zero keeps the
	// watchdog default.
	MaxSessionDuration time.Duration
}

// NewServerConfigFromEnv reads configuration from environment variables.
// JWT_SECRET and GATEWAY_ACCESS_KEY are required; PORT defaults to 8080.
func NewServerConfigFromEnv() (ServerConfig, error) {
	cfg := ServerConfig{
		Port:      os.Getenv("PORT"),
		JWTSecret: os.Getenv("JWT_SECRET"),
		AccessKey: os.Getenv("GATEWAY_ACCESS_KEY"),
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	if raw := os.Getenv("MAX_SESSION_DURATION"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return ServerConfig{}, fmt.Errorf("%w: MAX_SESSION_DURATION %q: %v", entities.ErrConfig, raw, err)
		}
		cfg.MaxSessionDuration = d
	}

	if err := ValidateServerConfig(cfg); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

// ValidateServerConfig checks the required fields.
func ValidateServerConfig(cfg ServerConfig) error {
	if cfg.JWTSecret == "" {
		return fmt.Errorf("%w: JWT_SECRET is required", entities.ErrConfig)
	}
	if cfg.AccessKey == "" {
		return fmt.Errorf("%w: GATEWAY_ACCESS_KEY is required", entities.ErrConfig)
	}
	if cfg.MaxSessionDuration < 0 {
		return fmt.Errorf("%w: MAX_SESSION_DURATION must not be negative", entities.ErrConfig)
	}
	return nil
}
