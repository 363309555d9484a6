package config

import (
	"errors"
	"testing"
	"time"

	"github.com/echodiary/echodiary/domain/entities"
)

func TestNewServerConfigFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("GATEWAY_ACCESS_KEY", "key")
	t.Setenv("MAX_SESSION_DURATION", "15m")

	cfg, err := NewServerConfigFromEnv()
	if err != nil {
		t.Fatalf("NewServerConfigFromEnv() error = %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.MaxSessionDuration != 15*time.Minute {
		t.Errorf("MaxSessionDuration = %v", cfg.MaxSessionDuration)
	}
}

func TestNewServerConfigFromEnvDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("GATEWAY_ACCESS_KEY", "key")
	t.Setenv("MAX_SESSION_DURATION", "")

	cfg, err := NewServerConfigFromEnv()
	if err != nil {
		t.Fatalf("NewServerConfigFromEnv() error = %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.MaxSessionDuration != 0 {
		t.Errorf("MaxSessionDuration = %v, want 0", cfg.MaxSessionDuration)
	}
}

func TestNewServerConfigFromEnvMissingSecrets(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("GATEWAY_ACCESS_KEY", "key")

	if _, err := NewServerConfigFromEnv(); !errors.Is(err, entities.ErrConfig) {
		t.Fatalf("error = %v, want ErrConfig", err)
	}

	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("GATEWAY_ACCESS_KEY", "")
	if _, err := NewServerConfigFromEnv(); !errors.Is(err, entities.ErrConfig) {
		t.Fatalf("error = %v, want ErrConfig", err)
	}
}

func TestNewServerConfigFromEnvBadDuration(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("GATEWAY_ACCESS_KEY", "key")
	t.Setenv("MAX_SESSION_DURATION", "soon")

	if _, err := NewServerConfigFromEnv(); !errors.Is(err, entities.ErrConfig) {
		t.Fatalf("error = %v, want ErrConfig", err)
	}
}
