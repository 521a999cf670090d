package config

import (
	"errors"
	"testing"
	"time"

	commonerrors "github.com/quickchat/server/internal/common/errors"
)

const validSecret = "0123456789abcdef0123456789abcdef"

func setRequired(t *testing.T) {
	t.Setenv("JWT_SECRET", validSecret)
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/quickchat")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTPPort != "5000" {
		t.Errorf("HTTPPort = %q, want 5000", cfg.HTTPPort)
	}
	if cfg.AccessTokenTTL != 7*24*time.Hour {
		t.Errorf("AccessTokenTTL = %v, want 168h", cfg.AccessTokenTTL)
	}
	if cfg.MediaDir != "media" || cfg.MediaBaseURL != "/media" {
		t.Errorf("media defaults wrong: %q %q", cfg.MediaDir, cfg.MediaBaseURL)
	}
	if cfg.WebSocketPingPeriod >= cfg.WebSocketPongWait {
		t.Error("ping period must be shorter than pong wait")
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("ACCESS_TOKEN_TTL", "1h")
	t.Setenv("RATE_LIMIT_BURST", "99")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPPort != "8080" {
		t.Errorf("HTTPPort = %q, want 8080", cfg.HTTPPort)
	}
	if cfg.AccessTokenTTL != time.Hour {
		t.Errorf("AccessTokenTTL = %v, want 1h", cfg.AccessTokenTTL)
	}
	if cfg.RateLimitBurst != 99 {
		t.Errorf("RateLimitBurst = %d, want 99", cfg.RateLimitBurst)
	}
}

func TestLoadMissingSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/quickchat")
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); !errors.Is(err, commonerrors.ErrMissingRequiredEnv) {
		t.Fatalf("expected ErrMissingRequiredEnv, got %v", err)
	}
}

func TestLoadShortSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/quickchat")
	t.Setenv("JWT_SECRET", "too-short")

	if _, err := Load(); !errors.Is(err, commonerrors.ErrInvalidJWTSecret) {
		t.Fatalf("expected ErrInvalidJWTSecret, got %v", err)
	}
}

func TestLoadMissingDatabaseURL(t *testing.T) {
	t.Setenv("JWT_SECRET", validSecret)
	t.Setenv("DATABASE_URL", "")

	if _, err := Load(); !errors.Is(err, commonerrors.ErrMissingRequiredEnv) {
		t.Fatalf("expected ErrMissingRequiredEnv, got %v", err)
	}
}
