package app

import (
	"testing"
	"time"

	_ "github.com/dealerlink/dealerlink/internal/testing/guard"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.AppAddr != ":8080" {
		t.Fatalf("unexpected addr: %s", cfg.AppAddr)
	}
	if cfg.JWTAccessTTL != 15*time.Minute {
		t.Fatalf("unexpected access ttl: %s", cfg.JWTAccessTTL)
	}
	if cfg.JWTRefreshTTL != 168*time.Hour {
		t.Fatalf("unexpected refresh ttl: %s", cfg.JWTRefreshTTL)
	}
	if cfg.IsProduction() {
		t.Fatal("development config must not report production")
	}
}

func TestLoadConfigRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error when JWT_SECRET is empty")
	}
}

func TestInTestMode(t *testing.T) {
	t.Setenv(testModeEnv, "1")
	RefreshTestMode()
	if !InTestMode() {
		t.Fatal("expected test mode on")
	}

	t.Setenv(testModeEnv, "")
	RefreshTestMode()
	if InTestMode() {
		t.Fatal("expected test mode off")
	}
}
