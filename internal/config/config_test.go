package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
)

func TestLoadConfig_UsesNMIPostURLAlias(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	unsetEnvWithCleanup(t, "GATEWAY_POST_URL")
	setEnvWithCleanup(t, "NMI_POST_URL", "https://gateway.example.com/api/transact.php")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.GatewayPostURL != "https://gateway.example.com/api/transact.php" {
		t.Fatalf("expected GatewayPostURL from alias env var, got %q", cfg.GatewayPostURL)
	}
}

func TestLoadConfig_GatewayPostURLTakesPrecedenceOverAlias(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "GATEWAY_POST_URL", "https://primary.example.com")
	setEnvWithCleanup(t, "NMI_POST_URL", "https://alias.example.com")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.GatewayPostURL != "https://primary.example.com" {
		t.Fatalf("expected GatewayPostURL to prioritize GATEWAY_POST_URL, got %q", cfg.GatewayPostURL)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	unsetEnvWithCleanup(t, "SERVER_PORT")
	unsetEnvWithCleanup(t, "PORT")
	unsetEnvWithCleanup(t, "IDEMPOTENCY_TTL_MINUTES")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ServerPort != "8080" {
		t.Fatalf("expected default ServerPort 8080, got %q", cfg.ServerPort)
	}
	if cfg.IdempotencyTTLMinutes != 1440 {
		t.Fatalf("expected default IdempotencyTTLMinutes 1440, got %d", cfg.IdempotencyTTLMinutes)
	}
}

func setEnvWithCleanup(t *testing.T, key string, value string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}

func unsetEnvWithCleanup(t *testing.T, key string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("failed to unset env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}
