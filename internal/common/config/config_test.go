// filename: internal/common/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := &Config{}
	cfg.Server.Port = 8080
	cfg.NATS.URLs = []string{"nats://localhost:4222"}
	cfg.PostgreSQL.Database = "mailguard"
	cfg.ClickHouse.Hosts = []string{"localhost"}
	cfg.AI.Timeout = 10 * time.Second
	return cfg
}

func TestValidate_ValidConfig(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Errorf("Expected valid config to pass, got %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for zero server port")
	}
}

func TestValidate_MissingNATSURLs(t *testing.T) {
	cfg := validConfig()
	cfg.NATS.URLs = nil

	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for missing NATS URLs")
	}
}

func TestValidate_MissingDatabase(t *testing.T) {
	cfg := validConfig()
	cfg.PostgreSQL.Database = ""

	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for missing PostgreSQL database")
	}
}

func TestValidate_NonPositiveAITimeout(t *testing.T) {
	cfg := validConfig()
	cfg.AI.Timeout = 0

	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for non-positive AI timeout")
	}
}

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mailguard.yaml")
	content := []byte("postgresql:\n  database: mailguard\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default server port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Redis.CacheTTL != 30*time.Second {
		t.Errorf("Expected default cache TTL 30s, got %v", cfg.Redis.CacheTTL)
	}
	if cfg.Delivery.Webhook.MaxRetries != 3 {
		t.Errorf("Expected default webhook retries 3, got %d", cfg.Delivery.Webhook.MaxRetries)
	}
	if cfg.Server.RateLimit.RequestsPerMinute != 1000 {
		t.Errorf("Expected default rate limit 1000, got %d", cfg.Server.RateLimit.RequestsPerMinute)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/mailguard.yaml"); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestGetServerAddr(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Host = "127.0.0.1"

	if addr := cfg.GetServerAddr(); addr != "127.0.0.1:8080" {
		t.Errorf("Expected 127.0.0.1:8080, got %s", addr)
	}
}

func TestGetRedisAddr(t *testing.T) {
	cfg := validConfig()
	cfg.Redis.Host = "localhost"
	cfg.Redis.Port = 6379

	if addr := cfg.GetRedisAddr(); addr != "localhost:6379" {
		t.Errorf("Expected localhost:6379, got %s", addr)
	}
}
