// filename: internal/rulestore/loader_test.go
package rulestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mailguard/mailguard/internal/common/logging"
)

const seedYAML = `rules:
  - id: seed-block-spam
    name: Block spam domain
    type: explicit
    config:
      mode: advanced
      from:
        operator: OR
        values: ["*@spam.example"]
    action:
      action: block
    priority: 100
  - id: seed-route-invoices
    name: Route invoices
    type: explicit
    config:
      mode: advanced
      subject:
        operator: OR
        values: ["invoice"]
    action:
      action: route
      endpointId: accounting-webhook
    priority: 50
    is_active: false
`

func writeSeedFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write seed file: %v", err)
	}
	return path
}

func seedTestLogger(t *testing.T) *logging.Logger {
	t.Helper()
	logger, err := logging.NewLogger(logging.Config{Level: "error", Format: "text"})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	return logger
}

func TestLoadSeedRules_CreatesRules(t *testing.T) {
	store := NewMemoryStore()
	path := writeSeedFile(t, seedYAML)

	created, err := LoadSeedRules(context.Background(), path, store, seedTestLogger(t))
	if err != nil {
		t.Fatalf("Failed to load seed rules: %v", err)
	}
	if created != 2 {
		t.Errorf("Expected 2 rules created, got %d", created)
	}

	rule, err := store.Get(context.Background(), "seed-route-invoices")
	if err != nil {
		t.Fatalf("Failed to get seeded rule: %v", err)
	}
	if rule.IsActive {
		t.Error("Expected is_active: false to be honored")
	}
	if rule.Action.EndpointID != "accounting-webhook" {
		t.Errorf("Expected route endpoint preserved, got %s", rule.Action.EndpointID)
	}
}

func TestLoadSeedRules_SkipsExistingIDs(t *testing.T) {
	store := NewMemoryStore()
	path := writeSeedFile(t, seedYAML)
	ctx := context.Background()

	if _, err := LoadSeedRules(ctx, path, store, seedTestLogger(t)); err != nil {
		t.Fatalf("Failed to load seed rules: %v", err)
	}

	// Правка через API не должна затираться повторной загрузкой
	newName := "edited via API"
	if _, err := store.Update(ctx, "seed-block-spam", RuleUpdate{Name: &newName}); err != nil {
		t.Fatalf("Failed to update rule: %v", err)
	}

	created, err := LoadSeedRules(ctx, path, store, seedTestLogger(t))
	if err != nil {
		t.Fatalf("Failed to reload seed rules: %v", err)
	}
	if created != 0 {
		t.Errorf("Expected no rules created on reload, got %d", created)
	}

	rule, _ := store.Get(ctx, "seed-block-spam")
	if rule.Name != "edited via API" {
		t.Errorf("Expected API edit preserved, got %s", rule.Name)
	}
}

func TestLoadSeedRules_InvalidConfig(t *testing.T) {
	store := NewMemoryStore()
	path := writeSeedFile(t, `rules:
  - id: broken
    name: Broken rule
    type: explicit
    config:
      mode: advanced
    action:
      action: allow
`)

	_, err := LoadSeedRules(context.Background(), path, store, seedTestLogger(t))
	if err == nil {
		t.Fatal("Expected error for config without criteria")
	}
}

func TestLoadSeedRules_MissingFile(t *testing.T) {
	store := NewMemoryStore()

	_, err := LoadSeedRules(context.Background(), "/nonexistent/rules.yaml", store, seedTestLogger(t))
	if err == nil {
		t.Fatal("Expected error for missing seed file")
	}
}
