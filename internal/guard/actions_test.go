// filename: internal/guard/actions_test.go
package guard

import (
	"context"
	"testing"

	"github.com/mailguard/mailguard/internal/common/errors"
	"github.com/mailguard/mailguard/internal/endpoints"
	"github.com/mailguard/mailguard/internal/models"
)

func TestResolve_AllowAction(t *testing.T) {
	resolver := NewActionResolver(endpoints.NewMemoryStore())

	resolved, err := resolver.Resolve(context.Background(), models.Action{Type: models.ActionAllow})
	if err != nil {
		t.Fatalf("Expected no error for allow action, got %v", err)
	}
	if resolved.Action.Type != models.ActionAllow {
		t.Errorf("Expected allow action, got %s", resolved.Action.Type)
	}
	if resolved.Endpoint != nil {
		t.Error("Expected no endpoint for allow action")
	}
}

func TestResolve_BlockAction(t *testing.T) {
	resolver := NewActionResolver(endpoints.NewMemoryStore())

	resolved, err := resolver.Resolve(context.Background(), models.Action{Type: models.ActionBlock})
	if err != nil {
		t.Fatalf("Expected no error for block action, got %v", err)
	}
	if resolved.Action.Type != models.ActionBlock {
		t.Errorf("Expected block action, got %s", resolved.Action.Type)
	}
}

func TestResolve_RouteToActiveEndpoint(t *testing.T) {
	store := endpoints.NewMemoryStore()
	endpoint := &models.Endpoint{
		ID:       "ep-1",
		Name:     "accounting",
		Type:     models.EndpointTypeWebhook,
		Target:   "https://hooks.company.example/accounting",
		IsActive: true,
	}
	if err := store.Create(context.Background(), endpoint); err != nil {
		t.Fatalf("Failed to create endpoint: %v", err)
	}

	resolver := NewActionResolver(store)

	resolved, err := resolver.Resolve(context.Background(), models.Action{Type: models.ActionRoute, EndpointID: "ep-1"})
	if err != nil {
		t.Fatalf("Expected route to active endpoint to resolve, got %v", err)
	}
	if resolved.Endpoint == nil {
		t.Fatal("Expected resolved endpoint")
	}
	if resolved.Endpoint.Target != "https://hooks.company.example/accounting" {
		t.Errorf("Expected endpoint target preserved, got %s", resolved.Endpoint.Target)
	}
}

func TestResolve_RouteToMissingEndpoint(t *testing.T) {
	resolver := NewActionResolver(endpoints.NewMemoryStore())

	_, err := resolver.Resolve(context.Background(), models.Action{Type: models.ActionRoute, EndpointID: "ghost"})
	if err == nil {
		t.Fatal("Expected error for missing endpoint")
	}
	if !errors.IsErrorCode(err, errors.ErrorCodeActionResolution) {
		t.Errorf("Expected ACTION_RESOLUTION_ERROR, got %s", errors.GetErrorCode(err))
	}
}

func TestResolve_RouteToInactiveEndpoint(t *testing.T) {
	store := endpoints.NewMemoryStore()
	endpoint := &models.Endpoint{
		ID:       "ep-off",
		Name:     "disabled hook",
		Type:     models.EndpointTypeWebhook,
		Target:   "https://hooks.company.example/off",
		IsActive: false,
	}
	if err := store.Create(context.Background(), endpoint); err != nil {
		t.Fatalf("Failed to create endpoint: %v", err)
	}

	resolver := NewActionResolver(store)

	_, err := resolver.Resolve(context.Background(), models.Action{Type: models.ActionRoute, EndpointID: "ep-off"})
	if err == nil {
		t.Fatal("Expected error for inactive endpoint")
	}
	if !errors.IsErrorCode(err, errors.ErrorCodeActionResolution) {
		t.Errorf("Expected ACTION_RESOLUTION_ERROR, got %s", errors.GetErrorCode(err))
	}
}

func TestResolve_UnknownActionType(t *testing.T) {
	resolver := NewActionResolver(endpoints.NewMemoryStore())

	_, err := resolver.Resolve(context.Background(), models.Action{Type: "quarantine"})
	if err == nil {
		t.Fatal("Expected error for unknown action type")
	}
	if !errors.IsErrorCode(err, errors.ErrorCodeActionResolution) {
		t.Errorf("Expected ACTION_RESOLUTION_ERROR, got %s", errors.GetErrorCode(err))
	}
}
