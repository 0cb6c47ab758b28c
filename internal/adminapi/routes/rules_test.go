// filename: internal/adminapi/routes/rules_test.go
package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/mailguard/mailguard/internal/common/logging"
	"github.com/mailguard/mailguard/internal/endpoints"
	"github.com/mailguard/mailguard/internal/guard"
	"github.com/mailguard/mailguard/internal/models"
	"github.com/mailguard/mailguard/internal/rulestore"
)

// fakeAIClient подменяет языковой коллаборатор в тестах API
type fakeAIClient struct {
	verdict *guard.AIVerdict
	config  *models.ExplicitConfig
	err     error
}

func (f *fakeAIClient) EvaluatePrompt(ctx context.Context, prompt string, email *models.StructuredEmail) (*guard.AIVerdict, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.verdict, nil
}

func (f *fakeAIClient) GenerateConfig(ctx context.Context, description string) (*models.ExplicitConfig, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.config, nil
}

func setupRulesRouter(t *testing.T, ai guard.AIClient) (*gin.Engine, rulestore.Store, *endpoints.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger, err := logging.NewLogger(logging.Config{Level: "error", Format: "text"})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	store := rulestore.NewMemoryStore()
	endpointStore := endpoints.NewMemoryStore()
	evaluator := guard.NewEvaluator(ai, logger)
	generator := guard.NewGenerator(ai)
	handler := NewRulesHandler(logger, store, endpointStore, evaluator, generator)

	router := gin.New()
	v1 := router.Group("/api/v1")
	{
		v1.GET("/rules", handler.GetRules)
		v1.POST("/rules", handler.CreateRule)
		v1.POST("/rules/generate", handler.GenerateRule)
		v1.GET("/rules/:id", handler.GetRuleByID)
		v1.PUT("/rules/:id", handler.UpdateRule)
		v1.DELETE("/rules/:id", handler.DeleteRule)
		v1.PUT("/rules/:id/enable", handler.EnableRule)
		v1.PUT("/rules/:id/disable", handler.DisableRule)
		v1.GET("/rules/:id/stats", handler.GetRuleStats)
		v1.POST("/rules/:id/check", handler.CheckRule)
	}

	return router, store, endpointStore
}

func createTestRule(t *testing.T, store rulestore.Store, id string) {
	t.Helper()
	rule := &models.Rule{
		ID:   id,
		Name: "rule-" + id,
		Type: models.RuleTypeExplicit,
		Config: &models.ExplicitConfig{
			Mode: models.ConfigModeAdvanced,
			Subject: &models.CriteriaConfig{
				Operator: models.OperatorOr,
				Values:   []string{"invoice"},
			},
		},
		Action:   models.Action{Type: models.ActionAllow},
		Priority: 10,
		IsActive: true,
	}
	if err := store.Create(context.Background(), rule); err != nil {
		t.Fatalf("Failed to create test rule: %v", err)
	}
}

func TestCreateRule_Valid(t *testing.T) {
	router, _, _ := setupRulesRouter(t, &fakeAIClient{})

	body := `{
		"name": "Block spam domain",
		"type": "explicit",
		"config": {"mode": "advanced", "from": {"operator": "OR", "values": ["*@spam.example"]}},
		"action": {"action": "block"},
		"priority": 100
	}`

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/v1/rules", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var rule struct {
		ID       string          `json:"id"`
		Config   json.RawMessage `json:"config"`
		IsActive bool            `json:"is_active"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &rule); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if rule.ID == "" {
		t.Error("Expected generated rule ID")
	}
	if !rule.IsActive {
		t.Error("Expected rule active by default")
	}
	config, err := models.ParseRuleConfig(models.RuleTypeExplicit, rule.Config)
	if err != nil {
		t.Fatalf("Failed to parse returned config: %v", err)
	}
	explicit, ok := config.(*models.ExplicitConfig)
	if !ok || explicit.From == nil {
		t.Error("Expected explicit config with from criteria in response")
	}
}

func TestCreateRule_InvalidConfig(t *testing.T) {
	router, _, _ := setupRulesRouter(t, &fakeAIClient{})

	body := `{
		"name": "Broken rule",
		"type": "explicit",
		"config": {"mode": "advanced"},
		"action": {"action": "allow"}
	}`

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/v1/rules", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestCreateRule_MissingName(t *testing.T) {
	router, _, _ := setupRulesRouter(t, &fakeAIClient{})

	body := `{
		"type": "explicit",
		"config": {"mode": "advanced", "subject": {"operator": "OR", "values": ["x"]}},
		"action": {"action": "allow"}
	}`

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/v1/rules", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestCreateRule_RouteToMissingEndpoint(t *testing.T) {
	router, _, _ := setupRulesRouter(t, &fakeAIClient{})

	body := `{
		"name": "Route to nowhere",
		"type": "explicit",
		"config": {"mode": "advanced", "subject": {"operator": "OR", "values": ["invoice"]}},
		"action": {"action": "route", "endpointId": "ghost"}
	}`

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/v1/rules", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for route to missing endpoint, got %d", w.Code)
	}
}

func TestCreateRule_RouteToActiveEndpoint(t *testing.T) {
	router, _, endpointStore := setupRulesRouter(t, &fakeAIClient{})

	endpoint := &models.Endpoint{
		ID:       "accounting-webhook",
		Name:     "accounting",
		Type:     models.EndpointTypeWebhook,
		Target:   "https://hooks.company.example/accounting",
		IsActive: true,
	}
	if err := endpointStore.Create(context.Background(), endpoint); err != nil {
		t.Fatalf("Failed to create endpoint: %v", err)
	}

	body := `{
		"name": "Route invoices",
		"type": "explicit",
		"config": {"mode": "advanced", "subject": {"operator": "OR", "values": ["invoice"]}},
		"action": {"action": "route", "endpointId": "accounting-webhook"}
	}`

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/v1/rules", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
}

func TestGetRuleByID_NotFound(t *testing.T) {
	router, _, _ := setupRulesRouter(t, &fakeAIClient{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/rules/missing", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestGetRules_List(t *testing.T) {
	router, store, _ := setupRulesRouter(t, &fakeAIClient{})
	createTestRule(t, store, "r1")
	createTestRule(t, store, "r2")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/rules", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response struct {
		Rules []json.RawMessage `json:"rules"`
		Total int               `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response.Total != 2 {
		t.Errorf("Expected 2 rules, got %d", response.Total)
	}
}

func TestEnableDisableRule(t *testing.T) {
	router, store, _ := setupRulesRouter(t, &fakeAIClient{})
	createTestRule(t, store, "r1")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PUT", "/api/v1/rules/r1/disable", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	rule, err := store.Get(context.Background(), "r1")
	if err != nil {
		t.Fatalf("Failed to get rule: %v", err)
	}
	if rule.IsActive {
		t.Error("Expected rule disabled")
	}

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("PUT", "/api/v1/rules/r1/enable", nil)
	router.ServeHTTP(w, req)

	rule, _ = store.Get(context.Background(), "r1")
	if !rule.IsActive {
		t.Error("Expected rule enabled")
	}
}

func TestCheckRule_DoesNotIncrementTriggerCount(t *testing.T) {
	router, store, _ := setupRulesRouter(t, &fakeAIClient{})
	createTestRule(t, store, "r1")

	email := `{"from": "billing@vendor.example", "to": ["ops@company.example"], "subject": "Invoice #1"}`

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/v1/rules/r1/check", bytes.NewBufferString(email))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var result models.RuleCheckResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if !result.Matched {
		t.Error("Expected rule to match test email")
	}

	rule, err := store.Get(context.Background(), "r1")
	if err != nil {
		t.Fatalf("Failed to get rule: %v", err)
	}
	if rule.TriggerCount != 0 {
		t.Errorf("Expected check to leave trigger count at 0, got %d", rule.TriggerCount)
	}
	if rule.LastTriggeredAt != nil {
		t.Error("Expected check to leave lastTriggeredAt unset")
	}
}

func TestCheckRule_InvalidEmail(t *testing.T) {
	router, store, _ := setupRulesRouter(t, &fakeAIClient{})
	createTestRule(t, store, "r1")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/v1/rules/r1/check", bytes.NewBufferString(`{"subject": "no sender"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestUpdateRule_ConfigUnderCurrentType(t *testing.T) {
	router, store, _ := setupRulesRouter(t, &fakeAIClient{})
	createTestRule(t, store, "r1")

	// Конфигурация в формате ai_prompt не парсится под explicit правило
	body := `{"config": {"mode": "advanced", "prompt": "is this spam?"}}`

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PUT", "/api/v1/rules/r1", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestDeleteRule(t *testing.T) {
	router, store, _ := setupRulesRouter(t, &fakeAIClient{})
	createTestRule(t, store, "r1")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", "/api/v1/rules/r1", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	if _, err := store.Get(context.Background(), "r1"); err == nil {
		t.Error("Expected rule gone after delete")
	}
}

func TestGetRuleStats(t *testing.T) {
	router, store, _ := setupRulesRouter(t, &fakeAIClient{})
	createTestRule(t, store, "r1")

	if err := store.IncrementTrigger(context.Background(), "r1"); err != nil {
		t.Fatalf("Failed to increment trigger: %v", err)
	}

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/rules/r1/stats", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var stats map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if stats["trigger_count"].(float64) != 1 {
		t.Errorf("Expected trigger count 1, got %v", stats["trigger_count"])
	}
	if stats["last_triggered_at"] == nil {
		t.Error("Expected last_triggered_at in stats")
	}
}

func TestGenerateRule_ReturnsConfigWithoutSaving(t *testing.T) {
	ai := &fakeAIClient{
		config: &models.ExplicitConfig{
			Mode: models.ConfigModeSimple,
			From: &models.CriteriaConfig{
				Operator: models.OperatorOr,
				Values:   []string{"*@spam.example"},
			},
		},
	}
	router, store, _ := setupRulesRouter(t, ai)

	body := `{"description": "block everything from spam.example"}`

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/v1/rules/generate", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var response struct {
		Type   models.RuleType        `json:"type"`
		Config *models.ExplicitConfig `json:"config"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response.Type != models.RuleTypeExplicit {
		t.Errorf("Expected explicit type, got %s", response.Type)
	}
	if response.Config == nil || response.Config.From == nil {
		t.Fatal("Expected generated config in response")
	}

	// Генерация только показывает конфигурацию, ничего не сохраняет
	rules, err := store.List(context.Background(), rulestore.ListFilter{})
	if err != nil {
		t.Fatalf("Failed to list rules: %v", err)
	}
	if len(rules) != 0 {
		t.Errorf("Expected no rules saved by generate, got %d", len(rules))
	}
}

func TestGenerateRule_EmptyDescription(t *testing.T) {
	router, _, _ := setupRulesRouter(t, &fakeAIClient{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/v1/rules/generate", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}
