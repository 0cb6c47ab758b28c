// filename: internal/adminapi/routes/health_test.go
package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mailguard/mailguard/internal/common/logging"
)

// createTestLogger создает logger для тестов
func createTestLogger(t *testing.T) *logging.Logger {
	config := logging.Config{
		Level:  "info",
		Format: "json",
		Output: "stdout",
	}
	logger, err := logging.NewLogger(config)
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	return logger
}

// createTestContext создает gin контекст для тестов
func createTestContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	return c, w
}

func TestNewHealthHandler(t *testing.T) {
	logger := createTestLogger(t)
	handler := NewHealthHandler(logger, nil, nil)

	if handler == nil {
		t.Fatal("NewHealthHandler returned nil")
	}

	if handler.logger != logger {
		t.Error("Handler logger not set correctly")
	}
}

func TestHealthHandler_HealthCheck(t *testing.T) {
	handler := NewHealthHandler(createTestLogger(t), nil, nil)

	c, w := createTestContext(t)
	handler.HealthCheck(c)

	if status := w.Code; status != http.StatusOK {
		t.Errorf("Handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}

	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if status, exists := response["status"]; !exists || status != "healthy" {
		t.Errorf("Expected status healthy, got %v", response["status"])
	}
	if service, exists := response["service"]; !exists || service != "mailguard-adminapi" {
		t.Errorf("Expected service mailguard-adminapi, got %v", response["service"])
	}
	if _, exists := response["uptime"]; !exists {
		t.Error("Expected uptime in response")
	}
}

func TestHealthHandler_LivenessCheck(t *testing.T) {
	handler := NewHealthHandler(createTestLogger(t), nil, nil)

	c, w := createTestContext(t)
	handler.LivenessCheck(c)

	if status := w.Code; status != http.StatusOK {
		t.Errorf("Handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}

	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if status, exists := response["status"]; !exists || status != "alive" {
		t.Errorf("Expected status alive, got %v", response["status"])
	}
	if _, exists := response["go_routines"]; !exists {
		t.Error("Expected go_routines in response")
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		input time.Duration
		want  string
	}{
		{30 * time.Second, "30s"},
		{5*time.Minute + 10*time.Second, "5m 10s"},
		{2*time.Hour + 3*time.Minute, "2h 3m 0s"},
		{26*time.Hour + 5*time.Minute, "1d 2h 5m 0s"},
	}

	for _, tc := range cases {
		if got := formatDuration(tc.input); got != tc.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	cases := []struct {
		input uint64
		want  string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
		{3 * 1024 * 1024 * 1024, "3.0 GB"},
	}

	for _, tc := range cases {
		if got := formatBytes(tc.input); got != tc.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tc.input, got, tc.want)
		}
	}
}
