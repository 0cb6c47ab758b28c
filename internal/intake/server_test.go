// filename: internal/intake/server_test.go
package intake

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mailguard/mailguard/internal/common/config"
	"github.com/mailguard/mailguard/internal/common/logging"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger, err := logging.NewLogger(logging.Config{Level: "error", Format: "text"})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	cfg := &config.Config{}
	cfg.Server.BodySizeLimit = 1024 * 1024
	cfg.Server.RateLimit.RequestsPerMinute = 100
	cfg.Server.RateLimit.BlockDuration = time.Minute

	return NewServer(cfg, nil, logger)
}

func TestProcessEmail_AssignsID(t *testing.T) {
	server := testServer(t)

	email, err := server.processEmail(`{"from": "a@b.example", "to": ["c@d.example"], "subject": "hi"}`)
	if err != nil {
		t.Fatalf("Expected valid email to process, got %v", err)
	}
	if email.ID == "" {
		t.Error("Expected ID assigned to email without one")
	}
	if email.ReceivedAt.IsZero() {
		t.Error("Expected receivedAt defaulted")
	}
}

func TestProcessEmail_PreservesID(t *testing.T) {
	server := testServer(t)

	email, err := server.processEmail(`{"id": "msg-1", "from": "a@b.example", "to": ["c@d.example"]}`)
	if err != nil {
		t.Fatalf("Expected valid email to process, got %v", err)
	}
	if email.ID != "msg-1" {
		t.Errorf("Expected existing ID preserved, got %s", email.ID)
	}
}

func TestProcessEmail_MissingSender(t *testing.T) {
	server := testServer(t)

	_, err := server.processEmail(`{"to": ["c@d.example"], "subject": "no sender"}`)
	if err == nil {
		t.Error("Expected error for email without sender")
	}
}

func TestProcessEmail_NoRecipients(t *testing.T) {
	server := testServer(t)

	_, err := server.processEmail(`{"from": "a@b.example", "to": []}`)
	if err == nil {
		t.Error("Expected error for email without recipients")
	}
}

func TestProcessEmail_InvalidJSON(t *testing.T) {
	server := testServer(t)

	_, err := server.processEmail(`{not json`)
	if err == nil {
		t.Error("Expected error for malformed JSON")
	}
}

func TestSplitNDJSON(t *testing.T) {
	data := []byte("{\"a\":1}\n\n  \n{\"b\":2}\n")

	lines := splitNDJSON(data)
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
	if lines[0] != `{"a":1}` || lines[1] != `{"b":2}` {
		t.Errorf("Expected trimmed lines, got %v", lines)
	}
}

func TestHealthHandler(t *testing.T) {
	server := testServer(t)
	router := server.Router()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/health", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
}

func TestBatchHandler_RejectsWrongContentType(t *testing.T) {
	server := testServer(t)
	router := server.Router()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/v1/emails/batch", bytes.NewBufferString(`{"from":"a@b"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for wrong content type, got %d", w.Code)
	}
}

func TestRateLimitMiddleware_Blocks(t *testing.T) {
	server := testServer(t)
	server.config.Server.RateLimit.RequestsPerMinute = 2
	router := server.Router()

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/health", nil)
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("Expected request %d to pass, got %d", i+1, w.Code)
		}
	}

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/health", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Errorf("Expected status 429 after limit, got %d", w.Code)
	}
}

func TestBodySizeMiddleware_RejectsLargeBody(t *testing.T) {
	server := testServer(t)
	server.config.Server.BodySizeLimit = 10
	router := server.Router()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/v1/emails", bytes.NewBufferString(`{"from": "a@b.example", "to": ["c@d.example"]}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected status 413, got %d", w.Code)
	}
}
