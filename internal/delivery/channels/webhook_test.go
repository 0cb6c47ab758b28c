// filename: internal/delivery/channels/webhook_test.go
package channels

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mailguard/mailguard/internal/common/config"
	"github.com/mailguard/mailguard/internal/common/logging"
	"github.com/mailguard/mailguard/internal/models"
)

func channelTestLogger(t *testing.T) *logging.Logger {
	t.Helper()
	logger, err := logging.NewLogger(logging.Config{Level: "error", Format: "text"})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	return logger
}

func routedTo(target string) *models.RoutedEmail {
	return &models.RoutedEmail{
		Email: &models.StructuredEmail{
			ID:       "email-1",
			From:     "billing@vendor.example",
			To:       []string{"ops@company.example"},
			Subject:  "Invoice #1",
			TextBody: "see attached",
		},
		RuleID: "rule-1",
		Endpoint: &models.Endpoint{
			ID:       "ep-1",
			Name:     "accounting",
			Type:     models.EndpointTypeWebhook,
			Target:   target,
			IsActive: true,
		},
		RoutedAt: time.Now(),
	}
}

func TestWebhookDeliver_Success(t *testing.T) {
	var received WebhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Expected JSON content type, got %s", r.Header.Get("Content-Type"))
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("Failed to decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	channel := NewWebhookChannel(&config.WebhookConfig{Timeout: 5 * time.Second}, channelTestLogger(t))

	if err := channel.Deliver(routedTo(server.URL)); err != nil {
		t.Fatalf("Expected delivery to succeed, got %v", err)
	}
	if received.RuleID != "rule-1" {
		t.Errorf("Expected rule ID in payload, got %s", received.RuleID)
	}
	if received.Email == nil || received.Email.ID != "email-1" {
		t.Error("Expected email in payload")
	}
	if received.Source != "mailguard" {
		t.Errorf("Expected source mailguard, got %s", received.Source)
	}
}

func TestWebhookDeliver_RetriesOnServerError(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := &config.WebhookConfig{
		Timeout:    5 * time.Second,
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
	}
	channel := NewWebhookChannel(cfg, channelTestLogger(t))

	if err := channel.Deliver(routedTo(server.URL)); err != nil {
		t.Fatalf("Expected delivery to succeed after retries, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestWebhookDeliver_ExhaustsRetries(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	cfg := &config.WebhookConfig{
		Timeout:    5 * time.Second,
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
	}
	channel := NewWebhookChannel(cfg, channelTestLogger(t))

	if err := channel.Deliver(routedTo(server.URL)); err == nil {
		t.Fatal("Expected error after exhausting retries")
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestWebhookDeliver_AuthHeader(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := &config.WebhookConfig{
		Timeout:   5 * time.Second,
		AuthToken: "secret-token",
	}
	channel := NewWebhookChannel(cfg, channelTestLogger(t))

	if err := channel.Deliver(routedTo(server.URL)); err != nil {
		t.Fatalf("Expected delivery to succeed, got %v", err)
	}
	if gotAuth != "Bearer secret-token" {
		t.Errorf("Expected bearer auth header, got %q", gotAuth)
	}
}

func TestWebhookChannel_GetType(t *testing.T) {
	channel := NewWebhookChannel(&config.WebhookConfig{}, channelTestLogger(t))

	if channel.GetType() != "webhook" {
		t.Errorf("Expected type webhook, got %s", channel.GetType())
	}
}
