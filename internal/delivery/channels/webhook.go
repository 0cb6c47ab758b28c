// filename: internal/delivery/channels/webhook.go
package channels

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mailguard/mailguard/internal/common/config"
	"github.com/mailguard/mailguard/internal/common/logging"
	"github.com/mailguard/mailguard/internal/models"
)

// WebhookChannel доставляет перенаправленные письма на webhook эндпоинты // v1.0
type WebhookChannel struct {
	config *config.WebhookConfig
	logger *logging.Logger
	client *http.Client
}

// WebhookPayload представляет payload для webhook // v1.0
type WebhookPayload struct {
	Email     *models.StructuredEmail `json:"email"`
	RuleID    string                  `json:"rule_id"`
	Timestamp time.Time               `json:"timestamp"`
	Source    string                  `json:"source"`
	Version   string                  `json:"version"`
}

// NewWebhookChannel создает новый webhook канал // v1.0
func NewWebhookChannel(cfg *config.WebhookConfig, logger *logging.Logger) *WebhookChannel {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &WebhookChannel{
		config: cfg,
		logger: logger,
		client: &http.Client{Timeout: timeout},
	}
}

// Deliver отправляет письмо на webhook эндпоинт с ретраями // v1.0
func (w *WebhookChannel) Deliver(routed *models.RoutedEmail) error {
	payload := WebhookPayload{
		Email:     routed.Email,
		RuleID:    routed.RuleID,
		Timestamp: time.Now(),
		Source:    "mailguard",
		Version:   "1.0.0",
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= w.config.MaxRetries; attempt++ {
		if attempt > 0 {
			w.logger.WithFields(map[string]interface{}{
				"email_id": routed.Email.ID,
				"attempt":  attempt,
				"delay":    w.config.RetryDelay,
			}).Info("Retrying webhook delivery")

			time.Sleep(w.config.RetryDelay)
		}

		if err := w.sendWebhook(routed.Endpoint.Target, jsonData); err != nil {
			lastErr = err
			w.logger.WithFields(map[string]interface{}{
				"email_id": routed.Email.ID,
				"attempt":  attempt + 1,
				"error":    err.Error(),
			}).Warn("Webhook delivery attempt failed")
			continue
		}

		w.logger.WithFields(map[string]interface{}{
			"email_id": routed.Email.ID,
			"attempt":  attempt + 1,
			"url":      routed.Endpoint.Target,
		}).Info("Webhook delivered successfully")

		return nil
	}

	return fmt.Errorf("failed to deliver webhook after %d attempts: %w", w.config.MaxRetries+1, lastErr)
}

// sendWebhook отправляет один webhook запрос // v1.0
func (w *WebhookChannel) sendWebhook(url string, jsonData []byte) error {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "MailGuard/1.0.0")
	req.Header.Set("X-MailGuard-Timestamp", time.Now().Format(time.RFC3339))

	for key, value := range w.config.Headers {
		req.Header.Set(key, value)
	}

	if w.config.AuthToken != "" {
		header := w.config.AuthHeader
		if header == "" {
			header = "Authorization"
			req.Header.Set(header, "Bearer "+w.config.AuthToken)
		} else {
			req.Header.Set(header, w.config.AuthToken)
		}
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if shouldRetry(resp.StatusCode) {
		return fmt.Errorf("webhook returned retryable status %d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}

// shouldRetry определяет, нужно ли повторить запрос // v1.0
func shouldRetry(statusCode int) bool {
	if statusCode >= 500 {
		return true
	}

	retryable := []int{408, 429}
	for _, status := range retryable {
		if status == statusCode {
			return true
		}
	}

	return false
}

// GetType возвращает тип канала // v1.0
func (w *WebhookChannel) GetType() string {
	return "webhook"
}
