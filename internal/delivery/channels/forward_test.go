// filename: internal/delivery/channels/forward_test.go
package channels

import (
	"strings"
	"testing"

	"github.com/mailguard/mailguard/internal/common/config"
	"github.com/mailguard/mailguard/internal/models"
)

func TestFormatMessage_TextBody(t *testing.T) {
	channel := NewForwardChannel(&config.SMTPConfig{}, channelTestLogger(t))

	email := &models.StructuredEmail{
		From:      "billing@vendor.example",
		To:        []string{"ops@company.example"},
		Subject:   "Invoice #1",
		TextBody:  "see attached",
		MessageID: "<abc@vendor.example>",
	}

	message := channel.formatMessage(email, "archive@company.example")

	if !strings.Contains(message, "To: archive@company.example\r\n") {
		t.Error("Expected target in To header")
	}
	if !strings.Contains(message, "X-MailGuard-Original-From: billing@vendor.example\r\n") {
		t.Error("Expected original sender preserved in headers")
	}
	if !strings.Contains(message, "X-MailGuard-Original-Message-Id: <abc@vendor.example>\r\n") {
		t.Error("Expected original message ID preserved in headers")
	}
	if !strings.Contains(message, "Content-Type: text/plain") {
		t.Error("Expected plain text content type")
	}
	if !strings.HasSuffix(message, "see attached") {
		t.Error("Expected body at end of message")
	}
}

func TestFormatMessage_HTMLOnlyBody(t *testing.T) {
	channel := NewForwardChannel(&config.SMTPConfig{}, channelTestLogger(t))

	email := &models.StructuredEmail{
		From:     "billing@vendor.example",
		To:       []string{"ops@company.example"},
		Subject:  "Invoice #1",
		HTMLBody: "<p>see attached</p>",
	}

	message := channel.formatMessage(email, "archive@company.example")

	if !strings.Contains(message, "Content-Type: text/html") {
		t.Error("Expected HTML content type for HTML-only body")
	}
}

func TestForwardChannel_GetType(t *testing.T) {
	channel := NewForwardChannel(&config.SMTPConfig{}, channelTestLogger(t))

	if channel.GetType() != "email_forward" {
		t.Errorf("Expected type email_forward, got %s", channel.GetType())
	}
}
