// filename: internal/delivery/channels/forward.go
package channels

import (
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/mailguard/mailguard/internal/common/config"
	"github.com/mailguard/mailguard/internal/common/logging"
	"github.com/mailguard/mailguard/internal/models"
)

// ForwardChannel пересылает перенаправленные письма на email адрес // v1.0
type ForwardChannel struct {
	config *config.SMTPConfig
	logger *logging.Logger
}

// NewForwardChannel создает новый канал пересылки // v1.0
func NewForwardChannel(cfg *config.SMTPConfig, logger *logging.Logger) *ForwardChannel {
	return &ForwardChannel{
		config: cfg,
		logger: logger,
	}
}

// Deliver пересылает письмо на адрес эндпоинта // v1.0
func (f *ForwardChannel) Deliver(routed *models.RoutedEmail) error {
	target := routed.Endpoint.Target
	message := f.formatMessage(routed.Email, target)

	addr := fmt.Sprintf("%s:%d", f.config.Host, f.config.Port)

	var auth smtp.Auth
	if f.config.Username != "" {
		auth = smtp.PlainAuth("", f.config.Username, f.config.Password, f.config.Host)
	}

	from := f.config.From
	if from == "" {
		from = routed.Email.From
	}

	if err := smtp.SendMail(addr, auth, from, []string{target}, []byte(message)); err != nil {
		return fmt.Errorf("failed to forward email to %s: %w", target, err)
	}

	f.logger.WithFields(map[string]interface{}{
		"email_id": routed.Email.ID,
		"target":   target,
	}).Info("Email forwarded")

	return nil
}

// formatMessage собирает RFC 822 сообщение из структурированного письма.
// Оригинальный отправитель и тема сохраняются в заголовках пересылки // v1.0
func (f *ForwardChannel) formatMessage(email *models.StructuredEmail, target string) string {
	var sb strings.Builder

	sb.WriteString("To: " + target + "\r\n")
	sb.WriteString("Subject: " + email.Subject + "\r\n")
	sb.WriteString("Date: " + time.Now().Format(time.RFC1123Z) + "\r\n")
	sb.WriteString("X-MailGuard-Original-From: " + email.From + "\r\n")
	sb.WriteString("X-MailGuard-Original-To: " + strings.Join(email.To, ", ") + "\r\n")
	if email.MessageID != "" {
		sb.WriteString("X-MailGuard-Original-Message-Id: " + email.MessageID + "\r\n")
	}

	if email.HTMLBody != "" && email.TextBody == "" {
		sb.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
		sb.WriteString("\r\n")
		sb.WriteString(email.HTMLBody)
	} else {
		sb.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
		sb.WriteString("\r\n")
		sb.WriteString(email.TextBody)
	}

	return sb.String()
}

// GetType возвращает тип канала // v1.0
func (f *ForwardChannel) GetType() string {
	return "email_forward"
}
