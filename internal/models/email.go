// filename: internal/models/email.go
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// StructuredEmail представляет полностью разобранное входящее письмо.
// Парсинг MIME выполняется внешним коллаборатором, сюда письмо попадает
// уже в структурированном виде.
type StructuredEmail struct {
	ID          string            `json:"id"`
	MessageID   string            `json:"message_id"`
	From        string            `json:"from" validate:"required"`
	To          []string          `json:"to" validate:"required,min=1"`
	Subject     string            `json:"subject"`
	TextBody    string            `json:"text_body"`
	HTMLBody    string            `json:"html_body,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	Attachments []Attachment      `json:"attachments,omitempty"`
	ReceivedAt  time.Time         `json:"received_at" validate:"required"`
}

// Attachment представляет метаданные вложения письма
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// NewEmailFromJSON создает письмо из JSON строки // v1.0
func NewEmailFromJSON(line string) (*StructuredEmail, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, fmt.Errorf("empty email line")
	}

	var email StructuredEmail
	if err := json.Unmarshal([]byte(line), &email); err != nil {
		return nil, fmt.Errorf("failed to parse email: %w", err)
	}

	// Валидация обязательных полей
	if email.From == "" {
		return nil, fmt.Errorf("from is required")
	}
	if len(email.To) == 0 {
		return nil, fmt.Errorf("at least one recipient is required")
	}

	// Установка значений по умолчанию
	if email.ReceivedAt.IsZero() {
		email.ReceivedAt = time.Now()
	}
	if email.Headers == nil {
		email.Headers = make(map[string]string)
	}

	return &email, nil
}

// ToJSON возвращает письмо в JSON формате // v1.0
func (e *StructuredEmail) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// HasAttachments проверяет, есть ли у письма вложения // v1.0
func (e *StructuredEmail) HasAttachments() bool {
	return len(e.Attachments) > 0
}

// FromDomain возвращает домен отправителя в нижнем регистре // v1.0
func (e *StructuredEmail) FromDomain() string {
	at := strings.LastIndex(e.From, "@")
	if at < 0 || at == len(e.From)-1 {
		return ""
	}
	return strings.ToLower(e.From[at+1:])
}

// Summary возвращает краткое описание письма для передачи AI коллаборатору // v1.0
func (e *StructuredEmail) Summary(maxBody int) string {
	body := e.TextBody
	if len(body) > maxBody {
		body = body[:maxBody]
	}

	var sb strings.Builder
	sb.WriteString("From: " + e.From + "\n")
	sb.WriteString("To: " + strings.Join(e.To, ", ") + "\n")
	sb.WriteString("Subject: " + e.Subject + "\n")
	sb.WriteString(fmt.Sprintf("Attachments: %d\n", len(e.Attachments)))
	sb.WriteString("Body:\n" + body)
	return sb.String()
}
