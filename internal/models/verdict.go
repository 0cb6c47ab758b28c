// filename: internal/models/verdict.go
package models

import (
	"encoding/json"
	"time"
)

// MatchDetail описывает один сработавший критерий для наблюдаемости и тестов
type MatchDetail struct {
	Criteria string `json:"criteria"`
	Value    string `json:"value"`
}

// EvaluationResult результат оценки цепочки правил для одного письма.
// Matched=false означает, что ни одно активное правило не сработало,
// политика по умолчанию (allow) остается на вызывающей стороне.
type EvaluationResult struct {
	Matched      bool          `json:"matched"`
	RuleID       string        `json:"rule_id,omitempty"`
	RuleName     string        `json:"rule_name,omitempty"`
	Action       *Action       `json:"action,omitempty"`
	MatchDetails []MatchDetail `json:"match_details,omitempty"`
	Reason       string        `json:"reason,omitempty"`
}

// RuleCheckResult результат проверки одного правила против письма.
// Используется и реальной оценкой, и side-effect-free check интерфейсом.
type RuleCheckResult struct {
	Matched      bool          `json:"matched"`
	MatchDetails []MatchDetail `json:"match_details,omitempty"`
	Reason       string        `json:"reason,omitempty"`
	Error        string        `json:"error,omitempty"`
}

// Disposition итоговое решение по письму, публикуется в пайплайн доставки
type Disposition struct {
	ID          string           `json:"id"`
	EmailID     string           `json:"email_id"`
	Email       *StructuredEmail `json:"email,omitempty"`
	Matched     bool             `json:"matched"`
	RuleID      string           `json:"rule_id,omitempty"`
	Action      *Action          `json:"action,omitempty"`
	Reason      string           `json:"reason,omitempty"`
	EvaluatedAt time.Time        `json:"evaluated_at"`
}

// EvaluationRecord строка истории оценки для ClickHouse
type EvaluationRecord struct {
	EmailID     string    `json:"email_id"`
	From        string    `json:"from"`
	Subject     string    `json:"subject"`
	Matched     bool      `json:"matched"`
	RuleID      string    `json:"rule_id"`
	ActionType  string    `json:"action_type"`
	Reason      string    `json:"reason"`
	DurationMS  float64   `json:"duration_ms"`
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// RoutedEmail письмо с разрешенным эндпоинтом, публикуется в канал доставки
type RoutedEmail struct {
	Email    *StructuredEmail `json:"email"`
	RuleID   string           `json:"rule_id"`
	Endpoint *Endpoint        `json:"endpoint"`
	RoutedAt time.Time        `json:"routed_at"`
}

// ToJSON возвращает решение в JSON формате // v1.0
func (d *Disposition) ToJSON() ([]byte, error) {
	return json.Marshal(d)
}
