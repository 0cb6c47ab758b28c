// filename: internal/models/rule.go
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// RuleType тип правила: явные критерии или AI предикат
type RuleType string

const (
	RuleTypeExplicit RuleType = "explicit"
	RuleTypeAIPrompt RuleType = "ai_prompt"
)

// ConfigMode режим создания конфигурации правила
type ConfigMode string

const (
	// ConfigModeSimple: конфигурация сгенерирована один раз из описания
	ConfigModeSimple ConfigMode = "simple"
	// ConfigModeAdvanced: конфигурация написана вручную
	ConfigModeAdvanced ConfigMode = "advanced"
)

// Operator способ комбинирования значений внутри одного критерия
type Operator string

const (
	OperatorAnd Operator = "AND"
	OperatorOr  Operator = "OR"
)

// Rule представляет guard правило: предикат + действие для входящего письма.
// Поля Config и Action хранятся в БД как сериализованный JSON и парсятся
// один раз на границе хранилища, потребители всегда получают типизированное
// правило.
type Rule struct {
	ID              string     `json:"id" db:"id"`
	Name            string     `json:"name" db:"name"`
	Description     string     `json:"description" db:"description"`
	Type            RuleType   `json:"type" db:"type"`
	Config          RuleConfig `json:"config"`
	Action          Action     `json:"action"`
	Priority        int        `json:"priority" db:"priority"`
	IsActive        bool       `json:"is_active" db:"is_active"`
	TriggerCount    int64      `json:"trigger_count" db:"trigger_count"`
	LastTriggeredAt *time.Time `json:"last_triggered_at,omitempty" db:"last_triggered_at"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// RuleConfig общий интерфейс вариантов конфигурации правила.
// Ровно один вариант соответствует каждому значению RuleType.
type RuleConfig interface {
	RuleType() RuleType
	Validate() error
}

// CriteriaConfig один критерий явного правила: список значений и оператор
type CriteriaConfig struct {
	Operator Operator `json:"operator"`
	Values   []string `json:"values"`
}

// ExplicitConfig конфигурация правила с явными критериями.
// Все критерии опциональны, но хотя бы один должен быть задан.
// Между критериями всегда AND, оператор действует только внутри критерия.
type ExplicitConfig struct {
	Mode          ConfigMode      `json:"mode"`
	Subject       *CriteriaConfig `json:"subject,omitempty"`
	From          *CriteriaConfig `json:"from,omitempty"`
	HasAttachment *bool           `json:"hasAttachment,omitempty"`
	HasWords      *CriteriaConfig `json:"hasWords,omitempty"`
}

// AIPromptConfig конфигурация правила с AI предикатом
type AIPromptConfig struct {
	Mode   ConfigMode `json:"mode"`
	Prompt string     `json:"prompt"`
}

// RuleType возвращает тип правила для явной конфигурации // v1.0
func (c *ExplicitConfig) RuleType() RuleType {
	return RuleTypeExplicit
}

// Validate проверяет явную конфигурацию // v1.0
func (c *ExplicitConfig) Validate() error {
	if c.Mode != ConfigModeSimple && c.Mode != ConfigModeAdvanced {
		return fmt.Errorf("invalid config mode: %s", c.Mode)
	}
	if c.Subject == nil && c.From == nil && c.HasAttachment == nil && c.HasWords == nil {
		return fmt.Errorf("explicit config must define at least one criteria")
	}
	for name, criteria := range map[string]*CriteriaConfig{
		"subject":  c.Subject,
		"from":     c.From,
		"hasWords": c.HasWords,
	} {
		if criteria == nil {
			continue
		}
		if err := criteria.validate(); err != nil {
			return fmt.Errorf("criteria %s: %w", name, err)
		}
	}
	return nil
}

// validate проверяет один критерий // v1.0
func (c *CriteriaConfig) validate() error {
	if c.Operator != OperatorAnd && c.Operator != OperatorOr {
		return fmt.Errorf("invalid operator: %s", c.Operator)
	}
	if len(c.Values) == 0 {
		return fmt.Errorf("values must not be empty")
	}
	for _, v := range c.Values {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("values must not contain empty strings")
		}
	}
	return nil
}

// RuleType возвращает тип правила для AI конфигурации // v1.0
func (c *AIPromptConfig) RuleType() RuleType {
	return RuleTypeAIPrompt
}

// Validate проверяет AI конфигурацию // v1.0
func (c *AIPromptConfig) Validate() error {
	if c.Mode != ConfigModeSimple && c.Mode != ConfigModeAdvanced {
		return fmt.Errorf("invalid config mode: %s", c.Mode)
	}
	if strings.TrimSpace(c.Prompt) == "" {
		return fmt.Errorf("prompt must not be empty")
	}
	return nil
}

// ParseRuleConfig парсит сериализованную конфигурацию по типу правила // v1.0
func ParseRuleConfig(ruleType RuleType, raw []byte) (RuleConfig, error) {
	switch ruleType {
	case RuleTypeExplicit:
		var cfg ExplicitConfig
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse explicit config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return &cfg, nil
	case RuleTypeAIPrompt:
		var cfg AIPromptConfig
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse ai_prompt config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return &cfg, nil
	default:
		return nil, fmt.Errorf("unknown rule type: %s", ruleType)
	}
}

// Validate проверяет корректность правила целиком // v1.0
func (r *Rule) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("rule ID is required")
	}
	if r.Name == "" {
		return fmt.Errorf("rule name is required")
	}
	if r.Priority < 0 {
		return fmt.Errorf("rule priority must be non-negative")
	}
	if r.Config == nil {
		return fmt.Errorf("rule config is required")
	}
	if r.Config.RuleType() != r.Type {
		return fmt.Errorf("config variant %s does not match rule type %s", r.Config.RuleType(), r.Type)
	}
	if err := r.Config.Validate(); err != nil {
		return err
	}
	return r.Action.Validate()
}

// Clone создает копию правила // v1.0
func (r *Rule) Clone() *Rule {
	clone := *r
	if r.LastTriggeredAt != nil {
		ts := *r.LastTriggeredAt
		clone.LastTriggeredAt = &ts
	}
	return &clone
}
