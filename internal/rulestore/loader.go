// filename: internal/rulestore/loader.go
package rulestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mailguard/mailguard/internal/common/errors"
	"github.com/mailguard/mailguard/internal/common/logging"
	"github.com/mailguard/mailguard/internal/models"
)

// seedFile формат YAML-файла с предустановленными правилами // v1.0
type seedFile struct {
	Rules []seedRule `yaml:"rules"`
}

// seedRule одно правило из seed-файла.
// Config и Action описываются произвольным YAML и парсятся по типу правила // v1.0
type seedRule struct {
	ID          string                 `yaml:"id"`
	Name        string                 `yaml:"name"`
	Description string                 `yaml:"description"`
	Type        string                 `yaml:"type"`
	Config      map[string]interface{} `yaml:"config"`
	Action      map[string]interface{} `yaml:"action"`
	Priority    int                    `yaml:"priority"`
	IsActive    *bool                  `yaml:"is_active"`
}

// LoadSeedRules читает правила из YAML-файла и создает отсутствующие.
// Существующие правила (по ID) не перезаписываются, чтобы не затирать
// правки, сделанные через API // v1.0
func LoadSeedRules(ctx context.Context, path string, store Store, logger *logging.Logger) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read seed rules file %s: %w", path, err)
	}

	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return 0, fmt.Errorf("failed to parse seed rules file %s: %w", path, err)
	}

	created := 0
	for i, seed := range file.Rules {
		rule, err := seed.toRule()
		if err != nil {
			return created, fmt.Errorf("seed rule %d (%s): %w", i, seed.Name, err)
		}

		if rule.ID != "" {
			if _, err := store.Get(ctx, rule.ID); err == nil {
				continue
			} else if !errors.IsNotFound(err) {
				return created, err
			}
		}

		if err := store.Create(ctx, rule); err != nil {
			return created, fmt.Errorf("seed rule %d (%s): %w", i, seed.Name, err)
		}

		logger.WithRule(rule.ID, rule.Name).Info("Seeded rule")
		created++
	}

	return created, nil
}

// toRule конвертирует seed-запись в доменное правило // v1.0
func (s *seedRule) toRule() (*models.Rule, error) {
	ruleType := models.RuleType(s.Type)

	rawConfig, err := json.Marshal(s.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	config, err := models.ParseRuleConfig(ruleType, rawConfig)
	if err != nil {
		return nil, err
	}

	rawAction, err := json.Marshal(s.Action)
	if err != nil {
		return nil, fmt.Errorf("failed to encode action: %w", err)
	}
	action, err := models.ParseAction(rawAction)
	if err != nil {
		return nil, err
	}

	isActive := true
	if s.IsActive != nil {
		isActive = *s.IsActive
	}

	return &models.Rule{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		Type:        ruleType,
		Config:      config,
		Action:      action,
		Priority:    s.Priority,
		IsActive:    isActive,
	}, nil
}
