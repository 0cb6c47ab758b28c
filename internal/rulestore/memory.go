// filename: internal/rulestore/memory.go
package rulestore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mailguard/mailguard/internal/common/errors"
	"github.com/mailguard/mailguard/internal/models"
)

// MemoryStore хранит правила в памяти под RWMutex.
// Используется в тестах и как хранилище для автономного запуска без PostgreSQL.
type MemoryStore struct {
	rules map[string]*models.Rule
	mutex sync.RWMutex
}

// NewMemoryStore создает новое in-memory хранилище правил // v1.0
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rules: make(map[string]*models.Rule),
	}
}

// ListActive возвращает все активные правила // v1.0
func (m *MemoryStore) ListActive(ctx context.Context) ([]*models.Rule, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var rules []*models.Rule
	for _, rule := range m.rules {
		if rule.IsActive {
			rules = append(rules, rule.Clone())
		}
	}

	sortStoredRules(rules)
	return rules, nil
}

// List возвращает правила по фильтру // v1.0
func (m *MemoryStore) List(ctx context.Context, filter ListFilter) ([]*models.Rule, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var rules []*models.Rule
	for _, rule := range m.rules {
		if filter.IsActive != nil && rule.IsActive != *filter.IsActive {
			continue
		}
		if filter.Type != nil && rule.Type != *filter.Type {
			continue
		}
		rules = append(rules, rule.Clone())
	}

	sortStoredRules(rules)

	if filter.Offset > 0 {
		if filter.Offset >= len(rules) {
			return nil, nil
		}
		rules = rules[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(rules) {
		rules = rules[:filter.Limit]
	}

	return rules, nil
}

// Get возвращает правило по ID // v1.0
func (m *MemoryStore) Get(ctx context.Context, id string) (*models.Rule, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	rule, exists := m.rules[id]
	if !exists {
		return nil, errors.NotFoundError("rule", id)
	}

	return rule.Clone(), nil
}

// Create создает правило // v1.0
func (m *MemoryStore) Create(ctx context.Context, rule *models.Rule) error {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	now := time.Now()
	rule.CreatedAt = now
	rule.UpdatedAt = now

	if err := rule.Validate(); err != nil {
		return errors.ConfigValidationError(err.Error())
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.rules[rule.ID] = rule.Clone()
	return nil
}

// Update частично обновляет правило // v1.0
func (m *MemoryStore) Update(ctx context.Context, id string, update RuleUpdate) (*models.Rule, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	rule, exists := m.rules[id]
	if !exists {
		return nil, errors.NotFoundError("rule", id)
	}

	updated := rule.Clone()
	if update.Name != nil {
		updated.Name = *update.Name
	}
	if update.Description != nil {
		updated.Description = *update.Description
	}
	if update.Config != nil {
		if update.Config.RuleType() != updated.Type {
			return nil, errors.ConfigValidationError("config variant does not match rule type")
		}
		if err := update.Config.Validate(); err != nil {
			return nil, errors.ConfigValidationError(err.Error())
		}
		updated.Config = update.Config
	}
	if update.Action != nil {
		if err := update.Action.Validate(); err != nil {
			return nil, errors.ConfigValidationError(err.Error())
		}
		updated.Action = *update.Action
	}
	if update.Priority != nil {
		if *update.Priority < 0 {
			return nil, errors.ConfigValidationError("priority must be non-negative")
		}
		updated.Priority = *update.Priority
	}
	if update.IsActive != nil {
		updated.IsActive = *update.IsActive
	}
	updated.UpdatedAt = time.Now()

	m.rules[id] = updated
	return updated.Clone(), nil
}

// Delete удаляет правило // v1.0
func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.rules[id]; !exists {
		return errors.NotFoundError("rule", id)
	}

	delete(m.rules, id)
	return nil
}

// IncrementTrigger увеличивает счетчик срабатываний // v1.0
func (m *MemoryStore) IncrementTrigger(ctx context.Context, id string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	rule, exists := m.rules[id]
	if !exists {
		return errors.NotFoundError("rule", id)
	}

	now := time.Now()
	rule.TriggerCount++
	rule.LastTriggeredAt = &now
	return nil
}

// sortStoredRules сортирует правила в порядке сопоставления:
// приоритет по убыванию, затем дата создания по убыванию, затем ID // v1.0
func sortStoredRules(rules []*models.Rule) {
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority > rules[j].Priority
		}
		if !rules[i].CreatedAt.Equal(rules[j].CreatedAt) {
			return rules[i].CreatedAt.After(rules[j].CreatedAt)
		}
		return rules[i].ID > rules[j].ID
	})
}
