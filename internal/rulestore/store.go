// filename: internal/rulestore/store.go
package rulestore

import (
	"context"

	"github.com/mailguard/mailguard/internal/models"
)

// ListFilter фильтр для выборки правил
type ListFilter struct {
	IsActive *bool
	Type     *models.RuleType
	Limit    int
	Offset   int
}

// RuleUpdate частичное обновление правила. nil поле не трогает колонку.
type RuleUpdate struct {
	Name        *string
	Description *string
	Config      models.RuleConfig
	Action      *models.Action
	Priority    *int
	IsActive    *bool
}

// Store интерфейс хранилища guard правил. Все реализации возвращают
// уже распарсенные типизированные правила: сериализованный config/action
// не покидает границу хранилища.
type Store interface {
	// ListActive возвращает все активные правила
	ListActive(ctx context.Context) ([]*models.Rule, error)
	// List возвращает правила по фильтру, отсортированные по priority desc, created_at desc
	List(ctx context.Context, filter ListFilter) ([]*models.Rule, error)
	// Get возвращает правило по ID
	Get(ctx context.Context, id string) (*models.Rule, error)
	// Create создает правило
	Create(ctx context.Context, rule *models.Rule) error
	// Update частично обновляет правило
	Update(ctx context.Context, id string, update RuleUpdate) (*models.Rule, error)
	// Delete удаляет правило
	Delete(ctx context.Context, id string) error
	// IncrementTrigger атомарно увеличивает счетчик срабатываний и
	// обновляет last_triggered_at. Вызывается ровно один раз на реальное
	// совпадение, никогда из check пути.
	IncrementTrigger(ctx context.Context, id string) error
}
