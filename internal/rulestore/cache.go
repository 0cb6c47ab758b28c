// filename: internal/rulestore/cache.go
package rulestore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mailguard/mailguard/internal/common/logging"
	"github.com/mailguard/mailguard/internal/models"
)

const activeRulesKey = "mailguard:rules:active"

// CachedStore оборачивает Store и кэширует активные правила в Redis.
// Запись всегда идет в базовое хранилище; кэш инвалидируется на любой
// мутации, чтобы следующая выборка увидела свежий набор правил.
type CachedStore struct {
	store  Store
	client *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// cachedRule сериализуемая форма правила для кэша.
// Config хранится как сырой JSON и парсится по типу при чтении // v1.0
type cachedRule struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Type            models.RuleType `json:"type"`
	Config          json.RawMessage `json:"config"`
	Action          models.Action   `json:"action"`
	Priority        int             `json:"priority"`
	IsActive        bool            `json:"isActive"`
	TriggerCount    int64           `json:"triggerCount"`
	LastTriggeredAt *time.Time      `json:"lastTriggeredAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// NewCachedStore создает кэширующую обертку над хранилищем правил // v1.0
func NewCachedStore(store Store, client *redis.Client, ttl time.Duration, logger *logging.Logger) *CachedStore {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachedStore{
		store:  store,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// ListActive возвращает активные правила, по возможности из кэша.
// Ошибки Redis не фатальны: при любой проблеме читаем из базы // v1.0
func (c *CachedStore) ListActive(ctx context.Context) ([]*models.Rule, error) {
	raw, err := c.client.Get(ctx, activeRulesKey).Bytes()
	if err == nil {
		rules, decodeErr := decodeCachedRules(raw)
		if decodeErr == nil {
			return rules, nil
		}
		c.logger.WithError(decodeErr).Warn("Failed to decode cached rules, falling back to store")
	} else if err != redis.Nil {
		c.logger.WithError(err).Warn("Redis get failed, falling back to store")
	}

	rules, err := c.store.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	if encoded, encErr := encodeCachedRules(rules); encErr == nil {
		if setErr := c.client.Set(ctx, activeRulesKey, encoded, c.ttl).Err(); setErr != nil {
			c.logger.WithError(setErr).Warn("Failed to cache active rules")
		}
	}

	return rules, nil
}

// List проксирует выборку в базовое хранилище // v1.0
func (c *CachedStore) List(ctx context.Context, filter ListFilter) ([]*models.Rule, error) {
	return c.store.List(ctx, filter)
}

// Get проксирует чтение в базовое хранилище // v1.0
func (c *CachedStore) Get(ctx context.Context, id string) (*models.Rule, error) {
	return c.store.Get(ctx, id)
}

// Create создает правило и сбрасывает кэш // v1.0
func (c *CachedStore) Create(ctx context.Context, rule *models.Rule) error {
	if err := c.store.Create(ctx, rule); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

// Update обновляет правило и сбрасывает кэш // v1.0
func (c *CachedStore) Update(ctx context.Context, id string, update RuleUpdate) (*models.Rule, error) {
	rule, err := c.store.Update(ctx, id, update)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx)
	return rule, nil
}

// Delete удаляет правило и сбрасывает кэш // v1.0
func (c *CachedStore) Delete(ctx context.Context, id string) error {
	if err := c.store.Delete(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

// IncrementTrigger увеличивает счетчик в базовом хранилище.
// Кэш не сбрасывается: счетчик не влияет на порядок сопоставления,
// а сброс на каждом совпадении свел бы кэш на нет // v1.0
func (c *CachedStore) IncrementTrigger(ctx context.Context, id string) error {
	return c.store.IncrementTrigger(ctx, id)
}

func (c *CachedStore) invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, activeRulesKey).Err(); err != nil {
		c.logger.WithError(err).Warn("Failed to invalidate rules cache")
	}
}

func encodeCachedRules(rules []*models.Rule) ([]byte, error) {
	cached := make([]cachedRule, 0, len(rules))
	for _, rule := range rules {
		rawConfig, err := json.Marshal(rule.Config)
		if err != nil {
			return nil, err
		}
		cr := cachedRule{
			ID:              rule.ID,
			Name:            rule.Name,
			Description:     rule.Description,
			Type:            rule.Type,
			Config:          rawConfig,
			Action:          rule.Action,
			Priority:        rule.Priority,
			IsActive:        rule.IsActive,
			TriggerCount:    rule.TriggerCount,
			LastTriggeredAt: rule.LastTriggeredAt,
			CreatedAt:       rule.CreatedAt,
			UpdatedAt:       rule.UpdatedAt,
		}
		cached = append(cached, cr)
	}
	return json.Marshal(cached)
}

func decodeCachedRules(raw []byte) ([]*models.Rule, error) {
	var cached []cachedRule
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, err
	}

	rules := make([]*models.Rule, 0, len(cached))
	for _, cr := range cached {
		config, err := models.ParseRuleConfig(cr.Type, cr.Config)
		if err != nil {
			return nil, err
		}
		rules = append(rules, &models.Rule{
			ID:              cr.ID,
			Name:            cr.Name,
			Description:     cr.Description,
			Type:            cr.Type,
			Config:          config,
			Action:          cr.Action,
			Priority:        cr.Priority,
			IsActive:        cr.IsActive,
			TriggerCount:    cr.TriggerCount,
			LastTriggeredAt: cr.LastTriggeredAt,
			CreatedAt:       cr.CreatedAt,
			UpdatedAt:       cr.UpdatedAt,
		})
	}
	return rules, nil
}
