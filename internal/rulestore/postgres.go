// filename: internal/rulestore/postgres.go
package rulestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/mailguard/mailguard/internal/common/errors"
	"github.com/mailguard/mailguard/internal/common/logging"
	"github.com/mailguard/mailguard/internal/common/pg"
	"github.com/mailguard/mailguard/internal/models"
)

// PostgresStore реализует Store поверх PostgreSQL
type PostgresStore struct {
	pgClient *pg.Client
	logger   *logging.Logger
}

// NewPostgresStore создает новое хранилище правил // v1.0
func NewPostgresStore(pgClient *pg.Client, logger *logging.Logger) *PostgresStore {
	return &PostgresStore{
		pgClient: pgClient,
		logger:   logger,
	}
}

const ruleColumns = `id, name, description, type, config, action, priority, is_active,
	trigger_count, last_triggered_at, created_at, updated_at`

// scanRule читает одну строку правила и парсит сериализованные колонки // v1.0
func scanRule(scan func(dest ...interface{}) error) (*models.Rule, error) {
	var rule models.Rule
	var rawConfig, rawAction []byte
	var lastTriggered sql.NullTime

	if err := scan(
		&rule.ID, &rule.Name, &rule.Description, &rule.Type,
		&rawConfig, &rawAction, &rule.Priority, &rule.IsActive,
		&rule.TriggerCount, &lastTriggered, &rule.CreatedAt, &rule.UpdatedAt,
	); err != nil {
		return nil, err
	}

	config, err := models.ParseRuleConfig(rule.Type, rawConfig)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorCodeRuleParseFailed,
			fmt.Sprintf("stored config for rule %s is invalid", rule.ID))
	}
	rule.Config = config

	action, err := models.ParseAction(rawAction)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorCodeRuleParseFailed,
			fmt.Sprintf("stored action for rule %s is invalid", rule.ID))
	}
	rule.Action = action

	if lastTriggered.Valid {
		rule.LastTriggeredAt = &lastTriggered.Time
	}

	return &rule, nil
}

// ListActive возвращает все активные правила // v1.0
func (s *PostgresStore) ListActive(ctx context.Context) ([]*models.Rule, error) {
	query := `SELECT ` + ruleColumns + ` FROM guard_rules WHERE is_active = true
		ORDER BY priority DESC, created_at DESC, id DESC`

	return s.queryRules(ctx, query)
}

// List возвращает правила по фильтру // v1.0
func (s *PostgresStore) List(ctx context.Context, filter ListFilter) ([]*models.Rule, error) {
	query := `SELECT ` + ruleColumns + ` FROM guard_rules WHERE 1=1`
	args := make([]interface{}, 0)
	argIndex := 1

	if filter.IsActive != nil {
		query += fmt.Sprintf(" AND is_active = $%d", argIndex)
		args = append(args, *filter.IsActive)
		argIndex++
	}

	if filter.Type != nil {
		query += fmt.Sprintf(" AND type = $%d", argIndex)
		args = append(args, *filter.Type)
		argIndex++
	}

	query += " ORDER BY priority DESC, created_at DESC, id DESC"

	limit := filter.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, filter.Offset)

	return s.queryRules(ctx, query, args...)
}

// queryRules выполняет запрос и сканирует правила // v1.0
func (s *PostgresStore) queryRules(ctx context.Context, query string, args ...interface{}) ([]*models.Rule, error) {
	rows, err := s.pgClient.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorCodeDBQuery, "failed to query rules")
	}
	defer rows.Close()

	var rules []*models.Rule
	for rows.Next() {
		rule, err := scanRule(rows.Scan)
		if err != nil {
			// Правило с битой конфигурацией в БД не валит всю выборку
			s.logger.WithError(err).Error("Failed to scan rule row, skipping")
			continue
		}
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorCodeDBQuery, "failed to iterate rules")
	}

	return rules, nil
}

// Get возвращает правило по ID // v1.0
func (s *PostgresStore) Get(ctx context.Context, id string) (*models.Rule, error) {
	query := `SELECT ` + ruleColumns + ` FROM guard_rules WHERE id = $1`

	rule, err := scanRule(s.pgClient.QueryRow(ctx, query, id).Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFoundError("rule", id)
		}
		return nil, errors.Wrap(err, errors.ErrorCodeDBQuery, "failed to get rule")
	}

	return rule, nil
}

// Create создает правило // v1.0
func (s *PostgresStore) Create(ctx context.Context, rule *models.Rule) error {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	now := time.Now()
	rule.CreatedAt = now
	rule.UpdatedAt = now

	if err := rule.Validate(); err != nil {
		return errors.ConfigValidationError(err.Error())
	}

	rawConfig, err := marshalConfig(rule.Config)
	if err != nil {
		return err
	}
	rawAction, err := rule.Action.ToJSON()
	if err != nil {
		return errors.Wrap(err, errors.ErrorCodeInternal, "failed to serialize action")
	}

	query := `INSERT INTO guard_rules
		(id, name, description, type, config, action, priority, is_active, trigger_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, $9, $10)`

	if _, err := s.pgClient.Exec(ctx, query,
		rule.ID, rule.Name, rule.Description, rule.Type,
		rawConfig, rawAction, rule.Priority, rule.IsActive,
		rule.CreatedAt, rule.UpdatedAt,
	); err != nil {
		return errors.Wrap(err, errors.ErrorCodeDBQuery, "failed to insert rule")
	}

	return nil
}

// Update частично обновляет правило // v1.0
func (s *PostgresStore) Update(ctx context.Context, id string, update RuleUpdate) (*models.Rule, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	query := `UPDATE guard_rules SET updated_at = $1`
	args := []interface{}{time.Now()}
	argIndex := 2

	if update.Name != nil {
		query += fmt.Sprintf(", name = $%d", argIndex)
		args = append(args, *update.Name)
		argIndex++
	}

	if update.Description != nil {
		query += fmt.Sprintf(", description = $%d", argIndex)
		args = append(args, *update.Description)
		argIndex++
	}

	if update.Config != nil {
		// Вариант конфигурации должен соответствовать типу правила
		if update.Config.RuleType() != current.Type {
			return nil, errors.ConfigValidationError(fmt.Sprintf(
				"config variant %s does not match rule type %s", update.Config.RuleType(), current.Type))
		}
		if err := update.Config.Validate(); err != nil {
			return nil, errors.ConfigValidationError(err.Error())
		}
		rawConfig, err := marshalConfig(update.Config)
		if err != nil {
			return nil, err
		}
		query += fmt.Sprintf(", config = $%d", argIndex)
		args = append(args, rawConfig)
		argIndex++
	}

	if update.Action != nil {
		if err := update.Action.Validate(); err != nil {
			return nil, errors.ConfigValidationError(err.Error())
		}
		rawAction, err := update.Action.ToJSON()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorCodeInternal, "failed to serialize action")
		}
		query += fmt.Sprintf(", action = $%d", argIndex)
		args = append(args, rawAction)
		argIndex++
	}

	if update.Priority != nil {
		if *update.Priority < 0 {
			return nil, errors.ConfigValidationError("priority must be non-negative")
		}
		query += fmt.Sprintf(", priority = $%d", argIndex)
		args = append(args, *update.Priority)
		argIndex++
	}

	if update.IsActive != nil {
		query += fmt.Sprintf(", is_active = $%d", argIndex)
		args = append(args, *update.IsActive)
		argIndex++
	}

	query += " WHERE id = $" + strconv.Itoa(argIndex)
	args = append(args, id)

	if _, err := s.pgClient.Exec(ctx, query, args...); err != nil {
		return nil, errors.Wrap(err, errors.ErrorCodeDBQuery, "failed to update rule")
	}

	return s.Get(ctx, id)
}

// Delete удаляет правило // v1.0
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	result, err := s.pgClient.Exec(ctx, `DELETE FROM guard_rules WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, errors.ErrorCodeDBQuery, "failed to delete rule")
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFoundError("rule", id)
	}

	return nil
}

// IncrementTrigger атомарно увеличивает счетчик срабатываний.
// Один UPDATE, чтобы конкурентные совпадения одного правила не теряли
// инкременты // v1.0
func (s *PostgresStore) IncrementTrigger(ctx context.Context, id string) error {
	query := `UPDATE guard_rules
		SET trigger_count = trigger_count + 1, last_triggered_at = $1
		WHERE id = $2`

	result, err := s.pgClient.Exec(ctx, query, time.Now(), id)
	if err != nil {
		return errors.Wrap(err, errors.ErrorCodeDBQuery, "failed to increment trigger count")
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFoundError("rule", id)
	}

	return nil
}

// marshalConfig сериализует конфигурацию правила // v1.0
func marshalConfig(config models.RuleConfig) ([]byte, error) {
	raw, err := json.Marshal(config)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorCodeInternal, "failed to serialize config")
	}
	return raw, nil
}
