// filename: internal/endpoints/postgres.go
package endpoints

import (
	"context"
	"database/sql"
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

// NewPostgresStore создает новое хранилище эндпоинтов // v1.0
func NewPostgresStore(pgClient *pg.Client, logger *logging.Logger) *PostgresStore {
	return &PostgresStore{
		pgClient: pgClient,
		logger:   logger,
	}
}

// GetEndpoint возвращает эндпоинт по ID // v1.0
func (s *PostgresStore) GetEndpoint(ctx context.Context, id string) (*models.Endpoint, error) {
	query := `SELECT id, name, type, target, is_active, created_at, updated_at
		FROM guard_endpoints WHERE id = $1`

	var endpoint models.Endpoint
	err := s.pgClient.QueryRow(ctx, query, id).Scan(
		&endpoint.ID, &endpoint.Name, &endpoint.Type, &endpoint.Target,
		&endpoint.IsActive, &endpoint.CreatedAt, &endpoint.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFoundError("endpoint", id)
		}
		return nil, errors.Wrap(err, errors.ErrorCodeDBQuery, "failed to get endpoint")
	}

	return &endpoint, nil
}

// List возвращает все эндпоинты // v1.0
func (s *PostgresStore) List(ctx context.Context) ([]*models.Endpoint, error) {
	query := `SELECT id, name, type, target, is_active, created_at, updated_at
		FROM guard_endpoints ORDER BY created_at DESC`

	rows, err := s.pgClient.Query(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorCodeDBQuery, "failed to query endpoints")
	}
	defer rows.Close()

	var result []*models.Endpoint
	for rows.Next() {
		var endpoint models.Endpoint
		if err := rows.Scan(
			&endpoint.ID, &endpoint.Name, &endpoint.Type, &endpoint.Target,
			&endpoint.IsActive, &endpoint.CreatedAt, &endpoint.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, errors.ErrorCodeDBQuery, "failed to scan endpoint")
		}
		result = append(result, &endpoint)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorCodeDBQuery, "failed to iterate endpoints")
	}

	return result, nil
}

// Create создает эндпоинт // v1.0
func (s *PostgresStore) Create(ctx context.Context, endpoint *models.Endpoint) error {
	if endpoint.ID == "" {
		endpoint.ID = uuid.NewString()
	}
	now := time.Now()
	endpoint.CreatedAt = now
	endpoint.UpdatedAt = now

	if err := endpoint.Validate(); err != nil {
		return errors.ConfigValidationError(err.Error())
	}

	query := `INSERT INTO guard_endpoints (id, name, type, target, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	if _, err := s.pgClient.Exec(ctx, query,
		endpoint.ID, endpoint.Name, endpoint.Type, endpoint.Target,
		endpoint.IsActive, endpoint.CreatedAt, endpoint.UpdatedAt,
	); err != nil {
		return errors.Wrap(err, errors.ErrorCodeDBQuery, "failed to insert endpoint")
	}

	return nil
}

// Update обновляет эндпоинт // v1.0
func (s *PostgresStore) Update(ctx context.Context, endpoint *models.Endpoint) error {
	if err := endpoint.Validate(); err != nil {
		return errors.ConfigValidationError(err.Error())
	}
	endpoint.UpdatedAt = time.Now()

	query := `UPDATE guard_endpoints
		SET name = $1, type = $2, target = $3, is_active = $4, updated_at = $5
		WHERE id = $6`

	result, err := s.pgClient.Exec(ctx, query,
		endpoint.Name, endpoint.Type, endpoint.Target,
		endpoint.IsActive, endpoint.UpdatedAt, endpoint.ID,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrorCodeDBQuery, "failed to update endpoint")
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFoundError("endpoint", endpoint.ID)
	}

	return nil
}

// Delete удаляет эндпоинт // v1.0
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	result, err := s.pgClient.Exec(ctx, `DELETE FROM guard_endpoints WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, errors.ErrorCodeDBQuery, "failed to delete endpoint")
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFoundError("endpoint", id)
	}

	return nil
}
