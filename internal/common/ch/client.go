// filename: internal/common/ch/client.go
package ch

import (
	"context"
	"fmt"
	"time"

	"github.com/mailguard/mailguard/internal/models"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// Client представляет клиент ClickHouse для истории оценок
type Client struct {
	conn   clickhouse.Conn
	config Config
}

// Config представляет конфигурацию ClickHouse
type Config struct {
	Hosts    []string      `yaml:"hosts"`
	Database string        `yaml:"database"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	Port     int           `yaml:"port"`
	Secure   bool          `yaml:"secure"`
	Compress bool          `yaml:"compress"`
	Timeout  time.Duration `yaml:"timeout"`
}

// NewClient создает новый клиент ClickHouse // v1.0
func NewClient(config Config) (*Client, error) {
	opts := &clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", config.Hosts[0], config.Port)},
		Auth: clickhouse.Auth{
			Database: config.Database,
			Username: config.Username,
			Password: config.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	}

	if config.Secure {
		opts.Settings["secure"] = true
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	return &Client{
		conn:   conn,
		config: config,
	}, nil
}

// Close закрывает соединение с ClickHouse // v1.0
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Ping проверяет соединение с ClickHouse // v1.0
func (c *Client) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

// Exec выполняет SQL команду // v1.0
func (c *Client) Exec(ctx context.Context, query string, args ...interface{}) error {
	return c.conn.Exec(ctx, query, args...)
}

// Query выполняет SQL запрос // v1.0
func (c *Client) Query(ctx context.Context, query string, args ...interface{}) (driver.Rows, error) {
	return c.conn.Query(ctx, query, args...)
}

// InsertEvaluation вставляет запись истории оценки // v1.0
func (c *Client) InsertEvaluation(ctx context.Context, record *models.EvaluationRecord) error {
	query := `
		INSERT INTO evaluations (
			email_id, from_addr, subject, matched, rule_id, action_type,
			reason, duration_ms, evaluated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	if err := c.conn.Exec(ctx, query,
		record.EmailID, record.From, record.Subject, record.Matched,
		record.RuleID, record.ActionType, record.Reason,
		record.DurationMS, record.EvaluatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert evaluation record: %w", err)
	}

	return nil
}

// InsertEvaluationBatch вставляет пакет записей истории оценки // v1.0
func (c *Client) InsertEvaluationBatch(ctx context.Context, records []*models.EvaluationRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch, err := c.conn.PrepareBatch(ctx, `
		INSERT INTO evaluations (
			email_id, from_addr, subject, matched, rule_id, action_type,
			reason, duration_ms, evaluated_at
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	for _, record := range records {
		if err := batch.Append(
			record.EmailID, record.From, record.Subject, record.Matched,
			record.RuleID, record.ActionType, record.Reason,
			record.DurationMS, record.EvaluatedAt,
		); err != nil {
			return fmt.Errorf("failed to append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}

	return nil
}

// CountEvaluations возвращает количество оценок для правила за период // v1.0
func (c *Client) CountEvaluations(ctx context.Context, ruleID string, from, to time.Time) (uint64, error) {
	var count uint64
	query := `SELECT count() FROM evaluations WHERE rule_id = ? AND evaluated_at BETWEEN ? AND ?`

	row := c.conn.QueryRow(ctx, query, ruleID, from, to)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count evaluations: %w", err)
	}

	return count, nil
}
