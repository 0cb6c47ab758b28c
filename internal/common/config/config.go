// filename: internal/common/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config представляет основную конфигурацию приложения
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	NATS       NATSConfig       `mapstructure:"nats"`
	PostgreSQL PostgreSQLConfig `mapstructure:"postgresql"`
	ClickHouse ClickHouseConfig `mapstructure:"clickhouse"`
	Redis      RedisConfig      `mapstructure:"redis"`
	AI         AIConfig         `mapstructure:"ai"`
	Delivery   DeliveryConfig   `mapstructure:"delivery"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	TLS        TLSConfig        `mapstructure:"tls"`
}

// DeliveryConfig представляет конфигурацию каналов доставки
type DeliveryConfig struct {
	Webhook WebhookConfig `mapstructure:"webhook"`
	SMTP    SMTPConfig    `mapstructure:"smtp"`
}

// WebhookConfig представляет конфигурацию webhook доставки
type WebhookConfig struct {
	Timeout    time.Duration     `mapstructure:"timeout"`
	MaxRetries int               `mapstructure:"max_retries"`
	RetryDelay time.Duration     `mapstructure:"retry_delay"`
	AuthHeader string            `mapstructure:"auth_header"`
	AuthToken  string            `mapstructure:"auth_token"`
	Headers    map[string]string `mapstructure:"headers"`
}

// SMTPConfig представляет конфигурацию SMTP для пересылки писем
type SMTPConfig struct {
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	From     string        `mapstructure:"from"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// ServerConfig представляет конфигурацию HTTP сервера
type ServerConfig struct {
	Host           string          `mapstructure:"host"`
	Port           int             `mapstructure:"port"`
	ReadTimeout    time.Duration   `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration   `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration   `mapstructure:"idle_timeout"`
	MaxConnections int             `mapstructure:"max_connections"`
	BodySizeLimit  int64           `mapstructure:"body_size_limit"`
	APIKeyHash     string          `mapstructure:"api_key_hash"`
	RateLimit      RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig представляет конфигурацию rate limiting
type RateLimitConfig struct {
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	BlockDuration     time.Duration `mapstructure:"block_duration"`
}

// NATSConfig представляет конфигурацию NATS
type NATSConfig struct {
	URLs        []string      `mapstructure:"urls"`
	ClusterID   string        `mapstructure:"cluster_id"`
	ClientID    string        `mapstructure:"client_id"`
	Credentials string        `mapstructure:"credentials"`
	NKeySeed    string        `mapstructure:"nkey_seed"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// PostgreSQLConfig представляет конфигурацию PostgreSQL
type PostgreSQLConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// ClickHouseConfig представляет конфигурацию ClickHouse
type ClickHouseConfig struct {
	Hosts    []string      `mapstructure:"hosts"`
	Database string        `mapstructure:"database"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	Port     int           `mapstructure:"port"`
	Secure   bool          `mapstructure:"secure"`
	Compress bool          `mapstructure:"compress"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// RedisConfig представляет конфигурацию Redis
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// AIConfig представляет конфигурацию AI коллаборатора
type AIConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxBodySize int           `mapstructure:"max_body_size"`
}

// LoggingConfig представляет конфигурацию логирования
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// TLSConfig представляет конфигурацию TLS
type TLSConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	CAFile     string `mapstructure:"ca_file"`
	CertFile   string `mapstructure:"cert_file"`
	KeyFile    string `mapstructure:"key_file"`
	MinVersion string `mapstructure:"min_version"`
}

// LoadConfig загружает конфигурацию из файла // v1.0
func LoadConfig(configPath string) (*Config, error) {
	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("mailguard")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath("/etc/mailguard")
	}
	viper.SetConfigType("yaml")

	// Устанавливаем значения по умолчанию
	setDefaults()

	// Читаем конфигурацию
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Валидируем конфигурацию
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults устанавливает значения по умолчанию // v1.0
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "60s")
	viper.SetDefault("server.max_connections", 512)
	viper.SetDefault("server.body_size_limit", 10485760)
	viper.SetDefault("server.rate_limit.requests_per_minute", 1000)
	viper.SetDefault("server.rate_limit.block_duration", "1m")

	// NATS defaults
	viper.SetDefault("nats.urls", []string{"nats://localhost:4222"})
	viper.SetDefault("nats.cluster_id", "mailguard")
	viper.SetDefault("nats.client_id", "mailguard-client")
	viper.SetDefault("nats.timeout", "5s")

	// PostgreSQL defaults
	viper.SetDefault("postgresql.host", "localhost")
	viper.SetDefault("postgresql.port", 5432)
	viper.SetDefault("postgresql.database", "mailguard")
	viper.SetDefault("postgresql.ssl_mode", "disable")
	viper.SetDefault("postgresql.max_open_conns", 50)
	viper.SetDefault("postgresql.max_idle_conns", 10)
	viper.SetDefault("postgresql.conn_max_lifetime", "1h")

	// ClickHouse defaults
	viper.SetDefault("clickhouse.hosts", []string{"localhost"})
	viper.SetDefault("clickhouse.database", "mailguard")
	viper.SetDefault("clickhouse.port", 9000)
	viper.SetDefault("clickhouse.secure", false)
	viper.SetDefault("clickhouse.compress", true)
	viper.SetDefault("clickhouse.timeout", "30s")

	// Redis defaults
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.timeout", "5s")
	viper.SetDefault("redis.cache_ttl", "30s")

	// AI defaults
	viper.SetDefault("ai.base_url", "https://api.openai.com/v1")
	viper.SetDefault("ai.model", "gpt-4o-mini")
	viper.SetDefault("ai.timeout", "10s")
	viper.SetDefault("ai.max_body_size", 4000)

	// Delivery defaults
	viper.SetDefault("delivery.webhook.timeout", "30s")
	viper.SetDefault("delivery.webhook.max_retries", 3)
	viper.SetDefault("delivery.webhook.retry_delay", "5s")
	viper.SetDefault("delivery.smtp.host", "localhost")
	viper.SetDefault("delivery.smtp.port", 25)
	viper.SetDefault("delivery.smtp.timeout", "30s")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")

	// TLS defaults
	viper.SetDefault("tls.enabled", false)
	viper.SetDefault("tls.min_version", "1.2")
}

// Validate валидирует конфигурацию // v1.0
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if len(c.NATS.URLs) == 0 {
		return fmt.Errorf("at least one NATS URL is required")
	}

	if c.PostgreSQL.Database == "" {
		return fmt.Errorf("PostgreSQL database name is required")
	}

	if len(c.ClickHouse.Hosts) == 0 {
		return fmt.Errorf("at least one ClickHouse host is required")
	}

	if c.AI.Timeout <= 0 {
		return fmt.Errorf("AI timeout must be positive")
	}

	return nil
}

// GetServerAddr возвращает адрес сервера // v1.0
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetPostgreSQLDSN возвращает DSN для PostgreSQL // v1.0
func (c *Config) GetPostgreSQLDSN() string {
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.PostgreSQL.Host, c.PostgreSQL.Port, c.PostgreSQL.Database,
		c.PostgreSQL.Username, c.PostgreSQL.Password, c.PostgreSQL.SSLMode)
}

// GetRedisAddr возвращает адрес Redis // v1.0
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
