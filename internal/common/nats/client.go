// filename: internal/common/nats/client.go
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nkeys"
)

// Субъекты пайплайна обработки писем
const (
	SubjectEmailsInbound     = "emails.inbound"
	SubjectEmailsDisposition = "emails.disposition"
	SubjectEmailsRouted      = "emails.routed"
)

// Client представляет клиент NATS
type Client struct {
	conn     *nats.Conn
	js       nats.JetStreamContext
	config   Config
	subjects map[string]*nats.Subscription
}

// Config представляет конфигурацию NATS
type Config struct {
	URLs        []string      `yaml:"urls"`
	ClusterID   string        `yaml:"cluster_id"`
	ClientID    string        `yaml:"client_id"`
	Credentials string        `yaml:"credentials"`
	NKeySeed    string        `yaml:"nkey_seed"`
	Timeout     time.Duration `yaml:"timeout"`
}

// NewClient создает новый клиент NATS // v1.0
func NewClient(config Config) (*Client, error) {
	opts := []nats.Option{
		nats.Name(config.ClientID),
		nats.Timeout(config.Timeout),
		nats.ReconnectWait(1 * time.Second),
		nats.MaxReconnects(-1),
	}

	// Добавляем аутентификацию если указана
	if config.Credentials != "" {
		opts = append(opts, nats.UserCredentials(config.Credentials))
	}

	if config.NKeySeed != "" {
		kp, err := nkeys.FromSeed([]byte(config.NKeySeed))
		if err != nil {
			return nil, fmt.Errorf("failed to parse nkey seed: %w", err)
		}
		pub, err := kp.PublicKey()
		if err != nil {
			return nil, fmt.Errorf("failed to derive nkey public key: %w", err)
		}
		opts = append(opts, nats.Nkey(pub, func(nonce []byte) ([]byte, error) {
			return kp.Sign(nonce)
		}))
	}

	// Подключаемся к NATS
	conn, err := nats.Connect(config.URLs[0], opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	// Создаем JetStream контекст
	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	// Создаем потоки если не существуют
	if err := ensureStreams(js); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ensure streams: %w", err)
	}

	return &Client{
		conn:     conn,
		js:       js,
		config:   config,
		subjects: make(map[string]*nats.Subscription),
	}, nil
}

// Имя потока JetStream не может содержать точки, поэтому субъекты
// привязываются к потокам явно
var pipelineStreams = []struct {
	name    string
	subject string
}{
	{"EMAILS_INBOUND", SubjectEmailsInbound},
	{"EMAILS_DISPOSITION", SubjectEmailsDisposition},
	{"EMAILS_ROUTED", SubjectEmailsRouted},
}

// ensureStreams создает необходимые потоки // v1.0
func ensureStreams(js nats.JetStreamContext) error {
	for _, s := range pipelineStreams {
		stream, err := js.StreamInfo(s.name)
		if err == nil && stream != nil {
			continue // Поток уже существует
		}

		streamConfig := &nats.StreamConfig{
			Name:      s.name,
			Subjects:  []string{s.subject},
			Storage:   nats.FileStorage,
			Retention: nats.LimitsPolicy,
			MaxAge:    24 * time.Hour,
			MaxMsgs:   1000000,
		}

		if _, err := js.AddStream(streamConfig); err != nil {
			return fmt.Errorf("failed to create stream %s: %w", s.name, err)
		}
	}

	return nil
}

// Publish публикует сообщение в поток // v1.0
func (c *Client) Publish(subject string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	if _, err := c.js.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}

	return nil
}

// Subscribe подписывается на субъект // v1.0
func (c *Client) Subscribe(subject string, handler func([]byte)) error {
	sub, err := c.js.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Data)
		msg.Ack()
	}, nats.AckWait(30*time.Second))
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	c.subjects[subject] = sub
	return nil
}

// SubscribeQueue подписывается на субъект с очередью воркеров // v1.0
func (c *Client) SubscribeQueue(subject, queue string, handler func([]byte)) error {
	sub, err := c.js.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(msg.Data)
		msg.Ack()
	}, nats.AckWait(30*time.Second))
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s with queue %s: %w", subject, queue, err)
	}

	c.subjects[subject] = sub
	return nil
}

// Unsubscribe отписывается от субъекта // v1.0
func (c *Client) Unsubscribe(subject string) error {
	if sub, exists := c.subjects[subject]; exists {
		if err := sub.Unsubscribe(); err != nil {
			return fmt.Errorf("failed to unsubscribe from %s: %w", subject, err)
		}
		delete(c.subjects, subject)
	}
	return nil
}

// PublishWithContext публикует сообщение с учетом отмены контекста // v1.0
func (c *Client) PublishWithContext(ctx context.Context, subject string, payload interface{}) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return c.Publish(subject, payload)
	}
}

// Close закрывает соединение с NATS // v1.0
func (c *Client) Close() error {
	for subject := range c.subjects {
		c.Unsubscribe(subject)
	}

	if c.conn != nil {
		c.conn.Close()
	}

	return nil
}

// IsConnected проверяет, подключен ли клиент // v1.0
func (c *Client) IsConnected() bool {
	return c.conn != nil && c.conn.IsConnected()
}

// Flush выполняет flush буферов // v1.0
func (c *Client) Flush() error {
	return c.conn.Flush()
}
