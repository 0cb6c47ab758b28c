// filename: internal/delivery/service.go
// MailGuard Delivery Service

package delivery

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mailguard/mailguard/internal/common/config"
	"github.com/mailguard/mailguard/internal/common/logging"
	"github.com/mailguard/mailguard/internal/common/nats"
	"github.com/mailguard/mailguard/internal/delivery/channels"
	"github.com/mailguard/mailguard/internal/models"
)

// Channel доставляет перенаправленное письмо в конечную точку
type Channel interface {
	Deliver(routed *models.RoutedEmail) error
	GetType() string
}

// Service represents the delivery service
type Service struct {
	config   *config.Config
	logger   *logging.Logger
	nats     *nats.Client
	channels map[models.EndpointType]Channel
	stopChan chan struct{}
}

// NewService creates a new delivery service
func NewService(cfg *config.Config, logger *logging.Logger, natsClient *nats.Client) *Service {
	svc := &Service{
		config:   cfg,
		logger:   logger,
		nats:     natsClient,
		channels: make(map[models.EndpointType]Channel),
		stopChan: make(chan struct{}),
	}

	svc.channels[models.EndpointTypeWebhook] = channels.NewWebhookChannel(&cfg.Delivery.Webhook, logger)
	svc.channels[models.EndpointTypeEmailForward] = channels.NewForwardChannel(&cfg.Delivery.SMTP, logger)

	return svc
}

// Start starts the delivery service
func (s *Service) Start(ctx context.Context) error {
	s.logger.Logger.Info("Starting delivery service")

	if err := s.nats.SubscribeQueue(nats.SubjectEmailsRouted, "delivery", func(data []byte) {
		if err := s.handleRoutedEmail(data); err != nil {
			s.logger.WithError(err).Error("Failed to handle routed email")
		}
	}); err != nil {
		return err
	}

	if err := s.nats.Subscribe(nats.SubjectEmailsDisposition, func(data []byte) {
		if err := s.handleDisposition(data); err != nil {
			s.logger.WithError(err).Error("Failed to handle disposition")
		}
	}); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		s.logger.Logger.Info("Context cancelled, stopping service")
	case <-s.stopChan:
		s.logger.Logger.Info("Stop signal received, stopping service")
	}

	return nil
}

// Stop stops the delivery service
func (s *Service) Stop() {
	close(s.stopChan)
}

// handleRoutedEmail processes routed emails from NATS
func (s *Service) handleRoutedEmail(data []byte) error {
	var routed models.RoutedEmail
	if err := json.Unmarshal(data, &routed); err != nil {
		return fmt.Errorf("failed to unmarshal routed email: %w", err)
	}

	if routed.Email == nil || routed.Endpoint == nil {
		return fmt.Errorf("routed email is missing email or endpoint")
	}

	channel, exists := s.channels[routed.Endpoint.Type]
	if !exists {
		return fmt.Errorf("no delivery channel for endpoint type %s", routed.Endpoint.Type)
	}

	if err := channel.Deliver(&routed); err != nil {
		return fmt.Errorf("delivery via %s failed: %w", channel.GetType(), err)
	}

	s.logger.WithEndpoint(routed.Endpoint.ID, string(routed.Endpoint.Type)).
		Info("Routed email delivered")
	return nil
}

// handleDisposition наблюдает за решениями по письмам.
// Заблокированные письма принимаются и отбрасываются без bounce:
// фиксация в логе и есть вся доставка для block // v1.0
func (s *Service) handleDisposition(data []byte) error {
	var disposition models.Disposition
	if err := json.Unmarshal(data, &disposition); err != nil {
		return fmt.Errorf("failed to unmarshal disposition: %w", err)
	}

	if disposition.Action != nil && disposition.Action.Type == models.ActionBlock {
		s.logger.WithDisposition(disposition.EmailID, disposition.RuleID, string(models.ActionBlock)).
			Info("Email blocked, dropping without bounce")
	}

	return nil
}
