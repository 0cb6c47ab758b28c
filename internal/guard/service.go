// filename: internal/guard/service.go
// MailGuard Guard Service

package guard

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mailguard/mailguard/internal/common/config"
	"github.com/mailguard/mailguard/internal/common/errors"
	"github.com/mailguard/mailguard/internal/common/logging"
	"github.com/mailguard/mailguard/internal/common/nats"
	"github.com/mailguard/mailguard/internal/models"
	"github.com/mailguard/mailguard/internal/rulestore"
)

// Bus интерфейс шины сообщений: подписка на входящие письма и публикация
// решений. Реализуется NATS клиентом.
type Bus interface {
	Publish(subject string, payload interface{}) error
	SubscribeQueue(subject, queue string, handler func([]byte)) error
}

// EvaluationHistory приемник строк истории оценки. Реализуется ClickHouse
// клиентом.
type EvaluationHistory interface {
	InsertEvaluation(ctx context.Context, record *models.EvaluationRecord) error
}

// Service represents the guard evaluation service
type Service struct {
	config    *config.Config
	logger    *logging.Logger
	nats      Bus
	rules     rulestore.Store
	evaluator *Evaluator
	resolver  *ActionResolver
	history   EvaluationHistory
	stopChan  chan struct{}
}

// NewService creates a new guard service
func NewService(cfg *config.Config, logger *logging.Logger, bus Bus,
	rules rulestore.Store, evaluator *Evaluator, resolver *ActionResolver, history EvaluationHistory) *Service {
	return &Service{
		config:    cfg,
		logger:    logger,
		nats:      bus,
		rules:     rules,
		evaluator: evaluator,
		resolver:  resolver,
		history:   history,
		stopChan:  make(chan struct{}),
	}
}

// Start starts the guard service
func (s *Service) Start(ctx context.Context) error {
	s.logger.Logger.Info("Starting guard service")

	// Queue-подписка: несколько инстансов guard делят поток писем
	if err := s.nats.SubscribeQueue(nats.SubjectEmailsInbound, "guard", func(data []byte) {
		if err := s.handleInboundEmail(ctx, data); err != nil {
			s.logger.WithError(err).Error("Failed to handle inbound email")
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

// Stop stops the guard service
func (s *Service) Stop() {
	close(s.stopChan)
}

// handleInboundEmail processes inbound emails from NATS
func (s *Service) handleInboundEmail(ctx context.Context, data []byte) error {
	email, err := models.NewEmailFromJSON(string(data))
	if err != nil {
		return errors.Wrap(err, errors.ErrorCodeEmailParseFailed, "failed to unmarshal inbound email")
	}

	disposition, err := s.ProcessEmail(ctx, email)
	if err != nil {
		return err
	}

	s.logger.WithDisposition(disposition.EmailID, disposition.RuleID, dispositionAction(disposition)).
		Info("Email evaluated")
	return nil
}

// ProcessEmail прогоняет письмо через цепочку активных правил и публикует
// итоговое решение. Счетчик срабатываний увеличивается ровно один раз и
// только здесь: side-effect-free проверки идут через Evaluator напрямую // v1.0
func (s *Service) ProcessEmail(ctx context.Context, email *models.StructuredEmail) (*models.Disposition, error) {
	started := time.Now()

	rules, err := s.rules.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	result := s.evaluator.Evaluate(ctx, rules, email)

	disposition := &models.Disposition{
		ID:          uuid.NewString(),
		EmailID:     email.ID,
		Email:       email,
		Matched:     result.Matched,
		RuleID:      result.RuleID,
		Action:      result.Action,
		Reason:      result.Reason,
		EvaluatedAt: time.Now(),
	}

	if result.Matched {
		if err := s.rules.IncrementTrigger(ctx, result.RuleID); err != nil {
			// Потерянный инкремент не должен останавливать доставку решения
			s.logger.WithError(err).WithField("rule_id", result.RuleID).
				Error("Failed to increment trigger count")
		}

		if result.Action.Type == models.ActionRoute {
			if err := s.routeEmail(ctx, email, result, disposition); err != nil {
				s.logger.WithError(err).WithField("rule_id", result.RuleID).
					Error("Failed to resolve route action")
			}
		}
	}

	if err := s.nats.Publish(nats.SubjectEmailsDisposition, disposition); err != nil {
		s.logger.WithError(err).Error("Failed to publish disposition")
	}

	s.recordEvaluation(ctx, email, result, time.Since(started))

	return disposition, nil
}

// routeEmail резолвит route-действие и публикует письмо в канал доставки.
// Неразрешимый эндпоинт фиксируется в решении, письмо в доставку не уходит // v1.0
func (s *Service) routeEmail(ctx context.Context, email *models.StructuredEmail,
	result *models.EvaluationResult, disposition *models.Disposition) error {
	resolved, err := s.resolver.Resolve(ctx, *result.Action)
	if err != nil {
		disposition.Reason = "action resolution failed: " + err.Error()
		return err
	}

	routed := &models.RoutedEmail{
		Email:    email,
		RuleID:   result.RuleID,
		Endpoint: resolved.Endpoint,
		RoutedAt: time.Now(),
	}
	if err := s.nats.Publish(nats.SubjectEmailsRouted, routed); err != nil {
		return errors.Wrap(err, errors.ErrorCodeNATSPublish, "failed to publish routed email")
	}

	s.logger.WithEndpoint(resolved.Endpoint.ID, string(resolved.Endpoint.Type)).Info("Email routed to endpoint")
	return nil
}

// recordEvaluation пишет строку истории оценки в ClickHouse // v1.0
func (s *Service) recordEvaluation(ctx context.Context, email *models.StructuredEmail,
	result *models.EvaluationResult, duration time.Duration) {
	if s.history == nil {
		return
	}

	record := &models.EvaluationRecord{
		EmailID:     email.ID,
		From:        email.From,
		Subject:     email.Subject,
		Matched:     result.Matched,
		RuleID:      result.RuleID,
		Reason:      result.Reason,
		DurationMS:  float64(duration.Microseconds()) / 1000.0,
		EvaluatedAt: time.Now(),
	}
	if result.Action != nil {
		record.ActionType = string(result.Action.Type)
	}

	if err := s.history.InsertEvaluation(ctx, record); err != nil {
		s.logger.WithError(err).Error("Failed to record evaluation history")
	}
}

func dispositionAction(d *models.Disposition) string {
	if d.Action == nil {
		return string(models.ActionAllow)
	}
	return string(d.Action.Type)
}
