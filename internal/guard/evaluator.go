// filename: internal/guard/evaluator.go
package guard

import (
	"context"
	"sort"

	"github.com/mailguard/mailguard/internal/common/logging"
	"github.com/mailguard/mailguard/internal/models"
)

// Evaluator оценивает цепочку guard правил для письма.
// Оценка чистая: побочные эффекты (trigger счетчики) выполняет вызывающая
// сторона через Store.IncrementTrigger только на реальном пути, поэтому
// check интерфейс использует тот же код без скрытых флагов.
type Evaluator struct {
	ai     AIClient
	logger *logging.Logger
}

// NewEvaluator создает новый оценщик правил // v1.0
func NewEvaluator(ai AIClient, logger *logging.Logger) *Evaluator {
	return &Evaluator{
		ai:     ai,
		logger: logger,
	}
}

// SortRules сортирует правила в порядке оценки: priority по убыванию,
// затем createdAt по убыванию (новые раньше), затем ID по убыванию для
// полной детерминированности // v1.0
func SortRules(rules []*models.Rule) {
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

// Evaluate оценивает активные правила против письма в порядке приоритета.
// Первое совпавшее правило выигрывает, дальнейшие правила не оцениваются.
// Ошибка оценки одного правила не прерывает цепочку: правило считается
// несовпавшим и оценка продолжается // v1.0
func (e *Evaluator) Evaluate(ctx context.Context, rules []*models.Rule, email *models.StructuredEmail) *models.EvaluationResult {
	ordered := make([]*models.Rule, len(rules))
	copy(ordered, rules)
	SortRules(ordered)

	for _, rule := range ordered {
		// Прерываем цепочку при отмене контекста запроса
		select {
		case <-ctx.Done():
			return &models.EvaluationResult{Matched: false}
		default:
		}

		if !rule.IsActive {
			continue
		}

		check := e.CheckRule(ctx, rule, email)
		if check.Error != "" {
			e.logger.WithRule(rule.ID, rule.Name).WithField("error", check.Error).
				Warn("Rule evaluation failed, treating as non-match")
			continue
		}

		if check.Matched {
			action := rule.Action
			return &models.EvaluationResult{
				Matched:      true,
				RuleID:       rule.ID,
				RuleName:     rule.Name,
				Action:       &action,
				MatchDetails: check.MatchDetails,
				Reason:       check.Reason,
			}
		}
	}

	return &models.EvaluationResult{Matched: false}
}

// CheckRule проверяет одно правило против письма без побочных эффектов.
// Используется и реальной оценкой, и check интерфейсом админ API // v1.0
func (e *Evaluator) CheckRule(ctx context.Context, rule *models.Rule, email *models.StructuredEmail) *models.RuleCheckResult {
	switch cfg := rule.Config.(type) {
	case *models.ExplicitConfig:
		result := MatchExplicit(cfg, email)
		return &models.RuleCheckResult{
			Matched:      result.Matched,
			MatchDetails: result.MatchDetails,
		}
	case *models.AIPromptConfig:
		verdict, err := e.ai.EvaluatePrompt(ctx, cfg.Prompt, email)
		if err != nil {
			// Сбой коллаборатора не валит цепочку: несовпадение + ошибка
			return &models.RuleCheckResult{
				Matched: false,
				Error:   err.Error(),
			}
		}
		return &models.RuleCheckResult{
			Matched: verdict.Matched,
			Reason:  verdict.Reason,
		}
	default:
		return &models.RuleCheckResult{
			Matched: false,
			Error:   "unknown rule config variant",
		}
	}
}
