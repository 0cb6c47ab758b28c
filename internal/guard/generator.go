// filename: internal/guard/generator.go
package guard

import (
	"context"
	"strings"

	"github.com/mailguard/mailguard/internal/common/errors"
	"github.com/mailguard/mailguard/internal/models"
)

// Generator переводит описание правила на естественном языке в явную
// конфигурацию. Используется только при создании правил (simple режим),
// никогда в горячем пути оценки. Никогда не пишет в хранилище сам:
// вызывающая сторона показывает результат пользователю на подтверждение.
type Generator struct {
	ai AIClient
}

// NewGenerator создает новый генератор конфигураций // v1.0
func NewGenerator(ai AIClient) *Generator {
	return &Generator{ai: ai}
}

// Generate переводит описание в валидную явную конфигурацию.
// Вывод модели валидируется против схемы; тривиально исправимые огрехи
// (регистр оператора, пустые секции) чинятся, все остальное считается ошибкой
// GENERATION_ERROR, без молчаливых автокоррекций // v1.0
func (g *Generator) Generate(ctx context.Context, description string) (*models.ExplicitConfig, error) {
	if strings.TrimSpace(description) == "" {
		return nil, errors.GenerationError("description must not be empty")
	}

	cfg, err := g.ai.GenerateConfig(ctx, description)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorCodeGeneration, "model call failed")
	}

	repairConfig(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, errors.GenerationError("model produced invalid config: " + err.Error())
	}

	return cfg, nil
}

// repairConfig чинит тривиальные огрехи вывода модели // v1.0
func repairConfig(cfg *models.ExplicitConfig) {
	if cfg.Mode == "" {
		cfg.Mode = models.ConfigModeSimple
	}

	cfg.Subject = repairCriteria(cfg.Subject)
	cfg.From = repairCriteria(cfg.From)
	cfg.HasWords = repairCriteria(cfg.HasWords)
}

// repairCriteria нормализует один критерий, отбрасывая пустые секции // v1.0
func repairCriteria(c *models.CriteriaConfig) *models.CriteriaConfig {
	if c == nil {
		return nil
	}

	// Нормализуем регистр оператора
	switch strings.ToUpper(string(c.Operator)) {
	case "AND":
		c.Operator = models.OperatorAnd
	case "OR":
		c.Operator = models.OperatorOr
	}

	// Отбрасываем пустые значения
	values := c.Values[:0]
	for _, v := range c.Values {
		if strings.TrimSpace(v) != "" {
			values = append(values, strings.TrimSpace(v))
		}
	}
	c.Values = values

	// Секция без значений эквивалентна отсутствующей
	if len(c.Values) == 0 {
		return nil
	}
	return c
}
