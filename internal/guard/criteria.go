// filename: internal/guard/criteria.go
package guard

import (
	"strings"

	"github.com/mailguard/mailguard/internal/models"
)

// MatchResult результат проверки явной конфигурации против письма
type MatchResult struct {
	Matched      bool
	MatchDetails []models.MatchDetail
}

// MatchExplicit проверяет явную конфигурацию против письма.
// Между заполненными критериями всегда AND: все должны совпасть.
// Оператор AND/OR действует только на список значений внутри критерия.
// Конфигурация считается структурно валидной: схема проверяется при
// записи правила, не здесь.
func MatchExplicit(cfg *models.ExplicitConfig, email *models.StructuredEmail) MatchResult {
	var details []models.MatchDetail

	if cfg.Subject != nil {
		value, ok := matchSubstrings(cfg.Subject, email.Subject)
		if !ok {
			return MatchResult{}
		}
		details = append(details, models.MatchDetail{Criteria: "subject", Value: value})
	}

	if cfg.From != nil {
		value, ok := matchFrom(cfg.From, email.From)
		if !ok {
			return MatchResult{}
		}
		details = append(details, models.MatchDetail{Criteria: "from", Value: value})
	}

	if cfg.HasAttachment != nil {
		if email.HasAttachments() != *cfg.HasAttachment {
			return MatchResult{}
		}
		value := "false"
		if *cfg.HasAttachment {
			value = "true"
		}
		details = append(details, models.MatchDetail{Criteria: "hasAttachment", Value: value})
	}

	if cfg.HasWords != nil {
		value, ok := matchSubstrings(cfg.HasWords, email.TextBody)
		if !ok {
			return MatchResult{}
		}
		details = append(details, models.MatchDetail{Criteria: "hasWords", Value: value})
	}

	// Пустая конфигурация не совпадает ни с чем; на практике она
	// отклоняется валидацией при создании правила.
	if len(details) == 0 {
		return MatchResult{}
	}

	return MatchResult{Matched: true, MatchDetails: details}
}

// matchSubstrings проверяет вхождение значений как подстрок без учета регистра // v1.0
func matchSubstrings(criteria *models.CriteriaConfig, text string) (string, bool) {
	haystack := strings.ToLower(text)

	switch criteria.Operator {
	case models.OperatorAnd:
		for _, v := range criteria.Values {
			if !strings.Contains(haystack, strings.ToLower(v)) {
				return "", false
			}
		}
		return strings.Join(criteria.Values, ","), true
	default: // OR
		for _, v := range criteria.Values {
			if strings.Contains(haystack, strings.ToLower(v)) {
				return v, true
			}
		}
		return "", false
	}
}

// matchFrom проверяет отправителя: точное совпадение адреса или
// wildcard вида *@domain, совпадающий по домену отправителя // v1.0
func matchFrom(criteria *models.CriteriaConfig, from string) (string, bool) {
	switch criteria.Operator {
	case models.OperatorAnd:
		for _, v := range criteria.Values {
			if !matchSender(v, from) {
				return "", false
			}
		}
		return strings.Join(criteria.Values, ","), true
	default: // OR
		for _, v := range criteria.Values {
			if matchSender(v, from) {
				return v, true
			}
		}
		return "", false
	}
}

// matchSender проверяет одно значение критерия from // v1.0
func matchSender(value, from string) bool {
	value = strings.ToLower(strings.TrimSpace(value))
	from = strings.ToLower(strings.TrimSpace(from))

	if strings.HasPrefix(value, "*@") {
		domain := strings.TrimPrefix(value, "*@")
		at := strings.LastIndex(from, "@")
		if at < 0 || at == len(from)-1 {
			return false
		}
		return from[at+1:] == domain
	}

	return from == value
}
