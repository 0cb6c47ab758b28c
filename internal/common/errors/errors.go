// filename: internal/common/errors/errors.go
package errors

import (
	"fmt"
)

// ErrorCode представляет код ошибки
type ErrorCode string

const (
	// Общие ошибки
	ErrorCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrorCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrorCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrorCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrorCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrorCodeConflict     ErrorCode = "CONFLICT"
	ErrorCodeTimeout      ErrorCode = "TIMEOUT"
	ErrorCodeRateLimit    ErrorCode = "RATE_LIMIT"

	// Ошибки правил
	ErrorCodeConfigValidation ErrorCode = "CONFIG_VALIDATION_ERROR"
	ErrorCodeRuleNotFound     ErrorCode = "RULE_NOT_FOUND"
	ErrorCodeRuleParseFailed  ErrorCode = "RULE_PARSE_FAILED"

	// Ошибки действий
	ErrorCodeActionResolution ErrorCode = "ACTION_RESOLUTION_ERROR"
	ErrorCodeEndpointNotFound ErrorCode = "ENDPOINT_NOT_FOUND"

	// Ошибки AI коллаборатора
	ErrorCodeAIEvaluation ErrorCode = "AI_EVALUATION_ERROR"
	ErrorCodeGeneration   ErrorCode = "GENERATION_ERROR"

	// Ошибки писем
	ErrorCodeEmailInvalid     ErrorCode = "EMAIL_INVALID"
	ErrorCodeEmailParseFailed ErrorCode = "EMAIL_PARSE_FAILED"

	// Ошибки базы данных
	ErrorCodeDBConnection ErrorCode = "DB_CONNECTION_ERROR"
	ErrorCodeDBQuery      ErrorCode = "DB_QUERY_ERROR"

	// Ошибки NATS
	ErrorCodeNATSConnection ErrorCode = "NATS_CONNECTION_ERROR"
	ErrorCodeNATSPublish    ErrorCode = "NATS_PUBLISH_ERROR"
	ErrorCodeNATSSubscribe  ErrorCode = "NATS_SUBSCRIBE_ERROR"

	// Ошибки ClickHouse
	ErrorCodeCHConnection ErrorCode = "CH_CONNECTION_ERROR"
	ErrorCodeCHInsert     ErrorCode = "CH_INSERT_ERROR"
)

// GuardError представляет ошибку mailguard
type GuardError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Internal   error                  `json:"-"`
	StatusCode int                    `json:"status_code"`
}

// Error возвращает строковое представление ошибки // v1.0
func (e *GuardError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Code, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap возвращает внутреннюю ошибку // v1.0
func (e *GuardError) Unwrap() error {
	return e.Internal
}

// New создает новую ошибку mailguard // v1.0
func New(code ErrorCode, message string) *GuardError {
	return &GuardError{
		Code:       code,
		Message:    message,
		Details:    make(map[string]interface{}),
		StatusCode: getStatusCode(code),
	}
}

// Wrap оборачивает существующую ошибку // v1.0
func Wrap(err error, code ErrorCode, message string) *GuardError {
	return &GuardError{
		Code:       code,
		Message:    message,
		Internal:   err,
		Details:    make(map[string]interface{}),
		StatusCode: getStatusCode(code),
	}
}

// AddDetail добавляет деталь к ошибке // v1.0
func (e *GuardError) AddDetail(key string, value interface{}) *GuardError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode проверяет, является ли ошибка определенного кода // v1.0
func IsErrorCode(err error, code ErrorCode) bool {
	if guardErr, ok := err.(*GuardError); ok {
		return guardErr.Code == code
	}
	return false
}

// GetErrorCode возвращает код ошибки // v1.0
func GetErrorCode(err error) ErrorCode {
	if guardErr, ok := err.(*GuardError); ok {
		return guardErr.Code
	}
	return ErrorCodeInternal
}

// IsNotFound проверяет, является ли ошибка ошибкой "не найдено" // v1.0
func IsNotFound(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeNotFound || code == ErrorCodeRuleNotFound || code == ErrorCodeEndpointNotFound
}

// getStatusCode возвращает HTTP статус код для кода ошибки // v1.0
func getStatusCode(code ErrorCode) int {
	switch code {
	case ErrorCodeValidation, ErrorCodeConfigValidation, ErrorCodeEmailInvalid, ErrorCodeEmailParseFailed, ErrorCodeGeneration:
		return 400
	case ErrorCodeUnauthorized:
		return 401
	case ErrorCodeForbidden:
		return 403
	case ErrorCodeNotFound, ErrorCodeRuleNotFound, ErrorCodeEndpointNotFound:
		return 404
	case ErrorCodeConflict:
		return 409
	case ErrorCodeTimeout:
		return 408
	case ErrorCodeRateLimit:
		return 429
	case ErrorCodeActionResolution:
		return 422
	default:
		return 500
	}
}

// ConfigValidationError создает ошибку валидации конфигурации правила // v1.0
func ConfigValidationError(message string) *GuardError {
	return New(ErrorCodeConfigValidation, message)
}

// ActionResolutionError создает ошибку разрешения действия // v1.0
func ActionResolutionError(endpointID, reason string) *GuardError {
	return New(ErrorCodeActionResolution,
		fmt.Sprintf("cannot resolve route action: endpoint %s %s", endpointID, reason)).
		AddDetail("endpoint_id", endpointID)
}

// AIEvaluationError создает ошибку AI оценки // v1.0
func AIEvaluationError(err error) *GuardError {
	return Wrap(err, ErrorCodeAIEvaluation, "ai evaluation failed")
}

// GenerationError создает ошибку генерации конфигурации // v1.0
func GenerationError(message string) *GuardError {
	return New(ErrorCodeGeneration, message)
}

// NotFoundError создает ошибку "не найдено" // v1.0
func NotFoundError(resource, id string) *GuardError {
	return New(ErrorCodeNotFound, fmt.Sprintf("%s with ID %s not found", resource, id)).
		AddDetail("resource", resource).
		AddDetail("id", id)
}
