// filename: internal/common/logging/logger.go
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Logger представляет логгер приложения
type Logger struct {
	*logrus.Logger
}

// Fields алиас для полей структурированного лога
type Fields = logrus.Fields

// Config представляет конфигурацию логирования
type Config struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// NewLogger создает новый логгер // v1.0
func NewLogger(config Config) (*Logger, error) {
	logger := logrus.New()

	// Устанавливаем уровень логирования
	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(level)

	// Устанавливаем формат
	switch config.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	default:
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	// Устанавливаем вывод
	if err := setOutput(logger, config); err != nil {
		return nil, err
	}

	return &Logger{Logger: logger}, nil
}

// setOutput устанавливает вывод для логгера // v1.0
func setOutput(logger *logrus.Logger, config Config) error {
	switch config.Output {
	case "stdout", "":
		logger.SetOutput(os.Stdout)
	case "stderr":
		logger.SetOutput(os.Stderr)
	default:
		// Считаем, что указан путь к файлу
		dir := filepath.Dir(config.Output)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
		file, err := os.OpenFile(config.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return err
		}
		logger.SetOutput(io.MultiWriter(os.Stdout, file))
	}

	return nil
}

// WithField добавляет поле к логгеру // v1.0
func (l *Logger) WithField(key string, value interface{}) *logrus.Entry {
	return l.Logger.WithField(key, value)
}

// WithFields добавляет поля к логгеру // v1.0
func (l *Logger) WithFields(fields logrus.Fields) *logrus.Entry {
	return l.Logger.WithFields(fields)
}

// WithError добавляет ошибку к логгеру // v1.0
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.Logger.WithError(err)
}

// WithRequest добавляет информацию о запросе к логгеру // v1.0
func (l *Logger) WithRequest(method, path, remoteAddr string) *logrus.Entry {
	return l.Logger.WithFields(logrus.Fields{
		"method":      method,
		"path":        path,
		"remote_addr": remoteAddr,
	})
}

// WithRule добавляет информацию о правиле к логгеру // v1.0
func (l *Logger) WithRule(ruleID, ruleName string) *logrus.Entry {
	return l.Logger.WithFields(logrus.Fields{
		"rule_id":   ruleID,
		"rule_name": ruleName,
	})
}

// WithEmail добавляет информацию о письме к логгеру // v1.0
func (l *Logger) WithEmail(emailID, from, subject string) *logrus.Entry {
	return l.Logger.WithFields(logrus.Fields{
		"email_id": emailID,
		"from":     from,
		"subject":  subject,
	})
}

// WithEndpoint добавляет информацию об endpoint'е к логгеру // v1.0
func (l *Logger) WithEndpoint(endpointID, endpointType string) *logrus.Entry {
	return l.Logger.WithFields(logrus.Fields{
		"endpoint_id":   endpointID,
		"endpoint_type": endpointType,
	})
}

// WithDisposition добавляет информацию о решении к логгеру // v1.0
func (l *Logger) WithDisposition(emailID, ruleID, action string) *logrus.Entry {
	return l.Logger.WithFields(logrus.Fields{
		"email_id": emailID,
		"rule_id":  ruleID,
		"action":   action,
	})
}

// WithDuration добавляет длительность к логгеру // v1.0
func (l *Logger) WithDuration(durationMS float64) *logrus.Entry {
	return l.Logger.WithField("duration_ms", durationMS)
}

// SetLevel устанавливает уровень логирования // v1.0
func (l *Logger) SetLevel(level string) error {
	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	l.Logger.SetLevel(logLevel)
	return nil
}
