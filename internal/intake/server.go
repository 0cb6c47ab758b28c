// filename: internal/intake/server.go
package intake

import (
	"bufio"
	"bytes"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/net/netutil"

	"github.com/mailguard/mailguard/internal/common/config"
	"github.com/mailguard/mailguard/internal/common/errors"
	"github.com/mailguard/mailguard/internal/common/logging"
	"github.com/mailguard/mailguard/internal/common/nats"
	mgtls "github.com/mailguard/mailguard/internal/common/tls"
	"github.com/mailguard/mailguard/internal/models"
)

// Server представляет сервер intake
type Server struct {
	config     *config.Config
	natsClient *nats.Client
	logger     *logging.Logger
	validate   *validator.Validate
}

// IntakeResponse представляет ответ на прием писем
type IntakeResponse struct {
	OK       bool   `json:"ok"`
	Received int    `json:"received"`
	Message  string `json:"message,omitempty"`
}

// NewServer создает новый сервер intake // v1.0
func NewServer(cfg *config.Config, natsClient *nats.Client, logger *logging.Logger) *Server {
	return &Server{
		config:     cfg,
		natsClient: natsClient,
		logger:     logger,
		validate:   validator.New(),
	}
}

// Router возвращает HTTP роутер // v1.0
func (s *Server) Router() *gin.Engine {
	router := gin.New()

	// Middleware
	router.Use(s.recoveryMiddleware())
	router.Use(s.loggingMiddleware())
	router.Use(s.requestIDMiddleware())
	router.Use(s.rateLimitMiddleware())
	router.Use(s.bodySizeMiddleware())

	// API v1
	v1 := router.Group("/api/v1")
	{
		// Health check
		v1.GET("/health", s.healthHandler)

		// Прием писем: одно письмо или NDJSON пачка
		v1.POST("/emails", s.emailHandler)
		v1.POST("/emails/batch", s.batchHandler)
	}

	return router
}

// Serve запускает HTTP сервер с ограничением числа соединений // v1.0
func (s *Server) Serve(httpServer *http.Server) error {
	listener, err := net.Listen("tcp", httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", httpServer.Addr, err)
	}

	if s.config.Server.MaxConnections > 0 {
		listener = netutil.LimitListener(listener, s.config.Server.MaxConnections)
	}

	tlsConfig, err := mgtls.ServerTLSConfig(s.config.TLS)
	if err != nil {
		return err
	}
	if tlsConfig != nil {
		httpServer.TLSConfig = tlsConfig
		return httpServer.ServeTLS(listener, "", "")
	}

	return httpServer.Serve(listener)
}

// healthHandler обрабатывает health check // v1.0
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"service":   "intake",
		"timestamp": time.Now().UTC(),
		"version":   "1.0.0",
	})
}

// emailHandler принимает одно структурированное письмо // v1.0
func (s *Server) emailHandler(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		s.logger.WithError(err).Error("Failed to read request body")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Failed to read request body",
		})
		return
	}

	email, err := s.processEmail(string(body))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	if err := s.natsClient.Publish(nats.SubjectEmailsInbound, email); err != nil {
		s.logger.WithError(err).Error("Failed to publish email to NATS")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to enqueue email",
		})
		return
	}

	s.logger.WithEmail(email.ID, email.From, email.Subject).Info("Email accepted")

	c.JSON(http.StatusAccepted, IntakeResponse{
		OK:       true,
		Received: 1,
	})
}

// batchHandler принимает пачку писем в формате NDJSON // v1.0
func (s *Server) batchHandler(c *gin.Context) {
	start := time.Now()

	contentType := c.GetHeader("Content-Type")
	if contentType != "application/x-ndjson" && !strings.Contains(contentType, "text/plain") {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Content-Type must be application/x-ndjson or text/plain",
		})
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		s.logger.WithError(err).Error("Failed to read request body")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Failed to read request body",
		})
		return
	}

	lines := splitNDJSON(body)
	accepted := 0
	for _, line := range lines {
		email, err := s.processEmail(line)
		if err != nil {
			s.logger.WithError(err).Warn("Skipping invalid email in batch")
			continue
		}

		if err := s.natsClient.Publish(nats.SubjectEmailsInbound, email); err != nil {
			s.logger.WithError(err).Error("Failed to publish email to NATS")
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to enqueue emails",
			})
			return
		}
		accepted++
	}

	duration := time.Since(start).Milliseconds()
	s.logger.WithFields(logging.Fields{
		"emails_received": len(lines),
		"emails_valid":    accepted,
		"duration_ms":     duration,
		"remote_addr":     c.ClientIP(),
	}).Info("Intake batch processed")

	c.JSON(http.StatusAccepted, IntakeResponse{
		OK:       true,
		Received: accepted,
		Message:  fmt.Sprintf("Successfully accepted %d emails", accepted),
	})
}

// processEmail парсит и валидирует одно письмо // v1.0
func (s *Server) processEmail(line string) (*models.StructuredEmail, error) {
	email, err := models.NewEmailFromJSON(line)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorCodeEmailParseFailed, "failed to parse email")
	}

	if email.ID == "" {
		email.ID = uuid.NewString()
	}

	if err := s.validate.Struct(email); err != nil {
		return nil, errors.Wrap(err, errors.ErrorCodeEmailInvalid, "email validation failed")
	}

	return email, nil
}

// splitNDJSON разбивает NDJSON тело на непустые строки // v1.0
func splitNDJSON(data []byte) []string {
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}

	return lines
}
