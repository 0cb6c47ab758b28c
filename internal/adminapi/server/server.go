// filename: internal/adminapi/server/server.go
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/mailguard/mailguard/internal/adminapi/routes"
	"github.com/mailguard/mailguard/internal/common/config"
	"github.com/mailguard/mailguard/internal/common/logging"
)

// Server представляет HTTP сервер Admin API // v1.0
type Server struct {
	config *config.Config
	logger *logging.Logger
	router *gin.Engine
	server *http.Server
}

// Handlers собирает обработчики всех групп роутов // v1.0
type Handlers struct {
	Health    *routes.HealthHandler
	Rules     *routes.RulesHandler
	Endpoints *routes.EndpointsHandler
}

// NewServer создает новый HTTP сервер // v1.0
func NewServer(cfg *config.Config, logger *logging.Logger, handlers Handlers) *Server {
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(logger))
	router.Use(corsMiddleware())

	server := &Server{
		config: cfg,
		logger: logger,
		router: router,
	}

	server.setupRoutes(handlers)

	server.server = &http.Server{
		Addr:         cfg.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return server
}

// setupRoutes настраивает роуты API // v1.0
func (s *Server) setupRoutes(h Handlers) {
	// API v1
	v1 := s.router.Group("/api/v1")
	{
		// Health endpoints без аутентификации
		v1.GET("/health", h.Health.HealthCheck)
		v1.GET("/health/ready", h.Health.ReadinessCheck)
		v1.GET("/health/live", h.Health.LivenessCheck)

		// Управляющие endpoints под API ключом
		authed := v1.Group("")
		authed.Use(apiKeyMiddleware(s.config.Server.APIKeyHash, s.logger))
		{
			rules := authed.Group("/rules")
			{
				rules.GET("", h.Rules.GetRules)
				rules.POST("", h.Rules.CreateRule)
				rules.POST("/generate", h.Rules.GenerateRule)
				rules.GET("/:id", h.Rules.GetRuleByID)
				rules.PUT("/:id", h.Rules.UpdateRule)
				rules.DELETE("/:id", h.Rules.DeleteRule)
				rules.PUT("/:id/enable", h.Rules.EnableRule)
				rules.PUT("/:id/disable", h.Rules.DisableRule)
				rules.GET("/:id/stats", h.Rules.GetRuleStats)
				rules.POST("/:id/check", h.Rules.CheckRule)
			}

			endpoints := authed.Group("/endpoints")
			{
				endpoints.GET("", h.Endpoints.GetEndpoints)
				endpoints.POST("", h.Endpoints.CreateEndpoint)
				endpoints.GET("/:id", h.Endpoints.GetEndpointByID)
				endpoints.PUT("/:id", h.Endpoints.UpdateEndpoint)
				endpoints.DELETE("/:id", h.Endpoints.DeleteEndpoint)
			}
		}
	}

	// Root endpoint
	s.router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":   "MailGuard Admin API",
			"version":   "1.0.0",
			"status":    "running",
			"timestamp": time.Now().Format(time.RFC3339),
			"endpoints": gin.H{
				"health":    "/api/v1/health",
				"rules":     "/api/v1/rules",
				"endpoints": "/api/v1/endpoints",
			},
		})
	})

	// 404 handler
	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "Endpoint not found",
			"message":   fmt.Sprintf("Method %s %s not found", c.Request.Method, c.Request.URL.Path),
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})
}

// Start запускает HTTP сервер // v1.0
func (s *Server) Start() error {
	s.logger.WithFields(map[string]interface{}{
		"host": s.config.Server.Host,
		"port": s.config.Server.Port,
	}).Info("Starting Admin API server")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Stop останавливает HTTP сервер // v1.0
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Logger.Info("Stopping Admin API server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}

// GetRouter возвращает роутер для тестирования // v1.0
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// loggingMiddleware добавляет логирование запросов // v1.0
func loggingMiddleware(logger *logging.Logger) gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		logger.WithFields(map[string]interface{}{
			"method":     param.Method,
			"path":       param.Path,
			"status":     param.StatusCode,
			"latency":    param.Latency,
			"client_ip":  param.ClientIP,
			"user_agent": param.Request.UserAgent(),
		}).Info("HTTP request")

		return ""
	})
}

// corsMiddleware добавляет CORS заголовки // v1.0
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-API-Key, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// apiKeyMiddleware проверяет API ключ по bcrypt хэшу из конфигурации.
// Пустой хэш отключает аутентификацию для локальной разработки // v1.0
func apiKeyMiddleware(keyHash string, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if keyHash == "" {
			c.Next()
			return
		}

		apiKey := c.GetHeader("X-API-Key")
		if apiKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Unauthorized",
				"message": "X-API-Key header is required",
			})
			c.Abort()
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(keyHash), []byte(apiKey)); err != nil {
			logger.WithField("client_ip", c.ClientIP()).Warn("Invalid API key")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Unauthorized",
				"message": "Invalid API key",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
