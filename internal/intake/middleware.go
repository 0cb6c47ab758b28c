// filename: internal/intake/middleware.go
package intake

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// rateLimitInfo информация о rate limit для клиента // v1.0
type rateLimitInfo struct {
	count      int
	lastReset  time.Time
	blocked    bool
	blockUntil time.Time
}

// rateLimitMiddleware добавляет rate limiting по IP клиента // v1.0
func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	clients := make(map[string]*rateLimitInfo)
	var mu sync.Mutex

	limit := s.config.Server.RateLimit.RequestsPerMinute
	blockDuration := s.config.Server.RateLimit.BlockDuration

	return func(c *gin.Context) {
		key := c.ClientIP()

		mu.Lock()
		info, exists := clients[key]
		if !exists {
			info = &rateLimitInfo{lastReset: time.Now()}
			clients[key] = info
		}

		if info.blocked && time.Now().Before(info.blockUntil) {
			retryAfter := time.Until(info.blockUntil).Seconds()
			mu.Unlock()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"retry_after": retryAfter,
			})
			c.Abort()
			return
		}

		if time.Since(info.lastReset) >= time.Minute {
			info.count = 0
			info.lastReset = time.Now()
			info.blocked = false
		}

		if info.count >= limit {
			info.blocked = true
			info.blockUntil = time.Now().Add(blockDuration)
			mu.Unlock()

			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"retry_after": blockDuration.Seconds(),
			})
			c.Abort()
			return
		}

		info.count++
		remaining := limit - info.count
		reset := info.lastReset.Add(time.Minute).Unix()
		mu.Unlock()

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", reset))

		c.Next()
	}
}

// bodySizeMiddleware ограничивает размер тела запроса // v1.0
func (s *Server) bodySizeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.config.Server.BodySizeLimit > 0 && c.Request.ContentLength > s.config.Server.BodySizeLimit {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error":       "Request body too large",
				"max_size":    s.config.Server.BodySizeLimit,
				"actual_size": c.Request.ContentLength,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// requestIDMiddleware добавляет request ID // v1.0
func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Header("X-Request-ID", requestID)
		c.Set("request_id", requestID)
		c.Next()
	}
}

// loggingMiddleware добавляет логирование запросов // v1.0
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		requestID := param.Keys["request_id"]

		s.logger.WithFields(map[string]interface{}{
			"method":     param.Method,
			"path":       param.Path,
			"status":     param.StatusCode,
			"latency":    param.Latency,
			"client_ip":  param.ClientIP,
			"user_agent": param.Request.UserAgent(),
			"request_id": requestID,
		}).Info("HTTP request")

		return ""
	})
}

// recoveryMiddleware восстанавливает после паники // v1.0
func (s *Server) recoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		requestID := c.GetString("request_id")

		s.logger.WithFields(map[string]interface{}{
			"error":      recovered,
			"request_id": requestID,
			"path":       c.Request.URL.Path,
			"method":     c.Request.Method,
		}).Error("Panic recovered")

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":      "Internal server error",
			"request_id": requestID,
		})
	})
}
