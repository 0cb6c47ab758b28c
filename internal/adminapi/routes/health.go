// filename: internal/adminapi/routes/health.go
package routes

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mailguard/mailguard/internal/common/logging"
	"github.com/mailguard/mailguard/internal/common/nats"
	"github.com/mailguard/mailguard/internal/common/pg"
)

// HealthHandler обработчик для проверки здоровья сервиса // v1.0
type HealthHandler struct {
	logger     *logging.Logger
	pgClient   *pg.Client
	natsClient *nats.Client
	startTime  time.Time
}

// NewHealthHandler создает новый обработчик здоровья // v1.0
func NewHealthHandler(logger *logging.Logger, pgClient *pg.Client, natsClient *nats.Client) *HealthHandler {
	return &HealthHandler{
		logger:     logger,
		pgClient:   pgClient,
		natsClient: natsClient,
		startTime:  time.Now(),
	}
}

// HealthCheck проверяет общее состояние сервиса // v1.0
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	uptime := time.Since(h.startTime)

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "mailguard-adminapi",
		"version":   "1.0.0",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    formatDuration(uptime),
	})
}

// ReadinessCheck проверяет готовность зависимостей // v1.0
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	components := gin.H{}
	ready := true

	if h.pgClient != nil {
		if err := h.pgClient.Ping(c.Request.Context()); err != nil {
			components["postgresql"] = gin.H{"status": "unhealthy", "error": err.Error()}
			ready = false
		} else {
			components["postgresql"] = gin.H{"status": "healthy"}
		}
	}

	if h.natsClient != nil {
		if h.natsClient.IsConnected() {
			components["nats"] = gin.H{"status": "healthy"}
		} else {
			components["nats"] = gin.H{"status": "unhealthy", "error": "not connected"}
			ready = false
		}
	}

	status := http.StatusOK
	overall := "ready"
	if !ready {
		status = http.StatusServiceUnavailable
		overall = "not_ready"
	}

	c.JSON(status, gin.H{
		"status":     overall,
		"components": components,
		"timestamp":  time.Now().Format(time.RFC3339),
	})
}

// LivenessCheck проверяет, что процесс жив // v1.0
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	c.JSON(http.StatusOK, gin.H{
		"status":      "alive",
		"go_routines": runtime.NumGoroutine(),
		"memory": gin.H{
			"alloc":  formatBytes(m.Alloc),
			"sys":    formatBytes(m.Sys),
			"num_gc": m.NumGC,
		},
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// formatDuration форматирует длительность в человекочитаемый вид // v1.0
func formatDuration(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}

// formatBytes форматирует байты в человекочитаемый вид // v1.0
func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
