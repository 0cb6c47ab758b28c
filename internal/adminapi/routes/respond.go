// filename: internal/adminapi/routes/respond.go
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mailguard/mailguard/internal/common/errors"
	"github.com/mailguard/mailguard/internal/common/logging"
)

// respondError отдает ошибку клиенту, сохраняя код и статус GuardError // v1.0
func respondError(c *gin.Context, logger *logging.Logger, err error) {
	if guardErr, ok := err.(*errors.GuardError); ok {
		if guardErr.StatusCode >= 500 {
			logger.WithError(err).Error("Request failed")
		}
		c.JSON(guardErr.StatusCode, gin.H{
			"error":   string(guardErr.Code),
			"message": guardErr.Message,
			"details": guardErr.Details,
		})
		return
	}

	logger.WithError(err).Error("Request failed")
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   string(errors.ErrorCodeInternal),
		"message": "Internal server error",
	})
}
