// filename: internal/adminapi/routes/endpoints.go
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mailguard/mailguard/internal/common/logging"
	"github.com/mailguard/mailguard/internal/endpoints"
	"github.com/mailguard/mailguard/internal/models"
)

// EndpointsHandler обработчик для работы с эндпоинтами маршрутизации // v1.0
type EndpointsHandler struct {
	logger *logging.Logger
	store  endpoints.Store
}

// NewEndpointsHandler создает новый обработчик эндпоинтов // v1.0
func NewEndpointsHandler(logger *logging.Logger, store endpoints.Store) *EndpointsHandler {
	return &EndpointsHandler{
		logger: logger,
		store:  store,
	}
}

// endpointRequest тело запроса на создание или обновление эндпоинта // v1.0
type endpointRequest struct {
	Name     string              `json:"name" binding:"required"`
	Type     models.EndpointType `json:"type" binding:"required"`
	Target   string              `json:"target" binding:"required"`
	IsActive *bool               `json:"isActive"`
}

// GetEndpoints возвращает список эндпоинтов // v1.0
func (h *EndpointsHandler) GetEndpoints(c *gin.Context) {
	list, err := h.store.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"endpoints": list,
		"total":     len(list),
	})
}

// GetEndpointByID возвращает эндпоинт по ID // v1.0
func (h *EndpointsHandler) GetEndpointByID(c *gin.Context) {
	endpoint, err := h.store.GetEndpoint(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, endpoint)
}

// CreateEndpoint создает эндпоинт // v1.0
func (h *EndpointsHandler) CreateEndpoint(c *gin.Context) {
	var req endpointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	endpoint := &models.Endpoint{
		Name:     req.Name,
		Type:     req.Type,
		Target:   req.Target,
		IsActive: isActive,
	}

	if err := h.store.Create(c.Request.Context(), endpoint); err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.WithEndpoint(endpoint.ID, string(endpoint.Type)).Info("Endpoint created")
	c.JSON(http.StatusCreated, endpoint)
}

// UpdateEndpoint обновляет эндпоинт // v1.0
func (h *EndpointsHandler) UpdateEndpoint(c *gin.Context) {
	var req endpointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
		return
	}

	current, err := h.store.GetEndpoint(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	current.Name = req.Name
	current.Type = req.Type
	current.Target = req.Target
	if req.IsActive != nil {
		current.IsActive = *req.IsActive
	}

	if err := h.store.Update(c.Request.Context(), current); err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.WithEndpoint(current.ID, string(current.Type)).Info("Endpoint updated")
	c.JSON(http.StatusOK, current)
}

// DeleteEndpoint удаляет эндпоинт.
// Правила, ссылающиеся на удаленный эндпоинт, остаются: их route действия
// перестанут резолвиться и дадут ошибку резолюции при совпадении // v1.0
func (h *EndpointsHandler) DeleteEndpoint(c *gin.Context) {
	id := c.Param("id")
	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.WithField("endpoint_id", id).Info("Endpoint deleted")
	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"message": "Endpoint deleted",
	})
}
