// filename: internal/adminapi/routes/rules.go
package routes

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mailguard/mailguard/internal/common/errors"
	"github.com/mailguard/mailguard/internal/common/logging"
	"github.com/mailguard/mailguard/internal/guard"
	"github.com/mailguard/mailguard/internal/models"
	"github.com/mailguard/mailguard/internal/rulestore"
)

// RulesHandler обработчик для работы с правилами фильтрации // v1.0
type RulesHandler struct {
	logger    *logging.Logger
	store     rulestore.Store
	endpoints guard.EndpointLookup
	evaluator *guard.Evaluator
	generator *guard.Generator
}

// NewRulesHandler создает новый обработчик правил // v1.0
func NewRulesHandler(logger *logging.Logger, store rulestore.Store, endpoints guard.EndpointLookup,
	evaluator *guard.Evaluator, generator *guard.Generator) *RulesHandler {
	return &RulesHandler{
		logger:    logger,
		store:     store,
		endpoints: endpoints,
		evaluator: evaluator,
		generator: generator,
	}
}

// validateRouteTarget проверяет, что route действие ссылается на существующий
// активный эндпоинт. Эндпоинт может быть удален после записи правила, поэтому
// на пути оценки resolver проверяет его повторно // v1.0
func (h *RulesHandler) validateRouteTarget(c *gin.Context, action models.Action) error {
	if action.Type != models.ActionRoute {
		return nil
	}

	endpoint, err := h.endpoints.GetEndpoint(c.Request.Context(), action.EndpointID)
	if err != nil {
		if errors.IsNotFound(err) {
			return errors.ConfigValidationError("route endpoint " + action.EndpointID + " does not exist")
		}
		return err
	}
	if !endpoint.IsActive {
		return errors.ConfigValidationError("route endpoint " + action.EndpointID + " is not active")
	}
	return nil
}

// createRuleRequest тело запроса на создание правила // v1.0
type createRuleRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Type        models.RuleType `json:"type" binding:"required"`
	Config      json.RawMessage `json:"config" binding:"required"`
	Action      json.RawMessage `json:"action" binding:"required"`
	Priority    int             `json:"priority"`
	IsActive    *bool           `json:"isActive"`
}

// updateRuleRequest тело запроса на частичное обновление правила // v1.0
type updateRuleRequest struct {
	Name        *string         `json:"name"`
	Description *string         `json:"description"`
	Config      json.RawMessage `json:"config"`
	Action      json.RawMessage `json:"action"`
	Priority    *int            `json:"priority"`
	IsActive    *bool           `json:"isActive"`
}

// generateRuleRequest тело запроса на генерацию конфигурации // v1.0
type generateRuleRequest struct {
	Description string `json:"description" binding:"required"`
}

// GetRules возвращает список правил // v1.0
func (h *RulesHandler) GetRules(c *gin.Context) {
	filter := rulestore.ListFilter{Limit: 100}

	if activeStr := c.Query("active"); activeStr != "" {
		if active, err := strconv.ParseBool(activeStr); err == nil {
			filter.IsActive = &active
		}
	}

	if typeStr := c.Query("type"); typeStr != "" {
		ruleType := models.RuleType(typeStr)
		filter.Type = &ruleType
	}

	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 1000 {
			filter.Limit = l
		}
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			filter.Offset = o
		}
	}

	rules, err := h.store.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rules":  rules,
		"total":  len(rules),
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

// GetRuleByID возвращает правило по ID // v1.0
func (h *RulesHandler) GetRuleByID(c *gin.Context) {
	rule, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, rule)
}

// CreateRule создает новое правило // v1.0
func (h *RulesHandler) CreateRule(c *gin.Context) {
	var req createRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
		return
	}

	config, err := models.ParseRuleConfig(req.Type, req.Config)
	if err != nil {
		respondError(c, h.logger, errors.ConfigValidationError(err.Error()))
		return
	}

	action, err := models.ParseAction(req.Action)
	if err != nil {
		respondError(c, h.logger, errors.ConfigValidationError(err.Error()))
		return
	}

	if err := h.validateRouteTarget(c, action); err != nil {
		respondError(c, h.logger, err)
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	rule := &models.Rule{
		Name:        req.Name,
		Description: req.Description,
		Type:        req.Type,
		Config:      config,
		Action:      action,
		Priority:    req.Priority,
		IsActive:    isActive,
	}

	if err := h.store.Create(c.Request.Context(), rule); err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.WithRule(rule.ID, rule.Name).Info("Rule created")
	c.JSON(http.StatusCreated, rule)
}

// UpdateRule частично обновляет правило // v1.0
func (h *RulesHandler) UpdateRule(c *gin.Context) {
	var req updateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
		return
	}

	id := c.Param("id")
	update := rulestore.RuleUpdate{
		Name:        req.Name,
		Description: req.Description,
		Priority:    req.Priority,
		IsActive:    req.IsActive,
	}

	if len(req.Config) > 0 {
		// Тип правила неизменяем, конфигурация парсится под текущий тип
		current, err := h.store.Get(c.Request.Context(), id)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}

		config, err := models.ParseRuleConfig(current.Type, req.Config)
		if err != nil {
			respondError(c, h.logger, errors.ConfigValidationError(err.Error()))
			return
		}
		update.Config = config
	}

	if len(req.Action) > 0 {
		action, err := models.ParseAction(req.Action)
		if err != nil {
			respondError(c, h.logger, errors.ConfigValidationError(err.Error()))
			return
		}
		if err := h.validateRouteTarget(c, action); err != nil {
			respondError(c, h.logger, err)
			return
		}
		update.Action = &action
	}

	rule, err := h.store.Update(c.Request.Context(), id, update)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.WithRule(rule.ID, rule.Name).Info("Rule updated")
	c.JSON(http.StatusOK, rule)
}

// DeleteRule удаляет правило // v1.0
func (h *RulesHandler) DeleteRule(c *gin.Context) {
	id := c.Param("id")
	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.WithField("rule_id", id).Info("Rule deleted")
	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"message": "Rule deleted",
	})
}

// EnableRule включает правило // v1.0
func (h *RulesHandler) EnableRule(c *gin.Context) {
	h.setActive(c, true)
}

// DisableRule выключает правило // v1.0
func (h *RulesHandler) DisableRule(c *gin.Context) {
	h.setActive(c, false)
}

// setActive переключает активность правила // v1.0
func (h *RulesHandler) setActive(c *gin.Context, active bool) {
	rule, err := h.store.Update(c.Request.Context(), c.Param("id"), rulestore.RuleUpdate{
		IsActive: &active,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.WithRule(rule.ID, rule.Name).WithField("is_active", active).Info("Rule active state changed")
	c.JSON(http.StatusOK, rule)
}

// GetRuleStats возвращает статистику срабатываний правила // v1.0
func (h *RulesHandler) GetRuleStats(c *gin.Context) {
	rule, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	stats := gin.H{
		"rule_id":       rule.ID,
		"name":          rule.Name,
		"trigger_count": rule.TriggerCount,
		"is_active":     rule.IsActive,
		"priority":      rule.Priority,
	}
	if rule.LastTriggeredAt != nil {
		stats["last_triggered_at"] = rule.LastTriggeredAt.Format(time.RFC3339)
	}

	c.JSON(http.StatusOK, stats)
}

// CheckRule проверяет правило против письма без побочных эффектов.
// Счетчик срабатываний здесь не меняется: проверка идет напрямую через
// Evaluator, минуя реальный путь оценки // v1.0
func (h *RulesHandler) CheckRule(c *gin.Context) {
	rule, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Failed to read request body",
		})
		return
	}

	email, err := models.NewEmailFromJSON(string(body))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid email",
			"message": err.Error(),
		})
		return
	}

	result := h.evaluator.CheckRule(c.Request.Context(), rule, email)
	c.JSON(http.StatusOK, result)
}

// GenerateRule генерирует explicit конфигурацию из описания на естественном
// языке. Правило не сохраняется: клиент показывает результат и создает
// правило отдельным запросом // v1.0
func (h *RulesHandler) GenerateRule(c *gin.Context) {
	var req generateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
		return
	}

	config, err := h.generator.Generate(c.Request.Context(), req.Description)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"type":   models.RuleTypeExplicit,
		"config": config,
	})
}
