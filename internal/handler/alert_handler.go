package handler

import (
	"net/http"
	"strconv"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AlertHandler struct {
	forecast service.ForecastService
	variance service.VarianceService
}

func NewAlertHandler(forecast service.ForecastService, variance service.VarianceService) *AlertHandler {
	return &AlertHandler{forecast: forecast, variance: variance}
}

func (h *AlertHandler) RegisterRoutes(router *gin.RouterGroup) {
	alerts := router.Group("/api/alerts", middleware.RequireAuth())
	{
		alerts.GET("/check", h.CheckStockAlerts)
		alerts.POST("/analysis", h.RunAnalysis)
		alerts.GET("", h.GetActiveAlerts)
		alerts.PATCH("/:id/resolve", h.ResolveAlert)
		alerts.GET("/statistics", h.GetStatistics)
	}
}

type checkThresholdsQuery struct {
	Critical  float64 `form:"critical"`
	Low       float64 `form:"low"`
	Overstock float64 `form:"overstock"`
}

// CheckStockAlerts classifies store stock against day thresholds
// @Summary      Check stock alerts
// @Description  Returns every non-normal days-of-stock classification, most urgent first
// @Tags         alerts
// @Security     BearerAuth
// @Produce      json
// @Param        store_id   query     string   true   "Store ID"
// @Param        critical   query     number   false  "Critical threshold in days (default 2)"
// @Param        low        query     number   false  "Low threshold in days (default 7)"
// @Param        overstock  query     number   false  "Overstock threshold in days (default 30)"
// @Success      200        {object}  response.Response{data=[]model.EnrichedStockLevel}
// @Failure      400        {object}  response.Response
// @Failure      500        {object}  response.Response
// @Router       /api/alerts/check [get]
func (h *AlertHandler) CheckStockAlerts(c *gin.Context) {
	storeID, ok := parseStoreID(c)
	if !ok {
		return
	}

	thresholds := model.DefaultStockThresholds
	var q checkThresholdsQuery
	if err := c.ShouldBindQuery(&q); err == nil {
		if q.Critical != 0 {
			thresholds.Critical = q.Critical
		}
		if q.Low != 0 {
			thresholds.Low = q.Low
		}
		if q.Overstock != 0 {
			thresholds.Overstock = q.Overstock
		}
	}

	alerts, err := h.forecast.CheckStockAlerts(c.Request.Context(), storeID, thresholds)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, alerts))
}

// RunAnalysis executes one variance detection pass
// @Summary      Run variance analysis
// @Description  Runs the loss-rate, flow-variance and daily-spike checks for a store
// @Tags         alerts
// @Security     BearerAuth
// @Produce      json
// @Param        store_id  query     string  true  "Store ID"
// @Success      200       {object}  response.Response{data=[]model.VarianceAlert}
// @Failure      400       {object}  response.Response
// @Failure      404       {object}  response.Response
// @Failure      500       {object}  response.Response
// @Router       /api/alerts/analysis [post]
func (h *AlertHandler) RunAnalysis(c *gin.Context) {
	storeID, ok := parseStoreID(c)
	if !ok {
		return
	}

	created, err := h.variance.RunAnalysis(c.Request.Context(), storeID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, created))
}

// GetActiveAlerts lists unresolved alerts for a store
// @Summary      Get active alerts
// @Description  Retrieves unresolved variance alerts, newest first
// @Tags         alerts
// @Security     BearerAuth
// @Produce      json
// @Param        store_id  query     string  true  "Store ID"
// @Success      200       {object}  response.Response{data=[]model.VarianceAlert}
// @Failure      400       {object}  response.Response
// @Failure      500       {object}  response.Response
// @Router       /api/alerts [get]
func (h *AlertHandler) GetActiveAlerts(c *gin.Context) {
	storeID, ok := parseStoreID(c)
	if !ok {
		return
	}

	alerts, err := h.variance.ActiveAlerts(c.Request.Context(), storeID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, alerts))
}

type resolveAlertRequest struct {
	ResolvedBy string `json:"resolved_by"`
}

// ResolveAlert marks an alert resolved
// @Summary      Resolve alert
// @Description  Transitions an open alert to resolved; resolved is terminal
// @Tags         alerts
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string               true   "Alert ID"
// @Param        payload  body      resolveAlertRequest  false  "Resolver"
// @Success      200      {object}  response.Response{data=model.VarianceAlert}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/alerts/{id}/resolve [patch]
func (h *AlertHandler) ResolveAlert(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid alert id"))
		return
	}

	var req resolveAlertRequest
	_ = c.ShouldBindJSON(&req)
	if req.ResolvedBy == "" {
		req.ResolvedBy = c.GetString("userID")
	}

	alert, err := h.variance.ResolveAlert(c.Request.Context(), id, req.ResolvedBy)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, alert))
}

// GetStatistics summarizes alert activity over a trailing window
// @Summary      Get alert statistics
// @Description  Retrieves alert counts by type and severity over the last N days
// @Tags         alerts
// @Security     BearerAuth
// @Produce      json
// @Param        store_id  query     string  true   "Store ID"
// @Param        days      query     int     false  "Trailing window in days (default 30)"
// @Success      200       {object}  response.Response{data=model.AlertStatistics}
// @Failure      400       {object}  response.Response
// @Failure      500       {object}  response.Response
// @Router       /api/alerts/statistics [get]
func (h *AlertHandler) GetStatistics(c *gin.Context) {
	storeID, ok := parseStoreID(c)
	if !ok {
		return
	}

	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	stats, err := h.variance.AlertStatistics(c.Request.Context(), storeID, days)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}
