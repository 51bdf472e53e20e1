package handler

import (
	"net/http"
	"time"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type StockHandler struct {
	ledger   service.LedgerService
	stock    *service.StockService
	forecast service.ForecastService
	variance service.VarianceService
}

func NewStockHandler(ledger service.LedgerService, stock *service.StockService, forecast service.ForecastService, variance service.VarianceService) *StockHandler {
	return &StockHandler{ledger: ledger, stock: stock, forecast: forecast, variance: variance}
}

func (h *StockHandler) RegisterRoutes(router *gin.RouterGroup) {
	stock := router.Group("/api/stock", middleware.RequireAuth())
	{
		stock.POST("/arrivals", h.RecordArrival)
		stock.POST("/losses", h.RecordLoss)
		stock.POST("/adjustments", h.RecordAdjustment)
		stock.POST("/receptions/validate", h.ValidateReception)
		stock.GET("/movements", h.GetMovements)
		stock.GET("/levels", h.GetLevels)
		stock.GET("/levels/enriched", h.GetEnrichedLevels)
		stock.GET("/loss-rates", h.GetLossRates)
	}
}

// RecordArrival appends an arrival movement
// @Summary      Record arrival
// @Description  Appends an arrival movement and updates stock level and average cost
// @Tags         stock
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.ArrivalRequest  true  "Arrival Payload"
// @Success      201      {object}  response.Response{data=model.StockMovement}
// @Failure      400      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Router       /api/stock/arrivals [post]
func (h *StockHandler) RecordArrival(c *gin.Context) {
	var req service.ArrivalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	if req.RecordedBy == "" {
		req.RecordedBy = c.GetString("userID")
	}

	movement, err := h.ledger.RecordArrival(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, movement))
}

// RecordLoss appends a loss movement
// @Summary      Record loss
// @Description  Appends a categorized loss movement (spoilage, damage or promotion)
// @Tags         stock
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.LossRequest  true  "Loss Payload"
// @Success      201      {object}  response.Response{data=model.StockMovement}
// @Failure      400      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Router       /api/stock/losses [post]
func (h *StockHandler) RecordLoss(c *gin.Context) {
	var req service.LossRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	if req.RecordedBy == "" {
		req.RecordedBy = c.GetString("userID")
	}

	movement, err := h.ledger.RecordLoss(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, movement))
}

// RecordAdjustment appends a manual correction movement
// @Summary      Record adjustment
// @Description  Appends a signed adjustment movement; the ledger itself is never edited
// @Tags         stock
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.AdjustmentRequest  true  "Adjustment Payload"
// @Success      201      {object}  response.Response{data=model.StockMovement}
// @Failure      400      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Router       /api/stock/adjustments [post]
func (h *StockHandler) RecordAdjustment(c *gin.Context) {
	var req service.AdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	if req.RecordedBy == "" {
		req.RecordedBy = c.GetString("userID")
	}

	movement, err := h.ledger.RecordAdjustment(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, movement))
}

// ValidateReception turns a validated delivery note into arrival movements
// @Summary      Validate reception
// @Description  Appends one arrival movement per delivery line, priced from the cost map
// @Tags         stock
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.ReceptionRequest  true  "Reception Payload"
// @Success      201      {object}  response.Response{data=[]model.StockMovement}
// @Failure      400      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Router       /api/stock/receptions/validate [post]
func (h *StockHandler) ValidateReception(c *gin.Context) {
	var req service.ReceptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	if req.RecordedBy == "" {
		req.RecordedBy = c.GetString("userID")
	}

	movements, err := h.ledger.ValidateReception(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, movements))
}

// GetMovements lists ledger entries for a store, most recent first
// @Summary      Get movements
// @Description  Retrieves a paginated movement history, optionally bounded by [start, end)
// @Tags         stock
// @Security     BearerAuth
// @Produce      json
// @Param        store_id  query     string  true   "Store ID"
// @Param        start     query     string  false  "Start of range (RFC 3339)"
// @Param        end       query     string  false  "End of range (RFC 3339), exclusive"
// @Param        page      query     int     false  "Page number (default 1)"
// @Param        limit     query     int     false  "Items per page (default 20)"
// @Success      200       {object}  response.Response{data=object}
// @Failure      400       {object}  response.Response
// @Failure      500       {object}  response.Response
// @Router       /api/stock/movements [get]
func (h *StockHandler) GetMovements(c *gin.Context) {
	storeID, ok := parseStoreID(c)
	if !ok {
		return
	}

	var start, end *time.Time
	if raw := c.Query("start"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid start date, expected RFC 3339"))
			return
		}
		start = &t
	}
	if raw := c.Query("end"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid end date, expected RFC 3339"))
			return
		}
		end = &t
	}

	params := pagination.Parse(c)
	movements, total, err := h.ledger.Movements(c.Request.Context(), storeID, start, end, params.Page, params.Limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"movements": movements,
		"total":     total,
		"page":      params.Page,
		"limit":     params.Limit,
	}))
}

// GetLevels returns the current stock snapshot of a store
// @Summary      Get stock levels
// @Description  Retrieves the current quantity/reserved/available projection per product
// @Tags         stock
// @Security     BearerAuth
// @Produce      json
// @Param        store_id  query     string  true  "Store ID"
// @Success      200       {object}  response.Response{data=[]model.StockLevel}
// @Failure      400       {object}  response.Response
// @Failure      500       {object}  response.Response
// @Router       /api/stock/levels [get]
func (h *StockHandler) GetLevels(c *gin.Context) {
	storeID, ok := parseStoreID(c)
	if !ok {
		return
	}

	levels, err := h.stock.CurrentStock(c.Request.Context(), storeID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, levels))
}

// GetEnrichedLevels returns levels with flow rate and days-of-stock
// @Summary      Get enriched stock levels
// @Description  Retrieves stock levels with consumption forecast and alert classification
// @Tags         stock
// @Security     BearerAuth
// @Produce      json
// @Param        store_id  query     string  true  "Store ID"
// @Success      200       {object}  response.Response{data=[]model.EnrichedStockLevel}
// @Failure      400       {object}  response.Response
// @Failure      500       {object}  response.Response
// @Router       /api/stock/levels/enriched [get]
func (h *StockHandler) GetEnrichedLevels(c *gin.Context) {
	storeID, ok := parseStoreID(c)
	if !ok {
		return
	}

	enriched, err := h.forecast.EnrichedStockLevels(c.Request.Context(), storeID, model.DefaultStockThresholds)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, enriched))
}

// GetLossRates aggregates losses against arrivals over a period
// @Summary      Get loss rates
// @Description  Retrieves the loss rate report for a store over a week or month period
// @Tags         stock
// @Security     BearerAuth
// @Produce      json
// @Param        store_id  query     string  true   "Store ID"
// @Param        period    query     string  false  "Period: week or month (default month)"
// @Success      200       {object}  response.Response{data=model.LossRateReport}
// @Failure      400       {object}  response.Response
// @Failure      500       {object}  response.Response
// @Router       /api/stock/loss-rates [get]
func (h *StockHandler) GetLossRates(c *gin.Context) {
	storeID, ok := parseStoreID(c)
	if !ok {
		return
	}

	report, err := h.variance.LossRates(c.Request.Context(), storeID, c.DefaultQuery("period", "month"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

func parseStoreID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.Query("store_id")
	if raw == "" {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "store_id is required"))
		return uuid.Nil, false
	}
	storeID, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid store_id"))
		return uuid.Nil, false
	}
	return storeID, true
}
