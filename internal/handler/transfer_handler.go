package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type TransferHandler struct {
	transfers service.TransferService
}

func NewTransferHandler(transfers service.TransferService) *TransferHandler {
	return &TransferHandler{transfers: transfers}
}

func (h *TransferHandler) RegisterRoutes(router *gin.RouterGroup) {
	transfers := router.Group("/api/transfers", middleware.RequireAuth())
	{
		transfers.POST("", h.CreateTransfer)
		transfers.POST("/receive", h.ReceiveTransfer)
	}
}

// CreateTransfer ships stock from a source store to a destination
// @Summary      Create transfer
// @Description  Decrements the source store and reserves the in-transit quantity at the destination
// @Tags         transfers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.TransferRequest  true  "Transfer Payload"
// @Success      201      {object}  response.Response{data=[]model.StockMovement}
// @Failure      400      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Router       /api/transfers [post]
func (h *TransferHandler) CreateTransfer(c *gin.Context) {
	var req service.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	if req.RecordedBy == "" {
		req.RecordedBy = c.GetString("userID")
	}

	movements, err := h.transfers.Create(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, movements))
}

// ReceiveTransfer confirms receipt at the destination store
// @Summary      Receive transfer
// @Description  Releases the reservation and increments destination stock; a shipped/received gap becomes an explicit damage loss or adjustment
// @Tags         transfers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.TransferReceiptRequest  true  "Receipt Payload"
// @Success      201      {object}  response.Response{data=[]model.StockMovement}
// @Failure      400      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Router       /api/transfers/receive [post]
func (h *TransferHandler) ReceiveTransfer(c *gin.Context) {
	var req service.TransferReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	if req.RecordedBy == "" {
		req.RecordedBy = c.GetString("userID")
	}

	movements, err := h.transfers.Receive(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, movements))
}
