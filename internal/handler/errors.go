package handler

import (
	"errors"
	"net/http"

	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// writeServiceError maps service errors to HTTP statuses.
func writeServiceError(c *gin.Context, err error) {
	var validationErr *service.ValidationError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, validationErr.Error()))
	case errors.Is(err, service.ErrInvalidThreshold):
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
	case errors.Is(err, service.ErrStoreNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrAlertNotFound):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
	case errors.Is(err, service.ErrAlertResolved):
		c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
	}
}
