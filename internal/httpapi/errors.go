package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nikolayk812/orderledger/internal/domain"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeError maps the domain error taxonomy onto status codes.
func (h *handler) writeError(c *gin.Context, err error) {
	_ = c.Error(err)

	var (
		notFound     *domain.NotFoundError
		insufficient *domain.InsufficientStockError
	)

	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: "NOT_FOUND", Message: notFound.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: "NOT_FOUND", Message: err.Error()})
	case errors.As(err, &insufficient):
		c.JSON(http.StatusConflict, errorResponse{Error: "INSUFFICIENT_STOCK", Message: insufficient.Error()})
	case errors.Is(err, domain.ErrInsufficientStock):
		c.JSON(http.StatusConflict, errorResponse{Error: "INSUFFICIENT_STOCK", Message: err.Error()})
	case errors.Is(err, domain.ErrProductInUse):
		c.JSON(http.StatusConflict, errorResponse{Error: "PRODUCT_IN_USE", Message: err.Error()})
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, errorResponse{Error: "INVALID_INPUT", Message: err.Error()})
	default:
		h.logger.Error("request failed", zap.Error(err), zap.String(requestIDKey, c.GetString(requestIDKey)))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "INTERNAL", Message: "internal error"})
	}
}

func (h *handler) badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusBadRequest, errorResponse{Error: "INVALID_INPUT", Message: err.Error()})
}
