package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nikolayk812/orderledger/internal/domain"
	"github.com/samber/lo"
)

func (h *handler) createOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	order, err := h.orders.Create(c.Request.Context(), domain.CreateOrder{
		Status: domain.OrderStatus(req.Status),
		Items:  toDesiredItems(req.Items),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toOrderResponse(order, h.currency))
}

func (h *handler) listOrders(c *gin.Context) {
	orders, err := h.orders.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, lo.Map(orders, func(o domain.Order, _ int) orderResponse {
		return toOrderResponse(o, h.currency)
	}))
}

func (h *handler) getOrder(c *gin.Context) {
	orderID, ok := h.pathID(c)
	if !ok {
		return
	}

	order, err := h.orders.FindOne(c.Request.Context(), orderID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(order, h.currency))
}

func (h *handler) updateOrder(c *gin.Context) {
	orderID, ok := h.pathID(c)
	if !ok {
		return
	}

	var req updateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	in := domain.UpdateOrder{Items: toDesiredItems(req.Items)}
	if req.Status != nil {
		in.Status = lo.ToPtr(domain.OrderStatus(*req.Status))
	}

	order, err := h.orders.Update(c.Request.Context(), orderID, in)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(order, h.currency))
}

func (h *handler) deleteOrder(c *gin.Context) {
	orderID, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.orders.Delete(c.Request.Context(), orderID); err != nil {
		h.writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// searchOrders reads id, status, fromDate, toDate (RFC 3339) and item from the query string.
func (h *handler) searchOrders(c *gin.Context) {
	filter, err := parseOrderFilter(c)
	if err != nil {
		h.badRequest(c, err)
		return
	}

	docs, err := h.orders.Search(c.Request.Context(), filter)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if docs == nil {
		docs = []domain.OrderDocument{}
	}

	c.JSON(http.StatusOK, docs)
}

func parseOrderFilter(c *gin.Context) (domain.OrderFilter, error) {
	var filter domain.OrderFilter

	if raw := c.Query("id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, fmt.Errorf("id: %w", err)
		}
		filter.ID = &id
	}

	if raw := c.Query("status"); raw != "" {
		status, err := domain.ToOrderStatus(raw)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}

	if raw := c.Query("item"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, fmt.Errorf("item: %w", err)
		}
		filter.ProductID = &id
	}

	var createdAt domain.TimeRange
	for key, target := range map[string]**time.Time{"fromDate": &createdAt.After, "toDate": &createdAt.Before} {
		raw := c.Query(key)
		if raw == "" {
			continue
		}

		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, fmt.Errorf("%s: %w", key, err)
		}
		*target = &ts
	}
	if createdAt.After != nil || createdAt.Before != nil {
		filter.CreatedAt = &createdAt
	}

	return filter, nil
}

func (h *handler) pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.badRequest(c, fmt.Errorf("id: %w", err))
		return uuid.Nil, false
	}
	return id, true
}
