package httpapi

import (
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/orderledger/internal/domain"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

type itemRequest struct {
	ID        *uuid.UUID       `json:"id"`
	ProductID *uuid.UUID       `json:"productId"`
	Quantity  int              `json:"quantity" binding:"gt=0"`
	Price     *decimal.Decimal `json:"price"`
}

type createOrderRequest struct {
	Status string        `json:"status"`
	Items  []itemRequest `json:"items" binding:"required,min=1,dive"`
}

// updateOrderRequest: a missing items field keeps the items, an empty array removes them all
type updateOrderRequest struct {
	Status *string       `json:"status"`
	Items  []itemRequest `json:"items" binding:"omitempty,dive"`
}

type createProductRequest struct {
	Name     string           `json:"name" binding:"required"`
	Price    *decimal.Decimal `json:"price" binding:"required"`
	StockQty int              `json:"stockQty" binding:"gte=0"`
}

type updateProductRequest struct {
	Name     *string          `json:"name" binding:"omitempty,min=1"`
	Price    *decimal.Decimal `json:"price"`
	StockQty *int             `json:"stockQty" binding:"omitempty,gte=0"`
}

type productResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Price     string    `json:"price"`
	StockQty  int       `json:"stockQty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type orderItemResponse struct {
	ID        uuid.UUID        `json:"id"`
	ProductID uuid.UUID        `json:"productId"`
	Product   *productResponse `json:"product,omitempty"`
	Quantity  int              `json:"quantity"`
	Price     string           `json:"price"`
}

type moneyResponse struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type orderResponse struct {
	ID        uuid.UUID           `json:"id"`
	Status    domain.OrderStatus  `json:"status"`
	Items     []orderItemResponse `json:"items"`
	Total     moneyResponse       `json:"total"`
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

func toDesiredItems(items []itemRequest) []domain.DesiredItem {
	if items == nil {
		return nil
	}

	return lo.Map(items, func(item itemRequest, _ int) domain.DesiredItem {
		return domain.DesiredItem{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		}
	})
}

func toProductResponse(p domain.Product) productResponse {
	return productResponse{
		ID:        p.ID,
		Name:      p.Name,
		Price:     domain.FormatPrice(p.Price),
		StockQty:  p.StockQty,
		CreatedAt: p.CreatedAt.UTC(),
		UpdatedAt: p.UpdatedAt.UTC(),
	}
}

func toOrderResponse(o domain.Order, unit currency.Unit) orderResponse {
	total := o.Total(unit)

	return orderResponse{
		ID:     o.ID,
		Status: o.Status,
		Items: lo.Map(o.Items, func(item domain.OrderItem, _ int) orderItemResponse {
			resp := orderItemResponse{
				ID:        item.ID,
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Price:     domain.FormatPrice(item.Price),
			}
			if item.Product != nil {
				resp.Product = lo.ToPtr(toProductResponse(*item.Product))
			}
			return resp
		}),
		Total: moneyResponse{
			Amount:   domain.FormatPrice(total.Amount),
			Currency: total.Currency.String(),
		},
		CreatedAt: o.CreatedAt.UTC(),
		UpdatedAt: o.UpdatedAt.UTC(),
	}
}
