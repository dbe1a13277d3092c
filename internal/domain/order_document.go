package domain

import (
	"time"

	"github.com/google/uuid"
)

// LeanItem is the item projection shared by outbound events and search documents.
type LeanItem struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
	Price     string    `json:"price"`
}

// OrderEvent is the payload published on order topics.
type OrderEvent struct {
	ID     uuid.UUID   `json:"id"`
	Status OrderStatus `json:"status"`
	Items  []LeanItem  `json:"items"`
}

// OrderDocument is the denormalized order stored in the search index.
type OrderDocument struct {
	ID        uuid.UUID   `json:"id"`
	Status    OrderStatus `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
	Items     []LeanItem  `json:"items"`
}

func LeanItems(items []OrderItem) []LeanItem {
	result := make([]LeanItem, 0, len(items))
	for _, item := range items {
		result = append(result, LeanItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     FormatPrice(item.Price),
		})
	}
	return result
}

func NewOrderEvent(o Order) OrderEvent {
	return OrderEvent{
		ID:     o.ID,
		Status: o.Status,
		Items:  LeanItems(o.Items),
	}
}

func NewOrderDocument(o Order) OrderDocument {
	return OrderDocument{
		ID:        o.ID,
		Status:    o.Status,
		CreatedAt: o.CreatedAt.UTC(),
		Items:     LeanItems(o.Items),
	}
}
