package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

type Order struct {
	ID      uuid.UUID
	Status  OrderStatus
	Items   []OrderItem
	Deleted bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

type OrderItem struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	ProductID uuid.UUID
	// Product is resolved on reads, nil on writes
	Product  *Product
	Quantity int
	// Price is the unit price snapshot taken when the item was written
	Price decimal.Decimal
}

// Total sums price * quantity over all items.
func (o Order) Total(unit currency.Unit) Money {
	amount := decimal.Zero
	for _, item := range o.Items {
		amount = amount.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	return Money{Amount: amount, Currency: unit}
}

// ItemByID returns the item of the order with the given id.
func (o Order) ItemByID(id uuid.UUID) (OrderItem, bool) {
	for _, item := range o.Items {
		if item.ID == id {
			return item, true
		}
	}
	return OrderItem{}, false
}
