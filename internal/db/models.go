package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Order struct {
	ID        uuid.UUID
	Status    string
	Deleted   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type OrderItem struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Quantity  int32
	Price     decimal.Decimal
}

type Product struct {
	ID        uuid.UUID
	Name      string
	Price     decimal.Decimal
	StockQty  int32
	CreatedAt time.Time
	UpdatedAt time.Time
}
