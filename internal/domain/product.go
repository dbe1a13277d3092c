package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	// MaxQuantity bounds stock and item quantities, both are stored as int4
	MaxQuantity = math.MaxInt32
	// PriceScale is the number of fractional digits of numeric(12,2)
	PriceScale = 2
)

// maxPrice is the first value numeric(12,2) can not hold
var maxPrice = decimal.New(1, 12-PriceScale)

// ValidatePrice accepts prices that fit numeric(12,2) without rounding.
func ValidatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return fmt.Errorf("price[%s] is negative: %w", price, ErrValidation)
	}

	if !price.Equal(price.Truncate(PriceScale)) {
		return fmt.Errorf("price[%s] has more than %d decimal places: %w", price, PriceScale, ErrValidation)
	}

	if price.GreaterThanOrEqual(maxPrice) {
		return fmt.Errorf("price[%s] is not below %s: %w", price, maxPrice, ErrValidation)
	}

	return nil
}

// ValidateStock accepts stock levels in [0, MaxQuantity].
func ValidateStock(stockQty int) error {
	if stockQty < 0 {
		return fmt.Errorf("stockQty[%d] is negative: %w", stockQty, ErrValidation)
	}

	if stockQty > MaxQuantity {
		return fmt.Errorf("stockQty[%d] exceeds %d: %w", stockQty, MaxQuantity, ErrValidation)
	}

	return nil
}

type Product struct {
	ID       uuid.UUID
	Name     string
	Price    decimal.Decimal
	StockQty int

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p Product) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("name is empty: %w", ErrValidation)
	}

	if err := ValidatePrice(p.Price); err != nil {
		return err
	}

	return ValidateStock(p.StockQty)
}

// ProductPatch holds the optional fields of a catalog update, nil means unchanged.
type ProductPatch struct {
	Name     *string
	Price    *decimal.Decimal
	StockQty *int
}

func (p ProductPatch) Apply(product Product) Product {
	if p.Name != nil {
		product.Name = *p.Name
	}
	if p.Price != nil {
		product.Price = *p.Price
	}
	if p.StockQty != nil {
		product.StockQty = *p.StockQty
	}
	return product
}
