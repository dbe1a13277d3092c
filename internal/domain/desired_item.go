package domain

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DesiredItem is one entry of the complete item list an order should end up with.
// An entry with ID updates that item in place, an entry without ID creates a new item
// of ProductID. Existing items missing from the list are removed.
type DesiredItem struct {
	ID        *uuid.UUID
	ProductID *uuid.UUID
	Quantity  int
	// Price is the unit price to record, nil keeps the current snapshot or takes the product price
	Price *decimal.Decimal
}

func (d DesiredItem) IsNew() bool {
	return d.ID == nil
}

func (d DesiredItem) Validate() error {
	if d.ID == nil && d.ProductID == nil {
		return fmt.Errorf("neither id nor productId set: %w", ErrValidation)
	}

	if d.Quantity <= 0 {
		return fmt.Errorf("quantity[%d] must be positive: %w", d.Quantity, ErrValidation)
	}

	if d.Quantity > MaxQuantity {
		return fmt.Errorf("quantity[%d] exceeds %d: %w", d.Quantity, MaxQuantity, ErrValidation)
	}

	if d.Price != nil {
		if err := ValidatePrice(*d.Price); err != nil {
			return err
		}
	}

	return nil
}

func ValidateDesiredItems(items []DesiredItem) error {
	seen := make(map[uuid.UUID]struct{}, len(items))

	for idx, item := range items {
		if err := item.Validate(); err != nil {
			return fmt.Errorf("items[%d]: %w", idx, err)
		}

		if item.ID == nil {
			continue
		}

		if _, ok := seen[*item.ID]; ok {
			return fmt.Errorf("items[%d]: duplicate id[%s]: %w", idx, *item.ID, ErrValidation)
		}
		seen[*item.ID] = struct{}{}
	}

	return nil
}

type CreateOrder struct {
	// Status defaults to PENDING when empty
	Status OrderStatus
	Items  []DesiredItem
}

func (c CreateOrder) Validate() error {
	if c.Status != "" {
		if _, err := ToOrderStatus(string(c.Status)); err != nil {
			return fmt.Errorf("status: %w", err)
		}
	}

	if len(c.Items) == 0 {
		return fmt.Errorf("no items in order: %w", ErrValidation)
	}

	for idx, item := range c.Items {
		if item.ID != nil {
			return fmt.Errorf("items[%d]: id must be empty on create: %w", idx, ErrValidation)
		}
	}

	return ValidateDesiredItems(c.Items)
}

type UpdateOrder struct {
	Status *OrderStatus
	// Items nil leaves items untouched, an empty non-nil slice removes all of them
	Items []DesiredItem
}

func (u UpdateOrder) IsNoop() bool {
	return u.Status == nil && u.Items == nil
}

func (u UpdateOrder) Validate() error {
	if u.Status != nil {
		if _, err := ToOrderStatus(string(*u.Status)); err != nil {
			return fmt.Errorf("status: %w", err)
		}
	}

	if u.Items != nil {
		if err := ValidateDesiredItems(u.Items); err != nil {
			return err
		}
	}

	return nil
}
