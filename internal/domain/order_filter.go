package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OrderFilter has AND semantics across fields, a zero filter matches every indexed order
type OrderFilter struct {
	ID        *uuid.UUID
	Status    *OrderStatus
	CreatedAt *TimeRange
	// ProductID matches orders containing at least one item of the product
	ProductID *uuid.UUID
}

func (f OrderFilter) Validate() error {
	if f.Status != nil {
		if _, err := ToOrderStatus(string(*f.Status)); err != nil {
			return fmt.Errorf("status: %w", err)
		}
	}

	if f.CreatedAt != nil {
		if err := f.CreatedAt.Validate(); err != nil {
			return fmt.Errorf("createdAt: %w", err)
		}
	}

	return nil
}

func (f OrderFilter) IsEmpty() bool {
	return f.ID == nil && f.Status == nil && f.CreatedAt == nil && f.ProductID == nil
}

type TimeRange struct {
	Before *time.Time
	After  *time.Time
}

func (t TimeRange) Validate() error {
	if t.Before == nil && t.After == nil {
		return fmt.Errorf("both Before and After are nil: %w", ErrValidation)
	}

	if t.Before != nil && t.After != nil {
		if t.Before.Before(*t.After) {
			return fmt.Errorf("before is before After: %w", ErrValidation)
		}
	}

	return nil
}
