// Package ledger debits and credits product stock inside a transaction owned by the caller.
package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/nikolayk812/orderledger/internal/domain"
	"github.com/nikolayk812/orderledger/internal/port"
)

// Debit takes quantity units out of the product stock. products must be bound to an open
// transaction, the row lock taken here is held until that transaction ends.
func Debit(ctx context.Context, products port.ProductRepository, productID uuid.UUID, quantity int) (domain.Product, error) {
	if quantity <= 0 {
		return domain.Product{}, fmt.Errorf("debit quantity[%d] must be positive: %w", quantity, domain.ErrValidation)
	}

	product, err := products.GetProductForUpdate(ctx, productID)
	if err != nil {
		return domain.Product{}, fmt.Errorf("products.GetProductForUpdate: %w", err)
	}

	if product.StockQty < quantity {
		return domain.Product{}, &domain.InsufficientStockError{
			ProductID: productID,
			Available: product.StockQty,
			Requested: quantity,
		}
	}

	updated, err := products.UpdateStock(ctx, productID, product.StockQty-quantity)
	if err != nil {
		return domain.Product{}, fmt.Errorf("products.UpdateStock: %w", err)
	}

	return updated, nil
}

// Credit returns quantity units to the product stock. The stock may not exceed domain.MaxQuantity.
func Credit(ctx context.Context, products port.ProductRepository, productID uuid.UUID, quantity int) (domain.Product, error) {
	if quantity <= 0 {
		return domain.Product{}, fmt.Errorf("credit quantity[%d] must be positive: %w", quantity, domain.ErrValidation)
	}

	product, err := products.GetProductForUpdate(ctx, productID)
	if err != nil {
		return domain.Product{}, fmt.Errorf("products.GetProductForUpdate: %w", err)
	}

	if quantity > domain.MaxQuantity-product.StockQty {
		return domain.Product{}, fmt.Errorf("credit quantity[%d] overflows stock[%d] of product[%s]: %w", quantity, product.StockQty, productID, domain.ErrValidation)
	}

	updated, err := products.UpdateStock(ctx, productID, product.StockQty+quantity)
	if err != nil {
		return domain.Product{}, fmt.Errorf("products.UpdateStock: %w", err)
	}

	return updated, nil
}

// Apply debits a positive delta and credits a negative one. A zero delta touches nothing
// and reports ok == false.
func Apply(ctx context.Context, products port.ProductRepository, productID uuid.UUID, delta int) (_ domain.Product, ok bool, _ error) {
	switch {
	case delta > 0:
		p, err := Debit(ctx, products, productID, delta)
		return p, err == nil, err
	case delta < 0:
		p, err := Credit(ctx, products, productID, -delta)
		return p, err == nil, err
	default:
		return domain.Product{}, false, nil
	}
}
