// Package reconciler turns the desired item list of an order into item writes and the
// matching stock debits and credits.
package reconciler

import (
	"bytes"
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/nikolayk812/orderledger/internal/domain"
	"github.com/nikolayk812/orderledger/internal/ledger"
	"github.com/nikolayk812/orderledger/internal/port"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type Result struct {
	// Items is the final item set of the order, in the order of the desired list
	Items []domain.OrderItem
	// Adjusted holds the products whose stock changed, in ascending id order
	Adjusted []domain.Product
}

type plannedItem struct {
	existing  *domain.OrderItem
	productID uuid.UUID
	quantity  int
	price     *decimal.Decimal
}

// Reconcile makes the items of order equal to desired. An entry with an id updates that item,
// an entry without one creates an item, and items missing from desired are removed.
// tx must be bound to the transaction the order row was loaded in. On error nothing must be
// committed, the caller rolls back.
func Reconcile(ctx context.Context, tx port.Store, order domain.Order, desired []domain.DesiredItem) (Result, error) {
	if err := domain.ValidateDesiredItems(desired); err != nil {
		return Result{}, err
	}

	deltas := make(map[uuid.UUID]int)
	plan := make([]plannedItem, 0, len(desired))
	kept := make(map[uuid.UUID]struct{}, len(desired))

	for _, d := range desired {
		if d.IsNew() {
			deltas[*d.ProductID] += d.Quantity
			plan = append(plan, plannedItem{productID: *d.ProductID, quantity: d.Quantity, price: d.Price})
			continue
		}

		item, ok := order.ItemByID(*d.ID)
		if !ok {
			return Result{}, domain.NewNotFound(domain.EntityOrderItem, *d.ID)
		}
		kept[item.ID] = struct{}{}

		productID := item.ProductID
		if d.ProductID != nil {
			productID = *d.ProductID
		}

		// product changes credit the old reservation in full and debit the new one in full,
		// on the same product this nets out to the signed difference
		deltas[item.ProductID] -= item.Quantity
		deltas[productID] += d.Quantity

		price := d.Price
		if price == nil && productID == item.ProductID {
			price = &item.Price
		}

		plan = append(plan, plannedItem{existing: &item, productID: productID, quantity: d.Quantity, price: price})
	}

	var removed []uuid.UUID
	for _, item := range order.Items {
		if _, ok := kept[item.ID]; ok {
			continue
		}
		deltas[item.ProductID] -= item.Quantity
		removed = append(removed, item.ID)
	}

	adjusted, err := applyDeltas(ctx, tx.Products(), deltas)
	if err != nil {
		return Result{}, err
	}

	products := lo.SliceToMap(adjusted, func(p domain.Product) (uuid.UUID, domain.Product) {
		return p.ID, p
	})

	// products referenced with a net zero delta still have to exist, and supply the price
	// snapshot when none was given
	for _, p := range plan {
		if _, ok := products[p.productID]; ok {
			continue
		}
		if p.existing != nil && p.existing.ProductID == p.productID && p.price != nil {
			continue
		}

		product, err := tx.Products().GetProduct(ctx, p.productID)
		if err != nil {
			return Result{}, fmt.Errorf("products.GetProduct: %w", err)
		}
		products[product.ID] = product
	}

	if err := tx.OrderItems().DeleteOrderItems(ctx, removed); err != nil {
		return Result{}, fmt.Errorf("orderItems.DeleteOrderItems: %w", err)
	}

	items := make([]domain.OrderItem, 0, len(plan))

	for _, p := range plan {
		item, err := persistItem(ctx, tx.OrderItems(), order.ID, p, products)
		if err != nil {
			return Result{}, err
		}
		items = append(items, item)
	}

	return Result{Items: items, Adjusted: adjusted}, nil
}

// applyDeltas locks and adjusts products in ascending id order, so concurrent reconciliations
// touching the same products acquire row locks in the same order.
func applyDeltas(ctx context.Context, products port.ProductRepository, deltas map[uuid.UUID]int) ([]domain.Product, error) {
	ids := lo.Keys(deltas)
	slices.SortFunc(ids, func(a, b uuid.UUID) int {
		return bytes.Compare(a[:], b[:])
	})

	var adjusted []domain.Product

	for _, id := range ids {
		product, ok, err := ledger.Apply(ctx, products, id, deltas[id])
		if err != nil {
			return nil, fmt.Errorf("ledger.Apply: %w", err)
		}
		if ok {
			adjusted = append(adjusted, product)
		}
	}

	return adjusted, nil
}

func persistItem(ctx context.Context, items port.OrderItemRepository, orderID uuid.UUID, p plannedItem, products map[uuid.UUID]domain.Product) (domain.OrderItem, error) {
	var product *domain.Product
	if resolved, ok := products[p.productID]; ok {
		product = &resolved
	}

	price := p.price
	if price == nil {
		// resolved above for every entry without a price
		price = &product.Price
	}

	if p.existing == nil {
		item, err := items.InsertOrderItem(ctx, domain.OrderItem{
			OrderID:   orderID,
			ProductID: p.productID,
			Quantity:  p.quantity,
			Price:     *price,
		})
		if err != nil {
			return domain.OrderItem{}, fmt.Errorf("orderItems.InsertOrderItem: %w", err)
		}
		item.Product = product
		return item, nil
	}

	item := *p.existing
	changed := item.ProductID != p.productID || item.Quantity != p.quantity || !item.Price.Equal(*price)

	item.ProductID = p.productID
	item.Quantity = p.quantity
	item.Price = *price
	if product != nil {
		item.Product = product
	}

	if changed {
		if err := items.UpdateOrderItem(ctx, item); err != nil {
			return domain.OrderItem{}, fmt.Errorf("orderItems.UpdateOrderItem: %w", err)
		}
	}

	return item, nil
}
