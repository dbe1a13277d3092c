package memrepo

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/google/uuid"
	"github.com/nikolayk812/orderledger/internal/domain"
	"github.com/samber/lo"
)

type productRepository struct {
	s *Store
}

func (r *productRepository) GetProduct(_ context.Context, productID uuid.UUID) (domain.Product, error) {
	var product domain.Product

	err := r.s.run(func(st *state) error {
		p, ok := st.products[productID]
		if !ok {
			return domain.NewNotFound(domain.EntityProduct, productID)
		}
		product = p
		return nil
	})

	return product, err
}

func (r *productRepository) GetProductForUpdate(ctx context.Context, productID uuid.UUID) (domain.Product, error) {
	// transactions are serialized, the read already is exclusive
	return r.GetProduct(ctx, productID)
}

func (r *productRepository) ListProducts(_ context.Context) ([]domain.Product, error) {
	var products []domain.Product

	err := r.s.run(func(st *state) error {
		products = slices.SortedFunc(maps.Values(st.products), func(a, b domain.Product) int {
			if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
				return c
			}
			return compareUUID(a.ID, b.ID)
		})
		return nil
	})

	return products, err
}

func (r *productRepository) InsertProduct(_ context.Context, product domain.Product) (domain.Product, error) {
	if err := product.Validate(); err != nil {
		return domain.Product{}, fmt.Errorf("product.Validate: %w", err)
	}

	err := r.s.run(func(st *state) error {
		now := r.s.sh.now()
		if product.ID == uuid.Nil {
			product.ID = uuid.New()
		}
		product.CreatedAt, product.UpdatedAt = now, now
		st.products[product.ID] = product
		return nil
	})

	return product, err
}

func (r *productRepository) UpdateProduct(_ context.Context, product domain.Product) (domain.Product, error) {
	if product.ID == uuid.Nil {
		return domain.Product{}, errors.New("productID is empty")
	}

	if err := product.Validate(); err != nil {
		return domain.Product{}, fmt.Errorf("product.Validate: %w", err)
	}

	err := r.s.run(func(st *state) error {
		existing, ok := st.products[product.ID]
		if !ok {
			return domain.NewNotFound(domain.EntityProduct, product.ID)
		}
		product.CreatedAt = existing.CreatedAt
		product.UpdatedAt = r.s.sh.now()
		st.products[product.ID] = product
		return nil
	})

	return product, err
}

func (r *productRepository) UpdateStock(_ context.Context, productID uuid.UUID, stockQty int) (domain.Product, error) {
	if stockQty < 0 {
		return domain.Product{}, fmt.Errorf("stockQty[%d] is negative: %w", stockQty, domain.ErrInsufficientStock)
	}

	if stockQty > domain.MaxQuantity {
		return domain.Product{}, fmt.Errorf("stockQty[%d] exceeds %d: %w", stockQty, domain.MaxQuantity, domain.ErrValidation)
	}

	var product domain.Product

	err := r.s.run(func(st *state) error {
		p, ok := st.products[productID]
		if !ok {
			return domain.NewNotFound(domain.EntityProduct, productID)
		}
		p.StockQty = stockQty
		p.UpdatedAt = r.s.sh.now()
		st.products[productID] = p
		product = p
		return nil
	})

	return product, err
}

func (r *productRepository) DeleteProduct(_ context.Context, productID uuid.UUID) error {
	if productID == uuid.Nil {
		return errors.New("productID is empty")
	}

	return r.s.run(func(st *state) error {
		if _, ok := st.products[productID]; !ok {
			return domain.NewNotFound(domain.EntityProduct, productID)
		}

		for _, item := range st.items {
			if item.ProductID == productID {
				return domain.ErrProductInUse
			}
		}

		delete(st.products, productID)
		return nil
	})
}

type orderRepository struct {
	s *Store
}

func (r *orderRepository) GetOrder(_ context.Context, orderID uuid.UUID) (domain.Order, error) {
	var order domain.Order

	err := r.s.run(func(st *state) error {
		o, ok := st.orders[orderID]
		if !ok || o.Deleted {
			return domain.NewNotFound(domain.EntityOrder, orderID)
		}
		order = orderView(st, o)
		return nil
	})

	return order, err
}

func (r *orderRepository) GetOrderForUpdate(ctx context.Context, orderID uuid.UUID) (domain.Order, error) {
	if !r.s.inTx {
		return domain.Order{}, errTxRequired
	}
	return r.GetOrder(ctx, orderID)
}

func (r *orderRepository) ListOrders(_ context.Context) ([]domain.Order, error) {
	var orders []domain.Order

	err := r.s.run(func(st *state) error {
		live := lo.Filter(lo.Values(st.orders), func(o domain.Order, _ int) bool { return !o.Deleted })

		slices.SortFunc(live, func(a, b domain.Order) int {
			if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
				return c
			}
			return compareUUID(a.ID, b.ID)
		})

		orders = lo.Map(live, func(o domain.Order, _ int) domain.Order { return orderView(st, o) })
		return nil
	})

	return orders, err
}

func (r *orderRepository) InsertOrder(_ context.Context, status domain.OrderStatus) (domain.Order, error) {
	if status == "" {
		return domain.Order{}, errors.New("status is empty")
	}

	var order domain.Order

	err := r.s.run(func(st *state) error {
		now := r.s.sh.now()
		order = domain.Order{
			ID:        uuid.New(),
			Status:    status,
			CreatedAt: now,
			UpdatedAt: now,
		}
		st.orders[order.ID] = order
		return nil
	})

	return order, err
}

func (r *orderRepository) UpdateOrderStatus(_ context.Context, orderID uuid.UUID, status domain.OrderStatus) error {
	if orderID == uuid.Nil {
		return errors.New("orderID is empty")
	}

	if status == "" {
		return errors.New("status is empty")
	}

	return r.modifyOrder(orderID, func(o *domain.Order) {
		o.Status = status
	})
}

func (r *orderRepository) TouchOrder(_ context.Context, orderID uuid.UUID) error {
	return r.modifyOrder(orderID, func(*domain.Order) {})
}

func (r *orderRepository) SoftDeleteOrder(_ context.Context, orderID uuid.UUID) error {
	if orderID == uuid.Nil {
		return errors.New("orderID is empty")
	}

	return r.modifyOrder(orderID, func(o *domain.Order) {
		o.Deleted = true
	})
}

func (r *orderRepository) modifyOrder(orderID uuid.UUID, fn func(o *domain.Order)) error {
	return r.s.run(func(st *state) error {
		o, ok := st.orders[orderID]
		if !ok || o.Deleted {
			return domain.NewNotFound(domain.EntityOrder, orderID)
		}
		fn(&o)
		o.UpdatedAt = r.s.sh.now()
		st.orders[orderID] = o
		return nil
	})
}

type orderItemRepository struct {
	s *Store
}

func (r *orderItemRepository) InsertOrderItem(_ context.Context, item domain.OrderItem) (domain.OrderItem, error) {
	if item.OrderID == uuid.Nil {
		return domain.OrderItem{}, errors.New("orderID is empty")
	}

	if item.Quantity <= 0 {
		return domain.OrderItem{}, fmt.Errorf("quantity[%d] must be positive: %w", item.Quantity, domain.ErrValidation)
	}

	err := r.s.run(func(st *state) error {
		if _, ok := st.orders[item.OrderID]; !ok {
			return domain.NewNotFound(domain.EntityOrder, item.OrderID)
		}
		if _, ok := st.products[item.ProductID]; !ok {
			return domain.NewNotFound(domain.EntityProduct, item.ProductID)
		}

		item.ID = uuid.New()
		item.Product = nil
		st.items[item.ID] = item
		return nil
	})

	return item, err
}

func (r *orderItemRepository) UpdateOrderItem(_ context.Context, item domain.OrderItem) error {
	if item.Quantity <= 0 {
		return fmt.Errorf("quantity[%d] must be positive: %w", item.Quantity, domain.ErrValidation)
	}

	return r.s.run(func(st *state) error {
		existing, ok := st.items[item.ID]
		if !ok {
			return domain.NewNotFound(domain.EntityOrderItem, item.ID)
		}
		if _, ok := st.products[item.ProductID]; !ok {
			return domain.NewNotFound(domain.EntityProduct, item.ProductID)
		}

		existing.ProductID = item.ProductID
		existing.Quantity = item.Quantity
		existing.Price = item.Price
		st.items[item.ID] = existing
		return nil
	})
}

func (r *orderItemRepository) DeleteOrderItems(_ context.Context, itemIDs []uuid.UUID) error {
	if len(itemIDs) == 0 {
		return nil
	}

	return r.s.run(func(st *state) error {
		for _, id := range itemIDs {
			if _, ok := st.items[id]; !ok {
				return fmt.Errorf("item[%s]: %w", id, domain.ErrNotFound)
			}
		}
		for _, id := range itemIDs {
			delete(st.items, id)
		}
		return nil
	})
}
