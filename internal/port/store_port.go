package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/nikolayk812/orderledger/internal/domain"
)

// Store gives access to the record store repositories. A Store obtained inside WithTx is bound
// to that transaction, calling WithTx on it joins the same transaction.
type Store interface {
	Products() ProductRepository
	Orders() OrderRepository
	OrderItems() OrderItemRepository

	WithTx(ctx context.Context, fn func(tx Store) error) error
}

type ProductRepository interface {
	GetProduct(ctx context.Context, productID uuid.UUID) (domain.Product, error)
	// GetProductForUpdate holds a row lock until the surrounding transaction ends
	GetProductForUpdate(ctx context.Context, productID uuid.UUID) (domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)

	InsertProduct(ctx context.Context, product domain.Product) (domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (domain.Product, error)
	UpdateStock(ctx context.Context, productID uuid.UUID, stockQty int) (domain.Product, error)

	DeleteProduct(ctx context.Context, productID uuid.UUID) error
}

type OrderRepository interface {
	GetOrder(ctx context.Context, orderID uuid.UUID) (domain.Order, error)
	// GetOrderForUpdate holds a row lock until the surrounding transaction ends
	GetOrderForUpdate(ctx context.Context, orderID uuid.UUID) (domain.Order, error)
	ListOrders(ctx context.Context) ([]domain.Order, error)

	InsertOrder(ctx context.Context, status domain.OrderStatus) (domain.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) error
	TouchOrder(ctx context.Context, orderID uuid.UUID) error

	SoftDeleteOrder(ctx context.Context, orderID uuid.UUID) error
}

type OrderItemRepository interface {
	InsertOrderItem(ctx context.Context, item domain.OrderItem) (domain.OrderItem, error)
	UpdateOrderItem(ctx context.Context, item domain.OrderItem) error
	DeleteOrderItems(ctx context.Context, itemIDs []uuid.UUID) error
}
