package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/orderledger/internal/db"
	"github.com/nikolayk812/orderledger/internal/domain"
	"github.com/nikolayk812/orderledger/internal/port"
	"github.com/samber/lo"
)

type orderRepository struct {
	dbtx db.DBTX
	q    *db.Queries
}

func NewOrder(pool *pgxpool.Pool) port.OrderRepository {
	return &orderRepository{
		dbtx: pool,
		q:    db.New(pool),
	}
}

func NewOrderWithTx(tx pgx.Tx) port.OrderRepository {
	return &orderRepository{
		dbtx: tx, // use provided transaction instead
		q:    db.New(tx),
	}
}

func (r *orderRepository) GetOrder(ctx context.Context, orderID uuid.UUID) (domain.Order, error) {
	order, err := r.withTxOrder(ctx, func(q *db.Queries) (domain.Order, error) {
		dbOrder, err := q.GetOrder(ctx, orderID)
		if err != nil {
			return domain.Order{}, fmt.Errorf("q.GetOrder: %w", mapNoRows(err, domain.EntityOrder, orderID))
		}

		return loadOrderItems(ctx, q, dbOrder)
	})
	if err != nil {
		return domain.Order{}, fmt.Errorf("r.withTxOrder: %w", err)
	}

	return order, nil
}

func (r *orderRepository) GetOrderForUpdate(ctx context.Context, orderID uuid.UUID) (domain.Order, error) {
	if _, ok := r.dbtx.(pgx.Tx); !ok {
		return domain.Order{}, errors.New("GetOrderForUpdate requires a transaction")
	}

	dbOrder, err := r.q.GetOrderForUpdate(ctx, orderID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("q.GetOrderForUpdate: %w", mapNoRows(err, domain.EntityOrder, orderID))
	}

	order, err := loadOrderItems(ctx, r.q, dbOrder)
	if err != nil {
		return domain.Order{}, fmt.Errorf("loadOrderItems: %w", err)
	}

	return order, nil
}

func (r *orderRepository) ListOrders(ctx context.Context) ([]domain.Order, error) {
	orders, err := withTx(ctx, r.dbtx, func(tx pgx.Tx) ([]domain.Order, error) {
		q := db.New(tx)

		dbOrders, err := q.ListOrders(ctx)
		if err != nil {
			return nil, fmt.Errorf("q.ListOrders: %w", err)
		}

		if len(dbOrders) == 0 {
			return nil, nil
		}

		orderIDs := lo.Map(dbOrders, func(o db.Order, _ int) uuid.UUID { return o.ID })

		rows, err := q.GetOrderItemsWithProducts(ctx, orderIDs)
		if err != nil {
			return nil, fmt.Errorf("q.GetOrderItemsWithProducts: %w", err)
		}

		itemsByOrder := lo.GroupBy(rows, func(row db.GetOrderItemsWithProductsRow) uuid.UUID { return row.OrderID })

		result := make([]domain.Order, 0, len(dbOrders))
		for _, dbOrder := range dbOrders {
			order, err := mapDBOrderToDomain(dbOrder, itemsByOrder[dbOrder.ID])
			if err != nil {
				return nil, fmt.Errorf("mapDBOrderToDomain: %w", err)
			}
			result = append(result, order)
		}

		return result, nil
	})
	if err != nil {
		return nil, fmt.Errorf("withTx: %w", err)
	}

	return orders, nil
}

func (r *orderRepository) InsertOrder(ctx context.Context, status domain.OrderStatus) (domain.Order, error) {
	if status == "" {
		return domain.Order{}, errors.New("status is empty")
	}

	dbOrder, err := r.q.InsertOrder(ctx, string(status))
	if err != nil {
		return domain.Order{}, fmt.Errorf("q.InsertOrder: %w", err)
	}

	order, err := mapDBOrderToDomain(dbOrder, nil)
	if err != nil {
		return domain.Order{}, fmt.Errorf("mapDBOrderToDomain: %w", err)
	}

	return order, nil
}

func (r *orderRepository) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) error {
	if orderID == uuid.Nil {
		return errors.New("orderID is empty")
	}

	if status == "" {
		return errors.New("status is empty")
	}

	cmdTag, err := r.q.UpdateOrderStatus(ctx, orderID, string(status))
	if err != nil {
		return fmt.Errorf("q.UpdateOrderStatus: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("q.UpdateOrderStatus: %w", domain.NewNotFound(domain.EntityOrder, orderID))
	}

	return nil
}

func (r *orderRepository) TouchOrder(ctx context.Context, orderID uuid.UUID) error {
	cmdTag, err := r.q.TouchOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("q.TouchOrder: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("q.TouchOrder: %w", domain.NewNotFound(domain.EntityOrder, orderID))
	}

	return nil
}

func (r *orderRepository) SoftDeleteOrder(ctx context.Context, orderID uuid.UUID) error {
	if orderID == uuid.Nil {
		return fmt.Errorf("orderID is empty")
	}

	cmdTag, err := r.q.SoftDeleteOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("q.SoftDeleteOrder: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("q.SoftDeleteOrder: %w", domain.NewNotFound(domain.EntityOrder, orderID))
	}

	return nil
}

func (r *orderRepository) withTxOrder(ctx context.Context, fn func(q *db.Queries) (domain.Order, error)) (domain.Order, error) {
	return withTx(ctx, r.dbtx, func(tx pgx.Tx) (domain.Order, error) {
		return fn(db.New(tx))
	})
}

func loadOrderItems(ctx context.Context, q *db.Queries, dbOrder db.Order) (domain.Order, error) {
	rows, err := q.GetOrderItemsWithProducts(ctx, []uuid.UUID{dbOrder.ID})
	if err != nil {
		return domain.Order{}, fmt.Errorf("q.GetOrderItemsWithProducts: %w", err)
	}

	order, err := mapDBOrderToDomain(dbOrder, rows)
	if err != nil {
		return domain.Order{}, fmt.Errorf("mapDBOrderToDomain: %w", err)
	}

	return order, nil
}

func mapDBOrderToDomain(dbOrder db.Order, rows []db.GetOrderItemsWithProductsRow) (domain.Order, error) {
	status, err := domain.ToOrderStatus(dbOrder.Status)
	if err != nil {
		return domain.Order{}, fmt.Errorf("domain.ToOrderStatus[%s]: %w", dbOrder.Status, err)
	}

	return domain.Order{
		ID:        dbOrder.ID,
		Status:    status,
		Items:     lo.Map(rows, mapOrderItemRowToDomain),
		Deleted:   dbOrder.Deleted,
		CreatedAt: dbOrder.CreatedAt,
		UpdatedAt: dbOrder.UpdatedAt,
	}, nil
}

func mapOrderItemRowToDomain(row db.GetOrderItemsWithProductsRow, _ int) domain.OrderItem {
	return domain.OrderItem{
		ID:        row.ID,
		OrderID:   row.OrderID,
		ProductID: row.ProductID,
		Product: &domain.Product{
			ID:        row.ProductID,
			Name:      row.ProductName,
			Price:     row.ProductPrice,
			StockQty:  int(row.ProductStockQty),
			CreatedAt: row.ProductCreatedAt,
			UpdatedAt: row.ProductUpdatedAt,
		},
		Quantity: int(row.Quantity),
		Price:    row.Price,
	}
}
