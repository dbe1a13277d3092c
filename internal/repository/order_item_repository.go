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
)

type orderItemRepository struct {
	q *db.Queries
}

func NewOrderItem(pool *pgxpool.Pool) port.OrderItemRepository {
	return &orderItemRepository{q: db.New(pool)}
}

func NewOrderItemWithTx(tx pgx.Tx) port.OrderItemRepository {
	return &orderItemRepository{q: db.New(tx)}
}

func (r *orderItemRepository) InsertOrderItem(ctx context.Context, item domain.OrderItem) (domain.OrderItem, error) {
	if item.OrderID == uuid.Nil {
		return domain.OrderItem{}, errors.New("orderID is empty")
	}

	if item.Quantity <= 0 {
		return domain.OrderItem{}, fmt.Errorf("quantity[%d] must be positive: %w", item.Quantity, domain.ErrValidation)
	}

	quantity, err := toInt4("quantity", item.Quantity)
	if err != nil {
		return domain.OrderItem{}, err
	}

	dbItem, err := r.q.InsertOrderItem(ctx, db.InsertOrderItemParams{
		OrderID:   item.OrderID,
		ProductID: item.ProductID,
		Quantity:  quantity,
		Price:     item.Price,
	})
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return domain.OrderItem{}, fmt.Errorf("q.InsertOrderItem: %w", domain.NewNotFound(domain.EntityProduct, item.ProductID))
		}
		return domain.OrderItem{}, fmt.Errorf("q.InsertOrderItem: %w", err)
	}

	return domain.OrderItem{
		ID:        dbItem.ID,
		OrderID:   dbItem.OrderID,
		ProductID: dbItem.ProductID,
		Quantity:  int(dbItem.Quantity),
		Price:     dbItem.Price,
	}, nil
}

func (r *orderItemRepository) UpdateOrderItem(ctx context.Context, item domain.OrderItem) error {
	if item.Quantity <= 0 {
		return fmt.Errorf("quantity[%d] must be positive: %w", item.Quantity, domain.ErrValidation)
	}

	quantity, err := toInt4("quantity", item.Quantity)
	if err != nil {
		return err
	}

	cmdTag, err := r.q.UpdateOrderItem(ctx, db.UpdateOrderItemParams{
		ID:        item.ID,
		ProductID: item.ProductID,
		Quantity:  quantity,
		Price:     item.Price,
	})
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return fmt.Errorf("q.UpdateOrderItem: %w", domain.NewNotFound(domain.EntityProduct, item.ProductID))
		}
		return fmt.Errorf("q.UpdateOrderItem: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("q.UpdateOrderItem: %w", domain.NewNotFound(domain.EntityOrderItem, item.ID))
	}

	return nil
}

func (r *orderItemRepository) DeleteOrderItems(ctx context.Context, itemIDs []uuid.UUID) error {
	if len(itemIDs) == 0 {
		return nil
	}

	cmdTag, err := r.q.DeleteOrderItems(ctx, itemIDs)
	if err != nil {
		return fmt.Errorf("q.DeleteOrderItems: %w", err)
	}

	if cmdTag.RowsAffected() != int64(len(itemIDs)) {
		return fmt.Errorf("q.DeleteOrderItems: deleted %d of %d: %w", cmdTag.RowsAffected(), len(itemIDs), domain.ErrNotFound)
	}

	return nil
}
