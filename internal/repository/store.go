package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/orderledger/internal/db"
	"github.com/nikolayk812/orderledger/internal/port"
)

type store struct {
	pool *pgxpool.Pool
	// tx is set on stores handed to WithTx callbacks
	tx pgx.Tx
}

// NewStore returns a pool-backed store, every WithTx call opens a new transaction.
func NewStore(pool *pgxpool.Pool) port.Store {
	return &store{pool: pool}
}

// NewStoreWithTx returns a store bound to tx, WithTx calls join it.
func NewStoreWithTx(tx pgx.Tx) port.Store {
	return &store{tx: tx}
}

func (s *store) Products() port.ProductRepository {
	if s.tx != nil {
		return NewProductWithTx(s.tx)
	}
	return NewProduct(s.pool)
}

func (s *store) Orders() port.OrderRepository {
	if s.tx != nil {
		return NewOrderWithTx(s.tx)
	}
	return NewOrder(s.pool)
}

func (s *store) OrderItems() port.OrderItemRepository {
	if s.tx != nil {
		return NewOrderItemWithTx(s.tx)
	}
	return NewOrderItem(s.pool)
}

func (s *store) WithTx(ctx context.Context, fn func(tx port.Store) error) error {
	var dbtx db.DBTX = s.pool
	if s.tx != nil {
		dbtx = s.tx
	}

	_, err := withTx(ctx, dbtx, func(tx pgx.Tx) (struct{}, error) {
		return struct{}{}, fn(NewStoreWithTx(tx))
	})
	return err
}
