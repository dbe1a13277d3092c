package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/nikolayk812/orderledger/internal/db"
)

type beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// withTx executes fn within a transaction if dbtx is a pool (or any other beginner),
// or uses the existing transaction if dbtx already is one
func withTx[T any](ctx context.Context, dbtx db.DBTX, fn func(tx pgx.Tx) (T, error)) (_ T, txErr error) {
	var zero T

	// Check if we're already in a transaction by trying to cast to pgx.Tx
	if tx, ok := dbtx.(pgx.Tx); ok {
		return fn(tx)
	}

	b, ok := dbtx.(beginner)
	if !ok {
		return zero, fmt.Errorf("dbtx can not begin a transaction: %T", dbtx)
	}

	tx, err := b.Begin(ctx)
	if err != nil {
		return zero, fmt.Errorf("Begin: %w", err)
	}

	// Ensure proper rollback handling
	defer func() {
		if txErr != nil {
			// the caller's context may be canceled already, rollback still has to reach the server
			rollbackErr := tx.Rollback(context.WithoutCancel(ctx))
			if rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
				txErr = errors.Join(txErr, fmt.Errorf("tx.Rollback: %w", rollbackErr))
			}
		}
	}()

	result, err := fn(tx)
	if err != nil {
		return zero, err
	}

	if err := tx.Commit(ctx); err != nil {
		return zero, fmt.Errorf("tx.Commit: %w", err)
	}

	return result, nil
}
