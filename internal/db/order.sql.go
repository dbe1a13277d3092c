package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const orderColumns = `id, status, deleted, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var i Order
	err := row.Scan(
		&i.ID,
		&i.Status,
		&i.Deleted,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getOrder = `-- name: GetOrder :one
SELECT ` + orderColumns + `
FROM orders
WHERE id = $1 AND deleted = false
`

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrder, id))
}

const getOrderForUpdate = `-- name: GetOrderForUpdate :one
SELECT ` + orderColumns + `
FROM orders
WHERE id = $1 AND deleted = false
FOR UPDATE
`

func (q *Queries) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderForUpdate, id))
}

const listOrders = `-- name: ListOrders :many
SELECT ` + orderColumns + `
FROM orders
WHERE deleted = false
ORDER BY created_at, id
`

func (q *Queries) ListOrders(ctx context.Context) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrders)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Order
	for rows.Next() {
		i, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const insertOrder = `-- name: InsertOrder :one
INSERT INTO orders (status)
VALUES ($1)
RETURNING ` + orderColumns + `
`

func (q *Queries) InsertOrder(ctx context.Context, status string) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, insertOrder, status))
}

const updateOrderStatus = `-- name: UpdateOrderStatus :execresult
UPDATE orders
SET status = $2, updated_at = now()
WHERE id = $1 AND deleted = false
`

func (q *Queries) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status string) (pgconn.CommandTag, error) {
	return q.db.Exec(ctx, updateOrderStatus, id, status)
}

const touchOrder = `-- name: TouchOrder :execresult
UPDATE orders
SET updated_at = now()
WHERE id = $1 AND deleted = false
`

func (q *Queries) TouchOrder(ctx context.Context, id uuid.UUID) (pgconn.CommandTag, error) {
	return q.db.Exec(ctx, touchOrder, id)
}

const softDeleteOrder = `-- name: SoftDeleteOrder :execresult
UPDATE orders
SET deleted = true, updated_at = now()
WHERE id = $1 AND deleted = false
`

func (q *Queries) SoftDeleteOrder(ctx context.Context, id uuid.UUID) (pgconn.CommandTag, error) {
	return q.db.Exec(ctx, softDeleteOrder, id)
}
