package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

const getOrderItemsWithProducts = `-- name: GetOrderItemsWithProducts :many
SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.price,
       p.name, p.price, p.stock_qty, p.created_at, p.updated_at
FROM order_items oi
JOIN products p ON p.id = oi.product_id
WHERE oi.order_id = ANY($1::uuid[])
ORDER BY oi.order_id, oi.id
`

type GetOrderItemsWithProductsRow struct {
	ID               uuid.UUID
	OrderID          uuid.UUID
	ProductID        uuid.UUID
	Quantity         int32
	Price            decimal.Decimal
	ProductName      string
	ProductPrice     decimal.Decimal
	ProductStockQty  int32
	ProductCreatedAt time.Time
	ProductUpdatedAt time.Time
}

func (q *Queries) GetOrderItemsWithProducts(ctx context.Context, orderIDs []uuid.UUID) ([]GetOrderItemsWithProductsRow, error) {
	rows, err := q.db.Query(ctx, getOrderItemsWithProducts, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []GetOrderItemsWithProductsRow
	for rows.Next() {
		var i GetOrderItemsWithProductsRow
		if err := rows.Scan(
			&i.ID,
			&i.OrderID,
			&i.ProductID,
			&i.Quantity,
			&i.Price,
			&i.ProductName,
			&i.ProductPrice,
			&i.ProductStockQty,
			&i.ProductCreatedAt,
			&i.ProductUpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const insertOrderItem = `-- name: InsertOrderItem :one
INSERT INTO order_items (order_id, product_id, quantity, price)
VALUES ($1, $2, $3, $4)
RETURNING id, order_id, product_id, quantity, price
`

type InsertOrderItemParams struct {
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Quantity  int32
	Price     decimal.Decimal
}

func (q *Queries) InsertOrderItem(ctx context.Context, arg InsertOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, insertOrderItem, arg.OrderID, arg.ProductID, arg.Quantity, arg.Price)
	var i OrderItem
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.ProductID,
		&i.Quantity,
		&i.Price,
	)
	return i, err
}

const updateOrderItem = `-- name: UpdateOrderItem :execresult
UPDATE order_items
SET product_id = $2, quantity = $3, price = $4
WHERE id = $1
`

type UpdateOrderItemParams struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	Quantity  int32
	Price     decimal.Decimal
}

func (q *Queries) UpdateOrderItem(ctx context.Context, arg UpdateOrderItemParams) (pgconn.CommandTag, error) {
	return q.db.Exec(ctx, updateOrderItem, arg.ID, arg.ProductID, arg.Quantity, arg.Price)
}

const deleteOrderItems = `-- name: DeleteOrderItems :execresult
DELETE FROM order_items
WHERE id = ANY($1::uuid[])
`

func (q *Queries) DeleteOrderItems(ctx context.Context, ids []uuid.UUID) (pgconn.CommandTag, error) {
	return q.db.Exec(ctx, deleteOrderItems, ids)
}
