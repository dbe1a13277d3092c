package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

const productColumns = `id, name, price, stock_qty, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var i Product
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Price,
		&i.StockQty,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getProduct = `-- name: GetProduct :one
SELECT ` + productColumns + `
FROM products
WHERE id = $1
`

func (q *Queries) GetProduct(ctx context.Context, id uuid.UUID) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, getProduct, id))
}

const getProductForUpdate = `-- name: GetProductForUpdate :one
SELECT ` + productColumns + `
FROM products
WHERE id = $1
FOR UPDATE
`

func (q *Queries) GetProductForUpdate(ctx context.Context, id uuid.UUID) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, getProductForUpdate, id))
}

const listProducts = `-- name: ListProducts :many
SELECT ` + productColumns + `
FROM products
ORDER BY created_at, id
`

func (q *Queries) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := q.db.Query(ctx, listProducts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Product
	for rows.Next() {
		i, err := scanProduct(rows)
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

const insertProduct = `-- name: InsertProduct :one
INSERT INTO products (name, price, stock_qty)
VALUES ($1, $2, $3)
RETURNING ` + productColumns + `
`

type InsertProductParams struct {
	Name     string
	Price    decimal.Decimal
	StockQty int32
}

func (q *Queries) InsertProduct(ctx context.Context, arg InsertProductParams) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, insertProduct, arg.Name, arg.Price, arg.StockQty))
}

const updateProduct = `-- name: UpdateProduct :one
UPDATE products
SET name = $2, price = $3, stock_qty = $4, updated_at = now()
WHERE id = $1
RETURNING ` + productColumns + `
`

type UpdateProductParams struct {
	ID       uuid.UUID
	Name     string
	Price    decimal.Decimal
	StockQty int32
}

func (q *Queries) UpdateProduct(ctx context.Context, arg UpdateProductParams) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, updateProduct, arg.ID, arg.Name, arg.Price, arg.StockQty))
}

const updateProductStock = `-- name: UpdateProductStock :one
UPDATE products
SET stock_qty = $2, updated_at = now()
WHERE id = $1
RETURNING ` + productColumns + `
`

func (q *Queries) UpdateProductStock(ctx context.Context, id uuid.UUID, stockQty int32) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, updateProductStock, id, stockQty))
}

const deleteProduct = `-- name: DeleteProduct :execresult
DELETE FROM products
WHERE id = $1
`

func (q *Queries) DeleteProduct(ctx context.Context, id uuid.UUID) (pgconn.CommandTag, error) {
	return q.db.Exec(ctx, deleteProduct, id)
}
