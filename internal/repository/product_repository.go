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

type productRepository struct {
	q *db.Queries
}

func NewProduct(pool *pgxpool.Pool) port.ProductRepository {
	return &productRepository{q: db.New(pool)}
}

func NewProductWithTx(tx pgx.Tx) port.ProductRepository {
	return &productRepository{q: db.New(tx)}
}

func (r *productRepository) GetProduct(ctx context.Context, productID uuid.UUID) (domain.Product, error) {
	dbProduct, err := r.q.GetProduct(ctx, productID)
	if err != nil {
		return domain.Product{}, fmt.Errorf("q.GetProduct: %w", mapNoRows(err, domain.EntityProduct, productID))
	}

	return mapDBProductToDomain(dbProduct), nil
}

func (r *productRepository) GetProductForUpdate(ctx context.Context, productID uuid.UUID) (domain.Product, error) {
	dbProduct, err := r.q.GetProductForUpdate(ctx, productID)
	if err != nil {
		return domain.Product{}, fmt.Errorf("q.GetProductForUpdate: %w", mapNoRows(err, domain.EntityProduct, productID))
	}

	return mapDBProductToDomain(dbProduct), nil
}

func (r *productRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	dbProducts, err := r.q.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("q.ListProducts: %w", err)
	}

	return lo.Map(dbProducts, func(p db.Product, _ int) domain.Product {
		return mapDBProductToDomain(p)
	}), nil
}

func (r *productRepository) InsertProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	if err := product.Validate(); err != nil {
		return domain.Product{}, fmt.Errorf("product.Validate: %w", err)
	}

	dbProduct, err := r.q.InsertProduct(ctx, db.InsertProductParams{
		Name:     product.Name,
		Price:    product.Price,
		StockQty: int32(product.StockQty),
	})
	if err != nil {
		return domain.Product{}, fmt.Errorf("q.InsertProduct: %w", err)
	}

	return mapDBProductToDomain(dbProduct), nil
}

func (r *productRepository) UpdateProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	if product.ID == uuid.Nil {
		return domain.Product{}, errors.New("productID is empty")
	}

	if err := product.Validate(); err != nil {
		return domain.Product{}, fmt.Errorf("product.Validate: %w", err)
	}

	dbProduct, err := r.q.UpdateProduct(ctx, db.UpdateProductParams{
		ID:       product.ID,
		Name:     product.Name,
		Price:    product.Price,
		StockQty: int32(product.StockQty),
	})
	if err != nil {
		return domain.Product{}, fmt.Errorf("q.UpdateProduct: %w", mapNoRows(err, domain.EntityProduct, product.ID))
	}

	return mapDBProductToDomain(dbProduct), nil
}

func (r *productRepository) UpdateStock(ctx context.Context, productID uuid.UUID, stockQty int) (domain.Product, error) {
	if stockQty < 0 {
		return domain.Product{}, fmt.Errorf("stockQty[%d] is negative: %w", stockQty, domain.ErrInsufficientStock)
	}

	stock, err := toInt4("stockQty", stockQty)
	if err != nil {
		return domain.Product{}, err
	}

	dbProduct, err := r.q.UpdateProductStock(ctx, productID, stock)
	if err != nil {
		if pgErrorCode(err) == pgCheckViolation {
			return domain.Product{}, fmt.Errorf("q.UpdateProductStock: %w: %v", domain.ErrInsufficientStock, err)
		}
		return domain.Product{}, fmt.Errorf("q.UpdateProductStock: %w", mapNoRows(err, domain.EntityProduct, productID))
	}

	return mapDBProductToDomain(dbProduct), nil
}

func (r *productRepository) DeleteProduct(ctx context.Context, productID uuid.UUID) error {
	if productID == uuid.Nil {
		return errors.New("productID is empty")
	}

	cmdTag, err := r.q.DeleteProduct(ctx, productID)
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return fmt.Errorf("q.DeleteProduct: %w", domain.ErrProductInUse)
		}
		return fmt.Errorf("q.DeleteProduct: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("q.DeleteProduct: %w", domain.NewNotFound(domain.EntityProduct, productID))
	}

	return nil
}

func mapNoRows(err error, entity string, id uuid.UUID) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.NewNotFound(entity, id)
	}
	return err
}

func mapDBProductToDomain(p db.Product) domain.Product {
	return domain.Product{
		ID:        p.ID,
		Name:      p.Name,
		Price:     p.Price,
		StockQty:  int(p.StockQty),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
