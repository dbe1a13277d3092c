package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/nikolayk812/orderledger/internal/domain"
	"github.com/nikolayk812/orderledger/internal/port"
	"go.uber.org/zap"
)

// ProductService is the product catalog. Reads go through the cache when one is set.
type ProductService struct {
	store  port.Store
	cache  port.ProductCache
	logger *zap.Logger
}

// NewProductService accepts a nil cache.
func NewProductService(store port.Store, cache port.ProductCache, logger *zap.Logger) *ProductService {
	return &ProductService{
		store:  store,
		cache:  cache,
		logger: logger,
	}
}

func (s *ProductService) Create(ctx context.Context, product domain.Product) (domain.Product, error) {
	product.ID = uuid.Nil

	created, err := s.store.Products().InsertProduct(ctx, product)
	if err != nil {
		return domain.Product{}, fmt.Errorf("products.InsertProduct: %w", err)
	}

	s.logger.Info("product created", zap.Stringer("product_id", created.ID))

	return created, nil
}

func (s *ProductService) List(ctx context.Context) ([]domain.Product, error) {
	products, err := s.store.Products().ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("products.ListProducts: %w", err)
	}

	return products, nil
}

func (s *ProductService) Get(ctx context.Context, productID uuid.UUID) (domain.Product, error) {
	if s.cache != nil {
		if product, ok := s.cache.Get(ctx, productID); ok {
			return product, nil
		}
	}

	product, err := s.store.Products().GetProduct(ctx, productID)
	if err != nil {
		return domain.Product{}, fmt.Errorf("products.GetProduct: %w", err)
	}

	if s.cache != nil {
		s.cache.Set(ctx, product)
	}

	return product, nil
}

// Update applies the non-nil fields of patch under the product row lock.
func (s *ProductService) Update(ctx context.Context, productID uuid.UUID, patch domain.ProductPatch) (domain.Product, error) {
	var updated domain.Product

	err := s.store.WithTx(ctx, func(tx port.Store) error {
		current, err := tx.Products().GetProductForUpdate(ctx, productID)
		if err != nil {
			return fmt.Errorf("products.GetProductForUpdate: %w", err)
		}

		updated, err = tx.Products().UpdateProduct(ctx, patch.Apply(current))
		if err != nil {
			return fmt.Errorf("products.UpdateProduct: %w", err)
		}

		return nil
	})
	if err != nil {
		return domain.Product{}, fmt.Errorf("store.WithTx: %w", err)
	}

	s.invalidate(ctx, productID)

	return updated, nil
}

// Delete fails with domain.ErrProductInUse while order items reference the product.
func (s *ProductService) Delete(ctx context.Context, productID uuid.UUID) error {
	if err := s.store.Products().DeleteProduct(ctx, productID); err != nil {
		return fmt.Errorf("products.DeleteProduct: %w", err)
	}

	s.invalidate(ctx, productID)

	s.logger.Info("product deleted", zap.Stringer("product_id", productID))

	return nil
}

func (s *ProductService) invalidate(ctx context.Context, productIDs ...uuid.UUID) {
	if s.cache != nil {
		s.cache.Invalidate(context.WithoutCancel(ctx), productIDs...)
	}
}
