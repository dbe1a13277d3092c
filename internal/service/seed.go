package service

import (
	"context"
	"fmt"

	"github.com/nikolayk812/orderledger/internal/domain"
	"github.com/nikolayk812/orderledger/internal/port"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func DefaultCatalog() []domain.Product {
	return []domain.Product{
		{Name: "Mouse Gamer RGB", Price: decimal.RequireFromString("129.90"), StockQty: 50},
		{Name: "Teclado Mecânico", Price: decimal.RequireFromString("349.90"), StockQty: 35},
		{Name: `Monitor 27" IPS`, Price: decimal.RequireFromString("1399.00"), StockQty: 15},
		{Name: "Headset Bluetooth", Price: decimal.RequireFromString("219.90"), StockQty: 40},
		{Name: "Webcam Full HD", Price: decimal.RequireFromString("189.90"), StockQty: 25},
		{Name: "Cadeira Ergonômica", Price: decimal.RequireFromString("999.00"), StockQty: 8},
		{Name: "Notebook i5 16GB", Price: decimal.RequireFromString("3999.00"), StockQty: 5},
		{Name: "Hub USB-C 7 em 1", Price: decimal.RequireFromString("159.90"), StockQty: 60},
	}
}

// SeedCatalog inserts products in one transaction, only when the catalog is empty.
// It returns the number of inserted products.
func SeedCatalog(ctx context.Context, store port.Store, products []domain.Product, logger *zap.Logger) (int, error) {
	var inserted int

	err := store.WithTx(ctx, func(tx port.Store) error {
		existing, err := tx.Products().ListProducts(ctx)
		if err != nil {
			return fmt.Errorf("products.ListProducts: %w", err)
		}
		if len(existing) > 0 {
			return nil
		}

		for _, product := range products {
			if _, err := tx.Products().InsertProduct(ctx, product); err != nil {
				return fmt.Errorf("products.InsertProduct[%s]: %w", product.Name, err)
			}
			inserted++
		}

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("store.WithTx: %w", err)
	}

	logger.Info("catalog seeded", zap.Int("inserted", inserted))

	return inserted, nil
}
