// Package cache holds catalog reads of products in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/orderledger/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	DefaultTTL = 5 * time.Minute
	// InvalidationWindow is how long an invalidated key refuses new entries. A read that loaded
	// the row before the invalidating commit and finishes within the window can not store it.
	InvalidationWindow = 2 * time.Second
)

// tombstone marks a recently invalidated key
const tombstone = ""

type Config struct {
	Addr     string
	Password string
	DB       int
}

// Connect opens a client and pings it.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     20,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return rdb, nil
}

type cachedProduct struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	StockQty  int             `json:"stockQty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// ProductCache is a read-through cache of products. Redis failures are logged and reported
// as misses, callers fall back to the record store. Set only fills absent keys, Invalidate
// leaves a tombstone for InvalidationWindow so late writers of pre-commit reads are dropped.
type ProductCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewProductCache(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *ProductCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &ProductCache{
		rdb:    rdb,
		ttl:    ttl,
		logger: logger,
	}
}

func productKey(id uuid.UUID) string {
	return "product:" + id.String()
}

func (c *ProductCache) Get(ctx context.Context, productID uuid.UUID) (domain.Product, bool) {
	data, err := c.rdb.Get(ctx, productKey(productID)).Bytes()

	switch {
	case err == nil && string(data) == tombstone:
		return domain.Product{}, false
	case err == nil:
	case errors.Is(err, redis.Nil):
		return domain.Product{}, false
	default:
		c.logger.Warn("redis get failed, continuing with database", zap.Stringer("product_id", productID), zap.Error(err))
		return domain.Product{}, false
	}

	var cached cachedProduct
	if err := json.Unmarshal(data, &cached); err != nil {
		c.logger.Warn("cached product is corrupt", zap.Stringer("product_id", productID), zap.Error(err))
		return domain.Product{}, false
	}

	return domain.Product{
		ID:        cached.ID,
		Name:      cached.Name,
		Price:     cached.Price,
		StockQty:  cached.StockQty,
		CreatedAt: cached.CreatedAt,
		UpdatedAt: cached.UpdatedAt,
	}, true
}

func (c *ProductCache) Set(ctx context.Context, product domain.Product) {
	data, err := json.Marshal(cachedProduct{
		ID:        product.ID,
		Name:      product.Name,
		Price:     product.Price,
		StockQty:  product.StockQty,
		CreatedAt: product.CreatedAt,
		UpdatedAt: product.UpdatedAt,
	})
	if err != nil {
		c.logger.Warn("failed to marshal product", zap.Stringer("product_id", product.ID), zap.Error(err))
		return
	}

	if err := c.rdb.SetNX(ctx, productKey(product.ID), data, c.ttl).Err(); err != nil {
		c.logger.Warn("failed to cache product", zap.Stringer("product_id", product.ID), zap.Error(err))
	}
}

func (c *ProductCache) Invalidate(ctx context.Context, productIDs ...uuid.UUID) {
	if len(productIDs) == 0 {
		return
	}

	keys := lo.Map(productIDs, func(id uuid.UUID, _ int) string { return productKey(id) })

	_, err := c.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, key := range keys {
			pipe.Set(ctx, key, tombstone, InvalidationWindow)
		}
		return nil
	})
	if err != nil {
		c.logger.Warn("failed to invalidate products", zap.Strings("keys", keys), zap.Error(err))
	}
}
