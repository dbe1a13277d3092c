// Package httpapi exposes the order and product services over HTTP.
package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nikolayk812/orderledger/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/text/currency"
)

type OrderService interface {
	Create(ctx context.Context, in domain.CreateOrder) (domain.Order, error)
	Update(ctx context.Context, orderID uuid.UUID, in domain.UpdateOrder) (domain.Order, error)
	Delete(ctx context.Context, orderID uuid.UUID) error
	List(ctx context.Context) ([]domain.Order, error)
	FindOne(ctx context.Context, orderID uuid.UUID) (domain.Order, error)
	Search(ctx context.Context, filter domain.OrderFilter) ([]domain.OrderDocument, error)
}

type ProductService interface {
	Create(ctx context.Context, product domain.Product) (domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, productID uuid.UUID) (domain.Product, error)
	Update(ctx context.Context, productID uuid.UUID, patch domain.ProductPatch) (domain.Product, error)
	Delete(ctx context.Context, productID uuid.UUID) error
}

type handler struct {
	orders   OrderService
	products ProductService
	currency currency.Unit
	logger   *zap.Logger
}

func NewRouter(orders OrderService, products ProductService, unit currency.Unit, logger *zap.Logger) *gin.Engine {
	h := &handler{
		orders:   orders,
		products: products,
		currency: unit,
		logger:   logger,
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestID(), accessLog(logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	orderGroup := r.Group("/orders")
	orderGroup.POST("", h.createOrder)
	orderGroup.GET("", h.listOrders)
	// the static segment wins over /:id
	orderGroup.GET("/search", h.searchOrders)
	orderGroup.GET("/:id", h.getOrder)
	orderGroup.PATCH("/:id", h.updateOrder)
	orderGroup.DELETE("/:id", h.deleteOrder)

	productGroup := r.Group("/products")
	productGroup.POST("", h.createProduct)
	productGroup.GET("", h.listProducts)
	productGroup.GET("/:id", h.getProduct)
	productGroup.PATCH("/:id", h.updateProduct)
	productGroup.DELETE("/:id", h.deleteProduct)

	return r
}
