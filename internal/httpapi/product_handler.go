package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nikolayk812/orderledger/internal/domain"
	"github.com/samber/lo"
)

func (h *handler) createProduct(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	product, err := h.products.Create(c.Request.Context(), domain.Product{
		Name:     req.Name,
		Price:    *req.Price,
		StockQty: req.StockQty,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toProductResponse(product))
}

func (h *handler) listProducts(c *gin.Context) {
	products, err := h.products.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, lo.Map(products, func(p domain.Product, _ int) productResponse {
		return toProductResponse(p)
	}))
}

func (h *handler) getProduct(c *gin.Context) {
	productID, ok := h.pathID(c)
	if !ok {
		return
	}

	product, err := h.products.Get(c.Request.Context(), productID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toProductResponse(product))
}

func (h *handler) updateProduct(c *gin.Context) {
	productID, ok := h.pathID(c)
	if !ok {
		return
	}

	var req updateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	product, err := h.products.Update(c.Request.Context(), productID, domain.ProductPatch{
		Name:     req.Name,
		Price:    req.Price,
		StockQty: req.StockQty,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toProductResponse(product))
}

func (h *handler) deleteProduct(c *gin.Context) {
	productID, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.products.Delete(c.Request.Context(), productID); err != nil {
		h.writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
