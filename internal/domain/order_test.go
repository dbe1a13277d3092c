package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/orderledger/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"
)

func TestOrderTotal(t *testing.T) {
	order := domain.Order{
		Items: []domain.OrderItem{
			{Quantity: 2, Price: decimal.RequireFromString("29.99")},
			{Quantity: 3, Price: decimal.RequireFromString("0.10")},
		},
	}

	total := order.Total(currency.BRL)

	assert.Equal(t, "60.28", total.Amount.StringFixed(2))
	assert.Equal(t, "BRL", total.Currency.String())
}

func TestNewOrderDocument(t *testing.T) {
	productID := uuid.New()
	createdAt := time.Date(2025, 9, 25, 1, 21, 15, 0, time.FixedZone("BRT", -3*60*60))

	order := domain.Order{
		ID:        uuid.New(),
		Status:    domain.OrderStatusPending,
		CreatedAt: createdAt,
		Items: []domain.OrderItem{
			{ID: uuid.New(), ProductID: productID, Quantity: 2, Price: decimal.RequireFromString("30")},
		},
	}

	doc := domain.NewOrderDocument(order)
	event := domain.NewOrderEvent(order)

	require.Len(t, doc.Items, 1)
	assert.Equal(t, order.ID, doc.ID)
	assert.Equal(t, time.UTC, doc.CreatedAt.Location())
	assert.True(t, createdAt.Equal(doc.CreatedAt))
	assert.Equal(t, domain.LeanItem{ProductID: productID, Quantity: 2, Price: "30.00"}, doc.Items[0])
	assert.Equal(t, doc.Items, event.Items)
	assert.Equal(t, domain.OrderStatusPending, event.Status)
}

func TestNotFoundError(t *testing.T) {
	id := uuid.New()

	err := domain.NewNotFound(domain.EntityProduct, id)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.EqualError(t, err, "product["+id.String()+"] not found")

	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, id, notFound.ID)
}
