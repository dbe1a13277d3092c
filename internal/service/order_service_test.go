package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/orderledger/internal/domain"
	"github.com/nikolayk812/orderledger/internal/repository/memrepo"
	"github.com/nikolayk812/orderledger/internal/service"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type orderFixture struct {
	store     *memrepo.Store
	publisher *fakePublisher
	indexer   *fakeIndexer
	cache     *fakeCache
	logs      *observer.ObservedLogs
	svc       *service.OrderService

	p1 domain.Product
	p2 domain.Product
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()

	core, logs := observer.New(zapcore.DebugLevel)

	f := &orderFixture{
		store:     memrepo.New(),
		publisher: &fakePublisher{},
		indexer:   newFakeIndexer(),
		cache:     newFakeCache(),
		logs:      logs,
	}

	f.svc = service.NewOrderService(f.store, f.publisher, f.indexer, zap.New(core),
		service.WithProductCache(f.cache),
		service.WithTopics(service.Topics{OrderCreated: "created", OrderUpdated: "updated"}),
		service.WithPropagationTimeout(time.Second),
	)

	insert := func(name, price string, stock int) domain.Product {
		p, err := f.store.Products().InsertProduct(t.Context(), domain.Product{
			Name:     name,
			Price:    decimal.RequireFromString(price),
			StockQty: stock,
		})
		require.NoError(t, err)
		return p
	}

	f.p1 = insert("Smartphone", "800.00", 10)
	f.p2 = insert("Headphones", "150.00", 10)

	return f
}

func (f *orderFixture) stock(t *testing.T, productID uuid.UUID) int {
	t.Helper()

	p, err := f.store.Products().GetProduct(t.Context(), productID)
	require.NoError(t, err)
	return p.StockQty
}

func newItem(productID uuid.UUID, qty int) domain.DesiredItem {
	return domain.DesiredItem{ProductID: lo.ToPtr(productID), Quantity: qty}
}

func TestOrderServiceCreate(t *testing.T) {
	tests := []struct {
		name      string
		inFunc    func(f *orderFixture) domain.CreateOrder
		wantError error
		wantStock func(f *orderFixture) map[uuid.UUID]int
	}{
		{
			name: "valid order: ok",
			inFunc: func(f *orderFixture) domain.CreateOrder {
				return domain.CreateOrder{Items: []domain.DesiredItem{newItem(f.p1.ID, 2), newItem(f.p2.ID, 1)}}
			},
			wantStock: func(f *orderFixture) map[uuid.UUID]int {
				return map[uuid.UUID]int{f.p1.ID: 8, f.p2.ID: 9}
			},
		},
		{
			name: "insufficient stock: nothing debited",
			inFunc: func(f *orderFixture) domain.CreateOrder {
				return domain.CreateOrder{Items: []domain.DesiredItem{newItem(f.p1.ID, 2), newItem(f.p2.ID, 11)}}
			},
			wantError: domain.ErrInsufficientStock,
			wantStock: func(f *orderFixture) map[uuid.UUID]int {
				return map[uuid.UUID]int{f.p1.ID: 10, f.p2.ID: 10}
			},
		},
		{
			name: "unknown product: not found",
			inFunc: func(f *orderFixture) domain.CreateOrder {
				return domain.CreateOrder{Items: []domain.DesiredItem{newItem(f.p1.ID, 1), newItem(uuid.New(), 1)}}
			},
			wantError: domain.ErrNotFound,
			wantStock: func(f *orderFixture) map[uuid.UUID]int {
				return map[uuid.UUID]int{f.p1.ID: 10, f.p2.ID: 10}
			},
		},
		{
			name: "no items: validation",
			inFunc: func(f *orderFixture) domain.CreateOrder {
				return domain.CreateOrder{}
			},
			wantError: domain.ErrValidation,
			wantStock: func(f *orderFixture) map[uuid.UUID]int {
				return map[uuid.UUID]int{f.p1.ID: 10, f.p2.ID: 10}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := t.Context()
			f := newOrderFixture(t)

			order, err := f.svc.Create(ctx, tt.inFunc(f))

			for productID, want := range tt.wantStock(f) {
				assert.Equal(t, want, f.stock(t, productID))
			}

			if tt.wantError != nil {
				require.ErrorIs(t, err, tt.wantError)

				orders, err := f.svc.List(ctx)
				require.NoError(t, err)
				assert.Empty(t, orders, "no order row persisted")
				assert.Empty(t, f.publisher.messages)
				assert.Empty(t, f.indexer.docs)
				assert.Equal(t, 1, f.logs.FilterField(zap.String("stage", string(service.StageFailed))).Len())
				return
			}
			require.NoError(t, err)

			assert.Equal(t, domain.OrderStatusPending, order.Status)
			require.Len(t, order.Items, 2)
			for _, item := range order.Items {
				require.NotNil(t, item.Product)
			}

			require.Len(t, f.publisher.messages, 1)
			msg := f.publisher.messages[0]
			assert.Equal(t, "created", msg.topic)
			assert.Equal(t, order.ID.String(), msg.key)

			var event domain.OrderEvent
			require.NoError(t, json.Unmarshal(msg.payload, &event))
			assert.Equal(t, domain.NewOrderEvent(order), event)

			assert.Equal(t, domain.NewOrderDocument(order), f.indexer.docs[order.ID])
			assert.ElementsMatch(t, []uuid.UUID{f.p1.ID, f.p2.ID}, f.cache.invalidated)
			assert.Equal(t, 1, f.logs.FilterField(zap.String("stage", string(service.StagePropagated))).Len())
		})
	}
}

func TestOrderServiceCreateWithStatus(t *testing.T) {
	f := newOrderFixture(t)

	order, err := f.svc.Create(t.Context(), domain.CreateOrder{
		Status: domain.OrderStatusProcessing,
		Items:  []domain.DesiredItem{newItem(f.p1.ID, 1)},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusProcessing, order.Status)
}

func TestOrderServicePropagationIsolation(t *testing.T) {
	ctx := t.Context()
	f := newOrderFixture(t)

	f.publisher.err = errors.New("broker unavailable")
	f.indexer.upsertErr = errors.New("index unavailable")

	order, err := f.svc.Create(ctx, domain.CreateOrder{Items: []domain.DesiredItem{newItem(f.p1.ID, 3)}})
	require.NoError(t, err)

	stored, err := f.svc.FindOne(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, stored.ID)
	assert.Equal(t, 7, f.stock(t, f.p1.ID))

	updated, err := f.svc.Update(ctx, order.ID, domain.UpdateOrder{Status: lo.ToPtr(domain.OrderStatusShipped)})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusShipped, updated.Status)

	partial := f.logs.FilterField(zap.String("stage", string(service.StagePartiallyPropagated)))
	assert.Equal(t, 2, partial.Len())
	assert.Equal(t, 2, f.logs.FilterMessage("order event publish failed").Len())
	assert.Equal(t, 2, f.logs.FilterMessage("search document upsert failed").Len())
}

func TestOrderServicePropagationOutlivesCaller(t *testing.T) {
	f := newOrderFixture(t)

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	// the caller goes away right after the commit
	f.publisher.onPublish = cancel

	order, err := f.svc.Create(ctx, domain.CreateOrder{Items: []domain.DesiredItem{newItem(f.p1.ID, 1)}})
	require.NoError(t, err)

	assert.Len(t, f.publisher.messages, 1)
	assert.Contains(t, f.indexer.docs, order.ID)
}

func TestOrderServiceCanceledCallerAbortsTx(t *testing.T) {
	f := newOrderFixture(t)

	order, err := f.svc.Create(t.Context(), domain.CreateOrder{Items: []domain.DesiredItem{newItem(f.p1.ID, 1)}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err = f.svc.Update(ctx, order.ID, domain.UpdateOrder{
		Items: []domain.DesiredItem{{ID: lo.ToPtr(order.Items[0].ID), Quantity: 3}},
	})
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, 9, f.stock(t, f.p1.ID))
	assert.Len(t, f.publisher.messages, 1)
}

func TestOrderServiceUpdate(t *testing.T) {
	ctx := t.Context()
	f := newOrderFixture(t)

	order, err := f.svc.Create(ctx, domain.CreateOrder{Items: []domain.DesiredItem{newItem(f.p1.ID, 2), newItem(f.p2.ID, 1)}})
	require.NoError(t, err)

	a, _ := lo.Find(order.Items, func(i domain.OrderItem) bool { return i.ProductID == f.p1.ID })

	updated, err := f.svc.Update(ctx, order.ID, domain.UpdateOrder{
		Status: lo.ToPtr(domain.OrderStatusProcessing),
		Items:  []domain.DesiredItem{{ID: lo.ToPtr(a.ID), Quantity: 5}},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.OrderStatusProcessing, updated.Status)
	require.Len(t, updated.Items, 1)
	assert.Equal(t, 5, updated.Items[0].Quantity)
	assert.Equal(t, 5, f.stock(t, f.p1.ID))
	assert.Equal(t, 10, f.stock(t, f.p2.ID))

	require.Len(t, f.publisher.messages, 2)
	msg := f.publisher.messages[1]
	assert.Equal(t, "updated", msg.topic)

	var event map[string]any
	require.NoError(t, json.Unmarshal(msg.payload, &event))
	assert.Equal(t, map[string]any{
		"id":     order.ID.String(),
		"status": "PROCESSING",
		"items": []any{
			map[string]any{"productId": f.p1.ID.String(), "quantity": float64(5), "price": "800.00"},
		},
	}, event)

	assert.Equal(t, domain.OrderStatusProcessing, f.indexer.docs[order.ID].Status)
}

func TestOrderServiceUpdateFailures(t *testing.T) {
	tests := []struct {
		name      string
		inFunc    func(f *orderFixture, order domain.Order) (uuid.UUID, domain.UpdateOrder)
		wantError error
	}{
		{
			name: "missing order: not found",
			inFunc: func(f *orderFixture, order domain.Order) (uuid.UUID, domain.UpdateOrder) {
				return uuid.New(), domain.UpdateOrder{Status: lo.ToPtr(domain.OrderStatusShipped)}
			},
			wantError: domain.ErrNotFound,
		},
		{
			name: "unknown item id: not found",
			inFunc: func(f *orderFixture, order domain.Order) (uuid.UUID, domain.UpdateOrder) {
				return order.ID, domain.UpdateOrder{
					Status: lo.ToPtr(domain.OrderStatusShipped),
					Items:  []domain.DesiredItem{{ID: lo.ToPtr(uuid.New()), Quantity: 1}},
				}
			},
			wantError: domain.ErrNotFound,
		},
		{
			name: "insufficient stock: status change rolled back too",
			inFunc: func(f *orderFixture, order domain.Order) (uuid.UUID, domain.UpdateOrder) {
				return order.ID, domain.UpdateOrder{
					Status: lo.ToPtr(domain.OrderStatusShipped),
					Items:  []domain.DesiredItem{{ID: lo.ToPtr(order.Items[0].ID), Quantity: 100}},
				}
			},
			wantError: domain.ErrInsufficientStock,
		},
		{
			name: "invalid status: validation",
			inFunc: func(f *orderFixture, order domain.Order) (uuid.UUID, domain.UpdateOrder) {
				return order.ID, domain.UpdateOrder{Status: lo.ToPtr(domain.OrderStatus("LOST"))}
			},
			wantError: domain.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := t.Context()
			f := newOrderFixture(t)

			order, err := f.svc.Create(ctx, domain.CreateOrder{Items: []domain.DesiredItem{newItem(f.p1.ID, 2)}})
			require.NoError(t, err)

			orderID, in := tt.inFunc(f, order)

			_, err = f.svc.Update(ctx, orderID, in)
			require.ErrorIs(t, err, tt.wantError)

			stored, err := f.svc.FindOne(ctx, order.ID)
			require.NoError(t, err)
			assert.Equal(t, domain.OrderStatusPending, stored.Status)
			assert.Equal(t, 2, stored.Items[0].Quantity)
			assert.Equal(t, 8, f.stock(t, f.p1.ID))
			assert.Len(t, f.publisher.messages, 1, "only the create was published")
		})
	}
}

func TestOrderServiceUpdateNoop(t *testing.T) {
	ctx := t.Context()
	f := newOrderFixture(t)

	order, err := f.svc.Create(ctx, domain.CreateOrder{Items: []domain.DesiredItem{newItem(f.p1.ID, 2)}})
	require.NoError(t, err)

	unchanged, err := f.svc.Update(ctx, order.ID, domain.UpdateOrder{})
	require.NoError(t, err)
	assert.Equal(t, order.ID, unchanged.ID)
	assert.Equal(t, order.UpdatedAt, unchanged.UpdatedAt)
	assert.Len(t, f.publisher.messages, 1)

	update := f.logs.FilterField(zap.String("operation", "update"))
	require.Equal(t, 1, update.FilterField(zap.String("stage", string(service.StageUnchanged))).Len())
	assert.Zero(t, update.FilterField(zap.String("stage", string(service.StageCommitted))).Len())
	last := update.All()[update.Len()-1]
	assert.Equal(t, string(service.StageUnchanged), last.ContextMap()["stage"])

	_, err = f.svc.Update(ctx, uuid.New(), domain.UpdateOrder{})
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 1, f.logs.FilterField(zap.String("stage", string(service.StageFailed))).Len())
}

func TestOrderServiceDelete(t *testing.T) {
	ctx := t.Context()
	f := newOrderFixture(t)

	order, err := f.svc.Create(ctx, domain.CreateOrder{Items: []domain.DesiredItem{newItem(f.p1.ID, 4)}})
	require.NoError(t, err)
	require.Contains(t, f.indexer.docs, order.ID)

	f.indexer.deleteErr = errors.New("index unavailable")
	require.NoError(t, f.svc.Delete(ctx, order.ID))

	_, err = f.svc.FindOne(ctx, order.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	// stock consumed by a deleted order is not restored
	assert.Equal(t, 6, f.stock(t, f.p1.ID))

	err = f.svc.Delete(ctx, order.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.Update(ctx, order.ID, domain.UpdateOrder{Status: lo.ToPtr(domain.OrderStatusShipped)})
	require.ErrorIs(t, err, domain.ErrNotFound)

	assert.Equal(t, 1, f.logs.FilterMessage("search document delete failed").Len())
}

func TestOrderServiceSearch(t *testing.T) {
	ctx := t.Context()
	f := newOrderFixture(t)

	_, err := f.svc.Create(ctx, domain.CreateOrder{Items: []domain.DesiredItem{newItem(f.p1.ID, 1)}})
	require.NoError(t, err)
	shipped, err := f.svc.Create(ctx, domain.CreateOrder{Status: domain.OrderStatusShipped, Items: []domain.DesiredItem{newItem(f.p2.ID, 1)}})
	require.NoError(t, err)

	docs, err := f.svc.Search(ctx, domain.OrderFilter{})
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	docs, err = f.svc.Search(ctx, domain.OrderFilter{Status: lo.ToPtr(domain.OrderStatusShipped)})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, shipped.ID, docs[0].ID)

	_, err = f.svc.Search(ctx, domain.OrderFilter{CreatedAt: &domain.TimeRange{}})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Len(t, f.indexer.queried, 2, "invalid filter never reaches the index")
}
