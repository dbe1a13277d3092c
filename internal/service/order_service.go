// Package service orchestrates order and product mutations over the record store and
// propagates committed order changes to the event stream and the search index.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/orderledger/internal/domain"
	"github.com/nikolayk812/orderledger/internal/port"
	"github.com/nikolayk812/orderledger/internal/reconciler"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	DefaultOrderCreatedTopic  = "order_created"
	DefaultOrderUpdatedTopic  = "order_updated"
	DefaultPropagationTimeout = 5 * time.Second

	tracerName = "github.com/nikolayk812/orderledger/internal/service"
)

type Topics struct {
	OrderCreated string
	OrderUpdated string
}

type OrderService struct {
	store     port.Store
	publisher port.EventPublisher
	indexer   port.SearchIndexer
	cache     port.ProductCache
	logger    *zap.Logger
	tracer    trace.Tracer

	topics             Topics
	propagationTimeout time.Duration
}

type OrderOption func(*OrderService)

func WithTopics(topics Topics) OrderOption {
	return func(s *OrderService) {
		s.topics = topics
	}
}

func WithPropagationTimeout(timeout time.Duration) OrderOption {
	return func(s *OrderService) {
		if timeout > 0 {
			s.propagationTimeout = timeout
		}
	}
}

// WithProductCache makes the service invalidate cached products whose stock it changed.
func WithProductCache(cache port.ProductCache) OrderOption {
	return func(s *OrderService) {
		s.cache = cache
	}
}

func WithTracer(tracer trace.Tracer) OrderOption {
	return func(s *OrderService) {
		s.tracer = tracer
	}
}

func NewOrderService(store port.Store, publisher port.EventPublisher, indexer port.SearchIndexer, logger *zap.Logger, opts ...OrderOption) *OrderService {
	s := &OrderService{
		store:     store,
		publisher: publisher,
		indexer:   indexer,
		logger:    logger,
		tracer:    otel.Tracer(tracerName),
		topics: Topics{
			OrderCreated: DefaultOrderCreatedTopic,
			OrderUpdated: DefaultOrderUpdatedTopic,
		},
		propagationTimeout: DefaultPropagationTimeout,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Create stores a new order, reserving stock for every item, then publishes order_created
// and indexes the order.
func (s *OrderService) Create(ctx context.Context, in domain.CreateOrder) (domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.Create")
	defer span.End()

	m := newMutation("create", span, s.logger)

	if err := in.Validate(); err != nil {
		return domain.Order{}, m.fail(fmt.Errorf("in.Validate: %w", err))
	}
	m.advance(StageValidated)

	status := in.Status
	if status == "" {
		status = domain.OrderStatusPending
	}

	var (
		order    domain.Order
		adjusted []domain.Product
	)

	err := s.store.WithTx(ctx, func(tx port.Store) error {
		created, err := tx.Orders().InsertOrder(ctx, status)
		if err != nil {
			return fmt.Errorf("orders.InsertOrder: %w", err)
		}

		result, err := reconciler.Reconcile(ctx, tx, created, in.Items)
		if err != nil {
			return fmt.Errorf("reconciler.Reconcile: %w", err)
		}
		adjusted = result.Adjusted
		m.advance(StageReconciled, zap.Int("items", len(result.Items)))

		order, err = tx.Orders().GetOrder(ctx, created.ID)
		if err != nil {
			return fmt.Errorf("orders.GetOrder: %w", err)
		}

		return nil
	})
	if err != nil {
		return domain.Order{}, m.fail(fmt.Errorf("store.WithTx: %w", err))
	}

	span.SetAttributes(attribute.String("order.id", order.ID.String()))
	m.advance(StageCommitted, zap.Stringer("order_id", order.ID))

	s.propagate(ctx, m, s.topics.OrderCreated, order, adjusted)

	return order, nil
}

// Update applies a status change and/or a complete desired item list to an existing order.
// Items nil leaves the items as they are. An update with neither returns the order unchanged
// and propagates nothing.
func (s *OrderService) Update(ctx context.Context, orderID uuid.UUID, in domain.UpdateOrder) (domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.Update", trace.WithAttributes(
		attribute.String("order.id", orderID.String()),
	))
	defer span.End()

	m := newMutation("update", span, s.logger.With(zap.Stringer("order_id", orderID)))

	if err := in.Validate(); err != nil {
		return domain.Order{}, m.fail(fmt.Errorf("in.Validate: %w", err))
	}
	m.advance(StageValidated)

	if in.IsNoop() {
		order, err := s.store.Orders().GetOrder(ctx, orderID)
		if err != nil {
			return domain.Order{}, m.fail(fmt.Errorf("orders.GetOrder: %w", err))
		}
		m.unchanged()
		return order, nil
	}

	var (
		order    domain.Order
		adjusted []domain.Product
	)

	err := s.store.WithTx(ctx, func(tx port.Store) error {
		current, err := tx.Orders().GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return fmt.Errorf("orders.GetOrderForUpdate: %w", err)
		}

		if in.Status != nil && *in.Status != current.Status {
			if err := tx.Orders().UpdateOrderStatus(ctx, orderID, *in.Status); err != nil {
				return fmt.Errorf("orders.UpdateOrderStatus: %w", err)
			}
		}

		if in.Items != nil {
			result, err := reconciler.Reconcile(ctx, tx, current, in.Items)
			if err != nil {
				return fmt.Errorf("reconciler.Reconcile: %w", err)
			}
			adjusted = result.Adjusted
			m.advance(StageReconciled, zap.Int("items", len(result.Items)))
		}

		if err := tx.Orders().TouchOrder(ctx, orderID); err != nil {
			return fmt.Errorf("orders.TouchOrder: %w", err)
		}

		order, err = tx.Orders().GetOrder(ctx, orderID)
		if err != nil {
			return fmt.Errorf("orders.GetOrder: %w", err)
		}

		return nil
	})
	if err != nil {
		return domain.Order{}, m.fail(fmt.Errorf("store.WithTx: %w", err))
	}
	m.advance(StageCommitted)

	s.propagate(ctx, m, s.topics.OrderUpdated, order, adjusted)

	return order, nil
}

// Delete soft deletes the order. Items and stock stay as they are so the stock consumption
// of the order remains on record.
func (s *OrderService) Delete(ctx context.Context, orderID uuid.UUID) error {
	ctx, span := s.tracer.Start(ctx, "OrderService.Delete", trace.WithAttributes(
		attribute.String("order.id", orderID.String()),
	))
	defer span.End()

	m := newMutation("delete", span, s.logger.With(zap.Stringer("order_id", orderID)))
	m.advance(StageValidated)

	if err := s.store.Orders().SoftDeleteOrder(ctx, orderID); err != nil {
		return m.fail(fmt.Errorf("orders.SoftDeleteOrder: %w", err))
	}
	m.advance(StageCommitted)

	pctx, cancel := s.propagationContext(ctx)
	defer cancel()

	failures := 0
	if err := s.indexer.DeleteDocument(pctx, orderID); err != nil {
		failures++
		m.logger.Warn("search document delete failed", zap.Error(err))
	}

	m.finish(failures)

	return nil
}

// List returns every live order with items and their products.
func (s *OrderService) List(ctx context.Context) ([]domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.List")
	defer span.End()

	orders, err := s.store.Orders().ListOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("orders.ListOrders: %w", err)
	}

	return orders, nil
}

func (s *OrderService) FindOne(ctx context.Context, orderID uuid.UUID) (domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.FindOne", trace.WithAttributes(
		attribute.String("order.id", orderID.String()),
	))
	defer span.End()

	order, err := s.store.Orders().GetOrder(ctx, orderID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("orders.GetOrder: %w", err)
	}

	return order, nil
}

// Search queries the search index only, results may lag the record store.
func (s *OrderService) Search(ctx context.Context, filter domain.OrderFilter) ([]domain.OrderDocument, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.Search")
	defer span.End()

	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("filter.Validate: %w", err)
	}

	docs, err := s.indexer.Query(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("indexer.Query: %w", err)
	}

	span.SetAttributes(attribute.Int("search.hits", len(docs)))

	return docs, nil
}

// propagate delivers a committed order to the event stream and the search index.
// Failures are logged and counted, the mutation stays committed.
func (s *OrderService) propagate(ctx context.Context, m *mutation, topic string, order domain.Order, adjusted []domain.Product) {
	pctx, cancel := s.propagationContext(ctx)
	defer cancel()

	failures := 0

	if err := s.publish(pctx, topic, order); err != nil {
		failures++
		m.logger.Warn("order event publish failed",
			zap.String("topic", topic),
			zap.Stringer("order_id", order.ID),
			zap.Error(err),
		)
	}

	if err := s.indexer.UpsertDocument(pctx, order.ID, domain.NewOrderDocument(order)); err != nil {
		failures++
		m.logger.Warn("search document upsert failed",
			zap.Stringer("order_id", order.ID),
			zap.Error(err),
		)
	}

	if s.cache != nil && len(adjusted) > 0 {
		s.cache.Invalidate(pctx, lo.Map(adjusted, func(p domain.Product, _ int) uuid.UUID { return p.ID })...)
	}

	m.finish(failures)
}

func (s *OrderService) publish(ctx context.Context, topic string, order domain.Order) error {
	payload, err := json.Marshal(domain.NewOrderEvent(order))
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}

	if err := s.publisher.Publish(ctx, topic, order.ID.String(), payload); err != nil {
		return fmt.Errorf("publisher.Publish: %w", err)
	}

	return nil
}

// propagationContext outlives the caller's cancellation but not the propagation timeout.
func (s *OrderService) propagationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.propagationTimeout)
}
