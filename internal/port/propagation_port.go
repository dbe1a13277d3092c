package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/nikolayk812/orderledger/internal/domain"
)

type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, payload []byte) error
}

type SearchIndexer interface {
	EnsureIndex(ctx context.Context) error
	UpsertDocument(ctx context.Context, orderID uuid.UUID, doc domain.OrderDocument) error
	DeleteDocument(ctx context.Context, orderID uuid.UUID) error
	Query(ctx context.Context, filter domain.OrderFilter) ([]domain.OrderDocument, error)
}

// ProductCache is a read-through cache of catalog reads, never consulted for stock decisions.
type ProductCache interface {
	Get(ctx context.Context, productID uuid.UUID) (domain.Product, bool)
	// Set stores product only when no entry exists and the key was not invalidated recently
	Set(ctx context.Context, product domain.Product)
	Invalidate(ctx context.Context, productIDs ...uuid.UUID)
}
