package service_test

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/nikolayk812/orderledger/internal/domain"
)

type publishedMessage struct {
	topic   string
	key     string
	payload []byte
}

type fakePublisher struct {
	mu       sync.Mutex
	err      error
	messages []publishedMessage
	// onPublish runs before every publish attempt
	onPublish func()
}

func (p *fakePublisher) Publish(ctx context.Context, topic, key string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.onPublish != nil {
		p.onPublish()
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if p.err != nil {
		return p.err
	}

	p.messages = append(p.messages, publishedMessage{topic: topic, key: key, payload: payload})
	return nil
}

type fakeIndexer struct {
	mu        sync.Mutex
	upsertErr error
	deleteErr error
	docs      map[uuid.UUID]domain.OrderDocument
	queried   []domain.OrderFilter
}

func newFakeIndexer() *fakeIndexer {
	return &fakeIndexer{docs: make(map[uuid.UUID]domain.OrderDocument)}
}

func (i *fakeIndexer) EnsureIndex(context.Context) error {
	return nil
}

func (i *fakeIndexer) UpsertDocument(ctx context.Context, orderID uuid.UUID, doc domain.OrderDocument) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	if i.upsertErr != nil {
		return i.upsertErr
	}
	i.docs[orderID] = doc
	return nil
}

func (i *fakeIndexer) DeleteDocument(_ context.Context, orderID uuid.UUID) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.deleteErr != nil {
		return i.deleteErr
	}
	delete(i.docs, orderID)
	return nil
}

func (i *fakeIndexer) Query(_ context.Context, filter domain.OrderFilter) ([]domain.OrderDocument, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.queried = append(i.queried, filter)

	var result []domain.OrderDocument
	for _, doc := range i.docs {
		if filter.Status != nil && doc.Status != *filter.Status {
			continue
		}
		result = append(result, doc)
	}
	return result, nil
}

type fakeCache struct {
	mu          sync.Mutex
	products    map[uuid.UUID]domain.Product
	invalidated []uuid.UUID
}

func newFakeCache() *fakeCache {
	return &fakeCache{products: make(map[uuid.UUID]domain.Product)}
}

func (c *fakeCache) Get(_ context.Context, productID uuid.UUID) (domain.Product, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.products[productID]
	return p, ok
}

func (c *fakeCache) Set(_ context.Context, product domain.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.products[product.ID] = product
}

func (c *fakeCache) Invalidate(_ context.Context, productIDs ...uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, id := range productIDs {
		delete(c.products, id)
	}
	c.invalidated = append(c.invalidated, productIDs...)
}
