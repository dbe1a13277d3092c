// Package search keeps the denormalized order documents in Elasticsearch.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/nikolayk812/orderledger/internal/domain"
	"go.uber.org/zap"
)

const (
	DefaultIndex      = "orders"
	DefaultMaxResults = 100
)

// mapping of the order documents, items are nested so that one item has to match
// every item predicate of a query
const indexMapping = `{
  "mappings": {
    "properties": {
      "id":        {"type": "keyword"},
      "status":    {"type": "keyword"},
      "createdAt": {"type": "date"},
      "items": {
        "type": "nested",
        "properties": {
          "productId": {"type": "keyword"},
          "quantity":  {"type": "integer"},
          "price":     {"type": "scaled_float", "scaling_factor": 100}
        }
      }
    }
  }
}`

type Indexer struct {
	client     *elasticsearch.Client
	index      string
	maxResults int
	logger     *zap.Logger

	mu      sync.Mutex
	ensured bool
}

func NewClient(nodes ...string) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: nodes,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch.NewClient: %w", err)
	}

	return client, nil
}

func NewIndexer(client *elasticsearch.Client, index string, maxResults int, logger *zap.Logger) *Indexer {
	if index == "" {
		index = DefaultIndex
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	return &Indexer{
		client:     client,
		index:      index,
		maxResults: maxResults,
		logger:     logger,
	}
}

// EnsureIndex creates the index with its mapping unless it exists. A successful check is
// remembered for the lifetime of the Indexer, a failed one is retried on the next call.
func (i *Indexer) EnsureIndex(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.ensured {
		return nil
	}

	res, err := i.client.Indices.Exists([]string{i.index}, i.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("Indices.Exists: %w", err)
	}
	drain(res)

	switch res.StatusCode {
	case http.StatusOK:
		i.ensured = true
		return nil
	case http.StatusNotFound:
	default:
		return fmt.Errorf("Indices.Exists: unexpected status[%d]", res.StatusCode)
	}

	res, err = i.client.Indices.Create(i.index,
		i.client.Indices.Create.WithBody(bytes.NewReader([]byte(indexMapping))),
		i.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("Indices.Create: %w", err)
	}
	defer drain(res)

	// a concurrent creator may have won the race
	if res.IsError() && !isAlreadyExists(res) {
		return fmt.Errorf("Indices.Create: %w", responseError(res))
	}

	i.ensured = true
	i.logger.Info("search index created", zap.String("index", i.index))

	return nil
}

// UpsertDocument replaces the whole document of the order.
func (i *Indexer) UpsertDocument(ctx context.Context, orderID uuid.UUID, doc domain.OrderDocument) error {
	if err := i.EnsureIndex(ctx); err != nil {
		return fmt.Errorf("i.EnsureIndex: %w", err)
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}

	res, err := i.client.Index(i.index, bytes.NewReader(body),
		i.client.Index.WithDocumentID(orderID.String()),
		i.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("client.Index: %w", err)
	}
	defer drain(res)

	if res.IsError() {
		return fmt.Errorf("client.Index: %w", responseError(res))
	}

	return nil
}

// DeleteDocument removes the document of the order, a missing document is not an error.
func (i *Indexer) DeleteDocument(ctx context.Context, orderID uuid.UUID) error {
	res, err := i.client.Delete(i.index, orderID.String(), i.client.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("client.Delete: %w", err)
	}
	defer drain(res)

	if res.StatusCode == http.StatusNotFound {
		return nil
	}

	if res.IsError() {
		return fmt.Errorf("client.Delete: %w", responseError(res))
	}

	return nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string               `json:"_id"`
			Source domain.OrderDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Query returns at most maxResults documents matching every set field of filter.
func (i *Indexer) Query(ctx context.Context, filter domain.OrderFilter) ([]domain.OrderDocument, error) {
	if err := i.EnsureIndex(ctx); err != nil {
		return nil, fmt.Errorf("i.EnsureIndex: %w", err)
	}

	body, err := json.Marshal(buildQuery(filter, i.maxResults))
	if err != nil {
		return nil, fmt.Errorf("json.Marshal: %w", err)
	}

	res, err := i.client.Search(
		i.client.Search.WithContext(ctx),
		i.client.Search.WithIndex(i.index),
		i.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("client.Search: %w", err)
	}
	defer drain(res)

	if res.IsError() {
		return nil, fmt.Errorf("client.Search: %w", responseError(res))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("json.Decode: %w", err)
	}

	docs := make([]domain.OrderDocument, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		doc := hit.Source

		id, err := uuid.Parse(hit.ID)
		if err != nil {
			i.logger.Warn("skipping search hit with foreign id", zap.String("id", hit.ID))
			continue
		}
		doc.ID = id

		docs = append(docs, doc)
	}

	return docs, nil
}

func responseError(res *esapi.Response) error {
	body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
	return fmt.Errorf("status[%d]: %s", res.StatusCode, bytes.TrimSpace(body))
}

func isAlreadyExists(res *esapi.Response) bool {
	if res.StatusCode != http.StatusBadRequest {
		return false
	}

	var body struct {
		Error struct {
			Type string `json:"type"`
		} `json:"error"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return false
	}

	return body.Error.Type == "resource_already_exists_exception"
}

// drain lets the transport reuse the connection.
func drain(res *esapi.Response) {
	if res == nil || res.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, res.Body)
	_ = res.Body.Close()
}
