package search

import (
	"time"

	"github.com/nikolayk812/orderledger/internal/domain"
)

// buildQuery renders filter as a bool query, one must clause per set field.
func buildQuery(filter domain.OrderFilter, size int) map[string]any {
	var must []map[string]any

	if filter.ID != nil {
		must = append(must, term("id", filter.ID.String()))
	}

	if filter.Status != nil {
		must = append(must, term("status", string(*filter.Status)))
	}

	if filter.CreatedAt != nil {
		bounds := map[string]any{}
		if filter.CreatedAt.After != nil {
			bounds["gte"] = filter.CreatedAt.After.UTC().Format(time.RFC3339Nano)
		}
		if filter.CreatedAt.Before != nil {
			bounds["lte"] = filter.CreatedAt.Before.UTC().Format(time.RFC3339Nano)
		}
		must = append(must, map[string]any{
			"range": map[string]any{"createdAt": bounds},
		})
	}

	if filter.ProductID != nil {
		must = append(must, map[string]any{
			"nested": map[string]any{
				"path":  "items",
				"query": term("items.productId", filter.ProductID.String()),
			},
		})
	}

	query := map[string]any{"match_all": map[string]any{}}
	if len(must) > 0 {
		query = map[string]any{"bool": map[string]any{"must": must}}
	}

	return map[string]any{
		"size":  size,
		"query": query,
	}
}

func term(field, value string) map[string]any {
	return map[string]any{
		"term": map[string]any{field: value},
	}
}
