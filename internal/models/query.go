package models

import "fmt"

// SearchQuery represents a nearest-neighbor search request.
type SearchQuery struct {
	Vector []float64 `json:"vector"`
	Limit  int       `json:"limit,omitempty"`
	// SearchSize overrides the index harvesting window for this query when positive.
	SearchSize int `json:"search_size,omitempty"`
}

// Validate ensures the query has a vector and normalizes Limit into [1, maxLimit].
func (q *SearchQuery) Validate(defaultLimit, maxLimit int) error {
	if len(q.Vector) == 0 {
		return fmt.Errorf("query vector cannot be empty")
	}
	if q.SearchSize < 0 {
		return fmt.Errorf("search_size must not be negative")
	}
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	if maxLimit > 0 && q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	return nil
}
