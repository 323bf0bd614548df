// Package index provides nearest-neighbor searchers over dense vectors.
package index

import (
	"context"

	"github.com/hyperjump/knn/internal/vector"
)

// Searcher defines vector insertion and top-n nearest-neighbor search.
// Implementations are safe for concurrent use.
type Searcher interface {
	Add(ctx context.Context, v vector.Vector) error
	Search(ctx context.Context, query vector.Vector, n int) ([]Result, error)
	Size() int
	SearchSize() int
	SetSearchSize(k int) error
	Dimension() int
	Type() string
}

// Result is a single search hit, ordered by ascending Distance.
type Result struct {
	Vector   vector.Vector
	Distance float64
	Ordinal  int // 0-based insertion sequence of the vector
}
