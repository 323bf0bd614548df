package index

import (
	"context"
	"fmt"
	"sync"

	"github.com/hyperjump/knn/internal/distance"
	"github.com/hyperjump/knn/internal/vector"
)

// BruteSearcher is an exact index that ranks every stored vector on each search.
// Suitable for tests, small datasets, and as ground truth for recall measurements.
type BruteSearcher struct {
	dimension  int
	measure    distance.Measure
	vectors    []vector.Vector
	searchSize int
	mu         sync.RWMutex
}

// NewBruteSearcher creates an exhaustive index with the given dimension.
func NewBruteSearcher(dimension int, measure distance.Measure) (*BruteSearcher, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("dimensions must be positive, got %d: %w", dimension, ErrInvalidConfiguration)
	}
	if measure == nil {
		return nil, fmt.Errorf("distance measure is required: %w", ErrInvalidConfiguration)
	}
	return &BruteSearcher{
		dimension: dimension,
		measure:   measure,
		vectors:   make([]vector.Vector, 0),
	}, nil
}

// Type returns the index type identifier.
func (b *BruteSearcher) Type() string {
	return string(TypeBrute)
}

// Dimension returns the vector dimension accepted by the index.
func (b *BruteSearcher) Dimension() int {
	return b.dimension
}

// Add appends a copy of v.
func (b *BruteSearcher) Add(ctx context.Context, v vector.Vector) error {
	if len(v) != b.dimension {
		return fmt.Errorf("vector has %d components, index expects %d: %w", len(v), b.dimension, ErrDimensionMismatch)
	}
	if err := checkFinite("vector", v); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.vectors = append(b.vectors, v.Clone())
	return nil
}

// Search returns the n closest vectors to query, closest first.
func (b *BruteSearcher) Search(ctx context.Context, query vector.Vector, n int) ([]Result, error) {
	if len(query) != b.dimension {
		return nil, fmt.Errorf("query has %d components, index expects %d: %w", len(query), b.dimension, ErrDimensionMismatch)
	}
	if n <= 0 {
		return nil, fmt.Errorf("n must be positive, got %d: %w", n, ErrInvalidArgument)
	}
	if err := checkFinite("query", query); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	results := make([]Result, len(b.vectors))
	for i, v := range b.vectors {
		results[i] = Result{Vector: v.Clone(), Distance: b.measure.Distance(query, v), Ordinal: i}
	}
	sortResults(results)
	if n < len(results) {
		results = results[:n]
	}
	return results, nil
}

// Size returns the number of vectors in the index.
func (b *BruteSearcher) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.vectors)
}

// SearchSize is recorded for interface parity; exhaustive search ignores it.
func (b *BruteSearcher) SearchSize() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.searchSize
}

// SetSearchSize records k. It has no effect on results.
func (b *BruteSearcher) SetSearchSize(k int) error {
	if k < 0 {
		return fmt.Errorf("search size must not be negative, got %d: %w", k, ErrInvalidArgument)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.searchSize = k
	return nil
}
