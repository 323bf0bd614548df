package index

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/emirpasic/gods/trees/redblacktree"

	"github.com/hyperjump/knn/internal/distance"
	"github.com/hyperjump/knn/internal/vector"
)

// MaxProjections is the exclusive upper bound on the number of projections.
const MaxProjections = 100

// ProjectionSearcher is an approximate nearest-neighbor index over random projections.
// Every inserted vector is kept in one red-black tree per random unit basis vector,
// ordered by its dot product with that basis. A search walks a window of
// SearchSize entries on each side of the query's projected position in every
// tree, unions what it finds, and ranks that candidate set by exact distance.
type ProjectionSearcher struct {
	dimension  int
	measure    distance.Measure
	basis      []vector.Vector
	trees      []*redblacktree.Tree // index-aligned with basis
	vectors    []vector.Vector      // by ordinal
	searchSize int
	mu         sync.RWMutex
}

type projectionSettings struct {
	rng *rand.Rand
}

// ProjectionOption configures a ProjectionSearcher.
type ProjectionOption func(*projectionSettings)

// WithSeed generates the basis from a fixed seed so that the index is reproducible.
func WithSeed(seed int64) ProjectionOption {
	return func(s *projectionSettings) { s.rng = rand.New(rand.NewSource(seed)) }
}

// WithRand generates the basis from r.
func WithRand(r *rand.Rand) ProjectionOption {
	return func(s *projectionSettings) { s.rng = r }
}

// NewProjectionSearcher creates a projection index for vectors of the given dimension.
// projections must be in (0, MaxProjections); searchSize is the number of neighbors
// harvested on each side of the query per projection.
func NewProjectionSearcher(dimension int, measure distance.Measure, projections, searchSize int, opts ...ProjectionOption) (*ProjectionSearcher, error) {
	if projections <= 0 || projections >= MaxProjections {
		return nil, fmt.Errorf("projections must be in (0, %d), got %d: %w", MaxProjections, projections, ErrInvalidConfiguration)
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("dimensions must be positive, got %d: %w", dimension, ErrInvalidConfiguration)
	}
	if measure == nil {
		return nil, fmt.Errorf("distance measure is required: %w", ErrInvalidConfiguration)
	}
	if searchSize < 0 {
		return nil, fmt.Errorf("search size must not be negative, got %d: %w", searchSize, ErrInvalidConfiguration)
	}

	settings := projectionSettings{}
	for _, opt := range opts {
		opt(&settings)
	}
	if settings.rng == nil {
		settings.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	p := &ProjectionSearcher{
		dimension:  dimension,
		measure:    measure,
		basis:      make([]vector.Vector, projections),
		trees:      make([]*redblacktree.Tree, projections),
		searchSize: searchSize,
	}
	for i := range p.basis {
		p.basis[i] = randomUnitVector(settings.rng, dimension)
		p.trees[i] = redblacktree.NewWith(weightedComparator)
	}
	return p, nil
}

// randomUnitVector draws standard normal components and scales them to unit length.
func randomUnitVector(rng *rand.Rand, dim int) vector.Vector {
	for {
		v := vector.New(dim)
		for i := range v {
			v[i] = rng.NormFloat64()
		}
		if v.Norm() > 0 {
			v.Normalize()
			return v
		}
	}
}

// Type returns the index type identifier.
func (p *ProjectionSearcher) Type() string {
	return string(TypeProjection)
}

// Dimension returns the vector dimension accepted by the index.
func (p *ProjectionSearcher) Dimension() int {
	return p.dimension
}

// Projections returns the number of basis vectors.
func (p *ProjectionSearcher) Projections() int {
	return len(p.basis)
}

// Add inserts v into every projection tree. The vector is copied.
func (p *ProjectionSearcher) Add(ctx context.Context, v vector.Vector) error {
	if len(v) != p.dimension {
		return fmt.Errorf("vector has %d components, index expects %d: %w", len(v), p.dimension, ErrDimensionMismatch)
	}
	if err := checkFinite("vector", v); err != nil {
		return err
	}
	stored := v.Clone()

	p.mu.Lock()
	defer p.mu.Unlock()
	ordinal := len(p.vectors)
	for i, b := range p.basis {
		p.trees[i].Put(WeightedVector{Vector: stored, Weight: stored.Dot(b), Ordinal: ordinal}, nil)
	}
	p.vectors = append(p.vectors, stored)
	return nil
}

// Search returns up to n vectors closest to query under the index's distance measure,
// closest first. When n >= Size every stored vector is ranked.
func (p *ProjectionSearcher) Search(ctx context.Context, query vector.Vector, n int) ([]Result, error) {
	if len(query) != p.dimension {
		return nil, fmt.Errorf("query has %d components, index expects %d: %w", len(query), p.dimension, ErrDimensionMismatch)
	}
	if n <= 0 {
		return nil, fmt.Errorf("n must be positive, got %d: %w", n, ErrInvalidArgument)
	}
	if err := checkFinite("query", query); err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if n >= len(p.vectors) {
		all := make(map[int]struct{}, len(p.vectors))
		for ordinal := range p.vectors {
			all[ordinal] = struct{}{}
		}
		return p.rank(query, all, n), nil
	}
	return p.rank(query, p.candidates(query, p.searchSize), n), nil
}

// candidates unions the per-projection windows around query. Caller holds p.mu.
func (p *ProjectionSearcher) candidates(query vector.Vector, searchSize int) map[int]struct{} {
	found := make(map[int]struct{})
	if searchSize <= 0 {
		return found
	}
	for i, b := range p.basis {
		projected := WeightedVector{Vector: query, Weight: query.Dot(b), Ordinal: queryOrdinal}
		harvest(p.trees[i], projected, searchSize, found)
	}
	return found
}

// harvest adds up to size entries with weight >= q.Weight and up to size entries
// with weight < q.Weight, nearest in projection first.
func harvest(tree *redblacktree.Tree, q WeightedVector, size int, into map[int]struct{}) {
	if node, ok := tree.Ceiling(q); ok {
		it := tree.IteratorAt(node)
		for i := 0; i < size; i++ {
			into[it.Key().(WeightedVector).Ordinal] = struct{}{}
			if !it.Next() {
				break
			}
		}
	}
	// q sorts before every entry of equal weight, so its floor is the
	// largest entry with a strictly smaller weight.
	if node, ok := tree.Floor(q); ok {
		it := tree.IteratorAt(node)
		for i := 0; i < size; i++ {
			into[it.Key().(WeightedVector).Ordinal] = struct{}{}
			if !it.Prev() {
				break
			}
		}
	}
}

// rank computes the exact distance to every candidate and keeps the n closest.
// Caller holds p.mu.
func (p *ProjectionSearcher) rank(query vector.Vector, candidates map[int]struct{}, n int) []Result {
	results := make([]Result, 0, len(candidates))
	for ordinal := range candidates {
		v := p.vectors[ordinal]
		results = append(results, Result{
			Vector:   v.Clone(),
			Distance: p.measure.Distance(query, v),
			Ordinal:  ordinal,
		})
	}
	sortResults(results)
	if n < len(results) {
		results = results[:n]
	}
	return results
}

// sortResults orders by distance, then by insertion order.
func sortResults(results []Result) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].Ordinal < results[j].Ordinal
	})
}

// Size returns the number of vectors in the index.
func (p *ProjectionSearcher) Size() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.vectors)
}

// SearchSize returns the per-side, per-projection harvesting window.
func (p *ProjectionSearcher) SearchSize() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.searchSize
}

// SetSearchSize changes the harvesting window for subsequent searches.
func (p *ProjectionSearcher) SetSearchSize(k int) error {
	if k < 0 {
		return fmt.Errorf("search size must not be negative, got %d: %w", k, ErrInvalidArgument)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.searchSize = k
	return nil
}
