package index

import (
	"fmt"

	"github.com/hyperjump/knn/internal/distance"
)

// IndexType represents the searcher implementation to use.
type IndexType string

const (
	// TypeProjection uses random-projection candidate harvesting with exact re-ranking.
	TypeProjection IndexType = "projection"
	// TypeBrute ranks every stored vector. Good for small datasets and ground truth.
	TypeBrute IndexType = "brute"
)

// Options describes a searcher to build with New.
type Options struct {
	Type        string
	Dimensions  int
	Distance    string
	Projections int
	SearchSize  int
	// Seed fixes the projection basis when non-zero.
	Seed int64
}

// New creates a searcher of the requested type.
// Supported types: "projection" (default), "brute".
func New(opts Options) (Searcher, error) {
	measure, err := distance.ByName(opts.Distance)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidConfiguration)
	}
	switch IndexType(opts.Type) {
	case TypeProjection, "":
		var popts []ProjectionOption
		if opts.Seed != 0 {
			popts = append(popts, WithSeed(opts.Seed))
		}
		return NewProjectionSearcher(opts.Dimensions, measure, opts.Projections, opts.SearchSize, popts...)
	case TypeBrute:
		b, err := NewBruteSearcher(opts.Dimensions, measure)
		if err != nil {
			return nil, err
		}
		if err := b.SetSearchSize(opts.SearchSize); err != nil {
			return nil, fmt.Errorf("%v: %w", err, ErrInvalidConfiguration)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown index type: %s (supported: projection, brute): %w", opts.Type, ErrInvalidConfiguration)
	}
}

// IsSupported reports whether New accepts the index type.
func IsSupported(indexType string) bool {
	switch IndexType(indexType) {
	case TypeProjection, TypeBrute, "":
		return true
	}
	return false
}
