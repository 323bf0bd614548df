// Package distance provides the distance measures used to rank search candidates.
package distance

import (
	"fmt"
	"math"

	"github.com/hyperjump/knn/internal/vector"
)

// Measure computes a non-negative distance between two vectors of equal dimension.
// Implementations must be deterministic and symmetric.
type Measure interface {
	Distance(a, b vector.Vector) float64
}

// Name identifies a built-in measure in configuration.
type Name string

const (
	NameEuclidean        Name = "euclidean"
	NameSquaredEuclidean Name = "squared_euclidean"
	NameManhattan        Name = "manhattan"
	NameCosine           Name = "cosine"
)

// ByName returns the built-in measure for name. An empty name selects Euclidean.
func ByName(name string) (Measure, error) {
	switch Name(name) {
	case NameEuclidean, "":
		return Euclidean{}, nil
	case NameSquaredEuclidean:
		return SquaredEuclidean{}, nil
	case NameManhattan:
		return Manhattan{}, nil
	case NameCosine:
		return Cosine{}, nil
	default:
		return nil, fmt.Errorf("unknown distance measure: %s (supported: euclidean, squared_euclidean, manhattan, cosine)", name)
	}
}

// Euclidean is the L2 distance.
type Euclidean struct{}

func (Euclidean) Distance(a, b vector.Vector) float64 {
	return math.Sqrt(SquaredEuclidean{}.Distance(a, b))
}

// SquaredEuclidean ranks like Euclidean without the square root.
type SquaredEuclidean struct{}

func (SquaredEuclidean) Distance(a, b vector.Vector) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// Manhattan is the L1 distance.
type Manhattan struct{}

func (Manhattan) Distance(a, b vector.Vector) float64 {
	var sum float64
	for i := range a {
		sum += math.Abs(a[i] - b[i])
	}
	return sum
}

// Cosine is 1 minus the cosine similarity, clamped to [0, 2].
// A zero vector is at distance 1 from everything.
type Cosine struct{}

func (Cosine) Distance(a, b vector.Vector) float64 {
	na, nb := a.Norm(), b.Norm()
	if na == 0 || nb == 0 {
		return 1
	}
	sim := a.Dot(b) / (na * nb)
	return math.Max(0, math.Min(2, 1-sim))
}
