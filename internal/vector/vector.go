// Package vector provides the dense vector type used by the indexes and distance measures.
package vector

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Vector is a dense vector of fixed dimension. Indexes treat stored vectors as immutable.
type Vector []float64

// New returns a zero vector of the given dimension.
func New(dim int) Vector {
	return make(Vector, dim)
}

// Dim returns the number of components.
func (v Vector) Dim() int {
	return len(v)
}

// Dot returns the inner product of v and o. Both must have the same dimension.
func (v Vector) Dot(o Vector) float64 {
	var dot float64
	for i := range v {
		dot += v[i] * o[i]
	}
	return dot
}

// Norm returns the L2 norm of v.
func (v Vector) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// Normalize scales v in place to unit L2 norm.
// If the norm is zero, v is unchanged.
func (v Vector) Normalize() {
	norm := v.Norm()
	if norm == 0 {
		return
	}
	scale := 1.0 / norm
	for i := range v {
		v[i] *= scale
	}
}

// Normalized returns a unit-length copy of v.
func (v Vector) Normalized() Vector {
	out := v.Clone()
	out.Normalize()
	return out
}

// Clone returns a copy of v.
func (v Vector) Clone() Vector {
	if v == nil {
		return nil
	}
	out := make(Vector, len(v))
	copy(out, v)
	return out
}

// Equal reports whether v and o have the same dimension and components.
func (v Vector) Equal(o Vector) bool {
	if len(v) != len(o) {
		return false
	}
	for i := range v {
		if v[i] != o[i] {
			return false
		}
	}
	return true
}

// IsFinite reports whether every component is neither NaN nor infinite.
func (v Vector) IsFinite() bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// String formats v as comma-separated components, the same form Parse accepts.
func (v Vector) String() string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.FormatFloat(x, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

// Parse reads a comma-separated list of components such as "0.1,0.2,3".
// NaN and infinite components are rejected.
func Parse(s string) (Vector, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty vector")
	}
	fields := strings.Split(s, ",")
	out := make(Vector, len(fields))
	for i, f := range fields {
		x, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, fmt.Errorf("component %d: %w", i, err)
		}
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, fmt.Errorf("component %d: %q is not a finite number", i, strings.TrimSpace(f))
		}
		out[i] = x
	}
	return out, nil
}
