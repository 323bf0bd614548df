package index

import (
	"cmp"

	"github.com/hyperjump/knn/internal/vector"
)

// queryOrdinal sorts a projected query before every stored entry of equal weight,
// so a ceiling lookup lands on the first entry with weight >= the query weight.
const queryOrdinal = -1

// WeightedVector pairs a vector with a scalar weight, usually its projection onto a basis vector.
// Entries order by Weight, then by Ordinal, so two distinct vectors with equal
// projections never collapse into one tree node.
type WeightedVector struct {
	Vector  vector.Vector
	Weight  float64
	Ordinal int
}

// Compare returns -1, 0 or +1 as w sorts before, equal to, or after o.
func (w WeightedVector) Compare(o WeightedVector) int {
	if c := cmp.Compare(w.Weight, o.Weight); c != 0 {
		return c
	}
	return cmp.Compare(w.Ordinal, o.Ordinal)
}

// weightedComparator adapts Compare to the tree's comparator signature.
func weightedComparator(a, b interface{}) int {
	return a.(WeightedVector).Compare(b.(WeightedVector))
}
