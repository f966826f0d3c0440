// Package vector provides sparse term vectors and similarity helpers.
package vector

import (
	"math"
	"sort"

	"github.com/hyperjump/suisen/pkg/utils"
)

// Sparse is a sparse vector. Indices are strictly increasing term ids and
// Values holds the weight for each index.
type Sparse struct {
	Indices []int
	Values  []float64
}

// FromWeights builds a Sparse vector from a term id -> weight map, dropping zero weights.
func FromWeights(weights map[int]float64) Sparse {
	idx := make([]int, 0, len(weights))
	for i, w := range weights {
		if w != 0 {
			idx = append(idx, i)
		}
	}
	sort.Ints(idx)
	vals := make([]float64, len(idx))
	for i, id := range idx {
		vals[i] = weights[id]
	}
	return Sparse{Indices: idx, Values: vals}
}

// Len returns the number of stored entries.
func (s Sparse) Len() int {
	return len(s.Indices)
}

// IsZero reports whether every weight is zero.
func (s Sparse) IsZero() bool {
	for _, v := range s.Values {
		if v != 0 {
			return false
		}
	}
	return true
}

// Get returns the weight stored for term id, or 0.
func (s Sparse) Get(id int) float64 {
	i := sort.SearchInts(s.Indices, id)
	if i < len(s.Indices) && s.Indices[i] == id {
		return s.Values[i]
	}
	return 0
}

// Normalized returns a copy of s scaled to unit L2 norm. A zero vector is returned unchanged.
func (s Sparse) Normalized() Sparse {
	vals := make([]float64, len(s.Values))
	copy(vals, s.Values)
	utils.NormalizeL2(vals)
	idx := make([]int, len(s.Indices))
	copy(idx, s.Indices)
	return Sparse{Indices: idx, Values: vals}
}

// Dot returns the inner product of a and b. Entries are visited in index order so
// the result does not depend on anything but the inputs.
func Dot(a, b Sparse) float64 {
	var dot float64
	i, j := 0, 0
	for i < len(a.Indices) && j < len(b.Indices) {
		switch {
		case a.Indices[i] == b.Indices[j]:
			dot += a.Values[i] * b.Values[j]
			i++
			j++
		case a.Indices[i] < b.Indices[j]:
			i++
		default:
			j++
		}
	}
	return dot
}

// L2Norm returns the L2 norm of a vector.
func L2Norm(s Sparse) float64 {
	var sum float64
	for _, v := range s.Values {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// Cosine returns dot(a,b)/(|a||b|), or 0 when either vector is zero.
func Cosine(a, b Sparse) float64 {
	na, nb := L2Norm(a), L2Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return Dot(a, b) / (na * nb)
}
