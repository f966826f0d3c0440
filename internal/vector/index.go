package vector

import "fmt"

// Index is an immutable, ordered set of document vectors with precomputed norms.
type Index struct {
	ids     []string
	vectors []Sparse
	norms   []float64
}

// NewIndex creates an index over vectors; ids[i] names vectors[i].
func NewIndex(ids []string, vectors []Sparse) (*Index, error) {
	if len(ids) != len(vectors) {
		return nil, fmt.Errorf("ids and vectors length mismatch")
	}
	idx := &Index{
		ids:     make([]string, len(ids)),
		vectors: make([]Sparse, len(vectors)),
		norms:   make([]float64, len(vectors)),
	}
	copy(idx.ids, ids)
	copy(idx.vectors, vectors)
	for i, v := range vectors {
		idx.norms[i] = L2Norm(v)
	}
	return idx, nil
}

// Size returns the number of vectors in the index.
func (x *Index) Size() int {
	return len(x.ids)
}

// ID returns the id of the i-th vector.
func (x *Index) ID(i int) string {
	return x.ids[i]
}

// Vector returns the i-th vector.
func (x *Index) Vector(i int) Sparse {
	return x.vectors[i]
}

// CosineAt returns the cosine similarity between query (with precomputed norm qNorm) and the i-th vector.
func (x *Index) CosineAt(query Sparse, qNorm float64, i int) float64 {
	if qNorm == 0 || x.norms[i] == 0 {
		return 0
	}
	return Dot(query, x.vectors[i]) / (qNorm * x.norms[i])
}
