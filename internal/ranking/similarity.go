package ranking

import (
	"sort"

	"github.com/hyperjump/suisen/internal/vector"
)

// Scored is one document's scores for a single query.
type Scored struct {
	Index   int    // position of the document in the corpus
	ID      string // document id, used for tie-breaks
	Score   float64
	Boost   float64
	Boosted float64
}

// ScoreAll computes the cosine similarity of query against every document of idx.
// The output has one entry per document, in index order. Boosted starts equal to Score.
func ScoreAll(query vector.Sparse, idx *vector.Index) []Scored {
	qNorm := vector.L2Norm(query)
	out := make([]Scored, idx.Size())
	for i := range out {
		s := idx.CosineAt(query, qNorm, i)
		out[i] = Scored{Index: i, ID: idx.ID(i), Score: s, Boosted: s}
	}
	return out
}

// SortByScore orders s by raw score descending, ties by id ascending.
func SortByScore(s []Scored) {
	sort.SliceStable(s, func(i, j int) bool {
		return less(s[i].Score, s[j].Score, s[i], s[j])
	})
}

// SortByBoosted orders s by boosted score descending, ties by id ascending.
func SortByBoosted(s []Scored) {
	sort.SliceStable(s, func(i, j int) bool {
		return less(s[i].Boosted, s[j].Boosted, s[i], s[j])
	})
}

func less(si, sj float64, a, b Scored) bool {
	if si != sj {
		return si > sj
	}
	if a.ID != b.ID {
		return a.ID < b.ID
	}
	return a.Index < b.Index
}
