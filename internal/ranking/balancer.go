package ranking

import (
	"math"
	"sort"
)

// GeneralCategory is the category of a document without test-type codes.
const GeneralCategory = "General"

// DominantCategory returns the first code of testTypes in priority order. Codes
// outside the priority list fall back to the alphabetically first one.
func DominantCategory(testTypes []string, priority []string) string {
	if len(testTypes) == 0 {
		return GeneralCategory
	}
	for _, p := range priority {
		for _, t := range testTypes {
			if t == p {
				return p
			}
		}
	}
	sorted := append([]string(nil), testTypes...)
	sort.Strings(sorted)
	return sorted[0]
}

// CategoryLimit returns how many of k slots one category may take in the first pass.
func CategoryLimit(k int, capFraction float64) int {
	return int(math.Floor(capFraction*float64(k) + 1e-9))
}

// Balance selects min(k, len(ranked)) entries from ranked, which must be sorted by
// boosted score. A first pass admits entries while their category is under the
// cap; a second pass fills the remaining slots from deferred entries in score
// order. The selection is returned sorted by boosted score.
func Balance(ranked []Scored, k int, capFraction float64, category func(index int) string) []Scored {
	if k > len(ranked) {
		k = len(ranked)
	}
	if k <= 0 {
		return nil
	}
	limit := CategoryLimit(k, capFraction)
	selected := make([]Scored, 0, k)
	var deferred []Scored
	counts := make(map[string]int)
	for _, s := range ranked {
		if len(selected) == k {
			break
		}
		c := category(s.Index)
		if counts[c] < limit {
			selected = append(selected, s)
			counts[c]++
			continue
		}
		deferred = append(deferred, s)
	}
	for _, s := range deferred {
		if len(selected) == k {
			break
		}
		selected = append(selected, s)
	}
	SortByBoosted(selected)
	return selected
}
