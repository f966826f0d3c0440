package ranking

import (
	"sort"
	"strings"

	"github.com/hyperjump/suisen/internal/models"
)

// Tokenizer extracts the significant tokens of a query.
type Tokenizer interface {
	UniqueTokens(text string) []string
}

// Resolver maps an assessment reference (id, URL, or name) to a corpus position.
type Resolver func(ref string) (int, bool)

// BoostStats describes how training rows were resolved.
type BoostStats struct {
	Rows      int `json:"rows"`
	Matched   int `json:"matched"`
	Unmatched int `json:"unmatched"`
	Queries   int `json:"queries"`
}

type trainingQuery struct {
	tokens map[string]struct{}
	docs   []int
}

// Booster adds a training-derived amount to documents referenced by training
// queries that overlap the incoming query. It is immutable after construction.
type Booster struct {
	cfg       Config
	tokenizer Tokenizer
	queries   []trainingQuery
}

// NewBooster groups training rows by their sorted significant tokens, so
// spellings that analyze to the same terms form one training query, and resolves
// every referenced assessment. Within a group each assessment counts once. Rows
// whose assessment cannot be resolved are counted and dropped; rows without
// significant tokens never match.
func NewBooster(rows []models.TrainingAssociation, resolve Resolver, tok Tokenizer, cfg Config) (*Booster, BoostStats) {
	stats := BoostStats{Rows: len(rows)}
	groups := make(map[string]*trainingQuery)
	var order []string
	for _, row := range rows {
		idx, ok := resolve(row.Assessment)
		if !ok {
			stats.Unmatched++
			continue
		}
		stats.Matched++
		tokens := tok.UniqueTokens(row.Query)
		if len(tokens) == 0 {
			continue
		}
		sort.Strings(tokens)
		key := strings.Join(tokens, " ")
		tq, seen := groups[key]
		if !seen {
			tq = &trainingQuery{tokens: make(map[string]struct{}, len(tokens))}
			for _, t := range tokens {
				tq.tokens[t] = struct{}{}
			}
			groups[key] = tq
			order = append(order, key)
		}
		if !containsInt(tq.docs, idx) {
			tq.docs = append(tq.docs, idx)
		}
	}

	b := &Booster{cfg: cfg, tokenizer: tok}
	for _, key := range order {
		tq := groups[key]
		sort.Ints(tq.docs)
		b.queries = append(b.queries, *tq)
	}
	stats.Queries = len(b.queries)
	return b, stats
}

func containsInt(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

// Boosts returns the capped additive boost per corpus position for query.
// Documents absent from the map receive no boost.
func (b *Booster) Boosts(query string) map[int]float64 {
	boosts := make(map[int]float64)
	if b == nil || len(b.queries) == 0 {
		return boosts
	}
	incoming := make(map[string]struct{})
	for _, t := range b.tokenizer.UniqueTokens(query) {
		incoming[t] = struct{}{}
	}
	for _, tq := range b.queries {
		if overlap(tq.tokens, incoming) < b.cfg.OverlapThreshold {
			continue
		}
		for _, idx := range tq.docs {
			boosts[idx] += b.cfg.BoostAmount
		}
	}
	for idx, v := range boosts {
		if v > b.cfg.MaxBoost {
			boosts[idx] = b.cfg.MaxBoost
		}
	}
	return boosts
}

// Apply returns a copy of scored with Boost and Boosted filled in for query.
func (b *Booster) Apply(query string, scored []Scored) []Scored {
	boosts := b.Boosts(query)
	out := make([]Scored, len(scored))
	for i, s := range scored {
		s.Boost = boosts[s.Index]
		s.Boosted = s.Score + s.Boost
		out[i] = s
	}
	return out
}

// overlap is the fraction of train's tokens present in incoming.
func overlap(train, incoming map[string]struct{}) float64 {
	if len(train) == 0 {
		return 0
	}
	hits := 0
	for t := range train {
		if _, ok := incoming[t]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(train))
}
