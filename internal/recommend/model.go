// Package recommend builds an immutable recommendation model over the
// assessment catalog and answers top-K queries against it.
package recommend

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/suisen/internal/catalog"
	"github.com/hyperjump/suisen/internal/models"
	"github.com/hyperjump/suisen/internal/ranking"
	"github.com/hyperjump/suisen/internal/vector"
	"github.com/hyperjump/suisen/internal/vectorizer"
)

// Stats describes how a model was built.
type Stats struct {
	Documents         int       `json:"documents"`
	SkippedDocuments  int       `json:"skipped_documents"`
	VocabularySize    int       `json:"vocabulary_size"`
	TrainingRows      int       `json:"training_rows"`
	MatchedTraining   int       `json:"matched_training"`
	UnmatchedTraining int       `json:"unmatched_training"`
	TrainingQueries   int       `json:"training_queries"`
	BuiltAt           time.Time `json:"built_at"`
	BuildTime         int64     `json:"build_time_ms"`
}

// Model is a fitted, read-only recommendation model. It is safe for
// concurrent use.
type Model struct {
	store      *catalog.Store
	vectorizer *vectorizer.Vectorizer
	index      *vector.Index
	booster    *ranking.Booster
	categories []string
	cfg        ranking.Config
	stats      Stats
}

// BuildIndex validates docs, fits the vectorizer on their enriched text, and
// resolves training rows into the booster.
func BuildIndex(docs []models.AssessmentDocument, training []models.TrainingAssociation, opts ...Option) (*Model, error) {
	start := time.Now()
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.ranking.Validate(); err != nil {
		return nil, fmt.Errorf("ranking config: %w", err)
	}
	if len(o.ranking.CategoryPriority) == 0 {
		o.ranking.CategoryPriority = ranking.DefaultCategoryPriority
	}

	store, storeStats := catalog.NewStore(docs)
	if store.Len() == 0 {
		return nil, ErrEmptyCorpus
	}
	if storeStats.Skipped() > 0 {
		o.logger.Warn("Skipped invalid documents",
			zap.Int("empty_description", storeStats.EmptyDescription),
			zap.Int("missing_field", storeStats.MissingField),
			zap.Int("duplicate_id", storeStats.DuplicateID))
	}

	texts := make([]string, store.Len())
	ids := make([]string, store.Len())
	categories := make([]string, store.Len())
	for i := range texts {
		d := store.At(i)
		texts[i] = documentText(d, o.nameWeight, o.expandTestTypes)
		ids[i] = d.ID
		categories[i] = ranking.DominantCategory(d.TestType, o.ranking.CategoryPriority)
	}

	vec := vectorizer.New(
		vectorizer.WithTokenizer(vectorizer.NewTokenizer(o.stopWords)),
		vectorizer.WithSublinearTF(o.sublinearTF),
	)
	vectors, err := vec.FitTransform(texts)
	if err != nil {
		return nil, fmt.Errorf("fit vectorizer: %w", err)
	}
	index, err := vector.NewIndex(ids, vectors)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}

	booster, boostStats := ranking.NewBooster(training, store.Resolve, vectorizer.NewTokenizer(true), o.ranking)
	if boostStats.Rows > 0 {
		rate := float64(boostStats.Matched) / float64(boostStats.Rows)
		o.logger.Info("Resolved training rows",
			zap.Int("matched", boostStats.Matched),
			zap.Int("total", boostStats.Rows),
			zap.Int("queries", boostStats.Queries),
			zap.Float64("match_rate", rate))
		if rate < 0.5 {
			o.logger.Warn("Less than half of training rows matched the catalog; check URL formats",
				zap.Float64("match_rate", rate))
		}
	}

	m := &Model{
		store:      store,
		vectorizer: vec,
		index:      index,
		booster:    booster,
		categories: categories,
		cfg:        o.ranking,
		stats: Stats{
			Documents:         store.Len(),
			SkippedDocuments:  storeStats.Skipped(),
			VocabularySize:    vec.VocabularySize(),
			TrainingRows:      boostStats.Rows,
			MatchedTraining:   boostStats.Matched,
			UnmatchedTraining: boostStats.Unmatched,
			TrainingQueries:   boostStats.Queries,
			BuiltAt:           time.Now(),
			BuildTime:         time.Since(start).Milliseconds(),
		},
	}
	o.logger.Info("Index built",
		zap.Int("documents", m.stats.Documents),
		zap.Int("vocabulary", m.stats.VocabularySize),
		zap.Int64("build_time_ms", m.stats.BuildTime))
	return m, nil
}

// Recommend returns up to topK results for query from m.
func Recommend(m *Model, query string, topK int) ([]models.RankedResult, error) {
	return m.Recommend(query, topK)
}

// Recommend returns min(topK, corpus size) results for query: cosine
// similarity, plus training boost, balanced across categories.
func (m *Model) Recommend(query string, topK int) ([]models.RankedResult, error) {
	if m == nil || m.index == nil {
		return nil, ErrNotFitted
	}
	if topK <= 0 {
		return nil, ErrInvalidTopK
	}
	if strings.TrimSpace(query) == "" || !m.vectorizer.Tokenizer().HasWords(query) {
		return nil, ErrEmptyQuery
	}
	q, err := m.vectorizer.Transform(query)
	if err != nil {
		return nil, err
	}

	scored := m.booster.Apply(query, ranking.ScoreAll(q, m.index))
	ranking.SortByBoosted(scored)
	selected := ranking.Balance(scored, topK, m.cfg.CategoryCap, func(i int) string {
		return m.categories[i]
	})

	results := make([]models.RankedResult, len(selected))
	for i, s := range selected {
		results[i] = models.RankedResult{
			Document:     m.store.At(s.Index),
			Score:        s.Score,
			BoostedScore: s.Boosted,
			Rank:         i + 1,
		}
	}
	return results, nil
}

// Stats returns build statistics.
func (m *Model) Stats() Stats {
	if m == nil {
		return Stats{}
	}
	return m.stats
}

// Size returns the number of indexed documents.
func (m *Model) Size() int {
	if m == nil || m.store == nil {
		return 0
	}
	return m.store.Len()
}

// Documents returns a copy of the indexed documents.
func (m *Model) Documents() []models.AssessmentDocument {
	if m == nil || m.store == nil {
		return nil
	}
	return m.store.Documents()
}

// Document returns the indexed document with the given id, URL, or name.
func (m *Model) Document(ref string) (*models.AssessmentDocument, bool) {
	if m == nil || m.store == nil {
		return nil, false
	}
	i, ok := m.store.Resolve(ref)
	if !ok {
		return nil, false
	}
	return m.store.At(i), true
}

// Config returns the ranking configuration the model was built with.
func (m *Model) Config() ranking.Config {
	if m == nil {
		return ranking.DefaultConfig()
	}
	return m.cfg
}
