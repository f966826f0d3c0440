// Package evaluate measures Recall@K of a recommender against labeled queries.
package evaluate

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hyperjump/suisen/internal/catalog"
	"github.com/hyperjump/suisen/internal/models"
)

// ErrNoQueries is returned by Run when the labeled set is empty.
var ErrNoQueries = errors.New("no labeled queries to evaluate")

// Recommender is the pipeline under evaluation.
type Recommender interface {
	Recommend(query string, topK int) ([]models.RankedResult, error)
}

// QueryResult is the outcome of one labeled query.
type QueryResult struct {
	Query     string   `json:"query"`
	Expected  int      `json:"expected"`
	Matched   int      `json:"matched"`
	Recall    float64  `json:"recall"`
	Predicted []string `json:"predicted"`
}

// Distribution buckets queries by recall.
type Distribution struct {
	High    int `json:"high"`    // recall >= 0.5
	Partial int `json:"partial"` // 0 < recall < 0.5
	Zero    int `json:"zero"`
}

// Report is the result of an evaluation run.
type Report struct {
	RunID        string        `json:"run_id"`
	K            int           `json:"k"`
	MeanRecall   float64       `json:"mean_recall"`
	Queries      []QueryResult `json:"queries"`
	Distribution Distribution  `json:"distribution"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     int64         `json:"duration_ms"`
}

// RecallAtK is the fraction of expected references found among results. An
// empty expected set scores 0. References match a result by id or URL slug.
func RecallAtK(results []models.RankedResult, expected []string) (recall float64, matched int) {
	if len(expected) == 0 {
		return 0, 0
	}
	got := make(map[string]struct{}, len(results)*2)
	for _, r := range results {
		if r.Document == nil {
			continue
		}
		got[r.Document.ID] = struct{}{}
		if slug := catalog.IDFromURL(r.Document.URL); slug != "" {
			got[slug] = struct{}{}
		}
	}
	for _, ref := range expected {
		if _, ok := got[ref]; ok {
			matched++
			continue
		}
		if _, ok := got[catalog.IDFromURL(ref)]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(expected)), matched
}

// Run recommends k results for every labeled query and reports per-query
// recall and the arithmetic mean. Any recommender error aborts the run.
func Run(r Recommender, labeled []models.LabeledQuery, k int) (*Report, error) {
	if len(labeled) == 0 {
		return nil, ErrNoQueries
	}
	report := &Report{
		RunID:     uuid.New().String(),
		K:         k,
		Queries:   make([]QueryResult, 0, len(labeled)),
		StartedAt: time.Now(),
	}
	var sum float64
	for _, lq := range labeled {
		results, err := r.Recommend(lq.Query, k)
		if err != nil {
			return nil, fmt.Errorf("recommend %q: %w", lq.Query, err)
		}
		recall, matched := RecallAtK(results, lq.Expected)
		qr := QueryResult{
			Query:     lq.Query,
			Expected:  len(lq.Expected),
			Matched:   matched,
			Recall:    recall,
			Predicted: make([]string, len(results)),
		}
		for i, res := range results {
			qr.Predicted[i] = res.Document.URL
		}
		report.Queries = append(report.Queries, qr)
		sum += recall

		switch {
		case recall >= 0.5:
			report.Distribution.High++
		case recall > 0:
			report.Distribution.Partial++
		default:
			report.Distribution.Zero++
		}
	}
	report.MeanRecall = sum / float64(len(labeled))
	report.Duration = time.Since(report.StartedAt).Milliseconds()
	return report, nil
}

// Predictions flattens the report into (query, assessment URL) rows.
func (r *Report) Predictions() []models.TrainingAssociation {
	var rows []models.TrainingAssociation
	for _, q := range r.Queries {
		for _, url := range q.Predicted {
			rows = append(rows, models.TrainingAssociation{Query: q.Query, Assessment: url})
		}
	}
	return rows
}
