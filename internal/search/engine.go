// Package search serves recommendations from the current model snapshot and
// rebuilds it from a catalog source on demand.
package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/suisen/internal/catalog"
	"github.com/hyperjump/suisen/internal/keyword"
	"github.com/hyperjump/suisen/internal/metrics"
	"github.com/hyperjump/suisen/internal/models"
	"github.com/hyperjump/suisen/internal/recommend"
)

// Snapshot is one immutable generation of the serving index.
type Snapshot struct {
	Model    *recommend.Model
	Lookup   keyword.Index
	Version  uint64
	LoadedAt time.Time
}

// Engine answers recommendation and lookup requests. Reload builds a new
// snapshot off to the side and publishes it atomically, so concurrent
// requests always see one complete generation.
type Engine struct {
	source      catalog.Source
	buildOpts   []recommend.Option
	defaultTopK int
	maxTopK     int
	logger      *zap.Logger

	current  atomic.Pointer[Snapshot]
	version  atomic.Uint64
	reloadMu sync.Mutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithBuildOptions sets the options passed to recommend.BuildIndex on every reload.
func WithBuildOptions(opts ...recommend.Option) Option {
	return func(e *Engine) { e.buildOpts = opts }
}

// WithTopKLimits sets the default and maximum top_k of a request.
func WithTopKLimits(defaultTopK, maxTopK int) Option {
	return func(e *Engine) {
		e.defaultTopK = defaultTopK
		e.maxTopK = maxTopK
	}
}

// NewEngine returns an engine over source. It serves nothing until Reload succeeds.
func NewEngine(source catalog.Source, opts ...Option) *Engine {
	e := &Engine{
		source:      source,
		defaultTopK: 10,
		maxTopK:     10,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Reload reads the source, builds a new model and lookup index, and swaps them
// in. On failure the current snapshot keeps serving.
func (e *Engine) Reload(ctx context.Context) error {
	e.reloadMu.Lock()
	defer e.reloadMu.Unlock()

	snap, err := e.build(ctx)
	if err != nil {
		metrics.ReloadsTotal.WithLabelValues("error").Inc()
		e.logger.Error("Reload failed", zap.Error(err))
		return err
	}
	e.current.Store(snap)
	metrics.ReloadsTotal.WithLabelValues("ok").Inc()
	stats := snap.Model.Stats()
	metrics.CatalogDocuments.Set(float64(stats.Documents))
	metrics.TrainingQueries.Set(float64(stats.TrainingQueries))
	e.logger.Info("Index reloaded",
		zap.Uint64("version", snap.Version),
		zap.Int("documents", stats.Documents),
		zap.Int("training_queries", stats.TrainingQueries))
	return nil
}

func (e *Engine) build(ctx context.Context) (*Snapshot, error) {
	docs, err := e.source.Assessments(ctx)
	if err != nil {
		return nil, fmt.Errorf("load assessments: %w", err)
	}
	training, err := e.source.Training(ctx)
	if err != nil {
		return nil, fmt.Errorf("load training rows: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts := append([]recommend.Option{recommend.WithLogger(e.logger)}, e.buildOpts...)
	model, err := recommend.BuildIndex(docs, training, opts...)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	lookup, err := keyword.NewBleveIndex(model.Documents())
	if err != nil {
		return nil, fmt.Errorf("build lookup index: %w", err)
	}
	return &Snapshot{
		Model:    model,
		Lookup:   lookup,
		Version:  e.version.Add(1),
		LoadedAt: time.Now(),
	}, nil
}

// Snapshot returns the serving snapshot, or nil before the first successful Reload.
func (e *Engine) Snapshot() *Snapshot {
	return e.current.Load()
}

// Ready reports whether a snapshot is being served.
func (e *Engine) Ready() bool {
	return e.current.Load() != nil
}

// Recommend validates the request and answers it from the current snapshot.
func (e *Engine) Recommend(ctx context.Context, query *models.RecommendQuery) (*models.RecommendResponse, error) {
	start := time.Now()
	if err := ProcessQuery(query, e.defaultTopK, e.maxTopK); err != nil {
		metrics.RecommendRequestsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}
	snap := e.current.Load()
	if snap == nil {
		metrics.RecommendRequestsTotal.WithLabelValues("unavailable").Inc()
		return nil, recommend.ErrNotFitted
	}

	results, err := snap.Model.Recommend(query.Query, query.TopK)
	if err != nil {
		status := "error"
		if errors.Is(err, recommend.ErrEmptyQuery) || errors.Is(err, recommend.ErrInvalidTopK) {
			status = "invalid"
		}
		metrics.RecommendRequestsTotal.WithLabelValues(status).Inc()
		return nil, err
	}

	resp := &models.RecommendResponse{
		RequestID:       uuid.New().String(),
		Query:           query.Query,
		Recommendations: make([]*models.Recommendation, len(results)),
		Count:           len(results),
	}
	for i, r := range results {
		resp.Recommendations[i] = models.NewRecommendation(r)
	}
	elapsed := time.Since(start)
	resp.QueryTime = elapsed.Milliseconds()
	metrics.RecommendRequestsTotal.WithLabelValues("ok").Inc()
	metrics.RecommendDuration.Observe(elapsed.Seconds())
	e.logger.Debug("Recommendation served",
		zap.String("request_id", resp.RequestID),
		zap.Int("top_k", query.TopK),
		zap.Int("count", resp.Count),
		zap.Duration("elapsed", elapsed))
	return resp, nil
}

// Lookup searches the catalog by keyword. An empty query lists assessments in id order.
func (e *Engine) Lookup(ctx context.Context, query string, limit int, opts *keyword.SearchOptions) ([]*models.AssessmentDocument, error) {
	snap := e.current.Load()
	if snap == nil {
		return nil, recommend.ErrNotFitted
	}
	hits, err := snap.Lookup.Search(ctx, query, limit, opts)
	if err != nil {
		return nil, err
	}
	docs := make([]*models.AssessmentDocument, 0, len(hits))
	for _, h := range hits {
		if d, ok := snap.Model.Document(h.ID); ok {
			docs = append(docs, d)
		}
	}
	return docs, nil
}

// Get returns an assessment by id, URL, or name.
func (e *Engine) Get(ref string) (*models.AssessmentDocument, error) {
	snap := e.current.Load()
	if snap == nil {
		return nil, recommend.ErrNotFitted
	}
	d, ok := snap.Model.Document(ref)
	if !ok {
		return nil, fmt.Errorf("assessment %q: %w", ref, ErrNotFound)
	}
	return d, nil
}

// ErrNotFound is returned by Get for an unknown reference.
var ErrNotFound = errors.New("not found")

// Limits returns the default and maximum top_k.
func (e *Engine) Limits() (defaultTopK, maxTopK int) {
	return e.defaultTopK, e.maxTopK
}
