package recommend

import (
	"go.uber.org/zap"

	"github.com/hyperjump/suisen/internal/ranking"
)

type options struct {
	ranking         ranking.Config
	stopWords       bool
	sublinearTF     bool
	expandTestTypes bool
	nameWeight      int
	logger          *zap.Logger
}

func defaultOptions() options {
	return options{
		ranking:         ranking.DefaultConfig(),
		stopWords:       true,
		expandTestTypes: true,
		nameWeight:      2,
		logger:          zap.NewNop(),
	}
}

// Option configures BuildIndex.
type Option func(*options)

// WithRankingConfig sets the booster and balancer thresholds.
func WithRankingConfig(cfg ranking.Config) Option {
	return func(o *options) { o.ranking = cfg }
}

// WithStopWords toggles English stop-word removal in the vectorizer.
func WithStopWords(enabled bool) Option {
	return func(o *options) { o.stopWords = enabled }
}

// WithSublinearTF toggles 1 + ln(tf) term weighting.
func WithSublinearTF(enabled bool) Option {
	return func(o *options) { o.sublinearTF = enabled }
}

// WithTestTypeExpansion toggles the category keywords and duration terms added
// to each document's text.
func WithTestTypeExpansion(enabled bool) Option {
	return func(o *options) { o.expandTestTypes = enabled }
}

// WithNameWeight sets how many times the name is repeated in a document's text.
// Values below 1 are treated as 1.
func WithNameWeight(n int) Option {
	return func(o *options) { o.nameWeight = n }
}

// WithLogger sets the logger used while building.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}
