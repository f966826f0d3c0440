// Package keyword provides a bleve-backed lookup index over the assessment catalog.
package keyword

import "context"

// SearchOptions optional parameters for catalog lookup. Nil means use defaults.
type SearchOptions struct {
	// NameBoost multiplies the score of matches in the assessment name. Default 2.0.
	NameBoost float64
	// FuzzyEnabled enables typo-tolerant matching.
	FuzzyEnabled bool
	// Fuzziness is the maximum edit distance for fuzzy matching (1 or 2). Default 1.
	Fuzziness int
	// TestType restricts hits to assessments carrying this category code.
	TestType string
}

// Index defines catalog lookup operations.
type Index interface {
	Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*Result, error)
	DocCount() (uint64, error)
	Close() error
}

// Result is a single lookup hit.
type Result struct {
	ID    string
	Score float64
}
