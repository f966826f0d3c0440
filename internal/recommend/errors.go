package recommend

import (
	"errors"

	"github.com/hyperjump/suisen/internal/vectorizer"
)

var (
	// ErrNotFitted is returned when recommending from a nil or unbuilt model.
	ErrNotFitted = vectorizer.ErrNotFitted
	// ErrEmptyCorpus is returned by BuildIndex when no valid documents remain.
	ErrEmptyCorpus = errors.New("corpus has no valid documents")
	// ErrEmptyQuery is returned when the query contains no word tokens.
	ErrEmptyQuery = errors.New("query is empty")
	// ErrInvalidTopK is returned when topK is not positive.
	ErrInvalidTopK = errors.New("top_k must be a positive integer")
)
