package models

import (
	"fmt"
	"strings"
)

// RecommendQuery is a recommendation request.
type RecommendQuery struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

// Validate checks the query text and applies defaultTopK when TopK is unset.
// TopK must end up within 1..maxTopK; maxTopK <= 0 means no upper bound.
func (q *RecommendQuery) Validate(defaultTopK, maxTopK int) error {
	if strings.TrimSpace(q.Query) == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if q.TopK == 0 {
		q.TopK = defaultTopK
	}
	if q.TopK < 1 {
		return fmt.Errorf("top_k must be a positive integer")
	}
	if maxTopK > 0 && q.TopK > maxTopK {
		return fmt.Errorf("top_k must be an integer between 1 and %d", maxTopK)
	}
	return nil
}
