package search

import (
	"errors"
	"fmt"

	"github.com/hyperjump/suisen/internal/models"
)

// ErrInvalidRequest wraps request validation failures.
var ErrInvalidRequest = errors.New("invalid request")

// ProcessQuery validates the request and applies the default top_k.
func ProcessQuery(query *models.RecommendQuery, defaultTopK, maxTopK int) error {
	if query == nil {
		return fmt.Errorf("%w: missing body", ErrInvalidRequest)
	}
	if err := query.Validate(defaultTopK, maxTopK); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}
