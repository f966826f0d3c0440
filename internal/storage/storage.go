// Package storage persists the assessment catalog and training rows.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/suisen/internal/catalog"
	"github.com/hyperjump/suisen/internal/models"
)

// ErrNotFound is returned when an assessment id does not exist.
var ErrNotFound = errors.New("not found")

// Storage is a catalog.Source backed by a database.
type Storage interface {
	catalog.Source

	// ReplaceAssessments swaps the whole catalog in one transaction.
	ReplaceAssessments(ctx context.Context, docs []models.AssessmentDocument) error
	// ReplaceTraining swaps all training rows in one transaction.
	ReplaceTraining(ctx context.Context, rows []models.TrainingAssociation) error
	GetAssessment(ctx context.Context, id string) (*models.AssessmentDocument, error)

	CountAssessments(ctx context.Context) (int64, error)
	CountTraining(ctx context.Context) (int64, error)

	Close() error
}
