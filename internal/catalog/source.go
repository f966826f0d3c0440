package catalog

import (
	"context"

	"github.com/hyperjump/suisen/internal/models"
)

// Source supplies the catalog and training rows a model is built from.
type Source interface {
	Assessments(ctx context.Context) ([]models.AssessmentDocument, error)
	Training(ctx context.Context) ([]models.TrainingAssociation, error)
}

// FileSource reads the catalog from a JSON file and training rows from a CSV or XLSX file.
type FileSource struct {
	CatalogPath  string
	TrainingPath string // optional
}

// NewFileSource returns a FileSource for the given paths.
func NewFileSource(catalogPath, trainingPath string) *FileSource {
	return &FileSource{CatalogPath: catalogPath, TrainingPath: trainingPath}
}

// Assessments implements Source.
func (s *FileSource) Assessments(ctx context.Context) ([]models.AssessmentDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return LoadDocuments(s.CatalogPath)
}

// Training implements Source. It returns no rows when no training path is set.
func (s *FileSource) Training(ctx context.Context) ([]models.TrainingAssociation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.TrainingPath == "" {
		return nil, nil
	}
	return LoadTraining(s.TrainingPath)
}

// Paths returns the files the source reads, for change watching.
func (s *FileSource) Paths() []string {
	paths := []string{s.CatalogPath}
	if s.TrainingPath != "" {
		paths = append(paths, s.TrainingPath)
	}
	return paths
}
