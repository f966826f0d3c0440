package evaluate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hyperjump/suisen/internal/catalog"
	"github.com/hyperjump/suisen/internal/models"
)

// WriteJSON writes the report as indented JSON to path.
func (r *Report) WriteJSON(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// WritePredictions writes rows as a Query,Assessment_url CSV file.
func WritePredictions(path string, rows []models.TrainingAssociation) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create predictions dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create predictions file: %w", err)
	}
	if err := catalog.WriteTraining(f, rows); err != nil {
		f.Close()
		return fmt.Errorf("write predictions: %w", err)
	}
	return f.Close()
}

// Predict recommends k results for each query and returns the prediction rows.
func Predict(r Recommender, queries []string, k int) ([]models.TrainingAssociation, error) {
	var rows []models.TrainingAssociation
	for _, q := range queries {
		results, err := r.Recommend(q, k)
		if err != nil {
			return nil, fmt.Errorf("recommend %q: %w", q, err)
		}
		for _, res := range results {
			rows = append(rows, models.TrainingAssociation{Query: q, Assessment: res.Document.URL})
		}
	}
	return rows, nil
}
