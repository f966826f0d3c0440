package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hyperjump/suisen/internal/models"
)

// LoadDocuments reads a preprocessed catalog (a JSON array of assessment records).
func LoadDocuments(path string) ([]models.AssessmentDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var docs []models.AssessmentDocument
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return docs, nil
}

// LoadRaw reads scraped records awaiting preprocessing.
func LoadRaw(path string) ([]RawAssessment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read raw catalog: %w", err)
	}
	var raws []RawAssessment
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("parse raw catalog %s: %w", path, err)
	}
	return raws, nil
}

// SaveDocuments writes docs as indented JSON, creating parent directories.
func SaveDocuments(path string, docs []models.AssessmentDocument) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create catalog dir: %w", err)
	}
	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal catalog: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	return nil
}
