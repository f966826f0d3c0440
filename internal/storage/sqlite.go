package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/suisen/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

var _ Storage = (*SQLiteStorage)(nil)

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS assessments (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL,
		test_type TEXT NOT NULL,
		duration INTEGER,
		adaptive_support INTEGER NOT NULL DEFAULT 0,
		remote_support INTEGER NOT NULL DEFAULT 1,
		url TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_assessments_position ON assessments(position);

	CREATE TABLE IF NOT EXISTS training (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		query TEXT NOT NULL,
		assessment TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_training_query ON training(query);
	`
	_, err := db.Exec(schema)
	return err
}

// ReplaceAssessments deletes every stored assessment and inserts docs, keeping their order.
// Documents without an id get one derived from their position.
func (s *SQLiteStorage) ReplaceAssessments(ctx context.Context, docs []models.AssessmentDocument) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM assessments`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO assessments
		 (id, position, name, description, test_type, duration, adaptive_support, remote_support, url, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for i, doc := range docs {
		testTypes, err := json.Marshal(doc.TestType)
		if err != nil {
			return fmt.Errorf("failed to marshal test types: %w", err)
		}
		id := doc.ID
		if id == "" {
			id = fmt.Sprintf("doc-%d", i)
		}
		var duration sql.NullInt64
		if doc.Duration != nil {
			duration = sql.NullInt64{Int64: int64(*doc.Duration), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, id, i, doc.Name, doc.Description, string(testTypes),
			duration, doc.AdaptiveSupport, doc.RemoteSupport, doc.URL, now); err != nil {
			return fmt.Errorf("failed to insert assessment %s: %w", id, err)
		}
	}
	return tx.Commit()
}

// ReplaceTraining deletes every stored training row and inserts rows.
func (s *SQLiteStorage) ReplaceTraining(ctx context.Context, rows []models.TrainingAssociation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM training`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO training (query, assessment, created_at) VALUES (?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row.Query, row.Assessment, now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Assessments returns all assessments in insertion order. It implements catalog.Source.
func (s *SQLiteStorage) Assessments(ctx context.Context) ([]models.AssessmentDocument, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, test_type, duration, adaptive_support, remote_support, url
		 FROM assessments ORDER BY position`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []models.AssessmentDocument
	for rows.Next() {
		doc, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

// Training returns all training rows in insertion order. It implements catalog.Source.
func (s *SQLiteStorage) Training(ctx context.Context) ([]models.TrainingAssociation, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT query, assessment FROM training ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.TrainingAssociation
	for rows.Next() {
		var row models.TrainingAssociation
		if err := rows.Scan(&row.Query, &row.Assessment); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// GetAssessment returns an assessment by ID.
func (s *SQLiteStorage) GetAssessment(ctx context.Context, id string) (*models.AssessmentDocument, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, test_type, duration, adaptive_support, remote_support, url
		 FROM assessments WHERE id = ?`, id,
	)
	doc, err := scanAssessment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("assessment %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAssessment(row scanner) (*models.AssessmentDocument, error) {
	var doc models.AssessmentDocument
	var testTypes string
	var duration sql.NullInt64
	if err := row.Scan(&doc.ID, &doc.Name, &doc.Description, &testTypes, &duration,
		&doc.AdaptiveSupport, &doc.RemoteSupport, &doc.URL); err != nil {
		return nil, err
	}
	if testTypes != "" {
		if err := json.Unmarshal([]byte(testTypes), &doc.TestType); err != nil {
			return nil, fmt.Errorf("failed to unmarshal test types: %w", err)
		}
	}
	if duration.Valid {
		doc.Duration = models.IntPtr(int(duration.Int64))
	}
	return &doc, nil
}

// CountAssessments returns the total number of assessments.
func (s *SQLiteStorage) CountAssessments(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM assessments`).Scan(&count)
	return count, err
}

// CountTraining returns the total number of training rows.
func (s *SQLiteStorage) CountTraining(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM training`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
