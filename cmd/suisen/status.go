package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hyperjump/suisen/internal/config"
	"github.com/hyperjump/suisen/internal/recommend"
	"github.com/hyperjump/suisen/internal/storage"
)

// statusConfigResponse holds configuration info returned by status.
type statusConfigResponse struct {
	Source       string `json:"source"`
	CatalogPath  string `json:"catalog_path,omitempty"`
	TrainingPath string `json:"training_path,omitempty"`
	DatabasePath string `json:"database_path,omitempty"`
	DefaultTopK  int    `json:"default_top_k"`
	MaxTopK      int    `json:"max_top_k"`
	WatchEnabled bool   `json:"watch_enabled"`
}

// statusResponse is the shape of GET /api/v1/status response.
type statusResponse struct {
	Ready              bool                  `json:"ready"`
	Version            uint64                `json:"version,omitempty"`
	LoadedAt           *time.Time            `json:"loaded_at,omitempty"`
	Stats              *recommend.Stats      `json:"stats,omitempty"`
	StoredAssessments  *int64                `json:"stored_assessments,omitempty"`
	StoredTrainingRows *int64                `json:"stored_training_rows,omitempty"`
	DiskUsageBytes     *int64                `json:"disk_usage_bytes,omitempty"`
	Config             *statusConfigResponse `json:"config,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = build the index locally)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status *statusResponse
	if *serverURL != "" {
		res, err := statusViaHTTP(*serverURL)
		if err != nil {
			exitf("Status failed: %v", err)
		}
		status = res
	} else {
		cfg, _, logger := setup(*configPath, false)
		defer logger.Sync()
		components, err := initializeComponents(cfg, logger)
		if err != nil {
			exitf("Failed to initialize: %v", err)
		}
		defer components.Close()
		status, err = localStatus(context.Background(), cfg, components)
		if err != nil {
			exitf("Status failed: %v", err)
		}
	}

	if err := writeStatus(os.Stdout, status, *outputFormat); err != nil {
		exitf("%v", err)
	}
}

// localStatus builds the index from the configured source and reports on it.
// A failed build is reported as not ready rather than as an error.
func localStatus(ctx context.Context, cfg *config.Config, c *Components) (*statusResponse, error) {
	st := cfg.Storage
	status := &statusResponse{
		Config: &statusConfigResponse{
			Source:       st.Source,
			CatalogPath:  st.CatalogPath,
			TrainingPath: st.TrainingPath,
			DatabasePath: st.DatabasePath,
			DefaultTopK:  cfg.Recommend.DefaultTopK,
			MaxTopK:      cfg.Recommend.MaxTopK,
			WatchEnabled: cfg.Watch.Enabled,
		},
	}
	if err := c.Engine.Reload(ctx); err == nil {
		snap := c.Engine.Snapshot()
		stats := snap.Model.Stats()
		status.Ready = true
		status.Version = snap.Version
		status.LoadedAt = &snap.LoadedAt
		status.Stats = &stats
	}
	if c.Storage != nil {
		n, err := c.Storage.CountAssessments(ctx)
		if err != nil {
			return nil, fmt.Errorf("count assessments: %w", err)
		}
		m, err := c.Storage.CountTraining(ctx)
		if err != nil {
			return nil, fmt.Errorf("count training rows: %w", err)
		}
		status.StoredAssessments = &n
		status.StoredTrainingRows = &m
	}
	paths := append(storage.SQLiteFiles(st.DatabasePath), st.CatalogPath, st.TrainingPath)
	if diskBytes, err := storage.DiskUsageBytes(paths...); err == nil {
		status.DiskUsageBytes = &diskBytes
	}
	return status, nil
}

func writeStatus(w io.Writer, status *statusResponse, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	case "text":
		fmt.Fprintf(w, "ready:              %t\n", status.Ready)
		if status.Ready {
			fmt.Fprintf(w, "version:            %d   # index generation\n", status.Version)
		}
		if s := status.Stats; s != nil {
			fmt.Fprintf(w, "documents:          %d   # assessments in the index\n", s.Documents)
			fmt.Fprintf(w, "skipped_documents:  %d\n", s.SkippedDocuments)
			fmt.Fprintf(w, "vocabulary_size:    %d\n", s.VocabularySize)
			fmt.Fprintf(w, "training_queries:   %d   # distinct queries used for boosting\n", s.TrainingQueries)
			fmt.Fprintf(w, "training_matched:   %d/%d rows\n", s.MatchedTraining, s.TrainingRows)
		}
		if status.StoredAssessments != nil {
			fmt.Fprintf(w, "stored_assessments: %d\n", *status.StoredAssessments)
		}
		if status.StoredTrainingRows != nil {
			fmt.Fprintf(w, "stored_training:    %d\n", *status.StoredTrainingRows)
		}
		if status.DiskUsageBytes != nil {
			fmt.Fprintf(w, "disk_usage_bytes:   %d   # database + catalog files on disk\n", *status.DiskUsageBytes)
		}
		if c := status.Config; c != nil {
			fmt.Fprintln(w)
			fmt.Fprintln(w, "# configuration")
			fmt.Fprintf(w, "source:             %s\n", c.Source)
			fmt.Fprintf(w, "top_k:              %d (max %d)\n", c.DefaultTopK, c.MaxTopK)
			fmt.Fprintf(w, "watch_enabled:      %t\n", c.WatchEnabled)
			if c.CatalogPath != "" {
				fmt.Fprintf(w, "catalog_path:       %s\n", c.CatalogPath)
			}
			if c.TrainingPath != "" {
				fmt.Fprintf(w, "training_path:      %s\n", c.TrainingPath)
			}
			if c.DatabasePath != "" {
				fmt.Fprintf(w, "database_path:      %s\n", c.DatabasePath)
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q; use text or json", format)
	}
}
