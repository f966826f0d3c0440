// Package config provides configuration loading and structs for the suisen server and CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hyperjump/suisen/internal/ranking"
	"github.com/hyperjump/suisen/internal/recommend"
)

// Source kinds for StorageConfig.Source.
const (
	SourceFile   = "file"
	SourceSQLite = "sqlite"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	LogLevel  string          `yaml:"log_level"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Recommend RecommendConfig `yaml:"recommend"`
	Watch     WatchConfig     `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// StorageConfig holds the catalog, training, and database locations.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
	CatalogPath  string `yaml:"catalog_path"`
	TrainingPath string `yaml:"training_path"`
	LabelsPath   string `yaml:"labels_path"`
	// Source selects where the server reads the catalog from: "file" or "sqlite".
	Source string `yaml:"source"`
}

// LabelsOrTraining returns the labeled-set path, falling back to the training file.
func (s *StorageConfig) LabelsOrTraining() string {
	if s.LabelsPath != "" {
		return s.LabelsPath
	}
	return s.TrainingPath
}

// RecommendConfig holds request limits, vectorizer and ranking settings.
type RecommendConfig struct {
	DefaultTopK      int      `yaml:"default_top_k"`
	MaxTopK          int      `yaml:"max_top_k"`
	OverlapThreshold float64  `yaml:"overlap_threshold"`
	BoostAmount      float64  `yaml:"boost_amount"`
	MaxBoost         float64  `yaml:"max_boost"`
	CategoryCap      *float64 `yaml:"category_cap"`
	CategoryPriority []string `yaml:"category_priority"`
	StopWords        *bool    `yaml:"stop_words"`
	SublinearTF      bool     `yaml:"sublinear_tf"`
	ExpandTestTypes  *bool    `yaml:"expand_test_types"`
	NameWeight       int      `yaml:"name_weight"`
}

// RankingConfig returns the booster and balancer thresholds.
func (r *RecommendConfig) RankingConfig() ranking.Config {
	cfg := ranking.DefaultConfig()
	if r.OverlapThreshold > 0 {
		cfg.OverlapThreshold = r.OverlapThreshold
	}
	if r.BoostAmount > 0 {
		cfg.BoostAmount = r.BoostAmount
	}
	if r.MaxBoost > 0 {
		cfg.MaxBoost = r.MaxBoost
	}
	if r.CategoryCap != nil {
		cfg.CategoryCap = *r.CategoryCap
	}
	if len(r.CategoryPriority) > 0 {
		cfg.CategoryPriority = r.CategoryPriority
	}
	return cfg
}

// BuildOptions returns the recommend.BuildIndex options for this configuration.
func (r *RecommendConfig) BuildOptions() []recommend.Option {
	return []recommend.Option{
		recommend.WithRankingConfig(r.RankingConfig()),
		recommend.WithStopWords(boolOrDefault(r.StopWords, true)),
		recommend.WithSublinearTF(r.SublinearTF),
		recommend.WithTestTypeExpansion(boolOrDefault(r.ExpandTestTypes, true)),
		recommend.WithNameWeight(r.NameWeight),
	}
}

// WatchConfig holds catalog file watch settings.
type WatchConfig struct {
	Enabled    bool `yaml:"enabled"`
	DebounceMS int  `yaml:"debounce_ms"`
}

func boolOrDefault(b *bool, def bool) bool {
	if b != nil {
		return *b
	}
	return def
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.CatalogPath = expandPath(cfg.Storage.CatalogPath, configDir)
	cfg.Storage.TrainingPath = expandPath(cfg.Storage.TrainingPath, configDir)
	cfg.Storage.LabelsPath = expandPath(cfg.Storage.LabelsPath, configDir)

	return &cfg, nil
}

// Validate rejects settings that ApplyDefaults cannot repair.
func Validate(cfg *Config) error {
	switch cfg.Storage.Source {
	case SourceFile, SourceSQLite:
	default:
		return fmt.Errorf("invalid storage.source %q: want %q or %q", cfg.Storage.Source, SourceFile, SourceSQLite)
	}
	if cfg.Recommend.DefaultTopK > cfg.Recommend.MaxTopK {
		return fmt.Errorf("recommend.default_top_k (%d) exceeds max_top_k (%d)", cfg.Recommend.DefaultTopK, cfg.Recommend.MaxTopK)
	}
	if err := cfg.Recommend.RankingConfig().Validate(); err != nil {
		return fmt.Errorf("invalid recommend config: %w", err)
	}
	return nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory. Empty paths stay empty.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
