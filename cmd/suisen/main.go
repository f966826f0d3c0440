// Package main is the suisen CLI entry point.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/suisen/internal/catalog"
	"github.com/hyperjump/suisen/internal/cli"
	"github.com/hyperjump/suisen/internal/config"
	"github.com/hyperjump/suisen/internal/evaluate"
	"github.com/hyperjump/suisen/internal/extract"
	"github.com/hyperjump/suisen/internal/metrics"
	"github.com/hyperjump/suisen/internal/models"
	"github.com/hyperjump/suisen/internal/search"
	"github.com/hyperjump/suisen/internal/server"
	"github.com/hyperjump/suisen/internal/storage"
	"github.com/hyperjump/suisen/internal/watcher"
	"github.com/hyperjump/suisen/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/suisen/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "recommend":
		runRecommend()
	case "evaluate":
		runEvaluate()
	case "predict":
		runPredict()
	case "import":
		runImport()
	case "preprocess":
		runPreprocess()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("suisen version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func exitf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// setup loads the config and builds a logger honoring debug and log_level.
func setup(configPath string, debugFlag bool) (*config.Config, string, *zap.Logger) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		exitf("Failed to load config: %v", err)
	}
	logger, err := utils.NewLogger(cfg.Debug || debugFlag, cfg.LogLevel)
	if err != nil {
		exitf("Failed to create logger: %v", err)
	}
	return cfg, resolved, logger
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (requests, reloads, watcher events)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, logger := setup(*configPath, *debug)
	defer logger.Sync()
	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.String("source", cfg.Storage.Source),
		zap.Bool("debug", cfg.Debug || *debug),
	)

	metrics.Register()
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := components.Engine.Reload(ctx); err != nil {
		logger.Fatal("Initial index build failed", zap.Error(err))
	}

	if cfg.Watch.Enabled {
		files := watchedFiles(cfg)
		if len(files) == 0 {
			logger.Warn("watch enabled but nothing to watch", zap.String("source", cfg.Storage.Source))
		} else {
			engine := components.Engine
			watchSvc := watcher.NewWatcher(files,
				func(changed []string) {
					if err := engine.Reload(ctx); err != nil {
						logger.Warn("reload after file change failed", zap.Strings("paths", changed), zap.Error(err))
					}
				},
				watcher.WithLogger(logger),
				watcher.WithDebounce(time.Duration(cfg.Watch.DebounceMS)*time.Millisecond),
			)
			if err := watchSvc.Start(ctx); err != nil {
				logger.Fatal("Failed to start watcher", zap.Error(err))
			}
			defer watchSvc.Stop()
			if watching := watchSvc.Files(); len(watching) < len(files) {
				logger.Warn("some catalog files are not watched", zap.Strings("files", files), zap.Strings("watching", watching))
			} else {
				logger.Info("watching catalog files", zap.Strings("files", watching))
			}
		}
	}

	srv := server.NewServer(components.Engine, components.Storage, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}

// watchedFiles returns the files whose changes require a rebuild. A sqlite
// source is refreshed by `suisen import` followed by a reindex request instead.
func watchedFiles(cfg *config.Config) []string {
	if cfg.Storage.Source != config.SourceFile {
		return nil
	}
	var files []string
	for _, p := range catalog.NewFileSource(cfg.Storage.CatalogPath, cfg.Storage.TrainingPath).Paths() {
		if p != "" {
			files = append(files, p)
		}
	}
	return files
}

// printRecommendUsage prints recommend subcommand usage.
func printRecommendUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: suisen recommend [flags] <query>\n")
	fmt.Fprintf(fs.Output(), "       suisen recommend [flags] --file <job-description>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  suisen recommend I am hiring for Java developers
  suisen recommend --top-k 5 "sales graduate with good communication"
  suisen recommend --file jd.pdf --output compact
  suisen recommend --server http://localhost:8080 analyst with SQL
`)
}

// buildQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// configPathFromArgs returns the value of -config/--config from args if present, else defaultPath.
func configPathFromArgs(args []string, defaultPath string) string {
	for i, a := range args {
		if (a == "-config" || a == "--config") && i+1 < len(args) {
			return args[i+1]
		}
	}
	return defaultPath
}

// topKDefaultFromConfig returns recommend.default_top_k from the config at path, or 10.
func topKDefaultFromConfig(path string) int {
	cfg, _, err := loadConfig(path)
	if err != nil || cfg == nil {
		return 10
	}
	return cfg.Recommend.DefaultTopK
}

// argsReorder moves any flags (and their values) that appear after the query
// to the front so that flag.Parse sees them; the flag package stops at the
// first non-flag argument.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runRecommend() {
	args := argsReorder(os.Args[2:])
	defaultTopK := topKDefaultFromConfig(configPathFromArgs(args, defaultConfigPath))

	fs := flag.NewFlagSet("recommend", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = build the index locally)")
	topK := fs.Int("top-k", defaultTopK, "number of recommendations")
	file := fs.String("file", "", "read the query from a job description file (pdf, docx, odt, rtf, xlsx, txt)")
	outputFormat := fs.String("output", "text", "output format: text, compact (one line per result), or json")
	fs.Usage = func() { printRecommendUsage(fs) }
	_ = fs.Parse(args)

	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		exitf("%v", err)
	}
	queryStr := buildQuery(fs.Args())
	if *file == "" && queryStr == "" {
		printRecommendUsage(fs)
		os.Exit(1)
	}

	var response *models.RecommendResponse
	if *serverURL != "" {
		if *file != "" {
			response, err = recommendFileViaHTTP(*serverURL, *file, *topK)
		} else {
			response, err = recommendViaHTTP(*serverURL, &models.RecommendQuery{Query: queryStr, TopK: *topK})
		}
		if err != nil {
			exitf("Recommend failed: %v", err)
		}
	} else {
		if *file != "" {
			text, err := extract.NewExtractor().Extract(*file)
			if err != nil {
				exitf("Failed to read %s: %v", *file, err)
			}
			queryStr = utils.CollapseWhitespace(text)
		}
		cfg, _, logger := setup(*configPath, false)
		defer logger.Sync()
		components, err := initializeComponents(cfg, logger)
		if err != nil {
			exitf("Failed to initialize: %v", err)
		}
		defer components.Close()
		ctx := context.Background()
		if err := components.Engine.Reload(ctx); err != nil {
			exitf("Index build failed: %v", err)
		}
		response, err = components.Engine.Recommend(ctx, &models.RecommendQuery{Query: queryStr, TopK: *topK})
		if err != nil {
			exitf("Recommend failed: %v", err)
		}
		if *file != "" {
			response.Query = utils.Truncate(response.Query, 200)
		}
	}
	if err := cli.WriteRecommendations(os.Stdout, response, format); err != nil {
		exitf("Output failed: %v", err)
	}
}

// loadModel builds the engine and returns the current model for offline commands.
func loadModel(cfg *config.Config, logger *zap.Logger) (*Components, *search.Snapshot) {
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		exitf("Failed to initialize: %v", err)
	}
	if err := components.Engine.Reload(context.Background()); err != nil {
		components.Close()
		exitf("Index build failed: %v", err)
	}
	return components, components.Engine.Snapshot()
}

func runEvaluate() {
	fs := flag.NewFlagSet("evaluate", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	labelsPath := fs.String("labels", "", "labeled queries CSV/XLSX (default: storage.labels_path, then training_path)")
	k := fs.Int("k", 10, "cutoff K for Recall@K")
	reportPath := fs.String("report", "", "write the JSON report to this path")
	predictionsPath := fs.String("predictions", "", "write Query,Assessment_url predictions CSV to this path")
	verbose := fs.Bool("verbose", false, "list recall per query")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		exitf("%v", err)
	}
	cfg, _, logger := setup(*configPath, false)
	defer logger.Sync()

	path := *labelsPath
	if path == "" {
		path = cfg.Storage.LabelsOrTraining()
	}
	if path == "" {
		exitf("No labeled set: pass --labels or set storage.labels_path")
	}
	rows, err := catalog.LoadTraining(path)
	if err != nil {
		exitf("Failed to load labels: %v", err)
	}

	components, snap := loadModel(cfg, logger)
	defer components.Close()

	report, err := evaluate.Run(snap.Model, catalog.Labeled(rows), *k)
	if err != nil {
		exitf("Evaluation failed: %v", err)
	}
	if *reportPath != "" {
		if err := report.WriteJSON(*reportPath); err != nil {
			exitf("%v", err)
		}
	}
	if *predictionsPath != "" {
		if err := evaluate.WritePredictions(*predictionsPath, report.Predictions()); err != nil {
			exitf("%v", err)
		}
	}
	if err := cli.WriteReport(os.Stdout, report, format, *verbose); err != nil {
		exitf("Output failed: %v", err)
	}
}

func runPredict() {
	fs := flag.NewFlagSet("predict", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	out := fs.String("out", "predictions.csv", "output CSV path")
	k := fs.Int("k", 10, "recommendations per query")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: suisen predict [flags] <queries.csv|queries.xlsx>")
		os.Exit(1)
	}
	queries, err := catalog.LoadQueries(fs.Arg(0))
	if err != nil {
		exitf("Failed to load queries: %v", err)
	}

	cfg, _, logger := setup(*configPath, false)
	defer logger.Sync()
	components, snap := loadModel(cfg, logger)
	defer components.Close()

	rows, err := evaluate.Predict(snap.Model, queries, *k)
	if err != nil {
		exitf("Prediction failed: %v", err)
	}
	if err := evaluate.WritePredictions(*out, rows); err != nil {
		exitf("%v", err)
	}
	fmt.Printf("Wrote %d predictions for %d queries to %s\n", len(rows), len(queries), *out)
}

func runImport() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	catalogPath := fs.String("catalog", "", "preprocessed catalog JSON (default: storage.catalog_path)")
	trainingPath := fs.String("training", "", "training CSV/XLSX (default: storage.training_path)")
	_ = fs.Parse(os.Args[2:])

	cfg, _, logger := setup(*configPath, false)
	defer logger.Sync()
	if *catalogPath == "" {
		*catalogPath = cfg.Storage.CatalogPath
	}
	if *trainingPath == "" {
		*trainingPath = cfg.Storage.TrainingPath
	}

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		exitf("Failed to open database: %v", err)
	}
	defer store.Close()

	nDocs, nRows, err := importCatalog(context.Background(), store, *catalogPath, *trainingPath)
	if err != nil {
		exitf("Import failed: %v", err)
	}
	logger.Info("catalog imported", zap.String("database", cfg.Storage.DatabasePath),
		zap.Int("assessments", nDocs), zap.Int("training_rows", nRows))
	fmt.Printf("Imported %d assessments and %d training rows into %s\n", nDocs, nRows, cfg.Storage.DatabasePath)
}

// importCatalog replaces the stored catalog and, when trainingPath is set, the training rows.
func importCatalog(ctx context.Context, store storage.Storage, catalogPath, trainingPath string) (int, int, error) {
	docs, err := catalog.LoadDocuments(catalogPath)
	if err != nil {
		return 0, 0, err
	}
	if err := store.ReplaceAssessments(ctx, docs); err != nil {
		return 0, 0, err
	}
	if trainingPath == "" {
		return len(docs), 0, nil
	}
	rows, err := catalog.LoadTraining(trainingPath)
	if err != nil {
		return len(docs), 0, err
	}
	if err := store.ReplaceTraining(ctx, rows); err != nil {
		return len(docs), 0, err
	}
	return len(docs), len(rows), nil
}

func runPreprocess() {
	fs := flag.NewFlagSet("preprocess", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for the default output path)")
	input := fs.String("input", "assessments_raw.json", "raw scraped assessments JSON")
	output := fs.String("output", "", "preprocessed catalog JSON (default: storage.catalog_path)")
	_ = fs.Parse(os.Args[2:])

	if *output == "" {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			exitf("No --output given and config failed to load: %v", err)
		}
		*output = cfg.Storage.CatalogPath
	}

	docs, stats, err := preprocessFile(*input, *output)
	if err != nil {
		exitf("Preprocessing failed: %v", err)
	}
	fmt.Printf("Preprocessed %d raw records from %s\n", stats.Input, *input)
	fmt.Printf("  individual tests kept: %d\n", stats.Kept)
	fmt.Printf("  skipped (packages):    %d\n", stats.Packaged)
	fmt.Printf("  skipped (invalid):     %d\n", stats.Invalid)
	fmt.Printf("  URLs fixed:            %d\n", stats.URLFixes)
	fmt.Printf("Saved to %s\n", *output)
	for i, d := range docs[:min(3, len(docs))] {
		dur := "N/A"
		if d.Duration != nil {
			dur = fmt.Sprintf("%d min", *d.Duration)
		}
		fmt.Printf("\n%d. %s\n   URL: %s\n   Duration: %s\n   Types: %s\n   Description: %s\n",
			i+1, d.Name, d.URL, dur, strings.Join(d.TestType, ", "), utils.Truncate(d.Description, 80))
	}
}

// preprocessFile cleans raw scraped records from input and saves the kept ones to output.
func preprocessFile(input, output string) ([]models.AssessmentDocument, catalog.PreprocessStats, error) {
	raws, err := catalog.LoadRaw(input)
	if err != nil {
		return nil, catalog.PreprocessStats{}, err
	}
	docs, stats := catalog.PreprocessAll(raws)
	if len(docs) == 0 {
		return nil, stats, fmt.Errorf("no valid assessments in %s", input)
	}
	if err := catalog.SaveDocuments(output, docs); err != nil {
		return nil, stats, err
	}
	return docs, stats, nil
}

// Components holds initialized services.
type Components struct {
	Storage storage.Storage // nil for the file source
	Source  catalog.Source
	Engine  *search.Engine
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	c := &Components{}
	switch cfg.Storage.Source {
	case config.SourceSQLite:
		store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		c.Storage = store
		c.Source = store
	default:
		c.Source = catalog.NewFileSource(cfg.Storage.CatalogPath, cfg.Storage.TrainingPath)
	}

	c.Engine = search.NewEngine(c.Source,
		search.WithLogger(logger),
		search.WithBuildOptions(cfg.Recommend.BuildOptions()...),
		search.WithTopKLimits(cfg.Recommend.DefaultTopK, cfg.Recommend.MaxTopK),
	)
	return c, nil
}

func printUsage() {
	fmt.Println(`suisen - assessment recommendation engine

Usage:
  suisen server [flags]               Start the HTTP server
  suisen recommend [flags] <query>    Recommend assessments for a query or job description file
  suisen evaluate [flags]             Measure Recall@K against labeled queries
  suisen predict [flags] <queries>    Write predictions CSV for a query file
  suisen import [flags]               Load catalog and training rows into SQLite
  suisen preprocess [flags]           Clean raw scraped assessments into the catalog JSON
  suisen status [flags]               Show index, storage and config status
  suisen version                      Show version
  suisen help                         Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/suisen/config.yaml)
  --debug            Enable debug logging

Recommend Flags:
  --config string    Config file path
  --server string    Server URL; empty builds the index locally (default: "")
  --top-k int        Number of recommendations (default from config, or 10)
  --file string      Read the query from a pdf/docx/odt/rtf/xlsx/txt file
  --output string    Output format: text, compact or json (default: text)

Evaluate Flags:
  --labels string       Labeled queries CSV/XLSX (Query, Assessment_url)
  --k int               Recall cutoff (default: 10)
  --report string       Write JSON report
  --predictions string  Write predictions CSV
  --verbose             List recall per query
  --output string       Output format: text or json

Predict Flags:
  --out string       Output CSV (default: predictions.csv)
  --k int            Recommendations per query (default: 10)

Import Flags:
  --catalog string   Catalog JSON (default: storage.catalog_path)
  --training string  Training CSV/XLSX (default: storage.training_path)

Preprocess Flags:
  --input string     Raw scraped JSON (default: assessments_raw.json)
  --output string    Catalog JSON (default: storage.catalog_path)

Status Flags:
  --config string    Config file path (for direct mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct mode.
  --output string    Output format: text or json (default: text)

Examples:
  suisen preprocess --input assessments_raw.json --output data/catalog.json
  suisen server
  suisen recommend "I am hiring for Java developers"
  suisen recommend --file job.pdf --top-k 5
  suisen evaluate --labels Train_file.csv --verbose
  suisen predict --out predictions.csv Test_file.csv
  suisen import && curl -X POST localhost:8080/api/v1/reindex
  suisen status --output json`)
}
