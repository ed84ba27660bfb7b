// Package main is the modelscout CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/modelscout/modelscout/internal/calibration"
	"github.com/modelscout/modelscout/internal/catalog"
	"github.com/modelscout/modelscout/internal/classifier"
	"github.com/modelscout/modelscout/internal/cli"
	"github.com/modelscout/modelscout/internal/config"
	"github.com/modelscout/modelscout/internal/embedding"
	"github.com/modelscout/modelscout/internal/keyword"
	"github.com/modelscout/modelscout/internal/models"
	"github.com/modelscout/modelscout/internal/server"
	"github.com/modelscout/modelscout/internal/storage"
	"github.com/modelscout/modelscout/internal/taxonomy"
	"github.com/modelscout/modelscout/internal/watcher"
	"github.com/modelscout/modelscout/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/modelscout/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used,
// so that "modelscout server" from the project dir uses the project's config.
// Returns the config and the path that was actually loaded (for saving, etc.).
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
	case "classify":
		runClassify()
	case "recommend":
		runRecommend()
	case "calibrate":
		runCalibrate()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("modelscout version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (tier decisions, corpus reloads, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	// Warm the embedding engine so the first classify request does not pay
	// for model download and corpus embedding.
	go func() {
		if err := components.Engine.Initialize(context.Background()); err != nil {
			logger.Warn("embedding engine warmup failed, keyword fallback active", zap.Error(err))
		}
	}()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.Taxonomy.Watch && cfg.Taxonomy.Path != "" {
		watchOpts := []watcher.Option{}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		watchSvc := watcher.NewWatcher(cfg.Taxonomy.Path, func(path string) {
			tax, loadErr := taxonomy.Load(path, taxonomy.WithLogger(logger))
			if loadErr != nil {
				logger.Warn("taxonomy reload failed", zap.String("path", path), zap.Error(loadErr))
				return
			}
			if updErr := components.Engine.UpdateSeeds(context.Background(), tax.Seeds(false)); updErr != nil {
				logger.Warn("corpus update failed", zap.Error(updErr))
			}
			if relErr := components.Keyword.Reload(tax); relErr != nil {
				logger.Warn("keyword index reload failed", zap.Error(relErr))
			}
			logger.Info("taxonomy reloaded", zap.String("path", path))
		}, watchOpts...)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start taxonomy watcher", zap.Error(err))
		}
		defer watchSvc.Stop()
	}

	var runs server.RunLister
	if components.Storage != nil {
		runs = components.Storage
	}
	srv := server.NewServer(
		components.Gate,
		components.Catalog,
		components.Classifier,
		runs,
		&cfg.Server,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// buildTaskText joins all positional args with spaces so multi-word task
// descriptions work the same with or without shell quoting.
func buildTaskText(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// argsReorder moves any flags (and their values) that appear after the task
// text to the front of the slice so that flag.Parse() sees them. Go's flag
// package stops at the first non-flag argument, so
// "modelscout classify \"detect spam\" -output json" would otherwise leave
// -output unparsed.
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

func parseOutputFormat(s string) (cli.OutputFormat, error) {
	switch s {
	case "json":
		return cli.OutputJSON, nil
	case "text":
		return cli.OutputText, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

func runClassify() {
	args := argsReorder(os.Args[2:])
	fs := flag.NewFlagSet("classify", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = run the classifier in-process)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Println("Usage: modelscout classify [flags] <task description>")
		os.Exit(1)
	}
	text := buildTaskText(fs.Args())
	if text == "" {
		fmt.Println("Usage: modelscout classify [flags] <task description>")
		os.Exit(1)
	}

	format, err := parseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	if *serverURL != "" {
		// Use the HTTP API when the server is running so the classifier's
		// warm model and corpus are reused.
		result, err := classifyViaHTTP(*serverURL, text)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Classification failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteClassification(os.Stdout, result, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// In-process classification (when server is not running).
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	result, err := components.Gate.Classify(context.Background(), text)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Classification failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteClassification(os.Stdout, result, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func classifyViaHTTP(serverURL, text string) (*models.ClassificationResult, error) {
	body, err := json.Marshal(&models.ClassifyRequest{Text: text})
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/classify", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var result models.ClassificationResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &result, nil
}

func runRecommend() {
	args := argsReorder(os.Args[2:])
	fs := flag.NewFlagSet("recommend", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = run the recommender in-process)")
	maxSizeMB := fs.Float64("max-size", 0, "largest acceptable model size in MB (0 = no limit)")
	minAccuracy := fs.Float64("min-accuracy", 0, "minimum reported accuracy (0 = catalog default)")
	limit := fs.Int("limit", 5, "number of recommended models")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Println("Usage: modelscout recommend [flags] <task description>")
		os.Exit(1)
	}
	text := buildTaskText(fs.Args())
	if text == "" {
		fmt.Println("Usage: modelscout recommend [flags] <task description>")
		os.Exit(1)
	}

	format, err := parseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	req := models.RecommendRequest{
		Text:        text,
		MaxSizeMB:   *maxSizeMB,
		MinAccuracy: *minAccuracy,
		Limit:       *limit,
	}

	if *serverURL != "" {
		rec, err := recommendViaHTTP(*serverURL, &req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Recommendation failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteRecommendation(os.Stdout, rec, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	rec, err := components.Catalog.Recommend(context.Background(), req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Recommendation failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteRecommendation(os.Stdout, rec, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func recommendViaHTTP(serverURL string, req *models.RecommendRequest) (*models.Recommendation, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/recommend", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var rec models.Recommendation
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &rec, nil
}

func runCalibrate() {
	args := argsReorder(os.Args[2:])
	fs := flag.NewFlagSet("calibrate", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	modelName := fs.String("model", "", "candidate model to evaluate (default: configured model, then first candidate)")
	_ = fs.Parse(args)

	experiment := calibration.ExperimentAll
	if fs.NArg() > 0 {
		experiment = fs.Arg(0)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	tax, err := loadTaxonomy(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to load taxonomy", zap.Error(err))
	}

	builder := func(candidate config.ModelCandidate, seeds []models.ReferenceExample) *embedding.Engine {
		return embedding.NewEngine(seeds, embedding.Options{
			ModelName:       candidate.Name,
			ModelsDir:       cfg.Embedding.ModelsDir,
			ModelURL:        candidate.URL,
			Dimensions:      candidate.Dimensions,
			MaxTokens:       cfg.Embedding.MaxTokens,
			CacheSize:       cfg.Embedding.CacheSize,
			InitTimeout:     time.Duration(cfg.Embedding.InitTimeoutSecs) * time.Second,
			DisableDownload: cfg.Embedding.DisableDownload,
			Logger:          logger,
			Factory:         embedderFactory(logger),
		})
	}

	opts := []calibration.HarnessOption{
		calibration.WithResultsDir(cfg.Storage.ResultsDir),
		calibration.WithHarnessLogger(logger),
	}
	if cfg.Storage.DatabasePath != "" {
		store, storeErr := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
		if storeErr != nil {
			logger.Fatal("Failed to open calibration database", zap.Error(storeErr))
		}
		defer store.Close()
		opts = append(opts, calibration.WithStore(store))
	}

	h := calibration.NewHarness(cfg.Calibration, cfg.Classifier.Settings(), tax, builder, opts...)
	if err := h.Run(context.Background(), experiment, *modelName); err != nil {
		fmt.Fprintf(os.Stderr, "Calibration failed: %v\n", err)
		os.Exit(1)
	}
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = in-process stats)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := parseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	if *serverURL != "" {
		stats, err := statsViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteStats(os.Stdout, *stats, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	// Best effort: load-time and reference-count stats need a warm engine.
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Embedding.InitTimeoutSecs)*time.Second)
	defer cancel()
	if initErr := components.Engine.Initialize(ctx); initErr != nil {
		logger.Warn("embedding engine not ready", zap.Error(initErr))
	}

	if err := cli.WriteStats(os.Stdout, components.Classifier.Stats(), format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func statsViaHTTP(serverURL string) (*models.ClassifierStats, error) {
	resp, err := http.Get(serverURL + "/api/v1/stats")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var stats models.ClassifierStats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &stats, nil
}

// Components holds initialized services.
type Components struct {
	Taxonomy   *taxonomy.Taxonomy
	Engine     *embedding.Engine
	Classifier *classifier.Classifier
	Keyword    *keyword.Classifier
	Gate       *classifier.Gate
	Catalog    *catalog.Catalog
	Storage    *storage.SQLiteStorage
}

func (c *Components) Close() {
	if c.Engine != nil {
		_ = c.Engine.Close()
	}
	if c.Keyword != nil {
		_ = c.Keyword.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

// embedderFactory tries the ONNX runtime first and falls back to the mock
// embedder when the runtime is unavailable (e.g. built without cgo).
func embedderFactory(logger *zap.Logger) embedding.Factory {
	return func(modelPath string, dimensions, maxTokens, cacheSize int) (embedding.Embedder, error) {
		onnx, err := embedding.NewONNXEmbedder(modelPath, dimensions, maxTokens, cacheSize)
		if err != nil {
			if logger != nil {
				logger.Warn("onnx embedder unavailable, using mock embedder", zap.Error(err))
			}
			return embedding.NewMockEmbedder(dimensions), nil
		}
		return onnx, nil
	}
}

func loadTaxonomy(cfg *config.Config, logger *zap.Logger) (*taxonomy.Taxonomy, error) {
	if cfg.Taxonomy.Path != "" {
		tax, err := taxonomy.Load(cfg.Taxonomy.Path, taxonomy.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("failed to load taxonomy: %w", err)
		}
		return tax, nil
	}
	return taxonomy.Default(), nil
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	tax, err := loadTaxonomy(cfg, logger)
	if err != nil {
		return nil, err
	}

	engine := embedding.NewEngine(tax.Seeds(false), embedding.Options{
		ModelName:       cfg.Classifier.ModelName,
		ModelsDir:       cfg.Embedding.ModelsDir,
		ModelURL:        cfg.Embedding.ModelURL,
		Dimensions:      cfg.Embedding.Dimensions,
		MaxTokens:       cfg.Embedding.MaxTokens,
		CacheSize:       cfg.Embedding.CacheSize,
		InitTimeout:     time.Duration(cfg.Embedding.InitTimeoutSecs) * time.Second,
		DisableDownload: cfg.Embedding.DisableDownload,
		CorpusIndexPath: cfg.Storage.CorpusIndexPath,
		Logger:          logger,
		Factory:         embedderFactory(logger),
	})

	embedTier, err := classifier.New(engine, tax, cfg.Classifier.Settings(), classifier.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize classifier: %w", err)
	}

	keywordTier, err := keyword.NewClassifier(tax)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize keyword classifier: %w", err)
	}

	gate := classifier.NewGate(
		embedTier,
		keywordTier,
		tax,
		cfg.Classifier.ConfidenceThreshold,
		cfg.Classifier.KeywordThreshold,
		classifier.WithGateLogger(logger),
	)

	entries := catalog.DefaultModels()
	if cfg.Catalog.Path != "" {
		entries, err = catalog.LoadModels(cfg.Catalog.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
	}
	cat, err := catalog.New(entries, gate, cfg.Catalog.MinAccuracy)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize catalog: %w", err)
	}

	var store *storage.SQLiteStorage
	if cfg.Storage.DatabasePath != "" {
		store, err = storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
	}

	return &Components{
		Taxonomy:   tax,
		Engine:     engine,
		Classifier: embedTier,
		Keyword:    keywordTier,
		Gate:       gate,
		Catalog:    cat,
		Storage:    store,
	}, nil
}

func printUsage() {
	fmt.Println(`modelscout - Task classification and on-device model recommendation

Usage:
  modelscout server [flags]              Start the HTTP server
  modelscout classify [flags] <task>     Classify a task description
  modelscout recommend [flags] <task>    Recommend catalog models for a task
  modelscout calibrate [experiment]      Run offline calibration (benchmark|threshold|coverage|performance|all)
  modelscout status [flags]              Show classifier status
  modelscout version                     Show version
  modelscout help                        Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/modelscout/config.yaml)
  --debug            Enable debug logging (tier decisions, corpus reloads, etc.)

Classify Flags:
  --config string    Config file path (for in-process mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") to classify in-process.
  --output string    Output format: text or json (default: text)

Recommend Flags:
  --config string         Config file path (for in-process mode)
  --server string         Server URL (default: http://localhost:8080). Use empty (--server "") to run in-process.
  --max-size float        Largest acceptable model size in MB (0 = no limit)
  --min-accuracy float    Minimum reported accuracy (0 = catalog default)
  --limit int             Number of recommended models (default: 5)
  --output string         Output format: text or json (default: text)

Calibrate Flags:
  --config string    Config file path
  --model string     Candidate model to evaluate (default: configured model, then first candidate)

Status Flags:
  --config string    Config file path (for in-process mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for in-process stats.
  --output string    Output format: text or json (default: text)

Examples:
  modelscout server
  modelscout classify "detect spam emails"
  modelscout classify --output json "summarize support tickets"
  modelscout recommend --max-size 100 "count people in security camera footage"
  modelscout calibrate benchmark
  modelscout calibrate threshold --model all-MiniLM-L12-v2
  modelscout status
  modelscout status --output json`)
}
