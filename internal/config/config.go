// Package config provides configuration loading and structs for modelscout.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/modelscout/modelscout/internal/models"
)

// Config holds all configuration for the application.
type Config struct {
	Debug       bool              `yaml:"debug"`
	Server      ServerConfig      `yaml:"server"`
	Storage     StorageConfig     `yaml:"storage"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Classifier  ClassifierConfig  `yaml:"classifier"`
	Taxonomy    TaxonomyConfig    `yaml:"taxonomy"`
	Catalog     CatalogConfig     `yaml:"catalog"`
	Calibration CalibrationConfig `yaml:"calibration"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the calibration database and embedding caches.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
	// CorpusIndexPath, when set, persists reference embeddings between runs
	// so warm starts skip re-embedding an unchanged corpus.
	CorpusIndexPath string `yaml:"corpus_index_path"`
	ResultsDir      string `yaml:"results_dir"`
}

// EmbeddingConfig holds embedding model settings.
type EmbeddingConfig struct {
	// ModelsDir is the local cache for downloaded model weights.
	ModelsDir string `yaml:"models_dir"`
	// ModelURL is the remote source for weights when not cached locally.
	// The final path is ModelsDir/<model_name>.onnx.
	ModelURL          string `yaml:"model_url"`
	Dimensions        int    `yaml:"dimensions"`
	MaxTokens         int    `yaml:"max_tokens"`
	CacheSize         int    `yaml:"cache_size"`
	InitTimeoutSecs   int    `yaml:"init_timeout_secs"`
	DisableDownload   bool   `yaml:"disable_download"`
}

// ClassifierConfig holds the classifier's calibrated operating parameters.
type ClassifierConfig struct {
	ModelName           string              `yaml:"model_name"`
	TopK                int                 `yaml:"top_k"`
	VotingMethod        models.VotingMethod `yaml:"voting_method"`
	ConfidenceThreshold float64             `yaml:"confidence_threshold"`
	// KeywordThreshold is the acceptance bar for the keyword fallback tier.
	KeywordThreshold float64 `yaml:"keyword_threshold"`
}

// Settings converts the config section to classifier settings.
func (c *ClassifierConfig) Settings() models.ClassifierSettings {
	return models.ClassifierSettings{
		ModelName:           c.ModelName,
		TopK:                c.TopK,
		VotingMethod:        c.VotingMethod,
		ConfidenceThreshold: c.ConfidenceThreshold,
	}
}

// TaxonomyConfig holds taxonomy source settings.
type TaxonomyConfig struct {
	// Path is an optional taxonomy YAML file; empty means the built-in taxonomy.
	Path string `yaml:"path"`
	// Watch reloads and incrementally re-embeds the corpus when Path changes.
	Watch bool `yaml:"watch"`
}

// CatalogConfig holds model catalog settings.
type CatalogConfig struct {
	// Path is an optional catalog YAML file; empty means the built-in catalog.
	Path string `yaml:"path"`
	// MinAccuracy filters recommended models below this reported accuracy.
	MinAccuracy float64 `yaml:"min_accuracy"`
}

// ModelCandidate is one embedding model evaluated by the calibration harness.
type ModelCandidate struct {
	Name       string  `yaml:"name"`
	URL        string  `yaml:"url"`
	SizeMB     float64 `yaml:"size_mb"`
	Dimensions int     `yaml:"dimensions"`
}

// CalibrationConfig holds offline calibration harness settings.
type CalibrationConfig struct {
	Candidates []ModelCandidate `yaml:"candidates"`
	SampleSize int              `yaml:"sample_size"`
	Seed       int64            `yaml:"seed"`
	// SizeCeilingMB and AccuracyFloor gate the benchmark ranking.
	SizeCeilingMB float64 `yaml:"size_ceiling_mb"`
	AccuracyFloor float64 `yaml:"accuracy_floor"`
	// AccuracyTarget and CoverageTarget drive threshold selection.
	AccuracyTarget float64 `yaml:"accuracy_target"`
	CoverageTarget float64 `yaml:"coverage_target"`
	// ExampleCounts are the per-category corpus sizes tried by coverage analysis.
	ExampleCounts []int `yaml:"example_counts"`
	// IncludeKeywordSeeds enables the ablation mode that adds keyword-derived
	// reference examples to the corpus.
	IncludeKeywordSeeds bool `yaml:"include_keyword_seeds"`
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

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.CorpusIndexPath = expandPath(cfg.Storage.CorpusIndexPath, configDir)
	cfg.Storage.ResultsDir = expandPath(cfg.Storage.ResultsDir, configDir)
	cfg.Embedding.ModelsDir = expandPath(cfg.Embedding.ModelsDir, configDir)
	if cfg.Taxonomy.Path != "" {
		cfg.Taxonomy.Path = expandPath(cfg.Taxonomy.Path, configDir)
	}
	if cfg.Catalog.Path != "" {
		cfg.Catalog.Path = expandPath(cfg.Catalog.Path, configDir)
	}

	settings := cfg.Classifier.Settings()
	if err := settings.Validate(0); err != nil {
		return nil, fmt.Errorf("invalid classifier config: %w", err)
	}
	return &cfg, nil
}

// Save writes the config to path. Used when applying a calibration recommendation.
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
// other relative paths are relative to the home directory.
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
