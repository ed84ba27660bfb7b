package config

import "github.com/modelscout/modelscout/internal/models"

// Default classifier parameters. These are the values validated by the
// calibration harness; run "modelscout calibrate all" to re-derive them.
const (
	DefaultModelName           = "all-MiniLM-L6-v2"
	DefaultTopK                = 5
	DefaultConfidenceThreshold = 0.70
	DefaultKeywordThreshold    = 0.50
	DefaultDimensions          = 384
	DefaultMaxTokens           = 256
	DefaultCacheSize           = 1000
	DefaultInitTimeoutSecs     = 60
)

// ApplyDefaults fills unset config fields with defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = ".modelscout/calibration.db"
	}
	if cfg.Storage.ResultsDir == "" {
		cfg.Storage.ResultsDir = ".modelscout/results"
	}
	if cfg.Embedding.ModelsDir == "" {
		cfg.Embedding.ModelsDir = ".modelscout/models"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = DefaultDimensions
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = DefaultMaxTokens
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = DefaultCacheSize
	}
	if cfg.Embedding.InitTimeoutSecs == 0 {
		cfg.Embedding.InitTimeoutSecs = DefaultInitTimeoutSecs
	}
	if cfg.Classifier.ModelName == "" {
		cfg.Classifier.ModelName = DefaultModelName
	}
	if cfg.Classifier.TopK == 0 {
		cfg.Classifier.TopK = DefaultTopK
	}
	if cfg.Classifier.VotingMethod == "" {
		cfg.Classifier.VotingMethod = models.VotingWeighted
	}
	if cfg.Classifier.ConfidenceThreshold == 0 {
		cfg.Classifier.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	if cfg.Classifier.KeywordThreshold == 0 {
		cfg.Classifier.KeywordThreshold = DefaultKeywordThreshold
	}
	if cfg.Catalog.MinAccuracy == 0 {
		cfg.Catalog.MinAccuracy = 0.80
	}
	if cfg.Calibration.SampleSize == 0 {
		cfg.Calibration.SampleSize = 50
	}
	if cfg.Calibration.Seed == 0 {
		cfg.Calibration.Seed = 42
	}
	if cfg.Calibration.SizeCeilingMB == 0 {
		cfg.Calibration.SizeCeilingMB = 35
	}
	if cfg.Calibration.AccuracyFloor == 0 {
		cfg.Calibration.AccuracyFloor = 0.85
	}
	if cfg.Calibration.AccuracyTarget == 0 {
		cfg.Calibration.AccuracyTarget = 0.70
	}
	if cfg.Calibration.CoverageTarget == 0 {
		cfg.Calibration.CoverageTarget = 0.50
	}
	if len(cfg.Calibration.ExampleCounts) == 0 {
		cfg.Calibration.ExampleCounts = []int{2, 4, 6, 8, 10}
	}
	if len(cfg.Calibration.Candidates) == 0 {
		cfg.Calibration.Candidates = []ModelCandidate{
			{Name: "all-MiniLM-L6-v2", SizeMB: 23, Dimensions: 384},
			{Name: "all-MiniLM-L12-v2", SizeMB: 34, Dimensions: 384},
			{Name: "paraphrase-albert-small-v2", SizeMB: 43, Dimensions: 768},
		}
	}
}
