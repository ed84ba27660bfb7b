package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/modelscout/modelscout/internal/models"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
classifier:
  top_k: 7
  voting_method: "simple"
  confidence_threshold: 0.65
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Classifier.TopK != 7 {
		t.Errorf("top_k not loaded: %d", cfg.Classifier.TopK)
	}
	if cfg.Classifier.VotingMethod != models.VotingSimple {
		t.Errorf("voting method not loaded: %s", cfg.Classifier.VotingMethod)
	}
	if cfg.Classifier.ConfidenceThreshold != 0.65 {
		t.Errorf("threshold not loaded: %f", cfg.Classifier.ConfidenceThreshold)
	}
}

func TestLoad_defaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("debug: true\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true")
	}
	if cfg.Classifier.ModelName != DefaultModelName {
		t.Errorf("expected default model, got %s", cfg.Classifier.ModelName)
	}
	if cfg.Classifier.TopK != DefaultTopK {
		t.Errorf("expected default top_k, got %d", cfg.Classifier.TopK)
	}
	if cfg.Classifier.VotingMethod != models.VotingWeighted {
		t.Errorf("expected weighted voting default, got %s", cfg.Classifier.VotingMethod)
	}
	if cfg.Classifier.ConfidenceThreshold != DefaultConfidenceThreshold {
		t.Errorf("expected default threshold, got %f", cfg.Classifier.ConfidenceThreshold)
	}
	if cfg.Embedding.Dimensions != DefaultDimensions {
		t.Errorf("expected default dimensions, got %d", cfg.Embedding.Dimensions)
	}
	if len(cfg.Calibration.Candidates) == 0 {
		t.Error("expected default model candidates")
	}
}

func TestLoad_invalidClassifier(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
classifier:
  confidence_threshold: 1.5
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for threshold > 1")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
storage:
  database_path: "./data/calibration.db"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dir, "data/calibration.db")
	if cfg.Storage.DatabasePath != want {
		t.Errorf("expected %s, got %s", want, cfg.Storage.DatabasePath)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Classifier.ConfidenceThreshold = 0.75
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Classifier.ConfidenceThreshold != 0.75 {
		t.Errorf("threshold not round-tripped: %f", loaded.Classifier.ConfidenceThreshold)
	}
}
