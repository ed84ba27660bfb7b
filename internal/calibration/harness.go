// Package calibration implements the offline experiment harness that selects
// the classifier's operating parameters: which embedding model to ship, what
// confidence threshold to gate at, how many reference examples each category
// needs, and whether the result meets device latency targets.
package calibration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/modelscout/modelscout/internal/config"
	"github.com/modelscout/modelscout/internal/embedding"
	"github.com/modelscout/modelscout/internal/models"
	"github.com/modelscout/modelscout/internal/taxonomy"
)

// Experiments the harness knows how to run.
const (
	ExperimentBenchmark   = "benchmark"
	ExperimentThreshold   = "threshold"
	ExperimentCoverage    = "coverage"
	ExperimentPerformance = "performance"
	ExperimentAll         = "all"
)

// EngineBuilder constructs an embedding engine for one candidate model over
// the given corpus seeds. Injected so tests can substitute a deterministic
// embedder and so experiments control corpus composition.
type EngineBuilder func(candidate config.ModelCandidate, seeds []models.ReferenceExample) *embedding.Engine

// RunStore persists completed runs. *storage.SQLiteStorage satisfies it.
type RunStore interface {
	SaveRun(ctx context.Context, run *models.CalibrationRun) error
}

// report is the common shape of every experiment's output.
type report interface {
	Summary() string
}

// Harness runs calibration experiments and records their reports.
type Harness struct {
	cfg        config.CalibrationConfig
	settings   models.ClassifierSettings
	tax        *taxonomy.Taxonomy
	seeds      []models.ReferenceExample
	build      EngineBuilder
	store      RunStore
	resultsDir string
	logger     *zap.Logger
	out        io.Writer
}

// HarnessOption configures a Harness.
type HarnessOption func(*Harness)

// WithStore persists runs to the given store.
func WithStore(s RunStore) HarnessOption {
	return func(h *Harness) { h.store = s }
}

// WithResultsDir writes each report as JSON into dir.
func WithResultsDir(dir string) HarnessOption {
	return func(h *Harness) { h.resultsDir = dir }
}

// WithHarnessLogger sets the logger.
func WithHarnessLogger(l *zap.Logger) HarnessOption {
	return func(h *Harness) { h.logger = l }
}

// WithOutput redirects console summaries, which go to stdout by default.
func WithOutput(w io.Writer) HarnessOption {
	return func(h *Harness) { h.out = w }
}

// WithSeeds overrides the corpus seeds derived from the taxonomy. Used to
// probe corpus gaps (a category deliberately left without examples).
func WithSeeds(seeds []models.ReferenceExample) HarnessOption {
	return func(h *Harness) { h.seeds = seeds }
}

// NewHarness creates a harness over a taxonomy and an engine builder.
func NewHarness(cfg config.CalibrationConfig, settings models.ClassifierSettings, tax *taxonomy.Taxonomy, build EngineBuilder, opts ...HarnessOption) *Harness {
	h := &Harness{
		cfg:      cfg,
		settings: settings,
		tax:      tax,
		build:    build,
		logger:   zap.NewNop(),
		out:      os.Stdout,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.seeds == nil {
		h.seeds = tax.Seeds(cfg.IncludeKeywordSeeds)
	}
	return h
}

// Run executes one experiment, or all of them when experiment is "all".
// Batch runs are best effort: a failing experiment is recorded and reported
// but does not stop the remaining ones.
func (h *Harness) Run(ctx context.Context, experiment, modelOverride string) error {
	if experiment == ExperimentAll {
		var errs []error
		for _, name := range []string{ExperimentBenchmark, ExperimentThreshold, ExperimentCoverage, ExperimentPerformance} {
			if err := h.runOne(ctx, name, modelOverride); err != nil {
				h.logger.Error("experiment failed", zap.String("experiment", name), zap.Error(err))
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
			}
		}
		return errors.Join(errs...)
	}
	return h.runOne(ctx, experiment, modelOverride)
}

func (h *Harness) runOne(ctx context.Context, experiment, modelOverride string) error {
	started := time.Now()
	var (
		rep       report
		modelName string
		err       error
	)
	switch experiment {
	case ExperimentBenchmark:
		var r *BenchmarkReport
		r, err = h.RunBenchmark(ctx)
		if r != nil {
			rep, modelName = r, r.Recommended
		}
	case ExperimentThreshold:
		var r *ThresholdReport
		r, err = h.RunThreshold(ctx, modelOverride)
		if r != nil {
			rep, modelName = r, r.ModelName
		}
	case ExperimentCoverage:
		var r *CoverageReport
		r, err = h.RunCoverage(ctx, modelOverride)
		if r != nil {
			rep, modelName = r, r.ModelName
		}
	case ExperimentPerformance:
		var r *PerformanceReport
		r, err = h.RunPerformance(ctx, modelOverride)
		if r != nil {
			rep, modelName = r, r.ModelName
		}
	default:
		return fmt.Errorf("unknown experiment %q (supported: benchmark, threshold, coverage, performance, all)", experiment)
	}

	run := &models.CalibrationRun{
		ID:          uuid.NewString(),
		Experiment:  experiment,
		ModelName:   modelName,
		StartedAt:   started,
		CompletedAt: time.Now(),
	}
	if err != nil {
		run.Status = models.RunFailed
		run.Error = err.Error()
	} else {
		run.Status = models.RunCompleted
		run.Report, _ = json.MarshalIndent(rep, "", "  ")
		if h.resultsDir != "" {
			if werr := h.writeReport(run); werr != nil {
				h.logger.Warn("failed to write report file", zap.Error(werr))
			}
		}
		fmt.Fprintln(h.out, rep.Summary())
	}
	if h.store != nil {
		if serr := h.store.SaveRun(ctx, run); serr != nil {
			h.logger.Warn("failed to persist run", zap.String("id", run.ID), zap.Error(serr))
		}
	}
	return err
}

func (h *Harness) writeReport(run *models.CalibrationRun) error {
	if err := os.MkdirAll(h.resultsDir, 0755); err != nil {
		return err
	}
	path := filepath.Join(h.resultsDir, fmt.Sprintf("%s-%s.json", run.Experiment, run.ID))
	return os.WriteFile(path, run.Report, 0644)
}

// candidate resolves a model name to a configured candidate. An empty name
// falls back to the classifier's current model, then to the first candidate.
func (h *Harness) candidate(name string) (config.ModelCandidate, error) {
	if name == "" {
		name = h.settings.ModelName
	}
	for _, c := range h.cfg.Candidates {
		if c.Name == name {
			return c, nil
		}
	}
	if name == "" && len(h.cfg.Candidates) > 0 {
		return h.cfg.Candidates[0], nil
	}
	return config.ModelCandidate{}, fmt.Errorf("model %q is not a configured candidate", name)
}

// sampleSeeds draws the deterministic evaluation sample. The seed and sample
// size are explicit configuration so published numbers are reproducible.
func (h *Harness) sampleSeeds() []models.ReferenceExample {
	shuffled := make([]models.ReferenceExample, len(h.seeds))
	copy(shuffled, h.seeds)
	rng := rand.New(rand.NewSource(h.cfg.Seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	n := h.cfg.SampleSize
	if n <= 0 || n > len(shuffled) {
		n = len(shuffled)
	}
	return shuffled[:n]
}
