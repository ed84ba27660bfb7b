package calibration

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/modelscout/modelscout/internal/config"
	"github.com/modelscout/modelscout/internal/embedding"
	"github.com/modelscout/modelscout/internal/models"
	"github.com/modelscout/modelscout/internal/storage"
	"github.com/modelscout/modelscout/internal/taxonomy"
)

func testCalibrationConfig() config.CalibrationConfig {
	return config.CalibrationConfig{
		Candidates: []config.ModelCandidate{
			{Name: "small-model", SizeMB: 23, Dimensions: 32},
			{Name: "large-model", SizeMB: 120, Dimensions: 32},
		},
		SampleSize:     20,
		Seed:           42,
		SizeCeilingMB:  35,
		AccuracyFloor:  0,
		AccuracyTarget: 0,
		CoverageTarget: 0,
		ExampleCounts:  []int{2, 4, 6},
	}
}

func testHarnessSettings() models.ClassifierSettings {
	return models.ClassifierSettings{
		ModelName:           "small-model",
		TopK:                5,
		VotingMethod:        models.VotingWeighted,
		ConfidenceThreshold: 0.70,
	}
}

func mockBuilder(failFor string) EngineBuilder {
	return func(candidate config.ModelCandidate, seeds []models.ReferenceExample) *embedding.Engine {
		return embedding.NewEngine(seeds, embedding.Options{
			ModelName:  candidate.Name,
			Dimensions: candidate.Dimensions,
			Factory: func(modelPath string, dimensions, maxTokens, cacheSize int) (embedding.Embedder, error) {
				if candidate.Name == failFor {
					return nil, fmt.Errorf("weights corrupt for %s", candidate.Name)
				}
				return embedding.NewMockEmbedder(dimensions), nil
			},
		})
	}
}

func newTestHarness(t *testing.T, opts ...HarnessOption) *Harness {
	t.Helper()
	return NewHarness(testCalibrationConfig(), testHarnessSettings(), taxonomy.Default(), mockBuilder(""), opts...)
}

func TestHarness_Benchmark(t *testing.T) {
	h := newTestHarness(t)
	report, err := h.RunBenchmark(context.Background())
	if err != nil {
		t.Fatalf("RunBenchmark failed: %v", err)
	}
	if len(report.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(report.Results))
	}
	if report.Recommended != "small-model" {
		t.Errorf("expected small-model recommended, got %q", report.Recommended)
	}
	for _, r := range report.Results {
		if r.ModelName == "large-model" {
			if r.Eligible {
				t.Error("large-model should be ineligible over the size ceiling")
			}
			if !strings.Contains(r.Reason, "size ceiling") {
				t.Errorf("expected size ceiling reason, got %q", r.Reason)
			}
		}
		if r.ModelName == "small-model" && !r.Eligible {
			t.Errorf("small-model should be eligible, reason: %q", r.Reason)
		}
	}
	if report.Summary() == "" {
		t.Error("summary should not be empty")
	}
}

func TestHarness_BenchmarkFailedCandidateDoesNotAbort(t *testing.T) {
	h := NewHarness(testCalibrationConfig(), testHarnessSettings(), taxonomy.Default(), mockBuilder("small-model"))
	report, err := h.RunBenchmark(context.Background())
	if err != nil {
		t.Fatalf("RunBenchmark failed: %v", err)
	}
	var failed, succeeded bool
	for _, r := range report.Results {
		if r.ModelName == "small-model" {
			failed = r.Error != "" && r.Top1Accuracy == 0
		}
		if r.ModelName == "large-model" {
			succeeded = r.Error == ""
		}
	}
	if !failed {
		t.Error("failing candidate should be reported with an error and zero scores")
	}
	if !succeeded {
		t.Error("remaining candidate should still be evaluated")
	}
}

func TestHarness_Threshold(t *testing.T) {
	h := newTestHarness(t)
	report, err := h.RunThreshold(context.Background(), "")
	if err != nil {
		t.Fatalf("RunThreshold failed: %v", err)
	}
	if report.ModelName != "small-model" {
		t.Errorf("expected settings model name, got %q", report.ModelName)
	}
	if len(report.Grid) != 9 {
		t.Fatalf("expected 9 grid points, got %d", len(report.Grid))
	}
	for i := 1; i < len(report.Grid); i++ {
		if report.Grid[i].Threshold <= report.Grid[i-1].Threshold {
			t.Error("grid thresholds should be strictly increasing")
		}
		if report.Grid[i].Coverage > report.Grid[i-1].Coverage {
			t.Errorf("coverage grew from %.3f to %.3f as threshold rose",
				report.Grid[i-1].Coverage, report.Grid[i].Coverage)
		}
	}
	if len(report.KSweep) != 4 {
		t.Errorf("expected 4 k sweep points, got %d", len(report.KSweep))
	}
	if len(report.VotingSweep) != 2 {
		t.Errorf("expected 2 voting sweep points, got %d", len(report.VotingSweep))
	}
	if report.RecommendedThreshold < 0.50 || report.RecommendedThreshold > 0.90 {
		t.Errorf("recommended threshold %f outside grid", report.RecommendedThreshold)
	}
}

func TestHarness_ThresholdUnknownModel(t *testing.T) {
	h := newTestHarness(t)
	if _, err := h.RunThreshold(context.Background(), "nonexistent"); err == nil {
		t.Fatal("expected error for unknown candidate")
	}
}

func TestHarness_Coverage(t *testing.T) {
	h := newTestHarness(t)
	report, err := h.RunCoverage(context.Background(), "")
	if err != nil {
		t.Fatalf("RunCoverage failed: %v", err)
	}
	if len(report.Points) != 3 {
		t.Fatalf("expected 3 coverage points, got %d", len(report.Points))
	}
	for i, p := range report.Points {
		if p.ExamplesPerCategory != []int{2, 4, 6}[i] {
			t.Errorf("point %d has count %d", i, p.ExamplesPerCategory)
		}
		if p.TrainSize == 0 {
			t.Errorf("point %d has empty training set", i)
		}
	}
	if report.DiminishingReturnsAt == 0 {
		t.Error("diminishing returns point should be set")
	}
	if len(report.Uncovered) != 0 {
		t.Errorf("default taxonomy should have no uncovered categories, got %v", report.Uncovered)
	}
}

func TestHarness_CoverageFlagsUncoveredCategory(t *testing.T) {
	tax := taxonomy.Default()
	var seeds []models.ReferenceExample
	for _, s := range tax.Seeds(false) {
		if s.Category != "generative" {
			seeds = append(seeds, s)
		}
	}
	h := NewHarness(testCalibrationConfig(), testHarnessSettings(), tax, mockBuilder(""), WithSeeds(seeds))

	report, err := h.RunCoverage(context.Background(), "")
	if err != nil {
		t.Fatalf("RunCoverage failed: %v", err)
	}
	if len(report.Uncovered) != 1 || report.Uncovered[0] != "generative" {
		t.Fatalf("expected generative flagged as uncovered, got %v", report.Uncovered)
	}
	if !strings.Contains(report.Recommendation, "generative") {
		t.Error("recommendation should name the uncovered category")
	}
}

func TestHarness_Performance(t *testing.T) {
	h := newTestHarness(t)
	report, err := h.RunPerformance(context.Background(), "")
	if err != nil {
		t.Fatalf("RunPerformance failed: %v", err)
	}
	if len(report.ColdLoadMs) != 3 {
		t.Errorf("expected 3 cold load runs, got %d", len(report.ColdLoadMs))
	}
	if len(report.Targets) != 2 {
		t.Errorf("expected 2 device targets, got %d", len(report.Targets))
	}
	if report.MemoryEstimateMB <= 23 {
		t.Errorf("memory estimate should exceed the model size, got %f", report.MemoryEstimateMB)
	}
	if report.InferenceP99Ms < report.InferenceP50Ms {
		t.Error("p99 should be at least p50")
	}
}

type recordingEmbedder struct {
	*embedding.MockEmbedder
	mu    sync.Mutex
	texts []string
}

func (r *recordingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	r.mu.Lock()
	r.texts = append(r.texts, text)
	r.mu.Unlock()
	return r.MockEmbedder.Embed(ctx, text)
}

func TestHarness_PerformanceMeasuresUncachedTexts(t *testing.T) {
	rec := &recordingEmbedder{MockEmbedder: embedding.NewMockEmbedder(32)}
	build := func(candidate config.ModelCandidate, seeds []models.ReferenceExample) *embedding.Engine {
		return embedding.NewEngine(seeds, embedding.Options{
			ModelName:  candidate.Name,
			Dimensions: candidate.Dimensions,
			Factory: func(string, int, int, int) (embedding.Embedder, error) {
				return rec, nil
			},
		})
	}
	h := NewHarness(testCalibrationConfig(), testHarnessSettings(), taxonomy.Default(), build)

	if _, err := h.RunPerformance(context.Background(), ""); err != nil {
		t.Fatalf("RunPerformance failed: %v", err)
	}

	corpus := make(map[string]bool)
	for _, s := range taxonomy.Default().Seeds(false) {
		corpus[s.Text] = true
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.texts) == 0 {
		t.Fatal("expected recorded inference calls")
	}
	for _, text := range rec.texts {
		if corpus[text] {
			t.Fatalf("latency loop embedded corpus text %q, which is served from the cache", text)
		}
	}
}

func TestHarness_RunPersistsAndWritesReport(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewSQLiteStorage(filepath.Join(dir, "runs.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	var out bytes.Buffer
	h := newTestHarness(t, WithStore(store), WithResultsDir(filepath.Join(dir, "results")), WithOutput(&out))

	if err := h.Run(context.Background(), ExperimentBenchmark, ""); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	runs, err := store.ListRuns(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Status != models.RunCompleted {
		t.Fatalf("expected 1 completed run, got %+v", runs)
	}
	files, err := os.ReadDir(filepath.Join(dir, "results"))
	if err != nil || len(files) != 1 {
		t.Fatalf("expected 1 report file, got %v (%v)", files, err)
	}
	if !strings.Contains(out.String(), "Model benchmark") {
		t.Error("console summary should be printed")
	}
}

func TestHarness_RunRecordsFailure(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewSQLiteStorage(filepath.Join(dir, "runs.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	h := newTestHarness(t, WithStore(store), WithOutput(&bytes.Buffer{}))
	if err := h.Run(context.Background(), ExperimentThreshold, "nonexistent"); err == nil {
		t.Fatal("expected error for unknown model")
	}

	runs, err := store.ListRuns(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Status != models.RunFailed || runs[0].Error == "" {
		t.Fatalf("expected 1 failed run with error, got %+v", runs)
	}
}

func TestHarness_RunBenchmarkWithoutCandidatesRecordsFailure(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewSQLiteStorage(filepath.Join(dir, "runs.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	cfg := testCalibrationConfig()
	cfg.Candidates = nil
	h := NewHarness(cfg, testHarnessSettings(), taxonomy.Default(), mockBuilder(""),
		WithStore(store), WithOutput(&bytes.Buffer{}))

	if err := h.Run(context.Background(), ExperimentBenchmark, ""); err == nil {
		t.Fatal("expected error when no candidates are configured")
	}

	runs, err := store.ListRuns(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Status != models.RunFailed || runs[0].Error == "" {
		t.Fatalf("expected 1 failed run with error, got %+v", runs)
	}
}

func TestHarness_RunAllBestEffort(t *testing.T) {
	var out bytes.Buffer
	h := newTestHarness(t, WithOutput(&out))

	if err := h.Run(context.Background(), ExperimentAll, ""); err != nil {
		t.Fatalf("Run all failed: %v", err)
	}
	for _, header := range []string{"Model benchmark", "Threshold calibration", "Coverage analysis", "Performance"} {
		if !strings.Contains(out.String(), header) {
			t.Errorf("expected %q in batch output", header)
		}
	}
}

func TestHarness_UnknownExperiment(t *testing.T) {
	h := newTestHarness(t)
	if err := h.Run(context.Background(), "nope", ""); err == nil {
		t.Fatal("expected error for unknown experiment")
	}
}

func TestHarness_SampleDeterminism(t *testing.T) {
	h := newTestHarness(t)
	first := h.sampleSeeds()
	second := h.sampleSeeds()
	if len(first) != 20 {
		t.Fatalf("expected sample of 20, got %d", len(first))
	}
	for i := range first {
		if first[i].Text != second[i].Text || first[i].Category != second[i].Category {
			t.Fatalf("sample differs at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}
