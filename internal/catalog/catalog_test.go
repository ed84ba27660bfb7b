package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/modelscout/modelscout/internal/models"
)

type fixedClassifier struct {
	result *models.ClassificationResult
}

func (f *fixedClassifier) Classify(ctx context.Context, text string) (*models.ClassificationResult, error) {
	return f.result, nil
}

func visionResult(confidence float64, level models.ConfidenceLevel) *models.ClassificationResult {
	return &models.ClassificationResult{
		Input: "classify dog breeds in photos",
		Predictions: []models.CategoryPrediction{
			{Category: "computer_vision", Score: confidence},
			{Category: "natural_language_processing", Score: 1 - confidence},
		},
		SubcategoryPredictions: []models.CategoryPrediction{
			{Category: "computer_vision", Subcategory: "image_classification", Score: 1},
		},
		Confidence:      confidence,
		ConfidenceLevel: level,
		Method:          models.MethodEmbedding,
	}
}

func TestCatalog_RecommendSmallerFirst(t *testing.T) {
	c, err := New(DefaultModels(), &fixedClassifier{result: visionResult(0.9, models.ConfidenceHigh)}, 0)
	if err != nil {
		t.Fatal(err)
	}

	rec, err := c.Recommend(context.Background(), models.RecommendRequest{Text: "classify dog breeds in photos"})
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	if rec.NeedsClarification {
		t.Error("confident classification should not ask for clarification")
	}
	if len(rec.Models) == 0 {
		t.Fatal("expected recommendations for computer_vision")
	}
	for i, m := range rec.Models {
		if m.Model.Category != "computer_vision" {
			t.Errorf("model %s is not computer_vision", m.Model.Name)
		}
		if m.Rank != i+1 {
			t.Errorf("rank %d at position %d", m.Rank, i)
		}
	}
	// Subcategory matches come first, each block sorted smaller-first.
	var lastMatchedSize float64
	for _, m := range rec.Models {
		if !m.SubcategoryMatch {
			break
		}
		if m.Model.SizeMB < lastMatchedSize {
			t.Errorf("subcategory matches not sorted smaller-first: %s", m.Model.Name)
		}
		lastMatchedSize = m.Model.SizeMB
	}
	if rec.Models[0].Model.Name != "mobilenet-v3-small" {
		t.Errorf("expected smallest image classifier first, got %s", rec.Models[0].Model.Name)
	}
}

func TestCatalog_RecommendFilters(t *testing.T) {
	c, err := New(DefaultModels(), &fixedClassifier{result: visionResult(0.9, models.ConfidenceHigh)}, 0)
	if err != nil {
		t.Fatal(err)
	}

	rec, err := c.Recommend(context.Background(), models.RecommendRequest{
		Text:        "classify dog breeds in photos",
		MinAccuracy: 0.75,
		MaxSizeMB:   100,
		Limit:       10,
	})
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	for _, m := range rec.Models {
		if m.Model.Accuracy < 0.75 {
			t.Errorf("%s below accuracy filter", m.Model.Name)
		}
		if m.Model.SizeMB > 100 {
			t.Errorf("%s above size filter", m.Model.Name)
		}
	}
}

func TestCatalog_RecommendLimit(t *testing.T) {
	c, err := New(DefaultModels(), &fixedClassifier{result: visionResult(0.9, models.ConfidenceHigh)}, 0)
	if err != nil {
		t.Fatal(err)
	}
	rec, err := c.Recommend(context.Background(), models.RecommendRequest{Text: "anything", Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(rec.Models) != 2 {
		t.Errorf("expected 2 models, got %d", len(rec.Models))
	}
}

func TestCatalog_LowConfidenceAsksClarification(t *testing.T) {
	c, err := New(DefaultModels(), &fixedClassifier{result: visionResult(0.4, models.ConfidenceLow)}, 0)
	if err != nil {
		t.Fatal(err)
	}
	rec, err := c.Recommend(context.Background(), models.RecommendRequest{Text: "do something"})
	if err != nil {
		t.Fatal(err)
	}
	if !rec.NeedsClarification {
		t.Error("low confidence should set needs_clarification")
	}
	if len(rec.Models) == 0 {
		t.Error("low confidence should still recommend models")
	}
}

func TestCatalog_EnergyNote(t *testing.T) {
	generative := &models.ClassificationResult{
		Predictions: []models.CategoryPrediction{{Category: "generative", Score: 0.9}},
		Confidence:  0.9, ConfidenceLevel: models.ConfidenceHigh,
	}
	c, err := New(DefaultModels(), &fixedClassifier{result: generative}, 0)
	if err != nil {
		t.Fatal(err)
	}
	rec, err := c.Recommend(context.Background(), models.RecommendRequest{Text: "generate art"})
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range rec.Models {
		if m.Model.SizeMB >= 500 && m.EnergyNote == "" {
			t.Errorf("%s should carry an energy note", m.Model.Name)
		}
	}
}

func TestCatalog_EmptyInput(t *testing.T) {
	c, err := New(DefaultModels(), &fixedClassifier{result: visionResult(0.9, models.ConfidenceHigh)}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Recommend(context.Background(), models.RecommendRequest{}); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestLoadModels(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	data := `models:
  - name: custom-model
    category: computer_vision
    subcategories: [image_classification]
    size_mb: 12
    accuracy: 0.8
    license: mit
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	entries, err := LoadModels(path)
	if err != nil {
		t.Fatalf("LoadModels failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "custom-model" {
		t.Fatalf("got %+v", entries)
	}
}

func TestLoadModels_Missing(t *testing.T) {
	if _, err := LoadModels("/nonexistent/catalog.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
