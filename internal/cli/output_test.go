package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/modelscout/modelscout/internal/models"
)

func sampleResult() *models.ClassificationResult {
	return &models.ClassificationResult{
		Input: "classify dog breeds in photos",
		Predictions: []models.CategoryPrediction{
			{Category: "computer_vision", Label: "Computer Vision", Score: 0.82},
			{Category: "generative", Label: "Generative AI", Score: 0.18},
		},
		SubcategoryPredictions: []models.CategoryPrediction{
			{Category: "computer_vision", Subcategory: "image_classification", Label: "Image Classification", Score: 1},
		},
		Confidence:       0.82,
		ConfidenceLevel:  models.ConfidenceMedium,
		Method:           models.MethodEmbedding,
		VotesForWinner:   4,
		TotalVotes:       5,
		ProcessingTimeMs: 12,
	}
}

func TestWriteClassification_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteClassification(&buf, sampleResult(), OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Computer Vision", "0.820", "4/5", "Image Classification"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteClassification_LowConfidenceHint(t *testing.T) {
	result := sampleResult()
	result.ConfidenceLevel = models.ConfidenceLow
	var buf bytes.Buffer
	if err := WriteClassification(&buf, result, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Low confidence") {
		t.Error("low-confidence results should include the clarification hint")
	}
}

func TestWriteClassification_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteClassification(&buf, sampleResult(), OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded models.ClassificationResult
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.TopCategory() != "computer_vision" {
		t.Errorf("got %+v", decoded)
	}
}

func TestWriteRecommendation_Text(t *testing.T) {
	rec := &models.Recommendation{
		ID:             "rec-1",
		Classification: sampleResult(),
		Models: []models.RankedModel{
			{Rank: 1, SubcategoryMatch: true, Model: models.CatalogModel{
				Name: "mobilenet-v3-small", Category: "computer_vision", SizeMB: 10, Accuracy: 0.68, License: "apache-2.0",
			}},
			{Rank: 2, Model: models.CatalogModel{
				Name: "big-model", Category: "computer_vision", SizeMB: 900, Accuracy: 0.9, License: "mit",
			}, EnergyNote: "900MB model; expect noticeably higher energy use than smaller alternatives"},
		},
	}
	var buf bytes.Buffer
	if err := WriteRecommendation(&buf, rec, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"mobilenet-v3-small", "smaller first", "energy"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteRecommendation_Empty(t *testing.T) {
	rec := &models.Recommendation{Classification: sampleResult()}
	var buf bytes.Buffer
	if err := WriteRecommendation(&buf, rec, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No catalog models matched") {
		t.Error("empty recommendation should say so")
	}
}

func TestWriteStats(t *testing.T) {
	var buf bytes.Buffer
	stats := models.ClassifierStats{ModelName: "all-MiniLM-L6-v2", ReferenceCount: 61, ConfidenceThreshold: 0.7}
	if err := WriteStats(&buf, stats, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "all-MiniLM-L6-v2") || !strings.Contains(buf.String(), "61") {
		t.Errorf("got %s", buf.String())
	}
}
