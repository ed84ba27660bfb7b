// Package models defines core data structures for reference examples,
// classification results, and recommendations.
package models

import "fmt"

// Method identifies which tier of the fallback chain produced a result.
type Method string

const (
	// MethodEmbedding means the similarity voting classifier cleared its threshold.
	MethodEmbedding Method = "embedding_similarity"
	// MethodKeyword means the keyword-overlap scorer produced the result.
	MethodKeyword Method = "keyword"
	// MethodPriority means the fixed priority ordering was used as a last resort.
	MethodPriority Method = "priority_fallback"
)

// ConfidenceLevel is a display band for a confidence score.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// Provenance records how a reference example was derived.
type Provenance string

const (
	// ProvenanceCurated marks hand-authored example phrases.
	ProvenanceCurated Provenance = "curated"
	// ProvenanceKeyword marks phrases auto-generated from keyword lists.
	// Only used by the calibration harness's ablation mode; excluded from
	// the production corpus because they measurably hurt the similarity signal.
	ProvenanceKeyword Provenance = "keyword"
)

// ReferenceExample is a labeled phrase the classifier compares queries against.
// Embedding is attached once at engine initialization and never mutated.
type ReferenceExample struct {
	Text        string     `json:"text"`
	Category    string     `json:"category"`
	Subcategory string     `json:"subcategory"`
	Provenance  Provenance `json:"provenance,omitempty"`
	Embedding   []float32  `json:"-"`
}

// NeighborMatch is one reference example scored against a query.
type NeighborMatch struct {
	Text        string  `json:"text"`
	Category    string  `json:"category"`
	Subcategory string  `json:"subcategory"`
	Similarity  float64 `json:"similarity"`
}

// CategoryPrediction is a ranked category with a normalized score.
// Scores sum to ~1 across all categories that received at least one vote.
type CategoryPrediction struct {
	Category    string  `json:"category"`
	Subcategory string  `json:"subcategory,omitempty"`
	Label       string  `json:"label"`
	Score       float64 `json:"score"`
}

// ClassificationResult is the outcome of classifying a single task description.
type ClassificationResult struct {
	Input                  string               `json:"input"`
	Predictions            []CategoryPrediction `json:"predictions"`
	SubcategoryPredictions []CategoryPrediction `json:"subcategory_predictions,omitempty"`
	Confidence             float64              `json:"confidence"`
	ConfidenceLevel        ConfidenceLevel      `json:"confidence_level"`
	Method                 Method               `json:"method"`
	VotesForWinner         int                  `json:"votes_for_winner"`
	TotalVotes             int                  `json:"total_votes"`
	ProcessingTimeMs       int64                `json:"processing_time_ms"`
}

// TopCategory returns the winning category, or "" when there are no predictions.
func (r *ClassificationResult) TopCategory() string {
	if len(r.Predictions) == 0 {
		return ""
	}
	return r.Predictions[0].Category
}

// ClassifyRequest is a classification request from the CLI or HTTP API.
type ClassifyRequest struct {
	Text string `json:"text"`
}

// Validate rejects empty input before any embedding is attempted.
func (q *ClassifyRequest) Validate() error {
	if q.Text == "" {
		return fmt.Errorf("text cannot be empty")
	}
	return nil
}
