package models

import "fmt"

// VotingMethod selects how retained neighbors contribute to category scores.
type VotingMethod string

const (
	// VotingSimple counts each neighbor as one vote.
	VotingSimple VotingMethod = "simple"
	// VotingWeighted weights each neighbor's vote by its raw similarity.
	VotingWeighted VotingMethod = "weighted"
)

// ClassifierSettings is the classifier's operating configuration. The values
// are determined offline by the calibration harness.
type ClassifierSettings struct {
	ModelName           string       `json:"model_name" yaml:"model_name"`
	TopK                int          `json:"top_k" yaml:"top_k"`
	VotingMethod        VotingMethod `json:"voting_method" yaml:"voting_method"`
	ConfidenceThreshold float64      `json:"confidence_threshold" yaml:"confidence_threshold"`
}

// Validate checks settings invariants. corpusSize <= 0 skips the TopK upper bound
// check (the corpus size may not be known yet).
func (s *ClassifierSettings) Validate(corpusSize int) error {
	if s.TopK < 1 {
		return fmt.Errorf("top_k must be >= 1, got %d", s.TopK)
	}
	if corpusSize > 0 && s.TopK > corpusSize {
		return fmt.Errorf("top_k %d exceeds reference corpus size %d", s.TopK, corpusSize)
	}
	if s.ConfidenceThreshold < 0 || s.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence_threshold must be in [0,1], got %f", s.ConfidenceThreshold)
	}
	switch s.VotingMethod {
	case VotingSimple, VotingWeighted:
	default:
		return fmt.Errorf("unknown voting method %q (supported: simple, weighted)", s.VotingMethod)
	}
	return nil
}

// ClassifierStats is read-only diagnostics exposed to callers.
type ClassifierStats struct {
	ModelName           string  `json:"model_name"`
	ReferenceCount      int     `json:"reference_count"`
	ClassificationCount int64   `json:"classification_count"`
	LoadTimeMs          int64   `json:"load_time_ms"`
	ConfidenceThreshold float64 `json:"confidence_threshold"`
}
