// Package cli provides CLI output formatting for modelscout.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/modelscout/modelscout/internal/models"
)

// OutputFormat is the format for classification and recommendation output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// WriteClassification writes a classification result to w in the given format.
func WriteClassification(w io.Writer, result *models.ClassificationResult, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	writeClassificationText(w, result)
	return nil
}

func writeClassificationText(w io.Writer, result *models.ClassificationResult) {
	fmt.Fprintf(w, "\nInput: %s\n", result.Input)
	fmt.Fprintf(w, "Method: %s | Confidence: %.3f (%s) | Votes: %d/%d | %dms\n\n",
		result.Method, result.Confidence, result.ConfidenceLevel,
		result.VotesForWinner, result.TotalVotes, result.ProcessingTimeMs)
	for i, p := range result.Predictions {
		fmt.Fprintf(w, "  %d. %-35s %.3f\n", i+1, labelOrID(p.Label, p.Category), p.Score)
	}
	if len(result.SubcategoryPredictions) > 0 {
		fmt.Fprintln(w, "\n  Subcategories of the winner:")
		for _, p := range result.SubcategoryPredictions {
			fmt.Fprintf(w, "     %-35s %.3f\n", labelOrID(p.Label, p.Subcategory), p.Score)
		}
	}
	if result.ConfidenceLevel == models.ConfidenceLow {
		fmt.Fprintln(w, "\n  Low confidence: consider describing the task more specifically.")
	}
	fmt.Fprintln(w)
}

// WriteRecommendation writes a recommendation to w in the given format.
func WriteRecommendation(w io.Writer, rec *models.Recommendation, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	}
	writeRecommendationText(w, rec)
	return nil
}

func writeRecommendationText(w io.Writer, rec *models.Recommendation) {
	c := rec.Classification
	fmt.Fprintf(w, "\nTask: %s\n", c.Input)
	fmt.Fprintf(w, "Category: %s (confidence %.3f, %s)\n",
		labelOrID(topLabel(c), c.TopCategory()), c.Confidence, c.Method)
	if rec.NeedsClarification {
		fmt.Fprintln(w, "The classifier is unsure; a more specific task description would improve these picks.")
	}
	if len(rec.Models) == 0 {
		fmt.Fprintln(w, "\nNo catalog models matched the predicted category and filters.")
		return
	}
	fmt.Fprintln(w, "\nRecommended models (smaller first):")
	for _, m := range rec.Models {
		marker := " "
		if m.SubcategoryMatch {
			marker = "+"
		}
		fmt.Fprintf(w, "  %d.%s %-40s %7.0fMB  acc %.2f  %s\n",
			m.Rank, marker, m.Model.Name, m.Model.SizeMB, m.Model.Accuracy, m.Model.License)
		if m.EnergyNote != "" {
			fmt.Fprintf(w, "       note: %s\n", m.EnergyNote)
		}
	}
	fmt.Fprintln(w)
}

func topLabel(c *models.ClassificationResult) string {
	if len(c.Predictions) == 0 {
		return ""
	}
	return c.Predictions[0].Label
}

func labelOrID(label, id string) string {
	if label != "" {
		return label
	}
	return id
}

// WriteStats writes classifier diagnostics to w.
func WriteStats(w io.Writer, stats models.ClassifierStats, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}
	fmt.Fprintf(w, "\nModel: %s\n", stats.ModelName)
	fmt.Fprintf(w, "Reference examples: %d\n", stats.ReferenceCount)
	fmt.Fprintf(w, "Classifications served: %d\n", stats.ClassificationCount)
	fmt.Fprintf(w, "Corpus load time: %dms\n", stats.LoadTimeMs)
	fmt.Fprintf(w, "Confidence threshold: %.2f\n\n", stats.ConfidenceThreshold)
	return nil
}
