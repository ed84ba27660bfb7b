// Package catalog holds the model catalog and the smaller-is-better ranking
// that turns a task classification into concrete model recommendations.
package catalog

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/modelscout/modelscout/internal/models"
)

// energyNoteThresholdMB marks models large enough to warrant an energy note.
const energyNoteThresholdMB = 500

// Classifier is the classification dependency; the fallback gate satisfies it.
type Classifier interface {
	Classify(ctx context.Context, text string) (*models.ClassificationResult, error)
}

// Catalog recommends models from a curated list.
type Catalog struct {
	models      []models.CatalogModel
	classifier  Classifier
	minAccuracy float64
}

// New creates a catalog over the given models.
func New(entries []models.CatalogModel, classifier Classifier, minAccuracy float64) (*Catalog, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("catalog has no models")
	}
	return &Catalog{models: entries, classifier: classifier, minAccuracy: minAccuracy}, nil
}

// catalogFile is the on-disk catalog shape.
type catalogFile struct {
	Models []models.CatalogModel `yaml:"models"`
}

// LoadModels reads catalog entries from a YAML file.
func LoadModels(path string) ([]models.CatalogModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return f.Models, nil
}

// Models returns all catalog entries.
func (c *Catalog) Models() []models.CatalogModel {
	out := make([]models.CatalogModel, len(c.models))
	copy(out, c.models)
	return out
}

// Recommend classifies the task and returns catalog models for the winning
// category, smallest first. Models matching the predicted subcategory rank
// ahead of same-size generalists. A below-threshold classification still
// produces recommendations but flags that clarification would help.
func (c *Catalog) Recommend(ctx context.Context, req models.RecommendRequest) (*models.Recommendation, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	result, err := c.classifier.Classify(ctx, req.Text)
	if err != nil {
		return nil, err
	}

	rec := &models.Recommendation{
		ID:                 uuid.NewString(),
		Classification:     result,
		NeedsClarification: result.ConfidenceLevel == models.ConfidenceLow,
	}
	category := result.TopCategory()
	if category == "" {
		return rec, nil
	}
	var subcategory string
	if len(result.SubcategoryPredictions) > 0 {
		subcategory = result.SubcategoryPredictions[0].Subcategory
	}

	minAccuracy := c.minAccuracy
	if req.MinAccuracy > minAccuracy {
		minAccuracy = req.MinAccuracy
	}
	var matched []models.RankedModel
	for _, m := range c.models {
		if m.Category != category {
			continue
		}
		if m.Accuracy < minAccuracy {
			continue
		}
		if req.MaxSizeMB > 0 && m.SizeMB > req.MaxSizeMB {
			continue
		}
		rm := models.RankedModel{Model: m, SubcategoryMatch: matchesSubcategory(m, subcategory)}
		if m.SizeMB >= energyNoteThresholdMB {
			rm.EnergyNote = fmt.Sprintf("%.0fMB model; expect noticeably higher energy use than smaller alternatives", m.SizeMB)
		}
		matched = append(matched, rm)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].SubcategoryMatch != matched[j].SubcategoryMatch {
			return matched[i].SubcategoryMatch
		}
		if matched[i].Model.SizeMB != matched[j].Model.SizeMB {
			return matched[i].Model.SizeMB < matched[j].Model.SizeMB
		}
		return matched[i].Model.Accuracy > matched[j].Model.Accuracy
	})
	if len(matched) > req.Limit {
		matched = matched[:req.Limit]
	}
	for i := range matched {
		matched[i].Rank = i + 1
	}
	rec.Models = matched
	return rec, nil
}

func matchesSubcategory(m models.CatalogModel, subcategory string) bool {
	if subcategory == "" {
		return false
	}
	for _, s := range m.Subcategories {
		if s == subcategory {
			return true
		}
	}
	return false
}
