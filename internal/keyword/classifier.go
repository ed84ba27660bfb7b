// Package keyword provides the keyword-overlap fallback classifier, built on
// a Bleve in-memory index over taxonomy keywords and example phrases. BM25's
// inverse document frequency plays the role of keyword-specificity weighting:
// a term that appears under a single subcategory scores far higher than one
// shared across the taxonomy.
package keyword

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"

	"github.com/modelscout/modelscout/internal/models"
	"github.com/modelscout/modelscout/internal/taxonomy"
)

// Classifier scores queries against taxonomy keywords.
type Classifier struct {
	mu    sync.RWMutex
	index bleve.Index
	tax   *taxonomy.Taxonomy
}

// NewClassifier builds an in-memory keyword index over the taxonomy.
func NewClassifier(tax *taxonomy.Taxonomy) (*Classifier, error) {
	index, err := buildIndex(tax)
	if err != nil {
		return nil, err
	}
	return &Classifier{index: index, tax: tax}, nil
}

func buildIndex(tax *taxonomy.Taxonomy) (bleve.Index, error) {
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so query tokens
	// match taxonomy keywords exactly.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("keywords", textFieldMapping)
	docMapping.AddFieldMappingsAt("examples", textFieldMapping)
	im.DefaultMapping = docMapping

	index, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("failed to create keyword index: %w", err)
	}

	for _, catID := range tax.Categories() {
		cat, _ := tax.Category(catID)
		for subID, sub := range cat.Subcategories {
			doc := map[string]interface{}{
				"keywords": strings.Join(sub.Keywords, " "),
				"examples": strings.Join(sub.Examples, " "),
			}
			if err := index.Index(catID+"|"+subID, doc); err != nil {
				_ = index.Close()
				return nil, fmt.Errorf("failed to index %s/%s: %w", catID, subID, err)
			}
		}
	}
	return index, nil
}

// Reload swaps the index for an updated taxonomy.
func (c *Classifier) Reload(tax *taxonomy.Taxonomy) error {
	index, err := buildIndex(tax)
	if err != nil {
		return err
	}
	c.mu.Lock()
	old := c.index
	c.index = index
	c.tax = tax
	c.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}
	return nil
}

// Classify scores text against every subcategory's keywords and aggregates
// hits into normalized category predictions. Confidence is the winning
// category's share of the total hit score, so a query that overlaps many
// categories equally produces a low confidence even when it matches well.
func (c *Classifier) Classify(ctx context.Context, text string) (*models.ClassificationResult, error) {
	c.mu.RLock()
	index := c.index
	tax := c.tax
	c.mu.RUnlock()

	query := bleve.NewMatchQuery(text)
	req := bleve.NewSearchRequest(query)
	req.Size = 50
	results, err := index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}

	catScores := make(map[string]float64)
	subScores := make(map[string]map[string]float64)
	var total float64
	for _, hit := range results.Hits {
		parts := strings.SplitN(hit.ID, "|", 2)
		if len(parts) != 2 {
			continue
		}
		catID, subID := parts[0], parts[1]
		catScores[catID] += hit.Score
		if subScores[catID] == nil {
			subScores[catID] = make(map[string]float64)
		}
		subScores[catID][subID] += hit.Score
		total += hit.Score
	}

	result := &models.ClassificationResult{
		Input:      text,
		Method:     models.MethodKeyword,
		TotalVotes: len(results.Hits),
	}
	if total == 0 {
		return result, nil
	}

	for catID, score := range catScores {
		result.Predictions = append(result.Predictions, models.CategoryPrediction{
			Category: catID,
			Label:    tax.Label(catID),
			Score:    score / total,
		})
	}
	sort.Slice(result.Predictions, func(i, j int) bool {
		return result.Predictions[i].Score > result.Predictions[j].Score
	})

	winner := result.Predictions[0].Category
	result.Confidence = result.Predictions[0].Score
	var winnerTotal float64
	for _, score := range subScores[winner] {
		winnerTotal += score
	}
	for subID, score := range subScores[winner] {
		result.SubcategoryPredictions = append(result.SubcategoryPredictions, models.CategoryPrediction{
			Category:    winner,
			Subcategory: subID,
			Label:       tax.SubcategoryLabel(winner, subID),
			Score:       score / winnerTotal,
		})
	}
	sort.Slice(result.SubcategoryPredictions, func(i, j int) bool {
		return result.SubcategoryPredictions[i].Score > result.SubcategoryPredictions[j].Score
	})
	for _, hit := range results.Hits {
		if strings.HasPrefix(hit.ID, winner+"|") {
			result.VotesForWinner++
		}
	}
	return result, nil
}

// Close releases the index.
func (c *Classifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.index != nil {
		err := c.index.Close()
		c.index = nil
		return err
	}
	return nil
}
