// Package classifier implements the similarity voting classifier and the
// confidence-gated fallback chain that wraps it.
package classifier

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/modelscout/modelscout/internal/embedding"
	"github.com/modelscout/modelscout/internal/models"
	"github.com/modelscout/modelscout/internal/taxonomy"
	"github.com/modelscout/modelscout/pkg/utils"
)

// Classifier classifies free-text task descriptions by voting over the
// nearest reference examples in embedding space.
type Classifier struct {
	engine *embedding.Engine
	tax    *taxonomy.Taxonomy
	logger *zap.Logger

	mu       sync.RWMutex
	settings models.ClassifierSettings

	count atomic.Int64
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Classifier) { c.logger = l }
}

// New creates a similarity voting classifier over an embedding engine.
func New(engine *embedding.Engine, tax *taxonomy.Taxonomy, settings models.ClassifierSettings, opts ...Option) (*Classifier, error) {
	if err := settings.Validate(0); err != nil {
		return nil, fmt.Errorf("invalid classifier settings: %w", err)
	}
	c := &Classifier{
		engine:   engine,
		tax:      tax,
		settings: settings,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Settings returns the current operating settings.
func (c *Classifier) Settings() models.ClassifierSettings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings
}

// SetSettings replaces the operating settings, typically after a calibration
// run has selected a better configuration.
func (c *Classifier) SetSettings(settings models.ClassifierSettings) error {
	if err := settings.Validate(c.engine.ReferenceCount()); err != nil {
		return err
	}
	c.mu.Lock()
	c.settings = settings
	c.mu.Unlock()
	return nil
}

// Classify embeds text, retrieves its nearest reference examples, and votes
// them into ranked category predictions. The first call may block while the
// engine initializes.
func (c *Classifier) Classify(ctx context.Context, text string) (*models.ClassificationResult, error) {
	req := models.ClassifyRequest{Text: text}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	settings := c.Settings()
	start := time.Now()

	if err := c.engine.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("embedding engine unavailable: %w", err)
	}
	vec, err := c.engine.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	neighbors, err := c.engine.Search(ctx, vec, settings.TopK)
	if err != nil {
		return nil, fmt.Errorf("neighbor search failed: %w", err)
	}

	outcome := Vote(neighbors, settings.VotingMethod)
	result := &models.ClassificationResult{
		Input:                  text,
		Predictions:            outcome.Predictions,
		SubcategoryPredictions: outcome.SubcategoryPredictions,
		Confidence:             outcome.Confidence,
		ConfidenceLevel:        LevelFor(outcome.Confidence, settings.ConfidenceThreshold),
		Method:                 models.MethodEmbedding,
		VotesForWinner:         outcome.VotesForWinner,
		TotalVotes:             outcome.TotalVotes,
		ProcessingTimeMs:       time.Since(start).Milliseconds(),
	}
	for i := range result.Predictions {
		result.Predictions[i].Label = c.tax.Label(result.Predictions[i].Category)
	}
	for i := range result.SubcategoryPredictions {
		p := &result.SubcategoryPredictions[i]
		p.Label = c.tax.SubcategoryLabel(p.Category, p.Subcategory)
	}

	c.count.Add(1)
	c.logger.Debug("classified task",
		zap.String("input", utils.Truncate(text, 80)),
		zap.String("category", result.TopCategory()),
		zap.Float64("confidence", result.Confidence),
		zap.Int("neighbors", result.TotalVotes))
	return result, nil
}

// MeetsThreshold reports whether a result clears the acceptance threshold.
func (c *Classifier) MeetsThreshold(result *models.ClassificationResult) bool {
	return result != nil && len(result.Predictions) > 0 &&
		result.Confidence >= c.Settings().ConfidenceThreshold
}

// Stats returns read-only diagnostics.
func (c *Classifier) Stats() models.ClassifierStats {
	settings := c.Settings()
	return models.ClassifierStats{
		ModelName:           settings.ModelName,
		ReferenceCount:      c.engine.ReferenceCount(),
		ClassificationCount: c.count.Load(),
		LoadTimeMs:          c.engine.LoadTime().Milliseconds(),
		ConfidenceThreshold: settings.ConfidenceThreshold,
	}
}
