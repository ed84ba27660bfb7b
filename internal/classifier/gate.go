package classifier

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/modelscout/modelscout/internal/models"
	"github.com/modelscout/modelscout/internal/taxonomy"
)

// priorityConfidence is the flat confidence reported when every scoring tier
// has failed and the gate falls back to the priority ordering. Deliberately
// low so downstream consumers treat the answer as a guess.
const priorityConfidence = 0.2

// Tier classifies text; both the voting classifier and the keyword scorer
// satisfy it.
type Tier interface {
	Classify(ctx context.Context, text string) (*models.ClassificationResult, error)
}

// Gate runs the confidence-gated fallback chain: embedding similarity first,
// keyword overlap when that falls below threshold, and the taxonomy priority
// ordering as a last resort. Each tier is independently invokable; the gate
// only sequences them.
type Gate struct {
	embed            Tier
	keyword          Tier
	tax              *taxonomy.Taxonomy
	threshold        float64
	keywordThreshold float64
	logger           *zap.Logger
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithGateLogger sets the logger.
func WithGateLogger(l *zap.Logger) GateOption {
	return func(g *Gate) { g.logger = l }
}

// NewGate wires the fallback chain. threshold gates the embedding tier and
// keywordThreshold gates the keyword tier.
func NewGate(embed, keyword Tier, tax *taxonomy.Taxonomy, threshold, keywordThreshold float64, opts ...GateOption) *Gate {
	g := &Gate{
		embed:            embed,
		keyword:          keyword,
		tax:              tax,
		threshold:        threshold,
		keywordThreshold: keywordThreshold,
		logger:           zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Classify runs the chain and always returns a usable result: a failed or
// unconfident tier escalates to the next one, and the priority fallback
// cannot fail. Input that fails validation skips the embedding tier and is
// routed straight to the fallback tiers rather than surfacing an error. A
// below-threshold embedding result is still preferred over the priority
// fallback when the keyword tier has nothing better, since a weak
// similarity signal beats no signal.
func (g *Gate) Classify(ctx context.Context, text string) (*models.ClassificationResult, error) {
	var embRes *models.ClassificationResult
	req := models.ClassifyRequest{Text: text}
	if err := req.Validate(); err != nil {
		g.logger.Debug("input rejected before embedding", zap.Error(err))
	} else {
		res, embErr := g.embed.Classify(ctx, text)
		if embErr != nil {
			g.logger.Warn("embedding tier failed, falling back", zap.Error(embErr))
		} else if len(res.Predictions) > 0 {
			embRes = res
		}
		if embRes != nil && embRes.Confidence >= g.threshold {
			return embRes, nil
		}
	}

	kwRes, kwErr := g.keyword.Classify(ctx, text)
	if kwErr != nil {
		g.logger.Warn("keyword tier failed, falling back", zap.Error(kwErr))
	} else if len(kwRes.Predictions) > 0 && kwRes.Confidence > g.keywordThreshold {
		kwRes.ConfidenceLevel = LevelFor(kwRes.Confidence, g.threshold)
		return kwRes, nil
	}

	if embRes != nil {
		embRes.ConfidenceLevel = models.ConfidenceLow
		return embRes, nil
	}
	return g.priorityResult(text), nil
}

// priorityResult returns the most general-purpose category in the taxonomy's
// priority ordering.
func (g *Gate) priorityResult(text string) *models.ClassificationResult {
	start := time.Now()
	catID := g.tax.Categories()[0]
	return &models.ClassificationResult{
		Input: text,
		Predictions: []models.CategoryPrediction{{
			Category: catID,
			Label:    g.tax.Label(catID),
			Score:    priorityConfidence,
		}},
		Confidence:       priorityConfidence,
		ConfidenceLevel:  models.ConfidenceLow,
		Method:           models.MethodPriority,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}
}
