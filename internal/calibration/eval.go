package calibration

import (
	"context"
	"time"

	"github.com/modelscout/modelscout/internal/classifier"
	"github.com/modelscout/modelscout/internal/embedding"
	"github.com/modelscout/modelscout/internal/models"
)

// evalPoint is one held-out example scored by the classifier.
type evalPoint struct {
	Category   string
	Predicted  string
	Confidence float64
	Correct    bool
	Top3       bool
	InferMs    float64
}

// evalLeaveOneOut classifies each sampled reference example against the rest
// of the corpus. Rather than rebuilding the index per sample, it searches for
// k+1 neighbors and drops the sample's own entry, which is equivalent and
// keeps the sweep tractable.
func evalLeaveOneOut(ctx context.Context, engine *embedding.Engine, samples []models.ReferenceExample, k int, method models.VotingMethod) ([]evalPoint, error) {
	points := make([]evalPoint, 0, len(samples))
	for _, s := range samples {
		start := time.Now()
		vec, err := engine.Embed(ctx, s.Text)
		if err != nil {
			return nil, err
		}
		neighbors, err := engine.Search(ctx, vec, k+1)
		if err != nil {
			return nil, err
		}
		elapsed := time.Since(start)

		neighbors = dropSelf(neighbors, s)
		if len(neighbors) > k {
			neighbors = neighbors[:k]
		}
		outcome := classifier.Vote(neighbors, method)

		p := evalPoint{
			Category: s.Category,
			InferMs:  float64(elapsed.Microseconds()) / 1000.0,
		}
		if len(outcome.Predictions) > 0 {
			p.Predicted = outcome.Predictions[0].Category
			p.Confidence = outcome.Confidence
			p.Correct = p.Predicted == s.Category
			for i, pred := range outcome.Predictions {
				if i >= 3 {
					break
				}
				if pred.Category == s.Category {
					p.Top3 = true
					break
				}
			}
		}
		points = append(points, p)
	}
	return points, nil
}

// dropSelf removes the first neighbor that is the sample itself.
func dropSelf(neighbors []models.NeighborMatch, s models.ReferenceExample) []models.NeighborMatch {
	for i, n := range neighbors {
		if n.Text == s.Text && n.Category == s.Category && n.Subcategory == s.Subcategory {
			return append(neighbors[:i:i], neighbors[i+1:]...)
		}
	}
	return neighbors
}

func top1Accuracy(points []evalPoint) float64 {
	if len(points) == 0 {
		return 0
	}
	var correct int
	for _, p := range points {
		if p.Correct {
			correct++
		}
	}
	return float64(correct) / float64(len(points))
}

func top3Accuracy(points []evalPoint) float64 {
	if len(points) == 0 {
		return 0
	}
	var correct int
	for _, p := range points {
		if p.Top3 {
			correct++
		}
	}
	return float64(correct) / float64(len(points))
}

func meanInferMs(points []evalPoint) float64 {
	if len(points) == 0 {
		return 0
	}
	var total float64
	for _, p := range points {
		total += p.InferMs
	}
	return total / float64(len(points))
}
