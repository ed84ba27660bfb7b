package classifier

import (
	"math"
	"sort"

	"github.com/modelscout/modelscout/internal/models"
)

// scored is one category or subcategory with its accumulated vote weight.
type scored struct {
	id           string
	weight       float64
	votes        int
	bestNeighbor float64
}

// VoteOutcome is the aggregated result of neighbor voting, before display
// labels are attached.
type VoteOutcome struct {
	// Predictions holds category IDs with normalized scores, best first.
	Predictions []models.CategoryPrediction
	// SubcategoryPredictions covers only the winning category's subcategories.
	SubcategoryPredictions []models.CategoryPrediction
	Confidence             float64
	VotesForWinner         int
	TotalVotes             int
}

// Vote aggregates retained neighbors into normalized category scores.
// Simple voting counts each neighbor once; weighted voting counts each
// neighbor by its raw similarity. Scores are normalized so all categories
// that received at least one vote sum to 1, and the winner's confidence is
// its share of that total. An exact tie between categories is broken by the
// highest single neighbor similarity, then by category ID so results stay
// deterministic. When every neighbor's similarity is non-positive the
// weighted tally has no mass and voting degrades to simple counting.
func Vote(neighbors []models.NeighborMatch, method models.VotingMethod) *VoteOutcome {
	out := &VoteOutcome{TotalVotes: len(neighbors)}
	if len(neighbors) == 0 {
		return out
	}

	cats := tally(neighbors, method, func(n models.NeighborMatch) string { return n.Category })
	var total float64
	for _, c := range cats {
		total += c.weight
	}
	if total == 0 {
		// Every retained neighbor was anti-correlated, so similarity carries
		// no usable weight; count votes instead to keep scores inside [0,1].
		return Vote(neighbors, models.VotingSimple)
	}

	out.Predictions = make([]models.CategoryPrediction, len(cats))
	for i, c := range cats {
		out.Predictions[i] = models.CategoryPrediction{Category: c.id, Score: c.weight / total}
	}
	winner := cats[0]
	out.Confidence = winner.weight / total
	out.VotesForWinner = winner.votes

	var winnerNeighbors []models.NeighborMatch
	for _, n := range neighbors {
		if n.Category == winner.id {
			winnerNeighbors = append(winnerNeighbors, n)
		}
	}
	subs := tally(winnerNeighbors, method, func(n models.NeighborMatch) string { return n.Subcategory })
	var subTotal float64
	for _, s := range subs {
		subTotal += s.weight
	}
	out.SubcategoryPredictions = make([]models.CategoryPrediction, len(subs))
	for i, s := range subs {
		out.SubcategoryPredictions[i] = models.CategoryPrediction{
			Category:    winner.id,
			Subcategory: s.id,
			Score:       s.weight / subTotal,
		}
	}
	return out
}

func tally(neighbors []models.NeighborMatch, method models.VotingMethod, key func(models.NeighborMatch) string) []scored {
	byID := make(map[string]*scored)
	for _, n := range neighbors {
		id := key(n)
		s, ok := byID[id]
		if !ok {
			s = &scored{id: id}
			byID[id] = s
		}
		if method == models.VotingWeighted {
			// Anti-correlated neighbors carry no weight rather than a
			// negative one, keeping normalized scores inside [0,1].
			s.weight += math.Max(n.Similarity, 0)
		} else {
			s.weight++
		}
		s.votes++
		if n.Similarity > s.bestNeighbor {
			s.bestNeighbor = n.Similarity
		}
	}
	out := make([]scored, 0, len(byID))
	for _, s := range byID {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].weight != out[j].weight {
			return out[i].weight > out[j].weight
		}
		if out[i].bestNeighbor != out[j].bestNeighbor {
			return out[i].bestNeighbor > out[j].bestNeighbor
		}
		return out[i].id < out[j].id
	})
	return out
}

// LevelFor maps a confidence score to its display band. Scores at or above
// 0.85 read as high, scores at or above the acceptance threshold as medium,
// and everything below the threshold as low.
func LevelFor(confidence, threshold float64) models.ConfidenceLevel {
	switch {
	case confidence >= 0.85:
		return models.ConfidenceHigh
	case confidence >= threshold:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}
