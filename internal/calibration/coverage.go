package calibration

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/modelscout/modelscout/internal/classifier"
	"github.com/modelscout/modelscout/internal/config"
	"github.com/modelscout/modelscout/internal/models"
)

// weakFloor is the held-out accuracy below which a category is flagged.
const weakFloor = 0.80

// diminishingGain is the accuracy gain below which adding more examples per
// category is judged not worth the corpus growth.
const diminishingGain = 0.02

// CoveragePoint is one examples-per-category count's held-out accuracy.
type CoveragePoint struct {
	ExamplesPerCategory int     `json:"examples_per_category"`
	Accuracy            float64 `json:"accuracy"`
	Gain                float64 `json:"gain"`
	TrainSize           int     `json:"train_size"`
	TestSize            int     `json:"test_size"`
}

// WeakCategory is a category whose held-out accuracy stays below the weak
// floor, with the category it is most often confused with.
type WeakCategory struct {
	Category     string  `json:"category"`
	Accuracy     float64 `json:"accuracy"`
	TopConfusion string  `json:"top_confusion,omitempty"`
}

// CoverageReport is the coverage analysis experiment's output.
type CoverageReport struct {
	ModelName            string          `json:"model_name"`
	Points               []CoveragePoint `json:"points"`
	DiminishingReturnsAt int             `json:"diminishing_returns_at"`
	WeakCategories       []WeakCategory  `json:"weak_categories,omitempty"`
	Uncovered            []string        `json:"uncovered,omitempty"`
	Recommendation       string          `json:"recommendation"`
}

// Summary renders the console view of the report.
func (r *CoverageReport) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Coverage analysis for %s\n", r.ModelName)
	for _, p := range r.Points {
		fmt.Fprintf(&b, "  n=%-3d acc=%.1f%% (gain %+.1f%%) train=%d test=%d\n",
			p.ExamplesPerCategory, p.Accuracy*100, p.Gain*100, p.TrainSize, p.TestSize)
	}
	for _, w := range r.WeakCategories {
		fmt.Fprintf(&b, "  weak: %s acc=%.1f%% most confused with %s\n", w.Category, w.Accuracy*100, w.TopConfusion)
	}
	for _, u := range r.Uncovered {
		fmt.Fprintf(&b, "  uncovered: %s has no reference examples\n", u)
	}
	b.WriteString(r.Recommendation)
	return b.String()
}

// RunCoverage measures held-out accuracy as the number of reference examples
// per category grows, locates the point of diminishing returns, and flags
// weak or structurally unreachable categories.
func (h *Harness) RunCoverage(ctx context.Context, modelOverride string) (*CoverageReport, error) {
	candidate, err := h.candidate(modelOverride)
	if err != nil {
		return nil, err
	}
	report := &CoverageReport{ModelName: candidate.Name}

	byCategory := make(map[string][]models.ReferenceExample)
	for _, s := range h.seeds {
		byCategory[s.Category] = append(byCategory[s.Category], s)
	}
	for _, catID := range h.tax.Categories() {
		if len(byCategory[catID]) == 0 {
			report.Uncovered = append(report.Uncovered, catID)
		}
	}
	sort.Strings(report.Uncovered)

	counts := make([]int, len(h.cfg.ExampleCounts))
	copy(counts, h.cfg.ExampleCounts)
	sort.Ints(counts)

	var prev float64
	var perCategory map[string]*categoryTally
	for i, count := range counts {
		point, tally, err := h.coveragePoint(ctx, candidate, byCategory, count)
		if err != nil {
			return nil, err
		}
		if i > 0 {
			point.Gain = point.Accuracy - prev
		}
		prev = point.Accuracy
		report.Points = append(report.Points, point)
		perCategory = tally
	}

	if len(report.Points) > 0 {
		last := report.Points[len(report.Points)-1]
		report.DiminishingReturnsAt = last.ExamplesPerCategory
		for i := 0; i < len(report.Points)-1; i++ {
			if report.Points[i+1].Gain < diminishingGain {
				report.DiminishingReturnsAt = report.Points[i].ExamplesPerCategory
				break
			}
		}
	}

	for cat, tally := range perCategory {
		if tally.total == 0 {
			continue
		}
		acc := float64(tally.correct) / float64(tally.total)
		if acc < weakFloor {
			report.WeakCategories = append(report.WeakCategories, WeakCategory{
				Category:     cat,
				Accuracy:     acc,
				TopConfusion: tally.topConfusion(),
			})
		}
	}
	sort.Slice(report.WeakCategories, func(i, j int) bool {
		return report.WeakCategories[i].Category < report.WeakCategories[j].Category
	})

	report.Recommendation = fmt.Sprintf(
		"Accuracy gains drop below %.0f%% per increment beyond %d examples per category; use that as the corpus target.",
		diminishingGain*100, report.DiminishingReturnsAt)
	if len(report.Uncovered) > 0 {
		report.Recommendation += fmt.Sprintf(
			" Categories with no examples are unreachable at inference time: %s.", strings.Join(report.Uncovered, ", "))
	}
	return report, nil
}

// categoryTally accumulates held-out outcomes for one true category.
type categoryTally struct {
	correct    int
	total      int
	confusions map[string]int
}

func (t *categoryTally) topConfusion() string {
	var top string
	var best int
	for cat, n := range t.confusions {
		if n > best || (n == best && cat < top) {
			top, best = cat, n
		}
	}
	return top
}

// coveragePoint trains on count examples per category, sampled with the
// configured seed, and evaluates the held-out remainder.
func (h *Harness) coveragePoint(ctx context.Context, candidate config.ModelCandidate, byCategory map[string][]models.ReferenceExample, count int) (CoveragePoint, map[string]*categoryTally, error) {
	rng := rand.New(rand.NewSource(h.cfg.Seed))
	var train, test []models.ReferenceExample

	cats := make([]string, 0, len(byCategory))
	for cat := range byCategory {
		cats = append(cats, cat)
	}
	sort.Strings(cats)
	for _, cat := range cats {
		group := make([]models.ReferenceExample, len(byCategory[cat]))
		copy(group, byCategory[cat])
		rng.Shuffle(len(group), func(i, j int) { group[i], group[j] = group[j], group[i] })
		n := count
		if n > len(group) {
			n = len(group)
		}
		train = append(train, group[:n]...)
		test = append(test, group[n:]...)
	}

	point := CoveragePoint{ExamplesPerCategory: count, TrainSize: len(train), TestSize: len(test)}
	tally := make(map[string]*categoryTally)
	if len(test) == 0 {
		return point, tally, nil
	}

	engine := h.build(candidate, train)
	defer engine.Close()
	if err := engine.Initialize(ctx); err != nil {
		return point, nil, fmt.Errorf("failed to initialize %s: %w", candidate.Name, err)
	}

	k := h.settings.TopK
	if k > len(train) {
		k = len(train)
	}
	var correct int
	for _, s := range test {
		vec, err := engine.Embed(ctx, s.Text)
		if err != nil {
			return point, nil, err
		}
		neighbors, err := engine.Search(ctx, vec, k)
		if err != nil {
			return point, nil, err
		}
		outcome := classifier.Vote(neighbors, h.settings.VotingMethod)
		if len(outcome.Predictions) == 0 {
			continue
		}
		predicted := outcome.Predictions[0].Category

		t := tally[s.Category]
		if t == nil {
			t = &categoryTally{confusions: make(map[string]int)}
			tally[s.Category] = t
		}
		t.total++
		if predicted == s.Category {
			t.correct++
			correct++
		} else {
			t.confusions[predicted]++
		}
	}
	point.Accuracy = float64(correct) / float64(len(test))
	return point, tally, nil
}
