package calibration

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelscout/modelscout/internal/models"
)

// thresholdGrid spans the swept acceptance thresholds.
var thresholdGrid = func() []float64 {
	var grid []float64
	for i := 0; i <= 8; i++ {
		grid = append(grid, 0.50+0.05*float64(i))
	}
	return grid
}()

// kGrid spans the swept neighbor counts.
var kGrid = []int{3, 5, 7, 10}

// ThresholdPoint is one swept threshold's outcome. A prediction counts as a
// true positive when it was both accepted and correct.
type ThresholdPoint struct {
	Threshold float64 `json:"threshold"`
	Accuracy  float64 `json:"accuracy"`
	Coverage  float64 `json:"coverage"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// KPoint is one swept neighbor count's accuracy.
type KPoint struct {
	K        int     `json:"k"`
	Accuracy float64 `json:"accuracy"`
}

// VotingPoint is one voting method's accuracy.
type VotingPoint struct {
	Method   models.VotingMethod `json:"method"`
	Accuracy float64             `json:"accuracy"`
}

// ThresholdReport is the threshold calibration experiment's output.
type ThresholdReport struct {
	ModelName            string           `json:"model_name"`
	Samples              int              `json:"samples"`
	Grid                 []ThresholdPoint `json:"grid"`
	KSweep               []KPoint         `json:"k_sweep"`
	VotingSweep          []VotingPoint    `json:"voting_sweep"`
	RecommendedThreshold float64          `json:"recommended_threshold"`
	Recommendation       string           `json:"recommendation"`
}

// Summary renders the console view of the report.
func (r *ThresholdReport) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Threshold calibration for %s (%d samples)\n", r.ModelName, r.Samples)
	for _, p := range r.Grid {
		fmt.Fprintf(&b, "  t=%.2f acc=%.1f%% cov=%.1f%% P=%.2f R=%.2f F1=%.2f\n",
			p.Threshold, p.Accuracy*100, p.Coverage*100, p.Precision, p.Recall, p.F1)
	}
	b.WriteString("  k sweep:")
	for _, p := range r.KSweep {
		fmt.Fprintf(&b, " k=%d:%.1f%%", p.K, p.Accuracy*100)
	}
	b.WriteString("\n  voting sweep:")
	for _, p := range r.VotingSweep {
		fmt.Fprintf(&b, " %s:%.1f%%", p.Method, p.Accuracy*100)
	}
	b.WriteString("\n")
	b.WriteString(r.Recommendation)
	return b.String()
}

// RunThreshold sweeps the acceptance threshold grid, plus neighbor count and
// voting method with the other dimensions held fixed, and recommends the
// lowest threshold that keeps accepted-prediction accuracy and coverage above
// their targets.
func (h *Harness) RunThreshold(ctx context.Context, modelOverride string) (*ThresholdReport, error) {
	candidate, err := h.candidate(modelOverride)
	if err != nil {
		return nil, err
	}
	engine := h.build(candidate, h.seeds)
	defer engine.Close()
	if err := engine.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize %s: %w", candidate.Name, err)
	}

	samples := h.sampleSeeds()
	report := &ThresholdReport{ModelName: candidate.Name, Samples: len(samples)}

	points, err := evalLeaveOneOut(ctx, engine, samples, h.settings.TopK, h.settings.VotingMethod)
	if err != nil {
		return nil, err
	}
	for _, t := range thresholdGrid {
		report.Grid = append(report.Grid, scoreThreshold(points, t))
	}

	for _, k := range kGrid {
		kp, err := evalLeaveOneOut(ctx, engine, samples, k, h.settings.VotingMethod)
		if err != nil {
			return nil, err
		}
		report.KSweep = append(report.KSweep, KPoint{K: k, Accuracy: top1Accuracy(kp)})
	}
	for _, method := range []models.VotingMethod{models.VotingSimple, models.VotingWeighted} {
		vp, err := evalLeaveOneOut(ctx, engine, samples, h.settings.TopK, method)
		if err != nil {
			return nil, err
		}
		report.VotingSweep = append(report.VotingSweep, VotingPoint{Method: method, Accuracy: top1Accuracy(vp)})
	}

	report.RecommendedThreshold = -1
	for _, p := range report.Grid {
		if p.Accuracy >= h.cfg.AccuracyTarget && p.Coverage >= h.cfg.CoverageTarget {
			report.RecommendedThreshold = p.Threshold
			break
		}
	}
	if report.RecommendedThreshold >= 0 {
		report.Recommendation = fmt.Sprintf(
			"Recommend threshold %.2f: the lowest grid value with accepted accuracy >= %.0f%% and coverage >= %.0f%%.",
			report.RecommendedThreshold, h.cfg.AccuracyTarget*100, h.cfg.CoverageTarget*100)
	} else {
		report.RecommendedThreshold = h.settings.ConfidenceThreshold
		report.Recommendation = fmt.Sprintf(
			"No swept threshold met both targets; keeping the current threshold %.2f. Consider expanding the reference corpus.",
			h.settings.ConfidenceThreshold)
	}
	return report, nil
}

func scoreThreshold(points []evalPoint, t float64) ThresholdPoint {
	var tp, fp, fn, accepted int
	for _, p := range points {
		if p.Confidence >= t {
			accepted++
			if p.Correct {
				tp++
			} else {
				fp++
			}
		} else if p.Correct {
			fn++
		}
	}
	out := ThresholdPoint{Threshold: t}
	if len(points) > 0 {
		out.Coverage = float64(accepted) / float64(len(points))
	}
	if accepted > 0 {
		out.Accuracy = float64(tp) / float64(accepted)
		out.Precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		out.Recall = float64(tp) / float64(tp+fn)
	}
	if out.Precision+out.Recall > 0 {
		out.F1 = 2 * out.Precision * out.Recall / (out.Precision + out.Recall)
	}
	return out
}
