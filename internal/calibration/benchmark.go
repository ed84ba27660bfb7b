package calibration

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// ModelBenchmark is one candidate model's measured quality and cost.
type ModelBenchmark struct {
	ModelName       string  `json:"model_name"`
	SizeMB          float64 `json:"size_mb"`
	Dimensions      int     `json:"dimensions"`
	Top1Accuracy    float64 `json:"top1_accuracy"`
	Top3Accuracy    float64 `json:"top3_accuracy"`
	MeanInferenceMs float64 `json:"mean_inference_ms"`
	LoadTimeMs      int64   `json:"load_time_ms"`
	Eligible        bool    `json:"eligible"`
	Reason          string  `json:"reason,omitempty"`
	Error           string  `json:"error,omitempty"`
}

// BenchmarkReport ranks candidate embedding models by sampled leave-one-out
// accuracy, subject to a size ceiling and an accuracy floor.
type BenchmarkReport struct {
	Samples        int              `json:"samples"`
	Results        []ModelBenchmark `json:"results"`
	Recommended    string           `json:"recommended"`
	Recommendation string           `json:"recommendation"`
}

// Summary renders the console view of the report.
func (r *BenchmarkReport) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Model benchmark (%d samples)\n", r.Samples)
	for _, m := range r.Results {
		if m.Error != "" {
			fmt.Fprintf(&b, "  %-28s FAILED: %s\n", m.ModelName, m.Error)
			continue
		}
		mark := " "
		if m.ModelName == r.Recommended {
			mark = "*"
		}
		fmt.Fprintf(&b, "%s %-28s top1=%.1f%% top3=%.1f%% infer=%.1fms load=%dms size=%.0fMB\n",
			mark, m.ModelName, m.Top1Accuracy*100, m.Top3Accuracy*100, m.MeanInferenceMs, m.LoadTimeMs, m.SizeMB)
	}
	b.WriteString(r.Recommendation)
	return b.String()
}

// RunBenchmark evaluates every configured candidate model. A failing
// candidate is reported with zero scores rather than aborting the sweep.
func (h *Harness) RunBenchmark(ctx context.Context) (*BenchmarkReport, error) {
	if len(h.cfg.Candidates) == 0 {
		return nil, fmt.Errorf("no candidate models configured")
	}
	samples := h.sampleSeeds()
	report := &BenchmarkReport{Samples: len(samples)}

	for _, candidate := range h.cfg.Candidates {
		result := ModelBenchmark{
			ModelName:  candidate.Name,
			SizeMB:     candidate.SizeMB,
			Dimensions: candidate.Dimensions,
		}
		engine := h.build(candidate, h.seeds)
		if err := engine.Initialize(ctx); err != nil {
			result.Error = err.Error()
			result.Reason = "initialization failed"
			report.Results = append(report.Results, result)
			engine.Close()
			continue
		}
		points, err := evalLeaveOneOut(ctx, engine, samples, h.settings.TopK, h.settings.VotingMethod)
		result.LoadTimeMs = engine.LoadTime().Milliseconds()
		engine.Close()
		if err != nil {
			result.Error = err.Error()
			result.Reason = "evaluation failed"
			report.Results = append(report.Results, result)
			continue
		}

		result.Top1Accuracy = top1Accuracy(points)
		result.Top3Accuracy = top3Accuracy(points)
		result.MeanInferenceMs = meanInferMs(points)
		switch {
		case result.SizeMB > h.cfg.SizeCeilingMB:
			result.Reason = fmt.Sprintf("exceeds size ceiling (%.0fMB > %.0fMB)", result.SizeMB, h.cfg.SizeCeilingMB)
		case result.Top1Accuracy < h.cfg.AccuracyFloor:
			result.Reason = fmt.Sprintf("below accuracy floor (%.1f%% < %.1f%%)", result.Top1Accuracy*100, h.cfg.AccuracyFloor*100)
		default:
			result.Eligible = true
		}
		report.Results = append(report.Results, result)
	}

	sort.SliceStable(report.Results, func(i, j int) bool {
		return report.Results[i].Top1Accuracy > report.Results[j].Top1Accuracy
	})
	for _, m := range report.Results {
		if m.Eligible {
			report.Recommended = m.ModelName
			break
		}
	}
	if report.Recommended != "" {
		report.Recommendation = fmt.Sprintf(
			"Recommend %s: best top-1 accuracy among candidates within the %.0fMB ceiling and %.0f%% floor.",
			report.Recommended, h.cfg.SizeCeilingMB, h.cfg.AccuracyFloor*100)
	} else {
		report.Recommendation = "No candidate met both the size ceiling and the accuracy floor; relax one constraint or add candidates."
	}
	return report, nil
}
