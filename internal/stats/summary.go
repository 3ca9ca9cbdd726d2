package stats

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"genevo/internal/model"
)

// Summary condenses the best-fitness series of a run.
type Summary struct {
	Generations int     `json:"generations"`
	InitialBest float64 `json:"initial_best"`
	FinalBest   float64 `json:"final_best"`
	BestMean    float64 `json:"best_mean"`
	BestStd     float64 `json:"best_std"`
	BestMax     float64 `json:"best_max"`
	BestMin     float64 `json:"best_min"`
	Improvement float64 `json:"improvement"`
	Evaluations int64   `json:"evaluations"`
}

func Summarize(diagnostics []model.GenerationDiagnostics) Summary {
	if len(diagnostics) == 0 {
		return Summary{}
	}
	best := make([]float64, len(diagnostics))
	for i, diag := range diagnostics {
		best[i] = diag.BestFitness
	}
	mean, std := stat.MeanStdDev(best, nil)
	if len(best) == 1 {
		std = 0
	}
	last := diagnostics[len(diagnostics)-1]
	return Summary{
		Generations: last.Generation,
		InitialBest: best[0],
		FinalBest:   best[len(best)-1],
		BestMean:    mean,
		BestStd:     std,
		BestMax:     floats.Max(best),
		BestMin:     floats.Min(best),
		Improvement: best[len(best)-1] - best[0],
		Evaluations: last.Evaluations,
	}
}
