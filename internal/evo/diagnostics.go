package evo

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"genevo/internal/model"
)

// Observer is notified once per created population, generation 0 included.
type Observer interface {
	ObserveGeneration(diag model.GenerationDiagnostics)
}

type ObserverFunc func(diag model.GenerationDiagnostics)

func (f ObserverFunc) ObserveGeneration(diag model.GenerationDiagnostics) {
	f(diag)
}

func summarizeGeneration[G any](pop model.Population[G], evaluations int64) model.GenerationDiagnostics {
	diag := model.GenerationDiagnostics{
		Generation:  pop.Generation(),
		Evaluations: evaluations,
	}
	fitness := pop.Fitness()
	if len(fitness) == 0 {
		return diag
	}
	diag.BestFitness = floats.Max(fitness)
	diag.MinFitness = floats.Min(fitness)
	if len(fitness) == 1 {
		diag.MeanFitness = fitness[0]
		return diag
	}
	diag.MeanFitness, diag.StdDev = stat.MeanStdDev(fitness, nil)
	return diag
}
