package evo

import (
	"fmt"
	"math/rand"

	"genevo/internal/model"
)

var errNoRandomSource = fmt.Errorf("%w: random source is required", model.ErrConfiguration)

// Evaluator scores a genome. It is called for every child and mutant before
// the individual exists.
type Evaluator[G any] interface {
	Evaluate(genome []G) (float64, error)
}

type EvaluatorFunc[G any] func(genome []G) (float64, error)

func (f EvaluatorFunc[G]) Evaluate(genome []G) (float64, error) {
	return f(genome)
}

// AlleleSampler draws a replacement allele for locus.
type AlleleSampler[G any] func(rng *rand.Rand, locus int, current G) G

func evaluated[G any](eval Evaluator[G], genome []G) (model.Individual[G], error) {
	if eval == nil {
		return model.Individual[G]{}, fmt.Errorf("%w: evaluator is required", model.ErrConfiguration)
	}
	fitness, err := eval.Evaluate(genome)
	if err != nil {
		return model.Individual[G]{}, fmt.Errorf("%w: %w", model.ErrEvaluation, err)
	}
	return model.NewIndividual(genome, fitness), nil
}
