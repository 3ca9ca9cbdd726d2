package model

import "math/rand"

// Individual is one evaluated candidate solution. The zero value is an
// individual with an empty genome and zero fitness.
type Individual[G any] struct {
	genome  []G
	fitness float64
}

// NewIndividual copies genome, so later changes to the caller's slice do not
// leak into the individual.
func NewIndividual[G any](genome []G, fitness float64) Individual[G] {
	return Individual[G]{
		genome:  append([]G(nil), genome...),
		fitness: fitness,
	}
}

func (i Individual[G]) Genome() []G {
	return append([]G(nil), i.genome...)
}

func (i Individual[G]) Gene(locus int) G {
	return i.genome[locus]
}

func (i Individual[G]) Len() int {
	return len(i.genome)
}

func (i Individual[G]) Fitness() float64 {
	return i.fitness
}

// Couple passes two individuals through crossover together.
type Couple[G any] struct {
	First  Individual[G]
	Second Individual[G]
}

func (c Couple[G]) Slice() []Individual[G] {
	return []Individual[G]{c.First, c.Second}
}

// IndividualFactory builds one freshly initialized, evaluated individual.
type IndividualFactory[G any] interface {
	Create(rng *rand.Rand) (Individual[G], error)
}

type FactoryFunc[G any] func(rng *rand.Rand) (Individual[G], error)

func (f FactoryFunc[G]) Create(rng *rand.Rand) (Individual[G], error) {
	return f(rng)
}
