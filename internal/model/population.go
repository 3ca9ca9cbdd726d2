package model

import (
	"fmt"
	"math/rand"
)

// Population is one generation of individuals. It is never modified after
// construction; replacement builds a new value.
type Population[G any] struct {
	individuals []Individual[G]
	generation  int
}

func NewPopulation[G any](individuals []Individual[G], generation int) (Population[G], error) {
	if len(individuals) == 0 {
		return Population[G]{}, ErrEmptyPopulation
	}
	return Population[G]{
		individuals: append([]Individual[G](nil), individuals...),
		generation:  generation,
	}, nil
}

// SeedPopulation calls factory size times. The first factory failure aborts
// seeding and no population is returned.
func SeedPopulation[G any](factory IndividualFactory[G], rng *rand.Rand, size, generation int) (Population[G], error) {
	if size <= 0 {
		return Population[G]{}, fmt.Errorf("%w: population size must be > 0, got %d", ErrConfiguration, size)
	}
	if factory == nil {
		return Population[G]{}, fmt.Errorf("%w: individual factory is required", ErrConfiguration)
	}
	individuals := make([]Individual[G], 0, size)
	for i := 0; i < size; i++ {
		individual, err := factory.Create(rng)
		if err != nil {
			return Population[G]{}, fmt.Errorf("%w: individual %d: %w", ErrFactory, i, err)
		}
		individuals = append(individuals, individual)
	}
	return Population[G]{individuals: individuals, generation: generation}, nil
}

func (p Population[G]) Size() int {
	return len(p.individuals)
}

func (p Population[G]) Generation() int {
	return p.generation
}

func (p Population[G]) At(i int) Individual[G] {
	return p.individuals[i]
}

// Individuals returns a copy of the roster; shuffling it leaves p intact.
func (p Population[G]) Individuals() []Individual[G] {
	return append([]Individual[G](nil), p.individuals...)
}

func (p Population[G]) Fitness() []float64 {
	out := make([]float64, len(p.individuals))
	for i, individual := range p.individuals {
		out[i] = individual.fitness
	}
	return out
}

// Best returns the fittest individual, preferring the earliest on ties.
func (p Population[G]) Best() Individual[G] {
	if len(p.individuals) == 0 {
		return Individual[G]{}
	}
	best := p.individuals[0]
	for _, individual := range p.individuals[1:] {
		if individual.fitness > best.fitness {
			best = individual
		}
	}
	return best
}
