package evo

import (
	"fmt"
	"math/rand"

	"github.com/sourcegraph/conc/pool"

	"genevo/internal/model"
)

// Operators bundles the per-generation strategies a replacement dispatches to.
type Operators[G any] struct {
	Selection Selector
	Crossover Crossover
	Mutation  Mutator
	Evaluator Evaluator[G]
	Sampler   AlleleSampler[G]
	// Workers bounds how many couples are bred concurrently; <= 0 means 1.
	// Evaluator and Sampler must be safe for concurrent use when Workers > 1.
	Workers int
}

func (o Operators[G]) validate() error {
	switch {
	case o.Selection == nil:
		return fmt.Errorf("%w: selection strategy is required", model.ErrConfiguration)
	case o.Crossover == nil:
		return fmt.Errorf("%w: crossover strategy is required", model.ErrConfiguration)
	case o.Mutation == nil:
		return fmt.Errorf("%w: mutation strategy is required", model.ErrConfiguration)
	case o.Evaluator == nil:
		return fmt.Errorf("%w: evaluator is required", model.ErrConfiguration)
	case o.Sampler == nil:
		return fmt.Errorf("%w: allele sampler is required", model.ErrConfiguration)
	}
	return nil
}

// Replace builds the next generation of pop with r. pop is left untouched and
// the result carries generation pop.Generation()+1.
func Replace[G any](rng *rand.Rand, r Replacement, ops Operators[G], pop model.Population[G]) (model.Population[G], error) {
	if r == nil {
		return model.Population[G]{}, fmt.Errorf("%w: replacement strategy is required", model.ErrConfiguration)
	}
	if rng == nil {
		return model.Population[G]{}, errNoRandomSource
	}
	if err := ops.validate(); err != nil {
		return model.Population[G]{}, err
	}
	if pop.Size() < r.minPopulation() {
		return model.Population[G]{}, fmt.Errorf("%w: %s replacement needs at least %d individuals, got %d",
			model.ErrConfiguration, r.Name(), r.minPopulation(), pop.Size())
	}

	b := &breeding[G]{
		current: pop,
		pool:    pop.Individuals(),
		rng:     rng,
		ops:     ops,
	}
	roster, err := r.roster(b)
	if err != nil {
		return model.Population[G]{}, err
	}
	if err := checkRoster(roster, len(b.pool), pop.Size()); err != nil {
		return model.Population[G]{}, err
	}

	next := make([]model.Individual[G], len(roster))
	for i, idx := range roster {
		next[i] = b.pool[idx]
	}
	return model.NewPopulation(next, pop.Generation()+1)
}

// breeding implements breeder for one generation. Parents and per-couple
// seeds come from rng in a fixed order before any worker starts, so the
// result does not depend on the worker count.
type breeding[G any] struct {
	current model.Population[G]
	pool    []model.Individual[G]
	rng     *rand.Rand
	ops     Operators[G]
}

func (b *breeding[G]) size() int {
	return b.current.Size()
}

func (b *breeding[G]) shuffle(indices []int) {
	b.rng.Shuffle(len(indices), func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})
}

func (b *breeding[G]) bySelection(rounds int) ([]int, error) {
	couples := make([]model.Couple[G], rounds)
	seeds := make([]int64, rounds)
	for i := range couples {
		parents, err := SelectIndividuals(b.rng, b.ops.Selection, b.current, 2)
		if err != nil {
			return nil, fmt.Errorf("select parents: %w", err)
		}
		couples[i] = model.Couple[G]{First: parents[0], Second: parents[1]}
		seeds[i] = b.rng.Int63()
	}
	return b.breed(couples, seeds)
}

func (b *breeding[G]) byPairing() ([]int, error) {
	order := members(b)
	b.shuffle(order)

	couples := make([]model.Couple[G], 0, len(order)/2)
	seeds := make([]int64, 0, len(order)/2)
	for i := 0; i+1 < len(order); i += 2 {
		couples = append(couples, model.Couple[G]{
			First:  b.current.At(order[i]),
			Second: b.current.At(order[i+1]),
		})
		seeds = append(seeds, b.rng.Int63())
	}
	return b.breed(couples, seeds)
}

// breed crosses and mutates every couple and waits for all of them before
// appending the children to the pool.
func (b *breeding[G]) breed(couples []model.Couple[G], seeds []int64) ([]int, error) {
	workers := b.ops.Workers
	if workers <= 0 {
		workers = 1
	}

	children := make([]model.Couple[G], len(couples))
	p := pool.New().WithMaxGoroutines(workers).WithErrors().WithFirstError()
	for i := range couples {
		p.Go(func() error {
			rng := rand.New(rand.NewSource(seeds[i]))
			kids, err := Cross(rng, b.ops.Crossover, couples[i], b.ops.Evaluator)
			if err != nil {
				return fmt.Errorf("cross couple %d: %w", i, err)
			}
			first, err := Mutate(rng, b.ops.Mutation, kids.First, b.ops.Sampler, b.ops.Evaluator)
			if err != nil {
				return fmt.Errorf("mutate couple %d: %w", i, err)
			}
			second, err := Mutate(rng, b.ops.Mutation, kids.Second, b.ops.Sampler, b.ops.Evaluator)
			if err != nil {
				return fmt.Errorf("mutate couple %d: %w", i, err)
			}
			children[i] = model.Couple[G]{First: first, Second: second}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	indices := make([]int, 0, 2*len(children))
	for _, couple := range children {
		indices = append(indices, len(b.pool), len(b.pool)+1)
		b.pool = append(b.pool, couple.First, couple.Second)
	}
	return indices, nil
}
