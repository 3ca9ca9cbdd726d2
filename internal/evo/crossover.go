package evo

import (
	"fmt"
	"math/rand"

	"genevo/internal/model"
)

// GeneSource names the parent (0 or 1) and the parent locus a child gene is
// copied from.
type GeneSource struct {
	Parent int
	Locus  int
}

// CrossoverPlan describes both children of one crossover, locus by locus.
type CrossoverPlan struct {
	First  []GeneSource
	Second []GeneSource
}

// Crossover builds the plan for two parents of the given genome length. The
// set of crossovers is closed; configuration names resolve through
// ParseCrossover.
type Crossover interface {
	Name() string
	Plan(rng *rand.Rand, length int) (CrossoverPlan, error)
	validate() error
}

// Cross applies c to a couple and evaluates both children. Parents are left
// untouched.
func Cross[G any](rng *rand.Rand, c Crossover, parents model.Couple[G], eval Evaluator[G]) (model.Couple[G], error) {
	if parents.First.Len() != parents.Second.Len() {
		return model.Couple[G]{}, fmt.Errorf("%w: parent genome lengths %d and %d differ",
			model.ErrRepresentationMismatch, parents.First.Len(), parents.Second.Len())
	}
	if parents.First.Len() == 0 {
		return model.Couple[G]{}, fmt.Errorf("%w: parent genomes are empty", model.ErrRepresentationMismatch)
	}

	plan, err := c.Plan(rng, parents.First.Len())
	if err != nil {
		return model.Couple[G]{}, err
	}
	first, err := evaluated(eval, assemble(plan.First, parents))
	if err != nil {
		return model.Couple[G]{}, err
	}
	second, err := evaluated(eval, assemble(plan.Second, parents))
	if err != nil {
		return model.Couple[G]{}, err
	}
	return model.Couple[G]{First: first, Second: second}, nil
}

func assemble[G any](sources []GeneSource, parents model.Couple[G]) []G {
	genome := make([]G, len(sources))
	for i, src := range sources {
		if src.Parent == 0 {
			genome[i] = parents.First.Gene(src.Locus)
		} else {
			genome[i] = parents.Second.Gene(src.Locus)
		}
	}
	return genome
}

// OnePoint cuts both parents at one locus in [1, n-1] and swaps the tails.
type OnePoint struct{}

func (OnePoint) Name() string { return "one_point" }
func (OnePoint) validate() error { return nil }

func (OnePoint) Plan(rng *rand.Rand, length int) (CrossoverPlan, error) {
	if err := checkPlan(rng, length); err != nil {
		return CrossoverPlan{}, err
	}
	cut := length
	if length > 1 {
		cut = 1 + rng.Intn(length-1)
	}
	return segmentSwap(length, cut, length), nil
}

// TwoPoint picks two distinct cut indices in [0, n] and swaps the segment
// between them.
type TwoPoint struct{}

func (TwoPoint) Name() string { return "two_point" }
func (TwoPoint) validate() error { return nil }

func (TwoPoint) Plan(rng *rand.Rand, length int) (CrossoverPlan, error) {
	if err := checkPlan(rng, length); err != nil {
		return CrossoverPlan{}, err
	}
	lo := rng.Intn(length + 1)
	hi := rng.Intn(length)
	if hi >= lo {
		hi++
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	return segmentSwap(length, lo, hi), nil
}

// Uniform flips a fair coin per locus.
type Uniform struct{}

func (Uniform) Name() string { return "uniform" }
func (Uniform) validate() error { return nil }

func (Uniform) Plan(rng *rand.Rand, length int) (CrossoverPlan, error) {
	if err := checkPlan(rng, length); err != nil {
		return CrossoverPlan{}, err
	}
	plan := CrossoverPlan{
		First:  make([]GeneSource, length),
		Second: make([]GeneSource, length),
	}
	for i := 0; i < length; i++ {
		from := rng.Intn(2)
		plan.First[i] = GeneSource{Parent: from, Locus: i}
		plan.Second[i] = GeneSource{Parent: 1 - from, Locus: i}
	}
	return plan, nil
}

// Ring lays the first parent followed by the reversed second parent on a
// ring of 2n genes. A random offset r fixes the cut points r and r+n: the
// first child reads n genes clockwise from r, the second reads the other arc
// counter-clockwise from r-1.
type Ring struct{}

func (Ring) Name() string { return "ring" }
func (Ring) validate() error { return nil }

func (Ring) Plan(rng *rand.Rand, length int) (CrossoverPlan, error) {
	if err := checkPlan(rng, length); err != nil {
		return CrossoverPlan{}, err
	}
	size := 2 * length
	at := func(pos int) GeneSource {
		pos = ((pos % size) + size) % size
		if pos < length {
			return GeneSource{Parent: 0, Locus: pos}
		}
		return GeneSource{Parent: 1, Locus: size - 1 - pos}
	}

	r := rng.Intn(size)
	plan := CrossoverPlan{
		First:  make([]GeneSource, length),
		Second: make([]GeneSource, length),
	}
	for i := 0; i < length; i++ {
		plan.First[i] = at(r + i)
		plan.Second[i] = at(r - 1 - i)
	}
	return plan, nil
}

// segmentSwap keeps each child's own parent outside [lo, hi) and takes the
// other parent inside it.
func segmentSwap(length, lo, hi int) CrossoverPlan {
	plan := CrossoverPlan{
		First:  make([]GeneSource, length),
		Second: make([]GeneSource, length),
	}
	for i := 0; i < length; i++ {
		if i >= lo && i < hi {
			plan.First[i] = GeneSource{Parent: 1, Locus: i}
			plan.Second[i] = GeneSource{Parent: 0, Locus: i}
			continue
		}
		plan.First[i] = GeneSource{Parent: 0, Locus: i}
		plan.Second[i] = GeneSource{Parent: 1, Locus: i}
	}
	return plan
}

func checkPlan(rng *rand.Rand, length int) error {
	if rng == nil {
		return errNoRandomSource
	}
	if length <= 0 {
		return fmt.Errorf("%w: genome length must be > 0, got %d", model.ErrRepresentationMismatch, length)
	}
	return nil
}
