package evo

import (
	"fmt"
	"math"
	"math/rand"

	"genevo/internal/model"
)

// Mutator decides which locus, if any, of a genome of the given length gets
// a fresh allele. The set of mutators is closed; configuration names resolve
// through ParseMutator.
type Mutator interface {
	Name() string
	Locus(rng *rand.Rand, length int) (int, bool, error)
	validate() error
}

// SingleGene mutates one uniformly chosen locus with Probability.
type SingleGene struct {
	Probability float64
}

func (SingleGene) Name() string { return "single_gene" }

func (m SingleGene) validate() error {
	if m.Probability < 0 || m.Probability > 1 || math.IsNaN(m.Probability) {
		return fmt.Errorf("%w: mutation probability must be in [0, 1], got %v", model.ErrConfiguration, m.Probability)
	}
	return nil
}

func (m SingleGene) Locus(rng *rand.Rand, length int) (int, bool, error) {
	if rng == nil {
		return 0, false, errNoRandomSource
	}
	if err := m.validate(); err != nil {
		return 0, false, err
	}
	// The draw happens even at probability 0 so the random stream does not
	// depend on the configured rate.
	if rng.Float64() >= m.Probability || length == 0 {
		return 0, false, nil
	}
	return rng.Intn(length), true, nil
}

// Mutate applies m to individual. An untouched individual is returned as is,
// without re-evaluation.
func Mutate[G any](rng *rand.Rand, m Mutator, individual model.Individual[G], sample AlleleSampler[G], eval Evaluator[G]) (model.Individual[G], error) {
	locus, ok, err := m.Locus(rng, individual.Len())
	if err != nil {
		return model.Individual[G]{}, err
	}
	if !ok {
		return individual, nil
	}
	if sample == nil {
		return model.Individual[G]{}, fmt.Errorf("%w: allele sampler is required to mutate", model.ErrConfiguration)
	}
	genome := individual.Genome()
	genome[locus] = sample(rng, locus, genome[locus])
	return evaluated(eval, genome)
}
