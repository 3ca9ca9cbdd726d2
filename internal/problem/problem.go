// Package problem provides reference fitness problems over int genes.
package problem

import (
	"fmt"
	"math/rand"
	"strings"

	"genevo/internal/model"
)

// Problem scores int genomes of a fixed length and knows its alleles.
type Problem interface {
	Name() string
	GenomeLength() int
	// Optimum is the best fitness any genome can reach.
	Optimum() float64
	Evaluate(genome []int) (float64, error)
	// Allele draws a uniformly random allele for locus.
	Allele(rng *rand.Rand, locus int) int
	// Sample draws an allele for locus that differs from current.
	Sample(rng *rand.Rand, locus int, current int) int
}

func Names() []string {
	return []string{"onemax", "target"}
}

// Resolve builds the named problem. length sizes onemax genomes; target
// genomes take the length of phrase.
func Resolve(name string, length int, phrase string) (Problem, error) {
	switch normalize(name) {
	case "onemax":
		if length <= 0 {
			return nil, fmt.Errorf("%w: onemax genome length must be > 0, got %d", model.ErrConfiguration, length)
		}
		return OneMax{Length: length}, nil
	case "target":
		return NewTarget(phrase, length)
	default:
		return nil, fmt.Errorf("%w: unknown problem %q (known: %s)", model.ErrConfiguration, name, strings.Join(Names(), ", "))
	}
}

// Factory seeds individuals with uniformly random alleles, scored by p.
func Factory(p Problem) model.FactoryFunc[int] {
	return func(rng *rand.Rand) (model.Individual[int], error) {
		genome := make([]int, p.GenomeLength())
		for locus := range genome {
			genome[locus] = p.Allele(rng, locus)
		}
		fitness, err := p.Evaluate(genome)
		if err != nil {
			return model.Individual[int]{}, err
		}
		return model.NewIndividual(genome, fitness), nil
	}
}

func normalize(name string) string {
	normalized := strings.TrimSpace(strings.ToLower(name))
	normalized = strings.ReplaceAll(normalized, "_", "-")
	switch normalized {
	case "onemax", "one-max":
		return "onemax"
	case "target", "target-phrase", "phrase":
		return "target"
	default:
		return normalized
	}
}

func checkLength(name string, genome []int, want int) error {
	if len(genome) != want {
		return fmt.Errorf("%w: %s genome has %d genes, want %d", model.ErrRepresentationMismatch, name, len(genome), want)
	}
	return nil
}
