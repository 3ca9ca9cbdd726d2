package problem

import (
	"fmt"
	"math/rand"

	"genevo/internal/model"
)

// OneMax rewards bit genomes by their count of ones.
type OneMax struct {
	Length int
}

func (OneMax) Name() string {
	return "onemax"
}

func (p OneMax) GenomeLength() int {
	return p.Length
}

func (p OneMax) Optimum() float64 {
	return float64(p.Length)
}

func (p OneMax) Evaluate(genome []int) (float64, error) {
	if err := checkLength(p.Name(), genome, p.Length); err != nil {
		return 0, err
	}
	ones := 0
	for locus, bit := range genome {
		switch bit {
		case 0:
		case 1:
			ones++
		default:
			return 0, fmt.Errorf("%w: onemax locus %d holds %d, want 0 or 1", model.ErrRepresentationMismatch, locus, bit)
		}
	}
	return float64(ones), nil
}

func (OneMax) Allele(rng *rand.Rand, _ int) int {
	return rng.Intn(2)
}

func (OneMax) Sample(_ *rand.Rand, _ int, current int) int {
	if current == 0 {
		return 1
	}
	return 0
}
