package problem

import (
	"fmt"
	"math/rand"

	"genevo/internal/model"
)

const (
	minPrintable = 32
	maxPrintable = 126
	printable    = maxPrintable - minPrintable + 1
)

// Target rewards genomes of printable ASCII codes by the number of
// positions that match a phrase.
type Target struct {
	phrase []int
}

func NewTarget(phrase string, length int) (Target, error) {
	if phrase == "" {
		return Target{}, fmt.Errorf("%w: target phrase is required", model.ErrConfiguration)
	}
	codes := make([]int, 0, len(phrase))
	for i := 0; i < len(phrase); i++ {
		c := int(phrase[i])
		if c < minPrintable || c > maxPrintable {
			return Target{}, fmt.Errorf("%w: target phrase byte %d is not printable ASCII", model.ErrConfiguration, i)
		}
		codes = append(codes, c)
	}
	if length > 0 && length != len(codes) {
		return Target{}, fmt.Errorf("%w: genome length %d does not match phrase length %d", model.ErrConfiguration, length, len(codes))
	}
	return Target{phrase: codes}, nil
}

func (Target) Name() string {
	return "target"
}

func (t Target) Phrase() string {
	return Decode(t.phrase)
}

func (t Target) GenomeLength() int {
	return len(t.phrase)
}

func (t Target) Optimum() float64 {
	return float64(len(t.phrase))
}

func (t Target) Evaluate(genome []int) (float64, error) {
	if err := checkLength(t.Name(), genome, len(t.phrase)); err != nil {
		return 0, err
	}
	matches := 0
	for locus, c := range genome {
		if c == t.phrase[locus] {
			matches++
		}
	}
	return float64(matches), nil
}

func (Target) Allele(rng *rand.Rand, _ int) int {
	return minPrintable + rng.Intn(printable)
}

func (Target) Sample(rng *rand.Rand, _ int, current int) int {
	if current < minPrintable || current > maxPrintable {
		return minPrintable + rng.Intn(printable)
	}
	c := minPrintable + rng.Intn(printable-1)
	if c >= current {
		c++
	}
	return c
}

// Decode renders a target genome as text. Codes outside printable ASCII
// show as '?'.
func Decode(genome []int) string {
	out := make([]byte, len(genome))
	for i, c := range genome {
		if c < minPrintable || c > maxPrintable {
			out[i] = '?'
			continue
		}
		out[i] = byte(c)
	}
	return string(out)
}
