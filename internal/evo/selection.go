package evo

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"genevo/internal/model"
)

// Selector chooses k parent indices from a fitness column. The set of
// selectors is closed; configuration names resolve through ParseSelector.
type Selector interface {
	Name() string
	Select(rng *rand.Rand, fitness []float64, k int) ([]int, error)
	validate() error
}

// SelectIndividuals runs sel over the population's fitness column and returns
// the chosen individuals. The population is not modified.
func SelectIndividuals[G any](rng *rand.Rand, sel Selector, pop model.Population[G], k int) ([]model.Individual[G], error) {
	indices, err := sel.Select(rng, pop.Fitness(), k)
	if err != nil {
		return nil, err
	}
	out := make([]model.Individual[G], len(indices))
	for i, idx := range indices {
		out[i] = pop.At(idx)
	}
	return out, nil
}

// Elite returns the k fittest, ties in original order.
type Elite struct{}

func (Elite) Name() string { return "elite" }
func (Elite) validate() error { return nil }

func (Elite) Select(_ *rand.Rand, fitness []float64, k int) ([]int, error) {
	if err := checkSelectCount(fitness, k); err != nil {
		return nil, err
	}
	if err := checkFinite(fitness); err != nil {
		return nil, err
	}
	return rankDescending(fitness)[:k], nil
}

// Random draws uniformly with replacement.
type Random struct{}

func (Random) Name() string { return "random" }
func (Random) validate() error { return nil }

func (Random) Select(rng *rand.Rand, fitness []float64, k int) ([]int, error) {
	if err := checkSelectCount(fitness, k); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, errNoRandomSource
	}
	out := make([]int, k)
	for i := range out {
		out[i] = rng.Intn(len(fitness))
	}
	return out, nil
}

// Roulette draws independently with probability proportional to fitness.
type Roulette struct{}

func (Roulette) Name() string { return "roulette" }
func (Roulette) validate() error { return nil }

func (Roulette) Select(rng *rand.Rand, fitness []float64, k int) ([]int, error) {
	if err := checkSelectCount(fitness, k); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, errNoRandomSource
	}
	cumulative, err := proportionalWheel(fitness)
	if err != nil {
		return nil, err
	}
	total := cumulative[len(cumulative)-1]
	out := make([]int, k)
	for i := range out {
		out[i] = spin(cumulative, rng.Float64()*total)
	}
	return out, nil
}

// Universal is stochastic universal sampling: one random offset and k
// equally spaced pointers over the fitness wheel.
type Universal struct{}

func (Universal) Name() string { return "universal" }
func (Universal) validate() error { return nil }

func (Universal) Select(rng *rand.Rand, fitness []float64, k int) ([]int, error) {
	if err := checkSelectCount(fitness, k); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, errNoRandomSource
	}
	cumulative, err := proportionalWheel(fitness)
	if err != nil {
		return nil, err
	}
	step := cumulative[len(cumulative)-1] / float64(k)
	offset := rng.Float64() * step
	out := make([]int, k)
	for i := range out {
		out[i] = spin(cumulative, offset+float64(i)*step)
	}
	return out, nil
}

// Ranking draws with probability proportional to rank, worst = 1 and
// best = n.
type Ranking struct{}

func (Ranking) Name() string { return "ranking" }
func (Ranking) validate() error { return nil }

func (Ranking) Select(rng *rand.Rand, fitness []float64, k int) ([]int, error) {
	if err := checkSelectCount(fitness, k); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, errNoRandomSource
	}
	if err := checkFinite(fitness); err != nil {
		return nil, err
	}

	order := rankDescending(fitness)
	n := len(order)
	weights := make([]float64, n)
	for pos, idx := range order {
		weights[idx] = float64(n - pos)
	}
	return drawWeighted(rng, weights, k), nil
}

// Boltzmann draws with probability proportional to exp(fitness/Temperature).
type Boltzmann struct {
	Temperature float64
}

func (Boltzmann) Name() string { return "boltzmann" }

func (s Boltzmann) validate() error {
	if !(s.Temperature > 0) || math.IsInf(s.Temperature, 0) {
		return fmt.Errorf("%w: boltzmann temperature must be > 0, got %v", model.ErrConfiguration, s.Temperature)
	}
	return nil
}

func (s Boltzmann) Select(rng *rand.Rand, fitness []float64, k int) ([]int, error) {
	if err := checkSelectCount(fitness, k); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, errNoRandomSource
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	if err := checkFinite(fitness); err != nil {
		return nil, err
	}

	// Shifting by the maximum keeps exp in range without changing the ratios.
	peak := fitness[0]
	for _, f := range fitness[1:] {
		peak = math.Max(peak, f)
	}
	weights := make([]float64, len(fitness))
	for i, f := range fitness {
		weights[i] = math.Exp((f - peak) / s.Temperature)
	}
	return drawWeighted(rng, weights, k), nil
}

// Tournament samples Size distinct members uniformly and emits the fittest,
// k times.
type Tournament struct {
	Size int
}

func (Tournament) Name() string { return "tournament" }

func (s Tournament) validate() error {
	if s.Size <= 0 {
		return fmt.Errorf("%w: tournament size must be > 0, got %d", model.ErrConfiguration, s.Size)
	}
	return nil
}

func (s Tournament) Select(rng *rand.Rand, fitness []float64, k int) ([]int, error) {
	if err := checkSelectCount(fitness, k); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, errNoRandomSource
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	if err := checkFinite(fitness); err != nil {
		return nil, err
	}

	out := make([]int, k)
	for i := range out {
		group := sampleGroup(rng, len(fitness), s.Size)
		out[i] = fittestOf(fitness, group)
	}
	return out, nil
}

// ProbabilisticTournament lets the fittest group member win with
// WinProbability; otherwise the runner-up wins.
type ProbabilisticTournament struct {
	Size           int
	WinProbability float64
}

func (ProbabilisticTournament) Name() string { return "tournament_prob" }

func (s ProbabilisticTournament) validate() error {
	if s.Size <= 0 {
		return fmt.Errorf("%w: tournament size must be > 0, got %d", model.ErrConfiguration, s.Size)
	}
	if s.WinProbability < 0 || s.WinProbability > 1 || math.IsNaN(s.WinProbability) {
		return fmt.Errorf("%w: tournament win probability must be in [0, 1], got %v", model.ErrConfiguration, s.WinProbability)
	}
	return nil
}

func (s ProbabilisticTournament) Select(rng *rand.Rand, fitness []float64, k int) ([]int, error) {
	if err := checkSelectCount(fitness, k); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, errNoRandomSource
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	if err := checkFinite(fitness); err != nil {
		return nil, err
	}

	out := make([]int, k)
	for i := range out {
		group := sampleGroup(rng, len(fitness), s.Size)
		sort.Slice(group, func(a, b int) bool {
			return fitterThan(fitness, group[a], group[b])
		})
		if len(group) == 1 || rng.Float64() < s.WinProbability {
			out[i] = group[0]
		} else {
			out[i] = group[1]
		}
	}
	return out, nil
}

func checkSelectCount(fitness []float64, k int) error {
	if len(fitness) == 0 {
		return model.ErrEmptyPopulation
	}
	if k < 1 || k > len(fitness) {
		return fmt.Errorf("%w: selection count must be in [1, %d], got %d", model.ErrConfiguration, len(fitness), k)
	}
	return nil
}

func checkFinite(fitness []float64) error {
	for i, f := range fitness {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: individual %d has fitness %v", model.ErrInvalidFitness, i, f)
		}
	}
	return nil
}

// proportionalWheel returns cumulative fitness sums, rejecting fitness that
// cannot be read as a probability mass.
func proportionalWheel(fitness []float64) ([]float64, error) {
	if err := checkFinite(fitness); err != nil {
		return nil, err
	}
	cumulative := make([]float64, len(fitness))
	total := 0.0
	for i, f := range fitness {
		if f < 0 {
			return nil, fmt.Errorf("%w: individual %d has negative fitness %v", model.ErrInvalidFitness, i, f)
		}
		total += f
		cumulative[i] = total
	}
	if total <= 0 {
		return nil, fmt.Errorf("%w: total fitness is zero", model.ErrInvalidFitness)
	}
	return cumulative, nil
}

// spin maps a point on the wheel to the first slot whose cumulative sum
// exceeds it. Zero-width slots are never chosen.
func spin(cumulative []float64, point float64) int {
	idx := sort.Search(len(cumulative), func(i int) bool {
		return cumulative[i] > point
	})
	if idx == len(cumulative) {
		idx = len(cumulative) - 1
		for idx > 0 && cumulative[idx] == cumulative[idx-1] {
			idx--
		}
	}
	return idx
}

func drawWeighted(rng *rand.Rand, weights []float64, k int) []int {
	cumulative := make([]float64, len(weights))
	total := 0.0
	for i, w := range weights {
		total += w
		cumulative[i] = total
	}
	out := make([]int, k)
	for i := range out {
		out[i] = spin(cumulative, rng.Float64()*total)
	}
	return out
}

// rankDescending returns indices ordered by fitness, highest first, keeping
// the original order among equals.
func rankDescending(fitness []float64) []int {
	order := make([]int, len(fitness))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return fitness[order[a]] > fitness[order[b]]
	})
	return order
}

func sampleGroup(rng *rand.Rand, n, size int) []int {
	if size > n {
		size = n
	}
	return rng.Perm(n)[:size]
}

func fittestOf(fitness []float64, group []int) int {
	best := group[0]
	for _, idx := range group[1:] {
		if fitterThan(fitness, idx, best) {
			best = idx
		}
	}
	return best
}

// fitterThan orders by fitness, highest first, with the lower index winning
// ties.
func fitterThan(fitness []float64, a, b int) bool {
	if fitness[a] != fitness[b] {
		return fitness[a] > fitness[b]
	}
	return a < b
}
