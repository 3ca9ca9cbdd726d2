package evo

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genevo/internal/model"
)

func allSelectors() []Selector {
	return []Selector{
		Elite{},
		Random{},
		Roulette{},
		Universal{},
		Ranking{},
		Boltzmann{Temperature: 1},
		Tournament{Size: 2},
		ProbabilisticTournament{Size: 2, WinProbability: 0.8},
	}
}

func TestSelectorsReturnExactlyKValidIndices(t *testing.T) {
	fitness := []float64{0.5, 2, 1, 3, 0.25, 4}
	for _, sel := range allSelectors() {
		t.Run(sel.Name(), func(t *testing.T) {
			rng := rand.New(rand.NewSource(7))
			for k := 1; k <= len(fitness); k++ {
				indices, err := sel.Select(rng, fitness, k)
				require.NoError(t, err)
				require.Len(t, indices, k)
				for _, idx := range indices {
					assert.GreaterOrEqual(t, idx, 0)
					assert.Less(t, idx, len(fitness))
				}
			}
		})
	}
}

func TestSelectorsAreDeterministicForAFixedSeed(t *testing.T) {
	fitness := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	for _, sel := range allSelectors() {
		t.Run(sel.Name(), func(t *testing.T) {
			a, err := sel.Select(rand.New(rand.NewSource(99)), fitness, 5)
			require.NoError(t, err)
			b, err := sel.Select(rand.New(rand.NewSource(99)), fitness, 5)
			require.NoError(t, err)
			assert.Equal(t, a, b)
		})
	}
}

func TestSelectorsRejectOutOfRangeCount(t *testing.T) {
	fitness := []float64{1, 2, 3}
	for _, sel := range allSelectors() {
		rng := rand.New(rand.NewSource(1))
		_, err := sel.Select(rng, fitness, 0)
		require.ErrorIs(t, err, model.ErrConfiguration, sel.Name())
		_, err = sel.Select(rng, fitness, 4)
		require.ErrorIs(t, err, model.ErrConfiguration, sel.Name())
	}
}

func TestEliteOfWholePopulationIsSortedDescending(t *testing.T) {
	pop := mustPopulation(
		model.NewIndividual([]int{0}, 2),
		model.NewIndividual([]int{1}, 5),
		model.NewIndividual([]int{2}, 1),
		model.NewIndividual([]int{3}, 5),
		model.NewIndividual([]int{4}, 3),
	)

	chosen, err := SelectIndividuals(nil, Elite{}, pop, pop.Size())
	require.NoError(t, err)

	ids := make([]int, len(chosen))
	fitness := make([]float64, len(chosen))
	for i, individual := range chosen {
		ids[i] = individual.Gene(0)
		fitness[i] = individual.Fitness()
	}
	assert.Equal(t, []int{1, 3, 4, 0, 2}, ids, "ties keep original order")
	assert.True(t, sort.SliceIsSorted(fitness, func(i, j int) bool { return fitness[i] > fitness[j] }))

	sortedIDs := append([]int(nil), ids...)
	sort.Ints(sortedIDs)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, sortedIDs, "same multiset as the input")
}

func TestRouletteNeverPicksZeroFitness(t *testing.T) {
	fitness := []float64{0, 3, 0, 1}
	indices, err := Roulette{}.Select(rand.New(rand.NewSource(3)), fitness, 4)
	require.NoError(t, err)
	for i := 0; i < 200; i++ {
		more, err := Roulette{}.Select(rand.New(rand.NewSource(int64(i))), fitness, 4)
		require.NoError(t, err)
		indices = append(indices, more...)
	}
	for _, idx := range indices {
		assert.NotEqual(t, 0, idx)
		assert.NotEqual(t, 2, idx)
	}
}

func TestRouletteRejectsMalformedFitness(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	cases := map[string][]float64{
		"all zero": {0, 0, 0, 0},
		"negative": {1, -0.5, 2},
		"nan":      {1, math.NaN()},
		"inf":      {math.Inf(1), 1},
	}
	for name, fitness := range cases {
		_, err := Roulette{}.Select(rng, fitness, 1)
		require.ErrorIs(t, err, model.ErrInvalidFitness, name)
		_, err = Universal{}.Select(rng, fitness, 1)
		require.ErrorIs(t, err, model.ErrInvalidFitness, name)
	}
}

func TestUniversalSpacesPointersEvenly(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		rng := rand.New(rand.NewSource(seed))

		indices, err := Universal{}.Select(rng, []float64{1, 1, 1, 1}, 4)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1, 2, 3}, indices)

		indices, err = Universal{}.Select(rng, []float64{3, 1}, 4)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 0, 0, 1}, indices)
	}
}

func TestRankingIgnoresFitnessScale(t *testing.T) {
	counts := make([]int, 2)
	indices, err := Ranking{}.Select(rand.New(rand.NewSource(5)), []float64{1, 1e9}, 2)
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(5))
	for i := 0; i < 1500; i++ {
		indices, err = Ranking{}.Select(rng, []float64{1, 1e9}, 2)
		require.NoError(t, err)
		for _, idx := range indices {
			counts[idx]++
		}
	}
	// Rank weights are 1 and 2, so the weaker member takes about a third.
	assert.Greater(t, counts[0], 600)
	assert.Greater(t, counts[1], counts[0])
}

func TestBoltzmannTemperatureControlsPressure(t *testing.T) {
	fitness := []float64{0, 10}

	hot := make([]int, 2)
	rng := rand.New(rand.NewSource(11))
	indices, err := Boltzmann{Temperature: 1e6}.Select(rng, fitness, 2)
	require.NoError(t, err)
	for i := 0; i < 2000; i++ {
		indices, err = Boltzmann{Temperature: 1e6}.Select(rng, fitness, 2)
		require.NoError(t, err)
		for _, idx := range indices {
			hot[idx]++
		}
	}
	assert.Greater(t, hot[0], 1500)
	assert.Greater(t, hot[1], 1500)

	cold := make([]int, 2)
	for i := 0; i < 2000; i++ {
		indices, err = Boltzmann{Temperature: 0.1}.Select(rng, fitness, 2)
		require.NoError(t, err)
		for _, idx := range indices {
			cold[idx]++
		}
	}
	assert.Less(t, cold[0], 5)

	_, err = Boltzmann{}.Select(rng, fitness, 1)
	require.ErrorIs(t, err, model.ErrConfiguration)
}

func TestTournamentOfWholePopulationPicksFittest(t *testing.T) {
	fitness := []float64{4, 9, 1, 7}
	indices, err := Tournament{Size: 10}.Select(rand.New(rand.NewSource(2)), fitness, 4)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 1, 1}, indices)

	_, err = Tournament{}.Select(rand.New(rand.NewSource(2)), fitness, 1)
	require.ErrorIs(t, err, model.ErrConfiguration)
}

func TestProbabilisticTournamentWinProbability(t *testing.T) {
	fitness := []float64{4, 3, 2, 1}
	rng := rand.New(rand.NewSource(8))

	always, err := ProbabilisticTournament{Size: 4, WinProbability: 1}.Select(rng, fitness, 4)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 0, 0}, always)

	never, err := ProbabilisticTournament{Size: 4, WinProbability: 0}.Select(rng, fitness, 4)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 1, 1}, never)

	single, err := ProbabilisticTournament{Size: 1, WinProbability: 0}.Select(rng, fitness, 4)
	require.NoError(t, err)
	assert.Len(t, single, 4)

	_, err = ProbabilisticTournament{Size: 2, WinProbability: 1.5}.Select(rng, fitness, 1)
	require.ErrorIs(t, err, model.ErrConfiguration)
}

func TestTournamentsBreakTiesByLowestIndex(t *testing.T) {
	fitness := []float64{2, 5, 5, 5}
	rng := rand.New(rand.NewSource(13))

	plain, err := Tournament{Size: 4}.Select(rng, fitness, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 1}, plain)

	winner, err := ProbabilisticTournament{Size: 4, WinProbability: 1}.Select(rng, fitness, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 1}, winner)

	runnerUp, err := ProbabilisticTournament{Size: 4, WinProbability: 0}.Select(rng, fitness, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 2}, runnerUp)
}
