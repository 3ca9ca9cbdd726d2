package evo

import (
	"math/rand"

	"genevo/internal/model"
)

func oneMax() EvaluatorFunc[int] {
	return func(genome []int) (float64, error) {
		total := 0
		for _, bit := range genome {
			total += bit
		}
		return float64(total), nil
	}
}

func flipBit(_ *rand.Rand, _ int, current int) int {
	return 1 - current
}

func bitFactory(length int) model.FactoryFunc[int] {
	eval := oneMax()
	return func(rng *rand.Rand) (model.Individual[int], error) {
		genome := make([]int, length)
		for i := range genome {
			genome[i] = rng.Intn(2)
		}
		fitness, err := eval(genome)
		if err != nil {
			return model.Individual[int]{}, err
		}
		return model.NewIndividual(genome, fitness), nil
	}
}

// listFactory hands out the given genomes in order, scored by oneMax.
func listFactory(genomes ...[]int) model.FactoryFunc[int] {
	next := 0
	eval := oneMax()
	return func(_ *rand.Rand) (model.Individual[int], error) {
		genome := genomes[next%len(genomes)]
		next++
		fitness, _ := eval(genome)
		return model.NewIndividual(genome, fitness), nil
	}
}

func seqGenome(start, length int) []int {
	out := make([]int, length)
	for i := range out {
		out[i] = start + i
	}
	return out
}

func genomesOf(pop model.Population[int]) [][]int {
	out := make([][]int, pop.Size())
	for i := range out {
		out[i] = pop.At(i).Genome()
	}
	return out
}

func mustPopulation(individuals ...model.Individual[int]) model.Population[int] {
	pop, err := model.NewPopulation(individuals, 0)
	if err != nil {
		panic(err)
	}
	return pop
}
