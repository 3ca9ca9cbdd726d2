package evo

import (
	"fmt"
	"sort"
	"strings"

	"genevo/internal/model"
)

// StrategyParams carries the tunables of the parameterized strategies.
// Values are used as given; callers fill in the Default constants.
type StrategyParams struct {
	TournamentSize           int
	TournamentWinProbability float64
	BoltzmannTemperature     float64
	MutationProbability      float64
}

const (
	DefaultTournamentSize           = 3
	DefaultTournamentWinProbability = 0.75
	DefaultBoltzmannTemperature     = 1.0
)

var selectorRegistry = map[string]func(StrategyParams) Selector{
	"elite":     func(StrategyParams) Selector { return Elite{} },
	"random":    func(StrategyParams) Selector { return Random{} },
	"roulette":  func(StrategyParams) Selector { return Roulette{} },
	"universal": func(StrategyParams) Selector { return Universal{} },
	"ranking":   func(StrategyParams) Selector { return Ranking{} },
	"boltzmann": func(p StrategyParams) Selector {
		return Boltzmann{Temperature: p.BoltzmannTemperature}
	},
	"tournament": func(p StrategyParams) Selector {
		return Tournament{Size: p.TournamentSize}
	},
	"tournament_prob": func(p StrategyParams) Selector {
		return ProbabilisticTournament{
			Size:           p.TournamentSize,
			WinProbability: p.TournamentWinProbability,
		}
	},
}

var crossoverRegistry = map[string]Crossover{
	"one_point": OnePoint{},
	"two_point": TwoPoint{},
	"uniform":   Uniform{},
	"ring":      Ring{},
}

var replacementRegistry = map[string]Replacement{
	"generational":     FullGenerational{},
	"method_1":         FullGenerational{},
	"random_retention": RandomRetention{},
	"method_2":         RandomRetention{},
	"two_stage_mixing": TwoStageMixing{},
	"method_3":         TwoStageMixing{},
}

// ParseSelector resolves a selection strategy name.
func ParseSelector(name string, params StrategyParams) (Selector, error) {
	build, ok := selectorRegistry[normalizeName(name)]
	if !ok {
		return nil, unknownStrategy("selection", name, keys(selectorRegistry))
	}
	sel := build(params)
	if err := sel.validate(); err != nil {
		return nil, err
	}
	return sel, nil
}

func ParseCrossover(name string) (Crossover, error) {
	c, ok := crossoverRegistry[normalizeName(name)]
	if !ok {
		return nil, unknownStrategy("crossover", name, keys(crossoverRegistry))
	}
	return c, nil
}

func ParseMutator(name string, params StrategyParams) (Mutator, error) {
	switch normalizeName(name) {
	case "single_gene":
		m := SingleGene{Probability: params.MutationProbability}
		if err := m.validate(); err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, unknownStrategy("mutation", name, []string{"single_gene"})
	}
}

func ParseReplacement(name string) (Replacement, error) {
	r, ok := replacementRegistry[normalizeName(name)]
	if !ok {
		return nil, unknownStrategy("replacement", name, keys(replacementRegistry))
	}
	return r, nil
}

// ListSelectors returns the known selection names in lexical order.
func ListSelectors() []string {
	return keys(selectorRegistry)
}

func ListCrossovers() []string {
	return keys(crossoverRegistry)
}

func ListReplacements() []string {
	return keys(replacementRegistry)
}

func normalizeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
}

func unknownStrategy(kind, name string, known []string) error {
	return fmt.Errorf("%w: unknown %s strategy %q (known: %s)", model.ErrConfiguration, kind, name, strings.Join(known, ", "))
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
