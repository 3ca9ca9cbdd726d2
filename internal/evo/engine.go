package evo

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync/atomic"

	"genevo/internal/model"
)

// State is the engine lifecycle position.
type State int

const (
	StateUninitialized State = iota
	StateSeeded
	StateEvolving
	StateDone
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateSeeded:
		return "seeded"
	case StateEvolving:
		return "evolving"
	case StateDone:
		return "done"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Hook runs after every population the engine creates, generation 0
// included, with that population's diagnostics. Returning stop ends the run
// early; an error aborts it.
type Hook[G any] func(ctx context.Context, pop model.Population[G], diag model.GenerationDiagnostics) (stop bool, err error)

type Config[G any] struct {
	PopulationSize int
	Generations    int
	Selection      Selector
	Crossover      Crossover
	Mutation       Mutator
	Replacement    Replacement
	Evaluator      Evaluator[G]
	Sampler        AlleleSampler[G]
	Workers        int
	Seed           int64
	// Rand overrides the generator seeded from Seed.
	Rand     *rand.Rand
	Hook     Hook[G]
	Observer Observer
	Logger   *slog.Logger
}

type RunResult[G any] struct {
	Final       model.Population[G]
	Best        model.Individual[G]
	Diagnostics []model.GenerationDiagnostics
	Evaluations int64
	// StoppedEarly is set when the hook ended the run before Generations.
	StoppedEarly bool
}

// Engine owns the current population and drives the generation loop. An
// engine runs once; a new run needs a new engine.
type Engine[G any] struct {
	cfg    Config[G]
	rng    *rand.Rand
	ops    Operators[G]
	logger *slog.Logger

	state       State
	population  model.Population[G]
	created     int
	evaluations atomic.Int64
}

func NewEngine[G any](cfg Config[G]) (*Engine[G], error) {
	if cfg.PopulationSize <= 0 {
		return nil, fmt.Errorf("%w: population size must be > 0, got %d", model.ErrConfiguration, cfg.PopulationSize)
	}
	if cfg.Generations < 0 {
		return nil, fmt.Errorf("%w: generations must be >= 0, got %d", model.ErrConfiguration, cfg.Generations)
	}
	if cfg.Replacement == nil {
		return nil, fmt.Errorf("%w: replacement strategy is required", model.ErrConfiguration)
	}
	// No replacement runs for zero generations, so any positive size seeds.
	if cfg.Generations > 0 && cfg.PopulationSize < cfg.Replacement.minPopulation() {
		return nil, fmt.Errorf("%w: %s replacement needs a population of at least %d, got %d",
			model.ErrConfiguration, cfg.Replacement.Name(), cfg.Replacement.minPopulation(), cfg.PopulationSize)
	}
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("%w: workers must be >= 0, got %d", model.ErrConfiguration, cfg.Workers)
	}
	if cfg.Workers == 0 {
		cfg.Workers = 1
	}

	e := &Engine[G]{
		cfg:    cfg,
		rng:    cfg.Rand,
		logger: cfg.Logger,
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(cfg.Seed))
	}
	if e.logger == nil {
		e.logger = slog.New(slog.DiscardHandler)
	}

	var eval Evaluator[G]
	if cfg.Evaluator != nil {
		eval = EvaluatorFunc[G](func(genome []G) (float64, error) {
			e.evaluations.Add(1)
			return cfg.Evaluator.Evaluate(genome)
		})
	}
	e.ops = Operators[G]{
		Selection: cfg.Selection,
		Crossover: cfg.Crossover,
		Mutation:  cfg.Mutation,
		Evaluator: eval,
		Sampler:   cfg.Sampler,
		Workers:   cfg.Workers,
	}
	if err := e.ops.validate(); err != nil {
		return nil, err
	}
	for _, v := range []interface{ validate() error }{cfg.Selection, cfg.Crossover, cfg.Mutation} {
		if err := v.validate(); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (e *Engine[G]) State() State {
	return e.state
}

// Population returns the current population; it is the zero value until the
// engine has been seeded.
func (e *Engine[G]) Population() model.Population[G] {
	return e.population
}

// Run seeds generation 0 from factory and applies the replacement strategy
// once per configured generation.
func (e *Engine[G]) Run(ctx context.Context, factory model.IndividualFactory[G]) (RunResult[G], error) {
	if e.state != StateUninitialized {
		return RunResult[G]{}, fmt.Errorf("%w: engine is %s; start a new engine for another run", model.ErrConfiguration, e.state)
	}
	if factory == nil {
		return RunResult[G]{}, fmt.Errorf("%w: individual factory is required", model.ErrConfiguration)
	}

	counted := model.FactoryFunc[G](func(rng *rand.Rand) (model.Individual[G], error) {
		e.evaluations.Add(1)
		return factory.Create(rng)
	})
	seed, err := model.SeedPopulation[G](counted, e.rng, e.cfg.PopulationSize, e.created)
	if err != nil {
		return RunResult[G]{}, err
	}
	e.accept(seed, StateSeeded)
	e.logger.Info("population seeded",
		"size", seed.Size(),
		"best_fitness", seed.Best().Fitness(),
	)

	result := RunResult[G]{}
	stop, err := e.observe(ctx, &result)
	if err != nil {
		return RunResult[G]{}, err
	}

	for gen := 0; gen < e.cfg.Generations && !stop; gen++ {
		if err := ctx.Err(); err != nil {
			return RunResult[G]{}, err
		}
		next, err := Replace(e.rng, e.cfg.Replacement, e.ops, e.population)
		if err != nil {
			return RunResult[G]{}, fmt.Errorf("generation %d: %w", e.created, err)
		}
		e.accept(next, StateEvolving)

		stop, err = e.observe(ctx, &result)
		if err != nil {
			return RunResult[G]{}, err
		}
	}

	e.state = StateDone
	result.Final = e.population
	result.Best = e.population.Best()
	result.Evaluations = e.evaluations.Load()
	result.StoppedEarly = stop && e.population.Generation() < e.cfg.Generations
	e.logger.Info("run complete",
		"generation", e.population.Generation(),
		"best_fitness", result.Best.Fitness(),
		"evaluations", result.Evaluations,
		"stopped_early", result.StoppedEarly,
	)
	return result, nil
}

// accept installs pop as the current population. The counter advances once
// per created population, so pop.Generation() == created-1 always holds.
func (e *Engine[G]) accept(pop model.Population[G], state State) {
	e.population = pop
	e.created++
	e.state = state
}

func (e *Engine[G]) observe(ctx context.Context, result *RunResult[G]) (bool, error) {
	diag := summarizeGeneration(e.population, e.evaluations.Load())
	result.Diagnostics = append(result.Diagnostics, diag)
	if e.cfg.Observer != nil {
		e.cfg.Observer.ObserveGeneration(diag)
	}
	e.logger.Debug("generation complete",
		"generation", diag.Generation,
		"best_fitness", diag.BestFitness,
		"mean_fitness", diag.MeanFitness,
	)

	if e.cfg.Hook == nil {
		return false, nil
	}
	stop, err := e.cfg.Hook(ctx, e.population, diag)
	if err != nil {
		return false, fmt.Errorf("generation hook at generation %d: %w", diag.Generation, err)
	}
	return stop, nil
}
