package genevo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"genevo/internal/evo"
	"genevo/internal/metrics"
	"genevo/internal/model"
	"genevo/internal/problem"
	"genevo/internal/stats"
	"genevo/internal/storage"
)

const (
	defaultExportsDir = "exports"
	defaultDBPath     = "genevo.db"
)

type Options struct {
	StoreKind  string
	DBPath     string
	ExportsDir string
	Logger     *slog.Logger
	// Registerer receives the run metrics; nil disables them.
	Registerer prometheus.Registerer
}

type Client struct {
	store      storage.Store
	exportsDir string
	logger     *slog.Logger
	metrics    *metrics.Collector

	initOnce sync.Once
	initErr  error
}

type RunRequest struct {
	RunID        string
	Problem      string
	GenomeLength int
	Target       string
	Population   int
	Generations  int
	Seed         int64
	Workers      int

	Selection string
	// Nil selector parameters take the evo defaults; explicit values are
	// validated as given.
	TournamentSize           *int
	TournamentWinProbability *float64
	BoltzmannTemperature     *float64
	Crossover                string
	Mutation                 string
	// MutationProbability is used as given; zero disables mutation.
	MutationProbability float64
	Replacement         string

	// FitnessGoal, when > 0, stops the run once the best fitness reaches it.
	FitnessGoal float64
}

type RunSummary struct {
	RunID            string
	Generation       int
	FinalBestFitness float64
	BestGenome       []int
	// BestText renders the best genome for the target problem.
	BestText         string
	BestByGeneration []float64
	Evaluations      int64
	StoppedEarly     bool
	Solved           bool
}

type RunsRequest struct {
	Limit int
}

type DiagnosticsRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type PopulationRequest struct {
	RunID  string
	Latest bool
	// Generation selects a stored generation; negative means the last one.
	Generation int
}

type TopRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type IndividualItem struct {
	Rank    int
	Genome  []int
	Fitness float64
}

type PopulationSnapshot struct {
	RunID       string
	Generation  int
	Individuals []IndividualItem
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	c := &Client{
		store:      store,
		exportsDir: exportsDir,
		logger:     logger,
	}
	if opts.Registerer != nil {
		c.metrics, err = metrics.New(opts.Registerer)
		if err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Client) Close() error {
	return storage.CloseStore(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	c.initOnce.Do(func() {
		c.initErr = c.store.Init(ctx)
	})
	return c.initErr
}

func (c *Client) Reset(ctx context.Context) error {
	if err := c.Init(ctx); err != nil {
		return err
	}
	return c.store.Reset(ctx)
}

func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	applyRunDefaults(&req)
	if req.Population <= 0 {
		return RunSummary{}, fmt.Errorf("%w: population size must be > 0, got %d", model.ErrConfiguration, req.Population)
	}
	if req.Workers < 0 {
		return RunSummary{}, fmt.Errorf("%w: workers must be >= 0, got %d", model.ErrConfiguration, req.Workers)
	}

	p, err := problem.Resolve(req.Problem, req.GenomeLength, req.Target)
	if err != nil {
		return RunSummary{}, err
	}
	params := evo.StrategyParams{
		TournamentSize:           *req.TournamentSize,
		TournamentWinProbability: *req.TournamentWinProbability,
		BoltzmannTemperature:     *req.BoltzmannTemperature,
		MutationProbability:      req.MutationProbability,
	}
	selector, err := evo.ParseSelector(req.Selection, params)
	if err != nil {
		return RunSummary{}, err
	}
	crossover, err := evo.ParseCrossover(req.Crossover)
	if err != nil {
		return RunSummary{}, err
	}
	mutator, err := evo.ParseMutator(req.Mutation, params)
	if err != nil {
		return RunSummary{}, err
	}
	replacement, err := evo.ParseReplacement(req.Replacement)
	if err != nil {
		return RunSummary{}, err
	}
	if err := c.Init(ctx); err != nil {
		return RunSummary{}, err
	}

	runID := strings.TrimSpace(req.RunID)
	if runID == "" {
		runID = uuid.NewString()
	}
	if _, exists, err := c.store.GetRun(ctx, runID); err != nil {
		return RunSummary{}, err
	} else if exists {
		return RunSummary{}, fmt.Errorf("%w: run %s already exists", model.ErrConfiguration, runID)
	}
	logger := c.logger.With("run_id", runID)

	record := model.RunRecord{
		VersionedRecord: storage.CurrentVersion(),
		ID:              runID,
		CreatedAtUTC:    time.Now().UTC().Format(time.RFC3339Nano),
		Problem:         p.Name(),
		GenomeLength:    p.GenomeLength(),
		Target:          req.Target,
		PopulationSize:  req.Population,
		Generations:     req.Generations,
		Seed:            req.Seed,
		Workers:         req.Workers,
		FitnessGoal:     req.FitnessGoal,
		Strategies: model.StrategyConfig{
			Selection:                selector.Name(),
			Crossover:                crossover.Name(),
			Mutation:                 mutator.Name(),
			Replacement:              replacement.Name(),
			TournamentSize:           params.TournamentSize,
			TournamentWinProbability: params.TournamentWinProbability,
			BoltzmannTemperature:     params.BoltzmannTemperature,
			MutationProbability:      params.MutationProbability,
		},
		State: evo.StateUninitialized.String(),
	}

	var observer evo.Observer
	if c.metrics != nil {
		observer = c.metrics.Observer(runID)
	}
	engine, err := evo.NewEngine(evo.Config[int]{
		PopulationSize: req.Population,
		Generations:    req.Generations,
		Selection:      selector,
		Crossover:      crossover,
		Mutation:       mutator,
		Replacement:    replacement,
		Evaluator:      p,
		Sampler:        p.Sample,
		Workers:        req.Workers,
		Seed:           req.Seed,
		Observer:       observer,
		Logger:         logger,
		Hook: func(ctx context.Context, pop model.Population[int], diag model.GenerationDiagnostics) (bool, error) {
			snapshot, err := storage.EncodePopulation(runID, pop, diag)
			if err != nil {
				return false, err
			}
			if err := c.store.SaveGeneration(ctx, snapshot); err != nil {
				return false, fmt.Errorf("save generation %d: %w", pop.Generation(), err)
			}
			return req.FitnessGoal > 0 && diag.BestFitness >= req.FitnessGoal, nil
		},
	})
	if err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveRun(ctx, record); err != nil {
		return RunSummary{}, err
	}

	result, runErr := engine.Run(ctx, problem.Factory(p))
	record.State = engine.State().String()
	if runErr != nil {
		record.State = "failed"
		record.LastGeneration = engine.Population().Generation()
		if err := c.store.SaveRun(context.WithoutCancel(ctx), record); err != nil {
			logger.Warn("persist failed run", "error", err)
		}
		return RunSummary{}, runErr
	}
	record.LastGeneration = result.Final.Generation()
	record.FinalBestFitness = result.Best.Fitness()
	record.Evaluations = result.Evaluations
	if err := c.store.SaveRun(ctx, record); err != nil {
		return RunSummary{}, err
	}

	bestByGeneration := make([]float64, len(result.Diagnostics))
	for i, diag := range result.Diagnostics {
		bestByGeneration[i] = diag.BestFitness
	}
	summary := RunSummary{
		RunID:            runID,
		Generation:       result.Final.Generation(),
		FinalBestFitness: result.Best.Fitness(),
		BestGenome:       result.Best.Genome(),
		BestByGeneration: bestByGeneration,
		Evaluations:      result.Evaluations,
		StoppedEarly:     result.StoppedEarly,
		Solved:           result.Best.Fitness() >= p.Optimum(),
	}
	if p.Name() == "target" {
		summary.BestText = problem.Decode(summary.BestGenome)
	}
	return summary, nil
}

func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]model.RunRecord, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	if req.Limit > 0 && len(runs) > req.Limit {
		runs = runs[:req.Limit]
	}
	return runs, nil
}

func (c *Client) Diagnostics(ctx context.Context, req DiagnosticsRequest) ([]model.GenerationDiagnostics, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	run, err := c.resolveRun(ctx, req.RunID, req.Latest, "diagnostics")
	if err != nil {
		return nil, err
	}
	diagnostics, err := c.store.ListDiagnostics(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	if req.Limit > 0 && len(diagnostics) > req.Limit {
		diagnostics = diagnostics[:req.Limit]
	}
	return diagnostics, nil
}

func (c *Client) Population(ctx context.Context, req PopulationRequest) (PopulationSnapshot, error) {
	run, err := c.resolveRun(ctx, req.RunID, req.Latest, "population")
	if err != nil {
		return PopulationSnapshot{}, err
	}
	generation := req.Generation
	if generation < 0 {
		generation = run.LastGeneration
	}
	pop, err := c.loadPopulation(ctx, run.ID, generation)
	if err != nil {
		return PopulationSnapshot{}, err
	}

	items := make([]IndividualItem, pop.Size())
	for i, individual := range pop.Individuals() {
		items[i] = IndividualItem{Rank: i + 1, Genome: individual.Genome(), Fitness: individual.Fitness()}
	}
	return PopulationSnapshot{RunID: run.ID, Generation: pop.Generation(), Individuals: items}, nil
}

// Top ranks the last stored generation of a run by fitness, best first.
func (c *Client) Top(ctx context.Context, req TopRequest) ([]IndividualItem, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	snapshot, err := c.Population(ctx, PopulationRequest{RunID: req.RunID, Latest: req.Latest, Generation: -1})
	if err != nil {
		return nil, err
	}
	ranked := snapshot.Individuals
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Fitness > ranked[j].Fitness
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	if req.Limit > 0 && len(ranked) > req.Limit {
		ranked = ranked[:req.Limit]
	}
	return ranked, nil
}

func (c *Client) Export(ctx context.Context, req ExportRequest) (ExportSummary, error) {
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}
	run, err := c.resolveRun(ctx, req.RunID, req.Latest, "export")
	if err != nil {
		return ExportSummary{}, err
	}
	diagnostics, err := c.store.ListDiagnostics(ctx, run.ID)
	if err != nil {
		return ExportSummary{}, err
	}
	final, ok, err := c.store.GetGeneration(ctx, run.ID, run.LastGeneration)
	if err != nil {
		return ExportSummary{}, err
	}
	if !ok {
		return ExportSummary{}, fmt.Errorf("generation %d not found for run id: %s", run.LastGeneration, run.ID)
	}

	runDir, err := stats.WriteRunArtifacts(req.OutDir, stats.RunArtifacts{
		Run:         run,
		Diagnostics: diagnostics,
		Final:       final,
	})
	if err != nil {
		return ExportSummary{}, err
	}
	if err := stats.AppendRunIndex(req.OutDir, stats.RunIndexEntry{
		RunID:            run.ID,
		Problem:          run.Problem,
		PopulationSize:   run.PopulationSize,
		Generations:      run.Generations,
		Seed:             run.Seed,
		Replacement:      run.Strategies.Replacement,
		FinalBestFitness: run.FinalBestFitness,
		CreatedAtUTC:     run.CreatedAtUTC,
	}); err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: run.ID, Directory: filepath.Clean(runDir)}, nil
}

func (c *Client) resolveRun(ctx context.Context, runID string, latest bool, op string) (model.RunRecord, error) {
	if runID != "" && latest {
		return model.RunRecord{}, errors.New("use either run id or latest")
	}
	if runID == "" && !latest {
		return model.RunRecord{}, fmt.Errorf("%s requires run id or latest", op)
	}
	if err := c.Init(ctx); err != nil {
		return model.RunRecord{}, err
	}

	if latest {
		runs, err := c.store.ListRuns(ctx)
		if err != nil {
			return model.RunRecord{}, err
		}
		if len(runs) == 0 {
			return model.RunRecord{}, errors.New("no runs available")
		}
		return runs[0], nil
	}
	run, ok, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return model.RunRecord{}, err
	}
	if !ok {
		return model.RunRecord{}, fmt.Errorf("run not found: %s", runID)
	}
	return run, nil
}

func (c *Client) loadPopulation(ctx context.Context, runID string, generation int) (model.Population[int], error) {
	snapshot, ok, err := c.store.GetGeneration(ctx, runID, generation)
	if err != nil {
		return model.Population[int]{}, err
	}
	if !ok {
		return model.Population[int]{}, fmt.Errorf("generation %d not found for run id: %s", generation, runID)
	}
	return storage.DecodePopulation[int](snapshot)
}

func applyRunDefaults(req *RunRequest) {
	if req.Problem == "" {
		req.Problem = "onemax"
	}
	if req.GenomeLength == 0 && req.Target == "" {
		req.GenomeLength = 32
	}
	if req.Workers == 0 {
		req.Workers = 4
	}
	if req.TournamentSize == nil {
		req.TournamentSize = ptr(evo.DefaultTournamentSize)
	}
	if req.TournamentWinProbability == nil {
		req.TournamentWinProbability = ptr(evo.DefaultTournamentWinProbability)
	}
	if req.BoltzmannTemperature == nil {
		req.BoltzmannTemperature = ptr(evo.DefaultBoltzmannTemperature)
	}
	if req.Selection == "" {
		req.Selection = "tournament"
	}
	if req.Crossover == "" {
		req.Crossover = "one_point"
	}
	if req.Mutation == "" {
		req.Mutation = "single_gene"
	}
	if req.Replacement == "" {
		req.Replacement = "generational"
	}
}

func ptr[T any](v T) *T {
	return &v
}
