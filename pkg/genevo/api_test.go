package genevo

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genevo/internal/model"
	"genevo/internal/stats"
)

func newMemoryClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(Options{StoreKind: "memory", ExportsDir: filepath.Join(t.TempDir(), "exports")})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}

func smallRun(runID string) RunRequest {
	return RunRequest{
		RunID:               runID,
		Problem:             "onemax",
		GenomeLength:        12,
		Population:          10,
		Generations:         6,
		Seed:                3,
		Workers:             2,
		Selection:           "tournament",
		Crossover:           "two_point",
		MutationProbability: 0.1,
		Replacement:         "method_2",
	}
}

func TestRunPersistsEveryGeneration(t *testing.T) {
	ctx := context.Background()
	client := newMemoryClient(t)

	summary, err := client.Run(ctx, smallRun("run-1"))
	require.NoError(t, err)
	assert.Equal(t, "run-1", summary.RunID)
	assert.Equal(t, 6, summary.Generation)
	assert.Len(t, summary.BestByGeneration, 7)
	assert.Len(t, summary.BestGenome, 12)
	assert.Positive(t, summary.Evaluations)

	runs, err := client.Runs(ctx, RunsRequest{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	run := runs[0]
	assert.Equal(t, "done", run.State)
	assert.Equal(t, 6, run.LastGeneration)
	assert.Equal(t, "random_retention", run.Strategies.Replacement)
	assert.Equal(t, summary.FinalBestFitness, run.FinalBestFitness)
	assert.Equal(t, summary.Evaluations, run.Evaluations)

	diagnostics, err := client.Diagnostics(ctx, DiagnosticsRequest{RunID: "run-1"})
	require.NoError(t, err)
	require.Len(t, diagnostics, 7)
	for i, diag := range diagnostics {
		assert.Equal(t, i, diag.Generation)
		assert.Equal(t, summary.BestByGeneration[i], diag.BestFitness)
	}

	snapshot, err := client.Population(ctx, PopulationRequest{Latest: true, Generation: 0})
	require.NoError(t, err)
	assert.Equal(t, 0, snapshot.Generation)
	assert.Len(t, snapshot.Individuals, 10)
}

func TestRunIsReproducibleForASeed(t *testing.T) {
	ctx := context.Background()
	client := newMemoryClient(t)

	first, err := client.Run(ctx, smallRun("a"))
	require.NoError(t, err)
	req := smallRun("b")
	req.Workers = 5
	second, err := client.Run(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, first.BestByGeneration, second.BestByGeneration)
	assert.Equal(t, first.BestGenome, second.BestGenome)
}

func TestRunStopsAtFitnessGoal(t *testing.T) {
	ctx := context.Background()
	client := newMemoryClient(t)

	req := smallRun("goal")
	req.Generations = 200
	req.FitnessGoal = 1
	summary, err := client.Run(ctx, req)
	require.NoError(t, err)
	assert.True(t, summary.StoppedEarly)
	assert.Equal(t, 0, summary.Generation)
	assert.GreaterOrEqual(t, summary.FinalBestFitness, 1.0)

	run, err := client.resolveRun(ctx, "goal", false, "test")
	require.NoError(t, err)
	assert.Equal(t, 0, run.LastGeneration)
}

func TestRunTargetPhrase(t *testing.T) {
	client := newMemoryClient(t)
	summary, err := client.Run(context.Background(), RunRequest{
		Problem:             "target",
		Target:              "go",
		Population:          40,
		Generations:         60,
		Seed:                8,
		MutationProbability: 0.3,
		Replacement:         "two_stage_mixing",
		FitnessGoal:         2,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, summary.RunID)
	assert.Len(t, summary.BestText, 2)
	if summary.Solved {
		assert.Equal(t, "go", summary.BestText)
	}
}

func TestRunRejectsBadRequests(t *testing.T) {
	ctx := context.Background()
	client := newMemoryClient(t)
	cases := map[string]func(*RunRequest){
		"selection":   func(r *RunRequest) { r.Selection = "lottery" },
		"crossover":   func(r *RunRequest) { r.Crossover = "three_point" },
		"mutation":    func(r *RunRequest) { r.Mutation = "swap" },
		"replacement": func(r *RunRequest) { r.Replacement = "method_9" },
		"probability": func(r *RunRequest) { r.MutationProbability = 1.5 },
		"problem":     func(r *RunRequest) { r.Problem = "knapsack" },
		"generations": func(r *RunRequest) { r.Generations = -1 },
		"population":  func(r *RunRequest) { r.Population = -5 },
		"empty":       func(r *RunRequest) { r.Population = 0 },
		"workers":     func(r *RunRequest) { r.Workers = -1 },
		"length":      func(r *RunRequest) { r.GenomeLength = -4 },
		"temperature": func(r *RunRequest) {
			r.Selection = "boltzmann"
			r.BoltzmannTemperature = ptr(0.0)
		},
		"tournament size": func(r *RunRequest) { r.TournamentSize = ptr(0) },
	}
	for name, mutate := range cases {
		req := smallRun("")
		mutate(&req)
		_, err := client.Run(ctx, req)
		require.ErrorIs(t, err, model.ErrConfiguration, name)
	}

	_, err := client.Run(ctx, smallRun("dup"))
	require.NoError(t, err)
	_, err = client.Run(ctx, smallRun("dup"))
	require.ErrorIs(t, err, model.ErrConfiguration)
}

func TestRunKeepsExplicitZeroWinProbability(t *testing.T) {
	ctx := context.Background()
	client := newMemoryClient(t)

	req := smallRun("runner-up")
	req.Selection = "tournament_prob"
	req.TournamentWinProbability = ptr(0.0)
	_, err := client.Run(ctx, req)
	require.NoError(t, err)

	run, err := client.resolveRun(ctx, "runner-up", false, "test")
	require.NoError(t, err)
	assert.Equal(t, 0.0, run.Strategies.TournamentWinProbability)
	assert.Equal(t, 3, run.Strategies.TournamentSize)
}

func TestCanceledRunIsMarkedFailed(t *testing.T) {
	client := newMemoryClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Run(ctx, smallRun("canceled"))
	require.ErrorIs(t, err, context.Canceled)

	run, err := client.resolveRun(context.Background(), "canceled", false, "test")
	require.NoError(t, err)
	assert.Equal(t, "failed", run.State)
	assert.Equal(t, 0, run.LastGeneration)

	// Generation 0 was stored before the loop saw the cancellation.
	diagnostics, err := client.Diagnostics(context.Background(), DiagnosticsRequest{RunID: "canceled"})
	require.NoError(t, err)
	assert.Len(t, diagnostics, 1)
}

func TestTopRanksLastGeneration(t *testing.T) {
	ctx := context.Background()
	client := newMemoryClient(t)
	_, err := client.Run(ctx, smallRun("top"))
	require.NoError(t, err)

	top, err := client.Top(ctx, TopRequest{RunID: "top", Limit: 3})
	require.NoError(t, err)
	require.Len(t, top, 3)
	for i := range top {
		assert.Equal(t, i+1, top[i].Rank)
		if i > 0 {
			assert.GreaterOrEqual(t, top[i-1].Fitness, top[i].Fitness)
		}
	}
}

func TestLookupsRequireARun(t *testing.T) {
	ctx := context.Background()
	client := newMemoryClient(t)

	_, err := client.Diagnostics(ctx, DiagnosticsRequest{})
	require.Error(t, err)
	_, err = client.Diagnostics(ctx, DiagnosticsRequest{RunID: "x", Latest: true})
	require.Error(t, err)
	_, err = client.Diagnostics(ctx, DiagnosticsRequest{Latest: true})
	require.Error(t, err)
	_, err = client.Top(ctx, TopRequest{RunID: "missing"})
	require.Error(t, err)
	_, err = client.Runs(ctx, RunsRequest{Limit: -1})
	require.Error(t, err)
}

func TestExportWritesArtifacts(t *testing.T) {
	ctx := context.Background()
	client := newMemoryClient(t)
	_, err := client.Run(ctx, smallRun("exp"))
	require.NoError(t, err)

	outDir := t.TempDir()
	exported, err := client.Export(ctx, ExportRequest{Latest: true, OutDir: outDir})
	require.NoError(t, err)
	assert.Equal(t, "exp", exported.RunID)
	for _, file := range []string{"config.json", "diagnostics.csv", "population.csv", "summary.json"} {
		_, err := os.Stat(filepath.Join(exported.Directory, file))
		require.NoError(t, err, file)
	}

	diagnostics, ok, err := stats.ReadDiagnostics(outDir, "exp")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, diagnostics, 7)

	index, err := stats.ListRunIndex(outDir)
	require.NoError(t, err)
	require.Len(t, index, 1)
	assert.Equal(t, "onemax", index[0].Problem)
}

func TestExportRequiresStoredFinalGeneration(t *testing.T) {
	ctx := context.Background()
	client := newMemoryClient(t)
	require.NoError(t, client.Init(ctx))
	require.NoError(t, client.store.SaveRun(ctx, model.RunRecord{
		ID:           "unseeded",
		CreatedAtUTC: "2026-01-01T00:00:00Z",
		Problem:      "onemax",
		State:        "failed",
	}))

	_, err := client.Export(ctx, ExportRequest{RunID: "unseeded", OutDir: t.TempDir()})
	require.ErrorContains(t, err, "generation 0 not found")
}

func TestResetClearsRuns(t *testing.T) {
	ctx := context.Background()
	client := newMemoryClient(t)
	_, err := client.Run(ctx, smallRun("r"))
	require.NoError(t, err)
	require.NoError(t, client.Reset(ctx))

	runs, err := client.Runs(ctx, RunsRequest{})
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestSQLiteClientSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "genevo.db")

	client, err := New(Options{StoreKind: "sqlite", DBPath: dbPath})
	require.NoError(t, err)
	summary, err := client.Run(ctx, smallRun("persisted"))
	require.NoError(t, err)
	require.NoError(t, client.Close())

	reopened, err := New(Options{StoreKind: "sqlite", DBPath: dbPath})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = reopened.Close()
	})
	top, err := reopened.Top(ctx, TopRequest{Latest: true, Limit: 1})
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, summary.FinalBestFitness, top[0].Fitness)
}

func TestRunReportsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	client, err := New(Options{Registerer: reg})
	require.NoError(t, err)

	summary, err := client.Run(context.Background(), smallRun("m"))
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(reg, "genevo_generations_total", "genevo_best_fitness")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	families, err := reg.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, family := range families {
		metric := family.GetMetric()[0]
		switch {
		case metric.GetGauge() != nil:
			values[family.GetName()] = metric.GetGauge().GetValue()
		case metric.GetCounter() != nil:
			values[family.GetName()] = metric.GetCounter().GetValue()
		}
	}
	assert.Equal(t, summary.FinalBestFitness, values["genevo_best_fitness"])
	assert.Equal(t, 7.0, values["genevo_generations_total"])
	assert.Equal(t, float64(summary.Evaluations), values["genevo_evaluations_total"])
}
