package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genevo/internal/model"
)

func testRun(id, createdAt string) model.RunRecord {
	return model.RunRecord{
		VersionedRecord: CurrentVersion(),
		ID:              id,
		CreatedAtUTC:    createdAt,
		Problem:         "onemax",
		GenomeLength:    4,
		PopulationSize:  2,
		Generations:     3,
		Seed:            7,
		Strategies: model.StrategyConfig{
			Selection:   "tournament",
			Crossover:   "one_point",
			Mutation:    "single_gene",
			Replacement: "generational",
		},
		State: "done",
	}
}

func testGeneration(t *testing.T, runID string, generation int) model.GenerationRecord {
	t.Helper()
	pop, err := model.NewPopulation([]model.Individual[int]{
		model.NewIndividual([]int{1, 0, 1, 1}, 3),
		model.NewIndividual([]int{0, 0, 1, 0}, 1),
	}, generation)
	require.NoError(t, err)
	record, err := EncodePopulation(runID, pop, model.GenerationDiagnostics{
		Generation:  generation,
		BestFitness: 3,
		MeanFitness: 2,
		MinFitness:  1,
		StdDev:      1,
		Evaluations: int64(2 + 2*generation),
	})
	require.NoError(t, err)
	return record
}

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.Init(ctx))

	older := testRun("run-a", "2026-01-01T00:00:00Z")
	newer := testRun("run-b", "2026-02-01T00:00:00Z")
	require.NoError(t, store.SaveRun(ctx, older))
	require.NoError(t, store.SaveRun(ctx, newer))

	loaded, ok, err := store.GetRun(ctx, older.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, older, loaded)

	_, ok, err = store.GetRun(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	runs, err := store.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-b", runs[0].ID)
	assert.Equal(t, "run-a", runs[1].ID)

	older.State = "evolving"
	require.NoError(t, store.SaveRun(ctx, older))
	loaded, _, err = store.GetRun(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, "evolving", loaded.State)

	for _, generation := range []int{2, 0, 1} {
		require.NoError(t, store.SaveGeneration(ctx, testGeneration(t, older.ID, generation)))
	}
	diagnostics, err := store.ListDiagnostics(ctx, older.ID)
	require.NoError(t, err)
	require.Len(t, diagnostics, 3)
	for i, diag := range diagnostics {
		assert.Equal(t, i, diag.Generation)
	}

	record, ok, err := store.GetGeneration(ctx, older.ID, 1)
	require.NoError(t, err)
	require.True(t, ok)
	pop, err := DecodePopulation[int](record)
	require.NoError(t, err)
	assert.Equal(t, 1, pop.Generation())
	assert.Equal(t, []int{1, 0, 1, 1}, pop.At(0).Genome())
	assert.Equal(t, []float64{3, 1}, pop.Fitness())

	_, ok, err = store.GetGeneration(ctx, older.ID, 9)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Reset(ctx))
	runs, err = store.ListRuns(ctx)
	require.NoError(t, err)
	assert.Empty(t, runs)
	diagnostics, err = store.ListDiagnostics(ctx, older.ID)
	require.NoError(t, err)
	assert.Empty(t, diagnostics)
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "genevo.db"))
	t.Cleanup(func() {
		_ = store.Close()
	})
	exerciseStore(t, store)
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "genevo.db")

	first := NewSQLiteStore(path)
	require.NoError(t, first.Init(ctx))
	require.NoError(t, first.SaveRun(ctx, testRun("run-a", "2026-01-01T00:00:00Z")))
	require.NoError(t, first.SaveGeneration(ctx, testGeneration(t, "run-a", 0)))
	require.NoError(t, first.Close())

	second := NewSQLiteStore(path)
	require.NoError(t, second.Init(ctx))
	t.Cleanup(func() {
		_ = second.Close()
	})
	_, ok, err := second.GetRun(ctx, "run-a")
	require.NoError(t, err)
	assert.True(t, ok)
	diagnostics, err := second.ListDiagnostics(ctx, "run-a")
	require.NoError(t, err)
	assert.Len(t, diagnostics, 1)
}

func TestStoresRequireInit(t *testing.T) {
	ctx := context.Background()
	for name, store := range map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": NewSQLiteStore(filepath.Join(t.TempDir(), "x.db")),
	} {
		err := store.SaveRun(ctx, testRun("r", "2026-01-01T00:00:00Z"))
		require.ErrorIs(t, err, errNotInitialized, name)
	}
}

func TestSQLiteStoreRequiresPath(t *testing.T) {
	require.Error(t, NewSQLiteStore("").Init(context.Background()))
}

func TestNewStore(t *testing.T) {
	store, err := NewStore(DefaultStoreKind(), "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)
	assert.NoError(t, CloseStore(store))

	store, err = NewStore("sqlite", filepath.Join(t.TempDir(), "genevo.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, store)
	assert.NoError(t, CloseStore(store))

	store, err = NewStore(" SQLite ", filepath.Join(t.TempDir(), "genevo.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, store)

	_, err = NewStore("postgres", "")
	require.ErrorIs(t, err, model.ErrConfiguration)
	assert.Contains(t, err.Error(), "memory, sqlite")

	_, err = NewStore("sqlite", " ")
	require.ErrorIs(t, err, model.ErrConfiguration)
}
