package storage

import (
	"context"

	"genevo/internal/model"
)

// Store defines persistence operations for runs and their generations.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	// ListRuns returns runs newest first.
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	SaveGeneration(ctx context.Context, record model.GenerationRecord) error
	GetGeneration(ctx context.Context, runID string, generation int) (model.GenerationRecord, bool, error)
	// ListDiagnostics returns one entry per stored generation, oldest first.
	ListDiagnostics(ctx context.Context, runID string) ([]model.GenerationDiagnostics, error)
	Reset(ctx context.Context) error
}
