package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"genevo/internal/model"
)

var errNotInitialized = errors.New("store is not initialized")

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]model.RunRecord
	generations map[string]map[int]model.GenerationRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}
	s.initialized = true
	s.runs = make(map[string]model.RunRecord)
	s.generations = make(map[string]map[int]model.GenerationRecord)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return model.RunRecord{}, false, errNotInitialized
	}
	run, ok := s.runs[id]
	return run, ok, nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, errNotInitialized
	}
	out := make([]model.RunRecord, 0, len(s.runs))
	for _, run := range s.runs {
		out = append(out, run)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAtUTC != out[j].CreatedAtUTC {
			return out[i].CreatedAtUTC > out[j].CreatedAtUTC
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) SaveGeneration(_ context.Context, record model.GenerationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	byGeneration, ok := s.generations[record.RunID]
	if !ok {
		byGeneration = make(map[int]model.GenerationRecord)
		s.generations[record.RunID] = byGeneration
	}
	record.Individuals = append([]model.IndividualRecord(nil), record.Individuals...)
	byGeneration[record.Generation] = record
	return nil
}

func (s *MemoryStore) GetGeneration(_ context.Context, runID string, generation int) (model.GenerationRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return model.GenerationRecord{}, false, errNotInitialized
	}
	record, ok := s.generations[runID][generation]
	if !ok {
		return model.GenerationRecord{}, false, nil
	}
	record.Individuals = append([]model.IndividualRecord(nil), record.Individuals...)
	return record, true, nil
}

func (s *MemoryStore) ListDiagnostics(_ context.Context, runID string) ([]model.GenerationDiagnostics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, errNotInitialized
	}
	byGeneration := s.generations[runID]
	out := make([]model.GenerationDiagnostics, 0, len(byGeneration))
	for _, record := range byGeneration {
		out = append(out, record.Diagnostics)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Generation < out[j].Generation
	})
	return out, nil
}

func (s *MemoryStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]model.RunRecord)
	s.generations = make(map[string]map[int]model.GenerationRecord)
	return nil
}
