package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"genevo/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// CurrentVersion is stamped on every record the stores write.
func CurrentVersion() model.VersionedRecord {
	return model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
}

func EncodeRun(run model.RunRecord) ([]byte, error) {
	return json.Marshal(run)
}

func DecodeRun(data []byte) (model.RunRecord, error) {
	var run model.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunRecord{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return model.RunRecord{}, err
	}
	return run, nil
}

func EncodeGeneration(record model.GenerationRecord) ([]byte, error) {
	return json.Marshal(record)
}

func DecodeGeneration(data []byte) (model.GenerationRecord, error) {
	var record model.GenerationRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return model.GenerationRecord{}, err
	}
	if err := checkVersion(record.VersionedRecord); err != nil {
		return model.GenerationRecord{}, err
	}
	return record, nil
}

// EncodePopulation snapshots a population for run and generation, genomes
// encoded as JSON.
func EncodePopulation[G any](runID string, pop model.Population[G], diag model.GenerationDiagnostics) (model.GenerationRecord, error) {
	record := model.GenerationRecord{
		VersionedRecord: CurrentVersion(),
		RunID:           runID,
		Generation:      pop.Generation(),
		Diagnostics:     diag,
		Individuals:     make([]model.IndividualRecord, pop.Size()),
	}
	for i := 0; i < pop.Size(); i++ {
		individual := pop.At(i)
		genome, err := json.Marshal(individual.Genome())
		if err != nil {
			return model.GenerationRecord{}, fmt.Errorf("encode individual %d: %w", i, err)
		}
		record.Individuals[i] = model.IndividualRecord{Genome: genome, Fitness: individual.Fitness()}
	}
	return record, nil
}

// DecodePopulation restores the population a GenerationRecord captured.
func DecodePopulation[G any](record model.GenerationRecord) (model.Population[G], error) {
	individuals := make([]model.Individual[G], len(record.Individuals))
	for i, item := range record.Individuals {
		var genome []G
		if err := json.Unmarshal(item.Genome, &genome); err != nil {
			return model.Population[G]{}, fmt.Errorf("decode individual %d: %w", i, err)
		}
		individuals[i] = model.NewIndividual(genome, item.Fitness)
	}
	return model.NewPopulation(individuals, record.Generation)
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
