package model

import "encoding/json"

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// StrategyConfig names the strategies a run was configured with.
type StrategyConfig struct {
	Selection                string  `json:"selection"`
	Crossover                string  `json:"crossover"`
	Mutation                 string  `json:"mutation"`
	Replacement              string  `json:"replacement"`
	TournamentSize           int     `json:"tournament_size"`
	TournamentWinProbability float64 `json:"tournament_win_probability"`
	BoltzmannTemperature     float64 `json:"boltzmann_temperature"`
	MutationProbability      float64 `json:"mutation_probability"`
}

type RunRecord struct {
	VersionedRecord
	ID               string         `json:"id"`
	CreatedAtUTC     string         `json:"created_at_utc"`
	Problem          string         `json:"problem"`
	GenomeLength     int            `json:"genome_length"`
	Target           string         `json:"target,omitempty"`
	PopulationSize   int            `json:"population_size"`
	Generations      int            `json:"generations"`
	Seed             int64          `json:"seed"`
	Workers          int            `json:"workers"`
	FitnessGoal      float64        `json:"fitness_goal,omitempty"`
	Strategies       StrategyConfig `json:"strategies"`
	State            string         `json:"state"`
	LastGeneration   int            `json:"last_generation"`
	FinalBestFitness float64        `json:"final_best_fitness"`
	Evaluations      int64          `json:"evaluations"`
}

type GenerationDiagnostics struct {
	Generation  int     `json:"generation"`
	BestFitness float64 `json:"best_fitness"`
	MeanFitness float64 `json:"mean_fitness"`
	MinFitness  float64 `json:"min_fitness"`
	StdDev      float64 `json:"std_dev"`
	Evaluations int64   `json:"evaluations"`
}

// IndividualRecord stores a genome in its JSON encoding so records stay
// independent of the gene type.
type IndividualRecord struct {
	Genome  json.RawMessage `json:"genome"`
	Fitness float64         `json:"fitness"`
}

type GenerationRecord struct {
	VersionedRecord
	RunID       string                `json:"run_id"`
	Generation  int                   `json:"generation"`
	Diagnostics GenerationDiagnostics `json:"diagnostics"`
	Individuals []IndividualRecord    `json:"individuals"`
}
