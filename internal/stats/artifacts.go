package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"genevo/internal/model"
)

const (
	runIndexFile       = "run_index.json"
	configFile         = "config.json"
	diagnosticsFile    = "diagnostics.csv"
	populationFile     = "population.csv"
	summaryFile        = "summary.json"
	diagnosticsColumns = 6
)

type RunArtifacts struct {
	Run         model.RunRecord
	Diagnostics []model.GenerationDiagnostics
	// Final is the last stored generation; it may be empty when the run
	// persisted no population.
	Final model.GenerationRecord
}

type RunIndexEntry struct {
	RunID            string  `json:"run_id"`
	Problem          string  `json:"problem"`
	PopulationSize   int     `json:"population_size"`
	Generations      int     `json:"generations"`
	Seed             int64   `json:"seed"`
	Replacement      string  `json:"replacement"`
	FinalBestFitness float64 `json:"final_best_fitness"`
	CreatedAtUTC     string  `json:"created_at_utc"`
}

// WriteRunArtifacts writes one directory per run under baseDir and returns
// its path.
func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	runID := strings.TrimSpace(artifacts.Run.ID)
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, configFile), artifacts.Run); err != nil {
		return "", err
	}
	if err := writeDiagnostics(filepath.Join(runDir, diagnosticsFile), artifacts.Diagnostics); err != nil {
		return "", err
	}
	if err := writePopulation(filepath.Join(runDir, populationFile), artifacts.Final.Individuals); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, summaryFile), Summarize(artifacts.Diagnostics)); err != nil {
		return "", err
	}
	return runDir, nil
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// ListRunIndex returns indexed runs newest first.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, runIndexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}

	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAtUTC > entries[j].CreatedAtUTC
	})
	return entries, nil
}

func ReadRunConfig(baseDir, runID string) (model.RunRecord, bool, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, runID, configFile))
	if err != nil {
		if os.IsNotExist(err) {
			return model.RunRecord{}, false, nil
		}
		return model.RunRecord{}, false, err
	}

	var run model.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunRecord{}, false, err
	}
	return run, true, nil
}

func ReadDiagnostics(baseDir, runID string) ([]model.GenerationDiagnostics, bool, error) {
	file, err := os.Open(filepath.Join(baseDir, runID, diagnosticsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return []model.GenerationDiagnostics{}, true, nil
		}
		return nil, false, err
	}

	out := make([]model.GenerationDiagnostics, 0, 64)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false, err
		}
		diag, err := parseDiagnostics(record)
		if err != nil {
			return nil, false, err
		}
		out = append(out, diag)
	}
	return out, true, nil
}

func writeDiagnostics(path string, diagnostics []model.GenerationDiagnostics) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"generation", "best_fitness", "mean_fitness", "min_fitness", "std_dev", "evaluations"}); err != nil {
		return err
	}
	for _, diag := range diagnostics {
		if err := writer.Write([]string{
			strconv.Itoa(diag.Generation),
			formatFloat(diag.BestFitness),
			formatFloat(diag.MeanFitness),
			formatFloat(diag.MinFitness),
			formatFloat(diag.StdDev),
			strconv.FormatInt(diag.Evaluations, 10),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func parseDiagnostics(record []string) (model.GenerationDiagnostics, error) {
	if len(record) < diagnosticsColumns {
		return model.GenerationDiagnostics{}, fmt.Errorf("diagnostics row must have %d columns, got %d", diagnosticsColumns, len(record))
	}
	var (
		diag model.GenerationDiagnostics
		err  error
	)
	if diag.Generation, err = strconv.Atoi(record[0]); err != nil {
		return model.GenerationDiagnostics{}, err
	}
	floats := []*float64{&diag.BestFitness, &diag.MeanFitness, &diag.MinFitness, &diag.StdDev}
	for i, dst := range floats {
		if *dst, err = strconv.ParseFloat(record[i+1], 64); err != nil {
			return model.GenerationDiagnostics{}, err
		}
	}
	if diag.Evaluations, err = strconv.ParseInt(record[5], 10, 64); err != nil {
		return model.GenerationDiagnostics{}, err
	}
	return diag, nil
}

// writePopulation ranks individuals by fitness, best first, keeping stored
// order among ties.
func writePopulation(path string, individuals []model.IndividualRecord) error {
	ranked := append([]model.IndividualRecord(nil), individuals...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Fitness > ranked[j].Fitness
	})

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"rank", "fitness", "genome"}); err != nil {
		return err
	}
	for i, individual := range ranked {
		if err := writer.Write([]string{
			strconv.Itoa(i + 1),
			formatFloat(individual.Fitness),
			string(individual.Genome),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}
