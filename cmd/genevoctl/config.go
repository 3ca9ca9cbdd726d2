package main

import (
	"encoding/json"
	"fmt"
	"os"

	"genevo/pkg/genevo"
)

// loadRunRequestFromConfig reads a run config JSON file. Exported
// config.json files are accepted too, so a stored run can be repeated.
func loadRunRequestFromConfig(path string) (genevo.RunRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return genevo.RunRequest{}, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return genevo.RunRequest{}, err
	}

	var req genevo.RunRequest
	if v, ok := asString(raw["run_id"]); ok {
		req.RunID = v
	}
	if v, ok := asString(raw["problem"]); ok {
		req.Problem = v
	}
	if v, ok := asInt(raw["genome_length"]); ok {
		req.GenomeLength = v
	}
	if v, ok := asString(raw["target"]); ok {
		req.Target = v
	}
	if v, ok := asInt(raw["population"]); ok {
		req.Population = v
	} else if v, ok := asInt(raw["population_size"]); ok {
		req.Population = v
	}
	if v, ok := asInt(raw["generations"]); ok {
		req.Generations = v
	}
	if v, ok := asInt64(raw["seed"]); ok {
		req.Seed = v
	}
	if v, ok := asInt(raw["workers"]); ok {
		req.Workers = v
	}
	if v, ok := asFloat64(raw["fitness_goal"]); ok {
		req.FitnessGoal = v
	}

	strategies := raw
	if nested, ok := raw["strategies"].(map[string]any); ok {
		strategies = nested
	}
	if v, ok := asString(strategies["selection"]); ok {
		req.Selection = v
	}
	if v, ok := asInt(strategies["tournament_size"]); ok {
		req.TournamentSize = &v
	}
	if v, ok := asFloat64(strategies["tournament_win_probability"]); ok {
		req.TournamentWinProbability = &v
	}
	if v, ok := asFloat64(strategies["boltzmann_temperature"]); ok {
		req.BoltzmannTemperature = &v
	}
	if v, ok := asString(strategies["crossover"]); ok {
		req.Crossover = v
	}
	if v, ok := asString(strategies["mutation"]); ok {
		req.Mutation = v
	}
	if v, ok := asFloat64(strategies["mutation_probability"]); ok {
		req.MutationProbability = v
	}
	if v, ok := asString(strategies["replacement"]); ok {
		req.Replacement = v
	}
	return req, nil
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case float64:
		return int(x), true
	default:
		return 0, false
	}
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case float64:
		return int64(x), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}

func overrideFromFlags(req *genevo.RunRequest, set map[string]bool, flagValue map[string]any) error {
	for name := range set {
		v, ok := flagValue[name]
		if !ok {
			continue
		}
		switch name {
		case "run-id":
			req.RunID = v.(string)
		case "problem":
			req.Problem = v.(string)
		case "length":
			req.GenomeLength = v.(int)
		case "target":
			req.Target = v.(string)
		case "pop":
			req.Population = v.(int)
		case "gens":
			req.Generations = v.(int)
		case "seed":
			req.Seed = v.(int64)
		case "workers":
			req.Workers = v.(int)
		case "selection":
			req.Selection = v.(string)
		case "tournament-size":
			size := v.(int)
			req.TournamentSize = &size
		case "tournament-p":
			p := v.(float64)
			req.TournamentWinProbability = &p
		case "temperature":
			temperature := v.(float64)
			req.BoltzmannTemperature = &temperature
		case "crossover":
			req.Crossover = v.(string)
		case "mutation":
			req.Mutation = v.(string)
		case "mutation-p":
			req.MutationProbability = v.(float64)
		case "replacement":
			req.Replacement = v.(string)
		case "fitness-goal":
			req.FitnessGoal = v.(float64)
		default:
			return fmt.Errorf("flag %s cannot override a run config", name)
		}
	}
	return nil
}

func loadOrDefaultRunRequest(configPath string) (genevo.RunRequest, error) {
	if configPath == "" {
		return genevo.RunRequest{}, nil
	}
	req, err := loadRunRequestFromConfig(configPath)
	if err != nil {
		return genevo.RunRequest{}, fmt.Errorf("load config: %w", err)
	}
	return req, nil
}
