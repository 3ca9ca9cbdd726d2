package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"genevo/internal/evo"
	"genevo/internal/problem"
	"genevo/internal/storage"
	"genevo/pkg/genevo"
)

const (
	defaultDBPath = "genevo.db"
	exportsDir    = "exports"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "reset":
		return runReset(ctx, args[1:])
	case "run":
		return runRun(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "diagnostics":
		return runDiagnostics(ctx, args[1:])
	case "population":
		return runPopulation(ctx, args[1:])
	case "top":
		return runTop(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	case "strategies":
		return runStrategies(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

// storeFlags registers the backend flags every store-backed command shares.
func storeFlags(fs *flag.FlagSet) (storeKind, dbPath *string) {
	storeKind = fs.String("store", storage.DefaultStoreKind(), "store backend: "+strings.Join(storage.Kinds(), "|"))
	dbPath = fs.String("db-path", defaultDBPath, "sqlite database path")
	return storeKind, dbPath
}

func openClient(storeKind, dbPath string, opts genevo.Options) (*genevo.Client, error) {
	opts.StoreKind = storeKind
	opts.DBPath = dbPath
	opts.ExportsDir = exportsDir
	return genevo.New(opts)
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := openClient(*storeKind, *dbPath, genevo.Options{})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	fmt.Printf("initialized store=%s\n", *storeKind)
	return nil
}

func runReset(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := openClient(*storeKind, *dbPath, genevo.Options{})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Reset(ctx); err != nil {
		return err
	}

	fmt.Printf("reset store=%s\n", *storeKind)
	return nil
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional run config JSON path")
	runID := fs.String("run-id", "", "explicit run id (optional)")
	problemName := fs.String("problem", "onemax", "problem: "+strings.Join(problem.Names(), "|"))
	genomeLength := fs.Int("length", 32, "genome length (onemax)")
	target := fs.String("target", "", "target phrase (target problem)")
	population := fs.Int("pop", 50, "population size")
	generations := fs.Int("gens", 100, "generation count")
	seed := fs.Int64("seed", 1, "rng seed")
	workers := fs.Int("workers", 4, "breeding worker count")
	selectionName := fs.String("selection", "tournament", "parent selection: "+strings.Join(evo.ListSelectors(), "|"))
	tournamentSize := fs.Int("tournament-size", evo.DefaultTournamentSize, "tournament group size")
	tournamentP := fs.Float64("tournament-p", evo.DefaultTournamentWinProbability, "probability the fitter contestant wins (tournament_prob)")
	temperature := fs.Float64("temperature", evo.DefaultBoltzmannTemperature, "boltzmann selection temperature")
	crossoverName := fs.String("crossover", "one_point", "crossover: "+strings.Join(evo.ListCrossovers(), "|"))
	mutationName := fs.String("mutation", "single_gene", "mutation: single_gene")
	mutationP := fs.Float64("mutation-p", 0.05, "per-individual mutation probability")
	replacementName := fs.String("replacement", "generational", "replacement: "+strings.Join(evo.ListReplacements(), "|"))
	fitnessGoal := fs.Float64("fitness-goal", 0.0, "early-stop best fitness goal (0 disables)")
	storeKind, dbPath := storeFlags(fs)
	metricsAddr := fs.String("metrics-addr", "", "serve prometheus metrics on this address while running (empty disables)")
	logLevel := fs.String("log-level", "info", "log level: debug|info|warn|error")
	quiet := fs.Bool("quiet", false, "print only the run summary")
	if err := fs.Parse(args); err != nil {
		return err
	}
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})
	explicitLength := setFlags["length"]

	req, err := loadOrDefaultRunRequest(*configPath)
	if err != nil {
		return err
	}
	flagValues := map[string]any{
		"run-id":          *runID,
		"problem":         *problemName,
		"length":          *genomeLength,
		"target":          *target,
		"pop":             *population,
		"gens":            *generations,
		"seed":            *seed,
		"workers":         *workers,
		"selection":       *selectionName,
		"tournament-size": *tournamentSize,
		"tournament-p":    *tournamentP,
		"temperature":     *temperature,
		"crossover":       *crossoverName,
		"mutation":        *mutationName,
		"mutation-p":      *mutationP,
		"replacement":     *replacementName,
		"fitness-goal":    *fitnessGoal,
	}
	if *configPath == "" {
		// Without a config every flag applies, defaults included.
		for name := range flagValues {
			setFlags[name] = true
		}
	}
	if err := overrideFromFlags(&req, setFlags, flagValues); err != nil {
		return err
	}
	if req.Target != "" && !explicitLength {
		// The phrase fixes the genome length.
		req.GenomeLength = 0
	}

	logger, err := newLogger(os.Stderr, *logLevel)
	if err != nil {
		return err
	}
	opts := genevo.Options{Logger: logger}
	if *metricsAddr != "" {
		server, err := startMetricsServer(*metricsAddr, logger)
		if err != nil {
			return err
		}
		defer server.Close()
		opts.Registerer = server.Registry()
	}

	client, err := openClient(*storeKind, *dbPath, opts)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Run(ctx, req)
	if err != nil {
		return err
	}
	fmt.Printf("run completed run_id=%s problem=%s pop=%d gens=%d seed=%d\n", summary.RunID, req.Problem, req.Population, req.Generations, req.Seed)
	if !*quiet {
		for i, best := range summary.BestByGeneration {
			fmt.Printf("generation=%d best_fitness=%s\n", i, humanize.Ftoa(best))
		}
	}
	fmt.Printf("final_generation=%d final_best_fitness=%s evaluations=%s stopped_early=%t solved=%t\n",
		summary.Generation,
		humanize.Ftoa(summary.FinalBestFitness),
		humanize.Comma(summary.Evaluations),
		summary.StoppedEarly,
		summary.Solved,
	)
	if summary.BestText != "" {
		fmt.Printf("best_text=%q\n", summary.BestText)
	}
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to list (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit runs as JSON")
	storeKind, dbPath := storeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit < 0 {
		*limit = 0
	}

	client, err := openClient(*storeKind, *dbPath, genevo.Options{})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	runs, err := client.Runs(ctx, genevo.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs")
		return nil
	}
	if *jsonOut {
		return writeJSON(runs)
	}

	for _, r := range runs {
		created := r.CreatedAtUTC
		if t, err := time.Parse(time.RFC3339Nano, r.CreatedAtUTC); err == nil {
			created = humanize.Time(t)
		}
		fmt.Printf("run_id=%s created=%q problem=%s pop=%d gens=%d seed=%d replacement=%s state=%s last_generation=%d final_best_fitness=%s evaluations=%s\n",
			r.ID,
			created,
			r.Problem,
			r.PopulationSize,
			r.Generations,
			r.Seed,
			r.Strategies.Replacement,
			r.State,
			r.LastGeneration,
			humanize.Ftoa(r.FinalBestFitness),
			humanize.Comma(r.Evaluations),
		)
	}
	return nil
}

func runDiagnostics(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("diagnostics", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show diagnostics for the most recent run")
	limit := fs.Int("limit", 50, "max generations to print (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit diagnostics as JSON")
	storeKind, dbPath := storeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := checkRunSelector("diagnostics", *runID, *latest); err != nil {
		return err
	}
	if *limit < 0 {
		*limit = 0
	}

	client, err := openClient(*storeKind, *dbPath, genevo.Options{})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	diagnostics, err := client.Diagnostics(ctx, genevo.DiagnosticsRequest{
		RunID:  *runID,
		Latest: *latest,
		Limit:  *limit,
	})
	if err != nil {
		return err
	}
	if len(diagnostics) == 0 {
		fmt.Println("no diagnostics")
		return nil
	}
	if *jsonOut {
		return writeJSON(diagnostics)
	}

	for _, d := range diagnostics {
		fmt.Printf("generation=%d best=%.6f mean=%.6f min=%.6f std=%.6f evaluations=%d\n",
			d.Generation,
			d.BestFitness,
			d.MeanFitness,
			d.MinFitness,
			d.StdDev,
			d.Evaluations,
		)
	}
	return nil
}

func runPopulation(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("population", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show the most recent run")
	generation := fs.Int("generation", -1, "stored generation to show (<0 for the last)")
	jsonOut := fs.Bool("json", false, "emit the population as JSON")
	storeKind, dbPath := storeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := checkRunSelector("population", *runID, *latest); err != nil {
		return err
	}

	client, err := openClient(*storeKind, *dbPath, genevo.Options{})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	snapshot, err := client.Population(ctx, genevo.PopulationRequest{
		RunID:      *runID,
		Latest:     *latest,
		Generation: *generation,
	})
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(snapshot)
	}

	fmt.Printf("run_id=%s generation=%d size=%d\n", snapshot.RunID, snapshot.Generation, len(snapshot.Individuals))
	for i, item := range snapshot.Individuals {
		fmt.Printf("index=%d fitness=%s genome=%s\n", i, humanize.Ftoa(item.Fitness), formatGenome(item.Genome))
	}
	return nil
}

func runTop(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("top", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show top individuals for the most recent run")
	limit := fs.Int("limit", 5, "max individuals to print (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit top individuals as JSON")
	storeKind, dbPath := storeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := checkRunSelector("top", *runID, *latest); err != nil {
		return err
	}
	if *limit < 0 {
		*limit = 0
	}

	client, err := openClient(*storeKind, *dbPath, genevo.Options{})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	top, err := client.Top(ctx, genevo.TopRequest{
		RunID:  *runID,
		Latest: *latest,
		Limit:  *limit,
	})
	if err != nil {
		return err
	}
	if len(top) == 0 {
		fmt.Println("no individuals")
		return nil
	}
	if *jsonOut {
		return writeJSON(top)
	}

	for _, item := range top {
		fmt.Printf("rank=%d fitness=%s genome=%s\n", item.Rank, humanize.Ftoa(item.Fitness), formatGenome(item.Genome))
	}
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "export the most recent run")
	outDir := fs.String("out", exportsDir, "export output directory")
	storeKind, dbPath := storeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := checkRunSelector("export", *runID, *latest); err != nil {
		return err
	}

	client, err := openClient(*storeKind, *dbPath, genevo.Options{})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	exported, err := client.Export(ctx, genevo.ExportRequest{
		RunID:  *runID,
		Latest: *latest,
		OutDir: *outDir,
	})
	if err != nil {
		return err
	}

	fmt.Printf("exported run_id=%s to=%s\n", exported.RunID, filepath.Clean(exported.Directory))
	return nil
}

func runStrategies(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("strategies", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	fmt.Printf("selection=%s\n", strings.Join(evo.ListSelectors(), ","))
	fmt.Printf("crossover=%s\n", strings.Join(evo.ListCrossovers(), ","))
	fmt.Println("mutation=single_gene")
	fmt.Printf("replacement=%s\n", strings.Join(evo.ListReplacements(), ","))
	fmt.Printf("problem=%s\n", strings.Join(problem.Names(), ","))
	return nil
}

func checkRunSelector(command, runID string, latest bool) error {
	if runID != "" && latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if runID == "" && !latest {
		return fmt.Errorf("%s requires --run-id or --latest", command)
	}
	return nil
}

func formatGenome(genome []int) string {
	data, err := json.Marshal(genome)
	if err != nil {
		return fmt.Sprint(genome)
	}
	return string(data)
}

func writeJSON(value any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: genevoctl <init|reset|run|runs|diagnostics|population|top|export|strategies> [flags]", msg)
}
