// labstat reads one JSON analysis request from stdin, runs the engine, and
// writes the JSON result to stdout. The analysis kind is selected with
// -mode; seeds and thresholds come from the environment (see internal/config)
// with -seed as an override for reproducing a previous run.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"

	"labstats/adapters/rng"
	"labstats/app"
	"labstats/internal"
	"labstats/internal/config"
)

func main() {
	mode := flag.String("mode", "compare", "analysis mode: compare, dose-response, survival, correlation, factorial, batch")
	seed := flag.Int64("seed", 0, "override ENGINE_SEED (0 keeps the configured seed)")
	pretty := flag.Bool("pretty", false, "indent the JSON output")
	flag.Parse()

	// .env is optional; absence is not an error
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(2)
	}
	if *seed != 0 {
		cfg.Engine.Seed = *seed
	}

	logger := internal.NewLogger(internal.ParseLogLevel(cfg.Logging.Level), os.Stderr)
	source := rng.NewDeterministic(cfg.Engine.Seed)
	service := app.NewAnalysisService(cfg.Engine, source, logger)

	input, err := io.ReadAll(os.Stdin)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error reading stdin:", err)
		os.Exit(1)
	}

	ctx := context.Background()
	var out any

	switch *mode {
	case "compare":
		var req app.AnalysisRequest
		out, err = decodeThen(input, &req, func() (any, error) { return service.Analyze(ctx, req) })
	case "dose-response":
		var req app.DoseResponseRequest
		out, err = decodeThen(input, &req, func() (any, error) { return service.FitDoseResponse(ctx, req) })
	case "survival":
		var req app.SurvivalRequest
		out, err = decodeThen(input, &req, func() (any, error) { return service.AnalyzeSurvival(ctx, req) })
	case "correlation":
		var req app.CorrelationRequest
		out, err = decodeThen(input, &req, func() (any, error) { return service.AnalyzeCorrelation(ctx, req) })
	case "factorial":
		var req app.FactorialRequest
		out, err = decodeThen(input, &req, func() (any, error) { return service.AnalyzeFactorial(ctx, req) })
	case "batch":
		var datasets []app.NamedDataset
		batch := app.NewBatchService(cfg.Engine, source, logger)
		out, err = decodeThen(input, &datasets, func() (any, error) {
			entries, batchErr := batch.AnalyzeAll(ctx, datasets)
			if batchErr != nil {
				return nil, batchErr
			}
			return batchReport(entries), nil
		})
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q\n", *mode)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "analysis failed:", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(out); err != nil {
		fmt.Fprintln(os.Stderr, "error writing result:", err)
		os.Exit(1)
	}
}

func decodeThen(input []byte, req any, run func() (any, error)) (any, error) {
	if err := json.Unmarshal(input, req); err != nil {
		return nil, fmt.Errorf("invalid request JSON: %w", err)
	}
	return run()
}

// batchEntryReport mirrors app.BatchEntry with the error flattened to a
// string so it survives JSON encoding
type batchEntryReport struct {
	Name   string              `json:"name"`
	Result *app.AnalysisResult `json:"result,omitempty"`
	Error  string              `json:"error,omitempty"`
}

func batchReport(entries []app.BatchEntry) []batchEntryReport {
	report := make([]batchEntryReport, len(entries))
	for i, e := range entries {
		report[i] = batchEntryReport{Name: e.Name, Result: e.Result}
		if e.Err != nil {
			report[i].Error = e.Err.Error()
		}
	}
	return report
}
