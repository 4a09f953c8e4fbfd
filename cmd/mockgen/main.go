package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"dealflow/cmd/mockgen/engine"

	"github.com/schollz/progressbar/v3"
)

func main() {
	scenario := flag.String("scenario", "mild", "Scenario to generate: mild, chaos")
	out := flag.String("out", "./.cache/mock-deals.csv", "Output CSV file")
	count := flag.Int("count", 200, "Number of deals to generate")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Random seed")
	flag.Parse()

	bar := progressbar.Default(int64(*count))
	cfg := engine.GeneratorConfig{
		Scenario: *scenario,
		Count:    *count,
		Now:      time.Now(),
		Seed:     *seed,
		OnDeal:   func() { _ = bar.Add(1) },
	}

	fmt.Fprintf(os.Stderr, "Generating scenario '%s' (Count: %d) to %s...\n", cfg.Scenario, cfg.Count, *out)

	exp := engine.Generate(cfg)
	if err := engine.Save(*out, exp); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to save mock export: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "Done. %d rows written.\n", len(exp.Records))
}
