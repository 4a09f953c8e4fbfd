package engine

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"dealflow/internal/history"
	"dealflow/internal/schema"
)

type GeneratorConfig struct {
	Scenario string // "mild" or "chaos"
	Count    int
	Now      time.Time
	Seed     int64
	Fields   history.Fields

	// OnDeal is called once per generated deal.
	OnDeal func()
}

// Export is a generated HubSpot-shaped deal export.
type Export struct {
	Headers []string
	Records [][]string
}

var owners = []string{"Jane Doe", "Raj Patel", "Mia Chen", "Tom Berg", "Ana Ruiz"}

const cellLayout = "2006-01-02 15:04"

// Generate builds Count deals spread over both pipelines. Arrivals are spread
// over the year before Now; stage residencies are Weibull distributed and any
// transition after Now is left blank, so recent deals are still open.
func Generate(cfg GeneratorConfig) Export {
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}
	if cfg.Fields == (history.Fields{}) {
		cfg.Fields = history.DefaultFields()
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	exp := Export{Headers: []string{cfg.Fields.Name, cfg.Fields.Owner, cfg.Fields.Amount, cfg.Fields.Metric}}
	for _, s := range schema.All() {
		for _, st := range s.Stages {
			exp.Headers = append(exp.Headers, s.ExportHeader(st))
		}
	}
	index := make(map[string]int, len(exp.Headers))
	for i, h := range exp.Headers {
		index[h] = i
	}

	start := cfg.Now.AddDate(-1, 0, 0)
	for i := 0; i < cfg.Count; i++ {
		s := schema.All()[0]
		if rng.Float64() < 0.3 {
			s = schema.All()[1]
		}

		rec := make([]string, len(exp.Headers))
		rec[0] = fmt.Sprintf("%s Deal %d", s.Code, i+1)
		rec[1] = owners[rng.Intn(len(owners))]
		rec[2] = strconv.FormatFloat(math.Round(1000+rng.Float64()*49000), 'f', 0, 64)
		rec[3] = strconv.Itoa(rng.Intn(5000))

		arrival := start.Add(time.Duration(rng.Int63n(int64(cfg.Now.Sub(start)))))
		for _, st := range journey(rng, s, arrival, cfg.Scenario) {
			if st.at.After(cfg.Now) {
				continue
			}
			rec[index[s.ExportHeader(st.stage)]] = formatCell(rng, st.at, cfg.Scenario)
		}

		exp.Records = append(exp.Records, rec)
		if cfg.Scenario == "chaos" && rng.Float64() < 0.05 {
			// HubSpot duplicates a deal when it is associated twice.
			exp.Records = append(exp.Records, append([]string(nil), rec...))
		}
		if cfg.OnDeal != nil {
			cfg.OnDeal()
		}
	}
	return exp
}

type step struct {
	stage schema.Stage
	at    time.Time
}

// journey walks a deal through the active stages until it stalls, is lost
// or reaches the success stage.
func journey(rng *rand.Rand, s *schema.Schema, arrival time.Time, scenario string) []step {
	k, lambda := 2.0, 20.0 // ~18 day residency
	if scenario == "chaos" {
		k, lambda = 0.8, 30.0
	}

	var steps []step
	at := arrival
	active := s.ActiveStages()
	for i, st := range active {
		steps = append(steps, step{st, at})
		if st.Name == s.Success {
			return steps
		}

		at = at.Add(time.Duration(weibullSample(rng, k, lambda) * 24 * float64(time.Hour)))
		switch r := rng.Float64(); {
		case r < 0.10:
			return append(steps, step{lostStage(s), at})
		case r < 0.18:
			return steps
		case scenario == "chaos" && r < 0.22 && i > 0:
			// Re-entered an earlier stage: its timestamp is now older than the last one.
			steps = append(steps, step{active[i-1], at})
		}
	}
	return steps
}

func lostStage(s *schema.Schema) schema.Stage {
	for _, st := range s.Stages {
		if s.IsInactive(st.Name) {
			return st
		}
	}
	return s.Stages[len(s.Stages)-1]
}

func formatCell(rng *rand.Rand, at time.Time, scenario string) string {
	if scenario == "chaos" {
		switch r := rng.Float64(); {
		case r < 0.05:
			return "n/a"
		case r < 0.15:
			return at.Format("1/2/2006")
		}
	}
	return at.UTC().Format(cellLayout)
}

func weibullSample(rng *rand.Rand, k, lambda float64) float64 {
	u := rng.Float64()
	if u == 0 {
		u = 0.0001
	}
	// X = lambda * (-ln(1-u))^(1/k)
	return lambda * math.Pow(-math.Log(1.0-u), 1.0/k)
}

// Write encodes the export as CSV.
func Write(w io.Writer, exp Export) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exp.Headers); err != nil {
		return err
	}
	if err := cw.WriteAll(exp.Records); err != nil {
		return err
	}
	return cw.Error()
}

// Save writes the export to path, creating parent directories.
func Save(path string, exp Export) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, exp); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
