package history

import (
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"dealflow/internal/dates"
	"dealflow/internal/schema"
	"dealflow/internal/source"

	"github.com/rs/zerolog/log"
)

// Fields names the non-stage columns of an export.
type Fields struct {
	Name   string
	Owner  string
	Amount string
	Metric string
}

// DefaultFields matches the HubSpot deal export.
func DefaultFields() Fields {
	return Fields{
		Name:   "Deal Name",
		Owner:  "Deal owner",
		Amount: "Amount in company currency",
		Metric: "Expected usage (txns p.m.)",
	}
}

// StageEvent records that a deal entered a stage at a point in time.
type StageEvent struct {
	Stage string    `json:"stage"`
	Order int       `json:"-"`
	At    time.Time `json:"at"`
}

// Deal is the reconstructed stage history of one (name, owner) pair.
type Deal struct {
	Key    string  `json:"key"`
	Name   string  `json:"name"`
	Owner  string  `json:"owner"`
	Amount float64 `json:"amount"`
	Metric float64 `json:"metric"`

	// Events are sorted by time; events sharing a timestamp are sorted by
	// schema order.
	Events []StageEvent `json:"events"`

	Entry      time.Time `json:"entry"`
	EntryMonth string    `json:"entryMonth"`
	// Success is the earliest event in the schema's success stage.
	Success time.Time `json:"success"`
}

// Key identifies a deal across rows.
func Key(name, owner string) string {
	return name + "|" + owner
}

// HasEvents reports whether any stage cell of the deal parsed.
func (d *Deal) HasEvents() bool {
	return len(d.Events) > 0
}

// Converted reports whether the deal ever entered the success stage.
func (d *Deal) Converted() bool {
	return !d.Success.IsZero()
}

// SuccessMonth returns the YYYY-MM of the success event, or "".
func (d *Deal) SuccessMonth() string {
	if d.Success.IsZero() {
		return ""
	}
	return dates.MonthLabel(d.Success)
}

// Entered reports whether the deal has any event for stage.
func (d *Deal) Entered(stage string) bool {
	for _, e := range d.Events {
		if e.Stage == stage {
			return true
		}
	}
	return false
}

// StageAt returns the event in force at cutoff: the latest event at or
// before cutoff, with the highest schema-order stage winning equal
// timestamps.
func (d *Deal) StageAt(cutoff time.Time) (StageEvent, bool) {
	var current StageEvent
	found := false
	for _, e := range d.Events {
		if e.At.After(cutoff) {
			break
		}
		current = e
		found = true
	}
	return current, found
}

// Build reconstructs every deal found in rows for one pipeline. Rows
// without a deal name are skipped. Rows sharing (name, owner) merge into a
// single deal; amount and metric come from the first such row.
func Build(rows []source.Row, cols *schema.ColumnMap, f Fields) []*Deal {
	var deals []*Deal
	if cols.Empty() {
		return deals
	}

	byKey := make(map[string]*Deal)
	skippedRows, skippedCells := 0, 0

	for _, row := range rows {
		name := row.Get(f.Name)
		if name == "" {
			skippedRows++
			continue
		}
		owner := row.Get(f.Owner)
		key := Key(name, owner)

		d, ok := byKey[key]
		if !ok {
			d = &Deal{
				Key:    key,
				Name:   name,
				Owner:  owner,
				Amount: ParseNumber(row.Get(f.Amount)),
				Metric: ParseNumber(row.Get(f.Metric)),
			}
			byKey[key] = d
			deals = append(deals, d)
		}

		for _, c := range cols.Columns {
			raw := row.Get(c.Header)
			if raw == "" {
				continue
			}
			ts, ok := dates.Parse(raw)
			if !ok {
				skippedCells++
				continue
			}
			d.Events = append(d.Events, StageEvent{Stage: c.Stage, Order: cols.Schema.Order(c.Stage), At: ts})
		}
	}

	for _, d := range deals {
		finalize(d, cols.Schema)
	}

	log.Debug().
		Str("pipeline", cols.Schema.Label).
		Int("deals", len(deals)).
		Int("skippedRows", skippedRows).
		Int("skippedCells", skippedCells).
		Msg("Reconstructed stage histories")

	return deals
}

func finalize(d *Deal, s *schema.Schema) {
	slices.SortStableFunc(d.Events, func(a, b StageEvent) int {
		if c := a.At.Compare(b.At); c != 0 {
			return c
		}
		return a.Order - b.Order
	})
	d.Events = slices.CompactFunc(d.Events, func(a, b StageEvent) bool {
		return a.Stage == b.Stage && a.At.Equal(b.At)
	})

	if len(d.Events) == 0 {
		return
	}
	d.Entry = d.Events[0].At
	d.EntryMonth = dates.MonthLabel(d.Entry)
	for _, e := range d.Events {
		if e.Stage == s.Success {
			d.Success = e.At
			break
		}
	}
}

// ParseNumber reads a currency or count cell. Thousands separators and a
// leading currency symbol are ignored; anything else yields 0.
func ParseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "$€£")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
