package mcp

import (
	"encoding/json"
	"fmt"
	"time"

	"dealflow/internal/analytics"
	"dealflow/internal/dates"
	"dealflow/internal/schema"
)

// ResponseEnvelope is the JSON shape of every tool result.
type ResponseEnvelope struct {
	Context  ResponseContext `json:"context"`
	Data     any             `json:"data"`
	Warnings []string        `json:"warnings,omitempty"`
}

// ResponseContext identifies the analytics run a result came from.
type ResponseContext struct {
	Pipeline   string    `json:"pipeline,omitempty"`
	RunID      string    `json:"runId"`
	ComputedAt time.Time `json:"computedAt"`
}

// WrapResponse builds the envelope for data computed from res.
func WrapResponse(data any, res *analytics.Result, p *analytics.Pipeline, warnings []string) ResponseEnvelope {
	env := ResponseEnvelope{Data: data, Warnings: warnings}
	if res != nil {
		env.Context.RunID = res.RunID
		env.Context.ComputedAt = res.ComputedAt
	}
	if p != nil {
		env.Context.Pipeline = p.Schema.Label
	}
	return env
}

func formatResult(data any) string {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(out)
}

// query converts tool arguments into a pipeline variant and analytics query.
func (a QueryArgs) query() (schema.Variant, analytics.Query, error) {
	v, err := schema.ParseVariant(a.Pipeline)
	if err != nil {
		return "", analytics.Query{}, fmt.Errorf("%w: %v", analytics.ErrInvalidQuery, err)
	}

	q := analytics.Query{
		Owners:     a.Owners,
		DealNames:  a.DealNames,
		Stages:     a.Stages,
		Metric:     analytics.Metric(a.Metric),
		DealFilter: analytics.DealFilter(a.DealFilter),
		Month:      a.Month,
	}
	if q.EntryStart, err = parseDay("entry_start", a.EntryStart); err != nil {
		return "", analytics.Query{}, err
	}
	if q.EntryEnd, err = parseDay("entry_end", a.EntryEnd); err != nil {
		return "", analytics.Query{}, err
	}
	return v, q, nil
}

func parseDay(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := dates.ParseDay(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be YYYY-MM-DD, got %q", analytics.ErrInvalidQuery, field, value)
	}
	return t, nil
}

// warningsFor reports conditions that make a result empty or partial.
func warningsFor(p *analytics.Pipeline, q analytics.Query) []string {
	var warnings []string
	if p.Columns.Empty() {
		warnings = append(warnings, fmt.Sprintf("the export has no stage columns for %s", p.Schema.Label))
		return warnings
	}
	if q.Month != "" && !hasMonth(p.Months(), q.Month) {
		warnings = append(warnings, fmt.Sprintf("month %s is outside the data range", q.Month))
	}
	if q.FiltersDeals() && len(analytics.FilterDeals(p.Deals, q)) == 0 {
		warnings = append(warnings, "no deals match the filters")
	}
	return warnings
}

func hasMonth(months []analytics.Month, label string) bool {
	for _, m := range months {
		if m.Label == label {
			return true
		}
	}
	return false
}
