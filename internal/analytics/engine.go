package analytics

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"dealflow/internal/dates"
	"dealflow/internal/history"
	"dealflow/internal/schema"
	"dealflow/internal/source"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Engine turns an export table into per-pipeline analytics.
type Engine struct {
	fields     history.Fields
	monthsBack int
}

// NewEngine returns an engine reading the given deal columns.
func NewEngine(fields history.Fields) *Engine {
	return &Engine{fields: fields}
}

// WithMonthsBack limits the month series to the last n months of the data.
// Zero or less reports every month.
func (e *Engine) WithMonthsBack(n int) *Engine {
	e.monthsBack = n
	return e
}

// Result is one immutable analytics run over an export.
type Result struct {
	RunID       string                       `json:"runId"`
	ComputedAt  time.Time                    `json:"computedAt"`
	Months      []Month                      `json:"-"`
	MonthLabels []string                     `json:"monthLabels"`
	Pipelines   map[schema.Variant]*Pipeline `json:"-"`
}

// Pipeline holds the reconstructed deals and month-end snapshot of one variant.
// Every view is computed on demand from this state and never mutates it.
type Pipeline struct {
	Schema  *schema.Schema
	Columns *schema.ColumnMap
	Deals   []*history.Deal

	months []Month
	// lead is the month preceding a trimmed series, kept for movements.
	lead     *Month
	snapshot Snapshot
}

// Compute reconstructs both pipelines of table. Variants are processed
// concurrently. A table without rows yields an empty result.
func (e *Engine) Compute(ctx context.Context, table *source.Table) (*Result, error) {
	res := &Result{
		RunID:      uuid.NewString(),
		ComputedAt: time.Now().UTC(),
		Pipelines:  make(map[schema.Variant]*Pipeline),
	}
	logger := log.With().Str("runId", res.RunID).Logger()

	var headers []string
	var rows []source.Row
	if table != nil {
		headers, rows = table.Headers, table.Rows
	}

	schemas := schema.All()
	pipelines := make([]*Pipeline, len(schemas))

	g, gctx := errgroup.WithContext(ctx)
	for i, s := range schemas {
		g.Go(func() error {
			cols, err := schema.Resolve(s, headers)
			if err != nil {
				return err
			}
			if err := gctx.Err(); err != nil {
				return err
			}
			pipelines[i] = &Pipeline{
				Schema:  s,
				Columns: cols,
				Deals:   history.Build(rows, cols, e.fields),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	dealSets := make([][]*history.Deal, len(pipelines))
	for i, p := range pipelines {
		dealSets[i] = p.Deals
	}
	var lead *Month
	res.Months, lead = LastMonths(BuildMonths(dealSets...), e.monthsBack)
	res.MonthLabels = MonthLabels(res.Months)

	g, gctx = errgroup.WithContext(ctx)
	for _, p := range pipelines {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p.months, p.lead = res.Months, lead
			p.snapshot = BuildSnapshot(p.Deals, p.snapshotMonths(), p.Schema)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, p := range pipelines {
		res.Pipelines[p.Schema.Variant] = p
		logger.Info().
			Str("pipeline", p.Schema.Label).
			Int("columns", len(p.Columns.Columns)).
			Int("deals", len(p.Deals)).
			Msg("Pipeline reconstructed")
	}
	logger.Info().Int("rows", len(rows)).Int("months", len(res.Months)).Msg("Analytics computed")
	return res, nil
}

// Pipeline returns the state of one variant.
func (r *Result) Pipeline(v schema.Variant) (*Pipeline, error) {
	p, ok := r.Pipelines[v]
	if !ok {
		return nil, fmt.Errorf("%w: unknown pipeline %q", ErrInvalidQuery, v)
	}
	return p, nil
}

// Months returns the month series shared by every pipeline.
func (p *Pipeline) Months() []Month {
	return p.months
}

// Owners lists distinct deal owners, sorted.
func (p *Pipeline) Owners() []string {
	return p.distinct(func(d *history.Deal) string { return d.Owner })
}

// DealNames lists distinct deal names, sorted.
func (p *Pipeline) DealNames() []string {
	return p.distinct(func(d *history.Deal) string { return d.Name })
}

func (p *Pipeline) distinct(field func(*history.Deal) string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, d := range p.Deals {
		v := field(d)
		if v == "" || seen[v] || !d.HasEvents() {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

// prepare validates q and returns the matching deals.
func (p *Pipeline) prepare(q Query) ([]*history.Deal, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	for _, st := range q.Stages {
		if !p.Schema.Has(st) {
			return nil, fmt.Errorf("%w: stage %q is not part of %s", ErrInvalidQuery, st, p.Schema.Label)
		}
	}
	return FilterDeals(p.Deals, q), nil
}

func (p *Pipeline) snapshotFor(q Query, deals []*history.Deal) Snapshot {
	if !q.FiltersDeals() {
		return p.snapshot
	}
	return BuildSnapshot(deals, p.snapshotMonths(), p.Schema)
}

// snapshotMonths is the series plus its lead month when the series is trimmed.
func (p *Pipeline) snapshotMonths() []Month {
	if p.lead == nil {
		return p.months
	}
	return append([]Month{*p.lead}, p.months...)
}

// visibleStages is the stage inclusion set in schema order, defaulting to
// every active stage.
func (p *Pipeline) visibleStages(q Query) []string {
	active := schema.StageNames(p.Schema.ActiveStages())
	if len(q.Stages) == 0 {
		return active
	}
	out := make([]string, 0, len(q.Stages))
	for _, st := range active {
		if slices.Contains(q.Stages, st) {
			out = append(out, st)
		}
	}
	return out
}

// targetMonth resolves q.Month against the series, defaulting to the last
// month. The index is -1 when the month is outside the series.
func (p *Pipeline) targetMonth(q Query) (string, int) {
	if len(p.months) == 0 {
		return "", -1
	}
	month := q.Month
	if month == "" {
		month = p.months[len(p.months)-1].Label
	}
	for i, m := range p.months {
		if m.Label == month {
			return month, i
		}
	}
	return month, -1
}

// Snapshot returns the month, stage to deal-detail structure.
func (p *Pipeline) Snapshot(q Query) (Snapshot, error) {
	deals, err := p.prepare(q)
	if err != nil {
		return nil, err
	}
	return p.withoutLead(p.snapshotFor(q, deals)), nil
}

func (p *Pipeline) withoutLead(snap Snapshot) Snapshot {
	if p.lead == nil {
		return snap
	}
	snap = maps.Clone(snap)
	delete(snap, p.lead.Label)
	return snap
}

// Series returns the per-stage chart values under q's metric.
func (p *Pipeline) Series(q Query) ([]SeriesPoint, error) {
	deals, err := p.prepare(q)
	if err != nil {
		return nil, err
	}
	return BuildSeries(p.snapshotFor(q, deals), p.months, p.visibleStages(q), q.MetricOrDefault()), nil
}

// Details lists the deals of the target month across visible stages.
func (p *Pipeline) Details(q Query) ([]DealDetail, error) {
	deals, err := p.prepare(q)
	if err != nil {
		return nil, err
	}
	month, idx := p.targetMonth(q)
	if idx < 0 {
		return []DealDetail{}, nil
	}
	return MonthDetails(p.snapshotFor(q, deals), month, p.visibleStages(q), p.Schema), nil
}

// PreviousMonth is the label of the month before label, including the lead
// month of a trimmed series. It is empty for the first month of the data.
func (p *Pipeline) PreviousMonth(label string) string {
	for i, m := range p.months {
		if m.Label != label {
			continue
		}
		if i > 0 {
			return p.months[i-1].Label
		}
		if p.lead != nil {
			return p.lead.Label
		}
	}
	return ""
}

// Movements compares the target month with the one before it.
func (p *Pipeline) Movements(q Query) ([]Movement, error) {
	deals, err := p.prepare(q)
	if err != nil {
		return nil, err
	}
	month, idx := p.targetMonth(q)
	if idx < 0 {
		return []Movement{}, nil
	}

	snap := p.snapshotFor(q, deals)
	visible := p.visibleStages(q)
	var prev map[string][]DealDetail
	switch {
	case idx > 0:
		prev = restrict(snap[p.months[idx-1].Label], visible)
	case p.lead != nil:
		prev = restrict(snap[p.lead.Label], visible)
	}
	return DetectMovements(prev, restrict(snap[month], visible), p.Schema), nil
}

func restrict(buckets map[string][]DealDetail, stages []string) map[string][]DealDetail {
	out := make(map[string][]DealDetail, len(stages))
	for _, st := range stages {
		if details, ok := buckets[st]; ok {
			out[st] = details
		}
	}
	return out
}

// Funnel returns stage conversion over the filtered population.
func (p *Pipeline) Funnel(q Query) (Funnel, error) {
	deals, err := p.prepare(q)
	if err != nil {
		return Funnel{}, err
	}
	return CalculateFunnel(deals, p.Schema), nil
}

// Cohorts groups the filtered population by entry month.
func (p *Pipeline) Cohorts(q Query) ([]Cohort, error) {
	deals, err := p.prepare(q)
	if err != nil {
		return nil, err
	}
	return GroupCohorts(deals), nil
}

// Trend returns the monthly conversion trend. With an entry range the months
// are limited to those the range touches.
func (p *Pipeline) Trend(q Query) ([]TrendPoint, error) {
	deals, err := p.prepare(q)
	if err != nil {
		return nil, err
	}
	months := MonthLabels(p.months)
	if q.HasEntryRange() {
		months = slices.DeleteFunc(months, func(m string) bool {
			if !q.EntryStart.IsZero() && m < dates.MonthLabel(q.EntryStart) {
				return true
			}
			return !q.EntryEnd.IsZero() && m > dates.MonthLabel(q.EntryEnd)
		})
	}
	return ConversionTrend(deals, months), nil
}

// SalesCycle measures entry to success over the filtered population.
func (p *Pipeline) SalesCycle(q Query) (SalesCycle, error) {
	deals, err := p.prepare(q)
	if err != nil {
		return SalesCycle{}, err
	}
	return CalculateSalesCycle(deals), nil
}

// TimeInStage measures consecutive stage gaps under q's deal filter.
func (p *Pipeline) TimeInStage(q Query) (TimeInStage, error) {
	deals, err := p.prepare(q)
	if err != nil {
		return TimeInStage{}, err
	}
	return CalculateTimeInStage(deals, p.Schema, q.DealFilterOrDefault()), nil
}
