package mcp

import (
	"context"

	"dealflow/internal/analytics"
	"dealflow/internal/schema"
)

// QueryArgs are the arguments shared by every per-pipeline tool.
type QueryArgs struct {
	Pipeline   string   `json:"pipeline" jsonschema:"Pipeline variant: direct_sales or partner_management (labels and the codes DS and PM are accepted too)"`
	Owners     []string `json:"owners,omitempty" jsonschema:"Only include deals owned by these owners"`
	DealNames  []string `json:"deal_names,omitempty" jsonschema:"Only include deals with these names"`
	Stages     []string `json:"stages,omitempty" jsonschema:"Stage names to show. Default: every active stage"`
	EntryStart string   `json:"entry_start,omitempty" jsonschema:"Only include deals that entered the pipeline on or after this day (YYYY-MM-DD)"`
	EntryEnd   string   `json:"entry_end,omitempty" jsonschema:"Only include deals that entered the pipeline on or before this day (YYYY-MM-DD)"`
	Metric     string   `json:"metric,omitempty" jsonschema:"Snapshot value: count, amount or secondary. Default: count"`
	Month      string   `json:"month,omitempty" jsonschema:"Month to inspect (YYYY-MM). Default: the latest month"`
	DealFilter string   `json:"deal_filter,omitempty" jsonschema:"Time in stage population: all, converted or not-converted. Default: all"`
}

// NoArgs is the input of tools without parameters.
type NoArgs struct{}

// PipelineInfo describes one pipeline of the loaded export.
type PipelineInfo struct {
	Variant   schema.Variant `json:"variant"`
	Label     string         `json:"label"`
	Code      string         `json:"code"`
	Columns   int            `json:"stageColumns"`
	Deals     int            `json:"deals"`
	Stages    []string       `json:"activeStages"`
	Inactive  []string       `json:"inactiveStages"`
	Success   string         `json:"successStage"`
	Owners    []string       `json:"owners"`
	DealNames []string       `json:"dealNames"`
}

type movementsResult struct {
	Month         string               `json:"month"`
	PreviousMonth string               `json:"previousMonth,omitempty"`
	Movements     []analytics.Movement `json:"movements"`
}

type reloadResult struct {
	Rows      int            `json:"rows"`
	Months    []string       `json:"months"`
	Pipelines map[string]int `json:"dealsPerPipeline"`
}

// pipelineCall is the resolved state of one per-pipeline tool call.
type pipelineCall struct {
	res *analytics.Result
	p   *analytics.Pipeline
	q   analytics.Query
}

func (s *Server) resolve(ctx context.Context, args QueryArgs) (*pipelineCall, error) {
	v, q, err := args.query()
	if err != nil {
		return nil, err
	}
	res, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	p, err := res.Pipeline(v)
	if err != nil {
		return nil, err
	}
	return &pipelineCall{res: res, p: p, q: q}, nil
}

func (c *pipelineCall) wrap(data any) ResponseEnvelope {
	return WrapResponse(data, c.res, c.p, warningsFor(c.p, c.q))
}

func (s *Server) handleListPipelines(ctx context.Context, _ NoArgs) (any, error) {
	res, err := s.current(ctx)
	if err != nil {
		return nil, err
	}

	infos := make([]PipelineInfo, 0, len(res.Pipelines))
	for _, sc := range schema.All() {
		p, err := res.Pipeline(sc.Variant)
		if err != nil {
			return nil, err
		}
		info := PipelineInfo{
			Variant:   sc.Variant,
			Label:     sc.Label,
			Code:      sc.Code,
			Columns:   len(p.Columns.Columns),
			Deals:     len(p.Deals),
			Stages:    schema.StageNames(sc.ActiveStages()),
			Success:   sc.Success,
			Owners:    p.Owners(),
			DealNames: p.DealNames(),
		}
		for _, st := range sc.Stages {
			if sc.IsInactive(st.Name) {
				info.Inactive = append(info.Inactive, st.Name)
			}
		}
		infos = append(infos, info)
	}

	data := map[string]any{
		"months":    res.MonthLabels,
		"pipelines": infos,
	}
	return WrapResponse(data, res, nil, nil), nil
}

func (s *Server) handleGetStageSnapshots(ctx context.Context, args QueryArgs) (any, error) {
	c, err := s.resolve(ctx, args)
	if err != nil {
		return nil, err
	}
	series, err := c.p.Series(c.q)
	if err != nil {
		return nil, err
	}
	return c.wrap(map[string]any{"metric": c.q.MetricOrDefault(), "series": series}), nil
}

func (s *Server) handleGetSnapshotDeals(ctx context.Context, args QueryArgs) (any, error) {
	c, err := s.resolve(ctx, args)
	if err != nil {
		return nil, err
	}
	details, err := c.p.Details(c.q)
	if err != nil {
		return nil, err
	}
	return c.wrap(map[string]any{"month": targetLabel(c.p, c.q), "deals": details}), nil
}

func (s *Server) handleGetDealMovements(ctx context.Context, args QueryArgs) (any, error) {
	c, err := s.resolve(ctx, args)
	if err != nil {
		return nil, err
	}
	movements, err := c.p.Movements(c.q)
	if err != nil {
		return nil, err
	}

	out := movementsResult{Month: targetLabel(c.p, c.q), Movements: movements}
	out.PreviousMonth = c.p.PreviousMonth(out.Month)
	return c.wrap(out), nil
}

func (s *Server) handleGetFunnelConversion(ctx context.Context, args QueryArgs) (any, error) {
	c, err := s.resolve(ctx, args)
	if err != nil {
		return nil, err
	}
	funnel, err := c.p.Funnel(c.q)
	if err != nil {
		return nil, err
	}
	return c.wrap(funnel), nil
}

func (s *Server) handleGetCohortConversion(ctx context.Context, args QueryArgs) (any, error) {
	c, err := s.resolve(ctx, args)
	if err != nil {
		return nil, err
	}
	cohorts, err := c.p.Cohorts(c.q)
	if err != nil {
		return nil, err
	}
	return c.wrap(cohorts), nil
}

func (s *Server) handleGetConversionTrend(ctx context.Context, args QueryArgs) (any, error) {
	c, err := s.resolve(ctx, args)
	if err != nil {
		return nil, err
	}
	trend, err := c.p.Trend(c.q)
	if err != nil {
		return nil, err
	}
	return c.wrap(trend), nil
}

func (s *Server) handleGetSalesCycle(ctx context.Context, args QueryArgs) (any, error) {
	c, err := s.resolve(ctx, args)
	if err != nil {
		return nil, err
	}
	cycle, err := c.p.SalesCycle(c.q)
	if err != nil {
		return nil, err
	}
	return c.wrap(cycle), nil
}

func (s *Server) handleGetTimeInStage(ctx context.Context, args QueryArgs) (any, error) {
	c, err := s.resolve(ctx, args)
	if err != nil {
		return nil, err
	}
	tis, err := c.p.TimeInStage(c.q)
	if err != nil {
		return nil, err
	}
	return c.wrap(tis), nil
}

func (s *Server) handleReloadSource(ctx context.Context, _ NoArgs) (any, error) {
	res, err := s.reload(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	rows := s.rows
	s.mu.Unlock()

	out := reloadResult{Rows: rows, Months: res.MonthLabels, Pipelines: make(map[string]int)}
	for _, p := range res.Pipelines {
		out.Pipelines[p.Schema.Label] = len(p.Deals)
	}
	return WrapResponse(out, res, nil, nil), nil
}

// targetLabel is the month a single-month view reports on.
func targetLabel(p *analytics.Pipeline, q analytics.Query) string {
	if q.Month != "" {
		return q.Month
	}
	months := p.Months()
	if len(months) == 0 {
		return ""
	}
	return months[len(months)-1].Label
}
