package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

const filterGuidance = " Filters: owners, deal_names and entry_start/entry_end narrow the deal population; " +
	"every result carries the analytics run id and warnings when the data is empty or partial."

type queryTool struct {
	name        string
	description string
	handle      func(context.Context, QueryArgs) (any, error)
}

func (s *Server) queryTools() []queryTool {
	return []queryTool{
		{
			name: "get_stage_snapshots",
			description: "Month-end pipeline snapshot: for every month, the value of each visible active stage " +
				"(deal count, summed amount, or summed secondary metric via 'metric'), the month total and the top stage. " +
				"Deals in inactive stages (lost, churned) are excluded from the month they sit there.",
			handle: s.handleGetStageSnapshots,
		},
		{
			name: "get_snapshot_deals",
			description: "Deals occupying each visible stage at the end of 'month' (default: latest), " +
				"with the date they entered that stage, amount and secondary metric.",
			handle: s.handleGetSnapshotDeals,
		},
		{
			name: "get_deal_movements",
			description: "Deals whose stage changed between the month before 'month' and 'month' itself. " +
				"A deal without a previous stage is new to the pipeline.",
			handle: s.handleGetDealMovements,
		},
		{
			name: "get_funnel_conversion",
			description: "Stage funnel: how many deals reached each active stage, conversion to the next stage " +
				"and to the success stage, and the overall conversion rate.",
			handle: s.handleGetFunnelConversion,
		},
		{
			name:        "get_cohort_conversion",
			description: "Deals grouped by the month they entered the pipeline, with conversion counts and rate per cohort.",
			handle:      s.handleGetCohortConversion,
		},
		{
			name: "get_conversion_trend",
			description: "Cumulative conversion as of each month-end: deals entered, deals converted, rate, " +
				"and deals that went live in that month. With an entry range only the months it covers are reported.",
			handle: s.handleGetConversionTrend,
		},
		{
			name: "get_sales_cycle",
			description: "Days from pipeline entry to the success stage for converted deals: " +
				"overall average, median, min and max, and the same statistics per entry cohort.",
			handle: s.handleGetSalesCycle,
		},
		{
			name: "get_time_in_stage",
			description: "Days spent between consecutive stage entries, per stage overall and per entry cohort. " +
				"'deal_filter' restricts the population to converted or not-converted deals.",
			handle: s.handleGetTimeInStage,
		},
	}
}

func (s *Server) registerTools(srv *sdk.Server) error {
	for _, t := range s.queryTools() {
		schema, err := jsonschema.For[QueryArgs](nil)
		if err != nil {
			return fmt.Errorf("failed to build input schema for %s: %w", t.name, err)
		}
		sdk.AddTool(srv, &sdk.Tool{
			Name:        t.name,
			Description: t.description + filterGuidance,
			InputSchema: schema,
		}, adapt(t.name, t.handle))
	}

	for _, t := range []struct {
		name        string
		description string
		handle      func(context.Context, NoArgs) (any, error)
	}{
		{
			name: "list_pipelines",
			description: "List the pipelines found in the export with their stages, deal counts, owners and deal names. " +
				"Call this first to discover valid filter values.",
			handle: s.handleListPipelines,
		},
		{
			name:        "reload_source",
			description: "Read the export again and recompute every pipeline. Use after the source sheet changed.",
			handle:      s.handleReloadSource,
		},
	} {
		schema, err := jsonschema.For[NoArgs](nil)
		if err != nil {
			return fmt.Errorf("failed to build input schema for %s: %w", t.name, err)
		}
		sdk.AddTool(srv, &sdk.Tool{Name: t.name, Description: t.description, InputSchema: schema}, adapt(t.name, t.handle))
	}
	return nil
}

// adapt turns a handler into a tool handler returning indented JSON text.
func adapt[In any](name string, fn func(context.Context, In) (any, error)) sdk.ToolHandlerFor[In, any] {
	return func(ctx context.Context, _ *sdk.CallToolRequest, in In) (*sdk.CallToolResult, any, error) {
		start := time.Now()
		data, err := fn(ctx, in)
		if err != nil {
			log.Warn().Err(err).Str("tool", name).Msg("Tool call failed")
			return nil, nil, err
		}
		log.Debug().Str("tool", name).Dur("elapsed", time.Since(start)).Msg("Tool call served")
		return &sdk.CallToolResult{
			Content: []sdk.Content{&sdk.TextContent{Text: formatResult(data)}},
		}, nil, nil
	}
}
