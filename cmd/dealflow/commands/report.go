package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"dealflow/internal/analytics"
	"dealflow/internal/dates"
	"dealflow/internal/schema"

	"github.com/spf13/cobra"
)

var views = []string{"snapshots", "deals", "movements", "funnel", "cohorts", "trend", "sales-cycle", "time-in-stage"}

var reportOpts struct {
	pipeline   string
	view       string
	owners     []string
	deals      []string
	stages     []string
	entryStart string
	entryEnd   string
	metric     string
	month      string
	dealFilter string
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print one analytics view of a pipeline as JSON",
	Example: `  dealflow report --pipeline DS --view funnel --owner "Jane Doe"
  dealflow report --pipeline PM --view snapshots --metric amount --entry-start 2024-01-01`,
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := schema.ParseVariant(reportOpts.pipeline)
		if err != nil {
			return err
		}
		q, err := reportQuery()
		if err != nil {
			return err
		}

		res, err := compute(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		p, err := res.Pipeline(v)
		if err != nil {
			return err
		}
		data, err := runView(p, reportOpts.view, q)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), data)
	},
}

func reportQuery() (analytics.Query, error) {
	q := analytics.Query{
		Owners:     reportOpts.owners,
		DealNames:  reportOpts.deals,
		Stages:     reportOpts.stages,
		Metric:     analytics.Metric(reportOpts.metric),
		DealFilter: analytics.DealFilter(reportOpts.dealFilter),
		Month:      reportOpts.month,
	}
	var err error
	if q.EntryStart, err = optionalDay("entry-start", reportOpts.entryStart); err != nil {
		return q, err
	}
	if q.EntryEnd, err = optionalDay("entry-end", reportOpts.entryEnd); err != nil {
		return q, err
	}
	return q, q.Validate()
}

func optionalDay(flag, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := dates.ParseDay(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: --%s must be YYYY-MM-DD, got %q", analytics.ErrInvalidQuery, flag, value)
	}
	return t, nil
}

func runView(p *analytics.Pipeline, view string, q analytics.Query) (any, error) {
	switch view {
	case "snapshots":
		return p.Series(q)
	case "deals":
		return p.Details(q)
	case "movements":
		return p.Movements(q)
	case "funnel":
		return p.Funnel(q)
	case "cohorts":
		return p.Cohorts(q)
	case "trend":
		return p.Trend(q)
	case "sales-cycle":
		return p.SalesCycle(q)
	case "time-in-stage":
		return p.TimeInStage(q)
	}
	return nil, fmt.Errorf("unknown view %q (expected one of %s)", view, strings.Join(views, ", "))
}

func printJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func init() {
	f := reportCmd.Flags()
	f.StringVarP(&reportOpts.pipeline, "pipeline", "p", string(schema.DirectSales), "pipeline variant: direct_sales, partner_management, DS or PM")
	f.StringVar(&reportOpts.view, "view", "funnel", "view to print: "+strings.Join(views, ", "))
	f.StringArrayVar(&reportOpts.owners, "owner", nil, "only deals of these owners (repeatable)")
	f.StringArrayVar(&reportOpts.deals, "deal", nil, "only deals with these names (repeatable)")
	f.StringArrayVar(&reportOpts.stages, "stage", nil, "stages to show (default every active stage)")
	f.StringVar(&reportOpts.entryStart, "entry-start", "", "only deals entered on or after this day (YYYY-MM-DD)")
	f.StringVar(&reportOpts.entryEnd, "entry-end", "", "only deals entered on or before this day (YYYY-MM-DD)")
	f.StringVar(&reportOpts.metric, "metric", "", "snapshot value: count, amount or secondary")
	f.StringVar(&reportOpts.month, "month", "", "month to inspect (YYYY-MM, default latest)")
	f.StringVar(&reportOpts.dealFilter, "deal-filter", "", "time in stage population: all, converted or not-converted")
	rootCmd.AddCommand(reportCmd)
}
