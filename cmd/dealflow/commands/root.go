package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"dealflow/internal/analytics"
	"dealflow/internal/config"
	"dealflow/internal/logging"
	"dealflow/internal/source"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose    bool
	sourceArg  string
	sheetID    string
	sheetGID   string
	monthsBack int
	cfg        *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "dealflow",
	Short: "dealflow turns CRM deal exports into pipeline analytics",
	Long: `dealflow reads a HubSpot deal export (CSV, XLSX or a published Google Sheet),
reconstructs the stage history of every deal and serves month-end snapshots,
movements, funnel and cohort conversion and duration statistics over MCP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Init(verbose)

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		applyFlags(cmd, cfg)

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Msg("dealflow starting")
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

// applyFlags lets explicit flags win over .env and environment values.
// An explicit --sheet-id replaces a configured path or URL; --source still
// wins over both.
func applyFlags(cmd *cobra.Command, c *config.AppConfig) {
	if cmd.Flags().Changed("sheet-id") {
		c.UseSheet(sheetID)
	}
	c.SetSource(sourceArg)
	if cmd.Flags().Changed("gid") {
		c.Source.GID = sheetGID
	}
	if cmd.Flags().Changed("months-back") {
		c.MonthsBack = monthsBack
	}
}

// compute loads the configured export and runs the analytics engine once.
func compute(ctx context.Context, c *config.AppConfig) (*analytics.Result, error) {
	table, err := source.Load(ctx, c.Source)
	if err != nil {
		return nil, err
	}
	return analytics.NewEngine(c.Fields).WithMonthsBack(c.MonthsBack).Compute(ctx, table)
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&sourceArg, "source", "", "export file path or http(s) URL (overrides DEALFLOW_SOURCE)")
	rootCmd.PersistentFlags().StringVar(&sheetID, "sheet-id", "", "published Google Sheet id (overrides GOOGLE_SHEET_ID)")
	rootCmd.PersistentFlags().StringVar(&sheetGID, "gid", "0", "Google Sheet tab gid (overrides GOOGLE_SHEET_GID)")
	rootCmd.PersistentFlags().IntVar(&monthsBack, "months-back", 0, "only report the last N months of data, 0 for all (overrides MONTHS_BACK)")
}
