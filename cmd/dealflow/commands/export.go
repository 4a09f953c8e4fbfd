package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"dealflow/internal/analytics"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the chart data and deal details of both pipelines as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := compute(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		doc, err := res.Export()
		if err != nil {
			return err
		}

		path := exportOut
		if path == "" {
			path = cfg.ExportPath
		}
		if path == "-" {
			return analytics.WriteExport(cmd.OutOrStdout(), doc)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create export file: %w", err)
		}
		if err := analytics.WriteExport(f, doc); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}

		log.Info().Str("path", path).Int("months", len(doc.MonthLabels)).Msg("Export written")
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file, '-' for stdout (default EXPORT_PATH)")
	rootCmd.AddCommand(exportCmd)
}
