package commands

import (
	"dealflow/internal/mcp"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve pipeline analytics as MCP tools over stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		return mcp.NewServer(cfg, Version).Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
