package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"mail-digest/bootstrap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Start the mail-digest HTTP server. The server exposes processing
triggers, summary retrieval, feedback, and data erasure under /api/v1,
plus /health and /metrics.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	return bootstrap.Run(context.Background(), cfg)
}
