// Package cmd contains all CLI commands for mail-digest
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"mail-digest/config"
)

var (
	cfgFile string
	verbose bool
	cfg     *config.Config
	logger  *slog.Logger
	version = "dev"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mail-digest",
	Short: "Email summarization pipeline",
	Long: `mail-digest fetches emails over IMAP, strips quotes and signatures,
summarizes them with a local or remote model, and stores encrypted
summaries with extracted actions and deadlines.

Example usage:
  mail-digest serve                # Run the HTTP API server
  mail-digest process --dry-run    # Fetch and clean without summarizing
  mail-digest summaries --limit 10 # Show recent summaries
  mail-digest erase --confirm      # Delete all stored data`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string for the CLI
func SetVersion(v string) {
	version = v
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// initConfig loads the config file and sets up the CLI logger.
func initConfig() error {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger.Debug("configuration loaded",
		"config_file", cfgFile,
		"engine", cfg.Summarizer.Engine,
		"fetch_mode", cfg.Fetch.Mode)

	return nil
}
