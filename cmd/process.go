package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"mail-digest/bootstrap"
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Run one processing batch",
	Long: `Fetch emails according to the configured rules, clean them,
summarize them, and store the results.

With --dry-run, emails are fetched and cleaned but never sent to the
summarization backend or stored, and unread messages keep their unread
flag.`,
	Args: cobra.NoArgs,
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().Bool("dry-run", false, "fetch and clean only, without summarizing or storing")
}

func runProcess(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	deps, cleanup, err := bootstrap.BuildDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := deps.Processor.ProcessEmails(ctx, dryRun)
	if err != nil {
		return err
	}

	fmt.Printf("Batch %s complete\n", result.BatchID)
	if result.DryRun {
		fmt.Println("Mode: dry run (nothing summarized or stored)")
	}
	fmt.Printf("  Fetched:   %d\n", result.TotalFetched)
	fmt.Printf("  Processed: %d\n", result.TotalProcessed)
	fmt.Printf("  Failed:    %d\n", result.TotalFailed)

	for _, procErr := range result.Errors {
		if procErr.MessageID != "" {
			fmt.Printf("  [%s] %s: %s\n", procErr.ErrorType, procErr.MessageID, procErr.ErrorMessage)
		} else {
			fmt.Printf("  [%s] %s\n", procErr.ErrorType, procErr.ErrorMessage)
		}
	}

	return nil
}
