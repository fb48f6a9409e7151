package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"mail-digest/bootstrap"
)

var eraseCmd = &cobra.Command{
	Use:   "erase",
	Short: "Delete all stored summaries and feedback",
	Long: `Permanently delete every stored summary and its feedback. This
cannot be undone, so the --confirm flag is required.`,
	Args: cobra.NoArgs,
	RunE: runErase,
}

func init() {
	rootCmd.AddCommand(eraseCmd)

	eraseCmd.Flags().Bool("confirm", false, "confirm permanent deletion")
}

func runErase(cmd *cobra.Command, args []string) error {
	confirm, _ := cmd.Flags().GetBool("confirm")
	if !confirm {
		return fmt.Errorf("refusing to erase without --confirm")
	}

	ctx := context.Background()
	deps, cleanup, err := bootstrap.BuildDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := deps.SummaryRepo.EraseAll(ctx); err != nil {
		return err
	}

	fmt.Println("All stored data erased")
	return nil
}
