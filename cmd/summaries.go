package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mail-digest/bootstrap"
	"mail-digest/repository"
)

var summariesCmd = &cobra.Command{
	Use:   "summaries",
	Short: "Show stored summaries",
	Long:  `List stored email summaries, newest first.`,
	Args:  cobra.NoArgs,
	RunE:  runSummaries,
}

func init() {
	rootCmd.AddCommand(summariesCmd)

	summariesCmd.Flags().Int("limit", 20, "maximum number of summaries to show")
	summariesCmd.Flags().Int("offset", 0, "number of summaries to skip")
}

func runSummaries(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")

	deps, cleanup, err := bootstrap.BuildDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	summaries, err := deps.SummaryRepo.List(ctx, repository.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		return err
	}

	if len(summaries) == 0 {
		fmt.Println("No summaries stored")
		return nil
	}

	for _, summary := range summaries {
		fmt.Printf("%s  %s\n", summary.ReceivedAt.Format("2006-01-02 15:04"), summary.Subject)
		fmt.Printf("  From:  %s\n", summary.Sender)
		fmt.Printf("  Model: %s\n", summary.ModelUsed)
		fmt.Printf("  %s\n", summary.Summary)
		if len(summary.Actions) > 0 {
			fmt.Printf("  Actions: %s\n", strings.Join(summary.Actions, "; "))
		}
		if len(summary.Deadlines) > 0 {
			dates := make([]string, 0, len(summary.Deadlines))
			for _, d := range summary.Deadlines {
				dates = append(dates, d.Format("2006-01-02"))
			}
			fmt.Printf("  Deadlines: %s\n", strings.Join(dates, ", "))
		}
		fmt.Println()
	}

	return nil
}
