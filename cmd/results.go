package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/rcpsp/app"
)

var resultsOpts struct {
	runID string
}

var resultsCmd = &cobra.Command{
	Use:   "results <file>",
	Short: "Summarize the stored results for a problem file",
	Args:  cobra.ExactArgs(1),
	RunE:  showResults,
}

func init() {
	resultsCmd.Flags().StringVar(&resultsOpts.runID, "run-id", "", "only consider results of this run id")
	rootCmd.AddCommand(resultsCmd)
}

func showResults(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return withService(ctx, cfg, func(svc *app.Service) error {
		rs, best, err := svc.Aggregate(ctx, args[0], resultsOpts.runID)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "results: %d\n", len(rs))
		fmt.Fprintf(out, "best makespan: %d (run %s)\n", best.Makespan, best.RunID)
		fmt.Fprintf(out, "best schedule: %v\n", best.Schedule)
		return nil
	})
}
