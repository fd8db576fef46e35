package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/rcpsp/app"
)

var batchOpts struct {
	runs        int
	concurrency int
}

var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Run independent optimizer runs on a problem file and keep the best",
	Args:  cobra.ExactArgs(1),
	RunE:  batch,
}

func init() {
	batchCmd.Flags().IntVar(&batchOpts.runs, "runs", 0, "number of runs (0 keeps the configured count)")
	batchCmd.Flags().IntVar(&batchOpts.concurrency, "concurrency", -1, "concurrent runs (-1 keeps the configured bound)")
	rootCmd.AddCommand(batchCmd)
}

func batch(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if batchOpts.runs != 0 {
		cfg.Batch.Runs = batchOpts.runs
	}
	if batchOpts.concurrency >= 0 {
		cfg.Batch.Concurrency = batchOpts.concurrency
	}
	return withService(ctx, cfg, func(svc *app.Service) error {
		br, err := svc.Batch(ctx, args[0], cfg.Batch.Runs)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "run id: %s\n", br.RunID)
		for i, r := range br.Runs {
			fmt.Fprintf(out, "run %d: makespan %d\n", i, r.Makespan)
		}
		fmt.Fprintf(out, "best makespan: %d\n", br.Best.Makespan)
		fmt.Fprintf(out, "best schedule: %v\n", br.Best.Schedule)
		return nil
	})
}
