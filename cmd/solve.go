package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kilianp07/rcpsp/app"
	coremetrics "github.com/kilianp07/rcpsp/core/metrics"
	"github.com/kilianp07/rcpsp/internal/eventbus"
)

var solveOpts struct {
	seed          uint64
	budget        int
	printSchedule bool
	progress      bool
	jsonOut       bool
}

var solveCmd = &cobra.Command{
	Use:   "solve <file>",
	Short: "Run the optimizer once on a problem file",
	Args:  cobra.ExactArgs(1),
	RunE:  solve,
}

func init() {
	f := solveCmd.Flags()
	f.Uint64Var(&solveOpts.seed, "seed", 0, "random seed (0 keeps the configured seed)")
	f.IntVar(&solveOpts.budget, "budget", 0, "number of schedules to generate (0 keeps the configured limit)")
	f.BoolVar(&solveOpts.printSchedule, "print-schedule", false, "print the start and finish time of every activity")
	f.BoolVar(&solveOpts.progress, "progress", false, "print per-generation statistics to stderr")
	f.BoolVar(&solveOpts.jsonOut, "json", false, "print the result as JSON")
	rootCmd.AddCommand(solveCmd)
}

func solve(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if solveOpts.seed != 0 {
		cfg.Optimizer.Seed = solveOpts.seed
	}
	if solveOpts.budget != 0 {
		cfg.Optimizer.ScheduleLimit = solveOpts.budget
	}
	return withService(ctx, cfg, func(svc *app.Service) error {
		if solveOpts.progress {
			done := printProgress(cmd.ErrOrStderr(), svc.Events())
			defer done()
		}
		sol, err := svc.Solve(ctx, args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if solveOpts.jsonOut {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(sol.Result)
		}
		fmt.Fprintf(out, "makespan: %d\n", sol.Result.Makespan)
		fmt.Fprintf(out, "schedule: %v\n", sol.Result.Schedule)
		fmt.Fprintf(out, "generations: %d, schedules: %d\n", sol.Result.Generations, sol.Result.SchedulesGenerated)
		if solveOpts.printSchedule {
			return sol.Schedule.WriteTable(out)
		}
		return nil
	})
}

// printProgress writes generation events to w until the returned function
// is called.
func printProgress(w io.Writer, bus *eventbus.TypedBus[coremetrics.GenerationStats]) func() {
	sub := bus.Subscribe()
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for ev := range sub {
			fmt.Fprintf(w, "generation %d: best %d mean %.2f std %.2f schedules %d\n",
				ev.Generation, ev.BestMakespan, ev.MeanMakespan, ev.StdDevMakespan, ev.SchedulesGenerated)
		}
	}()
	return func() {
		bus.Unsubscribe(sub)
		<-finished
	}
}
