package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kilianp07/rcpsp/core/results"
	"github.com/kilianp07/rcpsp/infra/mqtt"
)

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Print results announced over MQTT for a problem file",
	Args:  cobra.ExactArgs(1),
	RunE:  watch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

type resultListener interface {
	Listen(file string, fn func(results.RunResult)) error
	Close()
}

var newListener = func(cfg mqtt.Config) (resultListener, error) {
	p, err := mqtt.NewPublisher(cfg)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func watch(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.MQTT.Enabled() {
		return fmt.Errorf("watch requires mqtt.broker to be configured")
	}
	l, err := newListener(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	defer l.Close()

	// Results are announced under the base name of the problem file.
	return watchResults(ctx, l, filepath.Base(args[0]), cmd.OutOrStdout())
}

// watchResults keeps the best announced result and prints every incoming
// one until ctx is done. Results already received are printed first.
func watchResults(ctx context.Context, l resultListener, file string, out io.Writer) error {
	incoming := make(chan results.RunResult, 16)
	if err := l.Listen(file, func(r results.RunResult) { incoming <- r }); err != nil {
		return err
	}
	var seen []results.RunResult
	report := func(r results.RunResult) {
		seen = append(seen, r)
		best, _ := results.Best(seen)
		fmt.Fprintf(out, "run %s: makespan %d (best %d from run %s)\n", r.RunID, r.Makespan, best.Makespan, best.RunID)
	}
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case r := <-incoming:
					report(r)
				default:
					return nil
				}
			}
		case r := <-incoming:
			report(r)
		}
	}
}
