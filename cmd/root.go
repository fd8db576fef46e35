// Package cmd implements the rcpsp command line.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/rcpsp/app"
	"github.com/kilianp07/rcpsp/config"
	"github.com/kilianp07/rcpsp/infra/logger"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:          "rcpsp",
	Short:        "Resource-constrained project scheduling with GARTH",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (YAML or JSON)")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// withService builds the service, starts its exporters and closes it once
// fn returns.
func withService(ctx context.Context, cfg *config.Config, fn func(*app.Service) error) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	svc.Start(ctx)
	return fn(svc)
}
