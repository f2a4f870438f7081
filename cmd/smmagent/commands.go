package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"SMMAgent/internal/app"
	"SMMAgent/internal/config"
	"SMMAgent/internal/logging"
	"SMMAgent/internal/usecase"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "smmagent",
		Short:         "SMM agent: trend watch, post drafting, Telegram moderation and publishing",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (default $SMM_AGENT_CONFIG)")

	root.AddCommand(newServeCmd(), newRunCmd(), newMigrateCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler, the Telegram bot and the ops server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "run <job>",
		Short:     "Run one job now: " + strings.Join(usecase.JobIDs, ", "),
		Args:      cobra.ExactArgs(1),
		ValidArgs: usecase.JobIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			a, err := build(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.RunJob(ctx, args[0])
			if err != nil {
				return err
			}
			if report.Err != nil {
				return fmt.Errorf("%s failed after %s: %w", report.Job, report.Took.Round(time.Millisecond), report.Err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%s)\n", report.Job, report.Summary, report.Took.Round(time.Millisecond))
			return nil
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the schema and seed configured projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := build(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			return nil
		},
	}
}

func serve(parent context.Context) error {
	ctx, stop := signalContext(parent)
	defer stop()

	a, err := build(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.Serve(ctx)
}

// build loads configuration and wires the application; New also migrates.
func build(ctx context.Context) (*app.Application, error) {
	if cfgFile != "" {
		if err := os.Setenv("SMM_AGENT_CONFIG", cfgFile); err != nil {
			return nil, fmt.Errorf("set config path: %w", err)
		}
	}
	cfg := config.Load()
	logger := logging.New(cfg.Logging)

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		return nil, err
	}
	return a, nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
