// Package main provides the CLI entrypoint for cfdrill.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/cfdrill/internal/clock"
	"github.com/verte-zerg/cfdrill/internal/config"
	"github.com/verte-zerg/cfdrill/internal/engine"
	"github.com/verte-zerg/cfdrill/internal/judge"
	"github.com/verte-zerg/cfdrill/internal/poller"
	"github.com/verte-zerg/cfdrill/internal/schedule"
	"github.com/verte-zerg/cfdrill/internal/selector"
	"github.com/verte-zerg/cfdrill/internal/store"
)

var dbPath string

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "cfdrill",
		Short:         "Timed randomized Codeforces practice contests",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runWatchCmd,
	}
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to the state database (default: XDG data dir)")
	addWatchFlags(rootCmd)

	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newStartCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newEndCmd())
	rootCmd.AddCommand(newPollCmd())
	rootCmd.AddCommand(newSettingsCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newIntentCmd())

	return rootCmd
}

// app holds the wired components shared by every command.
type app struct {
	cfg    config.FileConfig
	logger *slog.Logger
	store  *store.Store
	judge  *judge.Client
	runner *schedule.Runner
	engine *engine.Engine
	poller *poller.Poller
	clock  clock.Clock
}

// openApp loads config, opens the store and wires the engine. Logs go to
// logOut.
func openApp(ctx context.Context, logOut io.Writer) (*app, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	level, err := fileCfg.LogLevel()
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level}))

	path := dbPath
	if path == "" {
		path = config.DefaultDBPath()
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	client := judge.New(judgeOptions(fileCfg.Judge, logger)...)
	runner := schedule.New(logger)
	clk := clock.System{}
	eng := engine.New(engine.Deps{
		Store:     st,
		Judge:     client,
		Scheduler: runner,
		Sampler:   selector.NewSampler(),
		Clock:     clk,
		Logger:    logger,
	})
	if err := eng.Bootstrap(ctx); err != nil {
		runner.Close()
		if cerr := st.Close(); cerr != nil {
			// Best-effort close on bootstrap failure.
			_ = cerr
		}
		return nil, fmt.Errorf("failed to initialize settings: %w", err)
	}
	return &app{
		cfg:    fileCfg,
		logger: logger,
		store:  st,
		judge:  client,
		runner: runner,
		engine: eng,
		poller: poller.New(eng, client, logger),
		clock:  clk,
	}, nil
}

func (a *app) Close() {
	a.runner.Close()
	if err := a.store.Close(); err != nil {
		logErrf("failed to close db: %v\n", err)
	}
}

func judgeOptions(cfg config.JudgeConfig, logger *slog.Logger) []judge.Option {
	opts := []judge.Option{judge.WithLogger(logger)}
	if cfg.BaseURL != nil && *cfg.BaseURL != "" {
		opts = append(opts, judge.WithBaseURL(*cfg.BaseURL))
	}
	if cfg.TimeoutSec != nil && *cfg.TimeoutSec > 0 {
		opts = append(opts, judge.WithTimeout(time.Duration(*cfg.TimeoutSec)*time.Second))
	}
	if cfg.Retries != nil {
		opts = append(opts, judge.WithRetries(*cfg.Retries))
	}
	if cfg.BackoffMs != nil && *cfg.BackoffMs >= 0 {
		opts = append(opts, judge.WithBackoff(time.Duration(*cfg.BackoffMs)*time.Millisecond))
	}
	return opts
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
