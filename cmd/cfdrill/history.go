package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/cfdrill/internal/stats"
)

const (
	defaultStatsWindow = 5
	defaultStatsTop    = 5
)

var (
	historyFormat string
	historyLimit  int

	statsLast   int
	statsWindow int
	statsTop    int
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List finished contests, most recent first",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().StringVar(&historyFormat, "format", formatText, "output format: text, json or yaml")
	cmd.Flags().IntVar(&historyLimit, "limit", 0, "show at most N contests (0 = all)")
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete contest history (problems stay excluded from future contests)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), os.Stderr)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.engine.ClearHistory(cmd.Context()); err != nil {
				return fmt.Errorf("failed to clear history: %w", err)
			}
			return writeLine(cmd.OutOrStdout(), "History cleared.")
		},
	})
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	if historyLimit < 0 {
		return fmt.Errorf("--limit must be >= 0")
	}
	a, err := openApp(cmd.Context(), os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	history, err := a.engine.History(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	if historyLimit > 0 && len(history) > historyLimit {
		history = history[:historyLimit]
	}
	if historyFormat == formatText {
		return stats.RenderHistory(cmd.OutOrStdout(), history, a.clock.Now())
	}
	return writeStructured(cmd.OutOrStdout(), historyFormat, history)
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show solve-rate trends and weakest tags across history",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N contests")
	cmd.Flags().IntVar(&statsWindow, "window", defaultStatsWindow, "moving average window")
	cmd.Flags().IntVar(&statsTop, "top", defaultStatsTop, "number of tags to list")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	if statsLast < 0 || statsWindow < 0 || statsTop < 0 {
		return fmt.Errorf("--last, --window and --top must be >= 0")
	}
	a, err := openApp(cmd.Context(), os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := stats.BuildReport(cmd.Context(), a.engine, stats.ReportConfig{
		Last:   statsLast,
		Window: statsWindow,
		Top:    statsTop,
	})
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	return report.Render(cmd.OutOrStdout())
}
