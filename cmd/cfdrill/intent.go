package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/cfdrill/internal/intent"
)

func newIntentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "intent",
		Short: "Serve JSON intents from stdin, one response per request on stdout",
		Long: `Reads {"type": ..., "payload": ...} messages from stdin and writes one
{"ok": ..., "error": ..., ...} response per message to stdout.

Types: get_state, start_contest, end_contest_force, save_settings,
get_history, clear_history.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), os.Stderr)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.serveIntents(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

// serveIntents answers intents from in until it closes. Poll and deadline
// schedules armed by a started or resumed contest are handled meanwhile.
func (a *app) serveIntents(ctx context.Context, in io.Reader, out io.Writer) error {
	if _, err := a.engine.Resume(ctx); err != nil {
		return fmt.Errorf("failed to resume contest: %w", err)
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go a.poller.Run(ctx, a.runner.Fires())

	h := intent.NewHandler(a.engine, a.logger)
	return h.Serve(ctx, in, out)
}
