package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/cfdrill/internal/config"
	"github.com/verte-zerg/cfdrill/internal/model"
	"github.com/verte-zerg/cfdrill/internal/stats"
	"github.com/verte-zerg/cfdrill/internal/tui"
)

const (
	defaultDuration   = 120
	defaultProblems   = 4
	defaultType       = model.TypeGeneral
	defaultDifficulty = "general"
)

var (
	watchHeadless bool

	startDuration   int
	startProblems   int
	startType       string
	startTags       []string
	startDifficulty string
	startHandle     string
	startDetach     bool

	statusFormat string
)

func addWatchFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&watchHeadless, "headless", false, "run schedules without the UI until the contest ends")
}

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the running contest and poll submissions",
		Args:  cobra.NoArgs,
		RunE:  runWatchCmd,
	}
	addWatchFlags(cmd)
	return cmd
}

func runWatchCmd(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	useUI := !watchHeadless && isTerminal(os.Stdout)
	logOut, closeLog, err := watchLogOutput(useUI)
	if err != nil {
		return err
	}
	defer closeLog()

	a, err := openApp(ctx, logOut)
	if err != nil {
		return err
	}
	defer a.Close()
	return a.watch(ctx, cmd.OutOrStdout(), useUI)
}

// watch re-arms schedules for a running session, runs the poller and either
// the full-screen view or a headless wait until the contest is over.
func (a *app) watch(ctx context.Context, out io.Writer, useUI bool) error {
	session, err := a.engine.Resume(ctx)
	if err != nil {
		return fmt.Errorf("failed to resume contest: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go a.poller.Run(ctx, a.runner.Fires())

	events, unsubscribe := a.engine.Subscribe()
	defer unsubscribe()

	if useUI {
		view := tui.New(tui.Options{
			Context: ctx,
			Source:  a.engine,
			Poller:  a.poller,
			Events:  events,
			Clock:   a.clock,
		})
		program := tea.NewProgram(view, tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("failed to run TUI: %w", err)
		}
		return nil
	}

	if !session.Running() {
		return writeLine(out, "No contest running.")
	}
	a.logger.Info("watch_started", "session_id", session.ID, "end_time", session.EndTime)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-events:
			snap, err := a.engine.State(ctx)
			if err != nil {
				a.logger.Warn("watch_state_failed", "error", err)
				continue
			}
			if stats.ShowResults(snap.Session) || !snap.Session.Running() {
				return renderStatus(out, snap.Session, a.clock.Now())
			}
		}
	}
}

func watchLogOutput(useUI bool) (io.Writer, func(), error) {
	if !useUI {
		return os.Stderr, func() {}, nil
	}
	path := config.DefaultLogPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, func() {
		if cerr := f.Close(); cerr != nil {
			// Best-effort close of the log file.
			_ = cerr
		}
	}, nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func newStartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a new practice contest",
		Args:  cobra.NoArgs,
		RunE:  runStartCmd,
	}
	cmd.Flags().IntVar(&startDuration, "duration", defaultDuration, "contest duration in minutes")
	cmd.Flags().IntVar(&startProblems, "problems", defaultProblems, "number of problems (1-26)")
	cmd.Flags().StringVar(&startType, "type", defaultType, "contest type: general, topic or mixed")
	cmd.Flags().StringSliceVar(&startTags, "tags", nil, "comma-separated problem tags for topic/mixed contests")
	cmd.Flags().StringVar(&startDifficulty, "difficulty", defaultDifficulty, "general, easy, medium, hard or veryhard")
	cmd.Flags().StringVar(&startHandle, "handle", "", "judge handle (default: stored settings)")
	cmd.Flags().BoolVar(&startDetach, "detach", false, "do not open the watch view after starting")
	return cmd
}

func runStartCmd(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	useUI := !startDetach && isTerminal(os.Stdout)
	logOut, closeLog, err := watchLogOutput(useUI)
	if err != nil {
		return err
	}
	defer closeLog()

	a, err := openApp(ctx, logOut)
	if err != nil {
		return err
	}
	defer a.Close()

	req := resolveStartRequest(cmd, a.cfg.Contest)
	if err := req.Validate(); err != nil {
		return err
	}
	session, err := a.engine.Start(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to start contest: %w", err)
	}
	if len(session.Problems) < req.NumProblems {
		logErrf("Only %d of %d problems matched the filters.\n", len(session.Problems), req.NumProblems)
	}
	if !useUI {
		return renderStatus(cmd.OutOrStdout(), session, a.clock.Now())
	}
	return a.watch(ctx, cmd.OutOrStdout(), true)
}

// resolveStartRequest layers config defaults under explicitly set flags.
func resolveStartRequest(cmd *cobra.Command, cfg config.ContestConfig) model.ContestRequest {
	applyIntConfig(cmd, "duration", &startDuration, cfg.Duration)
	applyIntConfig(cmd, "problems", &startProblems, cfg.Problems)
	applyStringConfig(cmd, "type", &startType, cfg.Type)
	applyStringConfig(cmd, "difficulty", &startDifficulty, cfg.Difficulty)
	applyStringSliceConfig(cmd, "tags", &startTags, cfg.Tags)
	return model.ContestRequest{
		DurationMinutes: startDuration,
		NumProblems:     startProblems,
		Type:            strings.ToLower(strings.TrimSpace(startType)),
		Tags:            append([]string(nil), startTags...),
		Difficulty:      startDifficulty,
		Handle:          strings.TrimSpace(startHandle),
	}
}

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current contest",
		Args:  cobra.NoArgs,
		RunE:  runStatusCmd,
	}
	cmd.Flags().StringVar(&statusFormat, "format", formatText, "output format: text, json or yaml")
	return cmd
}

func runStatusCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context(), os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	snap, err := a.engine.State(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read state: %w", err)
	}
	if statusFormat == formatText {
		return renderStatus(cmd.OutOrStdout(), snap.Session, a.clock.Now())
	}
	view := statusView{Session: snap.Session, Settings: snap.Settings}
	if snap.Session != nil {
		sum := stats.Summarize(snap.Session)
		view.Summary = &sum
		view.RemainingSec = int64(snap.Session.Remaining(a.clock.Now()) / time.Second)
	}
	return writeStructured(cmd.OutOrStdout(), statusFormat, view)
}

type statusView struct {
	Session      *model.ContestSession `json:"session" yaml:"session"`
	Settings     model.Settings        `json:"settings" yaml:"settings"`
	Summary      *stats.Summary        `json:"summary,omitempty" yaml:"summary,omitempty"`
	RemainingSec int64                 `json:"remaining_sec" yaml:"remaining_sec"`
}

// renderStatus prints a session as plain text.
func renderStatus(w io.Writer, session *model.ContestSession, now time.Time) error {
	if session == nil {
		return writeLine(w, "No contest running.")
	}
	lines := []string{}
	if stats.ShowResults(session) {
		sum := stats.Summarize(session)
		lines = append(lines,
			fmt.Sprintf("Contest %s", session.Status),
			fmt.Sprintf("Total problems: %d", sum.Total),
			fmt.Sprintf("Solved: %d", sum.Solved),
			fmt.Sprintf("Total attempts: %d", sum.Attempts),
			fmt.Sprintf("Success rate: %d%%", sum.SuccessRate),
		)
	} else {
		remaining := session.Remaining(now)
		countdown := stats.FormatCountdown(remaining)
		if stats.IsWarning(remaining) {
			countdown += " (hurry up)"
		}
		lines = append(lines, fmt.Sprintf("Contest running, %s left", countdown))
	}
	for _, kv := range stats.Details(session.Config) {
		if kv[1] != "" {
			lines = append(lines, fmt.Sprintf("%s: %s", kv[0], kv[1]))
		}
	}
	lines = append(lines, "")
	for _, p := range session.Problems {
		rating := "-"
		if p.Rating != nil {
			rating = strconv.Itoa(*p.Rating)
		}
		lines = append(lines, fmt.Sprintf("%s  %-9s %-8s %5s  %s  %s",
			p.Key, stats.ProblemBadge(p), p.ID(), rating, p.Title, p.URL))
	}
	for _, line := range lines {
		if err := writeLine(w, line); err != nil {
			return err
		}
	}
	return nil
}

func newEndCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "end",
		Short: "Abandon the current contest without saving it to history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), os.Stderr)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.engine.ForceEnd(cmd.Context()); err != nil {
				return fmt.Errorf("failed to end contest: %w", err)
			}
			return writeLine(cmd.OutOrStdout(), "Contest abandoned.")
		},
	}
}

func newPollCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "poll",
		Short: "Fetch submissions for the running contest now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), os.Stderr)
			if err != nil {
				return err
			}
			defer a.Close()
			added := a.poller.Poll(cmd.Context())
			return writeLine(cmd.OutOrStdout(), fmt.Sprintf("%d new submission(s) recorded.", added))
		},
	}
}
