// Package poller drives the background work of a running contest: pulling
// fresh submissions and re-checking the deadline when a schedule fires.
package poller

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/verte-zerg/cfdrill/internal/engine"
	"github.com/verte-zerg/cfdrill/internal/judge"
	"github.com/verte-zerg/cfdrill/internal/schedule"
)

// Engine is the part of the session engine the poller drives.
type Engine interface {
	State(ctx context.Context) (engine.Snapshot, error)
	Reconcile(ctx context.Context, subs []judge.Submission) (int, error)
	CheckExpiry(ctx context.Context) (bool, error)
}

// Fetcher lists the submissions of a handle.
type Fetcher interface {
	FetchSubmissions(ctx context.Context, handle string) ([]judge.Submission, error)
}

// Poller reconciles judge submissions into the running session.
type Poller struct {
	engine  Engine
	fetcher Fetcher
	logger  *slog.Logger
}

// New returns a Poller.
func New(eng Engine, fetcher Fetcher, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{engine: eng, fetcher: fetcher, logger: logger}
}

// Poll fetches submissions for the running session's handle and reconciles
// them. Failures are logged and swallowed so the recurring schedule keeps
// going. It returns the number of newly recorded submissions.
func (p *Poller) Poll(ctx context.Context) int {
	snap, err := p.engine.State(ctx)
	if err != nil {
		p.logger.Warn("poll_state_failed", "error", err)
		return 0
	}
	session := snap.Session
	if !session.Running() || session.Config.Handle == "" {
		return 0
	}
	subs, err := p.fetcher.FetchSubmissions(ctx, session.Config.Handle)
	if err != nil {
		p.logger.Warn("poll_fetch_failed", "handle", session.Config.Handle, "error", err)
		return 0
	}
	added, err := p.engine.Reconcile(ctx, subs)
	if err != nil {
		p.logger.Warn("poll_reconcile_failed", "session_id", session.ID, "error", err)
		return 0
	}
	if added > 0 {
		p.logger.Info("submissions_recorded", "session_id", session.ID, "added", added)
	}
	return added
}

// Run dispatches schedule fires one at a time until ctx is done or fires is
// closed. A failing or panicking dispatch never stops the loop.
func (p *Poller) Run(ctx context.Context, fires <-chan schedule.Fire) {
	for {
		select {
		case <-ctx.Done():
			return
		case fire, ok := <-fires:
			if !ok {
				return
			}
			p.dispatch(ctx, fire)
		}
	}
}

func (p *Poller) dispatch(ctx context.Context, fire schedule.Fire) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("schedule_dispatch_panic", "kind", fire.Kind.String(), "panic", fmt.Sprint(r))
		}
	}()
	switch fire.Kind {
	case schedule.Poll:
		p.Poll(ctx)
	case schedule.Deadline:
		ended, err := p.engine.CheckExpiry(ctx)
		if err != nil {
			p.logger.Warn("deadline_check_failed", "error", err)
			return
		}
		if ended {
			p.logger.Info("deadline_reached")
		}
	default:
		p.logger.Debug("schedule_fire_ignored", "kind", fire.Kind.String())
	}
}
