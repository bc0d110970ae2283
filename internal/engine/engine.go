// Package engine owns the contest session lifecycle: start, poll
// reconciliation, expiry and archival. It is the only writer of persisted
// state; observers read snapshots and subscribe to change signals.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/cfdrill/internal/clock"
	"github.com/verte-zerg/cfdrill/internal/judge"
	"github.com/verte-zerg/cfdrill/internal/model"
	"github.com/verte-zerg/cfdrill/internal/schedule"
	"github.com/verte-zerg/cfdrill/internal/selector"
)

// Store persists the engine aggregates.
type Store interface {
	Settings(ctx context.Context) (model.Settings, error)
	HasSettings(ctx context.Context) (bool, error)
	SaveSettings(ctx context.Context, settings model.Settings) error
	BanList(ctx context.Context) (model.BanList, error)
	SaveBanList(ctx context.Context, ban model.BanList) error
	History(ctx context.Context) ([]model.HistoryEntry, error)
	SaveHistory(ctx context.Context, history []model.HistoryEntry) error
	Session(ctx context.Context) (*model.ContestSession, error)
	SaveSession(ctx context.Context, session *model.ContestSession) error
	ClearSession(ctx context.Context) error
}

// Judge is the remote judge API.
type Judge interface {
	FetchCatalog(ctx context.Context) ([]judge.Problem, error)
	SolvedSet(ctx context.Context, handle string) (map[string]struct{}, error)
	ProblemURL(contestID int, index string) string
}

// Scheduler reconciles armed timers to a desired plan.
type Scheduler interface {
	Apply(p schedule.Plan)
	Clear()
}

// Sampler draws problems from an eligible pool.
type Sampler interface {
	Sample(pool []judge.Problem, count int) []judge.Problem
}

// Deps are the collaborators of an Engine.
type Deps struct {
	Store     Store
	Judge     Judge
	Scheduler Scheduler
	Sampler   Sampler
	Clock     clock.Clock
	Logger    *slog.Logger
}

// Snapshot is what observers see: the current session (nil when idle) and
// the effective settings.
type Snapshot struct {
	Session  *model.ContestSession
	Settings model.Settings
}

// Engine is the contest state machine.
type Engine struct {
	mu        sync.Mutex
	store     Store
	judge     Judge
	scheduler Scheduler
	sampler   Sampler
	clock     clock.Clock
	logger    *slog.Logger
	events    *broadcaster
}

// New wires an Engine. Sampler, Clock and Logger fall back to defaults.
func New(deps Deps) *Engine {
	e := &Engine{
		store:     deps.Store,
		judge:     deps.Judge,
		scheduler: deps.Scheduler,
		sampler:   deps.Sampler,
		clock:     deps.Clock,
		logger:    deps.Logger,
		events:    newBroadcaster(),
	}
	if e.sampler == nil {
		e.sampler = selector.NewSampler()
	}
	if e.clock == nil {
		e.clock = clock.System{}
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Subscribe returns a channel that receives a signal after every state
// change, and a function that ends the subscription.
func (e *Engine) Subscribe() (<-chan struct{}, func()) {
	return e.events.subscribe()
}

// Bootstrap writes default settings on first run.
func (e *Engine) Bootstrap(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	has, err := e.store.HasSettings(ctx)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	return e.store.SaveSettings(ctx, model.DefaultSettings())
}

// Start builds a new problem set and begins a running session, superseding
// any current one. On failure nothing is written.
func (e *Engine) Start(ctx context.Context, req model.ContestRequest) (*model.ContestSession, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// Fetch without the lock; only the read-modify-write below holds it.
	stored, err := e.store.Settings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	handle := strings.TrimSpace(req.Handle)
	if handle == "" {
		handle = stored.Handle
	}

	var (
		solved  map[string]struct{}
		catalog []judge.Problem
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		solved, err = e.judge.SolvedSet(gctx, handle)
		return err
	})
	g.Go(func() error {
		var err error
		catalog, err = e.judge.FetchCatalog(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, &SelectionError{Err: err}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	settings, err := e.store.Settings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	ban, err := e.store.BanList(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ban list: %w", err)
	}

	banned := map[string]struct{}{}
	if settings.NoDuplicateAcrossContests {
		banned = ban.Set()
	}
	pool := selector.SelectPool(catalog, selector.Criteria{
		Solved:     solved,
		Banned:     banned,
		Type:       req.Type,
		Tags:       req.Tags,
		Difficulty: req.Difficulty,
	})
	chosen := e.sampler.Sample(pool, req.NumProblems)
	if len(chosen) < req.NumProblems {
		e.logger.Warn("short_problem_pool", "requested", req.NumProblems, "available", len(pool))
	}

	start := time.UnixMilli(e.clock.Now().UnixMilli()).UTC()
	cfg := req
	cfg.Handle = handle
	cfg.Tags = append([]string(nil), req.Tags...)
	session := &model.ContestSession{
		ID:        uuid.NewString(),
		Status:    model.StatusRunning,
		StartTime: start,
		EndTime:   start.Add(req.Duration()),
		Config:    cfg,
		Problems:  make([]model.SessionProblem, 0, len(chosen)),
	}
	for i, p := range chosen {
		session.Problems = append(session.Problems, model.SessionProblem{
			ProblemRef: model.ProblemRef{
				ContestID: p.ContestID,
				Index:     p.Index,
				Rating:    p.Rating,
				Tags:      append([]string{}, p.Tags...),
				Title:     p.Name,
				URL:       e.judge.ProblemURL(p.ContestID, p.Index),
			},
			Key:         selector.DisplayKey(i),
			Submissions: []model.Submission{},
		})
	}

	if err := e.store.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	e.armLocked(session, settings)
	e.logger.Info("contest_started", "session_id", session.ID, "problems", len(session.Problems), "end_time", session.EndTime)
	e.events.notify()
	return session.Clone(), nil
}

// CheckExpiry ends and archives a running session whose deadline has
// passed. It reports whether a transition happened; repeated calls after
// the deadline are no-ops.
func (e *Engine) CheckExpiry(ctx context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.expireLocked(ctx)
}

func (e *Engine) expireLocked(ctx context.Context) (bool, error) {
	session, err := e.store.Session(ctx)
	if err != nil {
		return false, fmt.Errorf("load session: %w", err)
	}
	if !session.Running() {
		return false, nil
	}
	now := e.clock.Now()
	if now.Before(session.EndTime) {
		return false, nil
	}

	session.Status = model.StatusEnded
	if err := e.store.SaveSession(ctx, session); err != nil {
		return false, fmt.Errorf("save ended session: %w", err)
	}
	// Session, then history, then ban list: a crash between writes leaves
	// them out of step and nothing repairs it.
	if err := e.archiveLocked(ctx, session, now); err != nil {
		return true, err
	}
	if e.scheduler != nil {
		e.scheduler.Clear()
	}
	e.logger.Info("contest_ended", "session_id", session.ID)
	e.events.notify()
	return true, nil
}

func (e *Engine) archiveLocked(ctx context.Context, session *model.ContestSession, now time.Time) error {
	history, err := e.store.History(ctx)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	entry := model.HistoryEntry{
		ID:      uuid.NewString(),
		Session: *session.Clone(),
		SavedAt: now.UTC(),
	}
	history = append([]model.HistoryEntry{entry}, history...)
	if err := e.store.SaveHistory(ctx, history); err != nil {
		return fmt.Errorf("save history: %w", err)
	}

	ban, err := e.store.BanList(ctx)
	if err != nil {
		return fmt.Errorf("load ban list: %w", err)
	}
	if err := e.store.SaveBanList(ctx, ban.Merge(session.ProblemIDs())); err != nil {
		return fmt.Errorf("save ban list: %w", err)
	}
	return nil
}

// Reconcile records fresh submissions against the running session and
// returns how many were new. It persists and notifies only when that count
// is positive.
func (e *Engine) Reconcile(ctx context.Context, subs []judge.Submission) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	session, err := e.store.Session(ctx)
	if err != nil {
		return 0, fmt.Errorf("load session: %w", err)
	}
	if !session.Running() || session.Config.Handle == "" {
		return 0, nil
	}

	byID := make(map[string]*model.SessionProblem, len(session.Problems))
	for i := range session.Problems {
		byID[session.Problems[i].ID()] = &session.Problems[i]
	}

	added := 0
	for _, sub := range subs {
		problem, ok := byID[sub.Problem.ID()]
		if !ok {
			continue
		}
		at := time.Unix(sub.CreationTimeSeconds, 0).UTC()
		if at.Before(session.StartTime) || at.After(session.EndTime) {
			continue
		}
		if problem.HasSubmission(sub.ID) {
			continue
		}
		verdict := sub.Verdict
		if verdict == "" {
			verdict = model.VerdictUnknown
		}
		problem.Submissions = append(problem.Submissions, model.Submission{ID: sub.ID, Time: at, Verdict: verdict})
		if sub.Verdict == judge.VerdictOK {
			problem.Verdict = model.VerdictAccepted
		}
		added++
	}
	if added == 0 {
		return 0, nil
	}

	if err := e.store.SaveSession(ctx, session); err != nil {
		return 0, fmt.Errorf("save session: %w", err)
	}
	e.logger.Debug("submissions_reconciled", "session_id", session.ID, "added", added)
	e.events.notify()
	return added, nil
}

// ForceEnd abandons the current session without archiving it.
func (e *Engine) ForceEnd(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.scheduler != nil {
		e.scheduler.Clear()
	}
	if err := e.store.ClearSession(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	e.logger.Info("contest_abandoned")
	e.events.notify()
	return nil
}

// State returns the current snapshot after applying the lazy expiry check.
func (e *Engine) State(ctx context.Context) (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.expireLocked(ctx); err != nil {
		return Snapshot{}, err
	}
	session, err := e.store.Session(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load session: %w", err)
	}
	settings, err := e.store.Settings(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load settings: %w", err)
	}
	return Snapshot{Session: session, Settings: settings}, nil
}

// Resume re-arms schedules for a session that is still running, typically
// after a process restart. The stored end time is kept as is.
func (e *Engine) Resume(ctx context.Context) (*model.ContestSession, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.expireLocked(ctx); err != nil {
		return nil, err
	}
	session, err := e.store.Session(ctx)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !session.Running() {
		return session, nil
	}
	settings, err := e.store.Settings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	e.armLocked(session, settings)
	e.logger.Info("contest_resumed", "session_id", session.ID, "remaining", session.Remaining(e.clock.Now()))
	return session, nil
}

func (e *Engine) armLocked(session *model.ContestSession, settings model.Settings) {
	if e.scheduler == nil {
		return
	}
	e.scheduler.Apply(schedule.Plan{
		PollEvery: settings.PollPeriod(),
		Deadline:  session.EndTime,
	})
}

// SaveSettings merges patch over the stored settings and persists them.
func (e *Engine) SaveSettings(ctx context.Context, patch model.SettingsPatch) (model.Settings, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	current, err := e.store.Settings(ctx)
	if err != nil {
		return model.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	merged := patch.Apply(current)
	if err := e.store.SaveSettings(ctx, merged); err != nil {
		return model.Settings{}, fmt.Errorf("save settings: %w", err)
	}
	e.events.notify()
	return merged, nil
}

// History returns archived sessions, most recent first.
func (e *Engine) History(ctx context.Context) ([]model.HistoryEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.History(ctx)
}

// ClearHistory empties the history list. The ban list is kept.
func (e *Engine) ClearHistory(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.store.SaveHistory(ctx, nil); err != nil {
		return err
	}
	e.events.notify()
	return nil
}
