// Package schedule arms the recurring poll and the one-shot contest deadline.
// Fires are hints delivered on a channel; consumers re-derive truth on receipt.
package schedule

import (
	"log/slog"
	"sync"
	"time"
)

// Kind identifies which schedule fired.
type Kind int

const (
	Poll Kind = iota + 1
	Deadline
)

func (k Kind) String() string {
	switch k {
	case Poll:
		return "poll"
	case Deadline:
		return "deadline"
	default:
		return "unknown"
	}
}

// Fire is a single schedule event.
type Fire struct {
	Kind Kind
	At   time.Time
}

// Plan is the desired set of schedules. Zero fields disarm that kind.
type Plan struct {
	PollEvery time.Duration
	Deadline  time.Time
}

const fireBuffer = 8

// Runner owns the armed timers.
type Runner struct {
	mu       sync.Mutex
	fires    chan Fire
	stopPoll chan struct{}
	deadline *time.Timer
	closed   bool
	logger   *slog.Logger
}

// New returns an idle Runner.
func New(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		fires:  make(chan Fire, fireBuffer),
		logger: logger,
	}
}

// Fires returns the channel schedule events are delivered on.
func (r *Runner) Fires() <-chan Fire {
	return r.fires
}

// Apply replaces every armed schedule with the ones described by p.
func (r *Runner) Apply(p Plan) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.clearLocked()

	if p.PollEvery > 0 {
		stop := make(chan struct{})
		r.stopPoll = stop
		go r.pollLoop(p.PollEvery, stop)
	}
	if !p.Deadline.IsZero() {
		delay := time.Until(p.Deadline)
		if delay < 0 {
			delay = 0
		}
		r.deadline = time.AfterFunc(delay, func() {
			r.emit(Fire{Kind: Deadline, At: time.Now()})
		})
	}
	r.logger.Debug("schedules_applied", "poll_every", p.PollEvery, "deadline", p.Deadline)
}

// Clear disarms every schedule.
func (r *Runner) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearLocked()
}

// Close disarms every schedule; later Apply calls are ignored.
func (r *Runner) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearLocked()
	r.closed = true
}

func (r *Runner) clearLocked() {
	if r.stopPoll != nil {
		close(r.stopPoll)
		r.stopPoll = nil
	}
	if r.deadline != nil {
		r.deadline.Stop()
		r.deadline = nil
	}
}

func (r *Runner) pollLoop(every time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case at := <-ticker.C:
			r.emit(Fire{Kind: Poll, At: at})
		}
	}
}

func (r *Runner) emit(f Fire) {
	select {
	case r.fires <- f:
	default:
		r.logger.Debug("schedule_fire_dropped", "kind", f.Kind.String())
	}
}
