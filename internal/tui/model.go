// Package tui provides the Bubble Tea contest watch view.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/cfdrill/internal/clock"
	"github.com/verte-zerg/cfdrill/internal/engine"
)

// refreshEvery reloads state periodically so sessions driven by another
// process show up without a local notification.
const refreshEvery = 5

// Source is the engine surface the view reads and acts on.
type Source interface {
	State(ctx context.Context) (engine.Snapshot, error)
	ForceEnd(ctx context.Context) error
}

// Poller triggers an immediate submission poll.
type Poller interface {
	Poll(ctx context.Context) int
}

// Options configure a Model.
type Options struct {
	Context context.Context
	Source  Source
	Poller  Poller
	Events  <-chan struct{}
	Clock   clock.Clock
}

type (
	tickMsg    time.Time
	changedMsg struct{}
	stateMsg   struct {
		snap engine.Snapshot
		err  error
	}
	polledMsg struct{ added int }
	endedMsg  struct{ err error }
)

// Model implements the Bubble Tea watch UI.
type Model struct {
	ctx    context.Context
	source Source
	poller Poller
	events <-chan struct{}
	clock  clock.Clock

	snap   engine.Snapshot
	loaded bool
	errMsg string
	status string
	ticks  int

	confirmEnd bool

	table table.Model
	help  help.Model
	keys  keyMap

	width  int
	height int
}

// New constructs a watch model.
func New(opts Options) *Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.System{}
	}
	return &Model{
		ctx:    ctx,
		source: opts.Source,
		poller: opts.Poller,
		events: opts.Events,
		clock:  clk,
		table:  newProblemTable(),
		help:   help.New(),
		keys:   defaultKeyMap(),
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.load(), tick(), m.waitForChange())
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.resizeTable()
		return m, nil
	case tickMsg:
		m.ticks++
		cmds := []tea.Cmd{tick()}
		session := m.snap.Session
		expired := session.Running() && session.Remaining(m.clock.Now()) == 0
		if expired || m.ticks%refreshEvery == 0 {
			cmds = append(cmds, m.load())
		}
		return m, tea.Batch(cmds...)
	case changedMsg:
		return m, tea.Batch(m.load(), m.waitForChange())
	case stateMsg:
		m.loaded = true
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}
		m.errMsg = ""
		m.snap = msg.snap
		if !m.snap.Session.Running() {
			m.confirmEnd = false
		}
		m.table.SetRows(problemRows(m.snap.Session))
		return m, nil
	case polledMsg:
		m.status = fmt.Sprintf("Polled: %d new submission(s)", msg.added)
		return m, nil
	case endedMsg:
		m.confirmEnd = false
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}
		m.status = "Contest abandoned"
		return m, m.load()
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	if m.confirmEnd {
		switch {
		case key.Matches(msg, m.keys.Confirm):
			return m, m.forceEnd()
		case key.Matches(msg, m.keys.Cancel), key.Matches(msg, m.keys.Quit):
			m.confirmEnd = false
		}
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.End):
		if m.snap.Session.Running() {
			m.confirmEnd = true
		}
		return m, nil
	case key.Matches(msg, m.keys.Poll):
		if m.poller == nil || !m.snap.Session.Running() {
			return m, nil
		}
		m.status = "Polling…"
		return m, m.poll()
	case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) load() tea.Cmd {
	return func() tea.Msg {
		snap, err := m.source.State(m.ctx)
		return stateMsg{snap: snap, err: err}
	}
}

func (m *Model) poll() tea.Cmd {
	return func() tea.Msg {
		return polledMsg{added: m.poller.Poll(m.ctx)}
	}
}

func (m *Model) forceEnd() tea.Cmd {
	return func() tea.Msg {
		return endedMsg{err: m.source.ForceEnd(m.ctx)}
	}
}

// waitForChange blocks on the engine broadcast; a closed channel stops it.
func (m *Model) waitForChange() tea.Cmd {
	if m.events == nil {
		return nil
	}
	events := m.events
	return func() tea.Msg {
		if _, ok := <-events; !ok {
			return nil
		}
		return changedMsg{}
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
