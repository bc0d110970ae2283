package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/cfdrill/internal/engine"
	"github.com/verte-zerg/cfdrill/internal/model"
)

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

type stubSource struct {
	snap   engine.Snapshot
	err    error
	ended  int
	endErr error
}

func (s *stubSource) State(context.Context) (engine.Snapshot, error) { return s.snap, s.err }

func (s *stubSource) ForceEnd(context.Context) error {
	s.ended++
	return s.endErr
}

type stubPoller struct{ calls int }

func (p *stubPoller) Poll(context.Context) int {
	p.calls++
	return 2
}

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func testSession(status model.Status, remaining time.Duration) *model.ContestSession {
	rating := 1400
	end := testNow.Add(remaining)
	return &model.ContestSession{
		ID:        "s1",
		Status:    status,
		StartTime: end.Add(-90 * time.Minute),
		EndTime:   end,
		Config:    model.ContestConfig{DurationMinutes: 90, NumProblems: 3, Type: "topic", Difficulty: "medium", Handle: "tourist"},
		Problems: []model.SessionProblem{
			{
				ProblemRef:  model.ProblemRef{ContestID: 1, Index: "A", Rating: &rating, Title: "Watermelon", Tags: []string{"math"}},
				Key:         "A",
				Verdict:     model.VerdictAccepted,
				Submissions: []model.Submission{{ID: 1, Verdict: "OK"}},
			},
			{
				ProblemRef:  model.ProblemRef{ContestID: 2, Index: "B", Title: "Way Too Long"},
				Key:         "B",
				Submissions: []model.Submission{{ID: 2, Verdict: "WRONG_ANSWER"}},
			},
			{
				ProblemRef:  model.ProblemRef{ContestID: 3, Index: "C", Title: "Team"},
				Key:         "C",
				Submissions: []model.Submission{},
			},
		},
	}
}

func newTestModel(src *stubSource, poller Poller) *Model {
	m := New(Options{Source: src, Poller: poller, Clock: fixedClock(testNow)})
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m
}

func loadInto(t *testing.T, m *Model) {
	t.Helper()
	msg := m.load()()
	m.Update(msg)
}

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestViewBeforeLoad(t *testing.T) {
	m := newTestModel(&stubSource{}, nil)
	if !strings.Contains(m.View(), "Loading") {
		t.Fatalf("expected loading view, got %q", m.View())
	}
}

func TestViewIdle(t *testing.T) {
	m := newTestModel(&stubSource{}, nil)
	loadInto(t, m)
	if !strings.Contains(m.View(), "No contest running.") {
		t.Fatalf("expected idle view, got %q", m.View())
	}
}

func TestViewRunning(t *testing.T) {
	src := &stubSource{snap: engine.Snapshot{Session: testSession(model.StatusRunning, 10*time.Minute)}}
	m := newTestModel(src, nil)
	loadInto(t, m)
	out := m.View()
	if !containsAll(out, []string{"Contest running", "00:10:00", "1H 30M", "Topic", "Medium", "tourist", "Watermelon", "1400", "AC", "Attempted", "Pending"}) {
		t.Fatalf("running view missing expected segments: %s", out)
	}
}

func TestViewResultsWhenEnded(t *testing.T) {
	src := &stubSource{snap: engine.Snapshot{Session: testSession(model.StatusEnded, -time.Minute)}}
	m := newTestModel(src, nil)
	loadInto(t, m)
	out := m.View()
	if !containsAll(out, []string{"Contest finished", "Total problems", "3", "Success rate", "33%", "Total attempts"}) {
		t.Fatalf("results view missing expected segments: %s", out)
	}
}

func TestViewResultsWhenAllSolved(t *testing.T) {
	session := testSession(model.StatusRunning, time.Hour)
	session.Problems = session.Problems[:1]
	m := newTestModel(&stubSource{snap: engine.Snapshot{Session: session}}, nil)
	loadInto(t, m)
	if !containsAll(m.View(), []string{"All problems solved", "100%"}) {
		t.Fatalf("expected all-solved results: %s", m.View())
	}
}

func TestLoadErrorIsShown(t *testing.T) {
	m := newTestModel(&stubSource{err: errors.New("db locked")}, nil)
	loadInto(t, m)
	if !strings.Contains(m.View(), "Error: db locked") {
		t.Fatalf("expected error in view: %s", m.View())
	}
}

func TestAbandonRequiresConfirmation(t *testing.T) {
	src := &stubSource{snap: engine.Snapshot{Session: testSession(model.StatusRunning, time.Hour)}}
	m := newTestModel(src, nil)
	loadInto(t, m)

	m.Update(keyPress("x"))
	if !m.confirmEnd || !strings.Contains(m.View(), "Abandon this contest") {
		t.Fatalf("expected confirmation prompt")
	}
	m.Update(keyPress("n"))
	if m.confirmEnd {
		t.Fatalf("expected prompt dismissed")
	}

	m.Update(keyPress("x"))
	_, cmd := m.Update(keyPress("y"))
	if cmd == nil {
		t.Fatalf("expected force-end command")
	}
	msg := cmd()
	if _, ok := msg.(endedMsg); !ok {
		t.Fatalf("expected endedMsg, got %T", msg)
	}
	if src.ended != 1 {
		t.Fatalf("expected ForceEnd to be called once, got %d", src.ended)
	}
	m.Update(msg)
	if m.confirmEnd || m.status != "Contest abandoned" {
		t.Fatalf("unexpected state after end: confirm=%v status=%q", m.confirmEnd, m.status)
	}
}

func TestAbandonIgnoredWhenNotRunning(t *testing.T) {
	m := newTestModel(&stubSource{snap: engine.Snapshot{Session: testSession(model.StatusEnded, -time.Minute)}}, nil)
	loadInto(t, m)
	m.Update(keyPress("x"))
	if m.confirmEnd {
		t.Fatalf("ended sessions cannot be abandoned")
	}
}

func TestPollKey(t *testing.T) {
	src := &stubSource{snap: engine.Snapshot{Session: testSession(model.StatusRunning, time.Hour)}}
	poller := &stubPoller{}
	m := newTestModel(src, poller)
	loadInto(t, m)

	_, cmd := m.Update(keyPress("p"))
	if cmd == nil {
		t.Fatalf("expected poll command")
	}
	m.Update(cmd())
	if poller.calls != 1 || !strings.Contains(m.View(), "Polled: 2 new submission(s)") {
		t.Fatalf("unexpected poll outcome: calls=%d view=%s", poller.calls, m.View())
	}
}

func TestQuitKey(t *testing.T) {
	m := newTestModel(&stubSource{}, nil)
	_, cmd := m.Update(keyPress("q"))
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}

func TestWaitForChange(t *testing.T) {
	events := make(chan struct{}, 1)
	m := New(Options{Source: &stubSource{}, Events: events, Clock: fixedClock(testNow)})
	events <- struct{}{}
	if _, ok := m.waitForChange()().(changedMsg); !ok {
		t.Fatalf("expected changedMsg")
	}
	close(events)
	if msg := m.waitForChange()(); msg != nil {
		t.Fatalf("expected nil after close, got %T", msg)
	}
	if New(Options{Source: &stubSource{}}).waitForChange() != nil {
		t.Fatalf("expected no command without events")
	}
}

func containsAll(haystack string, needles []string) bool {
	for _, needle := range needles {
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}
