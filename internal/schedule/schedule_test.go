package schedule

import (
	"io"
	"log/slog"
	"testing"
	"time"
)

func quietRunner() *Runner {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func waitFire(t *testing.T, r *Runner, timeout time.Duration) (Fire, bool) {
	t.Helper()
	select {
	case f := <-r.Fires():
		return f, true
	case <-time.After(timeout):
		return Fire{}, false
	}
}

func TestPastDeadlineFiresImmediately(t *testing.T) {
	r := quietRunner()
	defer r.Close()
	r.Apply(Plan{Deadline: time.Now().Add(-time.Minute)})
	f, ok := waitFire(t, r, time.Second)
	if !ok {
		t.Fatalf("expected deadline fire")
	}
	if f.Kind != Deadline {
		t.Fatalf("expected deadline, got %s", f.Kind)
	}
}

func TestPollFiresRepeatedly(t *testing.T) {
	r := quietRunner()
	defer r.Close()
	r.Apply(Plan{PollEvery: 10 * time.Millisecond})
	for i := 0; i < 3; i++ {
		f, ok := waitFire(t, r, time.Second)
		if !ok {
			t.Fatalf("expected poll fire %d", i)
		}
		if f.Kind != Poll {
			t.Fatalf("expected poll, got %s", f.Kind)
		}
	}
}

func TestApplyReplacesPreviousPlan(t *testing.T) {
	r := quietRunner()
	defer r.Close()
	r.Apply(Plan{Deadline: time.Now().Add(50 * time.Millisecond)})
	r.Apply(Plan{Deadline: time.Now().Add(time.Hour)})
	r.Apply(Plan{Deadline: time.Now().Add(time.Hour)})
	if f, ok := waitFire(t, r, 200*time.Millisecond); ok {
		t.Fatalf("expected replaced deadline not to fire, got %s", f.Kind)
	}
}

func TestClearStopsEverything(t *testing.T) {
	r := quietRunner()
	defer r.Close()
	r.Apply(Plan{PollEvery: 10 * time.Millisecond, Deadline: time.Now().Add(30 * time.Millisecond)})
	r.Clear()
	// Drain anything that raced with Clear.
	time.Sleep(20 * time.Millisecond)
	for len(r.Fires()) > 0 {
		<-r.Fires()
	}
	if f, ok := waitFire(t, r, 100*time.Millisecond); ok {
		t.Fatalf("expected no fires after clear, got %s", f.Kind)
	}
}

func TestApplyAfterCloseIsIgnored(t *testing.T) {
	r := quietRunner()
	r.Close()
	r.Apply(Plan{Deadline: time.Now()})
	if _, ok := waitFire(t, r, 50*time.Millisecond); ok {
		t.Fatalf("expected no fires after close")
	}
}
