package stats

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/cfdrill/internal/model"
	"github.com/verte-zerg/cfdrill/internal/store"
)

func TestBuildReport(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "cfdrill.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	ctx := context.Background()
	// Stored most recent first.
	history := []model.HistoryEntry{
		{ID: "c", Session: *sessionWith("OK", "OK")},
		{ID: "b", Session: *sessionWith("WA", "")},
		{ID: "a", Session: *sessionWith("OK")},
	}
	if err := st.SaveHistory(ctx, history); err != nil {
		t.Fatalf("save history: %v", err)
	}

	report, err := BuildReport(ctx, st, ReportConfig{Last: 2, Window: 2, Top: 3})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(report.Entries))
	}
	if report.Entries[0].ID != "b" || report.Entries[1].ID != "c" {
		t.Fatalf("unexpected entry order: %s, %s", report.Entries[0].ID, report.Entries[1].ID)
	}
	if len(report.Tags) != 1 || report.Tags[0].Drawn != 4 || report.Tags[0].Solved != 2 {
		t.Fatalf("unexpected tags: %+v", report.Tags)
	}

	var buf bytes.Buffer
	if err := report.Render(&buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Contests: 2", "Solve rate (avg of 2)", "Most drawn tags: dp", "Weakest tags"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
}

func TestRenderHistory(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := sessionWith("OK", "WA")
	s.Config = model.ContestConfig{DurationMinutes: 120, Type: "general", Difficulty: "easy"}
	entries := []model.HistoryEntry{{ID: "x", Session: *s, SavedAt: now.Add(-3 * time.Hour)}}

	var buf bytes.Buffer
	if err := RenderHistory(&buf, entries, now); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"3 hours ago", "2H 0M", "General", "Easy", "1/2", "50%", "100-A+ 101-A"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
}
