package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/cfdrill/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "state", "cfdrill.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func TestReadAbsentKey(t *testing.T) {
	st := openTestStore(t)
	var v map[string]int
	found, err := st.Read(context.Background(), "missing", &v)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if found {
		t.Fatalf("expected absent key")
	}
}

func TestWriteOverwritesDocument(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	if err := st.Write(ctx, "k", map[string]int{"a": 1}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := st.Write(ctx, "k", map[string]int{"b": 2}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	var v map[string]int
	found, err := st.Read(ctx, "k", &v)
	if err != nil || !found {
		t.Fatalf("read: found=%v err=%v", found, err)
	}
	if len(v) != 1 || v["b"] != 2 {
		t.Fatalf("expected whole document replaced, got %v", v)
	}
}

func TestSettingsDefaultsAndMerge(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	has, err := st.HasSettings(ctx)
	if err != nil || has {
		t.Fatalf("expected no settings yet: has=%v err=%v", has, err)
	}
	settings, err := st.Settings(ctx)
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	if settings != model.DefaultSettings() {
		t.Fatalf("expected defaults, got %+v", settings)
	}

	// A partial document keeps defaults for absent fields.
	if err := st.Write(ctx, KeySettings, map[string]any{"handle": "petr"}); err != nil {
		t.Fatalf("write partial settings: %v", err)
	}
	settings, err = st.Settings(ctx)
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	if settings.Handle != "petr" || settings.PollIntervalSec != 60 || !settings.NoDuplicateAcrossContests {
		t.Fatalf("unexpected merged settings: %+v", settings)
	}
}

func TestSessionRoundTripAndClear(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	session, err := st.Session(ctx)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if session != nil {
		t.Fatalf("expected no session, got %+v", session)
	}

	start := time.UnixMilli(1_700_000_000_123).UTC()
	rating := 1500
	in := &model.ContestSession{
		ID:        "s1",
		Status:    model.StatusRunning,
		StartTime: start,
		EndTime:   start.Add(2 * time.Hour),
		Config:    model.ContestConfig{DurationMinutes: 120, NumProblems: 1, Type: model.TypeGeneral},
		Problems: []model.SessionProblem{{
			ProblemRef: model.ProblemRef{ContestID: 1, Index: "A", Rating: &rating, Title: "T"},
			Key:        "A",
			Submissions: []model.Submission{
				{ID: 9, Time: start.Add(time.Minute), Verdict: "WRONG_ANSWER"},
			},
		}},
	}
	if err := st.SaveSession(ctx, in); err != nil {
		t.Fatalf("save session: %v", err)
	}
	out, err := st.Session(ctx)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if out == nil || out.ID != "s1" || !out.EndTime.Equal(in.EndTime) {
		t.Fatalf("unexpected session: %+v", out)
	}
	if len(out.Problems) != 1 || out.Problems[0].ID() != "1-A" || *out.Problems[0].Rating != 1500 {
		t.Fatalf("unexpected problems: %+v", out.Problems)
	}
	if len(out.Problems[0].Submissions) != 1 || out.Problems[0].Submissions[0].ID != 9 {
		t.Fatalf("unexpected submissions: %+v", out.Problems[0].Submissions)
	}

	if err := st.ClearSession(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	out, err = st.Session(ctx)
	if err != nil || out != nil {
		t.Fatalf("expected cleared session: %+v err=%v", out, err)
	}
}

func TestHistoryAndBanListEmptyByDefault(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	history, err := st.History(ctx)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if history == nil || len(history) != 0 {
		t.Fatalf("expected empty history, got %v", history)
	}
	ban, err := st.BanList(ctx)
	if err != nil {
		t.Fatalf("ban list: %v", err)
	}
	if len(ban) != 0 {
		t.Fatalf("expected empty ban list, got %v", ban)
	}
	if err := st.SaveBanList(ctx, model.BanList{"1-A"}); err != nil {
		t.Fatalf("save ban list: %v", err)
	}
	ban, err = st.BanList(ctx)
	if err != nil || !ban.Contains("1-A") {
		t.Fatalf("expected persisted ban list, got %v err=%v", ban, err)
	}
}

func TestClosedStoreReturnsStorageError(t *testing.T) {
	st, err := Open(filepath.Join(t.TempDir(), "cfdrill.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	err = st.Write(context.Background(), KeySettings, model.DefaultSettings())
	var storageErr *StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("expected StorageError, got %v", err)
	}
	if storageErr.Op != "write" || storageErr.Key != KeySettings {
		t.Fatalf("unexpected error fields: %+v", storageErr)
	}
}
