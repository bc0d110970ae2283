package model

import (
	"errors"
	"testing"
	"time"
)

func TestBanListMergeKeepsOrderAndDedups(t *testing.T) {
	ban := BanList{"1-A", "2-B"}
	merged := ban.Merge([]string{"2-B", "3-C", "3-C", "4-D"})
	expected := []string{"1-A", "2-B", "3-C", "4-D"}
	if len(merged) != len(expected) {
		t.Fatalf("expected %d ids, got %v", len(expected), merged)
	}
	for i, id := range expected {
		if merged[i] != id {
			t.Fatalf("expected %q at %d, got %q", id, i, merged[i])
		}
	}
	if len(ban) != 2 {
		t.Fatalf("merge must not modify the receiver, got %v", ban)
	}
}

func TestSettingsPatchApplyClampsPollInterval(t *testing.T) {
	handle := "tourist"
	interval := 5
	s := SettingsPatch{Handle: &handle, PollIntervalSec: &interval}.Apply(DefaultSettings())
	if s.Handle != "tourist" {
		t.Fatalf("expected handle to be applied, got %q", s.Handle)
	}
	if s.PollIntervalSec != 30 {
		t.Fatalf("expected poll interval clamped to 30, got %d", s.PollIntervalSec)
	}
	if !s.NoDuplicateAcrossContests || !s.AdaptiveDifficulty {
		t.Fatalf("unset fields must keep their values: %+v", s)
	}
}

func TestPollPeriodFloor(t *testing.T) {
	if got := (Settings{PollIntervalSec: 10}).PollPeriod(); got != 30*time.Second {
		t.Fatalf("expected 30s floor, got %s", got)
	}
	if got := (Settings{PollIntervalSec: 90}).PollPeriod(); got != 90*time.Second {
		t.Fatalf("expected 90s, got %s", got)
	}
}

func TestContestRequestValidate(t *testing.T) {
	cases := []struct {
		name  string
		req   ContestRequest
		field string
	}{
		{name: "zero duration", req: ContestRequest{DurationMinutes: 0, NumProblems: 3}, field: "duration_minutes"},
		{name: "negative problems", req: ContestRequest{DurationMinutes: 60, NumProblems: -1}, field: "num_problems"},
		{name: "too many problems", req: ContestRequest{DurationMinutes: 60, NumProblems: 27}, field: "num_problems"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tc.field {
				t.Fatalf("expected field %q, got %q", tc.field, verr.Field)
			}
		})
	}
	if err := (ContestRequest{DurationMinutes: 120, NumProblems: 4}).Validate(); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}
}

func TestSessionAllSolvedAndRemaining(t *testing.T) {
	now := time.Unix(1000, 0)
	s := &ContestSession{
		Status:  StatusRunning,
		EndTime: now.Add(time.Minute),
		Problems: []SessionProblem{
			{Key: "A", Verdict: VerdictAccepted},
			{Key: "B"},
		},
	}
	if s.AllSolved() {
		t.Fatalf("expected unsolved session")
	}
	s.Problems[1].Verdict = VerdictAccepted
	if !s.AllSolved() {
		t.Fatalf("expected solved session")
	}
	if got := s.Remaining(now); got != time.Minute {
		t.Fatalf("expected 1m remaining, got %s", got)
	}
	if got := s.Remaining(now.Add(time.Hour)); got != 0 {
		t.Fatalf("expected remaining clamped to zero, got %s", got)
	}
}
