// Package model defines shared data structures.
package model

import (
	"fmt"
	"strconv"
	"time"
)

// Status is the lifecycle state of a contest session.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusRunning Status = "running"
	StatusEnded   Status = "ended"
)

// Contest types understood by the selector. Any other value ignores tags.
const (
	TypeGeneral = "general"
	TypeTopic   = "topic"
	TypeMixed   = "mixed"
)

// VerdictAccepted is the judge's accepted verdict code.
const VerdictAccepted = "OK"

// VerdictUnknown is recorded when the judge reports no verdict yet.
const VerdictUnknown = "UNKNOWN"

// MaxProblems bounds a contest to the A-Z display keys.
const MaxProblems = 26

// MinPollInterval is the floor applied to the poll interval.
const MinPollInterval = 30 * time.Second

// Settings holds user preferences persisted across contests.
type Settings struct {
	Handle                    string `json:"handle" yaml:"handle"`
	PollIntervalSec           int    `json:"poll_interval_sec" yaml:"poll_interval_sec"`
	AdaptiveDifficulty        bool   `json:"adaptive_difficulty" yaml:"adaptive_difficulty"`
	NoDuplicateAcrossContests bool   `json:"no_duplicate_across_contests" yaml:"no_duplicate_across_contests"`
}

// DefaultSettings returns the settings written on first run.
func DefaultSettings() Settings {
	return Settings{
		Handle:                    "",
		PollIntervalSec:           60,
		AdaptiveDifficulty:        true,
		NoDuplicateAcrossContests: true,
	}
}

// PollPeriod returns the poll interval clamped to MinPollInterval.
func (s Settings) PollPeriod() time.Duration {
	period := time.Duration(s.PollIntervalSec) * time.Second
	if period < MinPollInterval {
		return MinPollInterval
	}
	return period
}

// SettingsPatch is a partial settings update. Nil fields are left unchanged.
type SettingsPatch struct {
	Handle                    *string `json:"handle,omitempty"`
	PollIntervalSec           *int    `json:"poll_interval_sec,omitempty"`
	AdaptiveDifficulty        *bool   `json:"adaptive_difficulty,omitempty"`
	NoDuplicateAcrossContests *bool   `json:"no_duplicate_across_contests,omitempty"`
}

// Apply merges the patch over s and clamps the poll interval.
func (p SettingsPatch) Apply(s Settings) Settings {
	if p.Handle != nil {
		s.Handle = *p.Handle
	}
	if p.PollIntervalSec != nil {
		s.PollIntervalSec = *p.PollIntervalSec
	}
	if p.AdaptiveDifficulty != nil {
		s.AdaptiveDifficulty = *p.AdaptiveDifficulty
	}
	if p.NoDuplicateAcrossContests != nil {
		s.NoDuplicateAcrossContests = *p.NoDuplicateAcrossContests
	}
	minSec := int(MinPollInterval / time.Second)
	if s.PollIntervalSec < minSec {
		s.PollIntervalSec = minSec
	}
	return s
}

// ProblemID builds the composite contestId-index key.
func ProblemID(contestID int, index string) string {
	return strconv.Itoa(contestID) + "-" + index
}

// BanList is the ordered set of problem ids excluded from future contests.
type BanList []string

// Set returns the ban list as a lookup set.
func (b BanList) Set() map[string]struct{} {
	set := make(map[string]struct{}, len(b))
	for _, id := range b {
		set[id] = struct{}{}
	}
	return set
}

// Contains reports whether id is banned.
func (b BanList) Contains(id string) bool {
	for _, v := range b {
		if v == id {
			return true
		}
	}
	return false
}

// Merge appends ids not yet present, keeping insertion order.
func (b BanList) Merge(ids []string) BanList {
	seen := b.Set()
	out := make(BanList, len(b), len(b)+len(ids))
	copy(out, b)
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// ProblemRef is a snapshot of a catalog entry taken at selection time.
type ProblemRef struct {
	ContestID int      `json:"contest_id" yaml:"contest_id"`
	Index     string   `json:"index" yaml:"index"`
	Rating    *int     `json:"rating" yaml:"rating"`
	Tags      []string `json:"tags" yaml:"tags"`
	Title     string   `json:"title" yaml:"title"`
	URL       string   `json:"url" yaml:"url"`
}

// ID returns the contestId-index identity.
func (p ProblemRef) ID() string {
	return ProblemID(p.ContestID, p.Index)
}

// Submission is one judge submission recorded against a session problem.
type Submission struct {
	ID      int64     `json:"id" yaml:"id"`
	Time    time.Time `json:"time" yaml:"time"`
	Verdict string    `json:"verdict" yaml:"verdict"`
}

// SessionProblem is a selected problem with its display key and results.
type SessionProblem struct {
	ProblemRef  `yaml:",inline"`
	Key         string       `json:"key" yaml:"key"`
	Submissions []Submission `json:"submissions" yaml:"submissions"`
	Verdict     string       `json:"verdict,omitempty" yaml:"verdict,omitempty"`
}

// Solved reports whether an accepted submission was observed.
func (p SessionProblem) Solved() bool {
	return p.Verdict == VerdictAccepted
}

// HasSubmission reports whether a submission id is already recorded.
func (p SessionProblem) HasSubmission(id int64) bool {
	for _, s := range p.Submissions {
		if s.ID == id {
			return true
		}
	}
	return false
}

// ContestRequest is the input of a contest start.
type ContestRequest struct {
	DurationMinutes int      `json:"duration_minutes" yaml:"duration_minutes"`
	NumProblems     int      `json:"num_problems" yaml:"num_problems"`
	Type            string   `json:"type" yaml:"type"`
	Tags            []string `json:"tags" yaml:"tags"`
	Difficulty      string   `json:"difficulty" yaml:"difficulty"`
	Handle          string   `json:"handle" yaml:"handle"`
}

// ContestConfig is the configuration a session was started with.
type ContestConfig = ContestRequest

// ValidationError reports a malformed contest request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validate checks the request bounds.
func (r ContestRequest) Validate() error {
	if r.DurationMinutes <= 0 {
		return &ValidationError{Field: "duration_minutes", Reason: "must be > 0"}
	}
	if r.NumProblems <= 0 {
		return &ValidationError{Field: "num_problems", Reason: "must be > 0"}
	}
	if r.NumProblems > MaxProblems {
		return &ValidationError{Field: "num_problems", Reason: fmt.Sprintf("must be <= %d", MaxProblems)}
	}
	return nil
}

// Duration returns the configured contest length.
func (r ContestRequest) Duration() time.Duration {
	return time.Duration(r.DurationMinutes) * time.Minute
}

// ContestSession is the root aggregate of a practice contest.
type ContestSession struct {
	ID        string           `json:"id" yaml:"id"`
	Status    Status           `json:"status" yaml:"status"`
	StartTime time.Time        `json:"start_time" yaml:"start_time"`
	EndTime   time.Time        `json:"end_time" yaml:"end_time"`
	Config    ContestConfig    `json:"config" yaml:"config"`
	Problems  []SessionProblem `json:"problems" yaml:"problems"`
}

// Running reports whether the session is live.
func (s *ContestSession) Running() bool {
	return s != nil && s.Status == StatusRunning
}

// Remaining returns the time left until EndTime, never negative.
func (s *ContestSession) Remaining(now time.Time) time.Duration {
	if s == nil {
		return 0
	}
	left := s.EndTime.Sub(now)
	if left < 0 {
		return 0
	}
	return left
}

// AllSolved reports whether every problem has an accepted verdict.
// An empty session counts as solved.
func (s *ContestSession) AllSolved() bool {
	if s == nil {
		return false
	}
	for _, p := range s.Problems {
		if !p.Solved() {
			return false
		}
	}
	return true
}

// ProblemIDs lists the ids of the session problems in key order.
func (s *ContestSession) ProblemIDs() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, 0, len(s.Problems))
	for _, p := range s.Problems {
		ids = append(ids, p.ID())
	}
	return ids
}

// Clone returns a deep copy of the session.
func (s *ContestSession) Clone() *ContestSession {
	if s == nil {
		return nil
	}
	out := *s
	out.Config.Tags = append([]string(nil), s.Config.Tags...)
	out.Problems = make([]SessionProblem, len(s.Problems))
	for i, p := range s.Problems {
		p.Tags = append([]string(nil), p.Tags...)
		p.Submissions = append([]Submission(nil), p.Submissions...)
		if p.Rating != nil {
			r := *p.Rating
			p.Rating = &r
		}
		out.Problems[i] = p
	}
	return &out
}

// HistoryEntry is an archived session.
type HistoryEntry struct {
	ID      string         `json:"id" yaml:"id"`
	Session ContestSession `json:"session" yaml:"session"`
	SavedAt time.Time      `json:"saved_at" yaml:"saved_at"`
}
