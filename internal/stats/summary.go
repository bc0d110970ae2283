package stats

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/verte-zerg/cfdrill/internal/model"
)

// WarningThreshold is the remaining time under which the countdown is shown
// as a warning.
const WarningThreshold = 15 * time.Minute

// Summary is the results card of a session.
type Summary struct {
	Total       int `json:"total" yaml:"total"`
	Solved      int `json:"solved" yaml:"solved"`
	Attempts    int `json:"attempts" yaml:"attempts"`
	SuccessRate int `json:"success_rate" yaml:"success_rate"`
}

// Summarize counts problems, accepted problems and submissions.
// SuccessRate is a rounded percentage, 0 for an empty session.
func Summarize(session *model.ContestSession) Summary {
	var s Summary
	if session == nil {
		return s
	}
	s.Total = len(session.Problems)
	for _, p := range session.Problems {
		if p.Solved() {
			s.Solved++
		}
		s.Attempts += len(p.Submissions)
	}
	if s.Total > 0 {
		s.SuccessRate = int(math.Round(float64(s.Solved) / float64(s.Total) * 100))
	}
	return s
}

// ShowResults reports whether a session should be presented as finished.
func ShowResults(session *model.ContestSession) bool {
	if session == nil {
		return false
	}
	return session.Status == model.StatusEnded || session.AllSolved()
}

// FormatCountdown renders d as HH:MM:SS, clamped at zero.
func FormatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	s := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s%3600)/60, s%60)
}

// IsWarning reports whether the remaining time is below WarningThreshold.
func IsWarning(remaining time.Duration) bool {
	return remaining < WarningThreshold
}

// Badge is the display status of a session problem.
type Badge string

const (
	BadgeAccepted  Badge = "AC"
	BadgeAttempted Badge = "Attempted"
	BadgePending   Badge = "Pending"
)

// ProblemBadge classifies a session problem.
func ProblemBadge(p model.SessionProblem) Badge {
	switch {
	case p.Solved():
		return BadgeAccepted
	case len(p.Submissions) > 0:
		return BadgeAttempted
	default:
		return BadgePending
	}
}

// FormatDuration renders a minute count as "1H 30M".
func FormatDuration(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("%dH %dM", minutes/60, minutes%60)
}

// Capitalize upper-cases the first letter of s.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return strings.ToUpper(string(r)) + s[size:]
}

// Details are the labelled contest settings shown next to a running session.
func Details(cfg model.ContestConfig) [][2]string {
	return [][2]string{
		{"Duration", FormatDuration(cfg.DurationMinutes)},
		{"Type", Capitalize(cfg.Type)},
		{"Difficulty", Capitalize(cfg.Difficulty)},
		{"Handle", cfg.Handle},
	}
}
