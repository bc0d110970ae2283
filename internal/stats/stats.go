// Package stats computes contest results and history analytics.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/verte-zerg/cfdrill/internal/model"
)

const sparkChars = " .:-=+*#%@"

// SolveRate returns the fraction of a session's problems that were accepted.
func SolveRate(session model.ContestSession) float64 {
	if len(session.Problems) == 0 {
		return 0
	}
	solved := 0
	for _, p := range session.Problems {
		if p.Solved() {
			solved++
		}
	}
	return float64(solved) / float64(len(session.Problems))
}

// Chronological returns history entries oldest first. Stored history is
// most recent first.
func Chronological(history []model.HistoryEntry) []model.HistoryEntry {
	out := make([]model.HistoryEntry, len(history))
	for i, e := range history {
		out[len(history)-1-i] = e
	}
	return out
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		den := float64(i + 1)
		if i >= window {
			sum -= values[i-window]
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints aggregate results over chronological history entries.
func RenderSummary(w io.Writer, entries []model.HistoryEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No contests found.")
		return err
	}
	var totalRate, bestRate float64
	var solved, problems, attempts int
	for _, e := range entries {
		rate := SolveRate(e.Session)
		totalRate += rate
		bestRate = math.Max(bestRate, rate)
		sum := Summarize(&e.Session)
		solved += sum.Solved
		problems += sum.Total
		attempts += sum.Attempts
	}
	lines := []string{
		"Summary",
		fmt.Sprintf("Contests: %d", len(entries)),
		fmt.Sprintf("Problems solved: %d/%d", solved, problems),
		fmt.Sprintf("Submissions: %d", attempts),
		fmt.Sprintf("Avg solve rate: %.0f%%", totalRate/float64(len(entries))*100),
		fmt.Sprintf("Best solve rate: %.0f%%", bestRate*100),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderCurve prints the solve-rate moving average as a sparkline.
func RenderCurve(w io.Writer, entries []model.HistoryEntry, window int) error {
	if len(entries) == 0 {
		return nil
	}
	rates := make([]float64, len(entries))
	for i, e := range entries {
		rates[i] = SolveRate(e.Session) * 100
	}
	smoothed := MovingAverage(rates, window)
	last := smoothed[len(smoothed)-1]
	_, err := fmt.Fprintf(w, "Solve rate (avg of %d): [%s] %.0f%%\n\n", max(window, 1), Sparkline(smoothed), last)
	return err
}
