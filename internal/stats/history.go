package stats

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/verte-zerg/cfdrill/internal/model"
)

// RenderHistory prints one row per archived session in the given order.
func RenderHistory(w io.Writer, entries []model.HistoryEntry, now time.Time) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No contests found.")
		return err
	}
	headers := []string{"Ended", "Duration", "Type", "Difficulty", "Solved", "Attempts", "Rate", "Problems"}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		s := e.Session
		sum := Summarize(&s)
		rows = append(rows, []string{
			humanize.RelTime(e.SavedAt, now, "ago", "from now"),
			FormatDuration(s.Config.DurationMinutes),
			Capitalize(s.Config.Type),
			Capitalize(s.Config.Difficulty),
			fmt.Sprintf("%d/%d", sum.Solved, sum.Total),
			fmt.Sprintf("%d", sum.Attempts),
			fmt.Sprintf("%d%%", sum.SuccessRate),
			problemList(s),
		})
	}
	for _, line := range formatTable(headers, rows, map[int]bool{4: true, 5: true, 6: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func problemList(s model.ContestSession) string {
	out := ""
	for i, p := range s.Problems {
		if i > 0 {
			out += " "
		}
		mark := ""
		if p.Solved() {
			mark = "+"
		}
		out += p.ID() + mark
	}
	return out
}
