package stats

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/verte-zerg/cfdrill/internal/model"
)

// HistorySource lists archived sessions, most recent first.
type HistorySource interface {
	History(ctx context.Context) ([]model.HistoryEntry, error)
}

// ReportConfig selects what goes into a Report.
type ReportConfig struct {
	Last   int
	Window int
	Top    int
}

// Report contains precomputed data for stats rendering.
type Report struct {
	Entries []model.HistoryEntry
	Tags    []TagAggregate
	Config  ReportConfig
}

// BuildReport loads history and prepares it for rendering. Entries are
// chronological and limited to the last cfg.Last contests.
func BuildReport(ctx context.Context, src HistorySource, cfg ReportConfig) (Report, error) {
	history, err := src.History(ctx)
	if err != nil {
		return Report{}, err
	}
	entries := Chronological(history)
	if cfg.Last > 0 && len(entries) > cfg.Last {
		entries = entries[len(entries)-cfg.Last:]
	}
	return Report{
		Entries: entries,
		Tags:    AggregateTags(entries),
		Config:  cfg,
	}, nil
}

// Render prints the summary, the solve-rate curve and the weakest tags.
func (r Report) Render(w io.Writer) error {
	if err := RenderSummary(w, r.Entries); err != nil {
		return err
	}
	if len(r.Entries) == 0 {
		return nil
	}
	if err := RenderCurve(w, r.Entries, r.Config.Window); err != nil {
		return err
	}
	if top := TopTagsByFrequency(r.Tags, r.Config.Top); len(top) > 0 {
		if _, err := fmt.Fprintf(w, "Most drawn tags: %s\n\n", strings.Join(top, ", ")); err != nil {
			return err
		}
	}
	return RenderTagTable(w, "Weakest tags", WeakTags(r.Tags, r.Config.Top))
}
