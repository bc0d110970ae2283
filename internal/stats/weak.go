package stats

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/verte-zerg/cfdrill/internal/model"
)

// TagAggregate counts how often problems with a tag were drawn and solved.
type TagAggregate struct {
	Tag      string
	Drawn    int
	Solved   int
	Attempts int
}

// SolveRate returns Solved/Drawn, 1 for an unseen tag.
func (a TagAggregate) SolveRate() float64 {
	if a.Drawn == 0 {
		return 1.0
	}
	return float64(a.Solved) / float64(a.Drawn)
}

// AggregateTags folds every problem of every entry into per-tag counters.
// Tags are compared case-insensitively and reported lower-cased.
func AggregateTags(entries []model.HistoryEntry) []TagAggregate {
	byTag := map[string]*TagAggregate{}
	for _, e := range entries {
		for _, p := range e.Session.Problems {
			for _, raw := range p.Tags {
				tag := strings.ToLower(strings.TrimSpace(raw))
				if tag == "" {
					continue
				}
				agg, ok := byTag[tag]
				if !ok {
					agg = &TagAggregate{Tag: tag}
					byTag[tag] = agg
				}
				agg.Drawn++
				agg.Attempts += len(p.Submissions)
				if p.Solved() {
					agg.Solved++
				}
			}
		}
	}
	out := make([]TagAggregate, 0, len(byTag))
	for _, agg := range byTag {
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tag < out[j].Tag })
	return out
}

// WeakTags returns the top lowest-solve-rate tags. Ties go to the more
// frequently drawn tag, then alphabetically.
func WeakTags(aggs []TagAggregate, top int) []TagAggregate {
	candidates := make([]TagAggregate, len(aggs))
	copy(candidates, aggs)
	sort.Slice(candidates, func(i, j int) bool {
		ri, rj := candidates[i].SolveRate(), candidates[j].SolveRate()
		if ri != rj {
			return ri < rj
		}
		if candidates[i].Drawn != candidates[j].Drawn {
			return candidates[i].Drawn > candidates[j].Drawn
		}
		return candidates[i].Tag < candidates[j].Tag
	})
	if top <= 0 || top > len(candidates) {
		top = len(candidates)
	}
	return candidates[:top]
}

// RenderTagTable prints per-tag aggregates.
func RenderTagTable(w io.Writer, title string, aggs []TagAggregate) error {
	if len(aggs) == 0 {
		_, err := fmt.Fprintln(w, "No tag stats found.")
		return err
	}
	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}
	headers := []string{"Tag", "Solve rate", "Solved", "Drawn", "Submissions"}
	rows := make([][]string, 0, len(aggs))
	for _, a := range aggs {
		rows = append(rows, []string{
			a.Tag,
			fmt.Sprintf("%.0f%%", a.SolveRate()*100),
			fmt.Sprintf("%d", a.Solved),
			fmt.Sprintf("%d", a.Drawn),
			fmt.Sprintf("%d", a.Attempts),
		})
	}
	for _, line := range formatTable(headers, rows, map[int]bool{1: true, 2: true, 3: true, 4: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}
