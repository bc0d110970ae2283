package stats

import "sort"

// TopTagsByFrequency returns the n most frequently drawn tags.
func TopTagsByFrequency(aggs []TagAggregate, n int) []string {
	if n <= 0 || len(aggs) == 0 {
		return nil
	}
	items := make([]TagAggregate, len(aggs))
	copy(items, aggs)
	sort.Slice(items, func(i, j int) bool {
		if items[i].Drawn == items[j].Drawn {
			return items[i].Tag < items[j].Tag
		}
		return items[i].Drawn > items[j].Drawn
	})
	n = min(n, len(items))
	out := make([]string, 0, n)
	for _, item := range items[:n] {
		out = append(out, item.Tag)
	}
	return out
}
