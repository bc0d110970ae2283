// Package selector filters the problem catalog and samples contest problems.
package selector

import (
	"math"
	"strings"

	"github.com/verte-zerg/cfdrill/internal/judge"
	"github.com/verte-zerg/cfdrill/internal/model"
)

// Tier is a normalized difficulty bucket.
type Tier string

const (
	TierGeneral  Tier = "general"
	TierEasy     Tier = "easy"
	TierMedium   Tier = "medium"
	TierHard     Tier = "hard"
	TierVeryHard Tier = "veryhard"
)

// Range is an inclusive rating interval.
type Range struct {
	Min int
	Max int
}

// Contains reports whether rating falls inside the range.
func (r Range) Contains(rating int) bool {
	return rating >= r.Min && rating <= r.Max
}

var tierRanges = map[Tier]Range{
	TierGeneral:  {Min: 800, Max: math.MaxInt},
	TierEasy:     {Min: 800, Max: 1200},
	TierMedium:   {Min: 1300, Max: 1600},
	TierHard:     {Min: 1700, Max: 2000},
	TierVeryHard: {Min: 2100, Max: math.MaxInt},
}

// NormalizeDifficulty maps free-form input onto a Tier. Unknown input is general.
func NormalizeDifficulty(key string) Tier {
	k := strings.Join(strings.Fields(strings.ToLower(key)), "")
	tier := Tier(k)
	if _, ok := tierRanges[tier]; ok {
		return tier
	}
	return TierGeneral
}

// RangeFor returns the rating range of a tier.
func RangeFor(t Tier) Range {
	if r, ok := tierRanges[t]; ok {
		return r
	}
	return tierRanges[TierGeneral]
}

// Criteria describes which catalog entries are eligible.
type Criteria struct {
	Solved     map[string]struct{}
	Banned     map[string]struct{}
	Type       string
	Tags       []string
	Difficulty string
}

// Predicate returns true when a problem should be kept.
type Predicate func(judge.Problem) bool

// Predicates builds the filters for c. All of them must hold.
func Predicates(c Criteria) []Predicate {
	rng := RangeFor(NormalizeDifficulty(c.Difficulty))
	selected := normalizeTags(c.Tags)

	preds := []Predicate{
		func(p judge.Problem) bool { return p.ID() != "" },
		func(p judge.Problem) bool {
			id := p.ID()
			if _, ok := c.Solved[id]; ok {
				return false
			}
			_, banned := c.Banned[id]
			return !banned
		},
		func(p judge.Problem) bool { return p.Rating != nil && rng.Contains(*p.Rating) },
	}

	switch c.Type {
	case model.TypeTopic:
		preds = append(preds, func(p judge.Problem) bool {
			if len(p.Tags) == 0 {
				return false
			}
			have := tagSet(p.Tags)
			for _, t := range selected {
				if _, ok := have[t]; !ok {
					return false
				}
			}
			return true
		})
	case model.TypeMixed:
		if len(selected) > 0 {
			preds = append(preds, func(p judge.Problem) bool {
				have := tagSet(p.Tags)
				for _, t := range selected {
					if _, ok := have[t]; ok {
						return true
					}
				}
				return false
			})
		}
	}
	return preds
}

// SelectPool returns the catalog entries that satisfy every predicate of c.
func SelectPool(catalog []judge.Problem, c Criteria) []judge.Problem {
	preds := Predicates(c)
	pool := make([]judge.Problem, 0, len(catalog))
next:
	for _, p := range catalog {
		for _, keep := range preds {
			if !keep(p) {
				continue next
			}
		}
		pool = append(pool, p)
	}
	return pool
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		out = append(out, t)
	}
	return out
}

func tagSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, t := range normalizeTags(tags) {
		set[t] = struct{}{}
	}
	return set
}
