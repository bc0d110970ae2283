package selector

import (
	"math/rand"
	"time"

	"github.com/verte-zerg/cfdrill/internal/judge"
)

// Sampler draws contest problems from a pool.
type Sampler struct {
	rnd *rand.Rand
}

// NewSampler returns a Sampler seeded with the current time.
func NewSampler() *Sampler {
	return &Sampler{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewSamplerWithSource returns a Sampler drawing from src.
func NewSamplerWithSource(src rand.Source) *Sampler {
	return &Sampler{rnd: rand.New(src)}
}

// Sample returns min(count, len(pool)) distinct problems in uniformly random
// order. The pool is not modified.
func (s *Sampler) Sample(pool []judge.Problem, count int) []judge.Problem {
	if count <= 0 {
		return []judge.Problem{}
	}
	shuffled := make([]judge.Problem, len(pool))
	copy(shuffled, pool)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := s.rnd.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	if count > len(shuffled) {
		count = len(shuffled)
	}
	return shuffled[:count]
}

// DisplayKey returns the letter shown for the i-th selected problem.
func DisplayKey(i int) string {
	return string(rune('A' + i))
}
