package strategies

import (
	"math/rand/v2"
	"sync"
)

// Source is the randomness used by Random.
type Source interface {
	Shuffle(n int, swap func(i, j int))
}

// Random orders candidates randomly, weighted by their configured weight.
//
// Each candidate contributes int(weight*10) entries to a pool; the pool is
// shuffled and deduplicated keeping first occurrences. A candidate whose
// weight is below 0.1 contributes nothing and is left out of the ordering.
type Random struct {
	mu  sync.Mutex
	src Source
}

// NewRandom creates a random strategy. A nil src uses a time-seeded source.
func NewRandom(src Source) *Random {
	if src == nil {
		src = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Random{src: src}
}

// Order returns a weighted random ordering.
func (s *Random) Order(candidates []Candidate) []Candidate {
	sorted := byName(candidates)

	pool := make([]int, 0, len(sorted)*10)
	for i, c := range sorted {
		for n := int(c.Weight * 10); n > 0; n-- {
			pool = append(pool, i)
		}
	}

	s.mu.Lock()
	s.src.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	s.mu.Unlock()

	seen := make(map[int]bool, len(sorted))
	out := make([]Candidate, 0, len(sorted))
	for _, i := range pool {
		if !seen[i] {
			seen[i] = true
			out = append(out, sorted[i])
		}
	}
	return out
}

// Name returns the strategy name.
func (s *Random) Name() string {
	return NameRandom
}

// Reset is a no-op.
func (s *Random) Reset() {}
