package strategies

import "sync"

// RoundRobin rotates a shared index across the candidates.
//
// The index is advanced before each ordering and taken modulo the current
// number of candidates, so repeated orderings over [A, B, C] start with
// B, C, A, B, ...
type RoundRobin struct {
	mu    sync.Mutex
	index int
}

// NewRoundRobin creates a round-robin strategy.
func NewRoundRobin() *RoundRobin {
	return &RoundRobin{}
}

// Order returns the name-sorted candidates rotated by the advanced index.
func (s *RoundRobin) Order(candidates []Candidate) []Candidate {
	if len(candidates) == 0 {
		return nil
	}
	sorted := byName(candidates)

	s.mu.Lock()
	s.index = (s.index + 1) % len(sorted)
	i := s.index
	s.mu.Unlock()

	return append(sorted[i:], sorted[:i]...)
}

// Name returns the strategy name.
func (s *RoundRobin) Name() string {
	return NameRoundRobin
}

// Reset resets the shared index.
func (s *RoundRobin) Reset() {
	s.mu.Lock()
	s.index = 0
	s.mu.Unlock()
}
