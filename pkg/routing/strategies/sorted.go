package strategies

import "sort"

// Sorted orders candidates by ascending key. Equal keys keep name order.
type Sorted struct {
	name string
	key  func(Candidate) float64
}

// LeastLoaded orders by fewest in-flight requests.
func LeastLoaded() *Sorted {
	return &Sorted{name: NameLeastLoaded, key: func(c Candidate) float64 {
		return float64(c.InFlight)
	}}
}

// FastestResponse orders by ascending average response time.
func FastestResponse() *Sorted {
	return &Sorted{name: NameFastestResponse, key: func(c Candidate) float64 {
		return float64(c.AverageResponseTime)
	}}
}

// CostOptimized orders by ascending cost per successful request.
func CostOptimized() *Sorted {
	return &Sorted{name: NameCostOptimized, key: func(c Candidate) float64 {
		successful := c.SuccessfulRequests
		if successful < 1 {
			successful = 1
		}
		return c.TotalCost / float64(successful)
	}}
}

// Order returns the candidates sorted by key.
func (s *Sorted) Order(candidates []Candidate) []Candidate {
	out := byName(candidates)
	sort.SliceStable(out, func(i, j int) bool { return s.key(out[i]) < s.key(out[j]) })
	return out
}

// Name returns the strategy name.
func (s *Sorted) Name() string {
	return s.name
}

// Reset is a no-op.
func (s *Sorted) Reset() {}
