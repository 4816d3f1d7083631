package strategies

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Strategy names accepted by New.
const (
	NameRoundRobin      = "round_robin"
	NameRandom          = "random"
	NameLeastLoaded     = "least_loaded"
	NameFastestResponse = "fastest_response"
	NameCostOptimized   = "cost_optimized"
)

// DefaultName is the strategy used when none is configured.
const DefaultName = NameLeastLoaded

// ErrInvalidStrategy is returned by New for unknown strategy names.
var ErrInvalidStrategy = errors.New("invalid load balancing strategy")

// Candidate is a point-in-time view of one healthy provider instance.
type Candidate struct {
	Name                string
	Weight              float64
	Priority            int
	InFlight            int64
	AverageResponseTime time.Duration
	TotalCost           float64
	SuccessfulRequests  int64
}

// Strategy orders the healthy provider instances before an attempt.
// The Manager filters unhealthy instances out before calling Order.
//
// Implementations must be safe for concurrent use; Order may be called from
// many goroutines at once.
//
// Example usage:
//
//	strategy, err := strategies.New("fastest_response")
//	if err != nil {
//	    return err
//	}
//	for _, c := range strategy.Order(candidates) {
//	    // try c.Name...
//	}
type Strategy interface {
	// Order returns the candidates in attempt order. The input slice is not
	// modified.
	Order(candidates []Candidate) []Candidate

	// Name returns the strategy name for logging and metrics.
	Name() string

	// Reset clears internal state (round-robin index).
	Reset()
}

// Option customizes strategies created by New.
type Option func(*options)

type options struct {
	rand Source
}

// WithRandSource sets the random source used by the random strategy.
func WithRandSource(src Source) Option {
	return func(o *options) { o.rand = src }
}

// New creates the strategy with the given name. An empty name selects
// DefaultName.
func New(name string, opts ...Option) (Strategy, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	switch name {
	case NameRoundRobin:
		return NewRoundRobin(), nil
	case NameRandom:
		return NewRandom(o.rand), nil
	case "", NameLeastLoaded:
		return LeastLoaded(), nil
	case NameFastestResponse:
		return FastestResponse(), nil
	case NameCostOptimized:
		return CostOptimized(), nil
	default:
		return nil, &InvalidStrategyError{Strategy: name, AvailableStrategies: Names()}
	}
}

// Names returns every accepted strategy name.
func Names() []string {
	return []string{NameCostOptimized, NameFastestResponse, NameLeastLoaded, NameRandom, NameRoundRobin}
}

// InvalidStrategyError is returned when the configured strategy is not
// recognized.
type InvalidStrategyError struct {
	Strategy            string
	AvailableStrategies []string
}

// Error implements the error interface.
func (e *InvalidStrategyError) Error() string {
	return fmt.Sprintf("invalid load balancing strategy %q (available strategies: %s)",
		e.Strategy, strings.Join(e.AvailableStrategies, ", "))
}

// Is implements error matching for errors.Is().
func (e *InvalidStrategyError) Is(target error) bool {
	return target == ErrInvalidStrategy
}

// byName returns a name-sorted copy so ties resolve deterministically.
func byName(candidates []Candidate) []Candidate {
	out := make([]Candidate, len(candidates))
	copy(out, candidates)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// CandidateNames extracts candidate names in order.
func CandidateNames(candidates []Candidate) []string {
	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.Name
	}
	return names
}
