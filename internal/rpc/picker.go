package rpc

import (
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrNoHealthyRPC is returned when no healthy RPC endpoint is available.
var ErrNoHealthyRPC = errors.New("no healthy RPC endpoint available")

// Algorithm defines how an RPC endpoint is selected.
type Algorithm string

const (
	AlgorithmFastest    Algorithm = "fastest"
	AlgorithmRoundRobin Algorithm = "round-robin"
	AlgorithmFailover   Algorithm = "failover"

	// Discard nodes more than this many blocks behind the best.
	staleBlockThreshold = 3
)

// Endpoint is one benchmarked RPC endpoint.
type Endpoint struct {
	URL         string
	Latency     time.Duration
	BlockNumber uint64
	Healthy     bool
}

// Picker selects an endpoint according to its algorithm. Round-robin state is
// kept per Picker, so reuse one Picker across calls to rotate.
type Picker struct {
	algo Algorithm

	mu   sync.Mutex
	next int
}

// NewPicker creates a Picker. Unknown algorithms behave like AlgorithmFastest.
func NewPicker(algo Algorithm) *Picker {
	return &Picker{algo: algo}
}

// Pick returns the chosen endpoint from endpoints, which are expected in
// configured priority order.
func (p *Picker) Pick(endpoints []Endpoint) (*Endpoint, error) {
	live := usable(endpoints)
	if len(live) == 0 {
		return nil, ErrNoHealthyRPC
	}

	switch p.algo {
	case AlgorithmFailover:
		return live[0], nil

	case AlgorithmRoundRobin:
		p.mu.Lock()
		defer p.mu.Unlock()
		e := live[p.next%len(live)]
		p.next = (p.next + 1) % len(live)
		return e, nil

	default:
		sorted := make([]*Endpoint, len(live))
		copy(sorted, live)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Latency < sorted[j].Latency
		})
		return sorted[0], nil
	}
}

// usable drops unhealthy endpoints and those lagging the best head by more
// than staleBlockThreshold blocks.
func usable(endpoints []Endpoint) []*Endpoint {
	var best uint64
	for _, e := range endpoints {
		if e.Healthy && e.BlockNumber > best {
			best = e.BlockNumber
		}
	}

	var out []*Endpoint
	for i := range endpoints {
		e := &endpoints[i]
		if !e.Healthy {
			continue
		}
		if best-e.BlockNumber > staleBlockThreshold {
			continue
		}
		out = append(out, e)
	}
	return out
}
