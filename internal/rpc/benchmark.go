package rpc

import (
	"context"
	"sync"
	"time"

	"github.com/Mohsinsiddi/smartfund/internal/chain"
)

// BenchmarkResult holds the result of a single endpoint benchmark.
type BenchmarkResult struct {
	URL         string
	Latency     time.Duration
	BlockNumber uint64
	Err         error
}

// pingFunc is swapped in tests.
var pingFunc = chain.Ping

// Benchmark pings all RPC URLs in parallel. Results keep the input order.
func Benchmark(ctx context.Context, urls []string) []BenchmarkResult {
	results := make([]BenchmarkResult, len(urls))
	var wg sync.WaitGroup

	for i, url := range urls {
		wg.Add(1)
		go func(idx int, u string) {
			defer wg.Done()
			latency, block, err := pingFunc(ctx, u)
			results[idx] = BenchmarkResult{URL: u, Latency: latency, BlockNumber: block, Err: err}
		}(i, url)
	}

	wg.Wait()
	return results
}

// ResultsToEndpoints converts benchmark results to picker Endpoints.
func ResultsToEndpoints(results []BenchmarkResult) []Endpoint {
	endpoints := make([]Endpoint, 0, len(results))
	for _, r := range results {
		endpoints = append(endpoints, Endpoint{
			URL:         r.URL,
			Latency:     r.Latency,
			BlockNumber: r.BlockNumber,
			Healthy:     r.Err == nil,
		})
	}
	return endpoints
}

// Candidates returns the RPC URLs to consider for c: a pinned URL wins
// outright, otherwise custom RPCs come before the built-in list.
func Candidates(c *chain.Chain, custom []string, pinned string) []string {
	if pinned != "" {
		return []string{pinned}
	}
	out := make([]string, 0, len(custom)+len(c.RPCs))
	seen := make(map[string]bool)
	for _, u := range append(append([]string{}, custom...), c.RPCs...) {
		if seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}

// SelectBest benchmarks urls and returns the winner for the named algorithm.
// A single URL is returned without a network round trip.
func SelectBest(ctx context.Context, urls []string, algorithm string) (string, error) {
	if len(urls) == 0 {
		return "", ErrNoHealthyRPC
	}
	if len(urls) == 1 {
		return urls[0], nil
	}
	algo := Algorithm(algorithm)
	if algo == "" {
		algo = AlgorithmFastest
	}

	winner, err := NewPicker(algo).Pick(ResultsToEndpoints(Benchmark(ctx, urls)))
	if err != nil {
		return "", err
	}
	return winner.URL, nil
}
