package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Mohsinsiddi/smartfund/internal/chain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockServer answers eth_blockNumber with the given hex block after delay.
func blockServer(t *testing.T, block string, delay time.Duration) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req struct {
			ID json.RawMessage `json:"id"`
		}
		_ = json.Unmarshal(body, &req)
		time.Sleep(delay)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":` + string(req.ID) + `,"result":"` + block + `"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestBenchmarkAgainstServers(t *testing.T) {
	fast := blockServer(t, "0x64", 0)
	slow := blockServer(t, "0x64", 50*time.Millisecond)

	results := Benchmark(context.Background(), []string{slow.URL, fast.URL})
	require.Len(t, results, 2)
	assert.Equal(t, slow.URL, results[0].URL)
	assert.Equal(t, fast.URL, results[1].URL)
	for _, r := range results {
		require.NoError(t, r.Err)
		assert.Equal(t, uint64(100), r.BlockNumber)
	}
}

func TestSelectBestFastest(t *testing.T) {
	fast := blockServer(t, "0x64", 0)
	slow := blockServer(t, "0x64", 80*time.Millisecond)

	url, err := SelectBest(context.Background(), []string{slow.URL, fast.URL}, "fastest")
	require.NoError(t, err)
	assert.Equal(t, fast.URL, url)
}

func TestSelectBestAllFail(t *testing.T) {
	orig := pingFunc
	t.Cleanup(func() { pingFunc = orig })
	pingFunc = func(context.Context, string) (time.Duration, uint64, error) {
		return 0, 0, errors.New("connection refused")
	}

	_, err := SelectBest(context.Background(), []string{"http://a", "http://b"}, "failover")
	assert.ErrorIs(t, err, ErrNoHealthyRPC)
}

func TestSelectBestSingleURLSkipsNetwork(t *testing.T) {
	orig := pingFunc
	t.Cleanup(func() { pingFunc = orig })
	pingFunc = func(context.Context, string) (time.Duration, uint64, error) {
		t.Fatal("ping should not be called")
		return 0, 0, nil
	}

	url, err := SelectBest(context.Background(), []string{"http://only"}, "fastest")
	require.NoError(t, err)
	assert.Equal(t, "http://only", url)

	_, err = SelectBest(context.Background(), nil, "fastest")
	assert.ErrorIs(t, err, ErrNoHealthyRPC)
}

func TestResultsToEndpoints(t *testing.T) {
	eps := ResultsToEndpoints([]BenchmarkResult{
		{URL: "a", Latency: time.Millisecond, BlockNumber: 5},
		{URL: "b", Err: errors.New("boom")},
	})
	require.Len(t, eps, 2)
	assert.True(t, eps[0].Healthy)
	assert.False(t, eps[1].Healthy)
}

func TestCandidates(t *testing.T) {
	c := &chain.Chain{RPCs: []string{"https://a", "https://b"}}

	assert.Equal(t, []string{"http://pinned"}, Candidates(c, []string{"https://x"}, "http://pinned"))
	assert.Equal(t, []string{"https://b", "https://a"}, Candidates(c, []string{"https://b"}, ""))
	assert.Equal(t, []string{"https://a", "https://b"}, Candidates(c, nil, ""))
}
