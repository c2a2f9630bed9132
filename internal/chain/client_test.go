package chain

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rpcMock creates a test HTTP server that serves a fixed JSON-RPC response
// per method. Any unknown method returns an RPC error.
func rpcMock(t *testing.T, responses map[string]interface{}) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string          `json:"method"`
			ID     json.RawMessage `json:"id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if result, ok := responses[req.Method]; ok {
			json.NewEncoder(w).Encode(map[string]interface{}{ //nolint:errcheck
				"jsonrpc": "2.0",
				"id":      req.ID,
				"result":  result,
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{ //nolint:errcheck
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error":   map[string]interface{}{"code": -32601, "message": "method not found"},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPingSuccess(t *testing.T) {
	srv := rpcMock(t, map[string]interface{}{"eth_blockNumber": "0x1b4"})

	_, block, err := Ping(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, uint64(436), block)
}

func TestPingRPCError(t *testing.T) {
	srv := rpcMock(t, map[string]interface{}{})

	_, _, err := Ping(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "eth_blockNumber")
}

func TestPingUnreachable(t *testing.T) {
	srv := rpcMock(t, nil)
	url := srv.URL
	srv.Close()

	_, _, err := Ping(context.Background(), url)
	assert.Error(t, err)
}

func TestDialReportsChainID(t *testing.T) {
	srv := rpcMock(t, map[string]interface{}{"eth_chainId": "0xaa36a7"})

	c, err := Dial(context.Background(), srv.URL)
	require.NoError(t, err)
	defer c.Close()

	id, err := c.ChainID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(11155111), id.Int64())
}
