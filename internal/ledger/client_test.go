package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solfleet/bundle-engine/internal/metrics"
)

func newTestClient(t *testing.T, rpcURL string) *client {
	t.Helper()
	c, err := NewClient(rpcURL, &http.Client{}, metrics.NewMetricsService())
	require.NoError(t, err)
	return c
}

func TestNewClient(t *testing.T) {
	t.Run("requires_rpc_url", func(t *testing.T) {
		_, err := NewClient("", &http.Client{}, metrics.NewMetricsService())
		assert.EqualError(t, err, "rpcURL is required")
	})

	t.Run("requires_http_client", func(t *testing.T) {
		_, err := NewClient("http://localhost:8899", nil, metrics.NewMetricsService())
		assert.EqualError(t, err, "httpClient is required")
	})

	t.Run("requires_metrics_service", func(t *testing.T) {
		_, err := NewClient("http://localhost:8899", &http.Client{}, nil)
		assert.EqualError(t, err, "metricsService is required")
	})
}

func TestSendTransaction(t *testing.T) {
	signature := solana.MustSignatureFromBase58("5VERv8NMvzbJMEkV8xnrLkEaWRtSz9CosKDYjCJjBRnbJLgp8uirBgmQpjKhoR4tjF3ZpRzrFmBV6UjKdiSZkQUW")

	t.Run("returns_acknowledged_signature", func(t *testing.T) {
		var gotRequest map[string]any
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))
			fmt.Fprintf(w, `{"jsonrpc":"2.0","id":1,"result":"%s"}`, signature)
		}))
		defer server.Close()

		got, err := newTestClient(t, server.URL).SendTransaction(context.Background(), "dHgtYnl0ZXM=", true)
		require.NoError(t, err)
		assert.Equal(t, signature, got)

		assert.Equal(t, "sendTransaction", gotRequest["method"])
		params, ok := gotRequest["params"].([]any)
		require.True(t, ok)
		require.Len(t, params, 2)
		assert.Equal(t, "dHgtYnl0ZXM=", params[0])
		opts, ok := params[1].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "base64", opts["encoding"])
		assert.Equal(t, true, opts["skipPreflight"])
	})

	t.Run("rpc_error_surfaces", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32002,"message":"Transaction simulation failed: Blockhash not found"}}`))
		}))
		defer server.Close()

		_, err := newTestClient(t, server.URL).SendTransaction(context.Background(), "dHg=", false)
		assert.ErrorContains(t, err, "Blockhash not found")
	})
}

func TestGetSignatureStatuses(t *testing.T) {
	signature := solana.MustSignatureFromBase58("5VERv8NMvzbJMEkV8xnrLkEaWRtSz9CosKDYjCJjBRnbJLgp8uirBgmQpjKhoR4tjF3ZpRzrFmBV6UjKdiSZkQUW")

	t.Run("parses_mixed_statuses", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"context":{"slot":300},"value":[{"slot":295,"confirmations":null,"err":null,"confirmationStatus":"finalized"},null]}}`))
		}))
		defer server.Close()

		result, err := newTestClient(t, server.URL).GetSignatureStatuses(context.Background(), []solana.Signature{signature, {}})
		require.NoError(t, err)

		require.Len(t, result.Value, 2)
		require.NotNil(t, result.Value[0])
		assert.True(t, result.Value[0].ConfirmationStatus.AtLeastConfirmed())
		assert.Empty(t, result.Value[0].ExecutionErr())
		assert.Equal(t, uint64(295), result.Value[0].Slot)
		assert.Nil(t, result.Value[1])
	})

	t.Run("execution_error_is_exposed", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"context":{"slot":300},"value":[{"slot":295,"confirmations":null,"err":{"InstructionError":[0,"Custom"]},"confirmationStatus":"confirmed"}]}}`))
		}))
		defer server.Close()

		result, err := newTestClient(t, server.URL).GetSignatureStatuses(context.Background(), []solana.Signature{signature})
		require.NoError(t, err)

		require.Len(t, result.Value, 1)
		assert.Contains(t, result.Value[0].ExecutionErr(), "InstructionError")
	})
}
