package relay

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solfleet/bundle-engine/internal/bundle/bundletest"
	"github.com/solfleet/bundle-engine/internal/endpoints"
	"github.com/solfleet/bundle-engine/internal/metrics"
)

func newTestSubmitter(t *testing.T, pool *endpoints.Pool, maxAttempts uint) *Submitter {
	t.Helper()
	client, err := NewClient(&http.Client{}, metrics.NewMetricsService())
	require.NoError(t, err)
	submitter, err := NewSubmitter(SubmitterOptions{
		Client:         client,
		EndpointPool:   pool,
		MetricsService: metrics.NewMetricsService(),
		MaxAttempts:    maxAttempts,
		BaseDelay:      time.Millisecond,
		MaxDelay:       5 * time.Millisecond,
	})
	require.NoError(t, err)
	return submitter
}

func TestSubmitterOptionsValidation(t *testing.T) {
	t.Run("requires_client", func(t *testing.T) {
		_, err := NewSubmitter(SubmitterOptions{})
		assert.ErrorContains(t, err, "client cannot be nil")
	})
}

func TestSubmit(t *testing.T) {
	t.Run("returns_bundle_id_on_first_success", func(t *testing.T) {
		var requests atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)
			w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":"bundle-xyz"}`))
		}))
		defer server.Close()
		pool, err := endpoints.NewPool(server.URL)
		require.NoError(t, err)

		bundleID, err := newTestSubmitter(t, pool, 5).Submit(context.Background(), bundletest.Bundle(t, 2))

		require.NoError(t, err)
		assert.Equal(t, "bundle-xyz", bundleID)
		assert.Equal(t, int32(1), requests.Load())
	})

	t.Run("makes_exactly_max_attempts_on_persistent_retryable_failure", func(t *testing.T) {
		var requests atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()
		pool, err := endpoints.NewPool(server.URL)
		require.NoError(t, err)

		_, err = newTestSubmitter(t, pool, 4).Submit(context.Background(), bundletest.Bundle(t, 1))

		require.Error(t, err)
		assert.ErrorContains(t, err, "after 4 attempt(s)")
		assert.Equal(t, int32(4), requests.Load())
	})

	t.Run("non_retryable_rejection_makes_exactly_one_attempt", func(t *testing.T) {
		var requests atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32003,"message":"Transaction signature verification failure"}}`))
		}))
		defer server.Close()
		pool, err := endpoints.NewPool(server.URL)
		require.NoError(t, err)

		_, err = newTestSubmitter(t, pool, 5).Submit(context.Background(), bundletest.Bundle(t, 1))

		require.Error(t, err)
		assert.ErrorContains(t, err, "rejected")
		assert.Equal(t, int32(1), requests.Load())
	})

	t.Run("rotates_to_next_endpoint_after_retryable_failure", func(t *testing.T) {
		var failing, succeeding atomic.Int32
		failingServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			failing.Add(1)
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer failingServer.Close()
		succeedingServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			succeeding.Add(1)
			w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":"bundle-b"}`))
		}))
		defer succeedingServer.Close()

		// Both orders of the two-endpoint shuffle hit the succeeding
		// server within two attempts.
		pool, err := endpoints.NewPool(failingServer.URL, succeedingServer.URL)
		require.NoError(t, err)

		bundleID, err := newTestSubmitter(t, pool, 5).Submit(context.Background(), bundletest.Bundle(t, 1))

		require.NoError(t, err)
		assert.NotEmpty(t, bundleID)
		assert.Equal(t, int32(1), succeeding.Load())
		assert.LessOrEqual(t, failing.Load(), int32(1))
	})

	t.Run("canceled_context_stops_retrying", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()
		pool, err := endpoints.NewPool(server.URL)
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err = newTestSubmitter(t, pool, 5).Submit(ctx, bundletest.Bundle(t, 1))
		assert.Error(t, err)
	})
}
