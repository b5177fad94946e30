// Package relay talks JSON-RPC to the Jito block engine: it submits bundles,
// queries their statuses, and classifies engine responses for retry policy.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/solfleet/bundle-engine/internal/entities"
	"github.com/solfleet/bundle-engine/internal/metrics"
	"github.com/solfleet/bundle-engine/internal/utils"
)

const (
	sendBundleMethod        = "sendBundle"
	getBundleStatusesMethod = "getBundleStatuses"
)

type Client interface {
	SendBundle(ctx context.Context, endpoint string, encodedTxs []string) SubmitOutcome
	GetBundleStatuses(ctx context.Context, endpoint string, bundleIDs []string) (entities.RPCBundleStatusesResult, error)
}

type client struct {
	httpClient     utils.HTTPClient
	metricsService metrics.MetricsService
}

var _ Client = (*client)(nil)

func NewClient(httpClient utils.HTTPClient, metricsService metrics.MetricsService) (*client, error) {
	if httpClient == nil {
		return nil, fmt.Errorf("httpClient is required")
	}
	if metricsService == nil {
		return nil, fmt.Errorf("metricsService is required")
	}
	return &client{
		httpClient:     httpClient,
		metricsService: metricsService,
	}, nil
}

// SendBundle posts the base58-encoded transactions to one block-engine
// endpoint and classifies whatever comes back.
func (c *client) SendBundle(ctx context.Context, endpoint string, encodedTxs []string) SubmitOutcome {
	result, rpcErr, err := c.sendRPCRequest(ctx, endpoint, sendBundleMethod, []any{encodedTxs})
	return ClassifySendBundle(result, rpcErr, err)
}

// GetBundleStatuses looks up the engine-side status of the given bundle ids.
func (c *client) GetBundleStatuses(ctx context.Context, endpoint string, bundleIDs []string) (entities.RPCBundleStatusesResult, error) {
	resultBytes, rpcErr, err := c.sendRPCRequest(ctx, endpoint, getBundleStatusesMethod, []any{bundleIDs})
	if err != nil {
		return entities.RPCBundleStatusesResult{}, fmt.Errorf("sending getBundleStatuses request: %w", err)
	}
	if rpcErr != nil {
		return entities.RPCBundleStatusesResult{}, fmt.Errorf("getBundleStatuses rejected: %w", rpcErr)
	}

	var result entities.RPCBundleStatusesResult
	if err := json.Unmarshal(resultBytes, &result); err != nil {
		return entities.RPCBundleStatusesResult{}, fmt.Errorf("parsing getBundleStatuses result JSON: %w", err)
	}
	return result, nil
}

// HTTPStatusError is a non-200 response that carried no JSON-RPC error
// object.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("block engine returned status code=%d, body=%s", e.StatusCode, e.Body)
}

// Retryable reports whether the status indicates a transient condition
// (rate limiting or server-side failure).
func (e *HTTPStatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// sendRPCRequest returns the raw result, the JSON-RPC error object if the
// engine returned one, or a transport-level error.
func (c *client) sendRPCRequest(ctx context.Context, endpoint, method string, params []any) (json.RawMessage, *entities.RPCError, error) {
	host := hostLabel(endpoint)
	startTime := time.Now()
	c.metricsService.IncRPCRequests(host, method)
	defer func() {
		duration := time.Since(startTime).Seconds()
		c.metricsService.ObserveRPCRequestDuration(host, method, duration)
	}()

	payload := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		c.metricsService.IncRPCRequestFailure(host, method)
		return nil, nil, fmt.Errorf("marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		c.metricsService.IncRPCRequestFailure(host, method)
		return nil, nil, fmt.Errorf("building POST request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metricsService.IncRPCRequestFailure(host, method)
		return nil, nil, fmt.Errorf("sending POST request to block engine: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metricsService.IncRPCRequestFailure(host, method)
		return nil, nil, fmt.Errorf("reading block engine response: %w", err)
	}

	// The engine reports rejections as JSON-RPC errors on non-200 statuses
	// too, so parse before checking the status code.
	var res entities.RPCResponse
	if jsonErr := json.Unmarshal(body, &res); jsonErr == nil && res.Error != nil {
		c.metricsService.IncRPCRequestFailure(host, method)
		return nil, res.Error, nil
	}

	if resp.StatusCode != http.StatusOK {
		c.metricsService.IncRPCRequestFailure(host, method)
		return nil, nil, &HTTPStatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if res.Result == nil {
		c.metricsService.IncRPCRequestFailure(host, method)
		return nil, nil, fmt.Errorf("response %s missing result field", string(body))
	}

	c.metricsService.IncRPCRequestSuccess(host, method)
	return res.Result, nil, nil
}

func hostLabel(endpoint string) string {
	parsed, err := url.Parse(endpoint)
	if err != nil || parsed.Host == "" {
		return endpoint
	}
	return parsed.Host
}
