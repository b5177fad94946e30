// Package ledger is a thin JSON-RPC client for the Solana ledger RPC,
// covering the two calls the engine needs: direct transaction submission and
// batched signature-status lookup.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/solfleet/bundle-engine/internal/entities"
	"github.com/solfleet/bundle-engine/internal/metrics"
	"github.com/solfleet/bundle-engine/internal/utils"
)

const (
	sendTransactionMethod      = "sendTransaction"
	getSignatureStatusesMethod = "getSignatureStatuses"
)

type Client interface {
	SendTransaction(ctx context.Context, txBase64 string, skipPreflight bool) (solana.Signature, error)
	GetSignatureStatuses(ctx context.Context, signatures []solana.Signature) (entities.RPCSignatureStatusesResult, error)
}

type client struct {
	rpcURL         string
	host           string
	httpClient     utils.HTTPClient
	metricsService metrics.MetricsService
}

var _ Client = (*client)(nil)

func NewClient(rpcURL string, httpClient utils.HTTPClient, metricsService metrics.MetricsService) (*client, error) {
	if rpcURL == "" {
		return nil, errors.New("rpcURL is required")
	}
	if httpClient == nil {
		return nil, errors.New("httpClient is required")
	}
	if metricsService == nil {
		return nil, errors.New("metricsService is required")
	}
	host := rpcURL
	if parsed, err := url.Parse(rpcURL); err == nil && parsed.Host != "" {
		host = parsed.Host
	}
	return &client{
		rpcURL:         rpcURL,
		host:           host,
		httpClient:     httpClient,
		metricsService: metricsService,
	}, nil
}

// SendTransaction submits one base64-encoded signed transaction directly to
// the ledger and returns the signature the RPC acknowledged.
func (c *client) SendTransaction(ctx context.Context, txBase64 string, skipPreflight bool) (solana.Signature, error) {
	resultBytes, err := c.sendRPCRequest(ctx, sendTransactionMethod, []any{
		txBase64,
		map[string]any{
			"encoding":      "base64",
			"skipPreflight": skipPreflight,
			"maxRetries":    0,
		},
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("sending sendTransaction request: %w", err)
	}

	var signatureBase58 string
	if err := json.Unmarshal(resultBytes, &signatureBase58); err != nil {
		return solana.Signature{}, fmt.Errorf("parsing sendTransaction result JSON: %w", err)
	}
	signature, err := solana.SignatureFromBase58(signatureBase58)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("decoding acknowledged signature %q: %w", signatureBase58, err)
	}
	return signature, nil
}

// GetSignatureStatuses looks up the confirmation status of every given
// signature in one batched call. searchTransactionHistory is always set so
// landings older than the status cache are still found.
func (c *client) GetSignatureStatuses(ctx context.Context, signatures []solana.Signature) (entities.RPCSignatureStatusesResult, error) {
	encoded := make([]string, len(signatures))
	for i, signature := range signatures {
		encoded[i] = signature.String()
	}
	resultBytes, err := c.sendRPCRequest(ctx, getSignatureStatusesMethod, []any{
		encoded,
		map[string]any{"searchTransactionHistory": true},
	})
	if err != nil {
		return entities.RPCSignatureStatusesResult{}, fmt.Errorf("sending getSignatureStatuses request: %w", err)
	}

	var result entities.RPCSignatureStatusesResult
	if err := json.Unmarshal(resultBytes, &result); err != nil {
		return entities.RPCSignatureStatusesResult{}, fmt.Errorf("parsing getSignatureStatuses result JSON: %w", err)
	}
	return result, nil
}

func (c *client) sendRPCRequest(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	startTime := time.Now()
	c.metricsService.IncRPCRequests(c.host, method)
	defer func() {
		duration := time.Since(startTime).Seconds()
		c.metricsService.ObserveRPCRequestDuration(c.host, method, duration)
	}()

	payload := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		c.metricsService.IncRPCRequestFailure(c.host, method)
		return nil, fmt.Errorf("marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(jsonData))
	if err != nil {
		c.metricsService.IncRPCRequestFailure(c.host, method)
		return nil, fmt.Errorf("building POST request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metricsService.IncRPCRequestFailure(c.host, method)
		return nil, fmt.Errorf("sending POST request to ledger RPC: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metricsService.IncRPCRequestFailure(c.host, method)
		return nil, fmt.Errorf("reading ledger RPC response: %w", err)
	}

	var res entities.RPCResponse
	if jsonErr := json.Unmarshal(body, &res); jsonErr == nil && res.Error != nil {
		c.metricsService.IncRPCRequestFailure(c.host, method)
		return nil, res.Error
	}

	if resp.StatusCode != http.StatusOK {
		c.metricsService.IncRPCRequestFailure(c.host, method)
		return nil, fmt.Errorf("ledger RPC returned status code=%d, body=%s", resp.StatusCode, string(body))
	}

	if res.Result == nil {
		c.metricsService.IncRPCRequestFailure(c.host, method)
		return nil, fmt.Errorf("response %s missing result field", string(body))
	}

	c.metricsService.IncRPCRequestSuccess(c.host, method)
	return res.Result, nil
}
