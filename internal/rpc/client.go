package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"bitcoin-node-sim/internal/models"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Request is a JSON-RPC 1.0 request as bitcoind expects it.
type Request struct {
	Jsonrpc string        `json:"jsonrpc"`
	ID      string        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// Response is the bitcoind reply envelope.
type Response struct {
	Result json.RawMessage   `json:"result"`
	Error  *btcjson.RPCError `json:"error"`
	ID     interface{}       `json:"id"`
}

// Client forwards calls to a real Bitcoin Core node.
type Client struct {
	Endpoint    string
	RateLimiter *rate.Limiter
	Logger      *zerolog.Logger
	HTTPClient  *http.Client
}

// NewClient creates a new RPC client for the given endpoint and credentials
func NewClient(cfg models.RPCConfig, rateLimit float64, httpTimeout time.Duration, logger *zerolog.Logger) *Client {
	return &Client{
		Endpoint:    cfg.URL,
		RateLimiter: rate.NewLimiter(rate.Limit(rateLimit), 1),
		Logger:      logger,
		HTTPClient: &http.Client{
			Timeout: httpTimeout,
			Transport: &BasicAuthTransport{
				Base: http.DefaultTransport,
				User: cfg.User,
				Pass: cfg.Pass,
			},
		},
	}
}

// BasicAuthTransport adds rpcuser/rpcpassword authentication to HTTP requests
type BasicAuthTransport struct {
	Base http.RoundTripper
	User string
	Pass string
}

func (t *BasicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("Content-Type", "application/json")
	if t.User != "" || t.Pass != "" {
		req.SetBasicAuth(t.User, t.Pass)
	}
	return t.Base.RoundTrip(req)
}

// Call performs one RPC call and returns the raw result. Failures come back
// as *TransportError, *AuthError or *RemoteError.
func (c *Client) Call(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	c.Logger.Debug().
		Str("endpoint", c.Endpoint).
		Str("method", method).
		Interface("params", params).
		Msg("Making RPC call")

	if err := c.RateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	if params == nil {
		params = []interface{}{}
	}
	payload, err := json.Marshal(Request{
		Jsonrpc: "1.0",
		ID:      "zenith",
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &TransportError{Endpoint: c.Endpoint, Err: err}
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.Logger.Error().
			Err(err).
			Str("method", method).
			Msg("RPC call failed")
		return nil, &TransportError{Endpoint: c.Endpoint, Err: err}
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, &AuthError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Endpoint: c.Endpoint, Err: err}
	}

	// bitcoind answers RPC errors with 404/500 and a JSON envelope, so the
	// envelope is checked before the status code.
	var response Response
	if err := json.Unmarshal(body, &response); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("HTTP error: %d - %s", resp.StatusCode, resp.Status)
		}
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if response.Error != nil {
		return nil, &RemoteError{Code: int(response.Error.Code), Message: response.Error.Message}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d - %s", resp.StatusCode, resp.Status)
	}

	return response.Result, nil
}

// Probe checks that the endpoint is a reachable node and returns its chain
// summary.
func (c *Client) Probe(ctx context.Context) (*btcjson.GetBlockChainInfoResult, error) {
	raw, err := c.Call(ctx, "getblockchaininfo", nil)
	if err != nil {
		return nil, err
	}
	var info btcjson.GetBlockChainInfoResult
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, fmt.Errorf("unexpected getblockchaininfo reply: %w", err)
	}
	if info.Chain == "" {
		return nil, errors.New("unexpected getblockchaininfo reply: missing chain")
	}
	return &info, nil
}

// Close closes the HTTP client connections
func (c *Client) Close() {
	if c.HTTPClient != nil {
		c.HTTPClient.CloseIdleConnections()
	}
}
