package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// DefaultConfirmTimeout bounds the wait for transaction finality.
const DefaultConfirmTimeout = 2 * time.Minute

// DefaultPollInterval is the default interval for polling signature status.
const DefaultPollInterval = 2 * time.Second

// Config holds client configuration.
type Config struct {
	Endpoint string
	Timeout  time.Duration
}

// Client is a JSON-RPC client for a Solana-style ledger node.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a ledger RPC client. Transport-level failures are retried
// by the underlying HTTP client; RPC-level errors are returned to the caller.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("rpc endpoint required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 3 * time.Second
	retryClient.HTTPClient.Timeout = timeout
	retryClient.Logger = nil

	return &Client{
		endpoint:   cfg.Endpoint,
		httpClient: retryClient.StandardClient(),
	}, nil
}

// Call makes a JSON-RPC call to the node.
func (c *Client) Call(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	req := rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	if rpcResp.Error != nil {
		return nil, rpcResp.Error
	}

	return rpcResp.Result, nil
}

// contextValue is the envelope most query results arrive in.
type contextValue[T any] struct {
	Value T `json:"value"`
}

// LatestBlockhash fetches a fresh submission token.
func (c *Client) LatestBlockhash(ctx context.Context) (BlockhashToken, error) {
	result, err := c.Call(ctx, "getLatestBlockhash", nil)
	if err != nil {
		return BlockhashToken{}, err
	}

	var envelope contextValue[BlockhashToken]
	if err := json.Unmarshal(result, &envelope); err != nil {
		return BlockhashToken{}, err
	}
	return envelope.Value, nil
}

// BlockHeight returns the node's current block height.
func (c *Client) BlockHeight(ctx context.Context) (uint64, error) {
	result, err := c.Call(ctx, "getBlockHeight", nil)
	if err != nil {
		return 0, err
	}

	var height uint64
	if err := json.Unmarshal(result, &height); err != nil {
		return 0, err
	}
	return height, nil
}

// SendTransaction submits an encoded signed transaction and returns its
// signature reference.
func (c *Client) SendTransaction(ctx context.Context, encoded string) (string, error) {
	result, err := c.Call(ctx, "sendTransaction", []any{encoded, map[string]any{"encoding": "base64"}})
	if err != nil {
		return "", err
	}

	var signature string
	if err := json.Unmarshal(result, &signature); err != nil {
		return "", err
	}
	return signature, nil
}

// SignatureStatus returns the confirmation state for a submitted transaction,
// or nil if the node does not know the signature yet.
func (c *Client) SignatureStatus(ctx context.Context, signature string) (*SignatureStatus, error) {
	result, err := c.Call(ctx, "getSignatureStatuses", []any{[]string{signature}})
	if err != nil {
		return nil, err
	}

	var envelope contextValue[[]*SignatureStatus]
	if err := json.Unmarshal(result, &envelope); err != nil {
		return nil, err
	}
	if len(envelope.Value) == 0 {
		return nil, nil
	}
	return envelope.Value[0], nil
}

// Balance returns an account's lamport balance.
func (c *Client) Balance(ctx context.Context, addr Address) (uint64, error) {
	result, err := c.Call(ctx, "getBalance", []any{addr.String()})
	if err != nil {
		return 0, err
	}

	var envelope contextValue[uint64]
	if err := json.Unmarshal(result, &envelope); err != nil {
		return 0, err
	}
	return envelope.Value, nil
}

// AccountInfo returns account state, or nil if the account does not exist.
func (c *Client) AccountInfo(ctx context.Context, addr Address) (*AccountInfo, error) {
	result, err := c.Call(ctx, "getAccountInfo", []any{addr.String()})
	if err != nil {
		return nil, err
	}

	var envelope contextValue[*AccountInfo]
	if err := json.Unmarshal(result, &envelope); err != nil {
		return nil, err
	}
	return envelope.Value, nil
}

// AccountExists reports whether the account is present on the ledger.
func (c *Client) AccountExists(ctx context.Context, addr Address) (bool, error) {
	info, err := c.AccountInfo(ctx, addr)
	if err != nil {
		return false, err
	}
	return info != nil, nil
}
