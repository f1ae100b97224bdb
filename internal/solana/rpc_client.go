package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"
)

// Defaults for NewHTTPClient. Public nodes rate-limit hard, so failed
// calls back off exponentially between retries.
const (
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 3
	DefaultRetryDelay = 1 * time.Second
	DefaultMaxDelay   = 10 * time.Second
)

// HTTPClient talks JSON-RPC 2.0 to a Solana node over HTTP. Methods are
// safe for concurrent use.
type HTTPClient struct {
	url       string
	httpc     *http.Client
	retryMax  int
	retryBase time.Duration
	retryCap  time.Duration
	nextID    atomic.Uint64
}

var _ RPCClient = (*HTTPClient)(nil)

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets the HTTP request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) { c.httpc.Timeout = d }
}

// WithMaxRetries caps how many times a failed call is retried.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) { c.retryMax = n }
}

// WithRetryDelay sets the delay before the first retry. Each further
// retry doubles it, up to the max delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) { c.retryBase = d }
}

// WithMaxDelay caps the backoff delay between retries.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) { c.retryCap = d }
}

// WithHTTPClient swaps the underlying http.Client, e.g. to share a
// transport or route through a proxy.
func WithHTTPClient(httpc *http.Client) ClientOption {
	return func(c *HTTPClient) { c.httpc = httpc }
}

// NewHTTPClient builds a client for the given RPC endpoint.
func NewHTTPClient(url string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		url:       url,
		httpc:     &http.Client{Timeout: DefaultTimeout},
		retryMax:  DefaultMaxRetries,
		retryBase: DefaultRetryDelay,
		retryCap:  DefaultMaxDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type jsonrpcRequest struct {
	Version string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

type jsonrpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *nodeError      `json:"error"`
}

// nodeError is an error reported by the node at the JSON-RPC level.
type nodeError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *nodeError) Error() string {
	return fmt.Sprintf("rpc node error %d: %s", e.Code, e.Message)
}

// call runs one JSON-RPC method against the node. Transport failures,
// rate limiting and server errors are retried with exponential backoff;
// errors reported by the node itself are returned immediately.
func (c *HTTPClient) call(ctx context.Context, method string, params []interface{}, out interface{}) error {
	payload, err := json.Marshal(jsonrpcRequest{
		Version: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("encode %s request: %w", method, err)
	}

	delay := c.retryBase
	var lastErr error

	for attempt := 0; attempt <= c.retryMax; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
			if delay > c.retryCap {
				delay = c.retryCap
			}
		}

		retry, err := c.roundTrip(ctx, payload, out)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("%s: retries exhausted: %w", method, lastErr)
}

// roundTrip posts one request and decodes the response into out. The bool
// reports whether the failure is worth retrying.
func (c *HTTPClient) roundTrip(ctx context.Context, payload []byte, out interface{}) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return true, fmt.Errorf("post: %w", err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return true, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return true, fmt.Errorf("node rate limited the request")
	case resp.StatusCode >= 500:
		return true, fmt.Errorf("node returned %d: %s", resp.StatusCode, body)
	case resp.StatusCode != http.StatusOK:
		return false, fmt.Errorf("node returned %d: %s", resp.StatusCode, body)
	}

	var envelope jsonrpcResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return true, fmt.Errorf("decode response: %w", err)
	}
	if envelope.Error != nil {
		return false, envelope.Error
	}
	if out != nil && envelope.Result != nil {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return false, fmt.Errorf("decode result: %w", err)
		}
	}
	return false, nil
}

// GetTransaction fetches a confirmed transaction by signature. The request
// asks for version-0 support so transactions built on address lookup
// tables decode instead of erroring. Returns (nil, nil) when the node has
// no record of the signature.
func (c *HTTPClient) GetTransaction(ctx context.Context, signature string) (*Transaction, error) {
	params := []interface{}{
		signature,
		map[string]interface{}{
			"encoding":                       "json",
			"maxSupportedTransactionVersion": 0,
		},
	}

	var payload *txPayload
	if err := c.call(ctx, "getTransaction", params, &payload); err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, nil
	}
	return payload.toTransaction(signature), nil
}

// GetSignaturesForAddress returns signatures that mention address, newest
// first. The options map straight onto the RPC's before/until/limit.
func (c *HTTPClient) GetSignaturesForAddress(ctx context.Context, address string, opts *SignaturesOpts) ([]SignatureInfo, error) {
	params := []interface{}{address}
	if opts != nil {
		cfg := map[string]interface{}{}
		if opts.Before != "" {
			cfg["before"] = opts.Before
		}
		if opts.Until != "" {
			cfg["until"] = opts.Until
		}
		if opts.Limit > 0 {
			cfg["limit"] = opts.Limit
		}
		if len(cfg) > 0 {
			params = append(params, cfg)
		}
	}

	var sigs []SignatureInfo
	if err := c.call(ctx, "getSignaturesForAddress", params, &sigs); err != nil {
		return nil, err
	}
	return sigs, nil
}

// GetSlot returns the node's current slot.
func (c *HTTPClient) GetSlot(ctx context.Context) (int64, error) {
	var slot int64
	if err := c.call(ctx, "getSlot", nil, &slot); err != nil {
		return 0, err
	}
	return slot, nil
}

// Wire shapes for getTransaction. Only the fields the crawler consumes
// are decoded.
type txPayload struct {
	Slot        int64      `json:"slot"`
	BlockTime   *int64     `json:"blockTime"`
	Meta        *txMeta    `json:"meta"`
	Transaction *txContent `json:"transaction"`
}

type txMeta struct {
	Err               interface{}    `json:"err"`
	Fee               uint64         `json:"fee"`
	LogMessages       []string       `json:"logMessages"`
	InnerInstructions []txInnerGroup `json:"innerInstructions"`
	LoadedAddresses   *txLoadedAddrs `json:"loadedAddresses"`
}

type txInnerGroup struct {
	Index        int    `json:"index"`
	Instructions []txIx `json:"instructions"`
}

type txIx struct {
	ProgramIDIndex int    `json:"programIdIndex"`
	Accounts       []int  `json:"accounts"`
	Data           string `json:"data"`
}

type txLoadedAddrs struct {
	Writable []string `json:"writable"`
	Readonly []string `json:"readonly"`
}

type txContent struct {
	Message *txMessage `json:"message"`
}

type txMessage struct {
	AccountKeys     []string `json:"accountKeys"`
	RecentBlockhash string   `json:"recentBlockhash"`
	Instructions    []txIx   `json:"instructions"`
}

// toTransaction maps the wire payload onto the package's Transaction type.
func (p *txPayload) toTransaction(signature string) *Transaction {
	tx := &Transaction{
		Slot:      p.Slot,
		Signature: signature,
	}
	if p.BlockTime != nil {
		tx.BlockTime = *p.BlockTime
	}
	if p.Meta != nil {
		meta := &TransactionMeta{
			Err:         p.Meta.Err,
			Fee:         p.Meta.Fee,
			LogMessages: p.Meta.LogMessages,
		}
		for _, group := range p.Meta.InnerInstructions {
			meta.InnerInstructions = append(meta.InnerInstructions, InnerInstructionGroup{
				Index:        group.Index,
				Instructions: decodeInstructions(group.Instructions),
			})
		}
		if p.Meta.LoadedAddresses != nil {
			meta.LoadedAddresses = LoadedAddresses{
				Writable: p.Meta.LoadedAddresses.Writable,
				Readonly: p.Meta.LoadedAddresses.Readonly,
			}
		}
		tx.Meta = meta
	}
	if p.Transaction != nil && p.Transaction.Message != nil {
		tx.Message = &TransactionMessage{
			AccountKeys:     p.Transaction.Message.AccountKeys,
			RecentBlockhash: p.Transaction.Message.RecentBlockhash,
			Instructions:    decodeInstructions(p.Transaction.Message.Instructions),
		}
	}
	return tx
}

func decodeInstructions(raw []txIx) []CompiledInstruction {
	if len(raw) == 0 {
		return nil
	}
	out := make([]CompiledInstruction, len(raw))
	for i, ix := range raw {
		out[i] = CompiledInstruction{
			ProgramIDIndex: ix.ProgramIDIndex,
			Accounts:       ix.Accounts,
			Data:           ix.Data,
		}
	}
	return out
}
