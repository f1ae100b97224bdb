package observability

import (
	"context"
	"time"

	"solana-crawler/internal/solana"
)

// InstrumentedRPCClient wraps a solana.RPCClient and records per-method
// call latency and errors on DefaultMetrics.
type InstrumentedRPCClient struct {
	inner solana.RPCClient
}

// NewInstrumentedRPCClient wraps the given client.
func NewInstrumentedRPCClient(inner solana.RPCClient) *InstrumentedRPCClient {
	return &InstrumentedRPCClient{inner: inner}
}

// GetTransaction delegates to the wrapped client.
func (c *InstrumentedRPCClient) GetTransaction(ctx context.Context, signature string) (*solana.Transaction, error) {
	start := time.Now()
	tx, err := c.inner.GetTransaction(ctx, signature)
	RecordRPCCall("getTransaction", time.Since(start).Seconds(), err)
	return tx, err
}

// GetSignaturesForAddress delegates to the wrapped client.
func (c *InstrumentedRPCClient) GetSignaturesForAddress(ctx context.Context, address string, opts *solana.SignaturesOpts) ([]solana.SignatureInfo, error) {
	start := time.Now()
	sigs, err := c.inner.GetSignaturesForAddress(ctx, address, opts)
	RecordRPCCall("getSignaturesForAddress", time.Since(start).Seconds(), err)
	return sigs, err
}

// Verify interface compliance at compile time.
var _ solana.RPCClient = (*InstrumentedRPCClient)(nil)
