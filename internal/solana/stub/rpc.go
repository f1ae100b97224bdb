package stub

import (
	"context"
	"errors"
	"sync/atomic"

	"solana-crawler/internal/solana"
)

// ErrNotFound is returned when a transaction is not found.
var ErrNotFound = errors.New("not found")

// RPCClient implements solana.RPCClient for testing. Configure it before
// use; during a run it is only read, so concurrent fetches are safe.
type RPCClient struct {
	Transactions map[string]*solana.Transaction
	Signatures   map[string][]solana.SignatureInfo

	// TransactionErrs injects a fetch failure for specific signatures.
	TransactionErrs map[string]error
	// SignaturesErr fails every GetSignaturesForAddress call.
	SignaturesErr error

	signatureCalls   atomic.Int64
	transactionCalls atomic.Int64
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Transactions:    make(map[string]*solana.Transaction),
		Signatures:      make(map[string][]solana.SignatureInfo),
		TransactionErrs: make(map[string]error),
	}
}

// GetTransaction retrieves a transaction by signature from the stub store.
func (c *RPCClient) GetTransaction(_ context.Context, signature string) (*solana.Transaction, error) {
	c.transactionCalls.Add(1)

	if err, ok := c.TransactionErrs[signature]; ok {
		return nil, err
	}
	tx, ok := c.Transactions[signature]
	if !ok {
		return nil, ErrNotFound
	}
	return tx, nil
}

// GetSignaturesForAddress pages through the configured signature list the
// way the real RPC does: newest-first, strictly older than Before, at most
// Limit entries.
func (c *RPCClient) GetSignaturesForAddress(_ context.Context, address string, opts *solana.SignaturesOpts) ([]solana.SignatureInfo, error) {
	c.signatureCalls.Add(1)

	if c.SignaturesErr != nil {
		return nil, c.SignaturesErr
	}

	sigs := c.Signatures[address]

	if opts != nil && opts.Before != "" {
		start := len(sigs)
		for i, s := range sigs {
			if s.Signature == opts.Before {
				start = i + 1
				break
			}
		}
		sigs = sigs[start:]
	}

	if opts != nil && opts.Limit > 0 && opts.Limit < len(sigs) {
		sigs = sigs[:opts.Limit]
	}

	return sigs, nil
}

// AddTransaction adds a transaction to the stub store.
func (c *RPCClient) AddTransaction(tx *solana.Transaction) {
	c.Transactions[tx.Signature] = tx
}

// AddSignatures appends signatures for an address, oldest entries last.
func (c *RPCClient) AddSignatures(address string, sigs []solana.SignatureInfo) {
	c.Signatures[address] = append(c.Signatures[address], sigs...)
}

// FailTransaction makes fetches of the given signature return err.
func (c *RPCClient) FailTransaction(signature string, err error) {
	c.TransactionErrs[signature] = err
}

// SignatureCalls reports how many GetSignaturesForAddress calls were made.
func (c *RPCClient) SignatureCalls() int64 {
	return c.signatureCalls.Load()
}

// TransactionCalls reports how many GetTransaction calls were made.
func (c *RPCClient) TransactionCalls() int64 {
	return c.transactionCalls.Load()
}

var _ solana.RPCClient = (*RPCClient)(nil)
