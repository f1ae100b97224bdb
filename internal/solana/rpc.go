package solana

import "context"

// RPCClient defines the Solana RPC operations the crawler consumes.
//
// Implementations must be safe for concurrent use: the crawler issues
// transaction fetches for a whole signature page in parallel.
type RPCClient interface {
	// GetTransaction retrieves a confirmed transaction by signature,
	// including inner instructions and lookup-table keys.
	// Returns (nil, nil) if the transaction is not found.
	GetTransaction(ctx context.Context, signature string) (*Transaction, error)

	// GetSignaturesForAddress retrieves signatures for an address,
	// newest-first, with pagination.
	GetSignaturesForAddress(ctx context.Context, address string, opts *SignaturesOpts) ([]SignatureInfo, error)
}

// Transaction represents a fetched Solana transaction.
type Transaction struct {
	Slot      int64
	Signature string
	BlockTime int64 // Unix timestamp (seconds), 0 when unknown
	Meta      *TransactionMeta
	Message   *TransactionMessage
}

// TransactionMeta contains transaction execution metadata.
type TransactionMeta struct {
	Err               interface{} // nil on success
	Fee               uint64
	LogMessages       []string
	InnerInstructions []InnerInstructionGroup
	LoadedAddresses   LoadedAddresses
}

// InnerInstructionGroup holds the inner instructions invoked by one outer
// instruction, identified by the outer instruction's index.
type InnerInstructionGroup struct {
	Index        int
	Instructions []CompiledInstruction
}

// LoadedAddresses lists account keys resolved from address lookup tables.
type LoadedAddresses struct {
	Writable []string
	Readonly []string
}

// TransactionMessage contains the parsed transaction message.
type TransactionMessage struct {
	AccountKeys     []string
	RecentBlockhash string
	Instructions    []CompiledInstruction
}

// CompiledInstruction references its program and accounts as indices into
// the transaction's combined account-key vector.
type CompiledInstruction struct {
	ProgramIDIndex int
	Accounts       []int
	Data           string // base-58 encoded
}

// AllAccountKeys returns every account key referenced by the transaction:
// static message keys first, then lookup-table keys, writable before
// readonly. Instruction indices are measured against this vector.
func (t *Transaction) AllAccountKeys() []string {
	if t.Message == nil {
		return nil
	}
	keys := make([]string, 0, len(t.Message.AccountKeys))
	keys = append(keys, t.Message.AccountKeys...)
	if t.Meta != nil {
		keys = append(keys, t.Meta.LoadedAddresses.Writable...)
		keys = append(keys, t.Meta.LoadedAddresses.Readonly...)
	}
	return keys
}

// Succeeded reports whether the transaction executed without error.
func (t *Transaction) Succeeded() bool {
	return t.Meta != nil && t.Meta.Err == nil
}

// SignatureInfo is one entry from getSignaturesForAddress. The JSON tags
// match the RPC wire format so entries decode directly.
type SignatureInfo struct {
	Signature string      `json:"signature"`
	Slot      int64       `json:"slot"`
	BlockTime *int64      `json:"blockTime"`
	Err       interface{} `json:"err"` // nil when the transaction succeeded
}

// SignaturesOpts narrows a getSignaturesForAddress call. Zero values fall
// back to the node defaults.
type SignaturesOpts struct {
	Before string // walk backwards from this signature (exclusive)
	Until  string // stop at this signature (exclusive)
	Limit  int    // page size, the node caps it at 1000
}
