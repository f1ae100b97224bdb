package crawler

import "solana-crawler/internal/solana"

// TxFilter is a predicate over a normalized transaction. Implementations
// must be pure: no side effects, no per-call state.
type TxFilter interface {
	// MatchTx reports whether the transaction passes.
	MatchTx(tx *Transaction) bool
}

// IxFilter is a predicate over a normalized instruction. Implementations
// must be pure: no side effects, no per-call state.
type IxFilter interface {
	// MatchIx reports whether the instruction passes.
	MatchIx(ix *Instruction) bool
}

// TxHasProgramID passes transactions in which at least one instruction,
// outer or inner, was processed by the given program.
type TxHasProgramID struct {
	program solana.Pubkey
}

// NewTxHasProgramID creates a TxHasProgramID filter.
func NewTxHasProgramID(program solana.Pubkey) TxHasProgramID {
	return TxHasProgramID{program: program}
}

func (f TxHasProgramID) MatchTx(tx *Transaction) bool {
	for i := range tx.Instructions {
		if tx.Instructions[i].ProgramID == f.program {
			return true
		}
	}
	return false
}

// SuccessfulTxFilter passes transactions that executed without error.
type SuccessfulTxFilter struct{}

func (SuccessfulTxFilter) MatchTx(tx *Transaction) bool {
	return tx.Succeeded
}

// TxAccountsContain passes transactions whose account-key vector contains
// the given key anywhere, loaded lookup-table keys included.
type TxAccountsContain struct {
	key solana.Pubkey
}

// NewTxAccountsContain creates a TxAccountsContain filter.
func NewTxAccountsContain(key solana.Pubkey) TxAccountsContain {
	return TxAccountsContain{key: key}
}

func (f TxAccountsContain) MatchTx(tx *Transaction) bool {
	for _, k := range tx.Accounts {
		if k == f.key {
			return true
		}
	}
	return false
}

var (
	_ TxFilter = TxHasProgramID{}
	_ TxFilter = SuccessfulTxFilter{}
	_ TxFilter = TxAccountsContain{}
)
