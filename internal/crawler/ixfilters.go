package crawler

import (
	"bytes"

	"solana-crawler/internal/solana"
)

// IxProgramID passes instructions processed by the given program.
type IxProgramID struct {
	program solana.Pubkey
}

// NewIxProgramID creates an IxProgramID filter.
func NewIxProgramID(program solana.Pubkey) IxProgramID {
	return IxProgramID{program: program}
}

func (f IxProgramID) MatchIx(ix *Instruction) bool {
	return ix.ProgramID == f.program
}

type numberAccountsKind int

const (
	numberAccountsEqualTo numberAccountsKind = iota
	numberAccountsLessThan
	numberAccountsGreaterThan
	numberAccountsBetween
)

// IxNumberAccounts passes instructions by the size of their account list.
// Construct with one of IxNumberAccountsEqualTo, IxNumberAccountsLessThan,
// IxNumberAccountsGreaterThan or IxNumberAccountsBetween.
type IxNumberAccounts struct {
	kind   numberAccountsKind
	n      int
	lo, hi int
}

// IxNumberAccountsEqualTo passes instructions with exactly n accounts.
func IxNumberAccountsEqualTo(n int) IxNumberAccounts {
	return IxNumberAccounts{kind: numberAccountsEqualTo, n: n}
}

// IxNumberAccountsLessThan passes instructions with fewer than n accounts.
func IxNumberAccountsLessThan(n int) IxNumberAccounts {
	return IxNumberAccounts{kind: numberAccountsLessThan, n: n}
}

// IxNumberAccountsGreaterThan passes instructions with more than n accounts.
func IxNumberAccountsGreaterThan(n int) IxNumberAccounts {
	return IxNumberAccounts{kind: numberAccountsGreaterThan, n: n}
}

// IxNumberAccountsBetween passes instructions whose account count lies in
// [lo, hi], bounds included.
func IxNumberAccountsBetween(lo, hi int) IxNumberAccounts {
	return IxNumberAccounts{kind: numberAccountsBetween, lo: lo, hi: hi}
}

func (f IxNumberAccounts) MatchIx(ix *Instruction) bool {
	n := len(ix.Accounts)
	switch f.kind {
	case numberAccountsEqualTo:
		return n == f.n
	case numberAccountsLessThan:
		return n < f.n
	case numberAccountsGreaterThan:
		return n > f.n
	case numberAccountsBetween:
		return n >= f.lo && n <= f.hi
	}
	return false
}

// IxDataStartsWith passes instructions whose data begins with the given
// prefix. Useful for matching Anchor method discriminators.
type IxDataStartsWith struct {
	prefix []byte
}

// NewIxDataStartsWith creates an IxDataStartsWith filter. The prefix is
// copied; an empty prefix passes every instruction.
func NewIxDataStartsWith(prefix []byte) IxDataStartsWith {
	return IxDataStartsWith{prefix: bytes.Clone(prefix)}
}

func (f IxDataStartsWith) MatchIx(ix *Instruction) bool {
	return bytes.HasPrefix(ix.Data, f.prefix)
}

var (
	_ IxFilter = IxProgramID{}
	_ IxFilter = IxNumberAccounts{}
	_ IxFilter = IxDataStartsWith{}
)
