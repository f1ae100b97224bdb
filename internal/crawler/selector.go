package crawler

import "solana-crawler/internal/solana"

type selectorKind int

const (
	selectorLiteral selectorKind = iota
	selectorAlias
)

// AccountSelector names one account to extract from every instruction that
// survives the filter chains.
type AccountSelector struct {
	label string
	kind  selectorKind
	index int
	ref   string
}

// AccountAt selects the account at the given position in the instruction's
// account list (not the transaction's key vector). Instructions with fewer
// accounts are skipped entirely.
func AccountAt(label string, index int) AccountSelector {
	return AccountSelector{label: label, kind: selectorLiteral, index: index}
}

// AccountAlias re-emits the value another selector resolved on the same
// instruction. The referenced label must be declared before the alias.
func AccountAlias(label, source string) AccountSelector {
	return AccountSelector{label: label, kind: selectorAlias, ref: source}
}

// Label returns the bucket this selector feeds.
func (s AccountSelector) Label() string {
	return s.label
}

// resolveSelectors resolves every selector against one instruction, in
// insertion order, which makes alias references to earlier labels
// well-defined. Returns ok=false if any selector fails to resolve; the
// caller must then skip the instruction so buckets stay row-aligned.
func resolveSelectors(sels []AccountSelector, ix *Instruction) (map[string]solana.Pubkey, bool) {
	resolved := make(map[string]solana.Pubkey, len(sels))
	for _, sel := range sels {
		switch sel.kind {
		case selectorLiteral:
			if sel.index < 0 || sel.index >= len(ix.Accounts) {
				return nil, false
			}
			resolved[sel.label] = ix.Accounts[sel.index]
		case selectorAlias:
			v, ok := resolved[sel.ref]
			if !ok {
				return nil, false
			}
			resolved[sel.label] = v
		}
	}
	return resolved, true
}
