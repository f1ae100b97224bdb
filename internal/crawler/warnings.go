package crawler

import "fmt"

// WarningKind classifies non-fatal per-transaction failures.
type WarningKind string

const (
	// WarningTxUnfetchable marks a transaction whose fetch failed.
	WarningTxUnfetchable WarningKind = "TX_UNFETCHABLE"
	// WarningTxMalformed marks a transaction that could not be normalized.
	WarningTxMalformed WarningKind = "TX_MALFORMED"
)

// Warning records a skipped transaction. Warnings never abort a run; they
// are counted and the first few are kept as examples.
type Warning struct {
	Kind      WarningKind
	Signature string
	Err       error
}

func (w Warning) String() string {
	return fmt.Sprintf("%s %s: %v", w.Kind, w.Signature, w.Err)
}
