package domain

// ExtractedAccount is one labeled account copied out of a matched
// instruction. Corresponds to extracted_accounts table in PostgreSQL and
// ClickHouse. Rows of one run that share a Position come from the same
// instruction, whatever their label.
type ExtractedAccount struct {
	RunID       string // crawl run that produced the row
	Label       string // selector label
	Position    int    // row index within the label's bucket
	Address     string // extracted account address
	TxSignature string // transaction the instruction belongs to
	Slot        int64  // Solana slot number
	ProgramID   string // program of the matched instruction
	OuterIndex  int    // outer instruction index within the transaction
	InnerIndex  *int   // inner instruction index (nullable for outer instructions)
	CreatedAt   int64  // record creation timestamp (ms)
}
