package reporting

import "time"

// Report represents the rendered output for one crawl run.
type Report struct {
	// Metadata
	GeneratedAt time.Time

	// Run summary (status, counters, timing)
	Run RunSummary

	// Labels holds one section per extraction label, sorted by label.
	Labels []LabelSection

	// TotalAccounts is the row count across all labels.
	TotalAccounts int
}

// RunSummary describes the crawl run the report covers.
type RunSummary struct {
	RunID               string
	TargetAddress       string
	Status              string
	PageSize            int
	FetchParallelism    int
	PagesFetched        int
	SignaturesSeen      int
	TxFetched           int
	TxUnfetchable       int
	TxMalformed         int
	InstructionsMatched int
	StartedAt           int64  // Unix ms
	FinishedAt          *int64 // Unix ms, nil while running
}

// LabelSection groups the extracted accounts of a single label.
type LabelSection struct {
	Label string
	Rows  []AccountRow // sorted by position
}

// AccountRow represents one extracted account with its provenance.
type AccountRow struct {
	Position    int
	Address     string
	TxSignature string
	Slot        int64
	ProgramID   string
	OuterIndex  int
	InnerIndex  *int // nil for top-level instructions
}
