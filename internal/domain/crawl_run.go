package domain

// RunStatus represents the lifecycle state of a crawl run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusCompleted RunStatus = "COMPLETED"
	RunStatusFailed    RunStatus = "FAILED"
)

// String returns the string representation of RunStatus.
func (s RunStatus) String() string {
	return string(s)
}

// IsValid checks if the status is a valid value.
func (s RunStatus) IsValid() bool {
	return s == RunStatusRunning || s == RunStatusCompleted || s == RunStatusFailed
}

// CrawlRun represents one history crawl over a target address.
// Corresponds to crawl_runs table in PostgreSQL.
type CrawlRun struct {
	RunID               string    // PRIMARY KEY, deterministic hash
	TargetAddress       string    // crawled account address
	Status              RunStatus // RUNNING | COMPLETED | FAILED
	PageSize            int       // signature page size used
	FetchParallelism    int       // transaction fetch parallelism used
	PagesFetched        int
	SignaturesSeen      int
	TxFetched           int
	TxUnfetchable       int
	TxMalformed         int
	InstructionsMatched int
	StartedAt           int64  // Unix timestamp in milliseconds
	FinishedAt          *int64 // nullable until the run ends (ms)
	CreatedAt           int64  // record creation timestamp (ms)
}
