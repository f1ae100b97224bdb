package storage

import (
	"context"

	"solana-crawler/internal/domain"
)

// CrawlRunStore provides access to crawl_runs storage.
type CrawlRunStore interface {
	// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, r *domain.CrawlRun) error

	// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.CrawlRun, error)

	// GetByTarget retrieves all runs for a target address, ordered by started_at ASC.
	GetByTarget(ctx context.Context, target string) ([]*domain.CrawlRun, error)

	// List retrieves all runs, ordered by started_at ASC.
	List(ctx context.Context) ([]*domain.CrawlRun, error)

	// UpdateFinished records the outcome of the run identified by r.RunID:
	// status, counters, finished_at. Returns ErrNotFound if the run does
	// not exist.
	UpdateFinished(ctx context.Context, r *domain.CrawlRun) error
}

// ExtractedAccountStore provides access to extracted_accounts storage.
type ExtractedAccountStore interface {
	// InsertBulk adds multiple rows atomically. Fails entire batch on any
	// duplicate (run_id, label, position).
	InsertBulk(ctx context.Context, accounts []*domain.ExtractedAccount) error

	// GetByRun retrieves all rows of a run, ordered by label ASC, position ASC.
	GetByRun(ctx context.Context, runID string) ([]*domain.ExtractedAccount, error)

	// GetByRunAndLabel retrieves one label's rows, ordered by position ASC.
	GetByRunAndLabel(ctx context.Context, runID, label string) ([]*domain.ExtractedAccount, error)

	// CountByRun returns per-label row counts for a run.
	CountByRun(ctx context.Context, runID string) (map[string]int, error)
}
