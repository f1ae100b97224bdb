package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"solana-crawler/internal/domain"
	"solana-crawler/internal/storage"
)

// CrawlRunStore implements storage.CrawlRunStore using PostgreSQL.
type CrawlRunStore struct {
	pool *Pool
}

// NewCrawlRunStore creates a new CrawlRunStore.
func NewCrawlRunStore(pool *Pool) *CrawlRunStore {
	return &CrawlRunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CrawlRunStore = (*CrawlRunStore)(nil)

const crawlRunColumns = `
	run_id, target_address, status, page_size, fetch_parallelism,
	pages_fetched, signatures_seen, tx_fetched, tx_unfetchable, tx_malformed,
	instructions_matched, started_at, finished_at, created_at
`

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *CrawlRunStore) Insert(ctx context.Context, r *domain.CrawlRun) (err error) {
	defer observe("crawl_runs_insert", time.Now(), &err)

	query := `
		INSERT INTO crawl_runs (
			run_id, target_address, status, page_size, fetch_parallelism,
			pages_fetched, signatures_seen, tx_fetched, tx_unfetchable, tx_malformed,
			instructions_matched, started_at, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err = s.pool.Exec(ctx, query,
		r.RunID,
		r.TargetAddress,
		string(r.Status),
		r.PageSize,
		r.FetchParallelism,
		r.PagesFetched,
		r.SignaturesSeen,
		r.TxFetched,
		r.TxUnfetchable,
		r.TxMalformed,
		r.InstructionsMatched,
		r.StartedAt,
		r.FinishedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert crawl run: %w", err)
	}
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *CrawlRunStore) GetByID(ctx context.Context, runID string) (run *domain.CrawlRun, err error) {
	defer observe("crawl_runs_get_by_id", time.Now(), &err)

	query := `SELECT ` + crawlRunColumns + ` FROM crawl_runs WHERE run_id = $1`

	run, err = scanCrawlRun(s.pool.QueryRow(ctx, query, runID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get crawl run by id: %w", err)
	}
	return run, nil
}

// GetByTarget retrieves all runs for a target address, ordered by started_at ASC.
func (s *CrawlRunStore) GetByTarget(ctx context.Context, target string) (runs []*domain.CrawlRun, err error) {
	defer observe("crawl_runs_get_by_target", time.Now(), &err)

	query := `
		SELECT ` + crawlRunColumns + `
		FROM crawl_runs
		WHERE target_address = $1
		ORDER BY started_at ASC, run_id ASC
	`

	rows, err := s.pool.Query(ctx, query, target)
	if err != nil {
		return nil, fmt.Errorf("get crawl runs by target: %w", err)
	}
	defer rows.Close()

	return scanCrawlRuns(rows)
}

// List retrieves all runs, ordered by started_at ASC.
func (s *CrawlRunStore) List(ctx context.Context) (runs []*domain.CrawlRun, err error) {
	defer observe("crawl_runs_list", time.Now(), &err)

	query := `
		SELECT ` + crawlRunColumns + `
		FROM crawl_runs
		ORDER BY started_at ASC, run_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list crawl runs: %w", err)
	}
	defer rows.Close()

	return scanCrawlRuns(rows)
}

// UpdateFinished records the outcome of the run identified by r.RunID.
func (s *CrawlRunStore) UpdateFinished(ctx context.Context, r *domain.CrawlRun) (err error) {
	defer observe("crawl_runs_update_finished", time.Now(), &err)

	query := `
		UPDATE crawl_runs SET
			status = $2,
			pages_fetched = $3,
			signatures_seen = $4,
			tx_fetched = $5,
			tx_unfetchable = $6,
			tx_malformed = $7,
			instructions_matched = $8,
			finished_at = $9
		WHERE run_id = $1
	`

	tag, err := s.pool.Exec(ctx, query,
		r.RunID,
		string(r.Status),
		r.PagesFetched,
		r.SignaturesSeen,
		r.TxFetched,
		r.TxUnfetchable,
		r.TxMalformed,
		r.InstructionsMatched,
		r.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("update crawl run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// scanCrawlRun scans a single row into a CrawlRun.
func scanCrawlRun(row pgx.Row) (*domain.CrawlRun, error) {
	var r domain.CrawlRun
	var statusStr string

	err := row.Scan(
		&r.RunID,
		&r.TargetAddress,
		&statusStr,
		&r.PageSize,
		&r.FetchParallelism,
		&r.PagesFetched,
		&r.SignaturesSeen,
		&r.TxFetched,
		&r.TxUnfetchable,
		&r.TxMalformed,
		&r.InstructionsMatched,
		&r.StartedAt,
		&r.FinishedAt,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Status = domain.RunStatus(statusStr)
	return &r, nil
}

// scanCrawlRuns scans multiple rows into a slice of CrawlRun.
func scanCrawlRuns(rows pgx.Rows) ([]*domain.CrawlRun, error) {
	var runs []*domain.CrawlRun

	for rows.Next() {
		r, err := scanCrawlRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan crawl run row: %w", err)
		}
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate crawl run rows: %w", err)
	}

	return runs, nil
}
