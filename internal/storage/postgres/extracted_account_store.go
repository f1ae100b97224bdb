package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"solana-crawler/internal/domain"
	"solana-crawler/internal/storage"
)

// ExtractedAccountStore implements storage.ExtractedAccountStore using PostgreSQL.
type ExtractedAccountStore struct {
	pool *Pool
}

// NewExtractedAccountStore creates a new ExtractedAccountStore.
func NewExtractedAccountStore(pool *Pool) *ExtractedAccountStore {
	return &ExtractedAccountStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ExtractedAccountStore = (*ExtractedAccountStore)(nil)

const insertAccountQuery = `
	INSERT INTO extracted_accounts (
		run_id, label, position, address, tx_signature, slot, program_id,
		outer_index, inner_index
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`

const selectAccountColumns = `
	run_id, label, position, address, tx_signature, slot, program_id,
	outer_index, inner_index, created_at
`

// InsertBulk adds multiple rows atomically. Fails entire batch on any duplicate.
func (s *ExtractedAccountStore) InsertBulk(ctx context.Context, accounts []*domain.ExtractedAccount) (err error) {
	if len(accounts) == 0 {
		return nil
	}
	defer observe("extracted_accounts_insert_bulk", time.Now(), &err)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, a := range accounts {
		_, err := tx.Exec(ctx, insertAccountQuery,
			a.RunID,
			a.Label,
			a.Position,
			a.Address,
			a.TxSignature,
			a.Slot,
			a.ProgramID,
			a.OuterIndex,
			a.InnerIndex,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert extracted account in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByRun retrieves all rows of a run, ordered by label ASC, position ASC.
func (s *ExtractedAccountStore) GetByRun(ctx context.Context, runID string) (accounts []*domain.ExtractedAccount, err error) {
	defer observe("extracted_accounts_get_by_run", time.Now(), &err)

	query := `
		SELECT ` + selectAccountColumns + `
		FROM extracted_accounts
		WHERE run_id = $1
		ORDER BY label ASC, position ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get accounts by run: %w", err)
	}
	defer rows.Close()

	return scanAccounts(rows)
}

// GetByRunAndLabel retrieves one label's rows, ordered by position ASC.
func (s *ExtractedAccountStore) GetByRunAndLabel(ctx context.Context, runID, label string) (accounts []*domain.ExtractedAccount, err error) {
	defer observe("extracted_accounts_get_by_run_and_label", time.Now(), &err)

	query := `
		SELECT ` + selectAccountColumns + `
		FROM extracted_accounts
		WHERE run_id = $1 AND label = $2
		ORDER BY position ASC
	`

	rows, err := s.pool.Query(ctx, query, runID, label)
	if err != nil {
		return nil, fmt.Errorf("get accounts by run and label: %w", err)
	}
	defer rows.Close()

	return scanAccounts(rows)
}

// CountByRun returns per-label row counts for a run.
func (s *ExtractedAccountStore) CountByRun(ctx context.Context, runID string) (counts map[string]int, err error) {
	defer observe("extracted_accounts_count_by_run", time.Now(), &err)

	query := `
		SELECT label, COUNT(*)
		FROM extracted_accounts
		WHERE run_id = $1
		GROUP BY label
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("count accounts by run: %w", err)
	}
	defer rows.Close()

	counts = make(map[string]int)
	for rows.Next() {
		var label string
		var n int
		if err := rows.Scan(&label, &n); err != nil {
			return nil, fmt.Errorf("scan count row: %w", err)
		}
		counts[label] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate count rows: %w", err)
	}

	return counts, nil
}

// scanAccounts scans multiple rows into a slice of ExtractedAccount.
func scanAccounts(rows pgx.Rows) ([]*domain.ExtractedAccount, error) {
	var accounts []*domain.ExtractedAccount

	for rows.Next() {
		var a domain.ExtractedAccount

		err := rows.Scan(
			&a.RunID,
			&a.Label,
			&a.Position,
			&a.Address,
			&a.TxSignature,
			&a.Slot,
			&a.ProgramID,
			&a.OuterIndex,
			&a.InnerIndex,
			&a.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan extracted account row: %w", err)
		}

		accounts = append(accounts, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate extracted account rows: %w", err)
	}

	return accounts, nil
}
