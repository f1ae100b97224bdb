package clickhouse

import (
	"context"
	"fmt"
	"time"

	"solana-crawler/internal/domain"
	"solana-crawler/internal/storage"
)

// ExtractedAccountStore implements storage.ExtractedAccountStore using ClickHouse.
type ExtractedAccountStore struct {
	conn *Conn
}

// NewExtractedAccountStore creates a new ExtractedAccountStore.
func NewExtractedAccountStore(conn *Conn) *ExtractedAccountStore {
	return &ExtractedAccountStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ExtractedAccountStore = (*ExtractedAccountStore)(nil)

// InsertBulk adds multiple rows. Fails entire batch on duplicate
// (run_id, label, position).
func (s *ExtractedAccountStore) InsertBulk(ctx context.Context, accounts []*domain.ExtractedAccount) (err error) {
	if len(accounts) == 0 {
		return nil
	}
	defer observe("extracted_accounts_insert_bulk", time.Now(), &err)

	// Check for intra-batch duplicates
	type key struct {
		runID    string
		label    string
		position int
	}
	seen := make(map[key]struct{})
	for _, a := range accounts {
		k := key{a.RunID, a.Label, a.Position}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing DB rows. MergeTree does not
	// enforce uniqueness, so the check runs before the batch.
	for _, a := range accounts {
		exists, err := s.exists(ctx, a.RunID, a.Label, a.Position)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO extracted_accounts (
			run_id, label, position, address, tx_signature, slot, program_id,
			outer_index, inner_index, created_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, a := range accounts {
		err = batch.Append(
			a.RunID, a.Label, uint32(a.Position),
			a.Address, a.TxSignature, uint64(a.Slot), a.ProgramID,
			uint32(a.OuterIndex), toNullableUint32(a.InnerIndex), uint64(a.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByRun retrieves all rows of a run, ordered by label ASC, position ASC.
func (s *ExtractedAccountStore) GetByRun(ctx context.Context, runID string) (accounts []*domain.ExtractedAccount, err error) {
	defer observe("extracted_accounts_get_by_run", time.Now(), &err)

	query := `
		SELECT run_id, label, position, address, tx_signature, slot, program_id,
		       outer_index, inner_index, created_at
		FROM extracted_accounts
		WHERE run_id = ?
		ORDER BY label ASC, position ASC
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query by run: %w", err)
	}
	defer rows.Close()

	return scanExtractedAccounts(rows)
}

// GetByRunAndLabel retrieves one label's rows, ordered by position ASC.
func (s *ExtractedAccountStore) GetByRunAndLabel(ctx context.Context, runID, label string) (accounts []*domain.ExtractedAccount, err error) {
	defer observe("extracted_accounts_get_by_run_and_label", time.Now(), &err)

	query := `
		SELECT run_id, label, position, address, tx_signature, slot, program_id,
		       outer_index, inner_index, created_at
		FROM extracted_accounts
		WHERE run_id = ? AND label = ?
		ORDER BY position ASC
	`

	rows, err := s.conn.Query(ctx, query, runID, label)
	if err != nil {
		return nil, fmt.Errorf("query by run and label: %w", err)
	}
	defer rows.Close()

	return scanExtractedAccounts(rows)
}

// CountByRun returns per-label row counts for a run.
func (s *ExtractedAccountStore) CountByRun(ctx context.Context, runID string) (counts map[string]int, err error) {
	defer observe("extracted_accounts_count_by_run", time.Now(), &err)

	query := `
		SELECT label, count(*)
		FROM extracted_accounts
		WHERE run_id = ?
		GROUP BY label
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("count by run: %w", err)
	}
	defer rows.Close()

	counts = make(map[string]int)
	for rows.Next() {
		var label string
		var n uint64
		if err := rows.Scan(&label, &n); err != nil {
			return nil, fmt.Errorf("scan count row: %w", err)
		}
		counts[label] = int(n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate count rows: %w", err)
	}

	return counts, nil
}

// exists checks if a row with the given key exists.
func (s *ExtractedAccountStore) exists(ctx context.Context, runID, label string, position int) (bool, error) {
	query := `
		SELECT count(*) FROM extracted_accounts
		WHERE run_id = ? AND label = ? AND position = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, runID, label, uint32(position)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// toNullableUint32 converts *int to *uint32 for ClickHouse Nullable(UInt32).
func toNullableUint32(v *int) *uint32 {
	if v == nil {
		return nil
	}
	u := uint32(*v)
	return &u
}

// scanExtractedAccounts scans multiple rows into a slice.
func scanExtractedAccounts(rows chRows) ([]*domain.ExtractedAccount, error) {
	var accounts []*domain.ExtractedAccount

	for rows.Next() {
		var a domain.ExtractedAccount
		var position, outerIndex uint32
		var innerIndex *uint32
		var slot, createdAt uint64

		err := rows.Scan(
			&a.RunID, &a.Label, &position,
			&a.Address, &a.TxSignature, &slot, &a.ProgramID,
			&outerIndex, &innerIndex, &createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan extracted account row: %w", err)
		}

		a.Position = int(position)
		a.Slot = int64(slot)
		a.OuterIndex = int(outerIndex)
		a.CreatedAt = int64(createdAt)
		if innerIndex != nil {
			v := int(*innerIndex)
			a.InnerIndex = &v
		}

		accounts = append(accounts, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate extracted account rows: %w", err)
	}

	return accounts, nil
}
