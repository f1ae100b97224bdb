package memory

import (
	"context"
	"sort"
	"sync"

	"solana-crawler/internal/domain"
	"solana-crawler/internal/storage"
)

type accountKey struct {
	runID    string
	label    string
	position int
}

// ExtractedAccountStore is an in-memory implementation of storage.ExtractedAccountStore.
type ExtractedAccountStore struct {
	mu   sync.RWMutex
	data map[accountKey]*domain.ExtractedAccount
}

// NewExtractedAccountStore creates a new in-memory extracted account store.
func NewExtractedAccountStore() *ExtractedAccountStore {
	return &ExtractedAccountStore{
		data: make(map[accountKey]*domain.ExtractedAccount),
	}
}

// InsertBulk adds multiple rows atomically. Fails entire batch on any
// duplicate (run_id, label, position) without inserting anything.
func (s *ExtractedAccountStore) InsertBulk(_ context.Context, accounts []*domain.ExtractedAccount) error {
	if len(accounts) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate and check duplicates before mutating anything.
	batch := make(map[accountKey]struct{}, len(accounts))
	for _, a := range accounts {
		if a == nil || a.RunID == "" || a.Label == "" || a.Position < 0 {
			return storage.ErrInvalidInput
		}
		k := accountKey{a.RunID, a.Label, a.Position}
		if _, exists := batch[k]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := s.data[k]; exists {
			return storage.ErrDuplicateKey
		}
		batch[k] = struct{}{}
	}

	for _, a := range accounts {
		s.data[accountKey{a.RunID, a.Label, a.Position}] = copyAccount(a)
	}
	return nil
}

// GetByRun retrieves all rows of a run, ordered by label ASC, position ASC.
func (s *ExtractedAccountStore) GetByRun(_ context.Context, runID string) ([]*domain.ExtractedAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ExtractedAccount
	for _, a := range s.data {
		if a.RunID == runID {
			result = append(result, copyAccount(a))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Label != result[j].Label {
			return result[i].Label < result[j].Label
		}
		return result[i].Position < result[j].Position
	})

	return result, nil
}

// GetByRunAndLabel retrieves one label's rows, ordered by position ASC.
func (s *ExtractedAccountStore) GetByRunAndLabel(_ context.Context, runID, label string) ([]*domain.ExtractedAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ExtractedAccount
	for _, a := range s.data {
		if a.RunID == runID && a.Label == label {
			result = append(result, copyAccount(a))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Position < result[j].Position
	})

	return result, nil
}

// CountByRun returns per-label row counts for a run.
func (s *ExtractedAccountStore) CountByRun(_ context.Context, runID string) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, a := range s.data {
		if a.RunID == runID {
			counts[a.Label]++
		}
	}

	return counts, nil
}

// copyAccount clones a row to prevent external mutation of stored records.
func copyAccount(a *domain.ExtractedAccount) *domain.ExtractedAccount {
	accountCopy := *a
	if a.InnerIndex != nil {
		v := *a.InnerIndex
		accountCopy.InnerIndex = &v
	}
	return &accountCopy
}

// Verify interface compliance at compile time.
var _ storage.ExtractedAccountStore = (*ExtractedAccountStore)(nil)
