package memory

import (
	"context"
	"sort"
	"sync"

	"solana-crawler/internal/domain"
	"solana-crawler/internal/storage"
)

// CrawlRunStore is an in-memory implementation of storage.CrawlRunStore.
type CrawlRunStore struct {
	mu   sync.RWMutex
	data map[string]*domain.CrawlRun // keyed by run_id
}

// NewCrawlRunStore creates a new in-memory crawl run store.
func NewCrawlRunStore() *CrawlRunStore {
	return &CrawlRunStore{
		data: make(map[string]*domain.CrawlRun),
	}
}

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *CrawlRunStore) Insert(_ context.Context, r *domain.CrawlRun) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[r.RunID] = copyRun(r)
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *CrawlRunStore) GetByID(_ context.Context, runID string) (*domain.CrawlRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	return copyRun(r), nil
}

// GetByTarget retrieves all runs for a target address, ordered by started_at ASC.
func (s *CrawlRunStore) GetByTarget(_ context.Context, target string) ([]*domain.CrawlRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.CrawlRun
	for _, r := range s.data {
		if r.TargetAddress == target {
			result = append(result, copyRun(r))
		}
	}

	sortRuns(result)
	return result, nil
}

// List retrieves all runs, ordered by started_at ASC.
func (s *CrawlRunStore) List(_ context.Context) ([]*domain.CrawlRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.CrawlRun, 0, len(s.data))
	for _, r := range s.data {
		result = append(result, copyRun(r))
	}

	sortRuns(result)
	return result, nil
}

// UpdateFinished records the outcome of the run identified by r.RunID.
func (s *CrawlRunStore) UpdateFinished(_ context.Context, r *domain.CrawlRun) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, exists := s.data[r.RunID]
	if !exists {
		return storage.ErrNotFound
	}

	cur.Status = r.Status
	cur.PagesFetched = r.PagesFetched
	cur.SignaturesSeen = r.SignaturesSeen
	cur.TxFetched = r.TxFetched
	cur.TxUnfetchable = r.TxUnfetchable
	cur.TxMalformed = r.TxMalformed
	cur.InstructionsMatched = r.InstructionsMatched
	cur.FinishedAt = copyInt64Ptr(r.FinishedAt)
	return nil
}

// copyRun clones a run to prevent external mutation of stored records.
func copyRun(r *domain.CrawlRun) *domain.CrawlRun {
	runCopy := *r
	runCopy.FinishedAt = copyInt64Ptr(r.FinishedAt)
	return &runCopy
}

func copyInt64Ptr(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// sortRuns orders runs by started_at ASC, run_id ASC for determinism.
func sortRuns(runs []*domain.CrawlRun) {
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].StartedAt != runs[j].StartedAt {
			return runs[i].StartedAt < runs[j].StartedAt
		}
		return runs[i].RunID < runs[j].RunID
	})
}

// Verify interface compliance at compile time.
var _ storage.CrawlRunStore = (*CrawlRunStore)(nil)
