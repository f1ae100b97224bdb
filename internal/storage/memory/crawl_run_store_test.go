package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"solana-crawler/internal/domain"
	"solana-crawler/internal/storage"
)

func TestCrawlRunStore_InsertAndGet(t *testing.T) {
	store := NewCrawlRunStore()
	ctx := context.Background()

	r := &domain.CrawlRun{
		RunID:            "run123",
		TargetAddress:    "CandyMachine111",
		Status:           domain.RunStatusRunning,
		PageSize:         1000,
		FetchParallelism: 100,
		StartedAt:        1704067200000,
		CreatedAt:        1704067200000,
	}

	if err := store.Insert(ctx, r); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "run123")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}

	if got.RunID != r.RunID {
		t.Errorf("RunID mismatch: got %s, want %s", got.RunID, r.RunID)
	}
	if got.TargetAddress != r.TargetAddress {
		t.Errorf("TargetAddress mismatch: got %s, want %s", got.TargetAddress, r.TargetAddress)
	}
	if got.Status != domain.RunStatusRunning {
		t.Errorf("Status mismatch: got %s, want RUNNING", got.Status)
	}
	if got.FinishedAt != nil {
		t.Errorf("FinishedAt should be nil for a running run, got %v", *got.FinishedAt)
	}
}

func TestCrawlRunStore_DuplicateKey(t *testing.T) {
	store := NewCrawlRunStore()
	ctx := context.Background()

	r := &domain.CrawlRun{RunID: "run123", TargetAddress: "addr", Status: domain.RunStatusRunning, StartedAt: 1000}

	if err := store.Insert(ctx, r); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.Insert(ctx, r)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestCrawlRunStore_NotFound(t *testing.T) {
	store := NewCrawlRunStore()
	ctx := context.Background()

	_, err := store.GetByID(ctx, "nonexistent")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestCrawlRunStore_UpdateFinished(t *testing.T) {
	store := NewCrawlRunStore()
	ctx := context.Background()

	r := &domain.CrawlRun{
		RunID:         "run123",
		TargetAddress: "addr",
		Status:        domain.RunStatusRunning,
		StartedAt:     1000,
		CreatedAt:     1000,
	}
	if err := store.Insert(ctx, r); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	finishedAt := int64(2000)
	r.Status = domain.RunStatusCompleted
	r.PagesFetched = 3
	r.SignaturesSeen = 2100
	r.TxFetched = 2099
	r.TxUnfetchable = 1
	r.InstructionsMatched = 57
	r.FinishedAt = &finishedAt

	if err := store.UpdateFinished(ctx, r); err != nil {
		t.Fatalf("UpdateFinished failed: %v", err)
	}

	got, err := store.GetByID(ctx, "run123")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != domain.RunStatusCompleted {
		t.Errorf("Status not updated: got %s", got.Status)
	}
	if got.PagesFetched != 3 || got.SignaturesSeen != 2100 || got.TxFetched != 2099 {
		t.Errorf("Counters not updated: %+v", got)
	}
	if got.FinishedAt == nil || *got.FinishedAt != 2000 {
		t.Errorf("FinishedAt not updated: %v", got.FinishedAt)
	}
	if got.CreatedAt != 1000 {
		t.Errorf("CreatedAt should be untouched, got %d", got.CreatedAt)
	}
}

func TestCrawlRunStore_UpdateFinishedNotFound(t *testing.T) {
	store := NewCrawlRunStore()
	ctx := context.Background()

	err := store.UpdateFinished(ctx, &domain.CrawlRun{RunID: "missing"})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestCrawlRunStore_GetByTarget(t *testing.T) {
	store := NewCrawlRunStore()
	ctx := context.Background()

	runs := []*domain.CrawlRun{
		{RunID: "r1", TargetAddress: "a1", Status: domain.RunStatusCompleted, StartedAt: 3000},
		{RunID: "r2", TargetAddress: "a2", Status: domain.RunStatusCompleted, StartedAt: 1000},
		{RunID: "r3", TargetAddress: "a1", Status: domain.RunStatusCompleted, StartedAt: 2000},
	}
	for _, r := range runs {
		if err := store.Insert(ctx, r); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	result, err := store.GetByTarget(ctx, "a1")
	if err != nil {
		t.Fatalf("GetByTarget failed: %v", err)
	}

	if len(result) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(result))
	}
	if result[0].RunID != "r3" || result[1].RunID != "r1" {
		t.Errorf("Wrong order: got %s, %s", result[0].RunID, result[1].RunID)
	}
}

func TestCrawlRunStore_List(t *testing.T) {
	store := NewCrawlRunStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		r := &domain.CrawlRun{
			RunID:         fmt.Sprintf("r%d", i),
			TargetAddress: "addr",
			Status:        domain.RunStatusCompleted,
			StartedAt:     int64(3000 - i*1000),
		}
		if err := store.Insert(ctx, r); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	result, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(result) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(result))
	}
	if result[0].RunID != "r2" || result[2].RunID != "r0" {
		t.Errorf("Wrong order: %s, %s, %s", result[0].RunID, result[1].RunID, result[2].RunID)
	}
}

func TestCrawlRunStore_CopySemantics(t *testing.T) {
	store := NewCrawlRunStore()
	ctx := context.Background()

	r := &domain.CrawlRun{RunID: "run123", TargetAddress: "addr", Status: domain.RunStatusRunning, StartedAt: 1000}
	if err := store.Insert(ctx, r); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	// Mutating the inserted record must not affect the stored one.
	r.TargetAddress = "changed"

	got, err := store.GetByID(ctx, "run123")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.TargetAddress != "addr" {
		t.Errorf("Store leaked caller mutation: got %s", got.TargetAddress)
	}
}

func TestCrawlRunStore_ConcurrentInserts(t *testing.T) {
	store := NewCrawlRunStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	numGoroutines := 100

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			r := &domain.CrawlRun{
				RunID:         fmt.Sprintf("run-%d", id),
				TargetAddress: "addr",
				Status:        domain.RunStatusRunning,
				StartedAt:     int64(id * 1000),
			}
			_ = store.Insert(ctx, r)
		}(i)
	}

	wg.Wait()

	result, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(result) != numGoroutines {
		t.Errorf("Expected %d runs, got %d", numGoroutines, len(result))
	}
}

func TestCrawlRunStore_InvalidInput(t *testing.T) {
	store := NewCrawlRunStore()
	ctx := context.Background()

	err := store.Insert(ctx, nil)
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil, got %v", err)
	}

	err = store.Insert(ctx, &domain.CrawlRun{RunID: ""})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty ID, got %v", err)
	}
}
