package reporting

import (
	"context"
	"sort"
	"time"

	"solana-crawler/internal/domain"
	"solana-crawler/internal/storage"
)

// Generator produces reports from stored crawl data.
type Generator struct {
	runStore     storage.CrawlRunStore
	accountStore storage.ExtractedAccountStore
	now          func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(runStore storage.CrawlRunStore, accountStore storage.ExtractedAccountStore) *Generator {
	return &Generator{
		runStore:     runStore,
		accountStore: accountStore,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces a complete report for one crawl run.
func (g *Generator) Generate(ctx context.Context, runID string) (*Report, error) {
	run, err := g.runStore.GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}

	accounts, err := g.accountStore.GetByRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	return &Report{
		GeneratedAt:   g.now(),
		Run:           buildRunSummary(run),
		Labels:        buildLabelSections(accounts),
		TotalAccounts: len(accounts),
	}, nil
}

// BuildReport generates a report for runID using the given stores.
func BuildReport(ctx context.Context, runStore storage.CrawlRunStore, accountStore storage.ExtractedAccountStore, runID string) (*Report, error) {
	return NewGenerator(runStore, accountStore).Generate(ctx, runID)
}

func buildRunSummary(run *domain.CrawlRun) RunSummary {
	return RunSummary{
		RunID:               run.RunID,
		TargetAddress:       run.TargetAddress,
		Status:              run.Status.String(),
		PageSize:            run.PageSize,
		FetchParallelism:    run.FetchParallelism,
		PagesFetched:        run.PagesFetched,
		SignaturesSeen:      run.SignaturesSeen,
		TxFetched:           run.TxFetched,
		TxUnfetchable:       run.TxUnfetchable,
		TxMalformed:         run.TxMalformed,
		InstructionsMatched: run.InstructionsMatched,
		StartedAt:           run.StartedAt,
		FinishedAt:          run.FinishedAt,
	}
}

// buildLabelSections groups accounts by label and orders rows by position.
func buildLabelSections(accounts []*domain.ExtractedAccount) []LabelSection {
	groups := make(map[string][]AccountRow)
	for _, a := range accounts {
		groups[a.Label] = append(groups[a.Label], AccountRow{
			Position:    a.Position,
			Address:     a.Address,
			TxSignature: a.TxSignature,
			Slot:        a.Slot,
			ProgramID:   a.ProgramID,
			OuterIndex:  a.OuterIndex,
			InnerIndex:  a.InnerIndex,
		})
	}

	sections := make([]LabelSection, 0, len(groups))
	for label, rows := range groups {
		sort.Slice(rows, func(i, j int) bool {
			return rows[i].Position < rows[j].Position
		})
		sections = append(sections, LabelSection{Label: label, Rows: rows})
	}

	// Sort sections by label for stable output
	sort.Slice(sections, func(i, j int) bool {
		return sections[i].Label < sections[j].Label
	})

	return sections
}
