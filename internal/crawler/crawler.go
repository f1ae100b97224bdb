// Package crawler mines the transaction history of one Solana account.
// It pages backwards through the account's signatures, fetches each
// transaction, runs user-configured filter chains over transactions and
// instructions, and copies selected accounts of surviving instructions
// into labeled buckets.
package crawler

import (
	"context"
	"fmt"
	"log"

	"solana-crawler/internal/solana"
)

// Default configuration values.
const (
	// DefaultPageSize is the RPC maximum for getSignaturesForAddress.
	DefaultPageSize = 1000
	// DefaultFetchParallelism bounds concurrent transaction fetches per page.
	DefaultFetchParallelism = 100
	// DefaultMaxWarnings caps how many warning examples a run keeps.
	DefaultMaxWarnings = 10
)

// Crawler walks one address's history and extracts labeled accounts.
// Configure it with the chainable Add methods, then consume it with Run.
// Filters and selectors are append-only.
type Crawler struct {
	client           solana.RPCClient
	target           solana.Pubkey
	txFilters        []TxFilter
	ixFilters        []IxFilter
	selectors        []AccountSelector
	labels           map[string]struct{}
	pageSize         int
	fetchParallelism int
	maxWarnings      int
	maxPages         int
	logger           *log.Logger
	configErr        error
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithPageSize overrides the signature page size. Values are clamped to
// [1, DefaultPageSize].
func WithPageSize(n int) Option {
	return func(c *Crawler) {
		if n < 1 {
			n = 1
		}
		if n > DefaultPageSize {
			n = DefaultPageSize
		}
		c.pageSize = n
	}
}

// WithFetchParallelism bounds concurrent transaction fetches within a page.
// Parallelism never changes the output: page results are consumed in page
// order.
func WithFetchParallelism(n int) Option {
	return func(c *Crawler) {
		if n < 1 {
			n = 1
		}
		c.fetchParallelism = n
	}
}

// WithMaxWarnings caps how many warning examples the run keeps. Counters
// are not affected.
func WithMaxWarnings(n int) Option {
	return func(c *Crawler) {
		if n < 0 {
			n = 0
		}
		c.maxWarnings = n
	}
}

// WithMaxPages stops the crawl after n signature pages. Zero means
// unlimited.
func WithMaxPages(n int) Option {
	return func(c *Crawler) {
		c.maxPages = n
	}
}

// WithLogger sets the logger for crawl progress.
func WithLogger(l *log.Logger) Option {
	return func(c *Crawler) {
		c.logger = l
	}
}

// New creates a Crawler for the target address. The client is used
// concurrently during page fetches and must tolerate that.
func New(client solana.RPCClient, target solana.Pubkey, opts ...Option) *Crawler {
	c := &Crawler{
		client:           client,
		target:           target,
		labels:           make(map[string]struct{}),
		pageSize:         DefaultPageSize,
		fetchParallelism: DefaultFetchParallelism,
		maxWarnings:      DefaultMaxWarnings,
		logger:           log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddTxFilter appends a transaction-level filter. Filters run in insertion
// order and reject on the first miss.
func (c *Crawler) AddTxFilter(f TxFilter) *Crawler {
	c.txFilters = append(c.txFilters, f)
	return c
}

// AddIxFilter appends an instruction-level filter. Filters run in
// insertion order and reject on the first miss.
func (c *Crawler) AddIxFilter(f IxFilter) *Crawler {
	c.ixFilters = append(c.ixFilters, f)
	return c
}

// AddAccountIndex appends an account selector. A duplicate label or an
// alias naming a label not declared before it poisons the crawler: Run
// reports the error without issuing any RPC call.
func (c *Crawler) AddAccountIndex(sel AccountSelector) *Crawler {
	if c.configErr != nil {
		return c
	}

	if _, dup := c.labels[sel.label]; dup {
		c.configErr = fmt.Errorf("%w: %q", ErrDuplicateLabel, sel.label)
		return c
	}
	if sel.kind == selectorAlias {
		if _, ok := c.labels[sel.ref]; !ok {
			c.configErr = fmt.Errorf("%w: %q references %q", ErrForwardLabelReference, sel.label, sel.ref)
			return c
		}
	}

	c.labels[sel.label] = struct{}{}
	c.selectors = append(c.selectors, sel)
	return c
}

// Err reports a pending configuration error, nil if the configuration is
// valid so far.
func (c *Crawler) Err() error {
	return c.configErr
}

// RunStats summarizes a finished run. Warnings holds the first examples,
// capped by WithMaxWarnings; the counters are exact.
type RunStats struct {
	PagesFetched        int
	SignaturesSeen      int
	TxFetched           int
	TxUnfetchable       int
	TxMalformed         int
	InstructionsMatched int
	Warnings            []Warning
}

// RowOrigin identifies the instruction behind one result row.
type RowOrigin struct {
	Signature string
	Slot      int64
	ProgramID solana.Pubkey
	Origin    Origin
}

// RunResult carries the labeled buckets and the run summary. Buckets are
// row-aligned: the k-th entries of all labels come from the same
// instruction, described by Rows[k].
type RunResult struct {
	Accounts map[string][]solana.Pubkey
	Rows     []RowOrigin
	Stats    RunStats
}

// Run crawls the target address's full history and returns the extracted
// buckets. Results are deterministic for a fixed chain state: signatures
// newest-first, outer instructions before inner ones, selectors in
// insertion order. Cancelling the context aborts the run and discards
// partial results.
func (c *Crawler) Run(ctx context.Context) (*RunResult, error) {
	if c.configErr != nil {
		return nil, c.configErr
	}

	buckets := make(map[string][]solana.Pubkey, len(c.selectors))
	for _, sel := range c.selectors {
		buckets[sel.label] = []solana.Pubkey{}
	}

	var stats RunStats
	var rows []RowOrigin
	seen := make(map[string]struct{})
	pager := newSignaturePager(c.client, c.target.String(), c.pageSize)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if c.maxPages > 0 && stats.PagesFetched >= c.maxPages {
			break
		}

		page, err := pager.Next(ctx)
		if err != nil {
			return nil, err
		}
		if page == nil {
			break
		}
		stats.PagesFetched++

		// Visit each signature at most once even if pages overlap.
		fresh := make([]solana.SignatureInfo, 0, len(page))
		for _, s := range page {
			if _, dup := seen[s.Signature]; dup {
				continue
			}
			seen[s.Signature] = struct{}{}
			fresh = append(fresh, s)
		}
		stats.SignaturesSeen += len(fresh)
		if len(fresh) == 0 {
			continue
		}

		txs, warnings, err := c.fetchPage(ctx, fresh)
		if err != nil {
			return nil, err
		}
		stats.TxUnfetchable += len(warnings)
		c.keepWarnings(&stats, warnings)

		for _, tx := range txs {
			if tx == nil {
				continue
			}
			stats.TxFetched++
			rows = c.processTransaction(tx, buckets, rows, &stats)
		}

		c.logger.Printf("page %d: %d signatures, %d matched instructions so far",
			stats.PagesFetched, len(fresh), stats.InstructionsMatched)
	}

	c.logger.Printf("crawl finished: %d pages, %d signatures, %d matched instructions, %d unfetchable, %d malformed",
		stats.PagesFetched, stats.SignaturesSeen, stats.InstructionsMatched, stats.TxUnfetchable, stats.TxMalformed)

	return &RunResult{Accounts: buckets, Rows: rows, Stats: stats}, nil
}

// processTransaction normalizes one transaction and runs the filter chains
// and selectors over it, returning the extended row list.
func (c *Crawler) processTransaction(tx *solana.Transaction, buckets map[string][]solana.Pubkey, rows []RowOrigin, stats *RunStats) []RowOrigin {
	norm, err := Normalize(tx)
	if err != nil {
		stats.TxMalformed++
		c.keepWarnings(stats, []Warning{{Kind: WarningTxMalformed, Signature: tx.Signature, Err: err}})
		return rows
	}

	for _, f := range c.txFilters {
		if !f.MatchTx(norm) {
			return rows
		}
	}

	for i := range norm.Instructions {
		ix := &norm.Instructions[i]

		if !c.matchIxFilters(ix) {
			continue
		}

		resolved, ok := resolveSelectors(c.selectors, ix)
		if !ok {
			continue
		}

		for _, sel := range c.selectors {
			buckets[sel.label] = append(buckets[sel.label], resolved[sel.label])
		}
		rows = append(rows, RowOrigin{
			Signature: norm.Signature,
			Slot:      norm.Slot,
			ProgramID: ix.ProgramID,
			Origin:    ix.Origin,
		})
		stats.InstructionsMatched++
	}

	return rows
}

func (c *Crawler) matchIxFilters(ix *Instruction) bool {
	for _, f := range c.ixFilters {
		if !f.MatchIx(ix) {
			return false
		}
	}
	return true
}

func (c *Crawler) keepWarnings(stats *RunStats, ws []Warning) {
	for _, w := range ws {
		if len(stats.Warnings) >= c.maxWarnings {
			return
		}
		stats.Warnings = append(stats.Warnings, w)
	}
}
