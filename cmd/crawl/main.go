package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"solana-crawler/internal/crawler"
	"solana-crawler/internal/domain"
	"solana-crawler/internal/observability"
	"solana-crawler/internal/presets"
	"solana-crawler/internal/runid"
	"solana-crawler/internal/solana"
	"solana-crawler/internal/storage"
	chstore "solana-crawler/internal/storage/clickhouse"
	"solana-crawler/internal/storage/memory"
	"solana-crawler/internal/storage/migrations"
	pgstore "solana-crawler/internal/storage/postgres"
)

// options collects the parsed command line.
type options struct {
	rpcURL           string
	address          string
	programIDs       string
	successOnly      bool
	ixProgramID      string
	ixNumAccounts    string
	ixDataPrefix     string
	accounts         string
	preset           string
	pageSize         int
	fetchParallelism int
	maxPages         int
	maxWarnings      int
	postgresDSN      string
	clickhouseDSN    string
	useMemory        bool
	timeout          time.Duration
}

func main() {
	// Parse flags
	var opts options
	flag.StringVar(&opts.rpcURL, "rpc-url", "", "Solana RPC HTTP endpoint")
	flag.StringVar(&opts.address, "address", "", "Account address to crawl")
	flag.StringVar(&opts.programIDs, "program-id", "", "Comma-separated program IDs a transaction must have invoked")
	flag.BoolVar(&opts.successOnly, "success-only", false, "Skip failed transactions")
	flag.StringVar(&opts.ixProgramID, "ix-program-id", "", "Program ID an instruction must be processed by")
	flag.StringVar(&opts.ixNumAccounts, "ix-num-accounts", "", "Instruction account count: N, =N, <N, >N or lo..hi")
	flag.StringVar(&opts.ixDataPrefix, "ix-data-prefix", "", "Hex prefix the instruction data must start with")
	flag.StringVar(&opts.accounts, "account", "", "Comma-separated selectors: label:index or label:@other")
	flag.StringVar(&opts.preset, "preset", "", "Preconfigured crawl (candy-machine-mints), replaces the filter and selector flags")
	flag.IntVar(&opts.pageSize, "page-size", crawler.DefaultPageSize, "Signature page size (1-1000)")
	flag.IntVar(&opts.fetchParallelism, "fetch-parallelism", crawler.DefaultFetchParallelism, "Concurrent transaction fetches per page")
	flag.IntVar(&opts.maxPages, "max-pages", 0, "Stop after this many signature pages (0 = unlimited)")
	flag.IntVar(&opts.maxWarnings, "max-warnings", crawler.DefaultMaxWarnings, "Warning examples to keep (counters stay exact)")
	flag.StringVar(&opts.postgresDSN, "postgres-dsn", "", "PostgreSQL connection string")
	flag.StringVar(&opts.clickhouseDSN, "clickhouse-dsn", "", "Optional ClickHouse connection string for an analytics copy")
	flag.BoolVar(&opts.useMemory, "use-memory", false, "Use in-memory storage instead of PostgreSQL")
	flag.DurationVar(&opts.timeout, "timeout", 30*time.Second, "RPC request timeout")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address (empty to disable)")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[crawl] ", log.LstdFlags|log.Lshortfile)

	if opts.rpcURL == "" {
		logger.Fatal("--rpc-url is required")
	}
	if opts.address == "" {
		logger.Fatal("--address is required")
	}
	if opts.accounts == "" && opts.preset == "" {
		logger.Fatal("--account or --preset is required (nothing to extract without selectors)")
	}

	// Start metrics server if enabled
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	// Handle shutdown signals with graceful timeout
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	err := runCrawl(ctx, logger, opts)

	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("Error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// runCrawl drives one crawl end to end: RPC health check, crawler
// construction, run, persistence, metrics.
func runCrawl(ctx context.Context, logger *log.Logger, opts options) error {
	target, err := solana.PubkeyFromBase58(opts.address)
	if err != nil {
		return fmt.Errorf("parse --address: %w", err)
	}

	httpClient := solana.NewHTTPClient(opts.rpcURL, solana.WithTimeout(opts.timeout))
	slot, err := httpClient.GetSlot(ctx)
	if err != nil {
		return fmt.Errorf("rpc health check: %w", err)
	}
	logger.Printf("Connected to %s, current slot %d", opts.rpcURL, slot)

	rpc := observability.NewInstrumentedRPCClient(httpClient)

	// Create stores (use interfaces)
	var runStore storage.CrawlRunStore = memory.NewCrawlRunStore()
	var accountStore storage.ExtractedAccountStore = memory.NewExtractedAccountStore()

	if !opts.useMemory {
		if opts.postgresDSN == "" {
			return fmt.Errorf("--postgres-dsn is required (use --use-memory for in-memory storage)")
		}
		pool, err := pgstore.NewPool(ctx, opts.postgresDSN)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return fmt.Errorf("run postgres migrations: %w", err)
		}

		runStore = pgstore.NewCrawlRunStore(pool)
		accountStore = pgstore.NewExtractedAccountStore(pool)
	}

	// Optional ClickHouse copy of the extracted rows
	var chAccounts storage.ExtractedAccountStore
	if opts.clickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, opts.clickhouseDSN)
		if err != nil {
			return fmt.Errorf("run clickhouse migrations: %w", err)
		}
		defer conn.Close()
		chAccounts = chstore.NewExtractedAccountStore(conn)
	}

	c, err := buildCrawler(rpc, target, logger, opts)
	if err != nil {
		return err
	}

	startedAt := time.Now().UnixMilli()
	fingerprint := runid.Fingerprint(
		opts.preset,
		opts.programIDs,
		strconv.FormatBool(opts.successOnly),
		opts.ixProgramID,
		opts.ixNumAccounts,
		opts.ixDataPrefix,
		opts.accounts,
	)
	runID := runid.ComputeRunID(opts.address, startedAt, fingerprint)

	run := &domain.CrawlRun{
		RunID:            runID,
		TargetAddress:    opts.address,
		Status:           domain.RunStatusRunning,
		PageSize:         opts.pageSize,
		FetchParallelism: opts.fetchParallelism,
		StartedAt:        startedAt,
		CreatedAt:        startedAt,
	}
	if err := runStore.Insert(ctx, run); err != nil {
		return fmt.Errorf("insert crawl run: %w", err)
	}

	logger.Printf("Starting crawl %s for %s", runID, opts.address)
	observability.SetCrawlInProgress(true)

	res, runErr := c.Run(ctx)

	observability.SetCrawlInProgress(false)
	finishedAt := time.Now().UnixMilli()
	duration := float64(finishedAt-startedAt) / 1000.0

	if runErr != nil {
		run.Status = domain.RunStatusFailed
		run.FinishedAt = &finishedAt
		observability.RecordCrawlRun(run.Status.String(), duration)
		if err := runStore.UpdateFinished(ctx, run); err != nil {
			logger.Printf("Record failed run: %v", err)
		}
		return fmt.Errorf("crawl: %w", runErr)
	}

	stats := res.Stats
	run.Status = domain.RunStatusCompleted
	run.PagesFetched = stats.PagesFetched
	run.SignaturesSeen = stats.SignaturesSeen
	run.TxFetched = stats.TxFetched
	run.TxUnfetchable = stats.TxUnfetchable
	run.TxMalformed = stats.TxMalformed
	run.InstructionsMatched = stats.InstructionsMatched
	run.FinishedAt = &finishedAt

	observability.RecordPagesFetched(stats.PagesFetched, stats.SignaturesSeen)
	observability.RecordTransactionsProcessed(stats.TxFetched, stats.TxUnfetchable, stats.TxMalformed)
	observability.RecordInstructionsMatched(stats.InstructionsMatched)
	observability.RecordCrawlRun(run.Status.String(), duration)

	rows := buildAccountRows(runID, res, finishedAt)
	if len(rows) > 0 {
		if err := accountStore.InsertBulk(ctx, rows); err != nil {
			return fmt.Errorf("persist extracted accounts: %w", err)
		}
		if chAccounts != nil {
			// Analytics copy is best-effort; the primary store already has the rows.
			if err := chAccounts.InsertBulk(ctx, rows); err != nil {
				logger.Printf("ClickHouse insert failed: %v", err)
			}
		}
	}

	if err := runStore.UpdateFinished(ctx, run); err != nil {
		return fmt.Errorf("finish crawl run: %w", err)
	}

	logger.Printf("Crawl %s complete in %.1fs: %d pages, %d signatures, %d transactions, %d instructions matched",
		runID, duration, stats.PagesFetched, stats.SignaturesSeen, stats.TxFetched, stats.InstructionsMatched)

	labels := make([]string, 0, len(res.Accounts))
	for label := range res.Accounts {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		observability.RecordAccountsExtracted(label, len(res.Accounts[label]))
		logger.Printf("  %s: %d accounts", label, len(res.Accounts[label]))
	}

	if stats.TxUnfetchable > 0 || stats.TxMalformed > 0 {
		logger.Printf("Warnings: %d unfetchable, %d malformed", stats.TxUnfetchable, stats.TxMalformed)
		for _, w := range stats.Warnings {
			logger.Printf("  %s", w)
		}
	}

	return nil
}

// buildCrawler assembles the crawler from the flag values.
func buildCrawler(rpc solana.RPCClient, target solana.Pubkey, logger *log.Logger, opts options) (*crawler.Crawler, error) {
	crawlerOpts := []crawler.Option{
		crawler.WithPageSize(opts.pageSize),
		crawler.WithFetchParallelism(opts.fetchParallelism),
		crawler.WithMaxPages(opts.maxPages),
		crawler.WithMaxWarnings(opts.maxWarnings),
		crawler.WithLogger(logger),
	}

	if opts.preset != "" {
		if opts.programIDs != "" || opts.successOnly || opts.ixProgramID != "" ||
			opts.ixNumAccounts != "" || opts.ixDataPrefix != "" || opts.accounts != "" {
			return nil, fmt.Errorf("--preset replaces the filter and selector flags, drop them")
		}
		switch opts.preset {
		case "candy-machine-mints":
			return presets.CandyMachineMints(rpc, target, crawlerOpts...), nil
		default:
			return nil, fmt.Errorf("unknown --preset %q", opts.preset)
		}
	}

	c := crawler.New(rpc, target, crawlerOpts...)

	for _, p := range splitList(opts.programIDs) {
		program, err := solana.PubkeyFromBase58(p)
		if err != nil {
			return nil, fmt.Errorf("parse --program-id %q: %w", p, err)
		}
		c.AddTxFilter(crawler.NewTxHasProgramID(program))
	}

	if opts.successOnly {
		c.AddTxFilter(crawler.SuccessfulTxFilter{})
	}

	if opts.ixProgramID != "" {
		program, err := solana.PubkeyFromBase58(opts.ixProgramID)
		if err != nil {
			return nil, fmt.Errorf("parse --ix-program-id: %w", err)
		}
		c.AddIxFilter(crawler.NewIxProgramID(program))
	}

	if opts.ixNumAccounts != "" {
		f, err := parseNumAccounts(opts.ixNumAccounts)
		if err != nil {
			return nil, err
		}
		c.AddIxFilter(f)
	}

	if opts.ixDataPrefix != "" {
		prefix, err := hex.DecodeString(opts.ixDataPrefix)
		if err != nil {
			return nil, fmt.Errorf("parse --ix-data-prefix: %w", err)
		}
		c.AddIxFilter(crawler.NewIxDataStartsWith(prefix))
	}

	selectors, err := parseSelectors(opts.accounts)
	if err != nil {
		return nil, err
	}
	for _, sel := range selectors {
		c.AddAccountIndex(sel)
	}

	if err := c.Err(); err != nil {
		return nil, fmt.Errorf("configure crawler: %w", err)
	}
	return c, nil
}

// parseNumAccounts parses the --ix-num-accounts forms: N, =N, <N, >N, lo..hi.
func parseNumAccounts(s string) (crawler.IxNumberAccounts, error) {
	var zero crawler.IxNumberAccounts

	if strings.Contains(s, "..") {
		parts := strings.SplitN(s, "..", 2)
		lo, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return zero, fmt.Errorf("parse --ix-num-accounts %q: %w", s, err)
		}
		hi, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return zero, fmt.Errorf("parse --ix-num-accounts %q: %w", s, err)
		}
		return crawler.IxNumberAccountsBetween(lo, hi), nil
	}

	switch {
	case strings.HasPrefix(s, "<"):
		n, err := strconv.Atoi(s[1:])
		if err != nil {
			return zero, fmt.Errorf("parse --ix-num-accounts %q: %w", s, err)
		}
		return crawler.IxNumberAccountsLessThan(n), nil
	case strings.HasPrefix(s, ">"):
		n, err := strconv.Atoi(s[1:])
		if err != nil {
			return zero, fmt.Errorf("parse --ix-num-accounts %q: %w", s, err)
		}
		return crawler.IxNumberAccountsGreaterThan(n), nil
	default:
		n, err := strconv.Atoi(strings.TrimPrefix(s, "="))
		if err != nil {
			return zero, fmt.Errorf("parse --ix-num-accounts %q: %w", s, err)
		}
		return crawler.IxNumberAccountsEqualTo(n), nil
	}
}

// parseSelectors parses the --account list: label:index or label:@other.
func parseSelectors(list string) ([]crawler.AccountSelector, error) {
	var sels []crawler.AccountSelector
	for _, part := range splitList(list) {
		kv := strings.SplitN(part, ":", 2)
		if len(kv) != 2 || kv[0] == "" || kv[1] == "" {
			return nil, fmt.Errorf("parse --account %q: want label:index or label:@other", part)
		}
		if strings.HasPrefix(kv[1], "@") {
			sels = append(sels, crawler.AccountAlias(kv[0], kv[1][1:]))
			continue
		}
		idx, err := strconv.Atoi(kv[1])
		if err != nil {
			return nil, fmt.Errorf("parse --account %q: %w", part, err)
		}
		sels = append(sels, crawler.AccountAt(kv[0], idx))
	}
	return sels, nil
}

// splitList splits a comma-separated flag value, dropping empty entries.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// buildAccountRows flattens the run result into persistable rows. Row k of
// every label shares the provenance in res.Rows[k].
func buildAccountRows(runID string, res *crawler.RunResult, createdAt int64) []*domain.ExtractedAccount {
	labels := make([]string, 0, len(res.Accounts))
	for label := range res.Accounts {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	var out []*domain.ExtractedAccount
	for _, label := range labels {
		for k, addr := range res.Accounts[label] {
			origin := res.Rows[k]
			row := &domain.ExtractedAccount{
				RunID:       runID,
				Label:       label,
				Position:    k,
				Address:     addr.String(),
				TxSignature: origin.Signature,
				Slot:        origin.Slot,
				ProgramID:   origin.ProgramID.String(),
				OuterIndex:  origin.Origin.OuterIndex,
				CreatedAt:   createdAt,
			}
			if origin.Origin.InnerIndex >= 0 {
				inner := origin.Origin.InnerIndex
				row.InnerIndex = &inner
			}
			out = append(out, row)
		}
	}
	return out
}
