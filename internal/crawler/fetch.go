package crawler

import (
	"context"
	"errors"
	"sync"

	"solana-crawler/internal/solana"
)

// errTxNotFound marks fetches the RPC answered with an empty result.
var errTxNotFound = errors.New("transaction not found")

// fetchPage retrieves every transaction of a signature page. Fetches run
// with bounded parallelism; the returned slice is indexed by page position
// so downstream processing sees page order regardless of completion order.
// Entries are nil where the fetch failed; those are reported as warnings.
// If every fetch in the page fails the run is aborted with ErrPageExhausted.
func (c *Crawler) fetchPage(ctx context.Context, sigs []solana.SignatureInfo) ([]*solana.Transaction, []Warning, error) {
	txs := make([]*solana.Transaction, len(sigs))
	errs := make([]error, len(sigs))

	sem := make(chan struct{}, c.fetchParallelism)
	var wg sync.WaitGroup

	for i, sig := range sigs {
		wg.Add(1)
		go func(i int, signature string) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				errs[i] = ctx.Err()
				return
			case sem <- struct{}{}:
			}
			defer func() { <-sem }()

			tx, err := c.client.GetTransaction(ctx, signature)
			if err != nil {
				errs[i] = err
				return
			}
			if tx == nil {
				errs[i] = errTxNotFound
				return
			}
			txs[i] = tx
		}(i, sig.Signature)
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var warnings []Warning
	failed := 0
	for i, err := range errs {
		if err == nil {
			continue
		}
		failed++
		warnings = append(warnings, Warning{
			Kind:      WarningTxUnfetchable,
			Signature: sigs[i].Signature,
			Err:       err,
		})
	}

	if failed == len(sigs) && len(sigs) > 0 {
		return nil, warnings, ErrPageExhausted
	}

	return txs, warnings, nil
}
