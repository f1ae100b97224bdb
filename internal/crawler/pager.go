package crawler

import (
	"context"

	"solana-crawler/internal/solana"
)

// signaturePager walks an address's signature history newest-first. Each
// page uses the oldest signature of the previous page as its before
// cursor; an empty or short page ends the walk.
type signaturePager struct {
	client   solana.RPCClient
	address  string
	pageSize int
	before   string
	done     bool
}

func newSignaturePager(client solana.RPCClient, address string, pageSize int) *signaturePager {
	return &signaturePager{
		client:   client,
		address:  address,
		pageSize: pageSize,
	}
}

// Next returns the next page, or nil once history is exhausted. Pager
// failures are fatal to the crawl and come back as *RPCError.
func (p *signaturePager) Next(ctx context.Context) ([]solana.SignatureInfo, error) {
	if p.done {
		return nil, nil
	}

	opts := &solana.SignaturesOpts{Limit: p.pageSize}
	if p.before != "" {
		opts.Before = p.before
	}

	sigs, err := p.client.GetSignaturesForAddress(ctx, p.address, opts)
	if err != nil {
		return nil, &RPCError{Op: "getSignaturesForAddress", Err: err}
	}

	if len(sigs) == 0 {
		p.done = true
		return nil, nil
	}
	if len(sigs) < p.pageSize {
		p.done = true
	}

	p.before = sigs[len(sigs)-1].Signature
	return sigs, nil
}
