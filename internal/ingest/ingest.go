// Package ingest implements the per-cycle Ingest Loop of spec §4.F:
// paginated fetch, conditional signature attachment, bulk upsert,
// unseen-marking, finalize-to-sales, and item-key backfill.
package ingest

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"auctionintel/internal/signature"
	"auctionintel/internal/store"
	"auctionintel/internal/textnorm"
	"auctionintel/internal/upstream"
)

// Feed is the subset of upstream.Feed the loop consumes.
type Feed interface {
	FetchPage(ctx context.Context, page int) (upstream.Page, error)
}

// Store is the subset of *store.Store the loop writes through,
// narrowed to an interface so tests can supply a fake.
type Store interface {
	BulkUpsertAuctions(ctx context.Context, rows []store.AuctionRow) error
	MarkUnseenEnded(ctx context.Context, beforeTS int64) (int64, error)
	SelectEndedToFinalize(ctx context.Context, beforeTS int64, limit int) ([]store.ToFinalize, error)
	UpsertSale(ctx context.Context, row store.SaleRow) error
	MarkAuctionEnded(ctx context.Context, uuid string) error
	SelectSalesMissingItemKey(ctx context.Context, limit int) ([]store.MissingItemKey, error)
	UpdateSaleItemKey(ctx context.Context, uuid, key string) error
}

// Logger is the minimal structured-logging surface the loop needs;
// satisfied by *zap.SugaredLogger.
type Logger interface {
	Infow(msg string, keysAndValues ...any)
	Warnw(msg string, keysAndValues ...any)
	Errorw(msg string, keysAndValues ...any)
}

// Loop holds the wiring and tunables for one ingestion worker. It must
// not be invoked concurrently with itself; the running flag enforces
// this (spec §5).
type Loop struct {
	Feed   Feed
	Store  Store
	Logger Logger

	MaxPages              int
	InterPageDelay        time.Duration
	RetryBaseDelay        time.Duration
	RetryStepDelay        time.Duration
	MaxRetries            int
	UnseenGrace           time.Duration
	FinalizeBatch         int
	FinalizeMaxIterations int
	BackfillBatch         int

	// Now returns the current time in epoch milliseconds; overridable
	// in tests, defaults to time.Now().UnixMilli via NewLoop.
	Now func() int64

	running int32
}

// NewLoop returns a Loop with the defaults named in spec §4.F/§6.
func NewLoop(feed Feed, st Store, logger Logger) *Loop {
	return &Loop{
		Feed:                  feed,
		Store:                 st,
		Logger:                logger,
		MaxPages:              200,
		InterPageDelay:        90 * time.Millisecond,
		RetryBaseDelay:        250 * time.Millisecond,
		RetryStepDelay:        350 * time.Millisecond,
		MaxRetries:            4,
		UnseenGrace:           60 * time.Second,
		FinalizeBatch:         5000,
		FinalizeMaxIterations: 60,
		BackfillBatch:         20000,
		Now:                   func() int64 { return time.Now().UnixMilli() },
	}
}

// cycleSummary is the set of fields logged once per completed cycle.
type cycleSummary struct {
	Pages        int
	RowsUpserted int
	MarkedEnded  int64
	Finalized    int
	Backfilled   int
	DurationMS   int64
}

// RunOnce executes exactly one ingestion cycle (spec §4.F). It refuses
// to run if another cycle is already in flight.
func (l *Loop) RunOnce(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&l.running, 0, 1) {
		return fmt.Errorf("ingest: cycle already running")
	}
	defer atomic.StoreInt32(&l.running, 0)

	start := time.Now()
	sum, err := l.runCycle(ctx)
	sum.DurationMS = time.Since(start).Milliseconds()

	if err != nil {
		if l.Logger != nil {
			l.Logger.Errorw("ingest cycle failed",
				"pages", sum.Pages,
				"rows_upserted", sum.RowsUpserted,
				"marked_ended", sum.MarkedEnded,
				"finalized", sum.Finalized,
				"backfilled", sum.Backfilled,
				"duration_ms", sum.DurationMS,
				"error", err,
			)
		}
		return err
	}
	if l.Logger != nil {
		l.Logger.Infow("ingest cycle complete",
			"pages", sum.Pages,
			"rows_upserted", sum.RowsUpserted,
			"marked_ended", sum.MarkedEnded,
			"finalized", sum.Finalized,
			"backfilled", sum.Backfilled,
			"duration_ms", sum.DurationMS,
		)
	}
	return nil
}

func (l *Loop) runCycle(ctx context.Context) (cycleSummary, error) {
	var sum cycleSummary

	now := l.Now()

	page0, err := l.fetchPageWithRetry(ctx, 0)
	if err != nil {
		return sum, fmt.Errorf("fetch page 0: %w", err)
	}
	totalPages := page0.TotalPages
	if totalPages <= 0 {
		totalPages = 1
	}
	if totalPages > l.MaxPages {
		totalPages = l.MaxPages
	}

	if err := l.upsertPage(ctx, page0, now); err != nil {
		return sum, fmt.Errorf("upsert page 0: %w", err)
	}
	sum.Pages = 1
	sum.RowsUpserted += len(page0.Auctions)

	for p := 1; p < totalPages; p++ {
		select {
		case <-ctx.Done():
			return sum, ctx.Err()
		case <-time.After(l.InterPageDelay):
		}

		page, err := l.fetchPageWithRetry(ctx, p)
		if err != nil {
			return sum, fmt.Errorf("fetch page %d: %w", p, err)
		}
		if err := l.upsertPage(ctx, page, now); err != nil {
			return sum, fmt.Errorf("upsert page %d: %w", p, err)
		}
		sum.Pages++
		sum.RowsUpserted += len(page.Auctions)
	}

	// The unseen-mark step must strictly follow the completion of all
	// page upserts (spec §5).
	marked, err := l.Store.MarkUnseenEnded(ctx, now-l.UnseenGrace.Milliseconds())
	if err != nil {
		return sum, fmt.Errorf("mark unseen ended: %w", err)
	}
	sum.MarkedEnded = marked

	finalized, err := l.finalizeEnded(ctx, now)
	if err != nil {
		return sum, fmt.Errorf("finalize ended: %w", err)
	}
	sum.Finalized = finalized

	backfilled, err := l.backfillItemKeys(ctx)
	if err != nil {
		return sum, fmt.Errorf("backfill item keys: %w", err)
	}
	sum.Backfilled = backfilled

	return sum, nil
}

// fetchPageWithRetry retries a page fetch up to MaxRetries times with
// incremental backoff (250 + 350*i ms), per spec §4.F step 2.
func (l *Loop) fetchPageWithRetry(ctx context.Context, page int) (upstream.Page, error) {
	var lastErr error
	for i := 0; i <= l.MaxRetries; i++ {
		p, err := l.Feed.FetchPage(ctx, page)
		if err == nil {
			return p, nil
		}
		lastErr = err
		if i == l.MaxRetries {
			break
		}
		delay := l.RetryBaseDelay + time.Duration(i)*l.RetryStepDelay
		select {
		case <-ctx.Done():
			return upstream.Page{}, ctx.Err()
		case <-time.After(delay):
		}
	}
	return upstream.Page{}, fmt.Errorf("page %d: %w", page, lastErr)
}

// upsertPage transforms one page of upstream auctions into store rows
// and bulk-upserts them.
func (l *Loop) upsertPage(ctx context.Context, page upstream.Page, now int64) error {
	if len(page.Auctions) == 0 {
		return nil
	}
	rows := make([]store.AuctionRow, 0, len(page.Auctions))
	for _, a := range page.Auctions {
		rows = append(rows, l.toAuctionRow(a, now))
	}
	return l.Store.BulkUpsertAuctions(ctx, rows)
}

func (l *Loop) toAuctionRow(a upstream.Auction, now int64) store.AuctionRow {
	sig := ""
	if needsSignature(a) {
		sig = l.safeBuildSignature(a)
	}
	return store.AuctionRow{
		UUID:        a.UUID,
		ItemName:    a.ItemName,
		ItemKey:     textnorm.CanonicalItemKey(a.ItemName),
		BIN:         a.BIN,
		StartTS:     a.Start,
		EndTS:       a.End,
		StartingBid: a.StartingBid,
		HighestBid:  a.HighestBid,
		Tier:        a.Tier,
		ItemLore:    a.ItemLore,
		ItemBytes:   a.ItemBytes,
		LastSeenTS:  now,
		Signature:   sig,
	}
}

// needsSignature decides whether a freshly-built signature is worth
// the cost, per spec §4.F step 3: BIN listings, listings carrying
// display text or a binary payload, or names that hint at stars/weird
// digits all need one; a bare bid-only auction with a plain name does
// not.
func needsSignature(a upstream.Auction) bool {
	if a.BIN || a.ItemLore != "" || a.ItemBytes != "" {
		return true
	}
	for _, r := range a.ItemName {
		if textnorm.IsStarLike(r) {
			return true
		}
	}
	return textnorm.NormalizeWeirdDigits(a.ItemName) != a.ItemName
}

// safeBuildSignature never lets a malformed row abort the cycle: a
// panic during signature construction degrades to an empty signature
// for that row, logged, per spec §4.F failure semantics.
func (l *Loop) safeBuildSignature(a upstream.Auction) (sig string) {
	defer func() {
		if r := recover(); r != nil {
			if l.Logger != nil {
				l.Logger.Warnw("signature build panicked, storing empty signature", "uuid", a.UUID, "panic", r)
			}
			sig = ""
		}
	}()
	return signature.Build(signature.Input{
		ItemName:  a.ItemName,
		Lore:      a.ItemLore,
		Tier:      a.Tier,
		ItemBytes: a.ItemBytes,
	}, sigLoggerAdapter{l.Logger})
}

// sigLoggerAdapter narrows Logger to signature.Logger's Debugw-only
// surface. A Logger that also has Debugw (as *zap.SugaredLogger does in
// production) logs at debug level; any other Logger logs at warn level.
type sigLoggerAdapter struct{ l Logger }

func (a sigLoggerAdapter) Debugw(msg string, keysAndValues ...any) {
	if a.l == nil {
		return
	}
	if d, ok := a.l.(signature.Logger); ok {
		d.Debugw(msg, keysAndValues...)
		return
	}
	a.l.Warnw(msg, keysAndValues...)
}

// finalizeEnded runs the finalize-ended loop of spec §4.F step 5:
// repeatedly select up to FinalizeBatch candidate rows and promote
// them to sales, until a call returns nothing or the iteration cap is
// hit.
func (l *Loop) finalizeEnded(ctx context.Context, now int64) (int, error) {
	total := 0
	for i := 0; i < l.FinalizeMaxIterations; i++ {
		rows, err := l.Store.SelectEndedToFinalize(ctx, now, l.FinalizeBatch)
		if err != nil {
			return total, err
		}
		if len(rows) == 0 {
			break
		}
		for _, r := range rows {
			if err := l.finalizeOne(ctx, r); err != nil {
				return total, err
			}
			total++
		}
	}
	return total, nil
}

func (l *Loop) finalizeOne(ctx context.Context, r store.ToFinalize) error {
	sig := r.Signature
	if sig == "" {
		sig = l.safeBuildSignature(upstream.Auction{
			UUID:      r.UUID,
			ItemName:  r.ItemName,
			Tier:      r.Tier,
			ItemLore:  r.ItemLore,
			ItemBytes: r.ItemBytes,
		})
	}

	price := r.HighestBid
	if r.BIN || price == 0 {
		price = r.StartingBid
	}

	sale := store.SaleRow{
		UUID:      r.UUID,
		ItemName:  r.ItemName,
		ItemKey:   r.ItemKey,
		BIN:       r.BIN,
		Price:     price,
		EndedTS:   r.EndTS,
		Tier:      r.Tier,
		Signature: sig,
		ItemLore:  r.ItemLore,
		ItemBytes: r.ItemBytes,
	}
	if err := l.Store.UpsertSale(ctx, sale); err != nil {
		return fmt.Errorf("upsert sale %s: %w", r.UUID, err)
	}
	if err := l.Store.MarkAuctionEnded(ctx, r.UUID); err != nil {
		return fmt.Errorf("mark auction ended %s: %w", r.UUID, err)
	}
	return nil
}

// backfillItemKeys recomputes item_key for sale rows missing one, per
// spec §4.F step 6.
func (l *Loop) backfillItemKeys(ctx context.Context) (int, error) {
	rows, err := l.Store.SelectSalesMissingItemKey(ctx, l.BackfillBatch)
	if err != nil {
		return 0, err
	}
	for _, r := range rows {
		key := textnorm.CanonicalItemKey(r.ItemName)
		if err := l.Store.UpdateSaleItemKey(ctx, r.UUID, key); err != nil {
			return 0, fmt.Errorf("update sale item key %s: %w", r.UUID, err)
		}
	}
	return len(rows), nil
}
