package store

import (
	"context"
	"fmt"
)

// salesUpsertQuery is the statement UpsertSale executes. It is named
// so its merge clause can be inspected directly by tests instead of
// duplicating the literal.
const salesUpsertQuery = `
INSERT INTO sales (uuid, item_name, item_key, bin, price, ended_ts, tier, signature, item_lore, item_bytes)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (uuid) DO UPDATE SET
	item_name  = EXCLUDED.item_name,
	item_key   = EXCLUDED.item_key,
	bin        = EXCLUDED.bin,
	price      = EXCLUDED.price,
	ended_ts   = EXCLUDED.ended_ts,
	tier       = EXCLUDED.tier,
	signature  = CASE
	               WHEN sales.signature = '' THEN EXCLUDED.signature
	               WHEN EXCLUDED.signature = '' THEN sales.signature
	               WHEN EXCLUDED.signature LIKE '%pet_item:%' AND sales.signature NOT LIKE '%pet_item:%' THEN EXCLUDED.signature
	               WHEN substring(sales.signature from 'stars10:(\d+)') IS DISTINCT FROM substring(EXCLUDED.signature from 'stars10:(\d+)') THEN EXCLUDED.signature
	               ELSE sales.signature
	             END,
	item_lore  = CASE WHEN EXCLUDED.item_lore = '' THEN sales.item_lore ELSE EXCLUDED.item_lore END,
	item_bytes = CASE WHEN EXCLUDED.item_bytes = '' THEN sales.item_bytes ELSE EXCLUDED.item_bytes END`

// UpsertSale writes one sale row. The uuid conflict path mirrors
// mergeSignature's rule directly in SQL, since finalize retries the
// same rows idempotently (spec §4.F failure semantics: "the next cycle
// re-tries the same rows").
func (s *Store) UpsertSale(ctx context.Context, row SaleRow) error {
	_, err := s.pool.Exec(ctx, salesUpsertQuery,
		row.UUID, row.ItemName, row.ItemKey, row.BIN, row.Price, row.EndedTS, row.Tier, row.Signature, row.ItemLore, row.ItemBytes,
	)
	if err != nil {
		return fmt.Errorf("upsert sale: %w", err)
	}
	return nil
}

// MissingItemKey is a sale row backfill candidate.
type MissingItemKey struct {
	UUID     string
	ItemName string
}

// SelectSalesMissingItemKey selects up to limit sale rows whose
// item_key is null or empty, for the backfill maintenance step (spec
// §4.F step 6).
func (s *Store) SelectSalesMissingItemKey(ctx context.Context, limit int) ([]MissingItemKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT uuid, item_name FROM sales WHERE item_key IS NULL OR item_key = '' LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("select sales missing item key: %w", err)
	}
	defer rows.Close()

	out := make([]MissingItemKey, 0, limit)
	for rows.Next() {
		var r MissingItemKey
		if err := rows.Scan(&r.UUID, &r.ItemName); err != nil {
			return nil, fmt.Errorf("scan sales missing item key: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpdateSaleItemKey writes a recomputed item_key for one sale row.
func (s *Store) UpdateSaleItemKey(ctx context.Context, uuid, key string) error {
	_, err := s.pool.Exec(ctx, `UPDATE sales SET item_key = $1 WHERE uuid = $2`, key, uuid)
	if err != nil {
		return fmt.Errorf("update sale item key: %w", err)
	}
	return nil
}

// RecentSale is one row returned by QueryRecentSalesByItem. ItemName
// is the row's own display text, kept alongside Signature so an empty
// signature can be re-derived from this row's actual name rather than
// a caller-supplied one (spec §3, §4.E step 2).
type RecentSale struct {
	UUID      string
	ItemName  string
	Price     int64
	EndedTS   int64
	Signature string
	Tier      string
	ItemLore  string
	ItemBytes string
}

// QueryRecentSalesByItem fetches up to limit sales for itemKey with
// ended_ts >= sinceTS, newest first, per spec §4.E step 1.
func (s *Store) QueryRecentSalesByItem(ctx context.Context, itemKey string, sinceTS int64, limit int) ([]RecentSale, error) {
	rows, err := s.pool.Query(ctx, `
SELECT uuid, item_name, price, ended_ts, signature, tier, item_lore, item_bytes
  FROM sales
 WHERE item_key = $1 AND ended_ts >= $2
 ORDER BY ended_ts DESC
 LIMIT $3`, itemKey, sinceTS, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent sales by item: %w", err)
	}
	defer rows.Close()

	out := make([]RecentSale, 0, limit)
	for rows.Next() {
		var r RecentSale
		if err := rows.Scan(&r.UUID, &r.ItemName, &r.Price, &r.EndedTS, &r.Signature, &r.Tier, &r.ItemLore, &r.ItemBytes); err != nil {
			return nil, fmt.Errorf("scan recent sale: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LiveBinAuction is one row returned by QueryLiveBinByItem. ItemName
// carries the row's own display text for the same re-derivation
// reason as RecentSale.ItemName.
type LiveBinAuction struct {
	UUID        string
	ItemName    string
	StartingBid int64
	Tier        string
	Signature   string
	ItemLore    string
	ItemBytes   string
}

// QueryLiveBinByItem fetches up to limit live BIN auctions for
// itemKey with last_seen_ts >= sinceTS, ordered by ascending starting
// bid, per spec §4.E step 7.
func (s *Store) QueryLiveBinByItem(ctx context.Context, itemKey string, sinceTS int64, limit int) ([]LiveBinAuction, error) {
	rows, err := s.pool.Query(ctx, `
SELECT uuid, item_name, starting_bid, tier, signature, item_lore, item_bytes
  FROM auctions
 WHERE item_key = $1 AND bin = true AND is_ended = false AND last_seen_ts >= $2
 ORDER BY starting_bid ASC
 LIMIT $3`, itemKey, sinceTS, limit)
	if err != nil {
		return nil, fmt.Errorf("query live bin by item: %w", err)
	}
	defer rows.Close()

	out := make([]LiveBinAuction, 0, limit)
	for rows.Next() {
		var r LiveBinAuction
		if err := rows.Scan(&r.UUID, &r.ItemName, &r.StartingBid, &r.Tier, &r.Signature, &r.ItemLore, &r.ItemBytes); err != nil {
			return nil, fmt.Errorf("scan live bin auction: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
