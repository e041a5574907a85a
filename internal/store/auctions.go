package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// auctionsUpsertQuery is the per-row statement BulkUpsertAuctions
// queues into its pgx.Batch. It is named so its merge clause can be
// inspected directly by tests instead of duplicating the literal.
const auctionsUpsertQuery = `
INSERT INTO auctions
	(uuid, item_name, item_key, bin, start_ts, end_ts, starting_bid, highest_bid,
	 tier, item_lore, item_bytes, last_seen_ts, signature, is_ended)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,false)
ON CONFLICT (uuid) DO UPDATE SET
	item_name    = EXCLUDED.item_name,
	item_key     = EXCLUDED.item_key,
	bin          = EXCLUDED.bin,
	start_ts     = EXCLUDED.start_ts,
	end_ts       = EXCLUDED.end_ts,
	starting_bid = EXCLUDED.starting_bid,
	highest_bid  = EXCLUDED.highest_bid,
	tier         = EXCLUDED.tier,
	item_lore    = CASE WHEN EXCLUDED.item_lore = '' THEN auctions.item_lore ELSE EXCLUDED.item_lore END,
	item_bytes   = CASE WHEN EXCLUDED.item_bytes = '' THEN auctions.item_bytes ELSE EXCLUDED.item_bytes END,
	last_seen_ts = EXCLUDED.last_seen_ts,
	signature    = CASE
	                 WHEN auctions.signature = '' THEN EXCLUDED.signature
	                 WHEN EXCLUDED.signature = '' THEN auctions.signature
	                 WHEN EXCLUDED.signature LIKE '%pet_item:%' AND auctions.signature NOT LIKE '%pet_item:%' THEN EXCLUDED.signature
	                 WHEN substring(auctions.signature from 'stars10:(\d+)') IS DISTINCT FROM substring(EXCLUDED.signature from 'stars10:(\d+)') THEN EXCLUDED.signature
	                 ELSE auctions.signature
	               END,
	is_ended     = false`

// BulkUpsertAuctions writes rows inside a single transaction using a
// pgx.Batch, applying the auction upsert merge rule of spec §4.F:
// replace all mutable fields; preserve item_lore/item_bytes if
// incoming is empty; resurrect is_ended=false on any refreshed
// sighting; merge signature per mergeSignature.
func (s *Store) BulkUpsertAuctions(ctx context.Context, rows []AuctionRow) error {
	if len(rows) == 0 {
		return nil
	}
	return s.runInTx(ctx, func(tx pgx.Tx) error {
		const batchSize = 500
		for i := 0; i < len(rows); i += batchSize {
			j := i + batchSize
			if j > len(rows) {
				j = len(rows)
			}
			b := &pgx.Batch{}
			for _, r := range rows[i:j] {
				b.Queue(auctionsUpsertQuery,
					r.UUID, r.ItemName, r.ItemKey, r.BIN, r.StartTS, r.EndTS, r.StartingBid, r.HighestBid,
					r.Tier, r.ItemLore, r.ItemBytes, r.LastSeenTS, r.Signature,
				)
			}
			br := tx.SendBatch(ctx, b)
			for range rows[i:j] {
				if _, err := br.Exec(); err != nil {
					_ = br.Close()
					return fmt.Errorf("bulk upsert auctions: %w", err)
				}
			}
			if err := br.Close(); err != nil {
				return fmt.Errorf("bulk upsert auctions close: %w", err)
			}
		}
		return nil
	})
}

// MarkUnseenEnded marks every live auction whose last_seen_ts is
// older than beforeTS as ended: the dead-by-absence rule of spec §4.F
// step 4 and §9.
func (s *Store) MarkUnseenEnded(ctx context.Context, beforeTS int64) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE auctions SET is_ended = true WHERE is_ended = false AND last_seen_ts < $1`,
		beforeTS,
	)
	if err != nil {
		return 0, fmt.Errorf("mark unseen ended: %w", err)
	}
	return tag.RowsAffected(), nil
}

// MarkAuctionEnded marks a single auction row ended (used by finalize).
func (s *Store) MarkAuctionEnded(ctx context.Context, uuid string) error {
	_, err := s.pool.Exec(ctx, `UPDATE auctions SET is_ended = true WHERE uuid = $1`, uuid)
	if err != nil {
		return fmt.Errorf("mark auction ended: %w", err)
	}
	return nil
}

// ToFinalize is a candidate row selected by SelectEndedToFinalize:
// enough of the auction row to re-derive a signature and build a sale.
type ToFinalize struct {
	UUID        string
	ItemName    string
	ItemKey     string
	BIN         bool
	EndTS       int64
	HighestBid  int64
	StartingBid int64
	Tier        string
	ItemLore    string
	ItemBytes   string
	Signature   string
}

// SelectEndedToFinalize selects up to limit auction rows with
// end_ts <= beforeTS that are either not-yet-ended or ended but not
// yet promoted to a sale, per spec §4.F step 5.
func (s *Store) SelectEndedToFinalize(ctx context.Context, beforeTS int64, limit int) ([]ToFinalize, error) {
	rows, err := s.pool.Query(ctx, `
SELECT a.uuid, a.item_name, a.item_key, a.bin, a.end_ts, a.highest_bid, a.starting_bid,
       a.tier, a.item_lore, a.item_bytes, a.signature
  FROM auctions a
  LEFT JOIN sales s ON s.uuid = a.uuid
 WHERE a.end_ts <= $1 AND (a.is_ended = false OR s.uuid IS NULL)
 LIMIT $2`, beforeTS, limit)
	if err != nil {
		return nil, fmt.Errorf("select ended to finalize: %w", err)
	}
	defer rows.Close()

	out := make([]ToFinalize, 0, limit)
	for rows.Next() {
		var r ToFinalize
		if err := rows.Scan(&r.UUID, &r.ItemName, &r.ItemKey, &r.BIN, &r.EndTS, &r.HighestBid, &r.StartingBid,
			&r.Tier, &r.ItemLore, &r.ItemBytes, &r.Signature); err != nil {
			return nil, fmt.Errorf("scan ended to finalize: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
