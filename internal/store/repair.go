package store

import (
	"context"
	"fmt"
)

// EndedAuction is a repair-candidate row: an auction currently marked
// ended, with the sighting timestamp the dead-by-absence rule depends
// on.
type EndedAuction struct {
	UUID       string
	LastSeenTS int64
}

// SelectRecentlyEndedAuctions selects up to limit auctions marked
// ended with last_seen_ts >= sinceTS, the repair tool's candidate set
// for re-checking against the dead-by-absence rule.
func (s *Store) SelectRecentlyEndedAuctions(ctx context.Context, sinceTS int64, limit int) ([]EndedAuction, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT uuid, last_seen_ts FROM auctions WHERE is_ended = true AND last_seen_ts >= $1 LIMIT $2`,
		sinceTS, limit)
	if err != nil {
		return nil, fmt.Errorf("select recently ended auctions: %w", err)
	}
	defer rows.Close()

	out := make([]EndedAuction, 0, limit)
	for rows.Next() {
		var r EndedAuction
		if err := rows.Scan(&r.UUID, &r.LastSeenTS); err != nil {
			return nil, fmt.Errorf("scan recently ended auction: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ResurrectAuction reverses a premature unseen-mark: it clears
// is_ended for a row and only that row, never touching sales (a sale
// already promoted is exactly-once and is left alone).
func (s *Store) ResurrectAuction(ctx context.Context, uuid string) error {
	_, err := s.pool.Exec(ctx, `UPDATE auctions SET is_ended = false WHERE uuid = $1`, uuid)
	if err != nil {
		return fmt.Errorf("resurrect auction: %w", err)
	}
	return nil
}
