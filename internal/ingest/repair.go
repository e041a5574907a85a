package ingest

import (
	"context"
	"fmt"

	"auctionintel/internal/store"
)

// RepairStore is the subset of *store.Store the repair tool reads and
// writes through.
type RepairStore interface {
	SelectRecentlyEndedAuctions(ctx context.Context, sinceTS int64, limit int) ([]store.EndedAuction, error)
	ResurrectAuction(ctx context.Context, uuid string) error
}

const repairBatchLimit = 5000

// Repair re-evaluates already-ended auctions against the dead-by-absence
// rule and resurrects any that were marked ended prematurely: a sighting
// at or after now-grace means the row should not have been marked ended.
// It returns the count resurrected.
func (l *Loop) Repair(ctx context.Context, repairStore RepairStore) (int, error) {
	now := l.Now()
	threshold := now - l.UnseenGrace.Milliseconds()

	candidates, err := repairStore.SelectRecentlyEndedAuctions(ctx, threshold, repairBatchLimit)
	if err != nil {
		return 0, fmt.Errorf("select recently ended auctions: %w", err)
	}

	fixed := 0
	for _, c := range candidates {
		if c.LastSeenTS < threshold {
			continue
		}
		if err := repairStore.ResurrectAuction(ctx, c.UUID); err != nil {
			return fixed, fmt.Errorf("resurrect auction %s: %w", c.UUID, err)
		}
		fixed++
	}

	if l.Logger != nil {
		l.Logger.Infow("ingest repair complete", "candidates", len(candidates), "resurrected", fixed)
	}
	return fixed, nil
}
