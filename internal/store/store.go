// Package store implements the typed Postgres access layer of spec
// §4.G: bulk upsert into auctions, unseen-mark, finalize-to-sales, and
// the recommender's read queries, using pgx/v5 pool construction and
// pgx.Batch for bulk writes.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuctionRow is one row of the auctions table (spec §3, "Auction (live)").
type AuctionRow struct {
	UUID        string
	ItemName    string
	ItemKey     string
	BIN         bool
	StartTS     int64
	EndTS       int64
	StartingBid int64
	HighestBid  int64
	Tier        string
	ItemLore    string
	ItemBytes   string
	LastSeenTS  int64
	Signature   string
	IsEnded     bool
}

// SaleRow is one row of the sales table (spec §3, "Sale (historical)").
type SaleRow struct {
	UUID      string
	ItemName  string
	ItemKey   string
	BIN       bool
	Price     int64
	EndedTS   int64
	Tier      string
	Signature string
	ItemLore  string
	ItemBytes string
}

// Store wraps a shared connection pool with the typed operations spec
// §4.G names.
type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func MustOpenPool(ctx context.Context, dsn string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("dsn parse: %w", err)
	}
	if maxConns <= 0 {
		maxConns = 8
	}
	cfg.MaxConns = maxConns
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pg connect: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the auctions and sales tables plus the required
// indexes from spec §4.G if they do not already exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS auctions (
			uuid          char(32) PRIMARY KEY,
			item_name     text NOT NULL,
			item_key      text NOT NULL DEFAULT '',
			bin           boolean NOT NULL DEFAULT false,
			start_ts      bigint NOT NULL,
			end_ts        bigint NOT NULL,
			starting_bid  bigint NOT NULL DEFAULT 0,
			highest_bid   bigint NOT NULL DEFAULT 0,
			tier          text NOT NULL DEFAULT '',
			item_lore     text NOT NULL DEFAULT '',
			item_bytes    text NOT NULL DEFAULT '',
			last_seen_ts  bigint NOT NULL,
			signature     text NOT NULL DEFAULT '',
			is_ended      boolean NOT NULL DEFAULT false
		)`,
		`CREATE TABLE IF NOT EXISTS sales (
			uuid       char(32) PRIMARY KEY,
			item_name  text NOT NULL,
			item_key   text NOT NULL DEFAULT '',
			bin        boolean NOT NULL DEFAULT false,
			price      bigint NOT NULL DEFAULT 0,
			ended_ts   bigint NOT NULL,
			tier       text NOT NULL DEFAULT '',
			signature  text NOT NULL DEFAULT '',
			item_lore  text NOT NULL DEFAULT '',
			item_bytes text NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS auctions_item_name_end_ts_idx ON auctions(item_name, end_ts)`,
		`CREATE INDEX IF NOT EXISTS auctions_end_ts_idx ON auctions(end_ts)`,
		`CREATE INDEX IF NOT EXISTS auctions_live_bin_idx ON auctions(item_key, last_seen_ts) WHERE is_ended=false AND bin=true`,
		`CREATE INDEX IF NOT EXISTS sales_signature_ended_ts_idx ON sales(signature, ended_ts)`,
		`CREATE INDEX IF NOT EXISTS sales_item_key_ended_ts_idx ON sales(item_key, ended_ts)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func nowMillis() int64 { return time.Now().UnixMilli() }

// runInTx wraps fn in a single transaction, rolling back on error.
func (s *Store) runInTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
