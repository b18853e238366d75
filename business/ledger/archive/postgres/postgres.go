// Package postgres archives ledger events into a Postgres table.
package postgres

import (
	"context"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ardanlabs/ledger/business/ledger/archive"
)

// Store provides Postgres persistence for ledger events.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to Postgres at the specified DSN.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Migrate creates the events table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS ledger_events (
			seq        BIGINT PRIMARY KEY,
			kind       TEXT        NOT NULL,
			account    TEXT        NOT NULL,
			amount     BIGINT      NOT NULL,
			meta       JSONB,
			occurred_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS idx_ledger_events_account ON ledger_events (account);
		CREATE INDEX IF NOT EXISTS idx_ledger_events_kind ON ledger_events (kind);
	`)
	if err != nil {
		return fmt.Errorf("migrate ledger_events: %w", err)
	}
	return nil
}

// Write inserts one event. Replays of an already archived sequence
// number are ignored so the sink can be retried safely.
func (s *Store) Write(ctx context.Context, evt archive.Event) error {
	return s.WriteBatch(ctx, []archive.Event{evt})
}

// WriteBatch inserts a set of events in a single round trip. Replays
// of already archived sequence numbers are ignored so the sink can be
// retried safely.
func (s *Store) WriteBatch(ctx context.Context, evts []archive.Event) error {
	if len(evts) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, evt := range evts {
		seq, err := signedColumn(evt.Seq)
		if err != nil {
			return fmt.Errorf("event seq %d: %w", evt.Seq, err)
		}
		amount, err := signedColumn(evt.Amount)
		if err != nil {
			return fmt.Errorf("event seq %d amount: %w", evt.Seq, err)
		}

		batch.Queue(`
			INSERT INTO ledger_events (seq, kind, account, amount, meta, occurred_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (seq) DO NOTHING
		`, seq, evt.Kind, evt.Account, amount, evt.Meta, evt.At)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for _, evt := range evts {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert event seq %d: %w", evt.Seq, err)
		}
	}
	return nil
}

// signedColumn converts a ledger value for a BIGINT column, refusing
// values that would flip negative in the cast.
func signedColumn(v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, fmt.Errorf("value %d exceeds bigint range", v)
	}
	return int64(v), nil
}

// EventsByAccount returns the archived events for an account in
// sequence order.
func (s *Store) EventsByAccount(ctx context.Context, account string) ([]archive.Event, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT seq, kind, account, amount, meta, occurred_at
		FROM ledger_events
		WHERE account = $1
		ORDER BY seq
	`, account)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var evts []archive.Event
	for rows.Next() {
		var evt archive.Event
		var seq, amount int64
		if err := rows.Scan(&seq, &evt.Kind, &evt.Account, &amount, &evt.Meta, &evt.At); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		evt.Seq = uint64(seq)
		evt.Amount = uint64(amount)
		evts = append(evts, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return evts, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}
