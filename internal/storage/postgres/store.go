package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hubswap/internal/model"
)

// Schema creates the tables the store writes to.
const Schema = `
CREATE TABLE IF NOT EXISTS pairs (
	asset           TEXT PRIMARY KEY,
	native_reserve  NUMERIC NOT NULL,
	foreign_reserve NUMERIC NOT NULL,
	synth_backing   NUMERIC NOT NULL,
	total_units     NUMERIC NOT NULL,
	queued_native   NUMERIC NOT NULL,
	queued_foreign  NUMERIC NOT NULL,
	supported       BOOLEAN NOT NULL,
	fungible        BOOLEAN NOT NULL,
	synth           TEXT,
	lp_token        TEXT,
	updated_at      TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS positions (
	id               BIGINT PRIMARY KEY,
	owner            TEXT NOT NULL,
	asset            TEXT NOT NULL,
	units            NUMERIC NOT NULL,
	original_native  NUMERIC NOT NULL,
	original_foreign NUMERIC NOT NULL,
	created_at       BIGINT NOT NULL,
	pending          BOOLEAN NOT NULL,
	destroyed        BOOLEAN NOT NULL,
	updated_at       TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS events (
	seq        BIGINT PRIMARY KEY,
	line       BIGINT NOT NULL,
	ts         BIGINT NOT NULL,
	address    TEXT NOT NULL,
	event_name TEXT NOT NULL,
	topics     TEXT[] NOT NULL,
	data       TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS replay_state (
	name              TEXT PRIMARY KEY,
	last_applied_line BIGINT NOT NULL,
	updated_at        TIMESTAMPTZ NOT NULL
);
`

// Store provides Postgres persistence for replay output.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates missing tables.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, Schema)
	return err
}

// UpsertPairs inserts or updates pair accounting state.
func (s *Store) UpsertPairs(ctx context.Context, pairs []model.PairRecord) error {
	if len(pairs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, p := range pairs {
		batch.Queue(`
			INSERT INTO pairs (
				asset, native_reserve, foreign_reserve, synth_backing, total_units,
				queued_native, queued_foreign, supported, fungible, synth, lp_token, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''), NULLIF($11, ''), now())
			ON CONFLICT (asset)
			DO UPDATE SET
				native_reserve = EXCLUDED.native_reserve,
				foreign_reserve = EXCLUDED.foreign_reserve,
				synth_backing = EXCLUDED.synth_backing,
				total_units = EXCLUDED.total_units,
				queued_native = EXCLUDED.queued_native,
				queued_foreign = EXCLUDED.queued_foreign,
				supported = EXCLUDED.supported,
				fungible = EXCLUDED.fungible,
				synth = EXCLUDED.synth,
				lp_token = EXCLUDED.lp_token,
				updated_at = now()
		`,
			p.Asset,
			p.NativeReserve,
			p.ForeignReserve,
			p.SynthBacking,
			p.TotalUnits,
			p.QueuedNative,
			p.QueuedForeign,
			p.Supported,
			p.Fungible,
			p.Synth,
			p.LPToken,
		)
	}
	return s.sendBatch(ctx, batch, len(pairs))
}

// UpsertPositions inserts or updates liquidity positions.
func (s *Store) UpsertPositions(ctx context.Context, positions []model.PositionRecord) error {
	if len(positions) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, p := range positions {
		batch.Queue(`
			INSERT INTO positions (
				id, owner, asset, units, original_native, original_foreign, created_at, pending, destroyed, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
			ON CONFLICT (id)
			DO UPDATE SET
				owner = EXCLUDED.owner,
				units = EXCLUDED.units,
				original_native = EXCLUDED.original_native,
				original_foreign = EXCLUDED.original_foreign,
				pending = EXCLUDED.pending,
				destroyed = EXCLUDED.destroyed,
				updated_at = now()
		`,
			int64(p.ID),
			p.Owner,
			p.Asset,
			p.Units,
			p.OriginalNative,
			p.OriginalForeign,
			int64(p.CreatedAt),
			p.Pending,
			p.Destroyed,
		)
	}
	return s.sendBatch(ctx, batch, len(positions))
}

// InsertEvents stores encoded event logs. Re-inserting a sequence number is a
// no-op, so a replay that resumes mid-batch does not duplicate rows.
func (s *Store) InsertEvents(ctx context.Context, logs []model.LogRecord) error {
	if len(logs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, l := range logs {
		batch.Queue(`
			INSERT INTO events (seq, line, ts, address, event_name, topics, data)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (seq) DO NOTHING
		`,
			int64(l.Seq),
			int64(l.Line),
			int64(l.Timestamp),
			l.Address,
			l.EventName,
			l.Topics,
			l.Data,
		)
	}
	return s.sendBatch(ctx, batch, len(logs))
}

func (s *Store) sendBatch(ctx context.Context, batch *pgx.Batch, n int) error {
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < n; i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadState returns last_applied_line for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var line int64
	row := s.pool.QueryRow(ctx, `SELECT last_applied_line FROM replay_state WHERE name=$1`, name)
	if err := row.Scan(&line); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(line), true, nil
}

// SaveState upserts last_applied_line for a name.
func (s *Store) SaveState(ctx context.Context, name string, line uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO replay_state (name, last_applied_line, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_applied_line = EXCLUDED.last_applied_line, updated_at = now()
	`, name, int64(line))
	return err
}
