package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"puzzleScope/internal/model"
)

// Schema creates the archive tables.
const Schema = `
CREATE TABLE IF NOT EXISTS game_logs (
	chain_id      BIGINT NOT NULL,
	block_number  BIGINT NOT NULL,
	block_hash    TEXT NOT NULL,
	tx_hash       TEXT NOT NULL,
	tx_index      BIGINT NOT NULL,
	log_index     BIGINT NOT NULL,
	contract      TEXT NOT NULL,
	address       TEXT NOT NULL,
	event_type    TEXT NOT NULL,
	topics        TEXT[] NOT NULL,
	data          TEXT NOT NULL,
	removed       BOOLEAN NOT NULL DEFAULT FALSE,
	block_ts      BIGINT NOT NULL,
	ingested_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (chain_id, tx_hash, log_index)
);
CREATE INDEX IF NOT EXISTS game_logs_event_block_idx ON game_logs (event_type, block_number);
CREATE TABLE IF NOT EXISTS indexer_state (
	name                  TEXT PRIMARY KEY,
	last_processed_block  BIGINT NOT NULL,
	updated_at            TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// Store archives game logs and indexer checkpoints in Postgres.
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
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate creates missing tables.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// PutLogBatch inserts archived logs, skipping rows already present.
func (s *Store) PutLogBatch(ctx context.Context, logs []model.LogRecord) error {
	if len(logs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, log := range logs {
		batch.Queue(`
			INSERT INTO game_logs (
				chain_id, block_number, block_hash, tx_hash, tx_index, log_index,
				contract, address, event_type, topics, data, removed, block_ts, ingested_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now())
			ON CONFLICT (chain_id, tx_hash, log_index) DO NOTHING
		`,
			int64(log.ChainID),
			int64(log.BlockNumber),
			log.BlockHash,
			log.TxHash,
			int64(log.TxIndex),
			int64(log.LogIndex),
			log.Contract,
			log.Address,
			string(log.EventType),
			log.Topics,
			log.Data,
			log.Removed,
			int64(log.Timestamp),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for _, log := range logs {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert log %s: %w", log.Key(), err)
		}
	}
	return nil
}

// CountLogs returns the number of archived logs of an event type, or of all
// types when eventType is empty.
func (s *Store) CountLogs(ctx context.Context, eventType model.ActivityType) (int64, error) {
	var count int64
	row := s.pool.QueryRow(ctx, `SELECT count(*) FROM game_logs WHERE $1 = '' OR event_type = $1`, string(eventType))
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// LoadState returns last_processed_block for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var block int64
	row := s.pool.QueryRow(ctx, `SELECT last_processed_block FROM indexer_state WHERE name=$1`, name)
	if err := row.Scan(&block); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(block), true, nil
}

// SaveState upserts last_processed_block for a name.
func (s *Store) SaveState(ctx context.Context, name string, block uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO indexer_state (name, last_processed_block, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_processed_block = EXCLUDED.last_processed_block, updated_at = now()
	`, name, int64(block))
	return err
}
