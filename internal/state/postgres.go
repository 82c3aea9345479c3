package state

import (
	"context"

	"github.com/ethanolivertroy/antimirror/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const batchSize = 100

const postgresSchema = `
CREATE TABLE IF NOT EXISTS antimirror_seen_keys (
	record TEXT NOT NULL,
	key TEXT NOT NULL,
	first_seen TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (record, key)
)`

// PostgresStore keeps records as rows in a shared PostgreSQL database
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to url and makes sure the table exists
func NewPostgresStore(ctx context.Context, url string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, &PersistenceError{Op: "open", Backend: "postgres", Err: err}
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &PersistenceError{Op: "open", Backend: "postgres", Err: err}
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, &PersistenceError{Op: "open", Backend: "postgres", Err: err}
	}
	return &PostgresStore{pool: pool}, nil
}

// Load returns every key stored for record key
func (s *PostgresStore) Load(ctx context.Context, key string) (models.SeenSet, error) {
	rows, err := s.pool.Query(ctx, `SELECT key FROM antimirror_seen_keys WHERE record = $1`, key)
	if err != nil {
		return nil, &PersistenceError{Op: "load", Backend: "postgres", Key: key, Err: err}
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, &PersistenceError{Op: "load", Backend: "postgres", Key: key, Err: err}
	}
	return models.NewSeenSet(keys...), nil
}

// Save inserts missing keys in batches inside one transaction
func (s *PostgresStore) Save(ctx context.Context, key string, set models.SeenSet) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return &PersistenceError{Op: "save", Backend: "postgres", Key: key, Err: err}
	}
	defer func() { _ = tx.Rollback(ctx) }()

	keys := set.Keys()
	for start := 0; start < len(keys); start += batchSize {
		end := min(start+batchSize, len(keys))

		batch := &pgx.Batch{}
		for _, k := range keys[start:end] {
			batch.Queue(`INSERT INTO antimirror_seen_keys (record, key) VALUES ($1, $2) ON CONFLICT (record, key) DO NOTHING`, key, k)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return &PersistenceError{Op: "save", Backend: "postgres", Key: key, Err: err}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return &PersistenceError{Op: "save", Backend: "postgres", Key: key, Err: err}
	}
	return nil
}

// Close releases the pool
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
