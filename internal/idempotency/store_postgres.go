package idempotency

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const (
	createTableQuery = `
        CREATE TABLE IF NOT EXISTS idempotency_keys (
            scope TEXT NOT NULL,
            key TEXT NOT NULL,
            response JSONB NOT NULL,
            created_at TIMESTAMPTZ NOT NULL,
            PRIMARY KEY (scope, key)
        )
    `
	getRecordQuery = `
        SELECT response, created_at FROM idempotency_keys WHERE scope = $1 AND key = $2
    `
	putRecordQuery = `
        INSERT INTO idempotency_keys (scope, key, response, created_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (scope, key) DO NOTHING
    `
	purgeRecordsQuery = `
        DELETE FROM idempotency_keys WHERE scope = $1 AND created_at < $2
    `
)

// PostgresStore keeps records in the idempotency_keys table.
type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

// Migrate creates the table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, createTableQuery)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, scope, key string) (Record, bool, error) {
	rec := Record{Scope: scope, Key: key}
	err := s.db.QueryRowContext(ctx, getRecordQuery, scope, key).Scan(&rec.Response, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

func (s *PostgresStore) Put(ctx context.Context, scope, key string, response []byte) error {
	_, err := s.db.ExecContext(ctx, putRecordQuery, scope, key, response, s.now().UTC())
	return err
}

// PurgeBefore deletes records of scope older than cutoff and reports how many.
func (s *PostgresStore) PurgeBefore(ctx context.Context, scope string, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, purgeRecordsQuery, scope, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
