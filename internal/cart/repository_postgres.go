package cart

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/lib/pq"
)

// PostgresGuestStore keeps guest carts in one row per guest, the lines stored
// as a JSON array. Clearing empties the lines but keeps the row, so the
// revision keeps counting until the janitor purges the row.
// Table layout:
//
//	guest_id   text primary key,
//	lines      jsonb not null default '[]',
//	revision   bigint not null default 0,
//	updated_at timestamptz not null
type PostgresGuestStore struct {
	db  *sql.DB
	now func() time.Time
}

const (
	createGuestCartsQuery = `
        CREATE TABLE IF NOT EXISTS guest_carts (
            guest_id TEXT PRIMARY KEY,
            lines JSONB NOT NULL DEFAULT '[]',
            revision BIGINT NOT NULL DEFAULT 0,
            updated_at TIMESTAMPTZ NOT NULL
        )
    `
	addRevisionColumnQuery = `
        ALTER TABLE guest_carts ADD COLUMN IF NOT EXISTS revision BIGINT NOT NULL DEFAULT 0
    `
	loadGuestCartQuery = `
        SELECT lines, revision FROM guest_carts WHERE guest_id = $1
    `
	saveGuestCartQuery = `
        INSERT INTO guest_carts (guest_id, lines, revision, updated_at)
        VALUES ($1, $2, 1, $3)
        ON CONFLICT (guest_id) DO UPDATE
        SET lines = EXCLUDED.lines, revision = guest_carts.revision + 1, updated_at = EXCLUDED.updated_at
    `
	clearGuestCartsQuery = `
        UPDATE guest_carts SET lines = '[]', updated_at = $2 WHERE guest_id = ANY($1)
    `
	purgeGuestCartsQuery = `
        DELETE FROM guest_carts WHERE updated_at < $1
    `
)

func NewPostgresGuestStore(db *sql.DB) *PostgresGuestStore {
	return &PostgresGuestStore{db: db, now: time.Now}
}

// Migrate creates the guest_carts table if it does not exist and adds the
// revision column to tables created before it.
func (s *PostgresGuestStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createGuestCartsQuery); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, addRevisionColumnQuery)
	return err
}

func (s *PostgresGuestStore) Load(ctx context.Context, guestID string) ([]Line, error) {
	lines, _, err := s.Snapshot(ctx, guestID)
	return lines, err
}

func (s *PostgresGuestStore) Snapshot(ctx context.Context, guestID string) ([]Line, int64, error) {
	var (
		raw []byte
		rev int64
	)
	err := s.db.QueryRowContext(ctx, loadGuestCartQuery, guestID).Scan(&raw, &rev)
	if errors.Is(err, sql.ErrNoRows) {
		return []Line{}, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}
	var lines []Line
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &lines); err != nil {
			return nil, 0, err
		}
	}
	return Normalize(lines), rev, nil
}

func (s *PostgresGuestStore) Save(ctx context.Context, guestID string, lines []Line) error {
	if len(lines) == 0 {
		return s.Clear(ctx, guestID)
	}
	raw, err := json.Marshal(lines)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, saveGuestCartQuery, guestID, raw, s.now().UTC())
	return err
}

func (s *PostgresGuestStore) Clear(ctx context.Context, guestIDs ...string) error {
	if len(guestIDs) == 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, clearGuestCartsQuery, pq.Array(guestIDs), s.now().UTC())
	return err
}

// PurgeBefore deletes guest carts not touched since cutoff and reports how many.
func (s *PostgresGuestStore) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, purgeGuestCartsQuery, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
