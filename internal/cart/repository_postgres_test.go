package cart

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
)

func newMockGuestStore(t *testing.T) (*PostgresGuestStore, sqlmock.Sqlmock, time.Time) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	s := NewPostgresGuestStore(db)
	fixed := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	return s, mock, fixed
}

func TestPostgresGuestStore_Load(t *testing.T) {
	s, mock, _ := newMockGuestStore(t)
	mock.ExpectQuery("SELECT lines, revision FROM guest_carts").
		WithArgs("g1").
		WillReturnRows(sqlmock.NewRows([]string{"lines", "revision"}).
			AddRow([]byte(`[{"product_id":"p1","quantity":1},{"product_id":"p1","quantity":2},{"product_id":"p2","quantity":0}]`), int64(3)))
	mock.ExpectQuery("SELECT lines, revision FROM guest_carts").
		WithArgs("g2").
		WillReturnError(sql.ErrNoRows)

	lines, rev, err := s.Snapshot(context.Background(), "g1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 1 || lines[0].ProductID != "p1" || lines[0].Quantity != 3 {
		t.Fatalf("expected normalized lines, got %v", lines)
	}
	if rev != 3 {
		t.Fatalf("expected revision 3, got %d", rev)
	}

	lines, err = s.Load(context.Background(), "g2")
	if err != nil || len(lines) != 0 {
		t.Fatalf("expected empty cart for unknown guest, got %v, %v", lines, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresGuestStore_SaveAndClear(t *testing.T) {
	s, mock, fixed := newMockGuestStore(t)
	mock.ExpectExec("INSERT INTO guest_carts").
		WithArgs("g1", []byte(`[{"product_id":"p1","quantity":2}]`), fixed).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// saving nothing empties the row and keeps its revision
	mock.ExpectExec("UPDATE guest_carts SET lines = '\\[\\]'").
		WithArgs(pq.Array([]string{"g1"}), fixed).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE guest_carts SET lines = '\\[\\]'").
		WithArgs(pq.Array([]string{"g2", "g3"}), fixed).
		WillReturnResult(sqlmock.NewResult(0, 2))

	ctx := context.Background()
	if err := s.Save(ctx, "g1", []Line{{"p1", 2}}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := s.Save(ctx, "g1", nil); err != nil {
		t.Fatalf("empty save failed: %v", err)
	}
	if err := s.Clear(ctx, "g2", "g3"); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("clearing nothing should not touch the db: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresGuestStore_Migrate(t *testing.T) {
	s, mock, _ := newMockGuestStore(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS guest_carts").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("ALTER TABLE guest_carts ADD COLUMN IF NOT EXISTS revision").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresGuestStore_PurgeBefore(t *testing.T) {
	s, mock, fixed := newMockGuestStore(t)
	cutoff := fixed.Add(-72 * time.Hour)
	mock.ExpectExec("DELETE FROM guest_carts WHERE updated_at").
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := s.PurgeBefore(context.Background(), cutoff)
	if err != nil || n != 4 {
		t.Fatalf("expected 4 purged, got %d, %v", n, err)
	}
}
