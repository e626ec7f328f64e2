package login

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/uptrace/bun"

	"stoneyard/infrastructure/sqlite"
	"stoneyard/models"
)

func openLoginTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "login-test.db")
	db, err := sqlite.OpenDB(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := sqlite.ApplyMigrations(context.Background(), db); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return db
}

func TestAuthenticateStaff_HappyPath(t *testing.T) {
	db := openLoginTestDB(t)

	if err := UpsertStaffPIN(context.Background(), db, "Ravi", "4711"); err != nil {
		t.Fatalf("seed staff: %v", err)
	}

	staff, err := AuthenticateStaff(context.Background(), db, "ravi", "4711")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if staff.Name != "Ravi" {
		t.Fatalf("expected stored name, got %q", staff.Name)
	}
}

func TestAuthenticateStaff_WrongPINAndUnknownNameLookAlike(t *testing.T) {
	db := openLoginTestDB(t)

	if err := UpsertStaffPIN(context.Background(), db, "Ravi", "4711"); err != nil {
		t.Fatalf("seed staff: %v", err)
	}

	_, errWrongPIN := AuthenticateStaff(context.Background(), db, "Ravi", "0000")
	_, errUnknown := AuthenticateStaff(context.Background(), db, "nobody", "4711")
	if !errors.Is(errWrongPIN, sql.ErrNoRows) {
		t.Fatalf("wrong pin: expected sql.ErrNoRows, got %v", errWrongPIN)
	}
	if !errors.Is(errUnknown, sql.ErrNoRows) {
		t.Fatalf("unknown name: expected sql.ErrNoRows, got %v", errUnknown)
	}
}

func TestUpsertStaffPIN_RotatesExistingPIN(t *testing.T) {
	db := openLoginTestDB(t)
	ctx := context.Background()

	if err := UpsertStaffPIN(ctx, db, "Ravi", "4711"); err != nil {
		t.Fatalf("seed staff: %v", err)
	}
	if err := UpsertStaffPIN(ctx, db, "RAVI", "9900"); err != nil {
		t.Fatalf("rotate pin: %v", err)
	}

	var count int
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`SELECT COUNT(*) FROM staff`).Scan(ctx, &count)
	})
	if err != nil {
		t.Fatalf("count staff: %v", err)
	}
	if count != 1 {
		t.Fatalf("upsert must not duplicate the row, count=%d", count)
	}

	if _, err := AuthenticateStaff(ctx, db, "Ravi", "9900"); err != nil {
		t.Fatalf("new pin rejected: %v", err)
	}
	if _, err := AuthenticateStaff(ctx, db, "Ravi", "4711"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("old pin still works: %v", err)
	}
}

func TestUpsertStaffPIN_EnforcesPolicy(t *testing.T) {
	db := openLoginTestDB(t)

	if err := UpsertStaffPIN(context.Background(), db, "Ravi", "12"); err == nil {
		t.Fatal("expected pin policy error")
	}
	if err := UpsertStaffPIN(context.Background(), db, "", "4711"); err == nil {
		t.Fatal("expected name required error")
	}
}

func TestLoadSessionByToken_RoundTrip(t *testing.T) {
	db := openLoginTestDB(t)
	ctx := context.Background()

	if err := UpsertStaffPIN(ctx, db, "Ravi", "4711"); err != nil {
		t.Fatalf("seed staff: %v", err)
	}
	staff, err := AuthenticateStaff(ctx, db, "Ravi", "4711")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	session := newSession(staff, 12)
	if err := persistSession(ctx, db, session); err != nil {
		t.Fatalf("persist session: %v", err)
	}

	loaded, err := LoadSessionByToken(ctx, db, session.ID)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if loaded.Staff.Name != "Ravi" {
		t.Fatalf("expected staff relation loaded, got %+v", loaded.Staff)
	}
}

func TestLoadSessionByToken_ExpiredSessionIsPurged(t *testing.T) {
	db := openLoginTestDB(t)
	ctx := context.Background()

	if err := UpsertStaffPIN(ctx, db, "Ravi", "4711"); err != nil {
		t.Fatalf("seed staff: %v", err)
	}
	staff, err := AuthenticateStaff(ctx, db, "Ravi", "4711")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	stale := models.Session{
		ID:        newSessionToken(),
		StaffID:   staff.ID,
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	if err := persistSession(ctx, db, stale); err != nil {
		t.Fatalf("persist session: %v", err)
	}

	if _, err := LoadSessionByToken(ctx, db, stale.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows for expired session, got %v", err)
	}

	var count int
	err = db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`SELECT COUNT(*) FROM sessions WHERE id = ?`, stale.ID).Scan(ctx, &count)
	})
	if err != nil {
		t.Fatalf("count sessions: %v", err)
	}
	if count != 0 {
		t.Fatalf("expired session row should be deleted, count=%d", count)
	}
}

func TestDeleteExpiredSessions(t *testing.T) {
	db := openLoginTestDB(t)
	ctx := context.Background()

	if err := UpsertStaffPIN(ctx, db, "Ravi", "4711"); err != nil {
		t.Fatalf("seed staff: %v", err)
	}
	staff, err := AuthenticateStaff(ctx, db, "Ravi", "4711")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	live := models.Session{ID: newSessionToken(), StaffID: staff.ID, ExpiresAt: time.Now().Add(time.Hour)}
	stale1 := models.Session{ID: newSessionToken(), StaffID: staff.ID, ExpiresAt: time.Now().Add(-time.Minute)}
	stale2 := models.Session{ID: newSessionToken(), StaffID: staff.ID, ExpiresAt: time.Now().Add(-time.Hour)}
	for _, s := range []models.Session{live, stale1, stale2} {
		if err := persistSession(ctx, db, s); err != nil {
			t.Fatalf("persist session: %v", err)
		}
	}

	deleted, err := DeleteExpiredSessions(ctx, db)
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("deleted %d, want 2", deleted)
	}

	if _, err := LoadSessionByToken(ctx, db, live.ID); err != nil {
		t.Fatalf("live session must survive sweep: %v", err)
	}
}
