package staff

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/uptrace/bun"

	"stoneyard/factory/faults"
	"stoneyard/infrastructure/argon"
	"stoneyard/infrastructure/audit"
	"stoneyard/infrastructure/sqlite"
)

func openStaffTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "staff-test.db")
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

func TestCreateStaff_HappyPathStoresHash(t *testing.T) {
	db := openStaffTestDB(t)

	member, err := CreateStaff(context.Background(), db, audit.NewService(), "ADMIN", "Ravi", "4711")
	if err != nil {
		t.Fatalf("create staff: %v", err)
	}
	if member.ID == 0 {
		t.Fatal("expected assigned id")
	}

	var pinHash string
	err = db.WithReadTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`SELECT pin_hash FROM staff WHERE name = ?`, "Ravi").Scan(ctx, &pinHash)
	})
	if err != nil {
		t.Fatalf("load staff: %v", err)
	}
	if pinHash == "4711" {
		t.Fatal("expected pin to be hashed")
	}
	ok, err := argon.VerifyPIN("4711", pinHash)
	if err != nil || !ok {
		t.Fatalf("stored hash must verify, ok=%v err=%v", ok, err)
	}

	var auditCount int
	err = db.WithReadTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`SELECT COUNT(*) FROM audit_logs WHERE action = 'staff.create'`).Scan(ctx, &auditCount)
	})
	if err != nil {
		t.Fatalf("count audit: %v", err)
	}
	if auditCount != 1 {
		t.Fatalf("expected one audit row, got %d", auditCount)
	}
}

func TestCreateStaff_AdminOnly(t *testing.T) {
	db := openStaffTestDB(t)

	_, err := CreateStaff(context.Background(), db, audit.NewService(), "Ravi", "Priya", "4711")
	if !errors.Is(err, faults.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	_, err = CreateStaff(context.Background(), db, audit.NewService(), "GUEST", "Priya", "4711")
	if !errors.Is(err, faults.ErrPermissionDenied) {
		t.Fatalf("guest: expected ErrPermissionDenied, got %v", err)
	}
}

func TestCreateStaff_DuplicateNameRejectedCaseInsensitive(t *testing.T) {
	db := openStaffTestDB(t)

	if _, err := CreateStaff(context.Background(), db, audit.NewService(), "ADMIN", "Ravi", "4711"); err != nil {
		t.Fatalf("seed staff: %v", err)
	}
	_, err := CreateStaff(context.Background(), db, audit.NewService(), "ADMIN", "rAvI", "9900")
	if !errors.Is(err, faults.ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
}

func TestCreateStaff_ReservedNamesRejected(t *testing.T) {
	db := openStaffTestDB(t)

	for _, name := range []string{"guest", "Admin"} {
		_, err := CreateStaff(context.Background(), db, audit.NewService(), "ADMIN", name, "4711")
		if !errors.Is(err, faults.ErrInvalidArgument) {
			t.Fatalf("%s: expected ErrInvalidArgument, got %v", name, err)
		}
	}
}

func TestCreateStaff_PinPolicyEnforced(t *testing.T) {
	db := openStaffTestDB(t)

	_, err := CreateStaff(context.Background(), db, audit.NewService(), "ADMIN", "Ravi", "12")
	if !errors.Is(err, faults.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestUpdateStaffPIN_SelfAndAdminAllowed(t *testing.T) {
	db := openStaffTestDB(t)
	ctx := context.Background()

	member, err := CreateStaff(ctx, db, audit.NewService(), "ADMIN", "Ravi", "4711")
	if err != nil {
		t.Fatalf("seed staff: %v", err)
	}

	if err := UpdateStaffPIN(ctx, db, audit.NewService(), "ravi", member.ID, "9900"); err != nil {
		t.Fatalf("self rotate: %v", err)
	}
	if err := UpdateStaffPIN(ctx, db, audit.NewService(), "ADMIN", member.ID, "5566"); err != nil {
		t.Fatalf("admin rotate: %v", err)
	}

	err = UpdateStaffPIN(ctx, db, audit.NewService(), "Priya", member.ID, "1122")
	if !errors.Is(err, faults.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied for other member, got %v", err)
	}

	err = UpdateStaffPIN(ctx, db, audit.NewService(), "ADMIN", 9999, "1122")
	if !errors.Is(err, faults.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing id, got %v", err)
	}
}

func TestDeleteStaff_RemovesMemberAndSessions(t *testing.T) {
	db := openStaffTestDB(t)
	ctx := context.Background()

	member, err := CreateStaff(ctx, db, audit.NewService(), "ADMIN", "Ravi", "4711")
	if err != nil {
		t.Fatalf("seed staff: %v", err)
	}
	err = db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO sessions (id, staff_id, expires_at) VALUES (?, ?, DATETIME('now', '+1 hour'))`,
			"tok-ravi", member.ID)
		return err
	})
	if err != nil {
		t.Fatalf("seed session: %v", err)
	}

	if err := DeleteStaff(ctx, db, audit.NewService(), "ADMIN", member.ID); err != nil {
		t.Fatalf("delete staff: %v", err)
	}

	var sessions int
	err = db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`SELECT COUNT(*) FROM sessions WHERE staff_id = ?`, member.ID).Scan(ctx, &sessions)
	})
	if err != nil {
		t.Fatalf("count sessions: %v", err)
	}
	if sessions != 0 {
		t.Fatalf("expected sessions cascade, got %d", sessions)
	}

	if err := DeleteStaff(ctx, db, audit.NewService(), "Ravi", member.ID); !errors.Is(err, faults.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied for non-admin, got %v", err)
	}
}

func TestListStaff_OrderedByName(t *testing.T) {
	db := openStaffTestDB(t)
	ctx := context.Background()

	for _, name := range []string{"priya", "Arun", "ravi"} {
		if _, err := CreateStaff(ctx, db, audit.NewService(), "ADMIN", name, "4711"); err != nil {
			t.Fatalf("seed %s: %v", name, err)
		}
	}

	members, err := ListStaff(ctx, db)
	if err != nil {
		t.Fatalf("list staff: %v", err)
	}
	if len(members) != 3 {
		t.Fatalf("expected 3 members, got %d", len(members))
	}
	if members[0].Name != "Arun" || members[1].Name != "priya" || members[2].Name != "ravi" {
		t.Fatalf("unexpected order: %+v", members)
	}
}
