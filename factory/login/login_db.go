package login

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"stoneyard/infrastructure/argon"
	"stoneyard/infrastructure/sqlite"
	"stoneyard/models"
)

func findStaffByName(ctx context.Context, tx bun.Tx, name string) (models.StaffMember, error) {
	var staff models.StaffMember
	err := tx.NewSelect().
		Model(&staff).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return models.StaffMember{}, err
	}
	return staff, nil
}

// AuthenticateStaff verifies name and PIN. Unknown names and wrong
// PINs both come back as sql.ErrNoRows so the caller cannot tell them
// apart.
func AuthenticateStaff(ctx context.Context, db *sqlite.DB, name, pin string) (models.StaffMember, error) {
	var staff models.StaffMember
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		var err error
		staff, err = findStaffByName(ctx, tx, name)
		return err
	})
	if err != nil {
		return models.StaffMember{}, err
	}

	ok, err := argon.VerifyPIN(pin, staff.PinHash)
	if err != nil {
		return models.StaffMember{}, err
	}
	if !ok {
		return models.StaffMember{}, sql.ErrNoRows
	}
	return staff, nil
}

func persistSession(ctx context.Context, db *sqlite.DB, session models.Session) error {
	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(&models.Session{
			ID:        session.ID,
			StaffID:   session.StaffID,
			ExpiresAt: session.ExpiresAt,
		}).Exec(ctx)
		return err
	})
}

func DeleteSessionByToken(ctx context.Context, db *sqlite.DB, token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().Model((*models.Session)(nil)).Where("id = ?", token).Exec(ctx)
		return err
	})
}

// LoadSessionByToken fetches the session with its staff row. Expired
// sessions are deleted on sight and reported as missing.
func LoadSessionByToken(ctx context.Context, db *sqlite.DB, token string) (models.Session, error) {
	var session models.Session
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().
			Model(&session).
			Relation("Staff").
			Where("s.id = ?", token).
			Limit(1).
			Scan(ctx)
	})
	if err != nil {
		return models.Session{}, err
	}
	if session.Expired() {
		_ = DeleteSessionByToken(ctx, db, token)
		return models.Session{}, sql.ErrNoRows
	}
	return session, nil
}

// DeleteExpiredSessions clears session rows past their expiry and
// reports how many went. The scheduler runs this on a cron cadence.
func DeleteExpiredSessions(ctx context.Context, db *sqlite.DB) (int64, error) {
	var deleted int64
	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().
			Model((*models.Session)(nil)).
			Where("expires_at < ?", time.Now()).
			Exec(ctx)
		if err != nil {
			return err
		}
		deleted, _ = res.RowsAffected()
		return nil
	})
	return deleted, err
}

// UpsertStaffPIN creates the staff member or replaces their PIN. The
// seed tool uses this for the admin identity; it is an upsert so
// rerunning the seed rotates the PIN instead of failing.
func UpsertStaffPIN(ctx context.Context, db *sqlite.DB, name, rawPIN string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("staff name is required")
	}
	rawPIN = strings.TrimSpace(rawPIN)
	if rawPIN == "" {
		return errors.New("pin is required")
	}
	if err := ValidatePinPolicy(rawPIN); err != nil {
		return err
	}
	hash, err := argon.HashPIN(rawPIN, argon.DefaultParams)
	if err != nil {
		return err
	}

	now := time.Now()
	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.ExecContext(ctx, `
INSERT INTO staff (name, pin_hash, created_at, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(name COLLATE NOCASE) DO UPDATE SET
  pin_hash = excluded.pin_hash,
  updated_at = excluded.updated_at`, name, hash, now, now)
		return err
	})
}
