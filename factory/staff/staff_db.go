package staff

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/uptrace/bun"

	"stoneyard/factory/faults"
	"stoneyard/factory/login"
	"stoneyard/factory/permit"
	"stoneyard/infrastructure/argon"
	"stoneyard/infrastructure/audit"
	"stoneyard/infrastructure/sqlite"
	"stoneyard/models"
)

// ListStaff returns the directory ordered by name. The login screen
// shows it before authentication, so it carries names only.
func ListStaff(ctx context.Context, db *sqlite.DB) ([]MemberView, error) {
	members := make([]MemberView, 0)
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw("SELECT id, name FROM staff ORDER BY name COLLATE NOCASE ASC").Scan(ctx, &members)
	})
	return members, err
}

func findMember(ctx context.Context, tx bun.Tx, id int64) (models.StaffMember, error) {
	var member models.StaffMember
	err := tx.NewSelect().Model(&member).Where("st.id = ?", id).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return models.StaffMember{}, fmt.Errorf("%w: staff %d", faults.ErrNotFound, id)
	}
	return member, err
}

// CreateStaff adds a member with a fresh PIN. Only the admin manages
// the directory.
func CreateStaff(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, operator, name, rawPIN string) (models.StaffMember, error) {
	if permit.Normalize(operator) != permit.Admin {
		return models.StaffMember{}, fmt.Errorf("%w: staff management is admin only", faults.ErrPermissionDenied)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return models.StaffMember{}, fmt.Errorf("%w: staff name is required", faults.ErrInvalidArgument)
	}
	if permit.Reserved(name) {
		return models.StaffMember{}, fmt.Errorf("%w: %q is a reserved identity", faults.ErrInvalidArgument, name)
	}
	if err := login.ValidatePinPolicy(strings.TrimSpace(rawPIN)); err != nil {
		return models.StaffMember{}, err
	}
	hash, err := argon.HashPIN(strings.TrimSpace(rawPIN), argon.DefaultParams)
	if err != nil {
		return models.StaffMember{}, err
	}

	member := models.StaffMember{Name: name, PinHash: hash}
	err = db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		var count int
		if err := tx.NewRaw(`SELECT COUNT(*) FROM staff WHERE LOWER(name) = ?`, strings.ToLower(name)).Scan(ctx, &count); err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: %s", faults.ErrDuplicateName, name)
		}
		if _, err := tx.NewInsert().Model(&member).Exec(ctx); err != nil {
			return err
		}
		return auditSvc.Write(ctx, tx, operator, "staff.create", "staff",
			strconv.FormatInt(member.ID, 10), nil, MemberView{ID: member.ID, Name: member.Name})
	})
	if err != nil {
		return models.StaffMember{}, err
	}
	return member, nil
}

// UpdateStaffPIN rotates a member's PIN. The admin may rotate anyone;
// a member may rotate their own.
func UpdateStaffPIN(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, operator string, id int64, rawPIN string) error {
	if err := login.ValidatePinPolicy(strings.TrimSpace(rawPIN)); err != nil {
		return err
	}
	hash, err := argon.HashPIN(strings.TrimSpace(rawPIN), argon.DefaultParams)
	if err != nil {
		return err
	}

	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		member, err := findMember(ctx, tx, id)
		if err != nil {
			return err
		}
		self := permit.Normalize(operator) == permit.Normalize(member.Name)
		if permit.Normalize(operator) != permit.Admin && !self {
			return fmt.Errorf("%w: cannot change another member's pin", faults.ErrPermissionDenied)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE staff SET pin_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, hash, id); err != nil {
			return err
		}
		return auditSvc.Write(ctx, tx, operator, "staff.pin_rotate", "staff",
			strconv.FormatInt(id, 10), nil, nil)
	})
}

// DeleteStaff removes a member; their sessions cascade away with the
// row. The admin identity itself cannot be deleted.
func DeleteStaff(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, operator string, id int64) error {
	if permit.Normalize(operator) != permit.Admin {
		return fmt.Errorf("%w: staff management is admin only", faults.ErrPermissionDenied)
	}
	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		member, err := findMember(ctx, tx, id)
		if err != nil {
			return err
		}
		if permit.Normalize(member.Name) == permit.Admin {
			return fmt.Errorf("%w: the admin identity cannot be deleted", faults.ErrInvalidArgument)
		}
		if _, err := tx.NewDelete().Model((*models.StaffMember)(nil)).Where("id = ?", id).Exec(ctx); err != nil {
			return err
		}
		return auditSvc.Write(ctx, tx, operator, "staff.delete", "staff",
			strconv.FormatInt(id, 10), MemberView{ID: member.ID, Name: member.Name}, nil)
	})
}
