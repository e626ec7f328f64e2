package stockyard

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/uptrace/bun"

	"stoneyard/factory/faults"
	"stoneyard/factory/permit"
	"stoneyard/infrastructure/audit"
	"stoneyard/infrastructure/sqlite"
	"stoneyard/models"
)

// TransferInput names the rack or bay the finished slabs moved to.
type TransferInput struct {
	Location string `json:"location"`
}

func findBlock(ctx context.Context, tx bun.Tx, id int64) (models.Block, error) {
	var block models.Block
	err := tx.NewSelect().Model(&block).Where("b.id = ?", id).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Block{}, fmt.Errorf("%w: block %d", faults.ErrNotFound, id)
	}
	return block, err
}

// CompleteBlock finishes a processing block without resin treatment.
// The resin flag is cleared either way; a completed block is past that
// decision.
func CompleteBlock(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, operator string, blockID int64) (models.Block, error) {
	var after models.Block
	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		before, err := findBlock(ctx, tx, blockID)
		if err != nil {
			return err
		}
		if !permit.CanWrite(operator, before.Company) {
			return fmt.Errorf("%w: %s blocks", faults.ErrPermissionDenied, before.Company)
		}

		res, err := tx.ExecContext(ctx, `
UPDATE blocks SET
  status = ?, is_sent_to_resin = 0,
  updated_at = CURRENT_TIMESTAMP
WHERE id = ? AND status = ?`,
			models.StatusCompleted, blockID, models.StatusProcessing)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: block %s is %s, not %s", faults.ErrInvalidTransition,
				before.JobNo, before.Status, models.StatusProcessing)
		}

		after, err = findBlock(ctx, tx, blockID)
		if err != nil {
			return err
		}
		return auditSvc.Write(ctx, tx, operator, "block.complete", "blocks",
			strconv.FormatInt(blockID, 10), before, after)
	})
	if err != nil {
		return models.Block{}, err
	}
	return after, nil
}

// TransferToYard racks a completed block in the stockyard.
func TransferToYard(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, operator string, blockID int64, in TransferInput) (models.Block, error) {
	location := strings.TrimSpace(in.Location)
	if location == "" {
		return models.Block{}, fmt.Errorf("%w: stockyard location is required", faults.ErrInvalidArgument)
	}

	var after models.Block
	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		before, err := findBlock(ctx, tx, blockID)
		if err != nil {
			return err
		}
		if !permit.CanWrite(operator, before.Company) {
			return fmt.Errorf("%w: %s blocks", faults.ErrPermissionDenied, before.Company)
		}

		res, err := tx.ExecContext(ctx, `
UPDATE blocks SET
  status = ?, stockyard_location = ?,
  updated_at = CURRENT_TIMESTAMP
WHERE id = ? AND status = ?`,
			models.StatusInStockyard, location, blockID, models.StatusCompleted)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: block %s is %s, not %s", faults.ErrInvalidTransition,
				before.JobNo, before.Status, models.StatusCompleted)
		}

		after, err = findBlock(ctx, tx, blockID)
		if err != nil {
			return err
		}
		return auditSvc.Write(ctx, tx, operator, "block.stockyard", "blocks",
			strconv.FormatInt(blockID, 10), before, after)
	})
	if err != nil {
		return models.Block{}, err
	}
	return after, nil
}
