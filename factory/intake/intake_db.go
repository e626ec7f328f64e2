package intake

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"stoneyard/factory/faults"
	"stoneyard/factory/permit"
	"stoneyard/infrastructure/audit"
	"stoneyard/infrastructure/sqlite"
	"stoneyard/models"
)

func findBlock(ctx context.Context, tx bun.Tx, id int64) (models.Block, error) {
	var block models.Block
	err := tx.NewSelect().Model(&block).Where("b.id = ?", id).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Block{}, fmt.Errorf("%w: block %d", faults.ErrNotFound, id)
	}
	return block, err
}

func jobNoTaken(ctx context.Context, tx bun.Tx, jobNo string, excludeID int64) (bool, error) {
	var count int
	err := tx.NewRaw(
		`SELECT COUNT(*) FROM blocks WHERE LOWER(job_no) = ? AND id <> ?`,
		strings.ToLower(jobNo), excludeID,
	).Scan(ctx, &count)
	return count > 0, err
}

// PurchaseBlocks records one or many quarry purchases in a single
// transaction. The batch is all-or-nothing: one bad row and nothing is
// written.
func PurchaseBlocks(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, operator string, inputs []PurchaseInput) ([]models.Block, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: no blocks given", faults.ErrInvalidArgument)
	}

	blocks := make([]models.Block, 0, len(inputs))
	seen := make(map[string]struct{}, len(inputs))
	for _, in := range inputs {
		jobNo := models.NormalizeJobNo(in.JobNo)
		if jobNo == "" {
			return nil, fmt.Errorf("%w: job number is required", faults.ErrInvalidArgument)
		}
		company := strings.TrimSpace(in.Company)
		material := strings.TrimSpace(in.Material)
		if company == "" || material == "" {
			return nil, fmt.Errorf("%w: company and material are required for %s", faults.ErrInvalidArgument, jobNo)
		}
		if in.WeightTons <= 0 {
			return nil, fmt.Errorf("%w: weight must be positive for %s", faults.ErrInvalidQuantity, jobNo)
		}
		if !permit.CanWrite(operator, company) {
			return nil, fmt.Errorf("%w: %s blocks", faults.ErrPermissionDenied, company)
		}
		if _, dup := seen[jobNo]; dup {
			return nil, fmt.Errorf("%w: %s appears twice in the batch", faults.ErrDuplicateJobNo, jobNo)
		}
		seen[jobNo] = struct{}{}

		blocks = append(blocks, models.Block{
			JobNo:               jobNo,
			Company:             company,
			Material:            material,
			MinesMark:           strings.TrimSpace(in.MinesMark),
			Status:              models.StatusPurchased,
			EnteredBy:           operator,
			WeightTons:          in.WeightTons,
			MSP:                 strings.TrimSpace(in.MSP),
			Country:             strings.TrimSpace(in.Country),
			Supplier:            strings.TrimSpace(in.Supplier),
			Forwarder:           strings.TrimSpace(in.Forwarder),
			ShipmentGroup:       strings.TrimSpace(in.ShipmentGroup),
			LoadingDate:         in.LoadingDate,
			ExpectedArrivalDate: in.ExpectedArrivalDate,
		})
	}

	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		for i := range blocks {
			taken, err := jobNoTaken(ctx, tx, blocks[i].JobNo, 0)
			if err != nil {
				return err
			}
			if taken {
				return fmt.Errorf("%w: %s", faults.ErrDuplicateJobNo, blocks[i].JobNo)
			}
			if _, err := tx.NewInsert().Model(&blocks[i]).Exec(ctx); err != nil {
				return err
			}
			if err := auditSvc.Write(ctx, tx, operator, "block.purchase", "blocks",
				strconv.FormatInt(blocks[i].ID, 10), nil, blocks[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return blocks, nil
}

// ArriveBlocks records blocks bought at the gate with no purchase
// paper trail. They enter the yard already measured, straight at the
// gantry.
func ArriveBlocks(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, operator string, inputs []ArrivalInput) ([]models.Block, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: no blocks given", faults.ErrInvalidArgument)
	}

	now := time.Now()
	blocks := make([]models.Block, 0, len(inputs))
	seen := make(map[string]struct{}, len(inputs))
	for _, in := range inputs {
		jobNo := models.NormalizeJobNo(in.JobNo)
		if jobNo == "" {
			return nil, fmt.Errorf("%w: job number is required", faults.ErrInvalidArgument)
		}
		company := strings.TrimSpace(in.Company)
		material := strings.TrimSpace(in.Material)
		if company == "" || material == "" {
			return nil, fmt.Errorf("%w: company and material are required for %s", faults.ErrInvalidArgument, jobNo)
		}
		if in.WeightTons <= 0 {
			return nil, fmt.Errorf("%w: weight must be positive for %s", faults.ErrInvalidQuantity, jobNo)
		}
		if in.LengthIn <= 0 || in.WidthIn <= 0 || in.HeightIn <= 0 {
			return nil, fmt.Errorf("%w: measurements must be positive for %s", faults.ErrInvalidQuantity, jobNo)
		}
		marka := strings.TrimSpace(in.MinesMark)
		if marka == "" {
			return nil, fmt.Errorf("%w: mines marka is required for %s", faults.ErrInvalidArgument, jobNo)
		}
		if !permit.CanWrite(operator, company) {
			return nil, fmt.Errorf("%w: %s blocks", faults.ErrPermissionDenied, company)
		}
		if _, dup := seen[jobNo]; dup {
			return nil, fmt.Errorf("%w: %s appears twice in the batch", faults.ErrDuplicateJobNo, jobNo)
		}
		seen[jobNo] = struct{}{}

		arrived := in.ArrivalDate
		if arrived == nil {
			arrived = &now
		}
		blocks = append(blocks, models.Block{
			JobNo:       jobNo,
			Company:     company,
			Material:    material,
			MinesMark:   marka,
			Status:      models.StatusGantry,
			EnteredBy:   operator,
			ArrivalDate: arrived,
			LengthIn:    in.LengthIn,
			WidthIn:     in.WidthIn,
			HeightIn:    in.HeightIn,
			WeightTons:  in.WeightTons,
			MSP:         strings.TrimSpace(in.MSP),
		})
	}

	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		for i := range blocks {
			taken, err := jobNoTaken(ctx, tx, blocks[i].JobNo, 0)
			if err != nil {
				return err
			}
			if taken {
				return fmt.Errorf("%w: %s", faults.ErrDuplicateJobNo, blocks[i].JobNo)
			}
			if _, err := tx.NewInsert().Model(&blocks[i]).Exec(ctx); err != nil {
				return err
			}
			if err := auditSvc.Write(ctx, tx, operator, "block.arrival_intake", "blocks",
				strconv.FormatInt(blocks[i].ID, 10), nil, blocks[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return blocks, nil
}

// RecordArrival moves a purchased block into the gantry with its
// measured dimensions and marka. The logistics fields have done their
// job once the truck is here, so they are cleared.
func RecordArrival(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, operator string, blockID int64, in ArrivalDims) (models.Block, error) {
	if in.LengthIn <= 0 || in.WidthIn <= 0 || in.HeightIn <= 0 {
		return models.Block{}, fmt.Errorf("%w: measurements must be positive", faults.ErrInvalidQuantity)
	}
	marka := strings.TrimSpace(in.MinesMark)
	if marka == "" {
		return models.Block{}, fmt.Errorf("%w: mines marka is required", faults.ErrInvalidArgument)
	}
	arrived := time.Now()
	if in.ArrivalDate != nil {
		arrived = *in.ArrivalDate
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
  status = ?,
  length_in = ?, width_in = ?, height_in = ?,
  mines_marka = ?, arrival_date = ?,
  country = '', supplier = '', forwarder = '', shipment_group = '',
  loading_date = NULL, expected_arrival_date = NULL,
  updated_at = CURRENT_TIMESTAMP
WHERE id = ? AND status = ?`,
			models.StatusGantry, in.LengthIn, in.WidthIn, in.HeightIn,
			marka, arrived, blockID, models.StatusPurchased)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: block %s is %s, not %s", faults.ErrInvalidTransition,
				before.JobNo, before.Status, models.StatusPurchased)
		}

		after, err = findBlock(ctx, tx, blockID)
		if err != nil {
			return err
		}
		return auditSvc.Write(ctx, tx, operator, "block.arrive", "blocks",
			strconv.FormatInt(blockID, 10), before, after)
	})
	if err != nil {
		return models.Block{}, err
	}
	return after, nil
}

// RenameBlock assigns a new job number, keeping the case-insensitive
// uniqueness rule. Renaming a block to its own number is a no-op that
// still succeeds, so fixing casing is allowed.
func RenameBlock(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, operator string, blockID int64, newJobNo string) (models.Block, error) {
	jobNo := models.NormalizeJobNo(newJobNo)
	if jobNo == "" {
		return models.Block{}, fmt.Errorf("%w: job number is required", faults.ErrInvalidArgument)
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
		taken, err := jobNoTaken(ctx, tx, jobNo, blockID)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: %s", faults.ErrDuplicateJobNo, jobNo)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE blocks SET job_no = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			jobNo, blockID); err != nil {
			return err
		}

		after, err = findBlock(ctx, tx, blockID)
		if err != nil {
			return err
		}
		return auditSvc.Write(ctx, tx, operator, "block.rename", "blocks",
			strconv.FormatInt(blockID, 10), before, after)
	})
	if err != nil {
		return models.Block{}, err
	}
	return after, nil
}

// SetMSP updates the minimum selling price note on a block. Any
// status; the price list changes independently of factory progress.
func SetMSP(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, operator string, blockID int64, msp string) (models.Block, error) {
	var after models.Block
	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		before, err := findBlock(ctx, tx, blockID)
		if err != nil {
			return err
		}
		if !permit.CanWrite(operator, before.Company) {
			return fmt.Errorf("%w: %s blocks", faults.ErrPermissionDenied, before.Company)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE blocks SET msp = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			strings.TrimSpace(msp), blockID); err != nil {
			return err
		}

		after, err = findBlock(ctx, tx, blockID)
		if err != nil {
			return err
		}
		return auditSvc.Write(ctx, tx, operator, "block.msp", "blocks",
			strconv.FormatInt(blockID, 10), before, after)
	})
	if err != nil {
		return models.Block{}, err
	}
	return after, nil
}

// DeleteBlocks hard-deletes blocks one by one inside a single
// transaction, reporting per-record results. Unknown ids and blocks
// the operator may not touch count as failed rather than aborting the
// rest; power cut rows go with their block via the FK cascade.
func DeleteBlocks(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, operator string, ids []int64) (deleted int, failed int, err error) {
	unique := make(map[int64]struct{}, len(ids))
	filtered := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := unique[id]; ok {
			continue
		}
		unique[id] = struct{}{}
		filtered = append(filtered, id)
	}
	if len(filtered) == 0 {
		return 0, 0, nil
	}

	err = db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		for _, id := range filtered {
			before, err := findBlock(ctx, tx, id)
			if err != nil {
				if errors.Is(err, faults.ErrNotFound) {
					failed++
					continue
				}
				return err
			}
			if !permit.CanWrite(operator, before.Company) {
				failed++
				continue
			}

			res, err := tx.ExecContext(ctx, `DELETE FROM blocks WHERE id = ?`, id)
			if err != nil {
				return err
			}
			if n, _ := res.RowsAffected(); n == 0 {
				failed++
				continue
			}

			deleted++
			if err := auditSvc.Write(ctx, tx, operator, "block.delete", "blocks",
				strconv.FormatInt(id, 10), before, nil); err != nil {
				return err
			}
		}
		return nil
	})
	return deleted, failed, err
}
