package resin

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

func runningBatch(ctx context.Context, tx bun.Tx) ([]models.Block, error) {
	members := make([]models.Block, 0)
	err := tx.NewSelect().Model(&members).
		Where("b.status = ?", models.StatusResining).
		Order("b.id ASC").
		Scan(ctx)
	return members, err
}

// SetResinFlag queues a processing block for the resin line, or pulls
// it back out. The stage label follows the flag so the floor sees
// where the slabs are headed.
func SetResinFlag(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, operator string, blockID int64, sent bool) (models.Block, error) {
	stage := "Field"
	if sent {
		stage = "Resin Plant"
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
  is_sent_to_resin = ?, processing_stage = ?,
  updated_at = CURRENT_TIMESTAMP
WHERE id = ? AND status = ?`,
			sent, stage, blockID, models.StatusProcessing)
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
		return auditSvc.Write(ctx, tx, operator, "block.resin_flag", "blocks",
			strconv.FormatInt(blockID, 10), before, after)
	})
	if err != nil {
		return models.Block{}, err
	}
	return after, nil
}

// StartBatch loads the listed blocks onto the resin line together.
// The line runs one batch at a time; every member must already be
// flagged and still in Processing. All members receive the identical
// start time and treatment type, so the batch reads as one run.
func StartBatch(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, operator string, in StartBatchInput) ([]models.Block, error) {
	treatment := strings.TrimSpace(in.TreatmentType)
	if !validTreatment(treatment) {
		return nil, fmt.Errorf("%w: unknown resin treatment %q", faults.ErrInvalidArgument, treatment)
	}

	unique := make(map[int64]struct{}, len(in.BlockIDs))
	ids := make([]int64, 0, len(in.BlockIDs))
	for _, id := range in.BlockIDs {
		if id <= 0 {
			continue
		}
		if _, ok := unique[id]; ok {
			continue
		}
		unique[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no blocks given", faults.ErrInvalidArgument)
	}

	start := time.Now()
	if in.Start != nil {
		start = *in.Start
	}

	members := make([]models.Block, 0, len(ids))
	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		var busy int
		if err := tx.NewRaw(`SELECT COUNT(*) FROM blocks WHERE status = ?`, models.StatusResining).Scan(ctx, &busy); err != nil {
			return err
		}
		if busy > 0 {
			return faults.ErrResinLineBusy
		}

		befores := make([]models.Block, 0, len(ids))
		for _, id := range ids {
			before, err := findBlock(ctx, tx, id)
			if err != nil {
				return err
			}
			if !permit.CanWrite(operator, before.Company) {
				return fmt.Errorf("%w: %s blocks", faults.ErrPermissionDenied, before.Company)
			}
			if before.Status != models.StatusProcessing {
				return fmt.Errorf("%w: block %s is %s, not %s", faults.ErrInvalidTransition,
					before.JobNo, before.Status, models.StatusProcessing)
			}
			if !before.IsSentToResin {
				return fmt.Errorf("%w: block %s is not flagged for resin", faults.ErrInvalidTransition, before.JobNo)
			}
			befores = append(befores, before)
		}

		for _, before := range befores {
			res, err := tx.ExecContext(ctx, `
UPDATE blocks SET
  status = ?,
  resin_start_time = ?, resin_treatment_type = ?,
  updated_at = CURRENT_TIMESTAMP
WHERE id = ? AND status = ?`,
				models.StatusResining, start, treatment,
				before.ID, models.StatusProcessing)
			if err != nil {
				return err
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return fmt.Errorf("%w: block %s is %s, not %s", faults.ErrInvalidTransition,
					before.JobNo, before.Status, models.StatusProcessing)
			}

			after, err := findBlock(ctx, tx, before.ID)
			if err != nil {
				return err
			}
			if err := auditSvc.Write(ctx, tx, operator, "block.resin_start", "blocks",
				strconv.FormatInt(before.ID, 10), before, after); err != nil {
				return err
			}
			members = append(members, after)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return members, nil
}

// LogBatchPowerCut appends the same outage window to every block on
// the line. Each member carries its own copy so per-block downtime
// reporting stays self-contained.
func LogBatchPowerCut(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, operator string, in BatchPowerCutInput) ([]models.PowerCut, error) {
	if in.Start.IsZero() || in.End.IsZero() {
		return nil, fmt.Errorf("%w: power cut start and end are required", faults.ErrInvalidArgument)
	}
	if !in.End.After(in.Start) {
		return nil, fmt.Errorf("%w: power cut must end after it starts", faults.ErrInvalidArgument)
	}

	cuts := make([]models.PowerCut, 0)
	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		members, err := runningBatch(ctx, tx)
		if err != nil {
			return err
		}
		if len(members) == 0 {
			return fmt.Errorf("%w: no resin batch is running", faults.ErrNotFound)
		}
		for _, member := range members {
			if !permit.CanWrite(operator, member.Company) {
				return fmt.Errorf("%w: %s blocks", faults.ErrPermissionDenied, member.Company)
			}
		}

		for _, member := range members {
			cut := models.PowerCut{
				BlockID: member.ID,
				Phase:   models.PhaseResin,
				StartAt: in.Start,
				EndAt:   in.End,
			}
			if _, err := tx.NewInsert().Model(&cut).Exec(ctx); err != nil {
				return err
			}
			if err := auditSvc.Write(ctx, tx, operator, "block.resin_powercut", "blocks",
				strconv.FormatInt(member.ID, 10), nil, cut); err != nil {
				return err
			}
			cuts = append(cuts, cut)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cuts, nil
}

// UndoBatch takes every block off the line as if the batch never
// started. The start time, treatment type and this run's outage log go
// away; the resin flag stays set, the blocks are still queued.
func UndoBatch(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, operator string) ([]models.Block, error) {
	members := make([]models.Block, 0)
	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		befores, err := runningBatch(ctx, tx)
		if err != nil {
			return err
		}
		if len(befores) == 0 {
			return fmt.Errorf("%w: no resin batch is running", faults.ErrNotFound)
		}
		for _, before := range befores {
			if !permit.CanWrite(operator, before.Company) {
				return fmt.Errorf("%w: %s blocks", faults.ErrPermissionDenied, before.Company)
			}
		}

		for _, before := range befores {
			res, err := tx.ExecContext(ctx, `
UPDATE blocks SET
  status = ?,
  resin_start_time = NULL, resin_treatment_type = '',
  updated_at = CURRENT_TIMESTAMP
WHERE id = ? AND status = ?`,
				models.StatusProcessing, before.ID, models.StatusResining)
			if err != nil {
				return err
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return fmt.Errorf("%w: block %s is %s, not %s", faults.ErrInvalidTransition,
					before.JobNo, before.Status, models.StatusResining)
			}
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM power_cuts WHERE block_id = ? AND phase = ?`,
				before.ID, models.PhaseResin); err != nil {
				return err
			}

			after, err := findBlock(ctx, tx, before.ID)
			if err != nil {
				return err
			}
			if err := auditSvc.Write(ctx, tx, operator, "block.resin_undo", "blocks",
				strconv.FormatInt(before.ID, 10), before, after); err != nil {
				return err
			}
			members = append(members, after)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return members, nil
}

// FinishBatch completes every block on the line with the identical end
// time. One member failing validation stops the whole batch before
// anything is written. The outage log stays, it is treatment history
// now.
func FinishBatch(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, operator string, in FinishBatchInput) ([]models.Block, error) {
	end := time.Now()
	if in.End != nil {
		end = *in.End
	}

	members := make([]models.Block, 0)
	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		befores, err := runningBatch(ctx, tx)
		if err != nil {
			return err
		}
		if len(befores) == 0 {
			return fmt.Errorf("%w: no resin batch is running", faults.ErrNotFound)
		}
		for _, before := range befores {
			if !permit.CanWrite(operator, before.Company) {
				return fmt.Errorf("%w: %s blocks", faults.ErrPermissionDenied, before.Company)
			}
			if before.ResinStartTime != nil && !end.After(*before.ResinStartTime) {
				return fmt.Errorf("%w: resin treatment must end after it starts", faults.ErrInvalidArgument)
			}
		}

		for _, before := range befores {
			res, err := tx.ExecContext(ctx, `
UPDATE blocks SET
  status = ?,
  resin_end_time = ?, is_sent_to_resin = 0,
  updated_at = CURRENT_TIMESTAMP
WHERE id = ? AND status = ?`,
				models.StatusCompleted, end, before.ID, models.StatusResining)
			if err != nil {
				return err
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return fmt.Errorf("%w: block %s is %s, not %s", faults.ErrInvalidTransition,
					before.JobNo, before.Status, models.StatusResining)
			}

			after, err := findBlock(ctx, tx, before.ID)
			if err != nil {
				return err
			}
			if err := auditSvc.Write(ctx, tx, operator, "block.resin_finish", "blocks",
				strconv.FormatInt(before.ID, 10), before, after); err != nil {
				return err
			}
			members = append(members, after)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return members, nil
}
