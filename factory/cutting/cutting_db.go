package cutting

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

// StartCutting moves a gantry block onto a machine. The machine must
// be free; the partial unique index on the blocks table backs up the
// in-transaction check.
func StartCutting(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, operator string, blockID int64, in StartInput) (models.Block, error) {
	machine := strings.TrimSpace(in.MachineID)
	if machine == "" {
		return models.Block{}, fmt.Errorf("%w: cutting machine is required", faults.ErrInvalidArgument)
	}
	thickness := strings.TrimSpace(in.Thickness)
	if thickness == "" {
		return models.Block{}, fmt.Errorf("%w: thickness is required", faults.ErrInvalidArgument)
	}
	preCut := strings.TrimSpace(in.PreCuttingProcess)
	if preCut == "" {
		preCut = "None"
	}
	if !validPreCuttingProcess(preCut) {
		return models.Block{}, fmt.Errorf("%w: unknown pre-cutting process %q", faults.ErrInvalidArgument, preCut)
	}
	start := time.Now()
	if in.Start != nil {
		start = *in.Start
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

		var busy int
		if err := tx.NewRaw(
			`SELECT COUNT(*) FROM blocks WHERE status = ? AND LOWER(assigned_machine) = ?`,
			models.StatusCutting, strings.ToLower(machine),
		).Scan(ctx, &busy); err != nil {
			return err
		}
		if busy > 0 {
			return fmt.Errorf("%w: %s", faults.ErrMachineBusy, machine)
		}

		res, err := tx.ExecContext(ctx, `
UPDATE blocks SET
  status = ?,
  assigned_machine = ?, thickness = ?, pre_cutting_process = ?,
  start_time = ?,
  updated_at = CURRENT_TIMESTAMP
WHERE id = ? AND status = ?`,
			models.StatusCutting, machine, thickness, preCut, start,
			blockID, models.StatusGantry)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: block %s is %s, not %s", faults.ErrInvalidTransition,
				before.JobNo, before.Status, models.StatusGantry)
		}

		after, err = findBlock(ctx, tx, blockID)
		if err != nil {
			return err
		}
		return auditSvc.Write(ctx, tx, operator, "block.cutting_start", "blocks",
			strconv.FormatInt(blockID, 10), before, after)
	})
	if err != nil {
		return models.Block{}, err
	}
	return after, nil
}

// LogPowerCut appends one outage window to a block that is on the saw.
// The duration is derived from the window whenever it is read, never
// stored.
func LogPowerCut(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, operator string, blockID int64, in PowerCutInput) (models.PowerCut, error) {
	if in.Start.IsZero() || in.End.IsZero() {
		return models.PowerCut{}, fmt.Errorf("%w: power cut start and end are required", faults.ErrInvalidArgument)
	}
	if !in.End.After(in.Start) {
		return models.PowerCut{}, fmt.Errorf("%w: power cut must end after it starts", faults.ErrInvalidArgument)
	}

	cut := models.PowerCut{Phase: models.PhaseCutting, StartAt: in.Start, EndAt: in.End}
	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		block, err := findBlock(ctx, tx, blockID)
		if err != nil {
			return err
		}
		if !permit.CanWrite(operator, block.Company) {
			return fmt.Errorf("%w: %s blocks", faults.ErrPermissionDenied, block.Company)
		}
		if block.Status != models.StatusCutting {
			return fmt.Errorf("%w: block %s is %s, not %s", faults.ErrInvalidTransition,
				block.JobNo, block.Status, models.StatusCutting)
		}

		cut.BlockID = blockID
		if _, err := tx.NewInsert().Model(&cut).Exec(ctx); err != nil {
			return err
		}
		return auditSvc.Write(ctx, tx, operator, "block.cutting_powercut", "blocks",
			strconv.FormatInt(blockID, 10), nil, cut)
	})
	if err != nil {
		return models.PowerCut{}, err
	}
	return cut, nil
}

// UndoCutting puts the block back on the gantry as if cutting never
// started. Everything the start populated goes away, the outage log for
// this run included.
func UndoCutting(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, operator string, blockID int64) (models.Block, error) {
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
  assigned_machine = '', thickness = '', pre_cutting_process = 'None',
  start_time = NULL,
  updated_at = CURRENT_TIMESTAMP
WHERE id = ? AND status = ?`,
			models.StatusGantry, blockID, models.StatusCutting)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: block %s is %s, not %s", faults.ErrInvalidTransition,
				before.JobNo, before.Status, models.StatusCutting)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM power_cuts WHERE block_id = ? AND phase = ?`,
			blockID, models.PhaseCutting); err != nil {
			return err
		}

		after, err = findBlock(ctx, tx, blockID)
		if err != nil {
			return err
		}
		return auditSvc.Write(ctx, tx, operator, "block.cutting_undo", "blocks",
			strconv.FormatInt(blockID, 10), before, after)
	})
	if err != nil {
		return models.Block{}, err
	}
	return after, nil
}

// FinishCutting closes the run: slab output recorded, net active
// minutes computed from the window minus logged outages, machine
// released. The minutes are a snapshot taken here, never re-derived.
func FinishCutting(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, operator string, blockID int64, in FinishInput) (models.Block, error) {
	if in.SlabLengthIn <= 0 || in.SlabWidthIn <= 0 {
		return models.Block{}, fmt.Errorf("%w: slab dimensions must be positive", faults.ErrInvalidQuantity)
	}
	if in.SlabCount <= 0 {
		return models.Block{}, fmt.Errorf("%w: slab count must be positive", faults.ErrInvalidQuantity)
	}
	if in.TotalSqFt <= 0 {
		return models.Block{}, fmt.Errorf("%w: total square feet must be positive", faults.ErrInvalidQuantity)
	}
	end := time.Now()
	if in.End != nil {
		end = *in.End
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
		if before.Status != models.StatusCutting {
			return fmt.Errorf("%w: block %s is %s, not %s", faults.ErrInvalidTransition,
				before.JobNo, before.Status, models.StatusCutting)
		}
		if before.StartTime == nil {
			return fmt.Errorf("%w: block %s has no cutting start time", faults.ErrInvalidArgument, before.JobNo)
		}
		if !end.After(*before.StartTime) {
			return fmt.Errorf("%w: cutting must end after it starts", faults.ErrInvalidArgument)
		}

		cuts := make([]models.PowerCut, 0)
		if err := tx.NewSelect().Model(&cuts).
			Where("pc.block_id = ?", blockID).
			Where("pc.phase = ?", models.PhaseCutting).
			Order("pc.start_at ASC").
			Scan(ctx); err != nil {
			return err
		}
		netMinutes := models.NetElapsedMinutes(*before.StartTime, end, cuts)

		res, err := tx.ExecContext(ctx, `
UPDATE blocks SET
  status = ?,
  end_time = ?, total_cutting_minutes = ?,
  slab_length_in = ?, slab_width_in = ?, slab_count = ?, total_sqft = ?,
  cut_by_machine = assigned_machine, assigned_machine = '',
  processing_stage = 'Field',
  updated_at = CURRENT_TIMESTAMP
WHERE id = ? AND status = ?`,
			models.StatusProcessing, end, netMinutes,
			in.SlabLengthIn, in.SlabWidthIn, in.SlabCount, in.TotalSqFt,
			blockID, models.StatusCutting)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: block %s is %s, not %s", faults.ErrInvalidTransition,
				before.JobNo, before.Status, models.StatusCutting)
		}

		after, err = findBlock(ctx, tx, blockID)
		if err != nil {
			return err
		}
		return auditSvc.Write(ctx, tx, operator, "block.cutting_finish", "blocks",
			strconv.FormatInt(blockID, 10), before, after)
	})
	if err != nil {
		return models.Block{}, err
	}
	return after, nil
}
