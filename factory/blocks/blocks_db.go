package blocks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"stoneyard/factory/faults"
	"stoneyard/infrastructure/sqlite"
	"stoneyard/models"
)

// liveMinutes computes net elapsed minutes as of now for a block that
// is mid-cutting or mid-resin. Blocks in any other state have no live
// clock and return nil.
func liveMinutes(block models.Block, cuts []models.PowerCut, now time.Time) *int64 {
	var start *time.Time
	var phase models.PowerCutPhase
	switch block.Status {
	case models.StatusCutting:
		start, phase = block.StartTime, models.PhaseCutting
	case models.StatusResining:
		start, phase = block.ResinStartTime, models.PhaseResin
	default:
		return nil
	}
	if start == nil {
		return nil
	}
	phaseCuts := make([]models.PowerCut, 0, len(cuts))
	for _, cut := range cuts {
		if cut.Phase == phase {
			phaseCuts = append(phaseCuts, cut)
		}
	}
	minutes := models.NetElapsedMinutes(*start, now, phaseCuts)
	return &minutes
}

// ListBlocks returns the collection, filtered, newest first. Rows for
// blocks currently on a machine or the resin line carry a live
// net-elapsed clock.
func ListBlocks(ctx context.Context, db *sqlite.DB, filter ListFilter) ([]BlockView, error) {
	if filter.Status != "" {
		if _, err := models.NewStatus(filter.Status); err != nil {
			return nil, fmt.Errorf("%w: %v", faults.ErrInvalidArgument, err)
		}
	}

	rows := make([]models.Block, 0)
	cutsByBlock := make(map[int64][]models.PowerCut)
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		q := tx.NewSelect().Model(&rows)
		if filter.Status != "" {
			q = q.Where("b.status = ?", filter.Status)
		}
		if filter.Company != "" {
			q = q.Where("LOWER(b.company) = ?", strings.ToLower(filter.Company))
		}
		if filter.Material != "" {
			q = q.Where("LOWER(b.material) = ?", strings.ToLower(filter.Material))
		}
		if s := strings.TrimSpace(filter.Search); s != "" {
			needle := "%" + strings.ToLower(s) + "%"
			q = q.Where(
				"(LOWER(b.job_no) LIKE ? OR LOWER(b.mines_marka) LIKE ? OR LOWER(b.company) LIKE ? OR LOWER(b.material) LIKE ?)",
				needle, needle, needle, needle)
		}
		if err := q.Order("b.created_at DESC").Order("b.id DESC").Scan(ctx); err != nil {
			return err
		}

		liveIDs := make([]int64, 0)
		for _, row := range rows {
			if row.Status == models.StatusCutting || row.Status == models.StatusResining {
				liveIDs = append(liveIDs, row.ID)
			}
		}
		if len(liveIDs) == 0 {
			return nil
		}
		cuts := make([]models.PowerCut, 0)
		if err := tx.NewSelect().Model(&cuts).
			Where("pc.block_id IN (?)", bun.In(liveIDs)).
			Order("pc.start_at ASC").
			Scan(ctx); err != nil {
			return err
		}
		for _, cut := range cuts {
			cutsByBlock[cut.BlockID] = append(cutsByBlock[cut.BlockID], cut)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	views := make([]BlockView, 0, len(rows))
	for _, row := range rows {
		views = append(views, BlockView{
			Block:             row,
			Recovery:          row.Recovery(),
			NetElapsedMinutes: liveMinutes(row, cutsByBlock[row.ID], now),
		})
	}
	return views, nil
}

// GetBlock returns one block with its full outage log, oldest window
// first.
func GetBlock(ctx context.Context, db *sqlite.DB, id int64) (BlockDetail, error) {
	var block models.Block
	cuts := make([]models.PowerCut, 0)
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := tx.NewSelect().Model(&block).Where("b.id = ?", id).Limit(1).Scan(ctx); err != nil {
			return err
		}
		return tx.NewSelect().Model(&cuts).
			Where("pc.block_id = ?", id).
			Order("pc.start_at ASC").
			Scan(ctx)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return BlockDetail{}, fmt.Errorf("%w: block %d", faults.ErrNotFound, id)
	}
	if err != nil {
		return BlockDetail{}, err
	}

	detail := BlockDetail{
		BlockView: BlockView{
			Block:             block,
			Recovery:          block.Recovery(),
			NetElapsedMinutes: liveMinutes(block, cuts, time.Now()),
		},
		PowerCuts: make([]PowerCutView, 0, len(cuts)),
	}
	for _, cut := range cuts {
		detail.PowerCuts = append(detail.PowerCuts, PowerCutView{
			PowerCut:        cut,
			DurationMinutes: cut.DurationMinutes(),
		})
	}
	return detail, nil
}
