package labels

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"stoneyard/factory/faults"
	"stoneyard/infrastructure/sqlite"
	"stoneyard/models"
)

// loadLabelData resolves blocks into printable job card data, keeping
// the requested order so cards come off the printer in the order the
// floor asked for them.
func loadLabelData(ctx context.Context, db *sqlite.DB, ids []int64) ([]BlockLabelData, error) {
	unique := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return nil, fmt.Errorf("%w: no block ids given", faults.ErrInvalidArgument)
	}

	blocks := make([]models.Block, 0, len(unique))
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().Model(&blocks).Where("b.id IN (?)", bun.In(unique)).Scan(ctx)
	})
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]models.Block, len(blocks))
	for _, block := range blocks {
		byID[block.ID] = block
	}

	labels := make([]BlockLabelData, 0, len(unique))
	for _, id := range unique {
		block, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: block %d", faults.ErrNotFound, id)
		}
		machine := block.AssignedMachineID
		if machine == "" {
			machine = block.CutByMachine
		}
		labels = append(labels, BlockLabelData{
			BlockID:     block.ID,
			JobNo:       block.JobNo,
			Company:     block.Company,
			Material:    block.Material,
			MinesMark:   block.MinesMark,
			Status:      string(block.Status),
			Thickness:   block.Thickness,
			Machine:     machine,
			WeightTons:  block.WeightTons,
			SlabCount:   block.SlabCount,
			TotalSqFt:   block.TotalSqFt,
			ArrivalDate: block.ArrivalDate,
		})
	}
	return labels, nil
}
