package sales

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"math/big"
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

// cents compares quantities at two-decimal precision, the resolution
// the floor measures in. Anything finer is float noise.
func cents(v float64) int64 {
	return int64(math.Round(v * 100))
}

// splitJobNo finds a free P-suffixed job number for a split record.
// The suffix is random, so retries on collision rather than counting
// up.
func splitJobNo(ctx context.Context, tx bun.Tx, base string) (string, error) {
	for attempt := 0; attempt < 25; attempt++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10000))
		if err != nil {
			return "", err
		}
		candidate := fmt.Sprintf("%s-P%04d", base, n.Int64())
		var count int
		if err := tx.NewRaw(
			`SELECT COUNT(*) FROM blocks WHERE LOWER(job_no) = ?`,
			strings.ToLower(candidate),
		).Scan(ctx, &count); err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free split job number for %s", base)
}

// splitRecord copies what describes the stone itself onto a new sold
// record. Production timestamps and outage logs stay with the original
// block's history.
func splitRecord(before models.Block, jobNo, operator string) models.Block {
	return models.Block{
		JobNo:              jobNo,
		Company:            before.Company,
		Material:           before.Material,
		MinesMark:          before.MinesMark,
		Status:             models.StatusSold,
		EnteredBy:          operator,
		SlabLengthIn:       before.SlabLengthIn,
		SlabWidthIn:        before.SlabWidthIn,
		Thickness:          before.Thickness,
		CutByMachine:       before.CutByMachine,
		ResinTreatmentType: before.ResinTreatmentType,
		MSP:                before.MSP,
	}
}

// SellByArea sells square feet out of a block holding slab output.
// Selling everything the block holds transitions it in place; selling
// less splits off a new sold record and shrinks the original so the
// totals conserve. Both writes share one transaction.
func SellByArea(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, operator string, blockID int64, in AreaSaleInput) (SaleResult, error) {
	soldTo := strings.TrimSpace(in.SoldTo)
	billNo := strings.TrimSpace(in.BillNo)
	if soldTo == "" || billNo == "" {
		return SaleResult{}, fmt.Errorf("%w: buyer and bill number are required", faults.ErrInvalidArgument)
	}
	if cents(in.SqFt) <= 0 {
		return SaleResult{}, fmt.Errorf("%w: sale area must be positive", faults.ErrInvalidQuantity)
	}

	var result SaleResult
	soldAt := time.Now()
	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		before, err := findBlock(ctx, tx, blockID)
		if err != nil {
			return err
		}
		if !permit.CanWrite(operator, before.Company) {
			return fmt.Errorf("%w: %s blocks", faults.ErrPermissionDenied, before.Company)
		}
		if before.Status != models.StatusProcessing && before.Status != models.StatusInStockyard {
			return fmt.Errorf("%w: block %s is %s, area sales need %s or %s", faults.ErrInvalidTransition,
				before.JobNo, before.Status, models.StatusProcessing, models.StatusInStockyard)
		}
		requested := cents(in.SqFt)
		current := cents(before.TotalSqFt)
		if requested > current {
			return fmt.Errorf("%w: %.2f sqft requested, block %s holds %.2f", faults.ErrInvalidQuantity,
				in.SqFt, before.JobNo, before.TotalSqFt)
		}

		if requested == current {
			res, err := tx.ExecContext(ctx, `
UPDATE blocks SET
  status = ?, sold_to = ?, bill_no = ?, sold_at = ?,
  is_sent_to_resin = 0,
  updated_at = CURRENT_TIMESTAMP
WHERE id = ? AND status = ?`,
				models.StatusSold, soldTo, billNo, soldAt,
				blockID, before.Status)
			if err != nil {
				return err
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return fmt.Errorf("%w: block %s moved while selling", faults.ErrInvalidTransition, before.JobNo)
			}

			result.Block, err = findBlock(ctx, tx, blockID)
			if err != nil {
				return err
			}
			return auditSvc.Write(ctx, tx, operator, "block.sell_area", "blocks",
				strconv.FormatInt(blockID, 10), before, result.Block)
		}

		// Partial sale: the sold portion leaves as its own record.
		jobNo, err := splitJobNo(ctx, tx, before.JobNo)
		if err != nil {
			return err
		}
		ratio := in.SqFt / before.TotalSqFt
		soldCount := int64(math.Round(float64(before.SlabCount) * ratio))
		soldWeight := models.Round2(before.WeightTons * ratio)

		split := splitRecord(before, jobNo, operator)
		split.TotalSqFt = models.Round2(in.SqFt)
		split.SlabCount = soldCount
		split.WeightTons = soldWeight
		split.SoldTo = soldTo
		split.BillNo = billNo
		split.SoldAt = &soldAt
		if _, err := tx.NewInsert().Model(&split).Exec(ctx); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `
UPDATE blocks SET
  total_sqft = ?, slab_count = ?, weight_tons = ?,
  updated_at = CURRENT_TIMESTAMP
WHERE id = ? AND status = ?`,
			models.Round2(before.TotalSqFt-in.SqFt), before.SlabCount-soldCount,
			models.Round2(before.WeightTons-soldWeight),
			blockID, before.Status)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: block %s moved while selling", faults.ErrInvalidTransition, before.JobNo)
		}

		result.Block, err = findBlock(ctx, tx, blockID)
		if err != nil {
			return err
		}
		result.Split = &split
		if err := auditSvc.Write(ctx, tx, operator, "block.sell_area", "blocks",
			strconv.FormatInt(blockID, 10), before, result.Block); err != nil {
			return err
		}
		return auditSvc.Write(ctx, tx, operator, "block.sell_area_split", "blocks",
			strconv.FormatInt(split.ID, 10), nil, split)
	})
	if err != nil {
		return SaleResult{}, err
	}
	return result, nil
}

// SellByWeight sells raw tonnage out of a gantry block, before any
// slabs exist. Zero square feet on the sold record marks it as a
// weight-denominated sale. Selling part of the block splits it the
// same way area sales do.
func SellByWeight(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, operator string, blockID int64, in WeightSaleInput) (SaleResult, error) {
	soldTo := strings.TrimSpace(in.SoldTo)
	billNo := strings.TrimSpace(in.BillNo)
	if soldTo == "" || billNo == "" {
		return SaleResult{}, fmt.Errorf("%w: buyer and bill number are required", faults.ErrInvalidArgument)
	}
	if cents(in.Tons) <= 0 {
		return SaleResult{}, fmt.Errorf("%w: sale weight must be positive", faults.ErrInvalidQuantity)
	}

	var result SaleResult
	soldAt := time.Now()
	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		before, err := findBlock(ctx, tx, blockID)
		if err != nil {
			return err
		}
		if !permit.CanWrite(operator, before.Company) {
			return fmt.Errorf("%w: %s blocks", faults.ErrPermissionDenied, before.Company)
		}
		if before.Status != models.StatusGantry {
			return fmt.Errorf("%w: block %s is %s, weight sales need %s", faults.ErrInvalidTransition,
				before.JobNo, before.Status, models.StatusGantry)
		}
		requested := cents(in.Tons)
		current := cents(before.WeightTons)
		if requested > current {
			return fmt.Errorf("%w: %.2f tons requested, block %s weighs %.2f", faults.ErrInvalidQuantity,
				in.Tons, before.JobNo, before.WeightTons)
		}

		if requested == current {
			res, err := tx.ExecContext(ctx, `
UPDATE blocks SET
  status = ?, total_sqft = 0,
  sold_to = ?, bill_no = ?, sold_at = ?,
  updated_at = CURRENT_TIMESTAMP
WHERE id = ? AND status = ?`,
				models.StatusSold, soldTo, billNo, soldAt,
				blockID, models.StatusGantry)
			if err != nil {
				return err
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return fmt.Errorf("%w: block %s moved while selling", faults.ErrInvalidTransition, before.JobNo)
			}

			result.Block, err = findBlock(ctx, tx, blockID)
			if err != nil {
				return err
			}
			return auditSvc.Write(ctx, tx, operator, "block.sell_weight", "blocks",
				strconv.FormatInt(blockID, 10), before, result.Block)
		}

		jobNo, err := splitJobNo(ctx, tx, before.JobNo)
		if err != nil {
			return err
		}
		split := splitRecord(before, jobNo, operator)
		split.WeightTons = models.Round2(in.Tons)
		split.SoldTo = soldTo
		split.BillNo = billNo
		split.SoldAt = &soldAt
		if _, err := tx.NewInsert().Model(&split).Exec(ctx); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `
UPDATE blocks SET
  weight_tons = ?,
  updated_at = CURRENT_TIMESTAMP
WHERE id = ? AND status = ?`,
			models.Round2(before.WeightTons-in.Tons),
			blockID, models.StatusGantry)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: block %s moved while selling", faults.ErrInvalidTransition, before.JobNo)
		}

		result.Block, err = findBlock(ctx, tx, blockID)
		if err != nil {
			return err
		}
		result.Split = &split
		if err := auditSvc.Write(ctx, tx, operator, "block.sell_weight", "blocks",
			strconv.FormatInt(blockID, 10), before, result.Block); err != nil {
			return err
		}
		return auditSvc.Write(ctx, tx, operator, "block.sell_weight_split", "blocks",
			strconv.FormatInt(split.ID, 10), nil, split)
	})
	if err != nil {
		return SaleResult{}, err
	}
	return result, nil
}

// CorrectSale amends the commercial fields of a committed sale. This
// is the only way a sold-at date moves.
func CorrectSale(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, operator string, blockID int64, in CorrectionInput) (models.Block, error) {
	soldTo := strings.TrimSpace(in.SoldTo)
	billNo := strings.TrimSpace(in.BillNo)
	if soldTo == "" && billNo == "" && in.SoldAt == nil {
		return models.Block{}, fmt.Errorf("%w: nothing to correct", faults.ErrInvalidArgument)
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
		if before.Status != models.StatusSold {
			return fmt.Errorf("%w: block %s is %s, only sold blocks can be corrected", faults.ErrInvalidTransition,
				before.JobNo, before.Status)
		}

		if soldTo == "" {
			soldTo = before.SoldTo
		}
		if billNo == "" {
			billNo = before.BillNo
		}
		soldAt := before.SoldAt
		if in.SoldAt != nil {
			soldAt = in.SoldAt
		}

		if _, err := tx.ExecContext(ctx, `
UPDATE blocks SET
  sold_to = ?, bill_no = ?, sold_at = ?,
  updated_at = CURRENT_TIMESTAMP
WHERE id = ?`,
			soldTo, billNo, soldAt, blockID); err != nil {
			return err
		}

		after, err = findBlock(ctx, tx, blockID)
		if err != nil {
			return err
		}
		return auditSvc.Write(ctx, tx, operator, "block.sale_correction", "blocks",
			strconv.FormatInt(blockID, 10), before, after)
	})
	if err != nil {
		return models.Block{}, err
	}
	return after, nil
}
