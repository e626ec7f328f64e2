package exports

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/uptrace/bun"

	"stoneyard/infrastructure/sqlite"
)

func writeBlocksCSV(ctx context.Context, db *sqlite.DB, w io.Writer, status string) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	header := []string{
		"job_no", "company", "material", "mines_marka", "status",
		"weight_tons", "slab_count", "total_sqft", "recovery",
		"assigned_machine", "cut_by_machine", "thickness", "treatment",
		"stockyard_location", "sold_to", "bill_no", "sold_at",
		"arrival_date", "created_at",
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	type row struct {
		JobNo           string  `bun:"job_no"`
		Company         string  `bun:"company"`
		Material        string  `bun:"material"`
		MinesMark       string  `bun:"mines_marka"`
		Status          string  `bun:"status"`
		WeightTons      float64 `bun:"weight_tons"`
		SlabCount       int64   `bun:"slab_count"`
		TotalSqFt       float64 `bun:"total_sqft"`
		Recovery        float64 `bun:"recovery"`
		AssignedMachine string  `bun:"assigned_machine"`
		CutByMachine    string  `bun:"cut_by_machine"`
		Thickness       string  `bun:"thickness"`
		Treatment       string  `bun:"resin_treatment_type"`
		Location        string  `bun:"stockyard_location"`
		SoldTo          string  `bun:"sold_to"`
		BillNo          string  `bun:"bill_no"`
		SoldAt          string  `bun:"sold_at"`
		ArrivalDate     string  `bun:"arrival_date"`
		CreatedAt       string  `bun:"created_at"`
	}

	rows := make([]row, 0)
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		q := `
SELECT job_no, company, material, mines_marka, status,
       weight_tons, slab_count, total_sqft,
       CASE WHEN weight_tons > 0 THEN ROUND(total_sqft / weight_tons, 2) ELSE 0 END AS recovery,
       assigned_machine, cut_by_machine, thickness, resin_treatment_type,
       stockyard_location, sold_to, bill_no,
       COALESCE(strftime('%d/%m/%Y %H:%M', sold_at), '') AS sold_at,
       COALESCE(strftime('%d/%m/%Y %H:%M', arrival_date), '') AS arrival_date,
       strftime('%d/%m/%Y %H:%M', created_at) AS created_at
FROM blocks`
		args := make([]any, 0)
		if status != "" {
			q += " WHERE status = ?"
			args = append(args, status)
		}
		q += " ORDER BY blocks.created_at DESC, blocks.id DESC"
		return tx.NewRaw(q, args...).Scan(ctx, &rows)
	})
	if err != nil {
		return err
	}

	for _, r := range rows {
		record := []string{
			r.JobNo,
			r.Company,
			r.Material,
			r.MinesMark,
			r.Status,
			formatFloat(r.WeightTons),
			formatInt(r.SlabCount),
			formatFloat(r.TotalSqFt),
			formatFloat(r.Recovery),
			r.AssignedMachine,
			r.CutByMachine,
			r.Thickness,
			r.Treatment,
			r.Location,
			r.SoldTo,
			r.BillNo,
			r.SoldAt,
			r.ArrivalDate,
			r.CreatedAt,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	return writer.Error()
}

func writePowerCutsCSV(ctx context.Context, db *sqlite.DB, w io.Writer) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	header := []string{"job_no", "phase", "start", "end", "duration_minutes"}
	if err := writer.Write(header); err != nil {
		return err
	}

	type row struct {
		JobNo           string `bun:"job_no"`
		Phase           string `bun:"phase"`
		StartAt         string `bun:"start_at"`
		EndAt           string `bun:"end_at"`
		DurationMinutes int64  `bun:"duration_minutes"`
	}

	rows := make([]row, 0)
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		q := `
SELECT b.job_no, pc.phase,
       strftime('%d/%m/%Y %H:%M', pc.start_at) AS start_at,
       strftime('%d/%m/%Y %H:%M', pc.end_at) AS end_at,
       CAST(ROUND((julianday(pc.end_at) - julianday(pc.start_at)) * 1440) AS INTEGER) AS duration_minutes
FROM power_cuts pc
JOIN blocks b ON b.id = pc.block_id
ORDER BY pc.start_at ASC, pc.id ASC`
		return tx.NewRaw(q).Scan(ctx, &rows)
	})
	if err != nil {
		return err
	}

	for _, r := range rows {
		record := []string{r.JobNo, r.Phase, r.StartAt, r.EndAt, formatInt(r.DurationMinutes)}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	return writer.Error()
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
