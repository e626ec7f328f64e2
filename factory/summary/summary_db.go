package summary

import (
	"context"
	"strings"

	"github.com/uptrace/bun"

	"stoneyard/infrastructure/sqlite"
	"stoneyard/models"
)

// Filter narrows the summarized collection. Empty fields match
// everything.
type Filter struct {
	Company  string
	Material string
}

// BuildSummary fetches the (optionally filtered) collection and
// aggregates it.
func BuildSummary(ctx context.Context, db *sqlite.DB, filter Filter) (Summary, error) {
	rows := make([]models.Block, 0)
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		q := tx.NewSelect().Model(&rows)
		if filter.Company != "" {
			q = q.Where("LOWER(b.company) = ?", strings.ToLower(filter.Company))
		}
		if filter.Material != "" {
			q = q.Where("LOWER(b.material) = ?", strings.ToLower(filter.Material))
		}
		return q.Scan(ctx)
	})
	if err != nil {
		return Summary{}, err
	}
	return Compute(rows), nil
}
