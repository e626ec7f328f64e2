package summary

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/uptrace/bun"

	"stoneyard/infrastructure/sqlite"
	"stoneyard/models"
)

func openSummaryTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "summary-test.db")
	db, err := sqlite.OpenDB(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := sqlite.ApplyMigrations(context.Background(), db); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return db
}

func TestBuildSummary_FiltersCollection(t *testing.T) {
	db := openSummaryTestDB(t)
	blocks := []models.Block{
		{JobNo: "G-1", Company: "Galaxy Exports", Material: "Black Galaxy", Status: models.StatusGantry, EnteredBy: "ADMIN", WeightTons: 10},
		{JobNo: "G-2", Company: "Galaxy Exports", Material: "Black Galaxy", Status: models.StatusProcessing, EnteredBy: "ADMIN", WeightTons: 8, TotalSqFt: 160},
		{JobNo: "R-1", Company: "Ravi Stones", Material: "Tan Brown", Status: models.StatusGantry, EnteredBy: "ADMIN", WeightTons: 6},
	}
	err := db.WithWriteTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		for i := range blocks {
			if _, err := tx.NewInsert().Model(&blocks[i]).Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	all, err := BuildSummary(context.Background(), db, Filter{})
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if all.TotalBlocks != 3 {
		t.Fatalf("expected 3 blocks, got %d", all.TotalBlocks)
	}

	galaxy, err := BuildSummary(context.Background(), db, Filter{Company: "galaxy exports"})
	if err != nil {
		t.Fatalf("filtered summary: %v", err)
	}
	if galaxy.TotalBlocks != 2 || galaxy.TotalWeightTons != 18 {
		t.Fatalf("expected the two Galaxy blocks, got %+v", galaxy)
	}

	tan, err := BuildSummary(context.Background(), db, Filter{Material: "Tan Brown"})
	if err != nil {
		t.Fatalf("material summary: %v", err)
	}
	if tan.TotalBlocks != 1 || tan.GantryQueue != 1 {
		t.Fatalf("expected the Tan Brown block, got %+v", tan)
	}
}
