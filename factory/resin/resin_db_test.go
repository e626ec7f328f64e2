package resin

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/uptrace/bun"

	"stoneyard/factory/faults"
	"stoneyard/infrastructure/audit"
	"stoneyard/infrastructure/sqlite"
	"stoneyard/models"
)

func openResinTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "resin-test.db")
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

func seedProcessingBlock(t *testing.T, db *sqlite.DB, jobNo string, flagged bool) int64 {
	t.Helper()
	stage := "Field"
	if flagged {
		stage = "Resin Plant"
	}
	block := models.Block{
		JobNo:           jobNo,
		Company:         "Galaxy Exports",
		Material:        "Black Galaxy",
		Status:          models.StatusProcessing,
		EnteredBy:       "ADMIN",
		WeightTons:      10,
		SlabCount:       20,
		TotalSqFt:       900,
		IsSentToResin:   flagged,
		ProcessingStage: stage,
	}
	err := db.WithWriteTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(&block).Exec(ctx)
		return err
	})
	if err != nil {
		t.Fatalf("seed block %s: %v", jobNo, err)
	}
	return block.ID
}

func loadBlock(t *testing.T, db *sqlite.DB, id int64) models.Block {
	t.Helper()
	var block models.Block
	err := db.WithReadTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().Model(&block).Where("b.id = ?", id).Scan(ctx)
	})
	if err != nil {
		t.Fatalf("load block %d: %v", id, err)
	}
	return block
}

func TestSetResinFlag_TogglesQueueMembership(t *testing.T) {
	db := openResinTestDB(t)
	id := seedProcessingBlock(t, db, "GR-201", false)

	block, err := SetResinFlag(context.Background(), db, audit.NewService(), "ADMIN", id, true)
	if err != nil {
		t.Fatalf("flag: %v", err)
	}
	if !block.IsSentToResin || block.ProcessingStage != "Resin Plant" {
		t.Fatalf("expected flagged block in Resin Plant stage, got %+v", block)
	}

	block, err = SetResinFlag(context.Background(), db, audit.NewService(), "ADMIN", id, false)
	if err != nil {
		t.Fatalf("unflag: %v", err)
	}
	if block.IsSentToResin || block.ProcessingStage != "Field" {
		t.Fatalf("expected unflagged block back in Field stage, got %+v", block)
	}
}

func TestSetResinFlag_ProcessingOnly(t *testing.T) {
	db := openResinTestDB(t)
	block := models.Block{
		JobNo: "GR-202", Company: "Galaxy Exports", Material: "Black Galaxy",
		Status: models.StatusGantry, EnteredBy: "ADMIN", WeightTons: 8,
	}
	err := db.WithWriteTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(&block).Exec(ctx)
		return err
	})
	if err != nil {
		t.Fatalf("seed block: %v", err)
	}

	_, err = SetResinFlag(context.Background(), db, audit.NewService(), "ADMIN", block.ID, true)
	if !errors.Is(err, faults.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for gantry block, got %v", err)
	}
}

func TestStartBatch_AllMembersShareStartAndTreatment(t *testing.T) {
	db := openResinTestDB(t)
	a := seedProcessingBlock(t, db, "GR-210", true)
	b := seedProcessingBlock(t, db, "GR-211", true)
	c := seedProcessingBlock(t, db, "GR-212", true)
	start := time.Date(2025, 11, 4, 8, 0, 0, 0, time.UTC)

	members, err := StartBatch(context.Background(), db, audit.NewService(), "ADMIN", StartBatchInput{
		BlockIDs: []int64{a, b, c, a}, TreatmentType: "GP", Start: &start,
	})
	if err != nil {
		t.Fatalf("start batch: %v", err)
	}
	if len(members) != 3 {
		t.Fatalf("expected 3 members, repeated ids collapsed, got %d", len(members))
	}
	for _, m := range members {
		if m.Status != models.StatusResining {
			t.Fatalf("expected %s Resining, got %s", m.JobNo, m.Status)
		}
		if m.ResinStartTime == nil || !m.ResinStartTime.Equal(start) {
			t.Fatalf("expected identical start time on %s, got %v", m.JobNo, m.ResinStartTime)
		}
		if m.ResinTreatmentType != "GP" {
			t.Fatalf("expected GP treatment on %s, got %q", m.JobNo, m.ResinTreatmentType)
		}
	}
}

func TestStartBatch_LineMustBeEmpty(t *testing.T) {
	db := openResinTestDB(t)
	a := seedProcessingBlock(t, db, "GR-220", true)
	b := seedProcessingBlock(t, db, "GR-221", true)

	if _, err := StartBatch(context.Background(), db, audit.NewService(), "ADMIN", StartBatchInput{
		BlockIDs: []int64{a}, TreatmentType: "Resin",
	}); err != nil {
		t.Fatalf("first batch: %v", err)
	}

	_, err := StartBatch(context.Background(), db, audit.NewService(), "ADMIN", StartBatchInput{
		BlockIDs: []int64{b}, TreatmentType: "Resin",
	})
	if !errors.Is(err, faults.ErrResinLineBusy) {
		t.Fatalf("expected ErrResinLineBusy, got %v", err)
	}
}

func TestStartBatch_MembersMustBeFlaggedProcessing(t *testing.T) {
	db := openResinTestDB(t)
	flagged := seedProcessingBlock(t, db, "GR-230", true)
	unflagged := seedProcessingBlock(t, db, "GR-231", false)

	_, err := StartBatch(context.Background(), db, audit.NewService(), "ADMIN", StartBatchInput{
		BlockIDs: []int64{flagged, unflagged}, TreatmentType: "Resin",
	})
	if !errors.Is(err, faults.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for unflagged member, got %v", err)
	}
	// One bad member stops the whole batch.
	if got := loadBlock(t, db, flagged); got.Status != models.StatusProcessing {
		t.Fatalf("expected flagged member untouched, got %s", got.Status)
	}

	_, err = StartBatch(context.Background(), db, audit.NewService(), "ADMIN", StartBatchInput{
		BlockIDs: []int64{99999}, TreatmentType: "Resin",
	})
	if !errors.Is(err, faults.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown member, got %v", err)
	}

	_, err = StartBatch(context.Background(), db, audit.NewService(), "ADMIN", StartBatchInput{
		BlockIDs: []int64{flagged}, TreatmentType: "Shellac",
	})
	if !errors.Is(err, faults.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for unknown treatment, got %v", err)
	}

	_, err = StartBatch(context.Background(), db, audit.NewService(), "ADMIN", StartBatchInput{
		BlockIDs: nil, TreatmentType: "Resin",
	})
	if !errors.Is(err, faults.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for empty batch, got %v", err)
	}
}

func TestLogBatchPowerCut_AppendsToEveryMember(t *testing.T) {
	db := openResinTestDB(t)
	at := time.Date(2025, 11, 4, 10, 0, 0, 0, time.UTC)

	_, err := LogBatchPowerCut(context.Background(), db, audit.NewService(), "ADMIN", BatchPowerCutInput{
		Start: at, End: at.Add(20 * time.Minute),
	})
	if !errors.Is(err, faults.ErrNotFound) {
		t.Fatalf("expected ErrNotFound with idle line, got %v", err)
	}

	a := seedProcessingBlock(t, db, "GR-240", true)
	b := seedProcessingBlock(t, db, "GR-241", true)
	c := seedProcessingBlock(t, db, "GR-242", true)
	if _, err := StartBatch(context.Background(), db, audit.NewService(), "ADMIN", StartBatchInput{
		BlockIDs: []int64{a, b, c}, TreatmentType: "Resin",
	}); err != nil {
		t.Fatalf("start batch: %v", err)
	}

	cuts, err := LogBatchPowerCut(context.Background(), db, audit.NewService(), "ADMIN", BatchPowerCutInput{
		Start: at, End: at.Add(20 * time.Minute),
	})
	if err != nil {
		t.Fatalf("log batch power cut: %v", err)
	}
	if len(cuts) != 3 {
		t.Fatalf("expected one copy per member, got %d", len(cuts))
	}
	for _, cut := range cuts {
		if cut.Phase != models.PhaseResin {
			t.Fatalf("expected resin phase, got %s", cut.Phase)
		}
		if got := cut.DurationMinutes(); got != 20 {
			t.Fatalf("expected 20 minute duration, got %d", got)
		}
	}

	var stored int
	err = db.WithReadTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`SELECT COUNT(*) FROM power_cuts WHERE phase = 'resin'`).Scan(ctx, &stored)
	})
	if err != nil {
		t.Fatalf("count cuts: %v", err)
	}
	if stored != 3 {
		t.Fatalf("expected 3 stored rows, got %d", stored)
	}
}

func TestUndoBatch_ReturnsMembersToQueue(t *testing.T) {
	db := openResinTestDB(t)
	a := seedProcessingBlock(t, db, "GR-250", true)
	b := seedProcessingBlock(t, db, "GR-251", true)
	at := time.Date(2025, 11, 4, 10, 0, 0, 0, time.UTC)

	if _, err := StartBatch(context.Background(), db, audit.NewService(), "ADMIN", StartBatchInput{
		BlockIDs: []int64{a, b}, TreatmentType: "CC",
	}); err != nil {
		t.Fatalf("start batch: %v", err)
	}
	if _, err := LogBatchPowerCut(context.Background(), db, audit.NewService(), "ADMIN", BatchPowerCutInput{
		Start: at, End: at.Add(5 * time.Minute),
	}); err != nil {
		t.Fatalf("log batch power cut: %v", err)
	}

	members, err := UndoBatch(context.Background(), db, audit.NewService(), "ADMIN")
	if err != nil {
		t.Fatalf("undo batch: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(members))
	}
	for _, m := range members {
		if m.Status != models.StatusProcessing {
			t.Fatalf("expected %s back in Processing, got %s", m.JobNo, m.Status)
		}
		if m.ResinStartTime != nil || m.ResinTreatmentType != "" {
			t.Fatalf("expected resin run fields cleared on %s, got %+v", m.JobNo, m)
		}
		// Undo cancels the run, not the queue membership.
		if !m.IsSentToResin {
			t.Fatalf("expected %s to stay flagged after undo", m.JobNo)
		}
	}

	var remaining int
	err = db.WithReadTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`SELECT COUNT(*) FROM power_cuts WHERE phase = 'resin'`).Scan(ctx, &remaining)
	})
	if err != nil {
		t.Fatalf("count cuts: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("expected resin outages deleted on undo, got %d", remaining)
	}

	// The queue is intact, so the batch can start again.
	if _, err := StartBatch(context.Background(), db, audit.NewService(), "ADMIN", StartBatchInput{
		BlockIDs: []int64{a, b}, TreatmentType: "Resin",
	}); err != nil {
		t.Fatalf("restart batch: %v", err)
	}
}

func TestFinishBatch_CompletesAllMembers(t *testing.T) {
	db := openResinTestDB(t)
	a := seedProcessingBlock(t, db, "GR-260", true)
	b := seedProcessingBlock(t, db, "GR-261", true)
	start := time.Date(2025, 11, 4, 8, 0, 0, 0, time.UTC)
	end := time.Date(2025, 11, 4, 14, 30, 0, 0, time.UTC)
	at := start.Add(time.Hour)

	if _, err := StartBatch(context.Background(), db, audit.NewService(), "ADMIN", StartBatchInput{
		BlockIDs: []int64{a, b}, TreatmentType: "Resin", Start: &start,
	}); err != nil {
		t.Fatalf("start batch: %v", err)
	}
	if _, err := LogBatchPowerCut(context.Background(), db, audit.NewService(), "ADMIN", BatchPowerCutInput{
		Start: at, End: at.Add(10 * time.Minute),
	}); err != nil {
		t.Fatalf("log batch power cut: %v", err)
	}

	members, err := FinishBatch(context.Background(), db, audit.NewService(), "ADMIN", FinishBatchInput{End: &end})
	if err != nil {
		t.Fatalf("finish batch: %v", err)
	}
	for _, m := range members {
		if m.Status != models.StatusCompleted {
			t.Fatalf("expected %s Completed, got %s", m.JobNo, m.Status)
		}
		if m.ResinEndTime == nil || !m.ResinEndTime.Equal(end) {
			t.Fatalf("expected identical end time on %s, got %v", m.JobNo, m.ResinEndTime)
		}
		if m.IsSentToResin {
			t.Fatalf("expected flag cleared on %s after finish", m.JobNo)
		}
	}

	// Finishing keeps the outage log as treatment history.
	var kept int
	err = db.WithReadTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`SELECT COUNT(*) FROM power_cuts WHERE phase = 'resin'`).Scan(ctx, &kept)
	})
	if err != nil {
		t.Fatalf("count cuts: %v", err)
	}
	if kept != 2 {
		t.Fatalf("expected outage history kept after finish, got %d", kept)
	}
}

func TestFinishBatch_EndMustFollowStart(t *testing.T) {
	db := openResinTestDB(t)
	a := seedProcessingBlock(t, db, "GR-270", true)
	start := time.Date(2025, 11, 4, 8, 0, 0, 0, time.UTC)
	tooEarly := start.Add(-time.Hour)

	if _, err := StartBatch(context.Background(), db, audit.NewService(), "ADMIN", StartBatchInput{
		BlockIDs: []int64{a}, TreatmentType: "Resin", Start: &start,
	}); err != nil {
		t.Fatalf("start batch: %v", err)
	}

	_, err := FinishBatch(context.Background(), db, audit.NewService(), "ADMIN", FinishBatchInput{End: &tooEarly})
	if !errors.Is(err, faults.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for end before start, got %v", err)
	}
	if got := loadBlock(t, db, a); got.Status != models.StatusResining {
		t.Fatalf("expected member still Resining after failed finish, got %s", got.Status)
	}
}

func TestBatchOps_PermissionCoversEveryMember(t *testing.T) {
	db := openResinTestDB(t)
	mine := seedProcessingBlock(t, db, "GR-280", true)

	foreign := models.Block{
		JobNo: "OT-280", Company: "Other Exports", Material: "Tan Brown",
		Status: models.StatusProcessing, EnteredBy: "ADMIN", WeightTons: 6,
		IsSentToResin: true, ProcessingStage: "Resin Plant",
	}
	err := db.WithWriteTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(&foreign).Exec(ctx)
		return err
	})
	if err != nil {
		t.Fatalf("seed foreign block: %v", err)
	}

	_, err = StartBatch(context.Background(), db, audit.NewService(), "GALAXYEXPORTS", StartBatchInput{
		BlockIDs: []int64{mine, foreign.ID}, TreatmentType: "Resin",
	})
	if !errors.Is(err, faults.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied for mixed-company batch, got %v", err)
	}
	if got := loadBlock(t, db, mine); got.Status != models.StatusProcessing {
		t.Fatalf("expected own block untouched, got %s", got.Status)
	}
}
