package labels

import (
	"testing"
	"time"
)

func TestRenderBlockLabelPDF_GeneratesPDF(t *testing.T) {
	t.Parallel()

	arrival := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	pdf, err := renderBlockLabelPDF(BlockLabelData{
		BlockID:     1,
		JobNo:       "GR-101",
		Company:     "Galaxy Exports",
		Material:    "Black Galaxy",
		MinesMark:   "MK-7",
		Status:      "Cutting",
		Thickness:   "16mm",
		Machine:     "GS-1",
		WeightTons:  12.5,
		SlabCount:   40,
		TotalSqFt:   1500,
		ArrivalDate: &arrival,
	}, time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("renderBlockLabelPDF returned error: %v", err)
	}
	if len(pdf) == 0 {
		t.Fatalf("expected non-empty pdf bytes")
	}
}

func TestRenderBlockLabelsPDF_CombinesJobCards(t *testing.T) {
	t.Parallel()

	pdf, err := renderBlockLabelsPDF([]BlockLabelData{
		{BlockID: 10, JobNo: "GR-110", Company: "Galaxy Exports", Material: "Black Galaxy", Status: "Gantry"},
		{BlockID: 11, JobNo: "GR-111", Company: "Galaxy Exports", Material: "Black Galaxy", Status: "Processing"},
	}, time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("renderBlockLabelsPDF returned error: %v", err)
	}
	if len(pdf) == 0 {
		t.Fatalf("expected non-empty pdf bytes")
	}
}

func TestRenderBlockLabelsPDF_RejectsEmptyInput(t *testing.T) {
	t.Parallel()

	if _, err := renderBlockLabelsPDF(nil, time.Now()); err == nil {
		t.Fatal("expected error for empty label list")
	}
	if _, err := renderBlockLabelsPDF([]BlockLabelData{{BlockID: 5}}, time.Now()); err == nil {
		t.Fatal("expected error for label without job number")
	}
}
