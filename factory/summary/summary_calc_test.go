package summary

import (
	"reflect"
	"testing"

	"stoneyard/models"
)

func fixture() []models.Block {
	return []models.Block{
		{JobNo: "A-1", Status: models.StatusGantry, WeightTons: 10},
		{JobNo: "A-2", Status: models.StatusGantry, WeightTons: 8.5},
		{JobNo: "A-3", Status: models.StatusCutting, WeightTons: 12},
		{JobNo: "A-4", Status: models.StatusProcessing, WeightTons: 10, TotalSqFt: 250, IsSentToResin: true},
		{JobNo: "A-5", Status: models.StatusProcessing, WeightTons: 9, TotalSqFt: 200},
		{JobNo: "A-6", Status: models.StatusResining, WeightTons: 11, TotalSqFt: 280, IsSentToResin: true},
		{JobNo: "A-7", Status: models.StatusInStockyard, WeightTons: 7, TotalSqFt: 180},
		{JobNo: "A-8", Status: models.StatusSold, WeightTons: 5, TotalSqFt: 0},
	}
}

func TestCompute_Aggregates(t *testing.T) {
	s := Compute(fixture())

	if s.TotalBlocks != 8 {
		t.Fatalf("expected 8 blocks, got %d", s.TotalBlocks)
	}
	if s.TotalWeightTons != 72.5 {
		t.Fatalf("expected 72.5 tons, got %v", s.TotalWeightTons)
	}
	if s.TotalSqFt != 910 {
		t.Fatalf("expected 910 sqft, got %v", s.TotalSqFt)
	}
	if s.Recovery != 12.55 {
		t.Fatalf("expected recovery 12.55, got %v", s.Recovery)
	}

	if s.GantryQueue != 2 || s.OnMachines != 1 || s.OnResinLine != 1 || s.InYard != 1 {
		t.Fatalf("unexpected queues: %+v", s)
	}
	// Only the flagged processing block queues for resin.
	if s.ResinQueue != 1 {
		t.Fatalf("expected resin queue 1, got %d", s.ResinQueue)
	}
}

func TestCompute_ByStatusInPipelineOrder(t *testing.T) {
	s := Compute(fixture())

	if len(s.ByStatus) != 8 {
		t.Fatalf("expected a line per status, got %d", len(s.ByStatus))
	}
	order := make([]models.Status, 0, len(s.ByStatus))
	for _, line := range s.ByStatus {
		order = append(order, line.Status)
	}
	if !reflect.DeepEqual(order, models.AllStatuses()) {
		t.Fatalf("expected pipeline order, got %v", order)
	}

	for _, line := range s.ByStatus {
		switch line.Status {
		case models.StatusGantry:
			if line.Count != 2 || line.WeightTons != 18.5 {
				t.Fatalf("unexpected gantry line: %+v", line)
			}
		case models.StatusProcessing:
			if line.Count != 2 || line.TotalSqFt != 450 {
				t.Fatalf("unexpected processing line: %+v", line)
			}
		case models.StatusPurchased:
			if line.Count != 0 {
				t.Fatalf("expected empty purchased line, got %+v", line)
			}
		}
	}
}

func TestCompute_OrderIndependentAndPure(t *testing.T) {
	blocks := fixture()
	first := Compute(blocks)

	reversed := make([]models.Block, 0, len(blocks))
	for i := len(blocks) - 1; i >= 0; i-- {
		reversed = append(reversed, blocks[i])
	}
	second := Compute(reversed)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("summary depends on input order:\n%+v\n%+v", first, second)
	}

	// Same input, same output; no hidden state between calls.
	if again := Compute(blocks); !reflect.DeepEqual(first, again) {
		t.Fatalf("summary not pure:\n%+v\n%+v", first, again)
	}
}

func TestCompute_ZeroWeightReportsZeroRecovery(t *testing.T) {
	s := Compute([]models.Block{
		{JobNo: "Z-1", Status: models.StatusProcessing, WeightTons: 0, TotalSqFt: 100},
	})
	if s.Recovery != 0 {
		t.Fatalf("expected recovery 0.00 on zero weight, got %v", s.Recovery)
	}

	if empty := Compute(nil); empty.TotalBlocks != 0 || empty.Recovery != 0 {
		t.Fatalf("expected zero summary for empty collection, got %+v", empty)
	}
}
