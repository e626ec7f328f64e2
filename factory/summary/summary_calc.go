// Package summary computes the dashboard aggregates. Everything here
// is a pure function of the block collection, recomputed on demand;
// nothing is maintained incrementally, so the numbers cannot drift
// from the rows.
package summary

import (
	"stoneyard/models"
)

// StatusLine aggregates one lifecycle status.
type StatusLine struct {
	Status     models.Status `json:"status"`
	Count      int           `json:"count"`
	WeightTons float64       `json:"weightTons"`
	TotalSqFt  float64       `json:"totalSqFt"`
}

// Summary is the factory dashboard: totals, per-status lines in
// pipeline order, and the stage queues the floor watches.
type Summary struct {
	TotalBlocks     int          `json:"totalBlocks"`
	TotalWeightTons float64      `json:"totalWeightTons"`
	TotalSqFt       float64      `json:"totalSqFt"`
	Recovery        float64      `json:"recovery"`
	ByStatus        []StatusLine `json:"byStatus"`

	GantryQueue int `json:"gantryQueue"`
	OnMachines  int `json:"onMachines"`
	ResinQueue  int `json:"resinQueue"`
	OnResinLine int `json:"onResinLine"`
	InYard      int `json:"inYard"`
}

// Compute aggregates the collection. Order-independent: any
// permutation of blocks yields the identical summary.
func Compute(blocks []models.Block) Summary {
	byStatus := make(map[models.Status]*StatusLine, 8)
	for _, status := range models.AllStatuses() {
		byStatus[status] = &StatusLine{Status: status}
	}

	s := Summary{}
	for _, block := range blocks {
		s.TotalBlocks++
		s.TotalWeightTons += block.WeightTons
		s.TotalSqFt += block.TotalSqFt

		if line, ok := byStatus[block.Status]; ok {
			line.Count++
			line.WeightTons += block.WeightTons
			line.TotalSqFt += block.TotalSqFt
		}

		switch block.Status {
		case models.StatusGantry:
			s.GantryQueue++
		case models.StatusCutting:
			s.OnMachines++
		case models.StatusProcessing:
			if block.IsSentToResin {
				s.ResinQueue++
			}
		case models.StatusResining:
			s.OnResinLine++
		case models.StatusInStockyard:
			s.InYard++
		}
	}

	s.TotalWeightTons = models.Round2(s.TotalWeightTons)
	s.TotalSqFt = models.Round2(s.TotalSqFt)
	if s.TotalWeightTons > 0 {
		s.Recovery = models.Round2(s.TotalSqFt / s.TotalWeightTons)
	}

	s.ByStatus = make([]StatusLine, 0, len(byStatus))
	for _, status := range models.AllStatuses() {
		line := byStatus[status]
		line.WeightTons = models.Round2(line.WeightTons)
		line.TotalSqFt = models.Round2(line.TotalSqFt)
		s.ByStatus = append(s.ByStatus, *line)
	}
	return s
}
