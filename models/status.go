package models

import "fmt"

// Status is a block's position in the factory lifecycle. Values are
// stored verbatim in the blocks table, so renaming one is a migration.
type Status string

const (
	// StatusPurchased means bought at the quarry, not yet on site.
	StatusPurchased Status = "Purchased"
	// StatusGantry means the raw block is in the gantry staging area.
	StatusGantry Status = "Gantry"
	// StatusCutting means the block occupies a cutting machine.
	StatusCutting Status = "Cutting"
	// StatusProcessing means cut slabs are in post-cut processing.
	StatusProcessing Status = "Processing"
	// StatusResining means the slabs are on the resin treatment line.
	StatusResining Status = "Resining"
	// StatusCompleted means all factory work is finished.
	StatusCompleted Status = "Completed"
	// StatusInStockyard means finished slabs are racked for sale.
	StatusInStockyard Status = "InStockyard"
	// StatusSold is terminal.
	StatusSold Status = "Sold"
)

// statusOrder is the canonical pipeline order used by summaries and
// exports so rows group the way the factory floor reads them.
var statusOrder = []Status{
	StatusPurchased,
	StatusGantry,
	StatusCutting,
	StatusProcessing,
	StatusResining,
	StatusCompleted,
	StatusInStockyard,
	StatusSold,
}

// transitions holds every legal lifecycle edge, including the undo
// edges (Cutting back to Gantry, Resining back to Processing). Sold is
// terminal and has no outgoing edges.
var transitions = map[Status][]Status{
	StatusPurchased:   {StatusGantry},
	StatusGantry:      {StatusCutting, StatusSold},
	StatusCutting:     {StatusGantry, StatusProcessing},
	StatusProcessing:  {StatusResining, StatusCompleted, StatusSold},
	StatusResining:    {StatusProcessing, StatusCompleted},
	StatusCompleted:   {StatusInStockyard},
	StatusInStockyard: {StatusSold},
	StatusSold:        {},
}

// AllStatuses returns the lifecycle statuses in pipeline order.
func AllStatuses() []Status {
	out := make([]Status, len(statusOrder))
	copy(out, statusOrder)
	return out
}

// NewStatus parses a stored or user-supplied status string.
func NewStatus(value string) (Status, error) {
	s := Status(value)
	if !s.Valid() {
		return "", fmt.Errorf("unknown block status: %q", value)
	}
	return s, nil
}

// Valid reports whether s is one of the known lifecycle statuses.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s Status) String() string {
	return string(s)
}

// CanTransition reports whether the lifecycle allows moving a block
// from one status to another. It answers for the edge only; callers
// still enforce the edge's own preconditions (required fields, machine
// availability, resin flag).
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
