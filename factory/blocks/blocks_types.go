package blocks

import "stoneyard/models"

// ListFilter narrows the block collection. Empty fields match
// everything; Search looks through job number, marka, company and
// material.
type ListFilter struct {
	Status   string
	Company  string
	Material string
	Search   string
}

// BlockView is a block row plus the numbers the floor reads off it:
// recovery, and for blocks currently on a machine or on the resin
// line, net elapsed minutes as of now.
type BlockView struct {
	models.Block

	Recovery          float64 `json:"recovery"`
	NetElapsedMinutes *int64  `json:"netElapsedMinutes,omitempty"`
}

// PowerCutView is an outage window plus its derived duration.
type PowerCutView struct {
	models.PowerCut

	DurationMinutes int64 `json:"durationMinutes"`
}

// BlockDetail is one block with its full outage log.
type BlockDetail struct {
	BlockView

	PowerCuts []PowerCutView `json:"powerCuts"`
}
