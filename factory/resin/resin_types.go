package resin

import "time"

// Treatments are the resin line's treatment classes.
var Treatments = []string{"Resin", "GP", "CC"}

// FlagInput toggles a processing block's membership in the resin
// queue.
type FlagInput struct {
	Sent bool `json:"sent"`
}

// StartBatchInput loads a set of flagged processing blocks onto the
// resin line together. A nil Start means the line fired up now.
type StartBatchInput struct {
	BlockIDs      []int64    `json:"blockIds"`
	TreatmentType string     `json:"treatmentType"`
	Start         *time.Time `json:"start"`
}

// BatchPowerCutInput is one outage window logged against the whole
// running batch.
type BatchPowerCutInput struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// FinishBatchInput closes the running batch. A nil End means the line
// stopped now.
type FinishBatchInput struct {
	End *time.Time `json:"end"`
}

func validTreatment(t string) bool {
	for _, known := range Treatments {
		if t == known {
			return true
		}
	}
	return false
}
