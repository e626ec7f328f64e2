package cutting

import "time"

// PreCuttingProcesses are the surface preparations a block can get
// before it goes on the saw.
var PreCuttingProcesses = []string{"None", "TENNAX", "VACCUM"}

// StartInput puts a gantry block onto a cutting machine. A nil Start
// means the saw spins up now.
type StartInput struct {
	MachineID         string     `json:"machineId"`
	Thickness         string     `json:"thickness"`
	PreCuttingProcess string     `json:"preCuttingProcess"`
	Start             *time.Time `json:"start"`
}

// PowerCutInput is one mains outage window. The end may lie in the
// future when the outage is still running; displays clamp, storage
// does not.
type PowerCutInput struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// FinishInput closes the cutting run with the measured slab output.
// A nil End means the saw stopped now.
type FinishInput struct {
	End          *time.Time `json:"end"`
	SlabLengthIn float64    `json:"slabLengthIn"`
	SlabWidthIn  float64    `json:"slabWidthIn"`
	SlabCount    int64      `json:"slabCount"`
	TotalSqFt    float64    `json:"totalSqFt"`
}

func validPreCuttingProcess(p string) bool {
	for _, known := range PreCuttingProcesses {
		if p == known {
			return true
		}
	}
	return false
}
