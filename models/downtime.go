package models

import (
	"math"
	"time"
)

// DurationMinutes is the outage length in whole minutes, rounded to
// the nearest minute. A window logged backwards reports zero.
func (pc PowerCut) DurationMinutes() int64 {
	mins := int64(math.Round(pc.EndAt.Sub(pc.StartAt).Minutes()))
	if mins < 0 {
		return 0
	}
	return mins
}

// SumDowntimeMinutes totals the rounded durations of the given cuts.
func SumDowntimeMinutes(cuts []PowerCut) int64 {
	var total int64
	for _, pc := range cuts {
		total += pc.DurationMinutes()
	}
	return total
}

// NetElapsedMinutes is the working time between start and end with the
// given outage windows subtracted, in whole minutes. For a stage still
// running, pass the current time as end. The result never goes
// negative: an outage logged past "now" would otherwise outweigh the
// wall-clock elapsed.
func NetElapsedMinutes(start, end time.Time, cuts []PowerCut) int64 {
	gross := int64(math.Round(end.Sub(start).Minutes()))
	net := gross - SumDowntimeMinutes(cuts)
	if net < 0 {
		return 0
	}
	return net
}

// Round2 rounds to two decimal places, the precision every area and
// weight figure is recorded at.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
