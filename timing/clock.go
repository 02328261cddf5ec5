package timing

import "github.com/sarchlab/akita/v4/sim"

// CyclesAt converts a cycle count to simulated wall-clock time at the
// given clock frequency, e.g. CyclesAt(schedule.TotalCycles, 1*sim.GHz).
func CyclesAt(cycles int64, freq sim.Freq) sim.VTimeInSec {
	return sim.VTimeInSec(float64(cycles) / float64(freq))
}
