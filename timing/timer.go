// Package timing provides the self-profiling instrumentation for the
// scheduling pipeline: a named-stage nanosecond timer, latency reports,
// and cycle-to-wall-clock conversion.
package timing

import "time"

// PerformanceTimer accumulates named-stage durations across repeated
// Start/End pairs. An End without a matching Start is a no-op.
//
// The timer is NOT safe for concurrent use. Sharing one instance across
// concurrently running scheduler invocations interleaves stage timings
// incorrectly; use one timer per scheduling run, or lock externally.
type PerformanceTimer struct {
	startTimes map[string]time.Time
	durations  map[string][]time.Duration
}

// NewPerformanceTimer returns an empty timer.
func NewPerformanceTimer() *PerformanceTimer {
	return &PerformanceTimer{
		startTimes: make(map[string]time.Time),
		durations:  make(map[string][]time.Duration),
	}
}

// Start begins timing the named stage.
func (t *PerformanceTimer) Start(stage string) {
	t.startTimes[stage] = time.Now()
}

// End finishes timing the named stage and records the duration.
func (t *PerformanceTimer) End(stage string) {
	start, ok := t.startTimes[stage]
	if !ok {
		return
	}
	t.durations[stage] = append(t.durations[stage], time.Since(start))
	delete(t.startTimes, stage)
}

// LastDuration returns the most recent duration for the stage in
// nanoseconds, or 0.
func (t *PerformanceTimer) LastDuration(stage string) int64 {
	ds := t.durations[stage]
	if len(ds) == 0 {
		return 0
	}
	return ds[len(ds)-1].Nanoseconds()
}

// AverageDuration returns the mean duration for the stage in
// nanoseconds, or 0.
func (t *PerformanceTimer) AverageDuration(stage string) float64 {
	ds := t.durations[stage]
	if len(ds) == 0 {
		return 0
	}
	var total int64
	for _, d := range ds {
		total += d.Nanoseconds()
	}
	return float64(total) / float64(len(ds))
}

// TotalDuration returns the sum of all measurements for the stage in
// nanoseconds.
func (t *PerformanceTimer) TotalDuration(stage string) int64 {
	var total int64
	for _, d := range t.durations[stage] {
		total += d.Nanoseconds()
	}
	return total
}

// MeasurementCount returns the number of recorded measurements for the
// stage.
func (t *PerformanceTimer) MeasurementCount(stage string) int {
	return len(t.durations[stage])
}

// StageNames returns every stage that has recorded measurements.
func (t *PerformanceTimer) StageNames() []string {
	names := make([]string, 0, len(t.durations))
	for name := range t.durations {
		names = append(names, name)
	}
	return names
}

// Clear wipes all timing data.
func (t *PerformanceTimer) Clear() {
	t.startTimes = make(map[string]time.Time)
	t.durations = make(map[string][]time.Duration)
}

// Reset wipes timing data for one stage.
func (t *PerformanceTimer) Reset(stage string) {
	delete(t.startTimes, stage)
	delete(t.durations, stage)
}

// StatsFor assembles the latency statistics for one stage.
func (t *PerformanceTimer) StatsFor(stage string) LatencyStats {
	return LatencyStats{
		TotalNS:   t.TotalDuration(stage),
		AverageNS: t.AverageDuration(stage),
		LastNS:    t.LastDuration(stage),
		Count:     t.MeasurementCount(stage),
	}
}
