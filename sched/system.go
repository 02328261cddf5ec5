package sched

import (
	"container/heap"
	"log/slog"
	"math"

	"github.com/sarchlab/rendersim/ir"
	"github.com/sarchlab/rendersim/timing"
)

// DAGSConfig weights the two DAGS heuristics: alpha scales the successor
// count, beta scales the critical resource impact.
type DAGSConfig struct {
	Alpha float64
	Beta  float64
}

// DefaultDAGSConfig returns the validated default weights.
func DefaultDAGSConfig() DAGSConfig {
	return DAGSConfig{Alpha: 0.6, Beta: 0.4}
}

// SystemSchedulingStats describes the last system-level run.
type SystemSchedulingStats struct {
	TotalOperators        int
	ReadyQueuePeakSize    int
	SchedulingEfficiency  float64
	ResourceBalanceFactor float64
	HWUnitUtilizations    map[string]float64
}

// SystemLevelScheduler produces the final global timeline with a
// dependency-aware greedy list scheduler. Ready operators are picked by
// descending DAGS score; each pick starts at the later of its unit's
// availability and its latest predecessor finish.
type SystemLevelScheduler struct {
	config DAGSConfig
	timer  *timing.PerformanceTimer

	instrumentation bool
	lastStats       SystemSchedulingStats
}

// NewSystemLevelScheduler creates a scheduler with the given DAGS
// weights. Latency instrumentation is enabled by default.
func NewSystemLevelScheduler(config DAGSConfig) *SystemLevelScheduler {
	return &SystemLevelScheduler{
		config:          config,
		timer:           timing.NewPerformanceTimer(),
		instrumentation: true,
	}
}

// UseTimer replaces the scheduler's timer. One timer per scheduling run.
func (s *SystemLevelScheduler) UseTimer(t *timing.PerformanceTimer) {
	s.timer = t
}

// Timer returns the scheduler's timer.
func (s *SystemLevelScheduler) Timer() *timing.PerformanceTimer {
	return s.timer
}

// SetLatencyInstrumentation toggles stage timing.
func (s *SystemLevelScheduler) SetLatencyInstrumentation(enabled bool) {
	s.instrumentation = enabled
}

// ClearLatencyMeasurements wipes all recorded stage timings.
func (s *SystemLevelScheduler) ClearLatencyMeasurements() {
	s.timer.Clear()
}

// UpdateConfig replaces the DAGS weights for subsequent runs.
func (s *SystemLevelScheduler) UpdateConfig(config DAGSConfig) {
	s.config = config
}

// LastStats returns statistics about the most recent Schedule call.
func (s *SystemLevelScheduler) LastStats() SystemSchedulingStats {
	return s.lastStats
}

// LatencyReport returns the system-level stage latencies.
func (s *SystemLevelScheduler) LatencyReport() timing.SchedulingLatencyReport {
	return timing.SchedulingLatencyReport{
		SystemDependencyGraph:      s.timer.StatsFor("system_dependency_graph"),
		SystemHeuristicComputation: s.timer.StatsFor("system_heuristic_computation"),
		SystemSchedulingLoop:       s.timer.StatsFor("system_scheduling_loop"),
		SystemFinalization:         s.timer.StatsFor("system_finalization"),
		SystemTotal:                s.timer.StatsFor("system_total"),
	}
}

func (s *SystemLevelScheduler) stageStart(name string) {
	if s.instrumentation {
		s.timer.Start(name)
	}
}

func (s *SystemLevelScheduler) stageEnd(name string) {
	if s.instrumentation {
		s.timer.End(name)
	}
}

// Schedule runs DAGS over an operator-scheduled IR.
func (s *SystemLevelScheduler) Schedule(in *ir.OperatorScheduledIR) *ir.SystemSchedule {
	return s.scheduleFrom(in, 0)
}

// scheduleFrom is Schedule with every hardware unit initially available
// at baseCycle; the training scheduler uses a nonzero base for the
// backward phase.
func (s *SystemLevelScheduler) scheduleFrom(in *ir.OperatorScheduledIR, baseCycle int64) *ir.SystemSchedule {
	s.stageStart("system_total")
	defer s.stageEnd("system_total")

	result := ir.NewSystemSchedule()
	s.lastStats = SystemSchedulingStats{
		TotalOperators:     len(in.Nodes),
		HWUnitUtilizations: make(map[string]float64),
	}

	if len(in.Nodes) == 0 {
		return result
	}

	// Stage 1: dependency graph, dropping edges with unknown endpoints.
	s.stageStart("system_dependency_graph")
	dependencies := make(map[string][]string)
	for _, e := range in.Edges {
		if in.Nodes[e.Src] == nil || in.Nodes[e.Dst] == nil {
			continue
		}
		dependencies[e.Dst] = append(dependencies[e.Dst], e.Src)
	}
	s.stageEnd("system_dependency_graph")

	// Stage 2: heuristics.
	s.stageStart("system_heuristic_computation")
	successors := make(map[string][]string)
	for target, sources := range dependencies {
		for _, source := range sources {
			successors[source] = append(successors[source], target)
		}
	}
	successorCounts := computeSuccessorCounts(in.Nodes, successors)
	criticalImpacts := computeCriticalResourceImpact(in.Nodes)
	score := func(id string) float64 {
		return s.config.Alpha*float64(successorCounts[id]) +
			s.config.Beta*criticalImpacts[id]
	}
	s.stageEnd("system_heuristic_computation")

	remainingPreds := make(map[string]int, len(in.Nodes))
	for id := range in.Nodes {
		remainingPreds[id] = len(dependencies[id])
	}

	hwFinish := make(map[string]int64)
	opFinish := make(map[string]int64)
	scheduled := make(map[string]bool)
	enqueued := make(map[string]bool)

	queue := &readyQueue{}
	heap.Init(queue)
	for _, id := range sortedNodeIDs(in.Nodes) {
		if remainingPreds[id] == 0 {
			queue.push(score(id), id)
			enqueued[id] = true
		}
	}

	// Stage 3: main greedy loop.
	s.stageStart("system_scheduling_loop")
	peakQueueSize := queue.Len()
	for queue.Len() > 0 {
		selected := queue.pop()
		if scheduled[selected] {
			// Stale queue entry.
			continue
		}
		node := in.Nodes[selected]

		hwAvailable := baseCycle
		if finish, ok := hwFinish[node.MappedNode.HWUnit]; ok {
			hwAvailable = finish
		}
		depAvailable := int64(0)
		for _, depID := range dependencies[selected] {
			if finish, ok := opFinish[depID]; ok && finish > depAvailable {
				depAvailable = finish
			}
		}

		startTime := hwAvailable
		if depAvailable > startTime {
			startTime = depAvailable
		}
		finishTime := startTime + int64(node.Duration)

		result.Entries = append(result.Entries, ir.SystemScheduleEntry{
			OpID:                selected,
			HWUnit:              node.MappedNode.HWUnit,
			StartCycle:          startTime,
			Duration:            int64(node.Duration),
			ResourceUtilization: 1.0,
		})

		scheduled[selected] = true
		hwFinish[node.MappedNode.HWUnit] = finishTime
		opFinish[selected] = finishTime

		for _, succID := range successors[selected] {
			if remainingPreds[succID] > 0 {
				remainingPreds[succID]--
			}
			if remainingPreds[succID] == 0 && !scheduled[succID] && !enqueued[succID] {
				queue.push(score(succID), succID)
				enqueued[succID] = true
			}
		}

		if queue.Len() > peakQueueSize {
			peakQueueSize = queue.Len()
		}
	}

	// Fallback sweep: anything still unscheduled indicates a cycle or
	// stale bookkeeping in the input; place it by unit availability
	// alone rather than failing the run.
	if len(scheduled) < len(in.Nodes) {
		slog.Warn("system scheduler fallback engaged; input graph is likely cyclic",
			"unscheduled", len(in.Nodes)-len(scheduled))
		for _, id := range sortedNodeIDs(in.Nodes) {
			if scheduled[id] {
				continue
			}
			node := in.Nodes[id]
			startTime := baseCycle
			if finish, ok := hwFinish[node.MappedNode.HWUnit]; ok {
				startTime = finish
			}
			finishTime := startTime + int64(node.Duration)
			result.Entries = append(result.Entries, ir.SystemScheduleEntry{
				OpID:                id,
				HWUnit:              node.MappedNode.HWUnit,
				StartCycle:          startTime,
				Duration:            int64(node.Duration),
				ResourceUtilization: 1.0,
			})
			scheduled[id] = true
			hwFinish[node.MappedNode.HWUnit] = finishTime
			opFinish[id] = finishTime
		}
	}

	for _, entry := range result.Entries {
		finish := entry.StartCycle + entry.Duration
		if finish > result.TotalCycles {
			result.TotalCycles = finish
		}
		if prev, ok := result.HWUnitFinishTimes[entry.HWUnit]; !ok || finish > prev {
			result.HWUnitFinishTimes[entry.HWUnit] = finish
		}
	}
	if result.TotalCycles == 0 {
		for hwUnit, finish := range hwFinish {
			if finish > result.TotalCycles {
				result.TotalCycles = finish
			}
			result.HWUnitFinishTimes[hwUnit] = finish
		}
	}
	s.stageEnd("system_scheduling_loop")

	// Stage 4: statistics and self-check.
	s.stageStart("system_finalization")
	s.lastStats.ReadyQueuePeakSize = peakQueueSize
	s.updateSystemStats(result, in.Nodes)

	if violations := ValidateSchedule(result, in.Edges); len(violations) > 0 {
		slog.Warn("schedule validation failed",
			"violations", len(violations), "first", violations[0])
	}
	s.stageEnd("system_finalization")

	return result
}

// computeSuccessorCounts returns, per node, the number of transitive
// descendants. Descendant sets are memoized so a diamond is counted once
// per descendant, not once per path. A cycle guard keeps malformed input
// from recursing forever.
func computeSuccessorCounts(
	nodes map[string]*ir.OperatorScheduledIRNode,
	successors map[string][]string,
) map[string]int {
	memo := make(map[string]map[string]struct{})
	onStack := make(map[string]bool)

	var descendants func(id string) map[string]struct{}
	descendants = func(id string) map[string]struct{} {
		if set, ok := memo[id]; ok {
			return set
		}
		if onStack[id] {
			return nil
		}
		onStack[id] = true
		set := make(map[string]struct{})
		for _, succ := range successors[id] {
			set[succ] = struct{}{}
			for d := range descendants(succ) {
				set[d] = struct{}{}
			}
		}
		onStack[id] = false
		memo[id] = set
		return set
	}

	counts := make(map[string]int, len(nodes))
	for id := range nodes {
		counts[id] = len(descendants(id))
	}
	return counts
}

// computeCriticalResourceImpact blends normalized duration, a memory
// proxy from input tensor count, and compute intensity from the
// base/final duration ratio. The proxies are intentionally approximate.
func computeCriticalResourceImpact(
	nodes map[string]*ir.OperatorScheduledIRNode,
) map[string]float64 {
	maxDuration, maxMemory, maxCompute := 1.0, 1.0, 1.0
	for _, node := range nodes {
		maxDuration = math.Max(maxDuration, float64(node.Duration))
		maxMemory = math.Max(maxMemory, float64(len(node.MappedNode.OpNode.Inputs)))
		intensity := float64(node.OptResult.BaseDuration) /
			math.Max(1.0, float64(node.Duration))
		maxCompute = math.Max(maxCompute, intensity)
	}

	impacts := make(map[string]float64, len(nodes))
	for id, node := range nodes {
		durationFactor := float64(node.Duration) / maxDuration

		memoryFactor := 0.5 + 0.1*float64(len(node.MappedNode.OpNode.Inputs))
		memoryFactor = math.Min(memoryFactor/maxMemory, 1.0)

		computeFactor := (float64(node.OptResult.BaseDuration) /
			math.Max(1.0, float64(node.Duration))) / maxCompute

		impacts[id] = 0.5*durationFactor + 0.3*memoryFactor + 0.2*computeFactor
	}
	return impacts
}

func (s *SystemLevelScheduler) updateSystemStats(
	schedule *ir.SystemSchedule,
	nodes map[string]*ir.OperatorScheduledIRNode,
) {
	if schedule.TotalCycles == 0 {
		return
	}

	hwWorkTime := make(map[string]float64)
	totalWork := 0.0
	for _, entry := range schedule.Entries {
		hwWorkTime[entry.HWUnit] += float64(entry.Duration)
		totalWork += float64(entry.Duration)
	}

	for hwUnit, work := range hwWorkTime {
		s.lastStats.HWUnitUtilizations[hwUnit] = work / float64(schedule.TotalCycles)
	}

	numUnits := float64(len(s.lastStats.HWUnitUtilizations))
	if numUnits == 0 {
		return
	}

	// Rough critical-path estimate, not an exact longest-path walk.
	criticalPathEstimate := 0.0
	for _, node := range nodes {
		criticalPathEstimate += float64(node.Duration)
	}
	criticalPathEstimate /= numUnits
	s.lastStats.SchedulingEfficiency = criticalPathEstimate / float64(schedule.TotalCycles)

	meanUtil := totalWork / (float64(schedule.TotalCycles) * numUnits)
	variance := 0.0
	for _, util := range s.lastStats.HWUnitUtilizations {
		diff := util - meanUtil
		variance += diff * diff
	}
	variance /= numUnits
	s.lastStats.ResourceBalanceFactor = math.Sqrt(variance)

	var utilSum float64
	for _, util := range s.lastStats.HWUnitUtilizations {
		utilSum += util
	}
	schedule.AvgResourceUtilization = utilSum / numUnits
}

// ValidateSchedule checks dependency ordering for every edge whose
// endpoints are both present, returning a description per violation. A
// violation indicates a scheduler bug, not bad input.
func ValidateSchedule(schedule *ir.SystemSchedule, edges []ir.Edge) []string {
	byOp := make(map[string]*ir.SystemScheduleEntry, len(schedule.Entries))
	for i := range schedule.Entries {
		byOp[schedule.Entries[i].OpID] = &schedule.Entries[i]
	}

	var violations []string
	for _, e := range edges {
		src, srcOK := byOp[e.Src]
		dst, dstOK := byOp[e.Dst]
		if !srcOK || !dstOK {
			continue
		}
		if src.StartCycle+src.Duration > dst.StartCycle {
			violations = append(violations,
				e.Src+" finishes after "+e.Dst+" starts")
		}
	}
	return violations
}
