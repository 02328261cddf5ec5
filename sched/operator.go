// Package sched implements the two scheduling stages: per-hardware-unit
// operator scheduling and the system-level DAGS list scheduler.
package sched

import (
	"sort"

	"github.com/sarchlab/rendersim/ir"
	"github.com/sarchlab/rendersim/opt"
	"github.com/sarchlab/rendersim/timing"
)

// OperatorSchedulingStats describes the last operator-level run.
type OperatorSchedulingStats struct {
	TotalOperators     int
	OptimizedOperators int
	TotalSpeedup       float64
	HWUnitUsage        map[string]int
}

// OperatorLevelScheduler assigns durations and per-unit start cycles.
// Each hardware unit runs its queue back-to-back, exclusively and in
// order; cross-unit dependencies then push starts later where needed.
type OperatorLevelScheduler struct {
	optimizer opt.Optimizer
	timer     *timing.PerformanceTimer

	instrumentation bool
	lastStats       OperatorSchedulingStats
}

// NewOperatorLevelScheduler creates a scheduler that derives durations
// from the given optimizer. Latency instrumentation is enabled by
// default.
func NewOperatorLevelScheduler(optimizer opt.Optimizer) *OperatorLevelScheduler {
	return &OperatorLevelScheduler{
		optimizer:       optimizer,
		timer:           timing.NewPerformanceTimer(),
		instrumentation: true,
	}
}

// UseTimer replaces the scheduler's timer, letting callers share one
// timer across pipeline stages. One timer per scheduling run: the timer
// is not safe for concurrent use.
func (s *OperatorLevelScheduler) UseTimer(t *timing.PerformanceTimer) {
	s.timer = t
}

// Timer returns the scheduler's timer.
func (s *OperatorLevelScheduler) Timer() *timing.PerformanceTimer {
	return s.timer
}

// SetLatencyInstrumentation toggles stage timing.
func (s *OperatorLevelScheduler) SetLatencyInstrumentation(enabled bool) {
	s.instrumentation = enabled
}

// ClearLatencyMeasurements wipes all recorded stage timings.
func (s *OperatorLevelScheduler) ClearLatencyMeasurements() {
	s.timer.Clear()
}

// LastStats returns statistics about the most recent Schedule call.
func (s *OperatorLevelScheduler) LastStats() OperatorSchedulingStats {
	return s.lastStats
}

// LatencyReport returns the operator-level stage latencies.
func (s *OperatorLevelScheduler) LatencyReport() timing.SchedulingLatencyReport {
	return timing.SchedulingLatencyReport{
		OperatorHWGrouping:           s.timer.StatsFor("operator_hw_grouping"),
		OperatorHWScheduling:         s.timer.StatsFor("operator_hw_scheduling"),
		OperatorDependencyResolution: s.timer.StatsFor("operator_dependency_resolution"),
		OperatorTotal:                s.timer.StatsFor("operator_total"),
	}
}

func (s *OperatorLevelScheduler) stageStart(name string) {
	if s.instrumentation {
		s.timer.Start(name)
	}
}

func (s *OperatorLevelScheduler) stageEnd(name string) {
	if s.instrumentation {
		s.timer.End(name)
	}
}

// Schedule produces the operator-scheduled IR for a mapped IR.
func (s *OperatorLevelScheduler) Schedule(mapped *ir.MappedIR) *ir.OperatorScheduledIR {
	s.stageStart("operator_total")
	defer s.stageEnd("operator_total")

	result := ir.NewOperatorScheduledIR()
	result.Edges = append([]ir.Edge(nil), mapped.Edges...)

	s.lastStats = OperatorSchedulingStats{
		TotalOperators: len(mapped.Nodes),
		HWUnitUsage:    make(map[string]int),
	}

	// Stage 1: group nodes by hardware unit, sorted ids within each
	// group so output is reproducible.
	s.stageStart("operator_hw_grouping")
	groups := make(map[string][]*ir.MappedIRNode)
	for _, id := range sortedNodeIDs(mapped.Nodes) {
		node := mapped.Nodes[id]
		groups[node.HWUnit] = append(groups[node.HWUnit], node)
		s.lastStats.HWUnitUsage[node.HWUnit]++
	}
	s.stageEnd("operator_hw_grouping")

	// Stage 2: schedule each hardware unit independently, back to back.
	s.stageStart("operator_hw_scheduling")
	for _, hwUnit := range sortedKeys(groups) {
		for _, node := range s.scheduleHardwareUnit(groups[hwUnit]) {
			result.Nodes[node.MappedNode.OpNode.ID] = node
		}
	}
	s.stageEnd("operator_hw_scheduling")

	// Stage 3: push starts later across units where data dependencies
	// require it.
	s.stageStart("operator_dependency_resolution")
	s.resolveStartCycles(result)
	s.stageEnd("operator_dependency_resolution")

	s.updateStats(result)

	return result
}

func (s *OperatorLevelScheduler) scheduleHardwareUnit(
	nodes []*ir.MappedIRNode,
) []*ir.OperatorScheduledIRNode {
	scheduled := make([]*ir.OperatorScheduledIRNode, 0, len(nodes))

	currentCycle := int32(0)
	for _, mapped := range nodes {
		optResult := s.optimizer.Optimize(mapped.OpNode.OpType, mapped.Attrs)

		scheduled = append(scheduled, &ir.OperatorScheduledIRNode{
			MappedNode: mapped,
			StartCycle: currentCycle,
			Duration:   optResult.Duration,
			Resources: map[string]string{
				"compute_units":    "1",
				"memory_bandwidth": "high",
			},
			OptResult: optResult,
		})

		currentCycle += optResult.Duration

		if len(optResult.AppliedOptimizations) > 0 {
			s.lastStats.OptimizedOperators++
		}
	}

	return scheduled
}

// resolveStartCycles walks the nodes in topological order and sets each
// start to max(latest producer finish, hardware-local start). A node can
// only move later, never earlier, and the unit's remaining timeline is
// NOT re-packed after a shift; that conservative gap is deliberate.
func (s *OperatorLevelScheduler) resolveStartCycles(result *ir.OperatorScheduledIR) {
	producers := make(map[string][]string)
	inDegree := make(map[string]int)
	successors := make(map[string][]string)
	for _, e := range result.Edges {
		if result.Nodes[e.Src] == nil || result.Nodes[e.Dst] == nil {
			continue
		}
		producers[e.Dst] = append(producers[e.Dst], e.Src)
		successors[e.Src] = append(successors[e.Src], e.Dst)
		inDegree[e.Dst]++
	}

	order := topologicalOrder(result.Nodes, successors, inDegree)
	for _, id := range order {
		node := result.Nodes[id]
		earliest := int32(0)
		for _, producerID := range producers[id] {
			producer := result.Nodes[producerID]
			if finish := producer.StartCycle + producer.Duration; finish > earliest {
				earliest = finish
			}
		}
		if earliest > node.StartCycle {
			node.StartCycle = earliest
		}
	}
}

func (s *OperatorLevelScheduler) updateStats(result *ir.OperatorScheduledIR) {
	var totalBase, totalFinal float64
	for _, node := range result.Nodes {
		totalBase += float64(node.OptResult.BaseDuration)
		totalFinal += float64(node.OptResult.Duration)
	}
	if totalFinal > 0 {
		s.lastStats.TotalSpeedup = totalBase / totalFinal
	} else {
		s.lastStats.TotalSpeedup = 1.0
	}
}

// topologicalOrder returns node ids in dependency order (Kahn), with
// sorted-id tie-breaking. Cycle residue, which should not occur in
// well-formed input, is appended in sorted id order.
func topologicalOrder(
	nodes map[string]*ir.OperatorScheduledIRNode,
	successors map[string][]string,
	inDegree map[string]int,
) []string {
	remaining := make(map[string]int, len(nodes))
	var ready []string
	for _, id := range sortedNodeIDs(nodes) {
		remaining[id] = inDegree[id]
		if remaining[id] == 0 {
			ready = append(ready, id)
		}
	}

	order := make([]string, 0, len(nodes))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)
		for _, succ := range successors[id] {
			remaining[succ]--
			if remaining[succ] == 0 {
				ready = append(ready, succ)
			}
		}
	}

	if len(order) < len(nodes) {
		inOrder := make(map[string]bool, len(order))
		for _, id := range order {
			inOrder[id] = true
		}
		for _, id := range sortedNodeIDs(nodes) {
			if !inOrder[id] {
				order = append(order, id)
			}
		}
	}

	return order
}

func sortedNodeIDs[V any](nodes map[string]V) []string {
	ids := make([]string, 0, len(nodes))
	for id := range nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func sortedKeys[V any](m map[string]V) []string {
	return sortedNodeIDs(m)
}
