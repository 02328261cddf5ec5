package sched

import (
	"strings"

	"github.com/sarchlab/rendersim/ir"
)

// TrainingScheduleResult is a phase-split schedule for a training
// workload: forward operators first, then the backward pass starting at
// the forward makespan.
type TrainingScheduleResult struct {
	Schedule *ir.SystemSchedule

	// PhaseBoundary is the cycle at which the backward phase begins.
	PhaseBoundary int64
	ForwardOps    int
	BackwardOps   int
}

// ScheduleTraining schedules a training graph in two phases. Operators
// whose op_type carries the " (B)" marker form the backward phase; it
// starts only after every forward operator has finished, which models
// the gradient tape barrier between the passes.
func (s *SystemLevelScheduler) ScheduleTraining(in *ir.OperatorScheduledIR) *TrainingScheduleResult {
	forward := ir.NewOperatorScheduledIR()
	backward := ir.NewOperatorScheduledIR()

	for id, node := range in.Nodes {
		if strings.Contains(node.MappedNode.OpNode.OpType, "(B)") {
			backward.Nodes[id] = node
		} else {
			forward.Nodes[id] = node
		}
	}
	for _, e := range in.Edges {
		switch {
		case forward.Nodes[e.Src] != nil && forward.Nodes[e.Dst] != nil:
			forward.Edges = append(forward.Edges, e)
		case backward.Nodes[e.Src] != nil && backward.Nodes[e.Dst] != nil:
			backward.Edges = append(backward.Edges, e)
		}
		// Cross-phase edges are implied by the phase barrier.
	}

	forwardSchedule := s.scheduleFrom(forward, 0)
	boundary := forwardSchedule.TotalCycles
	backwardSchedule := s.scheduleFrom(backward, boundary)

	merged := ir.NewSystemSchedule()
	merged.Entries = append(merged.Entries, forwardSchedule.Entries...)
	merged.Entries = append(merged.Entries, backwardSchedule.Entries...)
	merged.TotalCycles = forwardSchedule.TotalCycles
	if backwardSchedule.TotalCycles > merged.TotalCycles {
		merged.TotalCycles = backwardSchedule.TotalCycles
	}
	for hwUnit, finish := range forwardSchedule.HWUnitFinishTimes {
		merged.HWUnitFinishTimes[hwUnit] = finish
	}
	for hwUnit, finish := range backwardSchedule.HWUnitFinishTimes {
		if prev, ok := merged.HWUnitFinishTimes[hwUnit]; !ok || finish > prev {
			merged.HWUnitFinishTimes[hwUnit] = finish
		}
	}

	return &TrainingScheduleResult{
		Schedule:      merged,
		PhaseBoundary: boundary,
		ForwardOps:    len(forward.Nodes),
		BackwardOps:   len(backward.Nodes),
	}
}
