// Package ir defines the commonly used data structures for the scheduling
// pipeline: the operator graph, the mapped IR, the operator-scheduled IR,
// and the final system schedule.
package ir

// TensorDesc describes the shape and element type of one tensor flowing
// between operators.
type TensorDesc struct {
	Shape []int32
	DType string
}

// NumElems returns the number of elements in the tensor, flooring each
// dimension at 1 so degenerate shapes still count as work.
func (t TensorDesc) NumElems() int64 {
	if len(t.Shape) == 0 {
		return 0
	}
	p := int64(1)
	for _, d := range t.Shape {
		if d < 1 {
			d = 1
		}
		p *= int64(d)
	}
	return p
}

// OperatorNode is one unit of work in the workload graph. Nodes are
// immutable after construction and owned by their OperatorGraph.
type OperatorNode struct {
	ID        string
	OpType    string
	Inputs    []TensorDesc
	Outputs   []TensorDesc
	CallCount int32
}

// OperatorGraph is a DAG of operator nodes. Edges are pairs of indices
// into Nodes, producer first.
type OperatorGraph struct {
	Nodes []OperatorNode
	Edges [][2]int
}

// Edge is a producer→consumer data dependency between two node ids.
type Edge struct {
	Src string
	Dst string
}

// MappedIRNode wraps an operator node with its hardware-unit assignment
// and derived scheduling hints.
type MappedIRNode struct {
	OpNode OperatorNode
	HWUnit string
	Attrs  map[string]string
}

// MappedIR is the output of the mapping stage: nodes keyed by operator id
// plus edges re-expressed as id pairs.
type MappedIR struct {
	Nodes map[string]*MappedIRNode
	Edges []Edge
}

// NewMappedIR returns an empty MappedIR.
func NewMappedIR() *MappedIR {
	return &MappedIR{Nodes: make(map[string]*MappedIRNode)}
}

// OptimizationResult describes how an operator's duration was derived.
type OptimizationResult struct {
	Duration             int32
	AppliedOptimizations []string
	SpeedupFactor        float64
	BaseDuration         int32
	StrategiesConsidered int
}

// OperatorScheduledIRNode carries the per-unit timing assigned by the
// operator-level scheduler.
type OperatorScheduledIRNode struct {
	MappedNode *MappedIRNode
	StartCycle int32
	Duration   int32
	Resources  map[string]string
	OptResult  OptimizationResult
}

// OperatorScheduledIR is the output of operator-level scheduling.
type OperatorScheduledIR struct {
	Nodes map[string]*OperatorScheduledIRNode
	Edges []Edge
}

// NewOperatorScheduledIR returns an empty OperatorScheduledIR.
func NewOperatorScheduledIR() *OperatorScheduledIR {
	return &OperatorScheduledIR{Nodes: make(map[string]*OperatorScheduledIRNode)}
}

// SystemScheduleEntry is the final placement of one operator on the
// global timeline. ResourceUtilization is always 1.0 for now; the field
// is reserved for fractional occupancy modeling.
type SystemScheduleEntry struct {
	OpID                string
	HWUnit              string
	StartCycle          int64
	Duration            int64
	ResourceUtilization float64
}

// SystemSchedule is the terminal artifact of the pipeline. TotalCycles is
// the maximum finish cycle over all entries.
type SystemSchedule struct {
	Entries                []SystemScheduleEntry
	TotalCycles            int64
	AvgResourceUtilization float64
	HWUnitFinishTimes      map[string]int64
}

// NewSystemSchedule returns an empty SystemSchedule.
func NewSystemSchedule() *SystemSchedule {
	return &SystemSchedule{HWUnitFinishTimes: make(map[string]int64)}
}
