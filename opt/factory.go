package opt

// OptimizerType selects an optimizer implementation.
type OptimizerType int

const (
	// Dummy is the throughput/memory-bound model.
	Dummy OptimizerType = iota
	// Analytical is the base-cost model with hint gating.
	Analytical
	// MLBased is reserved; it currently falls back to the dummy model.
	MLBased
)

// NewOptimizer creates an optimizer of the requested type backed by the
// given strategy library.
func NewOptimizer(t OptimizerType, library *Library) Optimizer {
	switch t {
	case Analytical:
		return NewAnalyticalOptimizer(library)
	case MLBased:
		// Not implemented yet.
		return NewDummyOptimizer(library)
	default:
		return NewDummyOptimizer(library)
	}
}
