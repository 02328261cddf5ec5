// Package opt holds the optimization-strategy registry and the operator
// optimizers that turn workload attributes into cycle durations.
package opt

import "fmt"

// Type classifies what a strategy does to the computation.
type Type int

const (
	// TypeReuse shares computed values across operations that need them.
	TypeReuse Type = iota
	// TypeSkip avoids computation whose result is negligible.
	TypeSkip
	// TypeLowBit trades precision for bandwidth and energy.
	TypeLowBit
)

// Name returns the name of the optimization type.
func (t Type) Name() string {
	switch t {
	case TypeReuse:
		return "REUSE"
	case TypeSkip:
		return "SKIP"
	case TypeLowBit:
		return "LOW_BIT"
	default:
		panic("invalid optimization type")
	}
}

// Scope is the granularity at which a strategy operates.
type Scope int

const (
	// ElementLevel covers individual rays, points, or primitives.
	ElementLevel Scope = iota
	// RegionLevel covers spatial groups such as tiles or subgrids.
	RegionLevel
	// FrameLevel covers temporal boundaries between frames.
	FrameLevel
)

// Name returns the name of the scope.
func (s Scope) Name() string {
	switch s {
	case ElementLevel:
		return "ELEMENT_LEVEL"
	case RegionLevel:
		return "REGION_LEVEL"
	case FrameLevel:
		return "FRAME_LEVEL"
	default:
		panic("invalid optimization scope")
	}
}

// Criteria is how a strategy decides whether to fire.
type Criteria int

const (
	// BoundaryBased decisions follow geometric boundaries and partitions.
	BoundaryBased Criteria = iota
	// ThresholdBased decisions compare metrics against preset values.
	ThresholdBased
)

// Params is a generic parameter bag for a strategy.
type Params struct {
	Doubles map[string]float64
	Ints    map[string]int32
	IntVecs map[string][]int32
}

// Strategy is an immutable description of one optimization technique.
// ApplicableOperators lists operator types the strategy applies to; the
// wildcard "*" matches every type.
type Strategy struct {
	Name                string
	OptType             Type
	Scope               Scope
	Criteria            Criteria
	Description         string
	ApplicableOperators []string
	Parameters          Params
}

// NewStrategy validates and returns a strategy value.
func NewStrategy(
	name string,
	optType Type,
	scope Scope,
	criteria Criteria,
	description string,
	applicableOperators []string,
	parameters Params,
) (*Strategy, error) {
	if name == "" {
		return nil, fmt.Errorf("optimization strategy must have a name")
	}
	if len(applicableOperators) == 0 {
		return nil, fmt.Errorf("optimization strategy must specify applicable operators")
	}
	return &Strategy{
		Name:                name,
		OptType:             optType,
		Scope:               scope,
		Criteria:            criteria,
		Description:         description,
		ApplicableOperators: applicableOperators,
		Parameters:          parameters,
	}, nil
}

// IsApplicableTo reports whether the strategy applies to the operator
// type, either by direct listing or by wildcard.
func (s *Strategy) IsApplicableTo(operatorType string) bool {
	for _, op := range s.ApplicableOperators {
		if op == operatorType || op == "*" {
			return true
		}
	}
	return false
}
