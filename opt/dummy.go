package opt

import (
	"math"
	"strings"

	"github.com/sarchlab/rendersim/ir"
)

// DummyOptimizer models an operator as the slower of a compute-bound and
// a memory-bound estimate. There is no hardcoded base duration: the
// compute term comes entirely from work_elems (biased by flop_count when
// present) divided by a per-type throughput, and the memory term from
// bytes divided by a per-type bandwidth.
type DummyOptimizer struct {
	library *Library
}

// NewDummyOptimizer creates a DummyOptimizer backed by the library.
func NewDummyOptimizer(library *Library) *DummyOptimizer {
	return &DummyOptimizer{library: library}
}

func dummyElemsPerCycle(opType string) float64 {
	switch opType {
	case "FIELD_COMPUTATION":
		return 256.0 // 32x32 array approx
	case "HASH_ENCODE", "ENCODING", "SAMPLING", "VOLUME_RENDERING", "BLENDING":
		return 64.0
	default:
		return 1.0
	}
}

func dummyBytesPerCycle(opType string) float64 {
	switch opType {
	case "FIELD_COMPUTATION":
		return 64.0
	case "HASH_ENCODE", "ENCODING", "SAMPLING", "VOLUME_RENDERING", "BLENDING":
		return 32.0
	default:
		return 16.0
	}
}

// Optimize implements the Optimizer interface.
func (o *DummyOptimizer) Optimize(operatorType string, attrs map[string]string) ir.OptimizationResult {
	opType := strings.ToUpper(operatorType)
	strategies := o.library.Applicable(opType)

	work := attrFloat(attrs, "work_elems", 0.0)
	if flops := attrFloat(attrs, "flop_count", 0.0); flops > 0 {
		work = math.Max(work, flops/32.0)
	}

	var workloadCycles int32
	if epc := dummyElemsPerCycle(opType); work > 0 {
		workloadCycles = int32(math.Ceil(work / epc))
	}

	// Each applicable SKIP or REUSE strategy compounds a 20% speedup.
	speedup := 1.0
	var applied []string
	for _, s := range strategies {
		if s.OptType == TypeSkip || s.OptType == TypeReuse {
			speedup *= 0.8
			applied = append(applied, s.Name)
		}
	}

	const baseDuration = int32(0)
	computeCycles := int32(math.Max(1,
		math.Round(float64(baseDuration+workloadCycles)*speedup)))

	var memCycles int32
	if bytes := attrFloat(attrs, "bytes", 0.0); bytes > 0 {
		memCycles = int32(math.Ceil(bytes / dummyBytesPerCycle(opType)))
	}

	duration := computeCycles
	if memCycles > duration {
		duration = memCycles
	}

	return ir.OptimizationResult{
		Duration:             duration,
		AppliedOptimizations: applied,
		SpeedupFactor:        speedup,
		BaseDuration:         baseDuration,
		StrategiesConsidered: len(strategies),
	}
}
