package opt

import (
	"math"
	"strings"

	"github.com/sarchlab/rendersim/ir"
)

// AnalyticalOptimizer estimates durations from a per-type base cost with
// logarithmic FLOP scaling, compounds speedups for every applicable
// strategy, then gates further speedups on workload hints carried in the
// mapped-IR attrs (opacity, sampling activity, hash locality, precision).
type AnalyticalOptimizer struct {
	library *Library
}

// NewAnalyticalOptimizer creates an AnalyticalOptimizer backed by the
// library.
func NewAnalyticalOptimizer(library *Library) *AnalyticalOptimizer {
	return &AnalyticalOptimizer{library: library}
}

var analyticalBaseCost = map[string]int32{
	"HASH_ENCODE":        400,
	"FIELD_COMPUTATION":  1200,
	"SAMPLING":           600,
	"VOLUME_RENDERING":   900,
	"GAUSSIAN_SPLATTING": 1500,
	"RASTERIZATION":      700,
	"BLENDING":           500,
}

const analyticalDefaultCost = int32(800)

// Optimize implements the Optimizer interface.
func (o *AnalyticalOptimizer) Optimize(operatorType string, attrs map[string]string) ir.OptimizationResult {
	opType := strings.ToUpper(operatorType)

	baseCycles, ok := analyticalBaseCost[opType]
	if !ok {
		baseCycles = analyticalDefaultCost
	}
	if flops := attrFloat(attrs, "flop_count", 0.0); flops > 0 {
		baseCycles += int32(math.Round(math.Log10(math.Max(1, flops)) * 100))
	}

	strategies := o.library.Applicable(opType)
	speedup := 1.0
	var applied []string
	for _, s := range strategies {
		switch s.OptType {
		case TypeReuse:
			speedup *= 0.9
		case TypeSkip:
			speedup *= 0.85
		case TypeLowBit:
			speedup *= 0.95
		}
		applied = append(applied, s.Name)
	}

	gating := 1.0

	if opType == "VOLUME_RENDERING" || opType == "SAMPLING" {
		opacityThreshold := attrFloat(attrs, "opacity_threshold", 0.99)
		avgOpacity := attrFloat(attrs, "avg_opacity", -1.0)
		activeRatio := attrFloat(attrs, "active_samples_ratio", -1.0)
		if avgOpacity >= 0 && avgOpacity >= opacityThreshold {
			gating *= 0.85 // rays terminate earlier under high opacity
			applied = append(applied, "hint_early_ray_termination")
		}
		if activeRatio >= 0 {
			// Map [0,1] activity to a [0.55,1.0] multiplier.
			mult := math.Max(0.55, math.Min(1.0, 0.55+0.45*activeRatio))
			gating *= mult
			applied = append(applied, "hint_sampling_activity")
		}
	}

	if opType == "HASH_ENCODE" || opType == "ENCODING" {
		if attrBool(attrs, "hash_index_activity", false) {
			gating *= 0.9
			applied = append(applied, "hint_hash_activity")
		}
		if locality := attrFloat(attrs, "locality_score", -1.0); locality >= 0.7 {
			gating *= 0.9
			applied = append(applied, "hint_locality")
		}
	}

	if opType == "FIELD_COMPUTATION" {
		lowBit := attrBool(attrs, "low_bit_observed", false)
		bits := attrInt(attrs, "precision_bits", 16)
		if lowBit || bits <= 8 {
			gating *= 0.9
			applied = append(applied, "hint_low_bit")
		}
		if bits <= 4 {
			gating *= 0.85
		}
	}

	speedup *= gating

	return ir.OptimizationResult{
		Duration:             int32(math.Round(float64(baseCycles) * speedup)),
		AppliedOptimizations: applied,
		SpeedupFactor:        speedup,
		BaseDuration:         baseCycles,
		StrategiesConsidered: len(strategies),
	}
}
