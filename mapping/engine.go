// Package mapping assigns each operator in a workload graph to one
// concrete hardware unit and derives the scheduling hints the optimizers
// read (work_elems, out_elems, bytes).
package mapping

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/sarchlab/rendersim/config"
	"github.com/sarchlab/rendersim/ir"
)

const backwardSuffix = " (B)"

// fallbacks maps an operator type to the ordered list of alternate unit
// types tried when no unit of the direct type exists.
var fallbacks = map[string][]string{
	"SAMPLING":             {"VOLUME_RENDERING", "FIELD_COMPUTATION"},
	"BLENDING":             {"VOLUME_RENDERING", "BLENDING"},
	"RAY_TRACING":          {"VOLUME_RENDERING", "FIELD_COMPUTATION"},
	"HASH_ENCODE":          {"HASH_ENCODE", "POSITIONAL_ENCODE", "FIELD_COMPUTATION"},
	"POSITIONAL_ENCODE":    {"POSITIONAL_ENCODE", "HASH_ENCODE", "FIELD_COMPUTATION"},
	"MLP":                  {"MLP", "FIELD_COMPUTATION"},
	"POSITIONAL_ENCODING":  {"POSITIONAL_ENCODE", "FIELD_COMPUTATION"},
	"MLP_COMPUTATION":      {"MLP", "FIELD_COMPUTATION"},
	"RGB_VOLUME_RENDERING": {"VOLUME_RENDERING", "BLENDING"},
	"VOLUME_RENDERING":     {"VOLUME_RENDERING", "BLENDING"},

	// GSArch
	"TILEMERGING":     {"TILEMERGING", "BLENDING", "FIELD_COMPUTATION"},
	"FEATURECOMPUTE":  {"FEATURECOMPUTE", "FIELD_COMPUTATION"},
	"GRADIENTCOMPUTE": {"GRADIENTCOMPUTE", "GRADIENT_ACCUMULATION", "FIELD_COMPUTATION"},
	"GRADIENTPRUNING": {"GRADIENTPRUNING", "OPTIMIZATION"},
	"REARRANGEMENT":   {"REARRANGEMENT", "OPTIMIZATION"},

	// GBU
	"ROWPROCESSING": {"ROWPROCESSING", "FIELD_COMPUTATION"},
	"ROWGENERATION": {"ROWGENERATION", "ENCODING"},
	"DECOMPBINNING": {"DECOMPBINNING", "OPTIMIZATION"},

	// Instant3D
	"FRM": {"FRM", "HASH_ENCODE", "ENCODING"},
	"BUM": {"BUM", "GRADIENT_ACCUMULATION", "OPTIMIZATION"},

	// Backward pass
	"MLP (B)":              {"MLP", "FIELD_COMPUTATION"},
	"HASH_ENCODE (B)":      {"HASH_ENCODE", "BUM", "ENCODING"},
	"HASHENCODING (B)":     {"HASH_ENCODE", "BUM", "ENCODING"},
	"BLENDING (B)":         {"BLENDING", "GRADIENTCOMPUTE", "VOLUME_RENDERING"},
	"GAUSSIANALPHABLEND (B)": {"GRADIENTCOMPUTE", "BLENDING"},
	"RGBRENDERER (B)":      {"VOLUME_RENDERING", "BLENDING"},
	"DENSITYRENDERER (B)":  {"VOLUME_RENDERING", "BLENDING"},

	"UNKNOWN": {"FIELD_COMPUTATION", "VOLUME_RENDERING", "POSITIONAL_ENCODE"},
}

var genericTypes = []string{"GENERIC", "FIELD_COMPUTATION", "ENCODING"}

// MapOperatorGraph selects one hardware unit for every operator in the
// graph and converts index edges to id edges. It is a pure function of
// its inputs: repeated calls yield identical results. It fails only when
// the config has no units at all.
func MapOperatorGraph(graph *ir.OperatorGraph, cfg *config.HWConfig) (*ir.MappedIR, error) {
	result := ir.NewMappedIR()
	unitsByType := cfg.UnitsByType()

	for i := range graph.Nodes {
		node := &graph.Nodes[i]
		unit, err := resolveUnit(node.OpType, unitsByType, cfg)
		if err != nil {
			return nil, fmt.Errorf("operator %s: %w", node.ID, err)
		}

		mnode := &ir.MappedIRNode{
			OpNode: *node,
			HWUnit: unit.ID,
			Attrs:  make(map[string]string),
		}
		attachWorkloadAttrs(mnode)
		result.Nodes[node.ID] = mnode
	}

	// Preserve edges, converting index pairs to id pairs. Out-of-range
	// indices are dropped, not errors: the source graph may be malformed
	// by an upstream producer.
	for _, e := range graph.Edges {
		src, dst := e[0], e[1]
		if src < 0 || src >= len(graph.Nodes) || dst < 0 || dst >= len(graph.Nodes) {
			slog.Debug("dropping edge with out-of-range index",
				"src", src, "dst", dst, "nodes", len(graph.Nodes))
			continue
		}
		result.Edges = append(result.Edges, ir.Edge{
			Src: graph.Nodes[src].ID,
			Dst: graph.Nodes[dst].ID,
		})
	}

	return result, nil
}

// resolveUnit walks the selection ladder: direct type match, backward
// base type, curated fallback table (again for the backward base),
// generic types, then the first unit in the whole config.
func resolveUnit(
	opType string,
	unitsByType map[string][]config.HWUnit,
	cfg *config.HWConfig,
) (config.HWUnit, error) {
	upper := strings.ToUpper(opType)
	isBackward := strings.HasSuffix(upper, backwardSuffix)
	base := upper
	if isBackward {
		base = strings.TrimSuffix(upper, backwardSuffix)
	}

	if units, ok := unitsByType[upper]; ok && len(units) > 0 {
		return units[0], nil
	}
	if isBackward {
		if units, ok := unitsByType[base]; ok && len(units) > 0 {
			return units[0], nil
		}
	}

	if unit, ok := tryFallbacks(upper, unitsByType); ok {
		return unit, nil
	}
	if isBackward {
		if unit, ok := tryFallbacks(base, unitsByType); ok {
			return unit, nil
		}
	}

	for _, generic := range genericTypes {
		if units, ok := unitsByType[generic]; ok && len(units) > 0 {
			return units[0], nil
		}
	}

	if len(cfg.Units) > 0 {
		return cfg.Units[0], nil
	}

	return config.HWUnit{}, fmt.Errorf("no hardware units available for operator mapping")
}

func tryFallbacks(
	opType string,
	unitsByType map[string][]config.HWUnit,
) (config.HWUnit, bool) {
	for _, alt := range fallbacks[opType] {
		if units, ok := unitsByType[alt]; ok && len(units) > 0 {
			return units[0], true
		}
	}
	return config.HWUnit{}, false
}

// attachWorkloadAttrs derives the scheduling hints downstream optimizers
// read. Element counts floor each tensor dimension at 1; bytes assume
// 4-byte elements; every attr is floored at 1.
func attachWorkloadAttrs(node *ir.MappedIRNode) {
	var inElems, outElems int64
	for _, t := range node.OpNode.Inputs {
		inElems += t.NumElems()
	}
	for _, t := range node.OpNode.Outputs {
		outElems += t.NumElems()
	}
	bytes := (inElems + outElems) * 4

	node.Attrs["work_elems"] = strconv.FormatInt(max64(1, inElems), 10)
	node.Attrs["out_elems"] = strconv.FormatInt(max64(1, outElems), 10)
	node.Attrs["bytes"] = strconv.FormatInt(max64(1, bytes), 10)
	node.Attrs["op_type"] = strings.ToUpper(node.OpNode.OpType)
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
