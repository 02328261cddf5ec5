package opt

import (
	"strconv"
	"strings"

	"github.com/sarchlab/rendersim/ir"
)

// Optimizer estimates an operator's duration in cycles and reports which
// optimization strategies contributed.
type Optimizer interface {
	Optimize(operatorType string, attrs map[string]string) ir.OptimizationResult
}

// attrFloat reads a float attr, returning def when absent or unparseable.
func attrFloat(attrs map[string]string, key string, def float64) float64 {
	v, ok := attrs[key]
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return def
	}
	return f
}

// attrInt reads an integer attr, returning def when absent or unparseable.
func attrInt(attrs map[string]string, key string, def int) int {
	v, ok := attrs[key]
	if !ok {
		return def
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return i
}

// attrBool reads a boolean attr, returning def when absent or not one of
// the recognized spellings.
func attrBool(attrs map[string]string, key string, def bool) bool {
	v, ok := attrs[key]
	if !ok {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y":
		return true
	case "0", "false", "no", "n":
		return false
	default:
		return def
	}
}
