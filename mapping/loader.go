package mapping

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sarchlab/rendersim/ir"
)

type tensorDescJSON struct {
	Shape *[]int32 `json:"shape"`
	DType string   `json:"dtype"`
}

type opNodeJSON struct {
	ID        string           `json:"id"`
	OpType    string           `json:"op_type"`
	Inputs    []tensorDescJSON `json:"inputs"`
	Outputs   []tensorDescJSON `json:"outputs"`
	CallCount *int32           `json:"call_count"`
}

type mappedNodeJSON struct {
	OpNode *opNodeJSON                `json:"op_node"`
	HWUnit string                     `json:"hw_unit"`
	Attrs  map[string]json.RawMessage `json:"attrs"`
}

type mappedIRJSON struct {
	Nodes map[string]*mappedNodeJSON `json:"nodes"`
	Edges []json.RawMessage          `json:"edges"`
}

// LoadMappedIR reads a mapped-IR JSON file. The IR may be at the top
// level or wrapped in {"mapped_ir": ...}, where the wrapped value may
// itself be a string-encoded JSON object.
func LoadMappedIR(path string) (*ir.MappedIR, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mapped IR JSON %s: %w", path, err)
	}
	result, err := ParseMappedIR(data)
	if err != nil {
		return nil, fmt.Errorf("mapped IR %s: %w", path, err)
	}
	return result, nil
}

// ParseMappedIR parses mapped-IR JSON bytes.
func ParseMappedIR(data []byte) (*ir.MappedIR, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("malformed JSON: %w", err)
	}

	irBytes := data
	if wrapped, ok := root["mapped_ir"]; ok {
		var encoded string
		if err := json.Unmarshal(wrapped, &encoded); err == nil {
			irBytes = []byte(encoded)
		} else {
			irBytes = wrapped
		}
	}

	var parsed mappedIRJSON
	if err := json.Unmarshal(irBytes, &parsed); err != nil {
		return nil, fmt.Errorf("malformed mapped IR: %w", err)
	}
	if parsed.Nodes == nil {
		return nil, fmt.Errorf("missing 'nodes'")
	}
	if parsed.Edges == nil {
		return nil, fmt.Errorf("missing 'edges'")
	}

	result := ir.NewMappedIR()

	for id, nodeJSON := range parsed.Nodes {
		if nodeJSON == nil || nodeJSON.OpNode == nil {
			return nil, fmt.Errorf("node %s: missing 'op_node'", id)
		}
		node, err := convertMappedNode(nodeJSON)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", id, err)
		}
		if node.OpNode.ID == "" {
			return nil, fmt.Errorf("node %s: missing 'op_node' id", id)
		}
		if node.OpNode.ID != id {
			return nil, fmt.Errorf(
				"node %s: 'op_node' id %q does not match its key",
				id, node.OpNode.ID)
		}
		result.Nodes[id] = node
	}

	// Edges are 2-element [producer, consumer] arrays; anything else is
	// skipped.
	for _, raw := range parsed.Edges {
		var pair []string
		if err := json.Unmarshal(raw, &pair); err != nil || len(pair) != 2 {
			continue
		}
		result.Edges = append(result.Edges, ir.Edge{Src: pair[0], Dst: pair[1]})
	}

	return result, nil
}

func convertMappedNode(nodeJSON *mappedNodeJSON) (*ir.MappedIRNode, error) {
	op := nodeJSON.OpNode
	node := &ir.MappedIRNode{
		OpNode: ir.OperatorNode{
			ID:        op.ID,
			OpType:    op.OpType,
			CallCount: 1,
		},
		HWUnit: nodeJSON.HWUnit,
		Attrs:  make(map[string]string),
	}
	if op.CallCount != nil {
		node.OpNode.CallCount = *op.CallCount
	}

	for _, t := range op.Inputs {
		td, err := convertTensorDesc(t)
		if err != nil {
			return nil, err
		}
		node.OpNode.Inputs = append(node.OpNode.Inputs, td)
	}
	for _, t := range op.Outputs {
		td, err := convertTensorDesc(t)
		if err != nil {
			return nil, err
		}
		node.OpNode.Outputs = append(node.OpNode.Outputs, td)
	}

	// Attr values become strings: JSON strings keep their content, any
	// other value keeps its literal JSON text.
	for k, raw := range nodeJSON.Attrs {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			node.Attrs[k] = s
		} else {
			node.Attrs[k] = string(raw)
		}
	}

	return node, nil
}

func convertTensorDesc(t tensorDescJSON) (ir.TensorDesc, error) {
	if t.Shape == nil {
		return ir.TensorDesc{}, fmt.Errorf("tensor descriptor missing 'shape'")
	}
	dtype := t.DType
	if dtype == "" {
		dtype = "float32"
	}
	return ir.TensorDesc{Shape: *t.Shape, DType: dtype}, nil
}
