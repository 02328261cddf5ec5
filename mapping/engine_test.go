package mapping

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rendersim/config"
	"github.com/sarchlab/rendersim/ir"
)

var _ = Describe("MapOperatorGraph", func() {
	var cfg *config.HWConfig

	BeforeEach(func() {
		cfg = &config.HWConfig{
			AcceleratorName: "test",
			Units: []config.HWUnit{
				{ID: "hash_0", Type: "HASH_ENCODE"},
				{ID: "mlp_0", Type: "FIELD_COMPUTATION"},
				{ID: "mlp_1", Type: "FIELD_COMPUTATION"},
				{ID: "render_0", Type: "VOLUME_RENDERING"},
			},
		}
	})

	graphOf := func(nodes ...ir.OperatorNode) *ir.OperatorGraph {
		return &ir.OperatorGraph{Nodes: nodes}
	}

	It("should map every node and keep all edges", func() {
		graph := &ir.OperatorGraph{
			Nodes: []ir.OperatorNode{
				{ID: "enc", OpType: "HASH_ENCODE"},
				{ID: "mlp", OpType: "FIELD_COMPUTATION"},
				{ID: "render", OpType: "VOLUME_RENDERING"},
			},
			Edges: [][2]int{{0, 1}, {1, 2}},
		}

		mapped, err := MapOperatorGraph(graph, cfg)

		Expect(err).ToNot(HaveOccurred())
		Expect(mapped.Nodes).To(HaveLen(3))
		Expect(mapped.Nodes["enc"].HWUnit).To(Equal("hash_0"))
		Expect(mapped.Nodes["mlp"].HWUnit).To(Equal("mlp_0"))
		Expect(mapped.Nodes["render"].HWUnit).To(Equal("render_0"))
		Expect(mapped.Edges).To(Equal([]ir.Edge{
			{Src: "enc", Dst: "mlp"},
			{Src: "mlp", Dst: "render"},
		}))
	})

	It("should assign every node a unit from the config", func() {
		graph := graphOf(
			ir.OperatorNode{ID: "a", OpType: "SAMPLING"},
			ir.OperatorNode{ID: "b", OpType: "RAY_TRACING"},
			ir.OperatorNode{ID: "c", OpType: "NO_SUCH_TYPE"},
		)

		mapped, err := MapOperatorGraph(graph, cfg)

		Expect(err).ToNot(HaveOccurred())
		Expect(mapped.Nodes).To(HaveLen(3))
		unitIDs := cfg.UnitIDs()
		for _, node := range mapped.Nodes {
			Expect(unitIDs).To(HaveKey(node.HWUnit))
		}
	})

	It("should be deterministic across repeated calls", func() {
		graph := graphOf(
			ir.OperatorNode{ID: "a", OpType: "FIELD_COMPUTATION"},
			ir.OperatorNode{ID: "b", OpType: "FIELD_COMPUTATION"},
			ir.OperatorNode{ID: "c", OpType: "FIELD_COMPUTATION"},
		)

		first, err := MapOperatorGraph(graph, cfg)
		Expect(err).ToNot(HaveOccurred())

		for i := 0; i < 10; i++ {
			again, err := MapOperatorGraph(graph, cfg)
			Expect(err).ToNot(HaveOccurred())
			for id, node := range first.Nodes {
				Expect(again.Nodes[id].HWUnit).To(Equal(node.HWUnit))
			}
		}
	})

	It("should match operator types case-insensitively", func() {
		mapped, err := MapOperatorGraph(graphOf(
			ir.OperatorNode{ID: "n", OpType: "hash_encode"},
		), cfg)

		Expect(err).ToNot(HaveOccurred())
		Expect(mapped.Nodes["n"].HWUnit).To(Equal("hash_0"))
	})

	It("should walk the fallback list in order", func() {
		// SAMPLING has no direct unit; its first fallback is
		// VOLUME_RENDERING, ahead of FIELD_COMPUTATION.
		mapped, err := MapOperatorGraph(graphOf(
			ir.OperatorNode{ID: "s", OpType: "SAMPLING"},
		), cfg)

		Expect(err).ToNot(HaveOccurred())
		Expect(mapped.Nodes["s"].HWUnit).To(Equal("render_0"))
	})

	It("should skip exhausted fallbacks and continue down the list", func() {
		noRenderer := &config.HWConfig{
			AcceleratorName: "test",
			Units: []config.HWUnit{
				{ID: "mlp_0", Type: "FIELD_COMPUTATION"},
			},
		}

		mapped, err := MapOperatorGraph(graphOf(
			ir.OperatorNode{ID: "s", OpType: "SAMPLING"},
		), noRenderer)

		Expect(err).ToNot(HaveOccurred())
		Expect(mapped.Nodes["s"].HWUnit).To(Equal("mlp_0"))
	})

	It("should map backward operators to their base type's unit", func() {
		mapped, err := MapOperatorGraph(graphOf(
			ir.OperatorNode{ID: "bw", OpType: "FIELD_COMPUTATION (B)"},
		), cfg)

		Expect(err).ToNot(HaveOccurred())
		Expect(mapped.Nodes["bw"].HWUnit).To(Equal("mlp_0"))
	})

	It("should use curated backward fallbacks before the base fallback", func() {
		mapped, err := MapOperatorGraph(graphOf(
			ir.OperatorNode{ID: "bw", OpType: "MLP (B)"},
		), cfg)

		Expect(err).ToNot(HaveOccurred())
		Expect(mapped.Nodes["bw"].HWUnit).To(Equal("mlp_0"))
	})

	It("should fall through to generic unit types", func() {
		genericOnly := &config.HWConfig{
			AcceleratorName: "test",
			Units: []config.HWUnit{
				{ID: "gp_0", Type: "GENERIC"},
			},
		}

		mapped, err := MapOperatorGraph(graphOf(
			ir.OperatorNode{ID: "x", OpType: "SOMETHING_NOVEL"},
		), genericOnly)

		Expect(err).ToNot(HaveOccurred())
		Expect(mapped.Nodes["x"].HWUnit).To(Equal("gp_0"))
	})

	It("should use the first unit when nothing else matches", func() {
		oddball := &config.HWConfig{
			AcceleratorName: "test",
			Units: []config.HWUnit{
				{ID: "dsp_0", Type: "DSP"},
			},
		}

		mapped, err := MapOperatorGraph(graphOf(
			ir.OperatorNode{ID: "x", OpType: "SOMETHING_NOVEL"},
		), oddball)

		Expect(err).ToNot(HaveOccurred())
		Expect(mapped.Nodes["x"].HWUnit).To(Equal("dsp_0"))
	})

	It("should fail when the config has no units", func() {
		empty := &config.HWConfig{AcceleratorName: "test"}

		_, err := MapOperatorGraph(graphOf(
			ir.OperatorNode{ID: "x", OpType: "FIELD_COMPUTATION"},
		), empty)

		Expect(err).To(HaveOccurred())
	})

	It("should derive workload attrs from tensor shapes", func() {
		mapped, err := MapOperatorGraph(graphOf(ir.OperatorNode{
			ID:     "mlp",
			OpType: "field_computation",
			Inputs: []ir.TensorDesc{
				{Shape: []int32{8, 16}, DType: "float32"},
			},
			Outputs: []ir.TensorDesc{
				{Shape: []int32{8, 4}, DType: "float32"},
			},
		}), cfg)

		Expect(err).ToNot(HaveOccurred())
		attrs := mapped.Nodes["mlp"].Attrs
		Expect(attrs["work_elems"]).To(Equal("128"))
		Expect(attrs["out_elems"]).To(Equal("32"))
		// (128 + 32) elements at 4 bytes each.
		Expect(attrs["bytes"]).To(Equal("640"))
		Expect(attrs["op_type"]).To(Equal("FIELD_COMPUTATION"))
	})

	It("should floor degenerate tensor dimensions at one", func() {
		mapped, err := MapOperatorGraph(graphOf(ir.OperatorNode{
			ID:     "odd",
			OpType: "FIELD_COMPUTATION",
			Inputs: []ir.TensorDesc{
				{Shape: []int32{0, -3, 5}, DType: "float32"},
			},
		}), cfg)

		Expect(err).ToNot(HaveOccurred())
		Expect(mapped.Nodes["odd"].Attrs["work_elems"]).To(Equal("5"))
	})

	It("should floor attrs at one for nodes without tensors", func() {
		mapped, err := MapOperatorGraph(graphOf(
			ir.OperatorNode{ID: "bare", OpType: "FIELD_COMPUTATION"},
		), cfg)

		Expect(err).ToNot(HaveOccurred())
		attrs := mapped.Nodes["bare"].Attrs
		Expect(attrs["work_elems"]).To(Equal("1"))
		Expect(attrs["out_elems"]).To(Equal("1"))
		Expect(attrs["bytes"]).To(Equal("1"))
	})

	It("should drop edges with out-of-range indices", func() {
		graph := &ir.OperatorGraph{
			Nodes: []ir.OperatorNode{
				{ID: "a", OpType: "FIELD_COMPUTATION"},
				{ID: "b", OpType: "FIELD_COMPUTATION"},
			},
			Edges: [][2]int{{0, 1}, {1, 5}, {-1, 0}},
		}

		mapped, err := MapOperatorGraph(graph, cfg)

		Expect(err).ToNot(HaveOccurred())
		Expect(mapped.Edges).To(Equal([]ir.Edge{{Src: "a", Dst: "b"}}))
	})
})
