package api

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rendersim/config"
	"github.com/sarchlab/rendersim/ir"
	"github.com/sarchlab/rendersim/opt"
	"github.com/sarchlab/rendersim/sched"
)

func nerfConfig() *config.HWConfig {
	return &config.HWConfig{
		AcceleratorName: "test-accel",
		Units: []config.HWUnit{
			{ID: "hash_0", Type: "HASH_ENCODE"},
			{ID: "mlp_0", Type: "FIELD_COMPUTATION"},
			{ID: "render_0", Type: "VOLUME_RENDERING"},
		},
	}
}

func nerfGraph() *ir.OperatorGraph {
	t := func(dims ...int32) ir.TensorDesc {
		return ir.TensorDesc{Shape: dims, DType: "float32"}
	}
	return &ir.OperatorGraph{
		Nodes: []ir.OperatorNode{
			{ID: "enc", OpType: "HASH_ENCODE",
				Inputs:  []ir.TensorDesc{t(1024, 3)},
				Outputs: []ir.TensorDesc{t(1024, 32)}, CallCount: 1},
			{ID: "mlp", OpType: "FIELD_COMPUTATION",
				Inputs:  []ir.TensorDesc{t(1024, 32)},
				Outputs: []ir.TensorDesc{t(1024, 4)}, CallCount: 1},
			{ID: "render", OpType: "VOLUME_RENDERING",
				Inputs:  []ir.TensorDesc{t(1024, 4)},
				Outputs: []ir.TensorDesc{t(1024, 3)}, CallCount: 1},
		},
		Edges: [][2]int{{0, 1}, {1, 2}},
	}
}

var _ = Describe("Pipeline", func() {
	It("should schedule an operator graph end to end", func() {
		pipeline := NewBuilder().
			WithHWConfig(nerfConfig()).
			Build()

		schedule, err := pipeline.Schedule(nerfGraph())

		Expect(err).ToNot(HaveOccurred())
		Expect(schedule.Entries).To(HaveLen(3))
		Expect(schedule.TotalCycles).To(BeNumerically(">", 0))

		byOp := make(map[string]ir.SystemScheduleEntry)
		for _, e := range schedule.Entries {
			byOp[e.OpID] = e
		}
		Expect(byOp["enc"].HWUnit).To(Equal("hash_0"))
		Expect(byOp["mlp"].StartCycle).To(
			BeNumerically(">=", byOp["enc"].StartCycle+byOp["enc"].Duration))
		Expect(byOp["render"].StartCycle).To(
			BeNumerically(">=", byOp["mlp"].StartCycle+byOp["mlp"].Duration))
	})

	It("should produce identical schedules across runs", func() {
		pipeline := NewBuilder().
			WithHWConfig(nerfConfig()).
			Build()

		first, err := pipeline.Schedule(nerfGraph())
		Expect(err).ToNot(HaveOccurred())

		for i := 0; i < 5; i++ {
			again, err := pipeline.Schedule(nerfGraph())
			Expect(err).ToNot(HaveOccurred())
			Expect(again.Entries).To(Equal(first.Entries))
			Expect(again.TotalCycles).To(Equal(first.TotalCycles))
		}
	})

	It("should honor the selected optimizer type", func() {
		dummy := NewBuilder().
			WithHWConfig(nerfConfig()).
			WithOptimizerType(opt.Dummy).
			Build()
		analytical := NewBuilder().
			WithHWConfig(nerfConfig()).
			WithOptimizerType(opt.Analytical).
			Build()

		dummySchedule, err := dummy.Schedule(nerfGraph())
		Expect(err).ToNot(HaveOccurred())
		analyticalSchedule, err := analytical.Schedule(nerfGraph())
		Expect(err).ToNot(HaveOccurred())

		// The two cost models price the same graph differently.
		Expect(dummySchedule.TotalCycles).
			ToNot(Equal(analyticalSchedule.TotalCycles))
	})

	It("should accept a caller-provided optimizer", func() {
		fixed := fixedDurationOptimizer{duration: 11}
		pipeline := NewBuilder().
			WithHWConfig(nerfConfig()).
			WithOptimizer(fixed).
			Build()

		schedule, err := pipeline.Schedule(nerfGraph())

		Expect(err).ToNot(HaveOccurred())
		for _, e := range schedule.Entries {
			Expect(e.Duration).To(Equal(int64(11)))
		}
		Expect(schedule.TotalCycles).To(Equal(int64(33)))
	})

	It("should accept custom DAGS weights", func() {
		pipeline := NewBuilder().
			WithHWConfig(nerfConfig()).
			WithDAGSConfig(sched.DAGSConfig{Alpha: 0.9, Beta: 0.1}).
			Build()

		schedule, err := pipeline.Schedule(nerfGraph())

		Expect(err).ToNot(HaveOccurred())
		Expect(schedule.Entries).To(HaveLen(3))
	})

	It("should schedule training graphs in two phases", func() {
		graph := nerfGraph()
		graph.Nodes = append(graph.Nodes,
			ir.OperatorNode{ID: "mlp_b", OpType: "FIELD_COMPUTATION (B)",
				CallCount: 1},
			ir.OperatorNode{ID: "enc_b", OpType: "HASH_ENCODE (B)",
				CallCount: 1},
		)
		graph.Edges = append(graph.Edges, [2]int{3, 4})

		pipeline := NewBuilder().
			WithHWConfig(nerfConfig()).
			Build()

		result, err := pipeline.ScheduleTraining(graph)

		Expect(err).ToNot(HaveOccurred())
		Expect(result.ForwardOps).To(Equal(3))
		Expect(result.BackwardOps).To(Equal(2))
		Expect(result.Schedule.Entries).To(HaveLen(5))
		Expect(result.PhaseBoundary).To(BeNumerically(">", 0))
	})

	It("should expose the strategy library", func() {
		pipeline := NewBuilder().
			WithHWConfig(nerfConfig()).
			Build()

		Expect(pipeline.Library().Count()).To(BeNumerically(">", 0))
	})

	It("should collect latency measurements across the stages", func() {
		pipeline := NewBuilder().
			WithHWConfig(nerfConfig()).
			Build()

		_, err := pipeline.Schedule(nerfGraph())
		Expect(err).ToNot(HaveOccurred())

		report := pipeline.LatencyReport()
		Expect(report.Mapping.Count).To(Equal(1))
		Expect(report.OperatorTotal.Count).To(Equal(1))
		Expect(report.SystemTotal.Count).To(Equal(1))
		Expect(report.PipelineTotal.Count).To(Equal(1))

		pipeline.ClearLatencyMeasurements()
		Expect(pipeline.LatencyReport().PipelineTotal.Count).To(Equal(0))
	})

	It("should stop measuring when instrumentation is disabled", func() {
		pipeline := NewBuilder().
			WithHWConfig(nerfConfig()).
			Build()
		pipeline.SetLatencyInstrumentation(false)

		_, err := pipeline.Schedule(nerfGraph())
		Expect(err).ToNot(HaveOccurred())

		Expect(pipeline.LatencyReport().PipelineTotal.Count).To(Equal(0))
	})

	It("should panic when built without a hardware config", func() {
		Expect(func() { NewBuilder().Build() }).To(Panic())
	})
})

type fixedDurationOptimizer struct {
	duration int32
}

func (o fixedDurationOptimizer) Optimize(
	operatorType string, attrs map[string]string,
) ir.OptimizationResult {
	return ir.OptimizationResult{
		Duration:      o.duration,
		SpeedupFactor: 1.0,
		BaseDuration:  o.duration,
	}
}
