// Sample that schedules a small NeRF-style inference graph on an
// Instant-NGP-like accelerator and prints the resulting timeline.
package main

import (
	"fmt"
	"log"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/rendersim/api"
	"github.com/sarchlab/rendersim/config"
	"github.com/sarchlab/rendersim/ir"
	"github.com/sarchlab/rendersim/opt"
	"github.com/sarchlab/rendersim/timing"
)

func nerfGraph() *ir.OperatorGraph {
	tensor := func(dims ...int32) ir.TensorDesc {
		return ir.TensorDesc{Shape: dims, DType: "float32"}
	}

	nodes := []ir.OperatorNode{
		{
			ID:        "ray_sampling",
			OpType:    "SAMPLING",
			Inputs:    []ir.TensorDesc{tensor(1024, 3)},
			Outputs:   []ir.TensorDesc{tensor(1024, 64, 3)},
			CallCount: 1,
		},
		{
			ID:        "hash_encode",
			OpType:    "HASH_ENCODE",
			Inputs:    []ir.TensorDesc{tensor(1024, 64, 3)},
			Outputs:   []ir.TensorDesc{tensor(1024, 64, 32)},
			CallCount: 1,
		},
		{
			ID:        "density_mlp",
			OpType:    "FIELD_COMPUTATION",
			Inputs:    []ir.TensorDesc{tensor(1024, 64, 32)},
			Outputs:   []ir.TensorDesc{tensor(1024, 64, 16)},
			CallCount: 1,
		},
		{
			ID:        "color_mlp",
			OpType:    "FIELD_COMPUTATION",
			Inputs:    []ir.TensorDesc{tensor(1024, 64, 16)},
			Outputs:   []ir.TensorDesc{tensor(1024, 64, 3)},
			CallCount: 1,
		},
		{
			ID:        "volume_render",
			OpType:    "VOLUME_RENDERING",
			Inputs:    []ir.TensorDesc{tensor(1024, 64, 3), tensor(1024, 64, 1)},
			Outputs:   []ir.TensorDesc{tensor(1024, 3)},
			CallCount: 1,
		},
		{
			ID:        "blend",
			OpType:    "BLENDING",
			Inputs:    []ir.TensorDesc{tensor(1024, 3)},
			Outputs:   []ir.TensorDesc{tensor(1024, 3)},
			CallCount: 1,
		},
	}

	edges := [][2]int{
		{0, 1}, // ray_sampling -> hash_encode
		{1, 2}, // hash_encode -> density_mlp
		{2, 3}, // density_mlp -> color_mlp
		{2, 4}, // density_mlp -> volume_render
		{3, 4}, // color_mlp -> volume_render
		{4, 5}, // volume_render -> blend
	}

	return &ir.OperatorGraph{Nodes: nodes, Edges: edges}
}

func nerfAccelerator() *config.HWConfig {
	return &config.HWConfig{
		AcceleratorName: "instant-ngp-lite",
		Units: []config.HWUnit{
			{ID: "sampler_0", Type: "SAMPLING"},
			{ID: "hash_unit_0", Type: "HASH_ENCODE"},
			{ID: "mlp_engine_0", Type: "FIELD_COMPUTATION"},
			{ID: "mlp_engine_1", Type: "FIELD_COMPUTATION"},
			{ID: "render_core_0", Type: "VOLUME_RENDERING"},
			{ID: "blender_0", Type: "BLENDING"},
		},
	}
}

func main() {
	pipeline := api.NewBuilder().
		WithHWConfig(nerfAccelerator()).
		WithOptimizerType(opt.Analytical).
		Build()

	schedule, err := pipeline.Schedule(nerfGraph())
	if err != nil {
		log.Fatalf("scheduling NeRF graph: %v", err)
	}

	fmt.Println(schedule.Render())

	stats := pipeline.SystemScheduler().LastStats()
	fmt.Printf("Total cycles:          %d\n", schedule.TotalCycles)
	fmt.Printf("Scheduling efficiency: %.3f\n", stats.SchedulingEfficiency)
	fmt.Printf("Resource balance:      %.3f\n", stats.ResourceBalanceFactor)

	frameTime := timing.CyclesAt(schedule.TotalCycles, 1*sim.GHz)
	fmt.Printf("Frame time at 1 GHz:   %.6f s\n", float64(frameTime))

	latency := pipeline.LatencyReport()
	fmt.Println()
	fmt.Println(latency.Render())

	atexit.Exit(0)
}
