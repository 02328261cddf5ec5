// Command rendersim-sched runs the scheduling pipeline on a mapped IR
// file and prints the resulting system schedule.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/rendersim/api"
	"github.com/sarchlab/rendersim/config"
	"github.com/sarchlab/rendersim/mapping"
	"github.com/sarchlab/rendersim/opt"
	"github.com/sarchlab/rendersim/sched"
	"github.com/sarchlab/rendersim/verify"
)

var (
	hwConfigPath = flag.String("hwconfig", "",
		"path to the hardware configuration JSON file")
	mappedIRPath = flag.String("mapped-ir", "",
		"path to the mapped IR JSON file")
	optimizerName = flag.String("optimizer", "dummy",
		"optimizer to use, dummy or analytical")
	alpha = flag.Float64("alpha", 0.6,
		"weight of the successor count heuristic")
	beta = flag.Float64("beta", 0.4,
		"weight of the critical resource impact heuristic")
	runVerify = flag.Bool("verify", false,
		"verify the schedule after producing it")
	showLatency = flag.Bool("latency", false,
		"print the scheduling latency report")
	debug = flag.Bool("debug", false,
		"enable debug logging")
)

func main() {
	flag.Parse()

	if *debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	if *hwConfigPath == "" || *mappedIRPath == "" {
		flag.Usage()
		atexit.Exit(1)
	}

	hwConfig, err := config.LoadHWConfig(*hwConfigPath)
	if err != nil {
		log.Fatalf("loading hardware config: %v", err)
	}

	mapped, err := mapping.LoadMappedIR(*mappedIRPath)
	if err != nil {
		log.Fatalf("loading mapped IR: %v", err)
	}

	var optType opt.OptimizerType
	switch *optimizerName {
	case "dummy":
		optType = opt.Dummy
	case "analytical":
		optType = opt.Analytical
	default:
		log.Fatalf("unknown optimizer %q", *optimizerName)
	}

	pipeline := api.NewBuilder().
		WithHWConfig(hwConfig).
		WithOptimizerType(optType).
		WithDAGSConfig(sched.DAGSConfig{Alpha: *alpha, Beta: *beta}).
		Build()
	pipeline.SetLatencyInstrumentation(*showLatency)

	opScheduled := pipeline.OperatorScheduler().Schedule(mapped)
	schedule := pipeline.SystemScheduler().Schedule(opScheduled)

	fmt.Printf("Accelerator: %s\n\n", hwConfig.AcceleratorName)
	fmt.Println(schedule.Render())

	stats := pipeline.SystemScheduler().LastStats()
	fmt.Printf("Total cycles:          %d\n", schedule.TotalCycles)
	fmt.Printf("Scheduling efficiency: %.3f\n", stats.SchedulingEfficiency)
	fmt.Printf("Resource balance:      %.3f\n", stats.ResourceBalanceFactor)
	fmt.Printf("Peak ready queue:      %d\n", stats.ReadyQueuePeakSize)

	if *showLatency {
		latency := pipeline.LatencyReport()
		fmt.Println()
		fmt.Println(latency.Render())
	}

	if *runVerify {
		report := verify.Verify(schedule, opScheduled)
		fmt.Println()
		report.WriteReport(os.Stdout)
		if !report.Passed() {
			atexit.Exit(1)
		}
	}

	atexit.Exit(0)
}
