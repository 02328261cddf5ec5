package api

import (
	"github.com/sarchlab/rendersim/config"
	"github.com/sarchlab/rendersim/ir"
	"github.com/sarchlab/rendersim/mapping"
	"github.com/sarchlab/rendersim/opt"
	"github.com/sarchlab/rendersim/sched"
	"github.com/sarchlab/rendersim/timing"
)

// Pipeline runs the full scheduling flow: operator graph → mapped IR →
// operator-scheduled IR → system schedule. Each Schedule call produces a
// fresh result; the pipeline retains only configuration and diagnostic
// state between calls. A pipeline is not safe for concurrent Schedule
// calls because the timer and stats are shared; use one pipeline per
// goroutine.
type Pipeline struct {
	hwConfig  *config.HWConfig
	library   *opt.Library
	optimizer opt.Optimizer
	opSched   *sched.OperatorLevelScheduler
	sysSched  *sched.SystemLevelScheduler
	timer     *timing.PerformanceTimer

	instrumentation bool
}

// Schedule maps and schedules an operator graph.
func (p *Pipeline) Schedule(graph *ir.OperatorGraph) (*ir.SystemSchedule, error) {
	if p.instrumentation {
		p.timer.Start("pipeline_total")
		defer p.timer.End("pipeline_total")
	}

	if p.instrumentation {
		p.timer.Start("mapping")
	}
	mapped, err := mapping.MapOperatorGraph(graph, p.hwConfig)
	if p.instrumentation {
		p.timer.End("mapping")
	}
	if err != nil {
		return nil, err
	}

	return p.ScheduleMapped(mapped), nil
}

// ScheduleMapped runs the two scheduling stages on an already-mapped IR,
// the entry point for externally produced mapped-IR JSON.
func (p *Pipeline) ScheduleMapped(mapped *ir.MappedIR) *ir.SystemSchedule {
	opScheduled := p.opSched.Schedule(mapped)
	return p.sysSched.Schedule(opScheduled)
}

// ScheduleTraining maps a training graph and schedules it in
// forward/backward phases.
func (p *Pipeline) ScheduleTraining(graph *ir.OperatorGraph) (*sched.TrainingScheduleResult, error) {
	if p.instrumentation {
		p.timer.Start("pipeline_total")
		defer p.timer.End("pipeline_total")
	}

	if p.instrumentation {
		p.timer.Start("mapping")
	}
	mapped, err := mapping.MapOperatorGraph(graph, p.hwConfig)
	if p.instrumentation {
		p.timer.End("mapping")
	}
	if err != nil {
		return nil, err
	}

	opScheduled := p.opSched.Schedule(mapped)
	return p.sysSched.ScheduleTraining(opScheduled), nil
}

// OperatorScheduler exposes the operator-level stage for callers that
// need its statistics.
func (p *Pipeline) OperatorScheduler() *sched.OperatorLevelScheduler {
	return p.opSched
}

// SystemScheduler exposes the system-level stage for callers that need
// its statistics or DAGS reconfiguration.
func (p *Pipeline) SystemScheduler() *sched.SystemLevelScheduler {
	return p.sysSched
}

// Library exposes the optimization-strategy library.
func (p *Pipeline) Library() *opt.Library {
	return p.library
}

// SetLatencyInstrumentation toggles stage timing across all stages.
func (p *Pipeline) SetLatencyInstrumentation(enabled bool) {
	p.instrumentation = enabled
	p.opSched.SetLatencyInstrumentation(enabled)
	p.sysSched.SetLatencyInstrumentation(enabled)
}

// ClearLatencyMeasurements wipes the shared timer.
func (p *Pipeline) ClearLatencyMeasurements() {
	p.timer.Clear()
}

// LatencyReport assembles the per-stage latency statistics of the last
// run (and, via totals and counts, of all runs since the last clear).
func (p *Pipeline) LatencyReport() timing.SchedulingLatencyReport {
	t := p.timer
	return timing.SchedulingLatencyReport{
		Mapping:                      t.StatsFor("mapping"),
		OperatorHWGrouping:           t.StatsFor("operator_hw_grouping"),
		OperatorHWScheduling:         t.StatsFor("operator_hw_scheduling"),
		OperatorDependencyResolution: t.StatsFor("operator_dependency_resolution"),
		OperatorTotal:                t.StatsFor("operator_total"),
		SystemDependencyGraph:        t.StatsFor("system_dependency_graph"),
		SystemHeuristicComputation:   t.StatsFor("system_heuristic_computation"),
		SystemSchedulingLoop:         t.StatsFor("system_scheduling_loop"),
		SystemFinalization:           t.StatsFor("system_finalization"),
		SystemTotal:                  t.StatsFor("system_total"),
		PipelineTotal:                t.StatsFor("pipeline_total"),
	}
}
