// Package api assembles the scheduling stages into a single pipeline:
// mapping, operator-level scheduling, and system-level DAGS scheduling,
// with shared latency instrumentation.
package api

import (
	"github.com/sarchlab/rendersim/config"
	"github.com/sarchlab/rendersim/opt"
	"github.com/sarchlab/rendersim/sched"
	"github.com/sarchlab/rendersim/timing"
)

// Builder can build scheduling pipelines.
type Builder struct {
	hwConfig      *config.HWConfig
	library       *opt.Library
	optimizer     opt.Optimizer
	optimizerType opt.OptimizerType
	dagsConfig    sched.DAGSConfig
	timer         *timing.PerformanceTimer
}

// NewBuilder returns a builder with default DAGS weights and the dummy
// optimizer.
func NewBuilder() Builder {
	return Builder{
		optimizerType: opt.Dummy,
		dagsConfig:    sched.DefaultDAGSConfig(),
	}
}

// WithHWConfig sets the hardware catalog to map against. Required.
func (b Builder) WithHWConfig(cfg *config.HWConfig) Builder {
	b.hwConfig = cfg
	return b
}

// WithLibrary sets the optimization-strategy library. Defaults to the
// built-in library.
func (b Builder) WithLibrary(library *opt.Library) Builder {
	b.library = library
	return b
}

// WithOptimizerType selects the optimizer implementation by type.
func (b Builder) WithOptimizerType(t opt.OptimizerType) Builder {
	b.optimizerType = t
	return b
}

// WithOptimizer sets a concrete optimizer, overriding WithOptimizerType.
func (b Builder) WithOptimizer(optimizer opt.Optimizer) Builder {
	b.optimizer = optimizer
	return b
}

// WithDAGSConfig sets the system-scheduler heuristic weights.
func (b Builder) WithDAGSConfig(cfg sched.DAGSConfig) Builder {
	b.dagsConfig = cfg
	return b
}

// WithTimer sets the shared performance timer. The timer is not safe
// for concurrent use across pipelines.
func (b Builder) WithTimer(t *timing.PerformanceTimer) Builder {
	b.timer = t
	return b
}

// Build creates a pipeline.
func (b Builder) Build() *Pipeline {
	if b.hwConfig == nil {
		panic("api: pipeline requires a hardware config")
	}

	library := b.library
	if library == nil {
		library = opt.NewLibrary()
	}
	optimizer := b.optimizer
	if optimizer == nil {
		optimizer = opt.NewOptimizer(b.optimizerType, library)
	}
	timer := b.timer
	if timer == nil {
		timer = timing.NewPerformanceTimer()
	}

	opSched := sched.NewOperatorLevelScheduler(optimizer)
	opSched.UseTimer(timer)
	sysSched := sched.NewSystemLevelScheduler(b.dagsConfig)
	sysSched.UseTimer(timer)

	return &Pipeline{
		hwConfig:        b.hwConfig,
		library:         library,
		optimizer:       optimizer,
		opSched:         opSched,
		sysSched:        sysSched,
		timer:           timer,
		instrumentation: true,
	}
}
