package timing

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// LatencyStats summarizes the measurements of one pipeline stage.
type LatencyStats struct {
	TotalNS   int64
	AverageNS float64
	LastNS    int64
	Count     int
}

// SchedulingLatencyReport carries per-stage self-latency for a full
// scheduling run.
type SchedulingLatencyReport struct {
	Mapping LatencyStats

	// Operator-level scheduler stages.
	OperatorHWGrouping           LatencyStats
	OperatorHWScheduling         LatencyStats
	OperatorDependencyResolution LatencyStats
	OperatorTotal                LatencyStats

	// System-level scheduler stages.
	SystemDependencyGraph      LatencyStats
	SystemHeuristicComputation LatencyStats
	SystemSchedulingLoop       LatencyStats
	SystemFinalization         LatencyStats
	SystemTotal                LatencyStats

	PipelineTotal LatencyStats
}

// FormatDuration renders nanoseconds with an automatic unit.
func FormatDuration(ns int64) string {
	switch {
	case ns < 1_000:
		return fmt.Sprintf("%d ns", ns)
	case ns < 1_000_000:
		return fmt.Sprintf("%.3f us", float64(ns)/1e3)
	case ns < 1_000_000_000:
		return fmt.Sprintf("%.3f ms", float64(ns)/1e6)
	default:
		return fmt.Sprintf("%.3f s", float64(ns)/1e9)
	}
}

// String renders the report in a plain, log-friendly layout.
func (r *SchedulingLatencyReport) String() string {
	var b strings.Builder
	b.WriteString("=== RenderSim Scheduling Latency Report ===\n\n")

	b.WriteString("Operator-Level Scheduler:\n")
	fmt.Fprintf(&b, "  Hardware Grouping: %s\n", FormatDuration(r.OperatorHWGrouping.LastNS))
	fmt.Fprintf(&b, "  Hardware Scheduling: %s\n", FormatDuration(r.OperatorHWScheduling.LastNS))
	fmt.Fprintf(&b, "  Dependency Resolution: %s\n", FormatDuration(r.OperatorDependencyResolution.LastNS))
	fmt.Fprintf(&b, "  Total: %s\n\n", FormatDuration(r.OperatorTotal.LastNS))

	b.WriteString("System-Level Scheduler:\n")
	fmt.Fprintf(&b, "  Dependency Graph: %s\n", FormatDuration(r.SystemDependencyGraph.LastNS))
	fmt.Fprintf(&b, "  Heuristic Computation: %s\n", FormatDuration(r.SystemHeuristicComputation.LastNS))
	fmt.Fprintf(&b, "  Scheduling Loop: %s\n", FormatDuration(r.SystemSchedulingLoop.LastNS))
	fmt.Fprintf(&b, "  Finalization: %s\n", FormatDuration(r.SystemFinalization.LastNS))
	fmt.Fprintf(&b, "  Total: %s\n\n", FormatDuration(r.SystemTotal.LastNS))

	fmt.Fprintf(&b, "Pipeline Total: %s\n", FormatDuration(r.PipelineTotal.LastNS))
	return b.String()
}

// Render returns the report as a table, one row per stage.
func (r *SchedulingLatencyReport) Render() string {
	t := table.NewWriter()
	t.SetTitle("Scheduling Latency")
	t.AppendHeader(table.Row{"Stage", "Last", "Average", "Total", "Count"})

	rows := []struct {
		name  string
		stats LatencyStats
	}{
		{"mapping", r.Mapping},
		{"operator_hw_grouping", r.OperatorHWGrouping},
		{"operator_hw_scheduling", r.OperatorHWScheduling},
		{"operator_dependency_resolution", r.OperatorDependencyResolution},
		{"operator_total", r.OperatorTotal},
		{"system_dependency_graph", r.SystemDependencyGraph},
		{"system_heuristic_computation", r.SystemHeuristicComputation},
		{"system_scheduling_loop", r.SystemSchedulingLoop},
		{"system_finalization", r.SystemFinalization},
		{"system_total", r.SystemTotal},
		{"pipeline_total", r.PipelineTotal},
	}
	for _, row := range rows {
		t.AppendRow(table.Row{
			row.name,
			FormatDuration(row.stats.LastNS),
			FormatDuration(int64(row.stats.AverageNS)),
			FormatDuration(row.stats.TotalNS),
			row.stats.Count,
		})
	}
	return t.Render()
}
