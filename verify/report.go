package verify

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sarchlab/rendersim/ir"
)

// Report holds the outcome of verifying one schedule.
type Report struct {
	Schedule *ir.SystemSchedule
	Issues   []Issue
	Replayed bool
	ReplayOK bool
}

// Passed returns true when no static check failed and, if the schedule
// was replayed, the replay also completed cleanly.
func (r *Report) Passed() bool {
	if len(r.Issues) > 0 {
		return false
	}
	if r.Replayed && !r.ReplayOK {
		return false
	}
	return true
}

// WriteReport writes a human-readable verification report.
func (r *Report) WriteReport(w io.Writer) {
	fmt.Fprintf(w, "Schedule verification: %d entries, %d total cycles\n",
		len(r.Schedule.Entries), r.Schedule.TotalCycles)

	if len(r.Issues) == 0 {
		fmt.Fprintln(w, "Static checks: PASS")
	} else {
		fmt.Fprintf(w, "Static checks: FAIL (%d issues)\n", len(r.Issues))
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.AppendHeader(table.Row{"Type", "Operator", "HW Unit", "Detail"})
		for _, issue := range r.Issues {
			t.AppendRow(table.Row{
				issue.Type.Name(), issue.OpID, issue.HWUnit, issue.Message,
			})
		}
		t.Render()
	}

	if r.Replayed {
		if r.ReplayOK {
			fmt.Fprintln(w, "Replay: PASS")
		} else {
			fmt.Fprintln(w, "Replay: FAIL")
		}
	}
}
