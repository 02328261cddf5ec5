// Package verify provides internal debugging tools for schedule
// verification.
//
// Two complementary stages:
//
// 1. Static checks (Check): structural validation of a SystemSchedule
// against its source IR: completeness, dependency ordering, exclusive
// hardware-unit occupancy, and total-cycle consistency.
//
// 2. Replay (ReplaySchedule): re-executes the schedule cycle by cycle on
// an akita serial engine, independently re-deriving unit occupancy and
// dependency readiness at the moment each operator starts. Useful for
// isolating scheduler bugs from checker bugs, since the replay shares no
// bookkeeping with the scheduler.
package verify

import (
	"fmt"
	"sort"

	"github.com/sarchlab/rendersim/ir"
)

// IssueType classifies a verification finding.
type IssueType int

const (
	// IssueCompleteness is a missing or duplicated operator entry.
	IssueCompleteness IssueType = iota
	// IssueDependency is a producer finishing after its consumer starts.
	IssueDependency
	// IssueOccupancy is two operators overlapping on one hardware unit.
	IssueOccupancy
	// IssueTotals is a TotalCycles value inconsistent with the entries.
	IssueTotals
)

// Name returns the name of the issue type.
func (t IssueType) Name() string {
	switch t {
	case IssueCompleteness:
		return "COMPLETENESS"
	case IssueDependency:
		return "DEPENDENCY"
	case IssueOccupancy:
		return "OCCUPANCY"
	case IssueTotals:
		return "TOTALS"
	default:
		panic("invalid issue type")
	}
}

// Issue is one verification finding.
type Issue struct {
	Type    IssueType
	OpID    string
	HWUnit  string
	Message string
}

// Check runs all static schedule checks and returns the issues found.
func Check(schedule *ir.SystemSchedule, source *ir.OperatorScheduledIR) []Issue {
	var issues []Issue
	issues = append(issues, checkCompleteness(schedule, source)...)
	issues = append(issues, checkDependencies(schedule, source.Edges)...)
	issues = append(issues, checkOccupancy(schedule)...)
	issues = append(issues, checkTotals(schedule)...)
	return issues
}

func checkCompleteness(schedule *ir.SystemSchedule, source *ir.OperatorScheduledIR) []Issue {
	var issues []Issue

	seen := make(map[string]int)
	for _, entry := range schedule.Entries {
		seen[entry.OpID]++
	}
	for id, count := range seen {
		if count > 1 {
			issues = append(issues, Issue{
				Type:    IssueCompleteness,
				OpID:    id,
				Message: fmt.Sprintf("operator %s scheduled %d times", id, count),
			})
		}
		if source.Nodes[id] == nil {
			issues = append(issues, Issue{
				Type:    IssueCompleteness,
				OpID:    id,
				Message: fmt.Sprintf("operator %s not present in source IR", id),
			})
		}
	}
	for id := range source.Nodes {
		if seen[id] == 0 {
			issues = append(issues, Issue{
				Type:    IssueCompleteness,
				OpID:    id,
				Message: fmt.Sprintf("operator %s missing from schedule", id),
			})
		}
	}

	return issues
}

func checkDependencies(schedule *ir.SystemSchedule, edges []ir.Edge) []Issue {
	byOp := make(map[string]*ir.SystemScheduleEntry, len(schedule.Entries))
	for i := range schedule.Entries {
		byOp[schedule.Entries[i].OpID] = &schedule.Entries[i]
	}

	var issues []Issue
	for _, e := range edges {
		src, srcOK := byOp[e.Src]
		dst, dstOK := byOp[e.Dst]
		if !srcOK || !dstOK {
			continue
		}
		if src.StartCycle+src.Duration > dst.StartCycle {
			issues = append(issues, Issue{
				Type: IssueDependency,
				OpID: e.Dst,
				Message: fmt.Sprintf(
					"%s finishes at %d but consumer %s starts at %d",
					e.Src, src.StartCycle+src.Duration, e.Dst, dst.StartCycle),
			})
		}
	}
	return issues
}

func checkOccupancy(schedule *ir.SystemSchedule) []Issue {
	byUnit := make(map[string][]*ir.SystemScheduleEntry)
	for i := range schedule.Entries {
		e := &schedule.Entries[i]
		byUnit[e.HWUnit] = append(byUnit[e.HWUnit], e)
	}

	var issues []Issue
	units := make([]string, 0, len(byUnit))
	for unit := range byUnit {
		units = append(units, unit)
	}
	sort.Strings(units)

	for _, unit := range units {
		entries := byUnit[unit]
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].StartCycle != entries[j].StartCycle {
				return entries[i].StartCycle < entries[j].StartCycle
			}
			return entries[i].OpID < entries[j].OpID
		})
		for i := 1; i < len(entries); i++ {
			prev, curr := entries[i-1], entries[i]
			if prev.StartCycle+prev.Duration > curr.StartCycle {
				issues = append(issues, Issue{
					Type:   IssueOccupancy,
					OpID:   curr.OpID,
					HWUnit: unit,
					Message: fmt.Sprintf(
						"%s [%d,%d) overlaps %s [%d,%d) on %s",
						prev.OpID, prev.StartCycle, prev.StartCycle+prev.Duration,
						curr.OpID, curr.StartCycle, curr.StartCycle+curr.Duration,
						unit),
				})
			}
		}
	}
	return issues
}

func checkTotals(schedule *ir.SystemSchedule) []Issue {
	var maxFinish int64
	for _, entry := range schedule.Entries {
		if finish := entry.StartCycle + entry.Duration; finish > maxFinish {
			maxFinish = finish
		}
	}
	if schedule.TotalCycles < maxFinish {
		return []Issue{{
			Type: IssueTotals,
			Message: fmt.Sprintf(
				"total_cycles %d is below max entry finish %d",
				schedule.TotalCycles, maxFinish),
		}}
	}
	return nil
}
