package verify

import (
	"fmt"
	"sort"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/rendersim/ir"
)

// replayer re-executes a schedule one cycle per tick. It keeps its own
// view of unit occupancy and operator completion, so a disagreement with
// the schedule points at the scheduler rather than at shared state.
type replayer struct {
	*sim.TickingComponent

	startsAt     map[int64][]*ir.SystemScheduleEntry
	predecessors map[string][]string
	finishCycle  map[string]int64
	unitBusy     map[string]int64

	cycle     int64
	lastCycle int64
	issues    []Issue
}

// Tick advances the replay by one cycle. It admits every operator whose
// start cycle equals the current cycle, recording an issue when the
// operator's unit is still busy or a predecessor has not finished.
func (r *replayer) Tick() bool {
	if r.cycle > r.lastCycle {
		return false
	}

	entries := r.startsAt[r.cycle]
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].OpID < entries[j].OpID
	})

	for _, entry := range entries {
		if busyUntil, ok := r.unitBusy[entry.HWUnit]; ok && busyUntil > r.cycle {
			r.issues = append(r.issues, Issue{
				Type:   IssueOccupancy,
				OpID:   entry.OpID,
				HWUnit: entry.HWUnit,
				Message: fmt.Sprintf(
					"replay: %s busy until cycle %d when %s starts at %d",
					entry.HWUnit, busyUntil, entry.OpID, r.cycle),
			})
		}
		for _, pred := range r.predecessors[entry.OpID] {
			finish, done := r.finishCycle[pred]
			if !done || finish > r.cycle {
				r.issues = append(r.issues, Issue{
					Type: IssueDependency,
					OpID: entry.OpID,
					Message: fmt.Sprintf(
						"replay: %s starts at cycle %d before %s completes",
						entry.OpID, r.cycle, pred),
				})
			}
		}

		finish := entry.StartCycle + entry.Duration
		r.unitBusy[entry.HWUnit] = finish
		r.finishCycle[entry.OpID] = finish
	}

	r.cycle++
	return true
}

// ReplaySchedule re-executes the schedule on a serial engine and returns
// the issues discovered during replay.
func ReplaySchedule(schedule *ir.SystemSchedule, source *ir.OperatorScheduledIR) []Issue {
	engine := sim.NewSerialEngine()

	r := &replayer{
		startsAt:     make(map[int64][]*ir.SystemScheduleEntry),
		predecessors: make(map[string][]string),
		finishCycle:  make(map[string]int64),
		unitBusy:     make(map[string]int64),
	}
	r.TickingComponent = sim.NewTickingComponent(
		"ScheduleReplayer", engine, 1*sim.GHz, r)

	for i := range schedule.Entries {
		entry := &schedule.Entries[i]
		r.startsAt[entry.StartCycle] = append(r.startsAt[entry.StartCycle], entry)
		if finish := entry.StartCycle + entry.Duration; finish > r.lastCycle {
			r.lastCycle = finish
		}
	}
	for _, e := range source.Edges {
		r.predecessors[e.Dst] = append(r.predecessors[e.Dst], e.Src)
	}

	engine.Schedule(sim.MakeTickEvent(r.TickingComponent, 0))
	err := engine.Run()
	if err != nil {
		return []Issue{{
			Type:    IssueTotals,
			Message: fmt.Sprintf("replay engine failed: %v", err),
		}}
	}

	return r.issues
}

// Verify runs static checks and the engine replay, returning a combined
// report.
func Verify(schedule *ir.SystemSchedule, source *ir.OperatorScheduledIR) *Report {
	report := &Report{
		Schedule: schedule,
		Issues:   Check(schedule, source),
		Replayed: true,
	}
	replayIssues := ReplaySchedule(schedule, source)
	report.Issues = append(report.Issues, replayIssues...)
	report.ReplayOK = len(replayIssues) == 0
	return report
}
