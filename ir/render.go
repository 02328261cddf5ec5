package ir

import (
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Render returns a human-readable table of the schedule, entries ordered
// by start cycle then operator id.
func (s *SystemSchedule) Render() string {
	entries := make([]SystemScheduleEntry, len(s.Entries))
	copy(entries, s.Entries)
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].StartCycle != entries[j].StartCycle {
			return entries[i].StartCycle < entries[j].StartCycle
		}
		return entries[i].OpID < entries[j].OpID
	})

	t := table.NewWriter()
	t.SetTitle("System Schedule (%d cycles)", s.TotalCycles)
	t.AppendHeader(table.Row{"Op", "HW Unit", "Start", "Duration", "Finish"})
	for _, e := range entries {
		t.AppendRow(table.Row{
			e.OpID, e.HWUnit, e.StartCycle, e.Duration,
			e.StartCycle + e.Duration,
		})
	}
	return t.Render()
}
