// Package planner computes planned stage dates from per-stage durations,
// an anchor date, and a working calendar.
package planner

import (
	"sort"
	"time"

	"github.com/anirudhsen/stagetrack/internal/calendar"
	"github.com/anirudhsen/stagetrack/internal/domain"
)

// Input carries everything plan generation needs. Durations with a
// non-positive day count are skipped; their stages stay unscheduled.
type Input struct {
	Anchor    time.Time
	Durations []domain.PlanDuration
	Calendar  calendar.Calendar
	HandOff   domain.HandOffPolicy
}

// Row is one generated (stage, start, due) assignment.
type Row struct {
	StageCode    string
	PlannedStart time.Time
	PlannedDue   time.Time
}

// Generate walks the durations in sort order and lays stages end to end.
// The first scheduled stage starts at the anchor (rolled forward to a
// working day); each following stage starts at the previous due date or
// the next working day after it, per the hand-off policy. A stage's due
// date is its start advanced by duration-1 working days. Generation is
// deterministic: identical inputs yield identical rows.
func Generate(in Input) []Row {
	durations := make([]domain.PlanDuration, len(in.Durations))
	copy(durations, in.Durations)
	sort.SliceStable(durations, func(i, j int) bool {
		return durations[i].SortOrder < durations[j].SortOrder
	})

	var rows []Row
	var cursor time.Time
	first := true

	for _, d := range durations {
		if d.Days <= 0 {
			continue
		}

		var start time.Time
		if first {
			start = in.Calendar.RollForward(in.Anchor)
			first = false
		} else {
			switch in.HandOff {
			case domain.HandOffSameDay:
				start = in.Calendar.RollForward(cursor)
			default:
				start = in.Calendar.NextWorkingDay(cursor)
			}
		}

		due := in.Calendar.AddWorkingDays(start, d.Days-1)
		rows = append(rows, Row{StageCode: d.StageCode, PlannedStart: start, PlannedDue: due})
		cursor = due
	}
	return rows
}
