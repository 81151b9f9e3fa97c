package planner

import (
	"testing"
	"time"

	"github.com/anirudhsen/stagetrack/internal/calendar"
	"github.com/anirudhsen/stagetrack/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func TestGenerate_SkipsWeekendsAndHolidays(t *testing.T) {
	// Holiday on Friday Jan 26; weekends excluded. A 3-day stage starting
	// Thursday Jan 25 works Jan 25, Jan 29, Jan 30.
	cal := calendar.New([]time.Time{d(2024, 1, 26)}, false, true)

	rows := Generate(Input{
		Anchor: d(2024, 1, 25),
		Durations: []domain.PlanDuration{
			{StageCode: "FEASIBILITY", Days: 3, SortOrder: 1},
		},
		Calendar: cal,
		HandOff:  domain.HandOffNextWorkingDay,
	})

	require.Len(t, rows, 1)
	assert.Equal(t, d(2024, 1, 25), rows[0].PlannedStart)
	assert.Equal(t, d(2024, 1, 30), rows[0].PlannedDue)
}

func TestGenerate_HandOffPolicies(t *testing.T) {
	cal := calendar.New(nil, false, true)
	durations := []domain.PlanDuration{
		{StageCode: "A", Days: 2, SortOrder: 1}, // Mon Jan 8 - Tue Jan 9
		{StageCode: "B", Days: 1, SortOrder: 2},
	}

	next := Generate(Input{Anchor: d(2024, 1, 8), Durations: durations, Calendar: cal, HandOff: domain.HandOffNextWorkingDay})
	require.Len(t, next, 2)
	assert.Equal(t, d(2024, 1, 10), next[1].PlannedStart, "next-working-day hand-off")

	same := Generate(Input{Anchor: d(2024, 1, 8), Durations: durations, Calendar: cal, HandOff: domain.HandOffSameDay})
	require.Len(t, same, 2)
	assert.Equal(t, d(2024, 1, 9), same[1].PlannedStart, "same-day hand-off reuses the due date")
}

func TestGenerate_UnconfiguredStagesLeftOut(t *testing.T) {
	cal := calendar.New(nil, false, true)

	rows := Generate(Input{
		Anchor: d(2024, 1, 8),
		Durations: []domain.PlanDuration{
			{StageCode: "A", Days: 2, SortOrder: 1},
			{StageCode: "B", Days: 0, SortOrder: 2},
			{StageCode: "C", Days: 1, SortOrder: 3},
		},
		Calendar: cal,
		HandOff:  domain.HandOffNextWorkingDay,
	})

	require.Len(t, rows, 2)
	assert.Equal(t, "A", rows[0].StageCode)
	assert.Equal(t, "C", rows[1].StageCode)
	// C follows A directly since B is unscheduled.
	assert.Equal(t, d(2024, 1, 10), rows[1].PlannedStart)
}

func TestGenerate_AnchorOnWeekendRollsForward(t *testing.T) {
	cal := calendar.New(nil, false, true)

	rows := Generate(Input{
		Anchor:    d(2024, 1, 6), // Saturday
		Durations: []domain.PlanDuration{{StageCode: "A", Days: 1, SortOrder: 1}},
		Calendar:  cal,
		HandOff:   domain.HandOffNextWorkingDay,
	})

	require.Len(t, rows, 1)
	assert.Equal(t, d(2024, 1, 8), rows[0].PlannedStart)
}

func TestGenerate_Idempotent(t *testing.T) {
	cal := calendar.New([]time.Time{d(2024, 1, 26)}, false, true)
	in := Input{
		Anchor: d(2024, 1, 25),
		Durations: []domain.PlanDuration{
			{StageCode: "A", Days: 3, SortOrder: 1},
			{StageCode: "B", Days: 5, SortOrder: 2},
		},
		Calendar: cal,
		HandOff:  domain.HandOffNextWorkingDay,
	}

	assert.Equal(t, Generate(in), Generate(in))
}
