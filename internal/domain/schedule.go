package domain

import "time"

// PlanDuration is the configured working-day count for one stage of one
// project. Stages without a duration row are left unscheduled.
type PlanDuration struct {
	ProjectID string
	StageCode string
	Days      int
	SortOrder int
}

// ScheduleSettings holds the per-project plan-generation knobs.
type ScheduleSettings struct {
	ProjectID       string
	AnchorStart     *time.Time
	IncludeWeekends bool
	SkipHolidays    bool
	HandOff         HandOffPolicy
}

// PlanSnapshot is an immutable point-in-time copy of a project's planned
// dates, used only for diffing.
type PlanSnapshot struct {
	ID        string
	ProjectID string
	TakenBy   string
	TakenAt   time.Time
	Rows      []SnapshotRow
}

type SnapshotRow struct {
	SnapshotID   string
	StageCode    string
	PlannedStart *time.Time
	PlannedDue   *time.Time
}
