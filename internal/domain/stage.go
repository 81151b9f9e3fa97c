package domain

import "time"

// Stage is one row per project x stage code. Planned dates come from plan
// generation; actual dates from the workflow services.
type Stage struct {
	ID        string
	ProjectID string
	Code      string
	Status    StageStatus

	PlannedStart *time.Time
	PlannedDue   *time.Time
	ActualStart  *time.Time
	CompletedOn  *time.Time

	// RequiresBackfill marks a completed stage whose actual dates are still
	// missing (administrative completion or cascade auto-backfill).
	RequiresBackfill bool
	IsAutoCompleted  bool
	// AutoCompletedFrom holds the stage code whose forced completion
	// cascaded into this one. Nil for explicit mutations.
	AutoCompletedFrom *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DatesComplete reports whether both actual dates are populated.
func (s *Stage) DatesComplete() bool {
	return s.ActualStart != nil && s.CompletedOn != nil
}
