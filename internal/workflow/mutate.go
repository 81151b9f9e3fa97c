package workflow

import (
	"time"

	"github.com/anirudhsen/stagetrack/internal/domain"
)

// WarnCompletionClamped is emitted when a completion date earlier than the
// stage's actual start is clamped up to the start.
const WarnCompletionClamped = "completion date was earlier than actual start and was adjusted to match it"

// ApplyStatus mutates the stage in place according to the per-status date
// rules and returns any warnings produced. date is the caller-supplied date
// for the transition; suggestedStart backs an absent actual start when
// completing (the max completion date of satisfied predecessors).
//
// An explicit mutation always clears the auto-completion markers; cascade
// backfill sets them directly without going through this function.
func ApplyStatus(st *domain.Stage, target domain.StageStatus, date, suggestedStart *time.Time) []string {
	var warnings []string

	switch target {
	case domain.StageNotStarted:
		st.ActualStart = nil
		st.CompletedOn = nil
		st.RequiresBackfill = false
	case domain.StageInProgress:
		if st.ActualStart == nil && date != nil {
			st.ActualStart = date
		}
		st.CompletedOn = nil
		st.RequiresBackfill = false
	case domain.StageCompleted:
		if st.ActualStart == nil {
			if suggestedStart != nil {
				st.ActualStart = suggestedStart
			} else if date != nil {
				st.ActualStart = date
			}
		}
		st.CompletedOn = date
		if st.CompletedOn != nil && st.ActualStart != nil && st.CompletedOn.Before(*st.ActualStart) {
			st.CompletedOn = st.ActualStart
			warnings = append(warnings, WarnCompletionClamped)
		}
		st.RequiresBackfill = st.ActualStart == nil || st.CompletedOn == nil
	case domain.StageBlocked, domain.StageSkipped:
		// Dates are left untouched.
		st.RequiresBackfill = false
	}

	st.Status = target
	st.IsAutoCompleted = false
	st.AutoCompletedFrom = nil
	return warnings
}
