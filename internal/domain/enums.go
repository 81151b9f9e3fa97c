package domain

// StageStatus is the closed set of lifecycle states a project stage moves
// through. The transition policy and the mutation rules in internal/workflow
// switch exhaustively over this set.
type StageStatus string

const (
	StageNotStarted StageStatus = "not_started"
	StageInProgress StageStatus = "in_progress"
	StageBlocked    StageStatus = "blocked"
	StageCompleted  StageStatus = "completed"
	StageSkipped    StageStatus = "skipped"
)

// StageReopen is a pseudo-action accepted only by direct apply. It resolves
// to StageInProgress when a date is supplied, otherwise StageNotStarted,
// before validation runs. It is never stored.
const StageReopen StageStatus = "reopen"

// ValidStageStatuses is the canonical set of storable status strings.
var ValidStageStatuses = map[string]bool{
	"not_started": true, "in_progress": true, "blocked": true,
	"completed": true, "skipped": true,
}

type DecisionStatus string

const (
	DecisionPending    DecisionStatus = "pending"
	DecisionApproved   DecisionStatus = "approved"
	DecisionRejected   DecisionStatus = "rejected"
	DecisionSuperseded DecisionStatus = "superseded"
)

// LogAction tags a change-log row with the operation that produced it.
type LogAction string

const (
	ActionRequested      LogAction = "requested"
	ActionApproved       LogAction = "approved"
	ActionRejected       LogAction = "rejected"
	ActionDirectApply    LogAction = "direct_apply"
	ActionAutoBackfill   LogAction = "auto_backfill"
	ActionApplied        LogAction = "applied"
	ActionSuperseded     LogAction = "superseded"
	ActionBackfill       LogAction = "backfill"
	ActionActualsUpdated LogAction = "actuals_updated"
)

// HandOffPolicy controls whether a stage's planned start reuses the previous
// stage's due date or advances to the next working day.
type HandOffPolicy string

const (
	HandOffSameDay        HandOffPolicy = "same_day"
	HandOffNextWorkingDay HandOffPolicy = "next_working_day"
)
