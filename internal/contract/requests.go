package contract

import (
	"time"

	"github.com/anirudhsen/stagetrack/internal/domain"
)

// ValidateRequest asks whether a transition would be allowed, without
// mutating anything.
type ValidateRequest struct {
	ProjectID  string
	StageCode  string
	Target     domain.StageStatus
	Date       *time.Time
	IsApprover bool
}

// SubmitRequest proposes a stage-status change for approval.
type SubmitRequest struct {
	ProjectID string
	StageCode string
	Target    domain.StageStatus
	Date      *time.Time
	Note      string
	Actor     Actor
}

type SubmitResult struct {
	RequestID string
	Warnings  []Warning
}

// DecideRequest approves or rejects a pending change request.
type DecideRequest struct {
	RequestID string
	Approve   bool
	Note      string
	Actor     Actor
}

type DecideResult struct {
	Decision domain.DecisionStatus
	Stage    *domain.Stage
	Warnings []Warning
}

// DirectApplyRequest is the privileged single-step status change. Target
// may be domain.StageReopen, which resolves to in_progress when Date is
// set and not_started otherwise.
type DirectApplyRequest struct {
	ProjectID                 string
	StageCode                 string
	Target                    domain.StageStatus
	Date                      *time.Time
	Note                      string
	ForceBackfillPredecessors bool
	Actor                     Actor
}

type DirectApplyResult struct {
	UpdatedStatus    domain.StageStatus
	ActualStart      *time.Time
	CompletedOn      *time.Time
	BackfilledStages []string
	Warnings         []Warning
}

// StageDateUpdate is one (stage, dates) tuple of a backfill or actuals
// batch. Nil fields leave the stored value untouched.
type StageDateUpdate struct {
	StageCode   string
	ActualStart *time.Time
	CompletedOn *time.Time
}

// BatchResult summarizes a bulk backfill or actuals update.
type BatchResult struct {
	UpdatedCount int
	StageCodes   []string
	Warnings     []Warning
}

// TrackerView is the project's stage board.
type TrackerView struct {
	ProjectID        string
	CurrentStageCode string
	Stages           []StageView
}
