// Package contract defines the request and response types exposed by the
// engine services. Identity is resolved upstream: Actor carries the
// already-decided role booleans, never credentials.
package contract

import (
	"time"

	"github.com/anirudhsen/stagetrack/internal/domain"
)

// Actor identifies the caller and their resolved roles for the project the
// operation targets.
type Actor struct {
	ID          string
	IsRequester bool
	IsApprover  bool
}

type WarningCode string

const (
	WarnCompletionClamped  WarningCode = "COMPLETION_DATE_CLAMPED"
	WarnForceOverride      WarningCode = "PREDECESSOR_FORCE_OVERRIDE"
	WarnRequestSuperseded  WarningCode = "PENDING_REQUEST_SUPERSEDED"
	WarnBackfillOutstanding WarningCode = "BACKFILL_OUTSTANDING"
)

// Warning is a non-fatal condition attached to a successful result. It is
// always surfaced to the caller for display, never raised as an error.
type Warning struct {
	Code    WarningCode
	Message string
}

// ValidationResult is the structured outcome of stage-transition validation.
// Errors are ordered and human readable so a UI can display all problems at
// once. Missing predecessors are reported separately from Errors; IsValid
// accounts for both.
type ValidationResult struct {
	IsValid             bool
	Errors              []string
	Warnings            []Warning
	MissingPredecessors []string
	SuggestedAutoStart  *time.Time
}

// StageView is one row of the tracker view: a stage with its readiness
// context.
type StageView struct {
	Code         string
	Name         string
	Sequence     int
	Optional     bool
	Status       domain.StageStatus
	PlannedStart *time.Time
	PlannedDue   *time.Time
	ActualStart  *time.Time
	CompletedOn  *time.Time

	RequiresBackfill bool
	IsCurrent        bool
	HasPendingRequest bool
}

// DiffRow compares one stage's planned dates across two plans.
type DiffRow struct {
	StageCode string
	OldStart  *time.Time
	OldDue    *time.Time
	NewStart  *time.Time
	NewDue    *time.Time
}

// Changed reports whether the old and new planned dates differ.
func (r DiffRow) Changed() bool {
	return !equalDate(r.OldStart, r.NewStart) || !equalDate(r.OldDue, r.NewDue)
}

func equalDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
