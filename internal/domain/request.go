package domain

import "time"

// ChangeRequest is one proposed stage-status change awaiting a decision.
// At most one pending request may exist per (project, stage) at a time;
// the schema enforces this with a partial unique index.
type ChangeRequest struct {
	ID        string
	ProjectID string
	StageCode string

	RequestedStatus StageStatus
	RequestedDate   *time.Time
	Note            string
	RequestedBy     string
	RequestedOn     time.Time

	DecisionStatus DecisionStatus
	DecidedBy      *string
	DecidedOn      *time.Time
	DecisionNote   string
}
