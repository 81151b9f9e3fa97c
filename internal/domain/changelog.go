package domain

import "time"

// ChangeLogEntry is one append-only audit row per stage mutation or
// workflow decision. Rows are never updated or deleted.
type ChangeLogEntry struct {
	ID        string
	ProjectID string
	StageCode string
	Action    LogAction

	FromStatus *StageStatus
	ToStatus   *StageStatus

	FromActualStart *time.Time
	ToActualStart   *time.Time
	FromCompletedOn *time.Time
	ToCompletedOn   *time.Time

	Actor     string
	Note      string
	CreatedAt time.Time
}

// AuditEvent is one summary row per bulk operation (backfill batch,
// actuals batch, plan generation), written alongside the per-stage
// change-log rows.
type AuditEvent struct {
	ID        string
	ProjectID string
	Action    string
	Actor     string
	Detail    string
	CreatedAt time.Time
}
