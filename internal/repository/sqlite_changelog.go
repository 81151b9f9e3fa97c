package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/anirudhsen/stagetrack/internal/db"
	"github.com/anirudhsen/stagetrack/internal/domain"
)

const changeLogColumns = `id, project_id, stage_code, action,
		from_status, to_status, from_actual_start, to_actual_start,
		from_completed_on, to_completed_on, actor, note, created_at`

// SQLiteChangeLogRepo implements ChangeLogRepo using a SQLite database.
// The change log is append-only; there are no update or delete methods.
type SQLiteChangeLogRepo struct {
	db db.DBTX
}

// NewSQLiteChangeLogRepo creates a new SQLiteChangeLogRepo.
func NewSQLiteChangeLogRepo(db db.DBTX) *SQLiteChangeLogRepo {
	return &SQLiteChangeLogRepo{db: db}
}

func (r *SQLiteChangeLogRepo) Append(ctx context.Context, e *domain.ChangeLogEntry) error {
	query := `INSERT INTO change_log (` + changeLogColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		e.ID,
		e.ProjectID,
		e.StageCode,
		string(e.Action),
		nullableStatus(e.FromStatus),
		nullableStatus(e.ToStatus),
		nullableTimeToString(e.FromActualStart, dateLayout),
		nullableTimeToString(e.ToActualStart, dateLayout),
		nullableTimeToString(e.FromCompletedOn, dateLayout),
		nullableTimeToString(e.ToCompletedOn, dateLayout),
		e.Actor,
		e.Note,
		e.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("appending change log entry: %w", err)
	}
	return nil
}

func (r *SQLiteChangeLogRepo) ListByProject(ctx context.Context, projectID string) ([]*domain.ChangeLogEntry, error) {
	query := `SELECT ` + changeLogColumns + ` FROM change_log WHERE project_id = ? ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing change log: %w", err)
	}
	defer rows.Close()
	return r.scanEntries(rows)
}

func (r *SQLiteChangeLogRepo) ListByStage(ctx context.Context, projectID, stageCode string) ([]*domain.ChangeLogEntry, error) {
	query := `SELECT ` + changeLogColumns + ` FROM change_log
		WHERE project_id = ? AND stage_code = ? ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, projectID, stageCode)
	if err != nil {
		return nil, fmt.Errorf("listing change log by stage: %w", err)
	}
	defer rows.Close()
	return r.scanEntries(rows)
}

func (r *SQLiteChangeLogRepo) scanEntries(rows *sql.Rows) ([]*domain.ChangeLogEntry, error) {
	var entries []*domain.ChangeLogEntry
	for rows.Next() {
		var e domain.ChangeLogEntry
		var actionStr string
		var fromStatusStr, toStatusStr sql.NullString
		var fromStartStr, toStartStr, fromDoneStr, toDoneStr sql.NullString
		var createdAtStr string

		err := rows.Scan(
			&e.ID, &e.ProjectID, &e.StageCode, &actionStr,
			&fromStatusStr, &toStatusStr, &fromStartStr, &toStartStr,
			&fromDoneStr, &toDoneStr, &e.Actor, &e.Note, &createdAtStr,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning change log entry: %w", err)
		}

		e.Action = domain.LogAction(actionStr)
		e.FromStatus = parseNullableStatus(fromStatusStr)
		e.ToStatus = parseNullableStatus(toStatusStr)
		e.FromActualStart = parseNullableTime(fromStartStr, dateLayout)
		e.ToActualStart = parseNullableTime(toStartStr, dateLayout)
		e.FromCompletedOn = parseNullableTime(fromDoneStr, dateLayout)
		e.ToCompletedOn = parseNullableTime(toDoneStr, dateLayout)

		e.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating change log: %w", err)
	}
	return entries, nil
}

func nullableStatus(s *domain.StageStatus) interface{} {
	if s == nil {
		return nil
	}
	return string(*s)
}

func parseNullableStatus(s sql.NullString) *domain.StageStatus {
	if !s.Valid || s.String == "" {
		return nil
	}
	v := domain.StageStatus(s.String)
	return &v
}
