package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/anirudhsen/stagetrack/internal/db"
	"github.com/anirudhsen/stagetrack/internal/domain"
)

// SQLiteSnapshotRepo implements SnapshotRepo using a SQLite database.
// Snapshots are immutable; only Create and read methods exist.
type SQLiteSnapshotRepo struct {
	db db.DBTX
}

// NewSQLiteSnapshotRepo creates a new SQLiteSnapshotRepo.
func NewSQLiteSnapshotRepo(db db.DBTX) *SQLiteSnapshotRepo {
	return &SQLiteSnapshotRepo{db: db}
}

func (r *SQLiteSnapshotRepo) Create(ctx context.Context, s *domain.PlanSnapshot) error {
	query := `INSERT INTO plan_snapshots (id, project_id, taken_by, taken_at) VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, s.ID, s.ProjectID, s.TakenBy, s.TakenAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting plan snapshot: %w", err)
	}

	for _, row := range s.Rows {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO plan_snapshot_rows (snapshot_id, stage_code, planned_start, planned_due) VALUES (?, ?, ?, ?)`,
			s.ID,
			row.StageCode,
			nullableTimeToString(row.PlannedStart, dateLayout),
			nullableTimeToString(row.PlannedDue, dateLayout),
		)
		if err != nil {
			return fmt.Errorf("inserting snapshot row %s: %w", row.StageCode, err)
		}
	}
	return nil
}

func (r *SQLiteSnapshotRepo) Latest(ctx context.Context, projectID string) (*domain.PlanSnapshot, error) {
	query := `SELECT id, project_id, taken_by, taken_at FROM plan_snapshots
		WHERE project_id = ? ORDER BY taken_at DESC, id DESC LIMIT 1`
	row := r.db.QueryRowContext(ctx, query, projectID)

	var s domain.PlanSnapshot
	var takenAtStr string
	err := row.Scan(&s.ID, &s.ProjectID, &s.TakenBy, &takenAtStr)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("plan snapshot: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning plan snapshot: %w", err)
	}
	s.TakenAt, err = time.Parse(time.RFC3339, takenAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing taken_at: %w", err)
	}

	s.Rows, err = r.listRows(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SQLiteSnapshotRepo) ListByProject(ctx context.Context, projectID string) ([]*domain.PlanSnapshot, error) {
	query := `SELECT id, project_id, taken_by, taken_at FROM plan_snapshots
		WHERE project_id = ? ORDER BY taken_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing plan snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*domain.PlanSnapshot
	for rows.Next() {
		var s domain.PlanSnapshot
		var takenAtStr string
		if err := rows.Scan(&s.ID, &s.ProjectID, &s.TakenBy, &takenAtStr); err != nil {
			return nil, fmt.Errorf("scanning plan snapshot row: %w", err)
		}
		s.TakenAt, err = time.Parse(time.RFC3339, takenAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing taken_at: %w", err)
		}
		snapshots = append(snapshots, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating plan snapshots: %w", err)
	}

	for _, s := range snapshots {
		s.Rows, err = r.listRows(ctx, s.ID)
		if err != nil {
			return nil, err
		}
	}
	return snapshots, nil
}

func (r *SQLiteSnapshotRepo) listRows(ctx context.Context, snapshotID string) ([]domain.SnapshotRow, error) {
	query := `SELECT snapshot_id, stage_code, planned_start, planned_due
		FROM plan_snapshot_rows WHERE snapshot_id = ? ORDER BY stage_code`
	rows, err := r.db.QueryContext(ctx, query, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("listing snapshot rows: %w", err)
	}
	defer rows.Close()

	var result []domain.SnapshotRow
	for rows.Next() {
		var sr domain.SnapshotRow
		var startStr, dueStr sql.NullString
		if err := rows.Scan(&sr.SnapshotID, &sr.StageCode, &startStr, &dueStr); err != nil {
			return nil, fmt.Errorf("scanning snapshot row: %w", err)
		}
		sr.PlannedStart = parseNullableTime(startStr, dateLayout)
		sr.PlannedDue = parseNullableTime(dueStr, dateLayout)
		result = append(result, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshot rows: %w", err)
	}
	return result, nil
}
