package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/anirudhsen/stagetrack/internal/db"
	"github.com/anirudhsen/stagetrack/internal/domain"
)

// stageColumns is the canonical SELECT column list for stages.
const stageColumns = `id, project_id, code, status,
		planned_start, planned_due, actual_start, completed_on,
		requires_backfill, is_auto_completed, auto_completed_from,
		created_at, updated_at`

// SQLiteStageRepo implements StageRepo using a SQLite database.
type SQLiteStageRepo struct {
	db db.DBTX
}

// NewSQLiteStageRepo creates a new SQLiteStageRepo.
func NewSQLiteStageRepo(db db.DBTX) *SQLiteStageRepo {
	return &SQLiteStageRepo{db: db}
}

func (r *SQLiteStageRepo) Create(ctx context.Context, s *domain.Stage) error {
	query := `INSERT INTO stages (` + stageColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		s.ID,
		s.ProjectID,
		s.Code,
		string(s.Status),
		nullableTimeToString(s.PlannedStart, dateLayout),
		nullableTimeToString(s.PlannedDue, dateLayout),
		nullableTimeToString(s.ActualStart, dateLayout),
		nullableTimeToString(s.CompletedOn, dateLayout),
		boolToInt(s.RequiresBackfill),
		boolToInt(s.IsAutoCompleted),
		nullableStr(s.AutoCompletedFrom),
		s.CreatedAt.Format(time.RFC3339),
		s.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting stage: %w", err)
	}
	return nil
}

func (r *SQLiteStageRepo) GetByCode(ctx context.Context, projectID, code string) (*domain.Stage, error) {
	query := `SELECT ` + stageColumns + ` FROM stages WHERE project_id = ? AND code = ?`
	return r.scanStage(r.db.QueryRowContext(ctx, query, projectID, code))
}

func (r *SQLiteStageRepo) ListByProject(ctx context.Context, projectID string) ([]*domain.Stage, error) {
	query := `SELECT ` + stageColumns + ` FROM stages WHERE project_id = ? ORDER BY created_at, code`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing stages: %w", err)
	}
	defer rows.Close()
	return r.scanStages(rows)
}

func (r *SQLiteStageRepo) ListRequiringBackfill(ctx context.Context, projectID string) ([]*domain.Stage, error) {
	query := `SELECT ` + stageColumns + ` FROM stages
		WHERE project_id = ? AND requires_backfill = 1
		ORDER BY code`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing stages requiring backfill: %w", err)
	}
	defer rows.Close()
	return r.scanStages(rows)
}

func (r *SQLiteStageRepo) Update(ctx context.Context, s *domain.Stage) error {
	query := `UPDATE stages SET status = ?,
		planned_start = ?, planned_due = ?, actual_start = ?, completed_on = ?,
		requires_backfill = ?, is_auto_completed = ?, auto_completed_from = ?,
		updated_at = ?
		WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query,
		string(s.Status),
		nullableTimeToString(s.PlannedStart, dateLayout),
		nullableTimeToString(s.PlannedDue, dateLayout),
		nullableTimeToString(s.ActualStart, dateLayout),
		nullableTimeToString(s.CompletedOn, dateLayout),
		boolToInt(s.RequiresBackfill),
		boolToInt(s.IsAutoCompleted),
		nullableStr(s.AutoCompletedFrom),
		s.UpdatedAt.Format(time.RFC3339),
		s.ID,
	)
	if err != nil {
		return fmt.Errorf("updating stage: %w", err)
	}
	return nil
}

func (r *SQLiteStageRepo) UpdatePlannedDates(ctx context.Context, projectID, code string, start, due *time.Time) error {
	query := `UPDATE stages SET planned_start = ?, planned_due = ?, updated_at = ?
		WHERE project_id = ? AND code = ?`
	_, err := r.db.ExecContext(ctx, query,
		nullableTimeToString(start, dateLayout),
		nullableTimeToString(due, dateLayout),
		time.Now().UTC().Format(time.RFC3339),
		projectID,
		code,
	)
	if err != nil {
		return fmt.Errorf("updating planned dates: %w", err)
	}
	return nil
}

// scanStage scans a single stage from a *sql.Row.
func (r *SQLiteStageRepo) scanStage(row *sql.Row) (*domain.Stage, error) {
	var s domain.Stage
	var statusStr string
	var plannedStartStr, plannedDueStr, actualStartStr, completedOnStr, autoFromStr sql.NullString
	var backfillInt, autoInt int
	var createdAtStr, updatedAtStr string

	err := row.Scan(
		&s.ID, &s.ProjectID, &s.Code, &statusStr,
		&plannedStartStr, &plannedDueStr, &actualStartStr, &completedOnStr,
		&backfillInt, &autoInt, &autoFromStr,
		&createdAtStr, &updatedAtStr,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("stage: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning stage: %w", err)
	}
	return populateStage(&s, statusStr, plannedStartStr, plannedDueStr, actualStartStr, completedOnStr, autoFromStr, backfillInt, autoInt, createdAtStr, updatedAtStr)
}

// scanStages scans multiple stages from *sql.Rows.
func (r *SQLiteStageRepo) scanStages(rows *sql.Rows) ([]*domain.Stage, error) {
	var stages []*domain.Stage
	for rows.Next() {
		var s domain.Stage
		var statusStr string
		var plannedStartStr, plannedDueStr, actualStartStr, completedOnStr, autoFromStr sql.NullString
		var backfillInt, autoInt int
		var createdAtStr, updatedAtStr string

		err := rows.Scan(
			&s.ID, &s.ProjectID, &s.Code, &statusStr,
			&plannedStartStr, &plannedDueStr, &actualStartStr, &completedOnStr,
			&backfillInt, &autoInt, &autoFromStr,
			&createdAtStr, &updatedAtStr,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning stage row: %w", err)
		}

		stage, err := populateStage(&s, statusStr, plannedStartStr, plannedDueStr, actualStartStr, completedOnStr, autoFromStr, backfillInt, autoInt, createdAtStr, updatedAtStr)
		if err != nil {
			return nil, err
		}
		stages = append(stages, stage)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stages: %w", err)
	}
	return stages, nil
}

func populateStage(
	s *domain.Stage,
	statusStr string,
	plannedStartStr, plannedDueStr, actualStartStr, completedOnStr, autoFromStr sql.NullString,
	backfillInt, autoInt int,
	createdAtStr, updatedAtStr string,
) (*domain.Stage, error) {
	s.Status = domain.StageStatus(statusStr)
	s.PlannedStart = parseNullableTime(plannedStartStr, dateLayout)
	s.PlannedDue = parseNullableTime(plannedDueStr, dateLayout)
	s.ActualStart = parseNullableTime(actualStartStr, dateLayout)
	s.CompletedOn = parseNullableTime(completedOnStr, dateLayout)
	s.RequiresBackfill = intToBool(backfillInt)
	s.IsAutoCompleted = intToBool(autoInt)
	s.AutoCompletedFrom = parseNullableStr(autoFromStr)

	var err error
	s.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	s.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return s, nil
}
