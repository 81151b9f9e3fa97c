package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/anirudhsen/stagetrack/internal/db"
	"github.com/anirudhsen/stagetrack/internal/domain"
)

// SQLiteScheduleRepo implements ScheduleRepo using a SQLite database. It
// covers plan durations, per-project schedule settings, and the shared
// holiday list.
type SQLiteScheduleRepo struct {
	db db.DBTX
}

// NewSQLiteScheduleRepo creates a new SQLiteScheduleRepo.
func NewSQLiteScheduleRepo(db db.DBTX) *SQLiteScheduleRepo {
	return &SQLiteScheduleRepo{db: db}
}

func (r *SQLiteScheduleRepo) GetSettings(ctx context.Context, projectID string) (*domain.ScheduleSettings, error) {
	query := `SELECT project_id, anchor_start, include_weekends, skip_holidays, handoff_policy
		FROM schedule_settings WHERE project_id = ?`
	row := r.db.QueryRowContext(ctx, query, projectID)

	var s domain.ScheduleSettings
	var anchorStr sql.NullString
	var weekendsInt, holidaysInt int
	var handOffStr string
	err := row.Scan(&s.ProjectID, &anchorStr, &weekendsInt, &holidaysInt, &handOffStr)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("schedule settings: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning schedule settings: %w", err)
	}
	s.AnchorStart = parseNullableTime(anchorStr, dateLayout)
	s.IncludeWeekends = intToBool(weekendsInt)
	s.SkipHolidays = intToBool(holidaysInt)
	s.HandOff = domain.HandOffPolicy(handOffStr)
	return &s, nil
}

func (r *SQLiteScheduleRepo) UpsertSettings(ctx context.Context, s *domain.ScheduleSettings) error {
	query := `INSERT INTO schedule_settings (project_id, anchor_start, include_weekends, skip_holidays, handoff_policy)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(project_id) DO UPDATE SET
			anchor_start = excluded.anchor_start,
			include_weekends = excluded.include_weekends,
			skip_holidays = excluded.skip_holidays,
			handoff_policy = excluded.handoff_policy`
	_, err := r.db.ExecContext(ctx, query,
		s.ProjectID,
		nullableTimeToString(s.AnchorStart, dateLayout),
		boolToInt(s.IncludeWeekends),
		boolToInt(s.SkipHolidays),
		string(s.HandOff),
	)
	if err != nil {
		return fmt.Errorf("upserting schedule settings: %w", err)
	}
	return nil
}

func (r *SQLiteScheduleRepo) ListDurations(ctx context.Context, projectID string) ([]domain.PlanDuration, error) {
	query := `SELECT project_id, stage_code, days, sort_order
		FROM plan_durations WHERE project_id = ? ORDER BY sort_order`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing plan durations: %w", err)
	}
	defer rows.Close()

	var durations []domain.PlanDuration
	for rows.Next() {
		var d domain.PlanDuration
		if err := rows.Scan(&d.ProjectID, &d.StageCode, &d.Days, &d.SortOrder); err != nil {
			return nil, fmt.Errorf("scanning plan duration: %w", err)
		}
		durations = append(durations, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating plan durations: %w", err)
	}
	return durations, nil
}

func (r *SQLiteScheduleRepo) UpsertDuration(ctx context.Context, d *domain.PlanDuration) error {
	query := `INSERT INTO plan_durations (project_id, stage_code, days, sort_order)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(project_id, stage_code) DO UPDATE SET
			days = excluded.days,
			sort_order = excluded.sort_order`
	_, err := r.db.ExecContext(ctx, query, d.ProjectID, d.StageCode, d.Days, d.SortOrder)
	if err != nil {
		return fmt.Errorf("upserting plan duration: %w", err)
	}
	return nil
}

func (r *SQLiteScheduleRepo) ListHolidays(ctx context.Context) ([]time.Time, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT day FROM holidays ORDER BY day`)
	if err != nil {
		return nil, fmt.Errorf("listing holidays: %w", err)
	}
	defer rows.Close()

	var days []time.Time
	for rows.Next() {
		var dayStr string
		if err := rows.Scan(&dayStr); err != nil {
			return nil, fmt.Errorf("scanning holiday: %w", err)
		}
		day, err := time.Parse(dateLayout, dayStr)
		if err != nil {
			return nil, fmt.Errorf("parsing holiday %q: %w", dayStr, err)
		}
		days = append(days, day)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating holidays: %w", err)
	}
	return days, nil
}

func (r *SQLiteScheduleRepo) ReplaceHolidays(ctx context.Context, days []time.Time) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM holidays`); err != nil {
		return fmt.Errorf("clearing holidays: %w", err)
	}
	for _, day := range days {
		if _, err := r.db.ExecContext(ctx, `INSERT INTO holidays (day) VALUES (?)`, day.Format(dateLayout)); err != nil {
			return fmt.Errorf("inserting holiday: %w", err)
		}
	}
	return nil
}
