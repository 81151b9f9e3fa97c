package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/anirudhsen/stagetrack/internal/db"
	"github.com/anirudhsen/stagetrack/internal/domain"
)

// requestColumns is the canonical SELECT column list for change_requests.
const requestColumns = `id, project_id, stage_code, requested_status, requested_date,
		note, requested_by, requested_on, decision_status, decided_by, decided_on, decision_note`

// SQLiteRequestRepo implements RequestRepo using a SQLite database.
type SQLiteRequestRepo struct {
	db db.DBTX
}

// NewSQLiteRequestRepo creates a new SQLiteRequestRepo.
func NewSQLiteRequestRepo(db db.DBTX) *SQLiteRequestRepo {
	return &SQLiteRequestRepo{db: db}
}

func (r *SQLiteRequestRepo) Create(ctx context.Context, req *domain.ChangeRequest) error {
	query := `INSERT INTO change_requests (` + requestColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		req.ID,
		req.ProjectID,
		req.StageCode,
		string(req.RequestedStatus),
		nullableTimeToString(req.RequestedDate, dateLayout),
		req.Note,
		req.RequestedBy,
		req.RequestedOn.Format(time.RFC3339),
		string(req.DecisionStatus),
		nullableStr(req.DecidedBy),
		nullableTimeToString(req.DecidedOn, time.RFC3339),
		req.DecisionNote,
	)
	if err != nil {
		return fmt.Errorf("inserting change request: %w", err)
	}
	return nil
}

func (r *SQLiteRequestRepo) GetByID(ctx context.Context, id string) (*domain.ChangeRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM change_requests WHERE id = ?`
	return r.scanRequest(r.db.QueryRowContext(ctx, query, id))
}

// GetPending returns the pending request for (project, stage), or a wrapped
// ErrNotFound when none is in flight.
func (r *SQLiteRequestRepo) GetPending(ctx context.Context, projectID, stageCode string) (*domain.ChangeRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM change_requests
		WHERE project_id = ? AND stage_code = ? AND decision_status = 'pending'`
	return r.scanRequest(r.db.QueryRowContext(ctx, query, projectID, stageCode))
}

func (r *SQLiteRequestRepo) ListPending(ctx context.Context, projectID string) ([]*domain.ChangeRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM change_requests
		WHERE project_id = ? AND decision_status = 'pending'
		ORDER BY requested_on`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing pending requests: %w", err)
	}
	defer rows.Close()

	var requests []*domain.ChangeRequest
	for rows.Next() {
		req, err := scanRequestFields(rows.Scan)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pending requests: %w", err)
	}
	return requests, nil
}

func (r *SQLiteRequestRepo) Update(ctx context.Context, req *domain.ChangeRequest) error {
	query := `UPDATE change_requests SET decision_status = ?, decided_by = ?, decided_on = ?, decision_note = ?
		WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query,
		string(req.DecisionStatus),
		nullableStr(req.DecidedBy),
		nullableTimeToString(req.DecidedOn, time.RFC3339),
		req.DecisionNote,
		req.ID,
	)
	if err != nil {
		return fmt.Errorf("updating change request: %w", err)
	}
	return nil
}

func (r *SQLiteRequestRepo) scanRequest(row *sql.Row) (*domain.ChangeRequest, error) {
	req, err := scanRequestFields(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("change request: %w", ErrNotFound)
		}
		return nil, err
	}
	return req, nil
}

// scanRequestFields scans one change request via the given Scan function,
// shared between *sql.Row and *sql.Rows.
func scanRequestFields(scan func(dest ...any) error) (*domain.ChangeRequest, error) {
	var req domain.ChangeRequest
	var requestedStatusStr, decisionStatusStr string
	var requestedDateStr, decidedByStr, decidedOnStr sql.NullString
	var requestedOnStr string

	err := scan(
		&req.ID, &req.ProjectID, &req.StageCode, &requestedStatusStr, &requestedDateStr,
		&req.Note, &req.RequestedBy, &requestedOnStr, &decisionStatusStr,
		&decidedByStr, &decidedOnStr, &req.DecisionNote,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning change request: %w", err)
	}

	req.RequestedStatus = domain.StageStatus(requestedStatusStr)
	req.DecisionStatus = domain.DecisionStatus(decisionStatusStr)
	req.RequestedDate = parseNullableTime(requestedDateStr, dateLayout)
	req.DecidedBy = parseNullableStr(decidedByStr)
	req.DecidedOn = parseNullableTime(decidedOnStr, time.RFC3339)

	req.RequestedOn, err = time.Parse(time.RFC3339, requestedOnStr)
	if err != nil {
		return nil, fmt.Errorf("parsing requested_on: %w", err)
	}
	return &req, nil
}
