package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/anirudhsen/stagetrack/internal/db"
	"github.com/anirudhsen/stagetrack/internal/domain"
)

// SQLiteAuditRepo implements AuditRepo using a SQLite database.
type SQLiteAuditRepo struct {
	db db.DBTX
}

// NewSQLiteAuditRepo creates a new SQLiteAuditRepo.
func NewSQLiteAuditRepo(db db.DBTX) *SQLiteAuditRepo {
	return &SQLiteAuditRepo{db: db}
}

func (r *SQLiteAuditRepo) Append(ctx context.Context, e *domain.AuditEvent) error {
	query := `INSERT INTO audit_events (id, project_id, action, actor, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.ProjectID, e.Action, e.Actor, e.Detail, e.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("appending audit event: %w", err)
	}
	return nil
}

func (r *SQLiteAuditRepo) ListByProject(ctx context.Context, projectID string) ([]*domain.AuditEvent, error) {
	query := `SELECT id, project_id, action, actor, detail, created_at
		FROM audit_events WHERE project_id = ? ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing audit events: %w", err)
	}
	defer rows.Close()

	var events []*domain.AuditEvent
	for rows.Next() {
		var e domain.AuditEvent
		var createdAtStr string
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.Action, &e.Actor, &e.Detail, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scanning audit event: %w", err)
		}
		e.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit events: %w", err)
	}
	return events, nil
}
