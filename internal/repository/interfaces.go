package repository

import (
	"context"
	"time"

	"github.com/anirudhsen/stagetrack/internal/domain"
)

type ProjectRepo interface {
	Create(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	List(ctx context.Context) ([]*domain.Project, error)
	Update(ctx context.Context, p *domain.Project) error
	Delete(ctx context.Context, id string) error
}

type StageRepo interface {
	Create(ctx context.Context, s *domain.Stage) error
	GetByCode(ctx context.Context, projectID, code string) (*domain.Stage, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.Stage, error)
	ListRequiringBackfill(ctx context.Context, projectID string) ([]*domain.Stage, error)
	Update(ctx context.Context, s *domain.Stage) error
	UpdatePlannedDates(ctx context.Context, projectID, code string, start, due *time.Time) error
}

type TemplateRepo interface {
	ListTemplates(ctx context.Context) ([]domain.StageTemplate, error)
	ListEdges(ctx context.Context) ([]domain.DependencyEdge, error)
	ReplaceAll(ctx context.Context, templates []domain.StageTemplate, edges []domain.DependencyEdge) error
}

type RequestRepo interface {
	Create(ctx context.Context, r *domain.ChangeRequest) error
	GetByID(ctx context.Context, id string) (*domain.ChangeRequest, error)
	GetPending(ctx context.Context, projectID, stageCode string) (*domain.ChangeRequest, error)
	ListPending(ctx context.Context, projectID string) ([]*domain.ChangeRequest, error)
	Update(ctx context.Context, r *domain.ChangeRequest) error
}

type ChangeLogRepo interface {
	Append(ctx context.Context, e *domain.ChangeLogEntry) error
	ListByProject(ctx context.Context, projectID string) ([]*domain.ChangeLogEntry, error)
	ListByStage(ctx context.Context, projectID, stageCode string) ([]*domain.ChangeLogEntry, error)
}

type AuditRepo interface {
	Append(ctx context.Context, e *domain.AuditEvent) error
	ListByProject(ctx context.Context, projectID string) ([]*domain.AuditEvent, error)
}

type ScheduleRepo interface {
	GetSettings(ctx context.Context, projectID string) (*domain.ScheduleSettings, error)
	UpsertSettings(ctx context.Context, s *domain.ScheduleSettings) error
	ListDurations(ctx context.Context, projectID string) ([]domain.PlanDuration, error)
	UpsertDuration(ctx context.Context, d *domain.PlanDuration) error
	ListHolidays(ctx context.Context) ([]time.Time, error)
	ReplaceHolidays(ctx context.Context, days []time.Time) error
}

type SnapshotRepo interface {
	Create(ctx context.Context, s *domain.PlanSnapshot) error
	Latest(ctx context.Context, projectID string) (*domain.PlanSnapshot, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.PlanSnapshot, error)
}
