package service

import (
	"context"

	"github.com/anirudhsen/stagetrack/internal/contract"
	"github.com/anirudhsen/stagetrack/internal/domain"
)

type ProjectService interface {
	Create(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	List(ctx context.Context) ([]*domain.Project, error)
	Tracker(ctx context.Context, projectID string) (*contract.TrackerView, error)
	History(ctx context.Context, projectID string) ([]*domain.ChangeLogEntry, error)
}

type ValidationService interface {
	Validate(ctx context.Context, req contract.ValidateRequest) (*contract.ValidationResult, error)
}

type RequestService interface {
	Submit(ctx context.Context, req contract.SubmitRequest) (*contract.SubmitResult, error)
	Decide(ctx context.Context, req contract.DecideRequest) (*contract.DecideResult, error)
	ListPending(ctx context.Context, projectID string) ([]*domain.ChangeRequest, error)
}

type DirectApplyService interface {
	Apply(ctx context.Context, req contract.DirectApplyRequest) (*contract.DirectApplyResult, error)
}

type ActualsService interface {
	ApplyBackfill(ctx context.Context, projectID string, updates []contract.StageDateUpdate, actor contract.Actor) (*contract.BatchResult, error)
	UpdateActuals(ctx context.Context, projectID string, updates []contract.StageDateUpdate, actor contract.Actor) (*contract.BatchResult, error)
}

type PlanService interface {
	ConfigureSchedule(ctx context.Context, settings *domain.ScheduleSettings, durations []domain.PlanDuration) error
	GeneratePlan(ctx context.Context, projectID string, actor contract.Actor) error
}

type SnapshotService interface {
	Snapshot(ctx context.Context, projectID string, actor contract.Actor) (string, error)
	DiffAgainstLastSnapshot(ctx context.Context, projectID string) ([]contract.DiffRow, error)
	DiffDraftVsCurrent(ctx context.Context, projectID string) ([]contract.DiffRow, error)
}
