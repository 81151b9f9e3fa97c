package service

import (
	"context"
	"fmt"

	"github.com/anirudhsen/stagetrack/internal/contract"
	"github.com/anirudhsen/stagetrack/internal/db"
	"github.com/anirudhsen/stagetrack/internal/domain"
	"github.com/anirudhsen/stagetrack/internal/repository"
	"github.com/google/uuid"
)

type projectService struct {
	projects  repository.ProjectRepo
	stages    repository.StageRepo
	templates repository.TemplateRepo
	requests  repository.RequestRepo
	changeLog repository.ChangeLogRepo
	uow       db.UnitOfWork
	clock     Clock
	observer  UseCaseObserver
}

func NewProjectService(
	projects repository.ProjectRepo,
	stages repository.StageRepo,
	templates repository.TemplateRepo,
	requests repository.RequestRepo,
	changeLog repository.ChangeLogRepo,
	uow db.UnitOfWork,
	clock Clock,
	observers ...UseCaseObserver,
) ProjectService {
	return &projectService{
		projects:  projects,
		stages:    stages,
		templates: templates,
		requests:  requests,
		changeLog: changeLog,
		uow:       uow,
		clock:     clock,
		observer:  useCaseObserverOrNoop(observers),
	}
}

// Create persists the project and instantiates one not-started stage per
// template, plus default schedule settings and zero durations so the plan
// can be configured incrementally.
func (s *projectService) Create(ctx context.Context, p *domain.Project) (err error) {
	started := s.clock.Now()
	defer func() {
		observeUseCase(ctx, s.observer, "project.create", started, err, map[string]any{
			"project_name": p.Name,
		})
	}()

	if err := p.Validate(); err != nil {
		return &ValidationError{Reasons: []string{err.Error()}}
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := s.clock.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		projects := repository.NewSQLiteProjectRepo(tx)
		stages := repository.NewSQLiteStageRepo(tx)
		templates := repository.NewSQLiteTemplateRepo(tx)
		schedule := repository.NewSQLiteScheduleRepo(tx)

		tmpls, err := templates.ListTemplates(ctx)
		if err != nil {
			return fmt.Errorf("loading stage templates: %w", err)
		}
		if len(tmpls) == 0 {
			return &ValidationError{Reasons: []string{"no stage templates are configured; seed the template set first"}}
		}

		if err := projects.Create(ctx, p); err != nil {
			return fmt.Errorf("creating project: %w", err)
		}

		for _, t := range tmpls {
			st := &domain.Stage{
				ID:        uuid.New().String(),
				ProjectID: p.ID,
				Code:      t.Code,
				Status:    domain.StageNotStarted,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := stages.Create(ctx, st); err != nil {
				return fmt.Errorf("creating stage %s: %w", t.Code, err)
			}
			d := &domain.PlanDuration{
				ProjectID: p.ID,
				StageCode: t.Code,
				Days:      0,
				SortOrder: t.Sequence,
			}
			if err := schedule.UpsertDuration(ctx, d); err != nil {
				return fmt.Errorf("creating duration for stage %s: %w", t.Code, err)
			}
		}

		settings := &domain.ScheduleSettings{
			ProjectID:       p.ID,
			IncludeWeekends: false,
			SkipHolidays:    true,
			HandOff:         domain.HandOffNextWorkingDay,
		}
		if err := schedule.UpsertSettings(ctx, settings); err != nil {
			return fmt.Errorf("creating schedule settings: %w", err)
		}
		return nil
	})
}

func (s *projectService) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	return s.projects.GetByID(ctx, id)
}

func (s *projectService) List(ctx context.Context) ([]*domain.Project, error) {
	return s.projects.List(ctx)
}

// Tracker assembles the project's stage board: every stage in template
// sequence order with its readiness context, and the current-stage marker.
func (s *projectService) Tracker(ctx context.Context, projectID string) (*contract.TrackerView, error) {
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return nil, fmt.Errorf("loading project: %w", err)
	}
	all, err := s.stages.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("loading stages: %w", err)
	}
	graph, err := loadGraph(ctx, s.templates)
	if err != nil {
		return nil, err
	}
	pending, err := s.requests.ListPending(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("loading pending requests: %w", err)
	}

	pendingByCode := make(map[string]bool, len(pending))
	for _, r := range pending {
		pendingByCode[r.StageCode] = true
	}

	byCode := stagesByCode(all)
	current := graph.CurrentStageCode(stageStatuses(byCode))

	view := &contract.TrackerView{ProjectID: projectID, CurrentStageCode: current}
	for _, t := range graph.Templates() {
		st, ok := byCode[t.Code]
		if !ok {
			continue
		}
		view.Stages = append(view.Stages, contract.StageView{
			Code:              t.Code,
			Name:              t.Name,
			Sequence:          t.Sequence,
			Optional:          t.Optional,
			Status:            st.Status,
			PlannedStart:      st.PlannedStart,
			PlannedDue:        st.PlannedDue,
			ActualStart:       st.ActualStart,
			CompletedOn:       st.CompletedOn,
			RequiresBackfill:  st.RequiresBackfill,
			IsCurrent:         t.Code == current,
			HasPendingRequest: pendingByCode[t.Code],
		})
	}
	return view, nil
}

func (s *projectService) History(ctx context.Context, projectID string) ([]*domain.ChangeLogEntry, error) {
	return s.changeLog.ListByProject(ctx, projectID)
}
