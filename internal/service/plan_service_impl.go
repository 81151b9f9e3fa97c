package service

import (
	"context"
	"fmt"

	"github.com/anirudhsen/stagetrack/internal/calendar"
	"github.com/anirudhsen/stagetrack/internal/contract"
	"github.com/anirudhsen/stagetrack/internal/db"
	"github.com/anirudhsen/stagetrack/internal/domain"
	"github.com/anirudhsen/stagetrack/internal/planner"
	"github.com/anirudhsen/stagetrack/internal/repository"
	"github.com/google/uuid"
)

type planService struct {
	uow      db.UnitOfWork
	clock    Clock
	observer UseCaseObserver
}

func NewPlanService(uow db.UnitOfWork, clock Clock, observers ...UseCaseObserver) PlanService {
	return &planService{
		uow:      uow,
		clock:    clock,
		observer: useCaseObserverOrNoop(observers),
	}
}

// ConfigureSchedule stores the project's plan-generation settings and stage
// durations. It does not regenerate the plan; callers do that explicitly.
func (s *planService) ConfigureSchedule(ctx context.Context, settings *domain.ScheduleSettings, durations []domain.PlanDuration) (err error) {
	started := s.clock.Now()
	defer func() {
		observeUseCase(ctx, s.observer, "plan.configure", started, err, map[string]any{
			"project_id": settings.ProjectID,
		})
	}()

	var reasons []string
	switch settings.HandOff {
	case domain.HandOffSameDay, domain.HandOffNextWorkingDay:
	case "":
		settings.HandOff = domain.HandOffNextWorkingDay
	default:
		reasons = append(reasons, fmt.Sprintf("unknown hand-off policy %q", settings.HandOff))
	}
	for _, d := range durations {
		if d.Days < 0 {
			reasons = append(reasons, fmt.Sprintf("duration for stage %s cannot be negative", d.StageCode))
		}
	}
	if len(reasons) > 0 {
		return &ValidationError{Reasons: reasons}
	}

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		schedule := repository.NewSQLiteScheduleRepo(tx)

		if _, err := repository.NewSQLiteProjectRepo(tx).GetByID(ctx, settings.ProjectID); err != nil {
			return fmt.Errorf("loading project: %w", err)
		}
		if err := schedule.UpsertSettings(ctx, settings); err != nil {
			return fmt.Errorf("storing schedule settings: %w", err)
		}
		for i := range durations {
			durations[i].ProjectID = settings.ProjectID
			if err := schedule.UpsertDuration(ctx, &durations[i]); err != nil {
				return fmt.Errorf("storing duration for stage %s: %w", durations[i].StageCode, err)
			}
		}
		return nil
	})
}

// GeneratePlan recomputes every stage's planned dates from the stored
// durations and calendar settings and writes them onto the stages. Stages
// without a positive duration are left unscheduled. Generation is
// deterministic, so regenerating with unchanged inputs is a no-op.
func (s *planService) GeneratePlan(ctx context.Context, projectID string, actor contract.Actor) (err error) {
	started := s.clock.Now()
	defer func() {
		observeUseCase(ctx, s.observer, "plan.generate", started, err, map[string]any{
			"project_id": projectID,
		})
	}()

	if !actor.IsRequester && !actor.IsApprover {
		return fmt.Errorf("%w: only the project requester or approver may generate the plan", ErrForbidden)
	}

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		stages := repository.NewSQLiteStageRepo(tx)
		audit := repository.NewSQLiteAuditRepo(tx)

		if _, err := repository.NewSQLiteProjectRepo(tx).GetByID(ctx, projectID); err != nil {
			return fmt.Errorf("loading project: %w", err)
		}

		rows, err := computePlan(ctx, repository.NewSQLiteScheduleRepo(tx), projectID)
		if err != nil {
			return err
		}

		scheduled := make(map[string]planner.Row, len(rows))
		for _, r := range rows {
			scheduled[r.StageCode] = r
		}

		all, err := stages.ListByProject(ctx, projectID)
		if err != nil {
			return fmt.Errorf("loading stages: %w", err)
		}
		for _, st := range all {
			if r, ok := scheduled[st.Code]; ok {
				if err := stages.UpdatePlannedDates(ctx, projectID, st.Code, &r.PlannedStart, &r.PlannedDue); err != nil {
					return fmt.Errorf("updating planned dates for %s: %w", st.Code, err)
				}
			} else if err := stages.UpdatePlannedDates(ctx, projectID, st.Code, nil, nil); err != nil {
				return fmt.Errorf("clearing planned dates for %s: %w", st.Code, err)
			}
		}

		event := &domain.AuditEvent{
			ID:        uuid.New().String(),
			ProjectID: projectID,
			Action:    "plan_generated",
			Actor:     actor.ID,
			Detail:    fmt.Sprintf("scheduled %d of %d stages", len(rows), len(all)),
			CreatedAt: s.clock.Now(),
		}
		if err := audit.Append(ctx, event); err != nil {
			return fmt.Errorf("appending audit event: %w", err)
		}
		return nil
	})
}

// computePlan loads the schedule inputs and runs the planner without
// persisting anything. Shared by plan generation and the draft diff.
func computePlan(ctx context.Context, schedule repository.ScheduleRepo, projectID string) ([]planner.Row, error) {
	settings, err := schedule.GetSettings(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("loading schedule settings: %w", err)
	}
	if settings.AnchorStart == nil {
		return nil, &ValidationError{Reasons: []string{"anchor start date is required before generating a plan"}}
	}

	durations, err := schedule.ListDurations(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("loading durations: %w", err)
	}
	holidays, err := schedule.ListHolidays(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading holidays: %w", err)
	}

	cal := calendar.New(holidays, settings.IncludeWeekends, settings.SkipHolidays)
	return planner.Generate(planner.Input{
		Anchor:    *settings.AnchorStart,
		Durations: durations,
		Calendar:  cal,
		HandOff:   settings.HandOff,
	}), nil
}
