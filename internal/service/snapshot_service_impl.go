package service

import (
	"context"
	"fmt"
	"time"

	"github.com/anirudhsen/stagetrack/internal/contract"
	"github.com/anirudhsen/stagetrack/internal/db"
	"github.com/anirudhsen/stagetrack/internal/domain"
	"github.com/anirudhsen/stagetrack/internal/repository"
	"github.com/google/uuid"
)

type snapshotService struct {
	stages    repository.StageRepo
	templates repository.TemplateRepo
	schedule  repository.ScheduleRepo
	snapshots repository.SnapshotRepo
	uow       db.UnitOfWork
	clock     Clock
	observer  UseCaseObserver
}

func NewSnapshotService(
	stages repository.StageRepo,
	templates repository.TemplateRepo,
	schedule repository.ScheduleRepo,
	snapshots repository.SnapshotRepo,
	uow db.UnitOfWork,
	clock Clock,
	observers ...UseCaseObserver,
) SnapshotService {
	return &snapshotService{
		stages:    stages,
		templates: templates,
		schedule:  schedule,
		snapshots: snapshots,
		uow:       uow,
		clock:     clock,
		observer:  useCaseObserverOrNoop(observers),
	}
}

// plannedDates is one (start, due) pair of an old plan being diffed.
type plannedDates struct {
	start *time.Time
	due   *time.Time
}

// Snapshot captures the project's current planned dates as an immutable
// point-in-time copy and returns its ID.
func (s *snapshotService) Snapshot(ctx context.Context, projectID string, actor contract.Actor) (id string, err error) {
	started := s.clock.Now()
	defer func() {
		observeUseCase(ctx, s.observer, "snapshot.take", started, err, map[string]any{
			"project_id": projectID,
		})
	}()

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		stages := repository.NewSQLiteStageRepo(tx)
		snapshots := repository.NewSQLiteSnapshotRepo(tx)

		all, err := stages.ListByProject(ctx, projectID)
		if err != nil {
			return fmt.Errorf("loading stages: %w", err)
		}
		if len(all) == 0 {
			return fmt.Errorf("project %s has no stages: %w", projectID, repository.ErrNotFound)
		}

		snap := &domain.PlanSnapshot{
			ID:        uuid.New().String(),
			ProjectID: projectID,
			TakenBy:   actor.ID,
			TakenAt:   s.clock.Now(),
		}
		for _, st := range all {
			snap.Rows = append(snap.Rows, domain.SnapshotRow{
				SnapshotID:   snap.ID,
				StageCode:    st.Code,
				PlannedStart: st.PlannedStart,
				PlannedDue:   st.PlannedDue,
			})
		}
		if err := snapshots.Create(ctx, snap); err != nil {
			return fmt.Errorf("creating snapshot: %w", err)
		}
		id = snap.ID
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// DiffAgainstLastSnapshot compares the latest snapshot's planned dates with
// the live ones, one row per stage in template sequence order. The snapshot
// supplies the old side, the stages the new side.
func (s *snapshotService) DiffAgainstLastSnapshot(ctx context.Context, projectID string) ([]contract.DiffRow, error) {
	snap, err := s.snapshots.Latest(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("loading latest snapshot: %w", err)
	}

	old := make(map[string]plannedDates, len(snap.Rows))
	for _, r := range snap.Rows {
		old[r.StageCode] = plannedDates{start: r.PlannedStart, due: r.PlannedDue}
	}
	return s.diff(ctx, projectID, old)
}

// DiffDraftVsCurrent recomputes the plan from the current durations and
// calendar settings without persisting it, then compares the stored planned
// dates (old) against the draft (new).
func (s *snapshotService) DiffDraftVsCurrent(ctx context.Context, projectID string) ([]contract.DiffRow, error) {
	rows, err := computePlan(ctx, s.schedule, projectID)
	if err != nil {
		return nil, err
	}

	draft := make(map[string]plannedDates, len(rows))
	for _, r := range rows {
		start, due := r.PlannedStart, r.PlannedDue
		draft[r.StageCode] = plannedDates{start: &start, due: &due}
	}

	all, err := s.stages.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("loading stages: %w", err)
	}
	graph, err := loadGraph(ctx, s.templates)
	if err != nil {
		return nil, err
	}

	byCode := stagesByCode(all)
	var diff []contract.DiffRow
	for _, t := range graph.Templates() {
		st, ok := byCode[t.Code]
		if !ok {
			continue
		}
		d := draft[t.Code]
		diff = append(diff, contract.DiffRow{
			StageCode: t.Code,
			OldStart:  st.PlannedStart,
			OldDue:    st.PlannedDue,
			NewStart:  d.start,
			NewDue:    d.due,
		})
	}
	return diff, nil
}

func (s *snapshotService) diff(ctx context.Context, projectID string, old map[string]plannedDates) ([]contract.DiffRow, error) {
	all, err := s.stages.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("loading stages: %w", err)
	}
	graph, err := loadGraph(ctx, s.templates)
	if err != nil {
		return nil, err
	}

	byCode := stagesByCode(all)
	var diff []contract.DiffRow
	for _, t := range graph.Templates() {
		st, ok := byCode[t.Code]
		if !ok {
			continue
		}
		o := old[t.Code]
		diff = append(diff, contract.DiffRow{
			StageCode: t.Code,
			OldStart:  o.start,
			OldDue:    o.due,
			NewStart:  st.PlannedStart,
			NewDue:    st.PlannedDue,
		})
	}
	return diff, nil
}
