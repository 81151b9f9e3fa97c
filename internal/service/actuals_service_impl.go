package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anirudhsen/stagetrack/internal/contract"
	"github.com/anirudhsen/stagetrack/internal/db"
	"github.com/anirudhsen/stagetrack/internal/domain"
	"github.com/anirudhsen/stagetrack/internal/repository"
	"github.com/google/uuid"
)

type actualsService struct {
	uow      db.UnitOfWork
	clock    Clock
	observer UseCaseObserver
}

func NewActualsService(uow db.UnitOfWork, clock Clock, observers ...UseCaseObserver) ActualsService {
	return &actualsService{
		uow:      uow,
		clock:    clock,
		observer: useCaseObserverOrNoop(observers),
	}
}

// ApplyBackfill resolves outstanding backfill debts: stages that were
// auto-completed without dates get their real dates filled in. The batch is
// all-or-nothing; any invalid entry rolls the whole batch back.
func (s *actualsService) ApplyBackfill(ctx context.Context, projectID string, updates []contract.StageDateUpdate, actor contract.Actor) (result *contract.BatchResult, err error) {
	started := s.clock.Now()
	defer func() {
		observeUseCase(ctx, s.observer, "actuals.backfill", started, err, map[string]any{
			"project_id": projectID,
			"count":      len(updates),
		})
	}()

	if !actor.IsRequester && !actor.IsApprover {
		return nil, fmt.Errorf("%w: only the project requester or approver may backfill dates", ErrForbidden)
	}
	if len(updates) == 0 {
		return &contract.BatchResult{}, nil
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		stages := repository.NewSQLiteStageRepo(tx)
		requests := repository.NewSQLiteRequestRepo(tx)
		changeLog := repository.NewSQLiteChangeLogRepo(tx)
		audit := repository.NewSQLiteAuditRepo(tx)

		if _, err := repository.NewSQLiteProjectRepo(tx).GetByID(ctx, projectID); err != nil {
			return fmt.Errorf("loading project: %w", err)
		}

		now := s.clock.Now()
		today := s.clock.Today()
		var reasons []string
		var codes []string

		for _, u := range updates {
			stage, err := stages.GetByCode(ctx, projectID, u.StageCode)
			if err != nil {
				return fmt.Errorf("loading stage %s: %w", u.StageCode, err)
			}

			if stage.Status != domain.StageCompleted || !stage.RequiresBackfill {
				reasons = append(reasons, fmt.Sprintf("stage %s is not awaiting backfill", u.StageCode))
				continue
			}
			if _, err := requests.GetPending(ctx, projectID, u.StageCode); err == nil {
				return fmt.Errorf("%w: stage %s has a pending change request", ErrConflict, u.StageCode)
			} else if !errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("checking pending requests: %w", err)
			}

			newStart := stage.ActualStart
			if u.ActualStart != nil {
				newStart = u.ActualStart
			}
			newDone := stage.CompletedOn
			if u.CompletedOn != nil {
				newDone = u.CompletedOn
			}

			switch {
			case newStart == nil || newDone == nil:
				reasons = append(reasons, fmt.Sprintf("backfill for stage %s must leave both dates set", u.StageCode))
				continue
			case newStart.After(today) || newDone.After(today):
				reasons = append(reasons, fmt.Sprintf("dates for stage %s cannot be in the future", u.StageCode))
				continue
			case newDone.Before(*newStart):
				reasons = append(reasons, fmt.Sprintf("completion date for stage %s is earlier than its start", u.StageCode))
				continue
			}

			before := snapshotStage(stage)
			stage.ActualStart = newStart
			stage.CompletedOn = newDone
			stage.RequiresBackfill = false
			stage.IsAutoCompleted = false
			stage.AutoCompletedFrom = nil
			stage.UpdatedAt = now
			if err := stages.Update(ctx, stage); err != nil {
				return fmt.Errorf("updating stage %s: %w", u.StageCode, err)
			}

			entry := newLogEntry(uuid.New().String(), now, logEntryInput{
				ProjectID: projectID,
				StageCode: u.StageCode,
				Action:    domain.ActionBackfill,
				From:      before,
				To:        stage,
				Actor:     actor.ID,
			})
			if err := changeLog.Append(ctx, entry); err != nil {
				return fmt.Errorf("appending change log: %w", err)
			}
			codes = append(codes, u.StageCode)
		}

		if len(reasons) > 0 {
			return &ValidationError{Reasons: reasons}
		}

		event := &domain.AuditEvent{
			ID:        uuid.New().String(),
			ProjectID: projectID,
			Action:    "backfill_batch",
			Actor:     actor.ID,
			Detail:    fmt.Sprintf("backfilled dates for %s", strings.Join(codes, ", ")),
			CreatedAt: now,
		}
		if err := audit.Append(ctx, event); err != nil {
			return fmt.Errorf("appending audit event: %w", err)
		}

		result = &contract.BatchResult{UpdatedCount: len(codes), StageCodes: codes}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateActuals corrects recorded actual dates on stages that already have
// a status carrying dates. It never changes status: a completion date can
// only be edited on a completed stage, and a start date only on a stage
// that has started.
func (s *actualsService) UpdateActuals(ctx context.Context, projectID string, updates []contract.StageDateUpdate, actor contract.Actor) (result *contract.BatchResult, err error) {
	started := s.clock.Now()
	defer func() {
		observeUseCase(ctx, s.observer, "actuals.update", started, err, map[string]any{
			"project_id": projectID,
			"count":      len(updates),
		})
	}()

	if !actor.IsRequester && !actor.IsApprover {
		return nil, fmt.Errorf("%w: only the project requester or approver may update actual dates", ErrForbidden)
	}
	if len(updates) == 0 {
		return &contract.BatchResult{}, nil
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		stages := repository.NewSQLiteStageRepo(tx)
		requests := repository.NewSQLiteRequestRepo(tx)
		changeLog := repository.NewSQLiteChangeLogRepo(tx)
		audit := repository.NewSQLiteAuditRepo(tx)

		if _, err := repository.NewSQLiteProjectRepo(tx).GetByID(ctx, projectID); err != nil {
			return fmt.Errorf("loading project: %w", err)
		}

		now := s.clock.Now()
		today := s.clock.Today()
		var reasons []string
		var codes []string

		for _, u := range updates {
			stage, err := stages.GetByCode(ctx, projectID, u.StageCode)
			if err != nil {
				return fmt.Errorf("loading stage %s: %w", u.StageCode, err)
			}

			if _, err := requests.GetPending(ctx, projectID, u.StageCode); err == nil {
				return fmt.Errorf("%w: stage %s has a pending change request", ErrConflict, u.StageCode)
			} else if !errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("checking pending requests: %w", err)
			}

			switch stage.Status {
			case domain.StageNotStarted, domain.StageSkipped:
				reasons = append(reasons, fmt.Sprintf("stage %s has no dates to correct in status %s", u.StageCode, stage.Status))
				continue
			}
			if u.CompletedOn != nil && stage.Status != domain.StageCompleted {
				reasons = append(reasons, fmt.Sprintf("stage %s is not completed; its completion date cannot be set", u.StageCode))
				continue
			}

			newStart := stage.ActualStart
			if u.ActualStart != nil {
				newStart = u.ActualStart
			}
			newDone := stage.CompletedOn
			if u.CompletedOn != nil {
				newDone = u.CompletedOn
			}

			switch {
			case newDone != nil && newStart == nil:
				reasons = append(reasons, fmt.Sprintf("stage %s cannot have a completion date without a start date", u.StageCode))
				continue
			case newStart != nil && newStart.After(today), newDone != nil && newDone.After(today):
				reasons = append(reasons, fmt.Sprintf("dates for stage %s cannot be in the future", u.StageCode))
				continue
			case newStart != nil && newDone != nil && newDone.Before(*newStart):
				reasons = append(reasons, fmt.Sprintf("completion date for stage %s is earlier than its start", u.StageCode))
				continue
			}

			before := snapshotStage(stage)
			stage.ActualStart = newStart
			stage.CompletedOn = newDone
			stage.UpdatedAt = now
			if err := stages.Update(ctx, stage); err != nil {
				return fmt.Errorf("updating stage %s: %w", u.StageCode, err)
			}

			entry := newLogEntry(uuid.New().String(), now, logEntryInput{
				ProjectID: projectID,
				StageCode: u.StageCode,
				Action:    domain.ActionActualsUpdated,
				From:      before,
				To:        stage,
				Actor:     actor.ID,
			})
			if err := changeLog.Append(ctx, entry); err != nil {
				return fmt.Errorf("appending change log: %w", err)
			}
			codes = append(codes, u.StageCode)
		}

		if len(reasons) > 0 {
			return &ValidationError{Reasons: reasons}
		}

		event := &domain.AuditEvent{
			ID:        uuid.New().String(),
			ProjectID: projectID,
			Action:    "actuals_batch",
			Actor:     actor.ID,
			Detail:    fmt.Sprintf("corrected actual dates for %s", strings.Join(codes, ", ")),
			CreatedAt: now,
		}
		if err := audit.Append(ctx, event); err != nil {
			return fmt.Errorf("appending audit event: %w", err)
		}

		result = &contract.BatchResult{UpdatedCount: len(codes), StageCodes: codes}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
