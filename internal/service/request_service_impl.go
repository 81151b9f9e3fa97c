package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/anirudhsen/stagetrack/internal/contract"
	"github.com/anirudhsen/stagetrack/internal/db"
	"github.com/anirudhsen/stagetrack/internal/domain"
	"github.com/anirudhsen/stagetrack/internal/repository"
	"github.com/anirudhsen/stagetrack/internal/workflow"
	"github.com/google/uuid"
)

type requestService struct {
	requests repository.RequestRepo
	uow      db.UnitOfWork
	clock    Clock
	observer UseCaseObserver
}

func NewRequestService(requests repository.RequestRepo, uow db.UnitOfWork, clock Clock, observers ...UseCaseObserver) RequestService {
	return &requestService{
		requests: requests,
		uow:      uow,
		clock:    clock,
		observer: useCaseObserverOrNoop(observers),
	}
}

// Submit records a proposed stage-status change as a pending change request.
// The stage is not mutated; the proposal is validated now and again at
// decision time. At most one pending request may exist per stage.
func (s *requestService) Submit(ctx context.Context, req contract.SubmitRequest) (result *contract.SubmitResult, err error) {
	started := s.clock.Now()
	defer func() {
		observeUseCase(ctx, s.observer, "request.submit", started, err, map[string]any{
			"project_id": req.ProjectID,
			"stage_code": req.StageCode,
		})
	}()

	if !req.Actor.IsRequester && !req.Actor.IsApprover {
		return nil, fmt.Errorf("%w: only the project requester or approver may submit change requests", ErrForbidden)
	}
	if !domain.ValidStageStatuses[string(req.Target)] {
		return nil, &ValidationError{Reasons: []string{fmt.Sprintf("unknown target status %q", req.Target)}}
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		projects := repository.NewSQLiteProjectRepo(tx)
		stages := repository.NewSQLiteStageRepo(tx)
		templates := repository.NewSQLiteTemplateRepo(tx)
		requests := repository.NewSQLiteRequestRepo(tx)
		changeLog := repository.NewSQLiteChangeLogRepo(tx)

		project, err := projects.GetByID(ctx, req.ProjectID)
		if err != nil {
			return fmt.Errorf("loading project: %w", err)
		}
		stage, err := stages.GetByCode(ctx, req.ProjectID, req.StageCode)
		if err != nil {
			return fmt.Errorf("loading stage %s: %w", req.StageCode, err)
		}

		if _, err := requests.GetPending(ctx, req.ProjectID, req.StageCode); err == nil {
			return fmt.Errorf("%w: a pending change request already exists for stage %s", ErrConflict, req.StageCode)
		} else if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("checking pending requests: %w", err)
		}

		all, err := stages.ListByProject(ctx, req.ProjectID)
		if err != nil {
			return fmt.Errorf("loading stages: %w", err)
		}
		graph, err := loadGraph(ctx, templates)
		if err != nil {
			return err
		}

		res := validateTransition(s.clock, graph, project, stage, stagesByCode(all), req.Target, req.Date, req.Actor.IsApprover)
		if !res.IsValid {
			return validationFailed(res)
		}

		now := s.clock.Now()
		cr := &domain.ChangeRequest{
			ID:              uuid.New().String(),
			ProjectID:       req.ProjectID,
			StageCode:       req.StageCode,
			RequestedStatus: req.Target,
			RequestedDate:   req.Date,
			Note:            req.Note,
			RequestedBy:     req.Actor.ID,
			RequestedOn:     now,
			DecisionStatus:  domain.DecisionPending,
		}
		if err := requests.Create(ctx, cr); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: a pending change request already exists for stage %s", ErrConflict, req.StageCode)
			}
			return fmt.Errorf("creating change request: %w", err)
		}

		entry := newLogEntry(uuid.New().String(), now, logEntryInput{
			ProjectID: req.ProjectID,
			StageCode: req.StageCode,
			Action:    domain.ActionRequested,
			From:      stage,
			To:        &domain.Stage{Status: req.Target},
			Actor:     req.Actor.ID,
			Note:      req.Note,
		})
		if err := changeLog.Append(ctx, entry); err != nil {
			return fmt.Errorf("appending change log: %w", err)
		}

		result = &contract.SubmitResult{RequestID: cr.ID, Warnings: res.Warnings}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Decide approves or rejects a pending change request. Approval re-runs
// validation against current state with approver privileges and applies the
// change; a stale or already-decided request returns ErrConflict.
func (s *requestService) Decide(ctx context.Context, req contract.DecideRequest) (result *contract.DecideResult, err error) {
	started := s.clock.Now()
	defer func() {
		observeUseCase(ctx, s.observer, "request.decide", started, err, map[string]any{
			"request_id": req.RequestID,
			"approve":    req.Approve,
		})
	}()

	if !req.Actor.IsApprover {
		return nil, fmt.Errorf("%w: only the project approver may decide change requests", ErrForbidden)
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		projects := repository.NewSQLiteProjectRepo(tx)
		stages := repository.NewSQLiteStageRepo(tx)
		templates := repository.NewSQLiteTemplateRepo(tx)
		requests := repository.NewSQLiteRequestRepo(tx)
		changeLog := repository.NewSQLiteChangeLogRepo(tx)

		cr, err := requests.GetByID(ctx, req.RequestID)
		if err != nil {
			return fmt.Errorf("loading change request: %w", err)
		}
		if cr.DecisionStatus != domain.DecisionPending {
			return fmt.Errorf("%w: change request is already %s", ErrConflict, cr.DecisionStatus)
		}

		now := s.clock.Now()

		if !req.Approve {
			cr.DecisionStatus = domain.DecisionRejected
			cr.DecidedBy = &req.Actor.ID
			cr.DecidedOn = &now
			cr.DecisionNote = req.Note
			if err := requests.Update(ctx, cr); err != nil {
				return fmt.Errorf("updating change request: %w", err)
			}
			entry := newLogEntry(uuid.New().String(), now, logEntryInput{
				ProjectID: cr.ProjectID,
				StageCode: cr.StageCode,
				Action:    domain.ActionRejected,
				Actor:     req.Actor.ID,
				Note:      req.Note,
			})
			if err := changeLog.Append(ctx, entry); err != nil {
				return fmt.Errorf("appending change log: %w", err)
			}
			result = &contract.DecideResult{Decision: domain.DecisionRejected}
			return nil
		}

		// The request queue never grants administrative completion: a
		// Completed target must carry its date by decision time, whoever
		// submitted it.
		if cr.RequestedStatus == domain.StageCompleted && cr.RequestedDate == nil {
			return &ValidationError{Reasons: []string{"completion date is required"}}
		}

		project, err := projects.GetByID(ctx, cr.ProjectID)
		if err != nil {
			return fmt.Errorf("loading project: %w", err)
		}
		stage, err := stages.GetByCode(ctx, cr.ProjectID, cr.StageCode)
		if err != nil {
			return fmt.Errorf("loading stage %s: %w", cr.StageCode, err)
		}
		all, err := stages.ListByProject(ctx, cr.ProjectID)
		if err != nil {
			return fmt.Errorf("loading stages: %w", err)
		}
		graph, err := loadGraph(ctx, templates)
		if err != nil {
			return err
		}

		res := validateTransition(s.clock, graph, project, stage, stagesByCode(all), cr.RequestedStatus, cr.RequestedDate, true)
		if !res.IsValid {
			return validationFailed(res)
		}

		before := snapshotStage(stage)
		msgs := workflow.ApplyStatus(stage, cr.RequestedStatus, cr.RequestedDate, res.SuggestedAutoStart)
		stage.UpdatedAt = now
		if err := stages.Update(ctx, stage); err != nil {
			return fmt.Errorf("updating stage: %w", err)
		}

		cr.DecisionStatus = domain.DecisionApproved
		cr.DecidedBy = &req.Actor.ID
		cr.DecidedOn = &now
		cr.DecisionNote = req.Note
		if err := requests.Update(ctx, cr); err != nil {
			return fmt.Errorf("updating change request: %w", err)
		}

		for _, action := range []domain.LogAction{domain.ActionApproved, domain.ActionApplied} {
			entry := newLogEntry(uuid.New().String(), now, logEntryInput{
				ProjectID: cr.ProjectID,
				StageCode: cr.StageCode,
				Action:    action,
				From:      before,
				To:        stage,
				Actor:     req.Actor.ID,
				Note:      req.Note,
			})
			if err := changeLog.Append(ctx, entry); err != nil {
				return fmt.Errorf("appending change log: %w", err)
			}
		}

		warnings := append(res.Warnings, mutationWarnings(msgs)...)
		result = &contract.DecideResult{
			Decision: domain.DecisionApproved,
			Stage:    stage,
			Warnings: warnings,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *requestService) ListPending(ctx context.Context, projectID string) ([]*domain.ChangeRequest, error) {
	return s.requests.ListPending(ctx, projectID)
}
