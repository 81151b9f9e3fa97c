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
	"github.com/anirudhsen/stagetrack/internal/workflow"
	"github.com/google/uuid"
)

type directApplyService struct {
	uow      db.UnitOfWork
	clock    Clock
	observer UseCaseObserver
}

func NewDirectApplyService(uow db.UnitOfWork, clock Clock, observers ...UseCaseObserver) DirectApplyService {
	return &directApplyService{
		uow:      uow,
		clock:    clock,
		observer: useCaseObserverOrNoop(observers),
	}
}

// Apply is the approver's single-step status change. It supersedes any
// pending request on the stage and, when ForceBackfillPredecessors is set,
// auto-completes missing predecessors without dates, leaving each with a
// backfill debt. Policy errors are never overridable; only missing
// predecessors yield to force.
func (s *directApplyService) Apply(ctx context.Context, req contract.DirectApplyRequest) (result *contract.DirectApplyResult, err error) {
	started := s.clock.Now()
	defer func() {
		observeUseCase(ctx, s.observer, "direct_apply", started, err, map[string]any{
			"project_id": req.ProjectID,
			"stage_code": req.StageCode,
			"force":      req.ForceBackfillPredecessors,
		})
	}()

	if !req.Actor.IsApprover {
		return nil, fmt.Errorf("%w: only the project approver may apply changes directly", ErrForbidden)
	}

	target := workflow.ResolveReopen(req.Target, req.Date != nil)
	if !domain.ValidStageStatuses[string(target)] {
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
		all, err := stages.ListByProject(ctx, req.ProjectID)
		if err != nil {
			return fmt.Errorf("loading stages: %w", err)
		}
		graph, err := loadGraph(ctx, templates)
		if err != nil {
			return err
		}

		byCode := stagesByCode(all)
		res := validateTransition(s.clock, graph, project, stage, byCode, target, req.Date, true)
		if len(res.Errors) > 0 {
			return validationFailed(res)
		}
		if len(res.MissingPredecessors) > 0 && !req.ForceBackfillPredecessors {
			return validationFailed(res)
		}

		now := s.clock.Now()
		warnings := res.Warnings

		pending, err := requests.GetPending(ctx, req.ProjectID, req.StageCode)
		switch {
		case err == nil:
			pending.DecisionStatus = domain.DecisionSuperseded
			pending.DecidedBy = &req.Actor.ID
			pending.DecidedOn = &now
			pending.DecisionNote = "superseded by direct apply"
			if err := requests.Update(ctx, pending); err != nil {
				return fmt.Errorf("superseding pending request: %w", err)
			}
			entry := newLogEntry(uuid.New().String(), now, logEntryInput{
				ProjectID: req.ProjectID,
				StageCode: req.StageCode,
				Action:    domain.ActionSuperseded,
				Actor:     req.Actor.ID,
				Note:      "superseded by direct apply",
			})
			if err := changeLog.Append(ctx, entry); err != nil {
				return fmt.Errorf("appending change log: %w", err)
			}
			warnings = append(warnings, contract.Warning{
				Code:    contract.WarnRequestSuperseded,
				Message: fmt.Sprintf("pending change request %s was superseded", pending.ID),
			})
		case errors.Is(err, repository.ErrNotFound):
			// No pending request to supersede.
		default:
			return fmt.Errorf("checking pending requests: %w", err)
		}

		var backfilled []string
		for _, code := range res.MissingPredecessors {
			pred, ok := byCode[code]
			if !ok {
				return fmt.Errorf("predecessor stage %s has no row", code)
			}
			before := snapshotStage(pred)
			from := stage.Code
			pred.Status = domain.StageCompleted
			pred.RequiresBackfill = true
			pred.IsAutoCompleted = true
			pred.AutoCompletedFrom = &from
			pred.UpdatedAt = now
			if err := stages.Update(ctx, pred); err != nil {
				return fmt.Errorf("auto-completing predecessor %s: %w", code, err)
			}
			entry := newLogEntry(uuid.New().String(), now, logEntryInput{
				ProjectID: req.ProjectID,
				StageCode: code,
				Action:    domain.ActionAutoBackfill,
				From:      before,
				To:        pred,
				Actor:     req.Actor.ID,
				Note:      fmt.Sprintf("auto-completed to unblock %s", stage.Code),
			})
			if err := changeLog.Append(ctx, entry); err != nil {
				return fmt.Errorf("appending change log: %w", err)
			}
			backfilled = append(backfilled, code)
		}
		if len(backfilled) > 0 {
			warnings = append(warnings, contract.Warning{
				Code:    contract.WarnBackfillOutstanding,
				Message: fmt.Sprintf("stages %s were auto-completed without dates and need backfill", strings.Join(backfilled, ", ")),
			})
		}

		before := snapshotStage(stage)
		msgs := workflow.ApplyStatus(stage, target, req.Date, res.SuggestedAutoStart)
		stage.UpdatedAt = now
		if err := stages.Update(ctx, stage); err != nil {
			return fmt.Errorf("updating stage: %w", err)
		}

		for _, action := range []domain.LogAction{domain.ActionDirectApply, domain.ActionApplied} {
			entry := newLogEntry(uuid.New().String(), now, logEntryInput{
				ProjectID: req.ProjectID,
				StageCode: req.StageCode,
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

		result = &contract.DirectApplyResult{
			UpdatedStatus:    stage.Status,
			ActualStart:      stage.ActualStart,
			CompletedOn:      stage.CompletedOn,
			BackfilledStages: backfilled,
			Warnings:         append(warnings, mutationWarnings(msgs)...),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
