package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anirudhsen/stagetrack/internal/contract"
	"github.com/anirudhsen/stagetrack/internal/depgraph"
	"github.com/anirudhsen/stagetrack/internal/domain"
	"github.com/anirudhsen/stagetrack/internal/repository"
	"github.com/anirudhsen/stagetrack/internal/workflow"
)

// loadGraph materializes the dependency graph from the stored template set.
func loadGraph(ctx context.Context, templates repository.TemplateRepo) (*depgraph.Graph, error) {
	tmpls, err := templates.ListTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading stage templates: %w", err)
	}
	edges, err := templates.ListEdges(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading stage dependencies: %w", err)
	}
	return depgraph.New(tmpls, edges), nil
}

func stagesByCode(stages []*domain.Stage) map[string]*domain.Stage {
	m := make(map[string]*domain.Stage, len(stages))
	for _, s := range stages {
		m[s.Code] = s
	}
	return m
}

func stageStatuses(stages map[string]*domain.Stage) map[string]domain.StageStatus {
	m := make(map[string]domain.StageStatus, len(stages))
	for code, s := range stages {
		m[code] = s.Status
	}
	return m
}

// suggestedAutoStart returns the latest completion date among the required
// predecessors that satisfy the dependency predicate, or nil when none have
// a completion date. Used to back an absent actual start on completion.
func suggestedAutoStart(graph *depgraph.Graph, stages map[string]*domain.Stage, code string, pncApplicable bool) *time.Time {
	var latest *time.Time
	for _, pred := range graph.RequiredPredecessors(code, pncApplicable) {
		s, ok := stages[pred]
		if !ok || !depgraph.SatisfiesDependency(s.Status) || s.CompletedOn == nil {
			continue
		}
		if latest == nil || s.CompletedOn.After(*latest) {
			latest = s.CompletedOn
		}
	}
	return latest
}

// validateTransition runs the full pre-mutation check shared by the request
// workflow, the decision step and direct apply. It never mutates anything.
//
// Rules, in order: the date may not be in the future; the transition table
// must allow the move; completing without a date is an error unless the
// actor is an approver (administrative completion, leaves a backfill debt);
// starting or completing checks required predecessors; a completion date
// earlier than the suggested auto-start is an approver warning but a
// requester error.
func validateTransition(
	clock Clock,
	graph *depgraph.Graph,
	project *domain.Project,
	stage *domain.Stage,
	stages map[string]*domain.Stage,
	target domain.StageStatus,
	date *time.Time,
	isApprover bool,
) *contract.ValidationResult {
	res := &contract.ValidationResult{}

	if date != nil && date.After(clock.Today()) {
		res.Errors = append(res.Errors, "date cannot be in the future")
	}

	decision := workflow.Evaluate(stage.Status, target, date != nil)
	if !decision.Allowed {
		res.Errors = append(res.Errors, decision.Reason)
	}

	if target == domain.StageCompleted && date == nil && !isApprover {
		res.Errors = append(res.Errors, "completion date is required")
	}

	if target == domain.StageInProgress || target == domain.StageCompleted {
		res.MissingPredecessors = graph.MissingPredecessors(stage.Code, project.PNCApplicable, stageStatuses(stages))
	}

	if target == domain.StageCompleted {
		suggested := suggestedAutoStart(graph, stages, stage.Code, project.PNCApplicable)
		res.SuggestedAutoStart = suggested
		if suggested != nil && date != nil && date.Before(*suggested) {
			msg := fmt.Sprintf("completion date %s is earlier than the latest predecessor completion %s",
				date.Format("2006-01-02"), suggested.Format("2006-01-02"))
			if isApprover {
				res.Warnings = append(res.Warnings, contract.Warning{
					Code:    contract.WarnForceOverride,
					Message: msg,
				})
			} else {
				res.Errors = append(res.Errors, msg)
			}
		}
	}

	res.IsValid = len(res.Errors) == 0 && len(res.MissingPredecessors) == 0
	return res
}

// validationFailed converts a failed ValidationResult into a
// *ValidationError carrying every reason, missing predecessors included.
func validationFailed(res *contract.ValidationResult) error {
	reasons := make([]string, 0, len(res.Errors)+len(res.MissingPredecessors))
	reasons = append(reasons, res.Errors...)
	for _, pred := range res.MissingPredecessors {
		reasons = append(reasons, fmt.Sprintf("predecessor %s must be completed first", pred))
	}
	return &ValidationError{Reasons: reasons}
}

func mutationWarnings(msgs []string) []contract.Warning {
	var out []contract.Warning
	for _, m := range msgs {
		out = append(out, contract.Warning{Code: contract.WarnCompletionClamped, Message: m})
	}
	return out
}

// isUniqueViolation detects a SQLite unique-constraint failure. The driver
// does not export a typed error for this, so the message is matched.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// statusPtr copies a status so change-log rows do not alias mutable stage
// fields.
func statusPtr(s domain.StageStatus) *domain.StageStatus {
	c := s
	return &c
}

// logEntryInput collects the before/after picture for one change-log row.
type logEntryInput struct {
	ProjectID string
	StageCode string
	Action    domain.LogAction
	From      *domain.Stage
	To        *domain.Stage
	Actor     string
	Note      string
}

func newLogEntry(id string, at time.Time, in logEntryInput) *domain.ChangeLogEntry {
	e := &domain.ChangeLogEntry{
		ID:        id,
		ProjectID: in.ProjectID,
		StageCode: in.StageCode,
		Action:    in.Action,
		Actor:     in.Actor,
		Note:      in.Note,
		CreatedAt: at,
	}
	if in.From != nil {
		e.FromStatus = statusPtr(in.From.Status)
		e.FromActualStart = in.From.ActualStart
		e.FromCompletedOn = in.From.CompletedOn
	}
	if in.To != nil {
		e.ToStatus = statusPtr(in.To.Status)
		e.ToActualStart = in.To.ActualStart
		e.ToCompletedOn = in.To.CompletedOn
	}
	return e
}

// snapshotStage copies the mutable fields consulted by change logging.
func snapshotStage(s *domain.Stage) *domain.Stage {
	c := *s
	return &c
}
