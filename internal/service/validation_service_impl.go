package service

import (
	"context"
	"fmt"

	"github.com/anirudhsen/stagetrack/internal/contract"
	"github.com/anirudhsen/stagetrack/internal/repository"
	"github.com/anirudhsen/stagetrack/internal/workflow"
)

type validationService struct {
	projects  repository.ProjectRepo
	stages    repository.StageRepo
	templates repository.TemplateRepo
	clock     Clock
}

func NewValidationService(
	projects repository.ProjectRepo,
	stages repository.StageRepo,
	templates repository.TemplateRepo,
	clock Clock,
) ValidationService {
	return &validationService{
		projects:  projects,
		stages:    stages,
		templates: templates,
		clock:     clock,
	}
}

// Validate runs the shared transition check without mutating anything. It
// is the dry-run counterpart of Submit and Apply: the same rules, the same
// result shape, no side effects.
func (s *validationService) Validate(ctx context.Context, req contract.ValidateRequest) (*contract.ValidationResult, error) {
	project, err := s.projects.GetByID(ctx, req.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("loading project: %w", err)
	}
	stage, err := s.stages.GetByCode(ctx, req.ProjectID, req.StageCode)
	if err != nil {
		return nil, fmt.Errorf("loading stage %s: %w", req.StageCode, err)
	}
	all, err := s.stages.ListByProject(ctx, req.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("loading stages: %w", err)
	}
	graph, err := loadGraph(ctx, s.templates)
	if err != nil {
		return nil, err
	}

	target := workflow.ResolveReopen(req.Target, req.Date != nil)
	return validateTransition(s.clock, graph, project, stage, stagesByCode(all), target, req.Date, req.IsApprover), nil
}
