package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/anirudhsen/stagetrack/internal/db"
	"github.com/anirudhsen/stagetrack/internal/domain"
	"github.com/anirudhsen/stagetrack/internal/repository"
	"github.com/google/uuid"
)

// Date builds a UTC midnight calendar date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DatePtr is Date returning a pointer, for nullable fields.
func DatePtr(year int, month time.Month, day int) *time.Time {
	d := Date(year, month, day)
	return &d
}

// FixedClock pins both the instant and today's date for deterministic
// validation of future-date rules.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }

func (c FixedClock) Today() time.Time {
	return time.Date(c.T.Year(), c.T.Month(), c.T.Day(), 0, 0, 0, 0, time.UTC)
}

// Project options
type ProjectOption func(*domain.Project)

func WithRequester(id string) ProjectOption {
	return func(p *domain.Project) { p.RequesterID = id }
}

func WithApprover(id string) ProjectOption {
	return func(p *domain.Project) { p.ApproverID = id }
}

func WithPNCApplicable(v bool) ProjectOption {
	return func(p *domain.Project) { p.PNCApplicable = v }
}

func NewTestProject(name string, opts ...ProjectOption) *domain.Project {
	now := time.Now().UTC()
	p := &domain.Project{
		ID:            uuid.New().String(),
		Name:          name,
		RequesterID:   "po-1",
		ApproverID:    "hod-1",
		PNCApplicable: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Stage options
type StageOption func(*domain.Stage)

func WithStatus(s domain.StageStatus) StageOption {
	return func(st *domain.Stage) { st.Status = s }
}

func WithActualStart(d time.Time) StageOption {
	return func(st *domain.Stage) { st.ActualStart = &d }
}

func WithCompletedOn(d time.Time) StageOption {
	return func(st *domain.Stage) { st.CompletedOn = &d }
}

func WithPlannedDates(start, due time.Time) StageOption {
	return func(st *domain.Stage) {
		st.PlannedStart = &start
		st.PlannedDue = &due
	}
}

func WithRequiresBackfill() StageOption {
	return func(st *domain.Stage) { st.RequiresBackfill = true }
}

func NewTestStage(projectID, code string, opts ...StageOption) *domain.Stage {
	now := time.Now().UTC()
	st := &domain.Stage{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Code:      code,
		Status:    domain.StageNotStarted,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(st)
	}
	return st
}

// ProcurementTemplates is the canonical five-stage template set used across
// tests: feasibility, sanction, an optional negotiation round, supply order,
// acceptance. The supply order depends on both sanction and the negotiation
// round; dropping PNC applicability removes the latter edge.
func ProcurementTemplates() ([]domain.StageTemplate, []domain.DependencyEdge) {
	templates := []domain.StageTemplate{
		{Code: "FEASIBILITY", Name: "Feasibility Study", Sequence: 1, Version: 1},
		{Code: "SANCTION", Name: "Expenditure Sanction", Sequence: 2, Version: 1},
		{Code: "PNC", Name: "Price Negotiation", Sequence: 3, Optional: true, IsPNC: true, Version: 1},
		{Code: "SUPPLY_ORDER", Name: "Supply Order", Sequence: 4, Version: 1},
		{Code: "ACCEPTANCE", Name: "Acceptance Testing", Sequence: 5, Version: 1},
	}
	edges := []domain.DependencyEdge{
		{FromCode: "SANCTION", DependsOnCode: "FEASIBILITY", Version: 1},
		{FromCode: "PNC", DependsOnCode: "SANCTION", Version: 1},
		{FromCode: "SUPPLY_ORDER", DependsOnCode: "SANCTION", Version: 1},
		{FromCode: "SUPPLY_ORDER", DependsOnCode: "PNC", Version: 1},
		{FromCode: "ACCEPTANCE", DependsOnCode: "SUPPLY_ORDER", Version: 1},
	}
	return templates, edges
}

// SeedTemplates writes the canonical template set into the database.
func SeedTemplates(t *testing.T, database db.DBTX) {
	t.Helper()
	templates, edges := ProcurementTemplates()
	repo := repository.NewSQLiteTemplateRepo(database)
	if err := repo.ReplaceAll(context.Background(), templates, edges); err != nil {
		t.Fatalf("seeding templates: %v", err)
	}
}

// SeedProject writes a project and one stage row per template, applying
// stage options keyed by stage code.
func SeedProject(t *testing.T, database db.DBTX, p *domain.Project, stageOpts map[string][]StageOption) map[string]*domain.Stage {
	t.Helper()
	ctx := context.Background()

	if err := repository.NewSQLiteProjectRepo(database).Create(ctx, p); err != nil {
		t.Fatalf("seeding project: %v", err)
	}

	templates, _ := ProcurementTemplates()
	stages := repository.NewSQLiteStageRepo(database)
	out := make(map[string]*domain.Stage, len(templates))
	for _, tmpl := range templates {
		st := NewTestStage(p.ID, tmpl.Code, stageOpts[tmpl.Code]...)
		if err := stages.Create(ctx, st); err != nil {
			t.Fatalf("seeding stage %s: %v", tmpl.Code, err)
		}
		out[tmpl.Code] = st
	}
	return out
}
