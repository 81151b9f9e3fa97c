package depgraph

import (
	"testing"

	"github.com/anirudhsen/stagetrack/internal/domain"
	"github.com/stretchr/testify/assert"
)

func testGraph() *Graph {
	templates := []domain.StageTemplate{
		{Code: "FEASIBILITY", Sequence: 1},
		{Code: "SANCTION", Sequence: 2},
		{Code: "PNC", Sequence: 3, IsPNC: true, Optional: true},
		{Code: "SUPPLY_ORDER", Sequence: 4},
		{Code: "ACCEPTANCE", Sequence: 5},
	}
	edges := []domain.DependencyEdge{
		{FromCode: "SANCTION", DependsOnCode: "FEASIBILITY"},
		{FromCode: "SUPPLY_ORDER", DependsOnCode: "SANCTION"},
		{FromCode: "SUPPLY_ORDER", DependsOnCode: "PNC"},
		{FromCode: "ACCEPTANCE", DependsOnCode: "SUPPLY_ORDER"},
	}
	return New(templates, edges)
}

func TestRequiredPredecessors_PNCFiltered(t *testing.T) {
	g := testGraph()

	withPNC := g.RequiredPredecessors("SUPPLY_ORDER", true)
	assert.Equal(t, []string{"SANCTION", "PNC"}, withPNC)

	withoutPNC := g.RequiredPredecessors("SUPPLY_ORDER", false)
	assert.Equal(t, []string{"SANCTION"}, withoutPNC)
}

func TestMissingPredecessors_SkippedDoesNotSatisfy(t *testing.T) {
	g := testGraph()
	statuses := map[string]domain.StageStatus{
		"FEASIBILITY": domain.StageCompleted,
		"SANCTION":    domain.StageCompleted,
		"PNC":         domain.StageSkipped,
	}

	missing := g.MissingPredecessors("SUPPLY_ORDER", true, statuses)
	assert.Equal(t, []string{"PNC"}, missing, "skipped predecessor does not satisfy a dependency")
}

func TestMissingPredecessors_AllSatisfied(t *testing.T) {
	g := testGraph()
	statuses := map[string]domain.StageStatus{
		"FEASIBILITY": domain.StageCompleted,
		"SANCTION":    domain.StageCompleted,
		"PNC":         domain.StageCompleted,
	}

	assert.Empty(t, g.MissingPredecessors("SUPPLY_ORDER", true, statuses))
}

func TestCurrentStageCode_SkippedCountsAsReady(t *testing.T) {
	g := testGraph()
	statuses := map[string]domain.StageStatus{
		"FEASIBILITY": domain.StageCompleted,
		"SANCTION":    domain.StageSkipped,
		"PNC":         domain.StageNotStarted,
	}

	// PNC is optional so the tracker lands on SUPPLY_ORDER.
	assert.Equal(t, "SUPPLY_ORDER", g.CurrentStageCode(statuses))
}

func TestCurrentStageCode_AllReady(t *testing.T) {
	g := testGraph()
	statuses := map[string]domain.StageStatus{
		"FEASIBILITY":  domain.StageCompleted,
		"SANCTION":     domain.StageCompleted,
		"PNC":          domain.StageNotStarted,
		"SUPPLY_ORDER": domain.StageCompleted,
		"ACCEPTANCE":   domain.StageSkipped,
	}

	assert.Equal(t, "", g.CurrentStageCode(statuses))
}
