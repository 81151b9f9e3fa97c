// Package depgraph resolves stage dependencies against the versioned
// process template. It keeps two similar but distinct predicates apart:
// a dependency is satisfied only by a completed predecessor, while tracker
// readiness also accepts skipped ones.
package depgraph

import (
	"sort"

	"github.com/anirudhsen/stagetrack/internal/domain"
)

// Graph is the loaded stage template set plus its dependency edges.
type Graph struct {
	templates []domain.StageTemplate
	edges     []domain.DependencyEdge
	pncCode   string
}

// New builds a Graph. Templates are kept in sequence order. The PNC code is
// taken from the template flagged IsPNC, if any.
func New(templates []domain.StageTemplate, edges []domain.DependencyEdge) *Graph {
	sorted := make([]domain.StageTemplate, len(templates))
	copy(sorted, templates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Sequence < sorted[j].Sequence
	})

	g := &Graph{templates: sorted, edges: edges}
	for _, t := range sorted {
		if t.IsPNC {
			g.pncCode = t.Code
			break
		}
	}
	return g
}

// Templates returns the stage templates in sequence order.
func (g *Graph) Templates() []domain.StageTemplate {
	return g.templates
}

// PNCCode returns the code of the negotiation-round stage, or "" if the
// template set designates none.
func (g *Graph) PNCCode() string {
	return g.pncCode
}

// RequiredPredecessors returns the direct predecessor codes of code, in
// template sequence order. When pncApplicable is false the PNC-designated
// stage is excluded from the graph and edges depending on it are dropped.
func (g *Graph) RequiredPredecessors(code string, pncApplicable bool) []string {
	var preds []string
	for _, e := range g.edges {
		if e.FromCode != code {
			continue
		}
		if !pncApplicable && g.pncCode != "" && e.DependsOnCode == g.pncCode {
			continue
		}
		preds = append(preds, e.DependsOnCode)
	}

	seq := make(map[string]int, len(g.templates))
	for _, t := range g.templates {
		seq[t.Code] = t.Sequence
	}
	sort.SliceStable(preds, func(i, j int) bool {
		return seq[preds[i]] < seq[preds[j]]
	})
	return preds
}

// SatisfiesDependency reports whether a predecessor in this status unblocks
// its dependents. Only completion counts; a skipped predecessor does not.
func SatisfiesDependency(s domain.StageStatus) bool {
	return s == domain.StageCompleted
}

// SatisfiesReadiness reports whether a stage in this status counts as done
// for the tracker's current-stage heuristic. Skipped counts here.
func SatisfiesReadiness(s domain.StageStatus) bool {
	return s == domain.StageCompleted || s == domain.StageSkipped
}

// MissingPredecessors returns the required predecessors of code whose
// status (per statuses, keyed by stage code) does not satisfy the
// dependency predicate. Predecessors absent from statuses count as missing.
func (g *Graph) MissingPredecessors(code string, pncApplicable bool, statuses map[string]domain.StageStatus) []string {
	var missing []string
	for _, pred := range g.RequiredPredecessors(code, pncApplicable) {
		if !SatisfiesDependency(statuses[pred]) {
			missing = append(missing, pred)
		}
	}
	return missing
}

// CurrentStageCode returns the tracker's notion of the project's current
// stage: the first non-optional stage in sequence order that is not yet
// ready (completed or skipped). Returns "" when every stage is ready.
func (g *Graph) CurrentStageCode(statuses map[string]domain.StageStatus) string {
	for _, t := range g.templates {
		if t.Optional {
			continue
		}
		if !SatisfiesReadiness(statuses[t.Code]) {
			return t.Code
		}
	}
	return ""
}
