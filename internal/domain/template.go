package domain

// StageTemplate defines one stage of the process template: its code, display
// name, position in the fixed sequence, and whether the tracker treats it as
// optional. IsPNC marks the negotiation-round stage that drops out of the
// dependency graph when a project's PNCApplicable flag is false.
type StageTemplate struct {
	Code     string
	Name     string
	Sequence int
	Optional bool
	IsPNC    bool
	Version  int
}

// DependencyEdge declares that FromCode may only start or complete once
// DependsOnCode is completed. Edges are single-hop; no transitive closure
// is computed.
type DependencyEdge struct {
	FromCode      string
	DependsOnCode string
	Version       int
}
