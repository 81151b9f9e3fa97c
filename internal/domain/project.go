package domain

import (
	"fmt"
	"time"
)

// Project owns a set of stages instantiated from the process template.
// RequesterID and ApproverID are the two workflow actors: the requester
// (PO) submits change requests, the approver (HoD) decides them and may
// direct-apply.
type Project struct {
	ID          string
	Name        string
	RequesterID string
	ApproverID  string

	// PNCApplicable keeps the negotiation-round stage in the dependency
	// graph. When false, dependency edges on that stage are ignored.
	PNCApplicable bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks required fields before persistence.
func (p *Project) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("project name is required")
	}
	if p.RequesterID == "" || p.ApproverID == "" {
		return fmt.Errorf("project requires both a requester and an approver")
	}
	return nil
}
