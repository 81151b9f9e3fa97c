// Package cli wires the engine services into the stagetrack command tree.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/anirudhsen/stagetrack/internal/contract"
	"github.com/anirudhsen/stagetrack/internal/db"
	"github.com/anirudhsen/stagetrack/internal/service"
	"github.com/spf13/cobra"
)

// App holds references to all service interfaces used by CLI commands.
type App struct {
	Projects    service.ProjectService
	Validation  service.ValidationService
	Requests    service.RequestService
	DirectApply service.DirectApplyService
	Actuals     service.ActualsService
	Plans       service.PlanService
	Snapshots   service.SnapshotService

	// UoW backs commands that write outside the service layer (seeding).
	UoW db.UnitOfWork
}

// NewRootCmd creates the top-level "stagetrack" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "stagetrack",
		Short: "Stage workflow and schedule tracker for procurement projects",
	}

	root.AddCommand(
		newSeedCmd(app),
		newProjectCmd(app),
		newRequestCmd(app),
		newApplyCmd(app),
		newValidateCmd(app),
		newBackfillCmd(app),
		newActualsCmd(app),
		newPlanCmd(app),
		newSnapshotCmd(app),
	)

	return root
}

const dateLayout = "2006-01-02"

// parseDateFlag parses an optional YYYY-MM-DD flag value.
func parseDateFlag(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	d, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", value, err)
	}
	return &d, nil
}

func formatDate(d *time.Time) string {
	if d == nil {
		return "-"
	}
	return d.Format(dateLayout)
}

// resolveActor maps a user ID onto the project's workflow roles.
func resolveActor(ctx context.Context, app *App, projectID, userID string) (contract.Actor, error) {
	if userID == "" {
		return contract.Actor{}, fmt.Errorf("--as is required")
	}
	p, err := app.Projects.GetByID(ctx, projectID)
	if err != nil {
		return contract.Actor{}, err
	}
	return contract.Actor{
		ID:          userID,
		IsRequester: p.RequesterID == userID,
		IsApprover:  p.ApproverID == userID,
	}, nil
}

func printWarnings(warnings []contract.Warning) {
	for _, w := range warnings {
		fmt.Printf("Warning [%s]: %s\n", w.Code, w.Message)
	}
}
