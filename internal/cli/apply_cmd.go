package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/anirudhsen/stagetrack/internal/contract"
	"github.com/anirudhsen/stagetrack/internal/domain"
	"github.com/spf13/cobra"
)

func newApplyCmd(app *App) *cobra.Command {
	var projectID, stage, status, date, note, asUser string
	var force bool

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply a stage status change directly (approver only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			actor, err := resolveActor(ctx, app, projectID, asUser)
			if err != nil {
				return err
			}
			d, err := parseDateFlag(date)
			if err != nil {
				return err
			}
			res, err := app.DirectApply.Apply(ctx, contract.DirectApplyRequest{
				ProjectID:                 projectID,
				StageCode:                 stage,
				Target:                    domain.StageStatus(status),
				Date:                      d,
				Note:                      note,
				ForceBackfillPredecessors: force,
				Actor:                     actor,
			})
			if err != nil {
				return err
			}
			printWarnings(res.Warnings)
			fmt.Printf("Stage %s is now %s\n", stage, res.UpdatedStatus)
			if len(res.BackfilledStages) > 0 {
				fmt.Printf("Auto-completed pending backfill: %s\n", strings.Join(res.BackfilledStages, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&projectID, "project", "", "Project ID")
	cmd.Flags().StringVar(&stage, "stage", "", "Stage code")
	cmd.Flags().StringVar(&status, "status", "", "Target status (or 'reopen')")
	cmd.Flags().StringVar(&date, "date", "", "Transition date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&note, "note", "", "Note for the change log")
	cmd.Flags().BoolVar(&force, "force", false, "Auto-complete missing predecessors without dates")
	cmd.Flags().StringVar(&asUser, "as", "", "Acting user ID")
	return cmd
}

func newValidateCmd(app *App) *cobra.Command {
	var projectID, stage, status, date, asUser string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Dry-run a stage transition without applying it",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			actor, err := resolveActor(ctx, app, projectID, asUser)
			if err != nil {
				return err
			}
			d, err := parseDateFlag(date)
			if err != nil {
				return err
			}
			res, err := app.Validation.Validate(ctx, contract.ValidateRequest{
				ProjectID:  projectID,
				StageCode:  stage,
				Target:     domain.StageStatus(status),
				Date:       d,
				IsApprover: actor.IsApprover,
			})
			if err != nil {
				return err
			}
			if res.IsValid {
				fmt.Println("OK")
			} else {
				fmt.Println("Invalid:")
				for _, e := range res.Errors {
					fmt.Printf("  - %s\n", e)
				}
				for _, p := range res.MissingPredecessors {
					fmt.Printf("  - predecessor %s must be completed first\n", p)
				}
			}
			printWarnings(res.Warnings)
			if res.SuggestedAutoStart != nil {
				fmt.Printf("Suggested start: %s\n", res.SuggestedAutoStart.Format(dateLayout))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&projectID, "project", "", "Project ID")
	cmd.Flags().StringVar(&stage, "stage", "", "Stage code")
	cmd.Flags().StringVar(&status, "status", "", "Target status")
	cmd.Flags().StringVar(&date, "date", "", "Transition date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&asUser, "as", "", "Acting user ID")
	return cmd
}
