package cli

import (
	"context"
	"fmt"

	"github.com/anirudhsen/stagetrack/internal/contract"
	"github.com/anirudhsen/stagetrack/internal/domain"
	"github.com/spf13/cobra"
)

func newRequestCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "request",
		Short: "Submit and decide stage change requests",
	}

	cmd.AddCommand(
		newRequestSubmitCmd(app),
		newRequestDecideCmd(app),
		newRequestPendingCmd(app),
	)

	return cmd
}

func newRequestSubmitCmd(app *App) *cobra.Command {
	var projectID, stage, status, date, note, asUser string

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Propose a stage status change for approval",
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
			res, err := app.Requests.Submit(ctx, contract.SubmitRequest{
				ProjectID: projectID,
				StageCode: stage,
				Target:    domain.StageStatus(status),
				Date:      d,
				Note:      note,
				Actor:     actor,
			})
			if err != nil {
				return err
			}
			printWarnings(res.Warnings)
			fmt.Printf("Submitted change request %s\n", res.RequestID)
			return nil
		},
	}

	cmd.Flags().StringVar(&projectID, "project", "", "Project ID")
	cmd.Flags().StringVar(&stage, "stage", "", "Stage code")
	cmd.Flags().StringVar(&status, "status", "", "Target status")
	cmd.Flags().StringVar(&date, "date", "", "Transition date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&note, "note", "", "Note for the approver")
	cmd.Flags().StringVar(&asUser, "as", "", "Acting user ID")
	return cmd
}

func newRequestDecideCmd(app *App) *cobra.Command {
	var projectID, requestID, note, asUser string
	var reject bool

	cmd := &cobra.Command{
		Use:   "decide",
		Short: "Approve or reject a pending change request",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			actor, err := resolveActor(ctx, app, projectID, asUser)
			if err != nil {
				return err
			}
			res, err := app.Requests.Decide(ctx, contract.DecideRequest{
				RequestID: requestID,
				Approve:   !reject,
				Note:      note,
				Actor:     actor,
			})
			if err != nil {
				return err
			}
			printWarnings(res.Warnings)
			fmt.Printf("Request %s\n", res.Decision)
			if res.Stage != nil {
				fmt.Printf("Stage %s is now %s\n", res.Stage.Code, res.Stage.Status)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&projectID, "project", "", "Project ID")
	cmd.Flags().StringVar(&requestID, "request", "", "Change request ID")
	cmd.Flags().BoolVar(&reject, "reject", false, "Reject instead of approve")
	cmd.Flags().StringVar(&note, "note", "", "Decision note")
	cmd.Flags().StringVar(&asUser, "as", "", "Acting user ID")
	return cmd
}

func newRequestPendingCmd(app *App) *cobra.Command {
	var projectID string

	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List pending change requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			requests, err := app.Requests.ListPending(context.Background(), projectID)
			if err != nil {
				return err
			}
			for _, r := range requests {
				fmt.Printf("%s  %-14s -> %-12s date %s  by %s  %s\n",
					r.ID, r.StageCode, r.RequestedStatus,
					formatDate(r.RequestedDate), r.RequestedBy, r.Note)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&projectID, "project", "", "Project ID")
	return cmd
}
