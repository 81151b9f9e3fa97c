package cli

import (
	"context"
	"fmt"

	"github.com/anirudhsen/stagetrack/internal/domain"
	"github.com/spf13/cobra"
)

func newProjectCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}

	cmd.AddCommand(
		newProjectAddCmd(app),
		newProjectListCmd(app),
		newProjectShowCmd(app),
		newProjectHistoryCmd(app),
	)

	return cmd
}

func newProjectAddCmd(app *App) *cobra.Command {
	var name, requester, approver string
	var noPNC bool

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a new project from the seeded template",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := &domain.Project{
				Name:          name,
				RequesterID:   requester,
				ApproverID:    approver,
				PNCApplicable: !noPNC,
			}
			if err := app.Projects.Create(context.Background(), p); err != nil {
				return err
			}
			fmt.Printf("Created project %s (%s)\n", p.Name, p.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Project name")
	cmd.Flags().StringVar(&requester, "requester", "", "User ID of the requesting officer")
	cmd.Flags().StringVar(&approver, "approver", "", "User ID of the approving officer")
	cmd.Flags().BoolVar(&noPNC, "no-pnc", false, "Skip the price negotiation stage for this project")
	return cmd
}

func newProjectListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			projects, err := app.Projects.List(context.Background())
			if err != nil {
				return err
			}
			for _, p := range projects {
				fmt.Printf("%s  %s  (requester %s, approver %s)\n", p.ID, p.Name, p.RequesterID, p.ApproverID)
			}
			return nil
		},
	}
}

func newProjectShowCmd(app *App) *cobra.Command {
	var projectID string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the project's stage tracker",
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := app.Projects.Tracker(context.Background(), projectID)
			if err != nil {
				return err
			}
			for _, sv := range view.Stages {
				marker := "  "
				if sv.IsCurrent {
					marker = "> "
				}
				line := fmt.Sprintf("%s%-14s %-12s planned %s..%s actual %s..%s",
					marker, sv.Code, sv.Status,
					formatDate(sv.PlannedStart), formatDate(sv.PlannedDue),
					formatDate(sv.ActualStart), formatDate(sv.CompletedOn))
				if sv.RequiresBackfill {
					line += "  [needs backfill]"
				}
				if sv.HasPendingRequest {
					line += "  [pending request]"
				}
				fmt.Println(line)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&projectID, "project", "", "Project ID")
	return cmd
}

func newProjectHistoryCmd(app *App) *cobra.Command {
	var projectID string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the project's change log",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := app.Projects.History(context.Background(), projectID)
			if err != nil {
				return err
			}
			for _, e := range entries {
				from, to := "-", "-"
				if e.FromStatus != nil {
					from = string(*e.FromStatus)
				}
				if e.ToStatus != nil {
					to = string(*e.ToStatus)
				}
				fmt.Printf("%s  %-14s %-16s %s -> %s  by %s  %s\n",
					e.CreatedAt.Format("2006-01-02 15:04"),
					e.StageCode, e.Action, from, to, e.Actor, e.Note)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&projectID, "project", "", "Project ID")
	return cmd
}
