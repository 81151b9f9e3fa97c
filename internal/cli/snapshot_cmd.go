package cli

import (
	"context"
	"fmt"

	"github.com/anirudhsen/stagetrack/internal/contract"
	"github.com/spf13/cobra"
)

func newSnapshotCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Capture and compare plan snapshots",
	}

	cmd.AddCommand(
		newSnapshotTakeCmd(app),
		newSnapshotDiffCmd(app),
		newSnapshotPreviewCmd(app),
	)

	return cmd
}

func newSnapshotTakeCmd(app *App) *cobra.Command {
	var projectID, asUser string

	cmd := &cobra.Command{
		Use:   "take",
		Short: "Snapshot the current planned dates",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			actor, err := resolveActor(ctx, app, projectID, asUser)
			if err != nil {
				return err
			}
			id, err := app.Snapshots.Snapshot(ctx, projectID, actor)
			if err != nil {
				return err
			}
			fmt.Printf("Snapshot %s taken\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&projectID, "project", "", "Project ID")
	cmd.Flags().StringVar(&asUser, "as", "", "Acting user ID")
	return cmd
}

func printDiff(rows []contract.DiffRow, changedOnly bool) {
	for _, row := range rows {
		if changedOnly && !row.Changed() {
			continue
		}
		fmt.Printf("%-14s %s..%s  ->  %s..%s\n",
			row.StageCode,
			formatDate(row.OldStart), formatDate(row.OldDue),
			formatDate(row.NewStart), formatDate(row.NewDue))
	}
}

func newSnapshotDiffCmd(app *App) *cobra.Command {
	var projectID string
	var all bool

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Compare the live plan against the last snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := app.Snapshots.DiffAgainstLastSnapshot(context.Background(), projectID)
			if err != nil {
				return err
			}
			printDiff(rows, !all)
			return nil
		},
	}

	cmd.Flags().StringVar(&projectID, "project", "", "Project ID")
	cmd.Flags().BoolVar(&all, "all", false, "Show unchanged stages too")
	return cmd
}

func newSnapshotPreviewCmd(app *App) *cobra.Command {
	var projectID string
	var all bool

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Preview a regeneration against the stored plan without applying it",
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := app.Snapshots.DiffDraftVsCurrent(context.Background(), projectID)
			if err != nil {
				return err
			}
			printDiff(rows, !all)
			return nil
		},
	}

	cmd.Flags().StringVar(&projectID, "project", "", "Project ID")
	cmd.Flags().BoolVar(&all, "all", false, "Show unchanged stages too")
	return cmd
}
