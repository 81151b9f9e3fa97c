package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/anirudhsen/stagetrack/internal/contract"
	"github.com/spf13/cobra"
)

// parseStageDates parses repeated "STAGE:start:done" flag values. Either
// date may be empty to leave the stored value untouched.
func parseStageDates(values []string) ([]contract.StageDateUpdate, error) {
	var updates []contract.StageDateUpdate
	for _, v := range values {
		parts := strings.SplitN(v, ":", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid stage dates %q (want STAGE:start:done)", v)
		}
		start, err := parseDateFlag(parts[1])
		if err != nil {
			return nil, err
		}
		done, err := parseDateFlag(parts[2])
		if err != nil {
			return nil, err
		}
		updates = append(updates, contract.StageDateUpdate{
			StageCode:   parts[0],
			ActualStart: start,
			CompletedOn: done,
		})
	}
	return updates, nil
}

func newBackfillCmd(app *App) *cobra.Command {
	var projectID, asUser string
	var stageDates []string

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Fill in actual dates for auto-completed stages",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			actor, err := resolveActor(ctx, app, projectID, asUser)
			if err != nil {
				return err
			}
			updates, err := parseStageDates(stageDates)
			if err != nil {
				return err
			}
			res, err := app.Actuals.ApplyBackfill(ctx, projectID, updates, actor)
			if err != nil {
				return err
			}
			printWarnings(res.Warnings)
			fmt.Printf("Backfilled %d stage(s): %s\n", res.UpdatedCount, strings.Join(res.StageCodes, ", "))
			return nil
		},
	}

	cmd.Flags().StringVar(&projectID, "project", "", "Project ID")
	cmd.Flags().StringArrayVar(&stageDates, "stage", nil, "Stage dates as STAGE:start:done (repeatable)")
	cmd.Flags().StringVar(&asUser, "as", "", "Acting user ID")
	return cmd
}

func newActualsCmd(app *App) *cobra.Command {
	var projectID, asUser string
	var stageDates []string

	cmd := &cobra.Command{
		Use:   "actuals",
		Short: "Correct recorded actual dates",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			actor, err := resolveActor(ctx, app, projectID, asUser)
			if err != nil {
				return err
			}
			updates, err := parseStageDates(stageDates)
			if err != nil {
				return err
			}
			res, err := app.Actuals.UpdateActuals(ctx, projectID, updates, actor)
			if err != nil {
				return err
			}
			printWarnings(res.Warnings)
			fmt.Printf("Updated %d stage(s): %s\n", res.UpdatedCount, strings.Join(res.StageCodes, ", "))
			return nil
		},
	}

	cmd.Flags().StringVar(&projectID, "project", "", "Project ID")
	cmd.Flags().StringArrayVar(&stageDates, "stage", nil, "Stage dates as STAGE:start:done (repeatable)")
	cmd.Flags().StringVar(&asUser, "as", "", "Acting user ID")
	return cmd
}
