package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/anirudhsen/stagetrack/internal/domain"
	"github.com/spf13/cobra"
)

func newPlanCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Configure and generate the project schedule",
	}

	cmd.AddCommand(
		newPlanConfigCmd(app),
		newPlanGenerateCmd(app),
	)

	return cmd
}

func newPlanConfigCmd(app *App) *cobra.Command {
	var projectID, anchor, handOff string
	var includeWeekends, workHolidays bool
	var durationFlags []string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Store schedule settings and stage durations",
		RunE: func(cmd *cobra.Command, args []string) error {
			anchorDate, err := parseDateFlag(anchor)
			if err != nil {
				return err
			}

			var durations []domain.PlanDuration
			for i, v := range durationFlags {
				parts := strings.SplitN(v, ":", 2)
				if len(parts) != 2 {
					return fmt.Errorf("invalid duration %q (want STAGE:days)", v)
				}
				days, err := strconv.Atoi(parts[1])
				if err != nil {
					return fmt.Errorf("invalid day count in %q: %w", v, err)
				}
				durations = append(durations, domain.PlanDuration{
					ProjectID: projectID,
					StageCode: parts[0],
					Days:      days,
					SortOrder: i + 1,
				})
			}

			settings := &domain.ScheduleSettings{
				ProjectID:       projectID,
				AnchorStart:     anchorDate,
				IncludeWeekends: includeWeekends,
				SkipHolidays:    !workHolidays,
				HandOff:         domain.HandOffPolicy(handOff),
			}
			if err := app.Plans.ConfigureSchedule(context.Background(), settings, durations); err != nil {
				return err
			}
			fmt.Println("Schedule configured")
			return nil
		},
	}

	cmd.Flags().StringVar(&projectID, "project", "", "Project ID")
	cmd.Flags().StringVar(&anchor, "anchor", "", "Anchor start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&handOff, "handoff", "", "Hand-off policy: same_day or next_working_day")
	cmd.Flags().BoolVar(&includeWeekends, "include-weekends", false, "Count weekends as working days")
	cmd.Flags().BoolVar(&workHolidays, "work-holidays", false, "Count holidays as working days")
	cmd.Flags().StringArrayVar(&durationFlags, "duration", nil, "Stage duration as STAGE:days (repeatable, order sets sequence)")
	return cmd
}

func newPlanGenerateCmd(app *App) *cobra.Command {
	var projectID, asUser string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Recompute planned dates from durations and the calendar",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			actor, err := resolveActor(ctx, app, projectID, asUser)
			if err != nil {
				return err
			}
			if err := app.Plans.GeneratePlan(ctx, projectID, actor); err != nil {
				return err
			}
			fmt.Println("Plan generated")
			return nil
		},
	}

	cmd.Flags().StringVar(&projectID, "project", "", "Project ID")
	cmd.Flags().StringVar(&asUser, "as", "", "Acting user ID")
	return cmd
}
