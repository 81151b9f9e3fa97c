package cli

import (
	"context"
	"fmt"

	"github.com/anirudhsen/stagetrack/internal/config"
	"github.com/spf13/cobra"
)

func newSeedCmd(app *App) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the process template and holiday list from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := config.Load(file)
			if err != nil {
				return err
			}
			if err := config.Seed(context.Background(), app.UoW, f); err != nil {
				return err
			}
			fmt.Printf("Seeded %d stages and %d holidays (template version %d)\n",
				len(f.Stages), len(f.Holidays), f.Version)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "template.yaml", "Template YAML file")
	return cmd
}
