package main

import (
	"complianceTracker/internal/repository/postgres"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:       "migrate up|down",
		Short:     "Применить или откатить миграции PostgreSQL",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			url := cfg.DatabaseURL()
			if url == "" {
				return errors.New("не задан database.url")
			}

			switch args[0] {
			case "up":
				if err := postgres.Migrate(url); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "миграции применены")
			case "down":
				if err := postgres.Rollback(url, steps); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "откачено шагов: %d\n", steps)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 1, "сколько миграций откатить")
	return cmd
}
