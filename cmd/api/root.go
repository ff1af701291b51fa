package main

import (
	"complianceTracker/internal/config"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "compliance",
		Short:         "Учёт регулярных обязательств: расписания, согласование, отчёт о соответствии",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "путь к config.yml (по умолчанию ./config.yml)")

	root.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newDueDatesCmd(opts),
		newSeedCmd(opts),
	)
	return root
}

func (o *rootOptions) load() (*config.Config, error) {
	return config.Load(o.configPath)
}
