package main

import (
	"complianceTracker/internal/app"
	"complianceTracker/internal/handlers/dto"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// seedFile - формат файла с активностями для начальной загрузки.
type seedFile struct {
	Activities []dto.CreateActivityRequest `yaml:"activities"`
}

func readSeedFile(path string) (*seedFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение %s: %w", path, err)
	}
	var file seedFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("разбор %s: %w", path, err)
	}
	if len(file.Activities) == 0 {
		return nil, fmt.Errorf("в %s нет активностей", path)
	}
	return &file, nil
}

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Загрузить активности из YAML в настроенное хранилище",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			file, err := readSeedFile(path)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			a := app.New(cfg)
			defer a.Close()
			if err := a.Init(ctx); err != nil {
				return fmt.Errorf("инициализация: %w", err)
			}
			svc := a.Service()
			loc := svc.Now().Location()

			var errs []error
			loaded := 0
			for i, req := range file.Activities {
				activity, err := req.ToActivity(loc)
				if err != nil {
					errs = append(errs, fmt.Errorf("активность #%d %q: %w", i+1, req.Name, err))
					continue
				}
				created, err := svc.CreateActivity(ctx, activity)
				if err != nil {
					errs = append(errs, fmt.Errorf("активность #%d %q: %w", i+1, req.Name, err))
					continue
				}
				loaded++
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", created.UUID, created.Name, created.Frequency)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "загружено: %d из %d\n", loaded, len(file.Activities))
			return errors.Join(errs...)
		},
	}
	cmd.Flags().StringVarP(&path, "file", "f", "activities.yml", "YAML с активностями")
	return cmd
}
