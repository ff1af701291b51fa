package main

import (
	"complianceTracker/internal/app"
	"complianceTracker/internal/logger"
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "HTTP API, плановое создание задач и напоминания",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(ctx context.Context, opts *rootOptions) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := app.New(cfg)
	defer a.Close()
	if err := a.Init(ctx); err != nil {
		return fmt.Errorf("инициализация: %w", err)
	}

	if err := a.Run(ctx); err != nil {
		logger.Error("Приложение остановлено с ошибкой", err)
		return err
	}
	logger.Info("Приложение остановлено")
	return nil
}
