package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sst-resolve/resolve-bot/internal/application"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Run the webhook and admin HTTP API (default)",
	RunE:  runAPI,
}

func runAPI(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := application.NewAPI(cfg, log)
	if err != nil {
		log.Error("startup failed", zap.Error(err))
		return err
	}
	if err := app.Run(ctx); err != nil {
		log.Error("server stopped", zap.Error(err))
		return err
	}
	log.Info("server stopped")
	return nil
}
