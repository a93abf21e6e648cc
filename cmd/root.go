package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sst-resolve/resolve-bot/internal/config"
	"github.com/sst-resolve/resolve-bot/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:          "resolve-bot",
	Short:        "SST Resolve: WhatsApp ticket intake bot",
	SilenceUsage: true,
	RunE:         runAPI,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(apiCmd)
	rootCmd.AddCommand(migrateCmd)
}

// bootstrap загружает .env и конфиг, создаёт логгер. Общая часть всех команд.
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(cfg.LogLevel, cfg.AppEnv)
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", zap.Error(err))
		return nil, nil, err
	}
	return cfg, log, nil
}
