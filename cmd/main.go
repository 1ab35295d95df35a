package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"pr-analysis-service/internal/app"
	"pr-analysis-service/internal/config"
	"pr-analysis-service/internal/database"
	"pr-analysis-service/internal/logger"

	"go.uber.org/zap"
)

func main() {
	configFilePath := os.Getenv("CONFIG_PATH")
	if configFilePath == "" {
		panic("env CONFIG_PATH is empty")
	}
	cfg, err := config.Load(configFilePath)
	if err != nil {
		panic("error on loading config: " + err.Error())
	}

	log := logger.NewLogger(cfg.App.LogLevel)
	defer log.Sync()

	err = database.Migrate(cfg.App.MigrationDir, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("error on migrating database", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	analysisApp := app.NewAnalysisApp(cfg, log)

	if err := analysisApp.Run(ctx); err != nil {
		if ctx.Err() != nil {
			log.Info("app stopped by context")
		} else {
			log.Error("app exited with error", zap.Error(err))
		}
	}
}
