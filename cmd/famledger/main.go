package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"famledger/internal/capability"
	"famledger/internal/config"
	"famledger/internal/logger"
	"famledger/internal/service"
	"famledger/internal/store"
	"famledger/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	cfg, err := config.GetSyncConfig()
	if err != nil {
		logger.NewLogger("famledger").Fatal().Err(err).Msg("error getting configs")
	}

	log := newLogger(cfg.App.LogPath)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storages, err := store.NewStorages(ctx, cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("create local cache")
	}

	provider := capability.NewOSFileProvider(log)
	services := service.NewServices(storages, provider, cfg.Sync, log)

	if err := services.SyncOrchestrator.Initialize(ctx); err != nil {
		log.Fatal().Err(err).Msg("initialize sync session")
	}

	// A preconfigured sync file path substitutes for the interactive picker
	// when no capability is stored yet.
	if cfg.Sync.FilePath != "" && services.SyncOrchestrator.State().State == service.StateNotConfigured {
		req := capability.PickRequest{Location: cfg.Sync.FilePath, Create: true}
		if err := services.SyncOrchestrator.SelectOrCreateStorage(ctx, req); err != nil {
			log.Fatal().Err(err).Msg("select sync file")
		}
	}

	if err := services.SyncOrchestrator.Load(ctx, ""); err != nil {
		if errors.Is(err, service.ErrPasswordRequired) {
			log.Warn().Msg("sync file is encrypted, load skipped until a password is provided")
		} else {
			log.Error().Err(err).Msg("load sync file")
		}
	}

	summary, err := services.RecurringMaterializer.Materialize(ctx, models.DateOf(time.Now()))
	if err != nil {
		log.Error().Err(err).Msg("materialize recurring transactions")
	}
	if summary.GeneratedCount > 0 {
		services.SyncOrchestrator.ScheduleSave()
	}

	unsubscribe := services.SyncOrchestrator.Subscribe(func(s service.StateSnapshot) {
		log.Info().Str("state", string(s.State)).Str("reason", s.Reason).Msg("sync state changed")
	})
	defer unsubscribe()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := services.SyncOrchestrator.SaveNow(flushCtx); err != nil && !errors.Is(err, service.ErrNotReady) {
		log.Error().Err(err).Msg("final save")
	}
}

func newLogger(logPath string) *logger.Logger {
	if logPath == "" {
		return logger.NewLogger("famledger")
	}
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		logger.NewLogger("famledger").Warn().Err(err).Msg("cannot open log file, logging to stdout")
		return logger.NewLogger("famledger")
	}
	return logger.NewLoggerTo("famledger", file)
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}
	if buildDate == "" {
		buildDate = "N/A"
	}
	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
