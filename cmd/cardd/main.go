package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/TanHoangarc/Admin/internal/app"
	"github.com/TanHoangarc/Admin/internal/config"
	"github.com/TanHoangarc/Admin/internal/constants"
	"github.com/TanHoangarc/Admin/internal/health"
	"github.com/TanHoangarc/Admin/internal/util"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	logger, err := util.EnableFileLoggingWithLevel(util.LogConfig{
		Dir:        cfg.Logging.Dir,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	}, cfg.Logging.File, cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}
	slog.SetDefault(logger)
	health.Init(cfg.Version)

	logger.Info("cardd_starting",
		slog.String("version", cfg.Version),
		slog.String("log_level", cfg.Logging.Level),
		slog.String("store", cfg.Store.Backend),
	)

	buildCtx, buildCancel := context.WithTimeout(context.Background(), constants.AppTimeout.Build)
	runtime, err := app.BuildRuntime(buildCtx, cfg, logger)
	buildCancel()
	if err != nil {
		logger.Error("runtime_build_failed", slog.Any("error", err))
		return 1
	}
	defer runtime.Close()

	if err := runtime.Run(); err != nil {
		return 1
	}
	return 0
}
