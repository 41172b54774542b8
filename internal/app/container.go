package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/TanHoangarc/Admin/internal/config"
	"github.com/TanHoangarc/Admin/internal/metrics"
)

// InitializeRuntime: 의존성 그래프를 순서대로 조립한다.
// 실패하면 그때까지 만든 자원을 역순으로 정리한다.
func InitializeRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Runtime, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}
	fail := func(err error) (*Runtime, func(), error) {
		cleanup()
		return nil, nil, err
	}

	cacheSvc, cacheCleanup, err := ProvideCacheService(cfg, logger)
	if err != nil {
		return fail(err)
	}
	cleanups = append(cleanups, cacheCleanup)

	db, dbCleanup, err := ProvideDatabaseService(cfg, logger)
	if err != nil {
		return fail(err)
	}
	cleanups = append(cleanups, dbCleanup)

	repo, err := ProvideProfileRepository(ctx, cfg, db, cacheSvc)
	if err != nil {
		return fail(err)
	}
	profiles, err := ProvideProfileService(ctx, cfg, repo, logger)
	if err != nil {
		return fail(err)
	}
	authSvc, err := ProvideAuthService(ctx, cfg, db, cacheSvc, logger)
	if err != nil {
		return fail(err)
	}
	c, err := ProvideCompiler(cfg)
	if err != nil {
		return fail(err)
	}

	m := metrics.New()
	artifacts := ProvideArtifactService(cfg, c, cacheSvc, m, logger)
	limiter := ProvideRateLimiter()

	router, err := ProvideAPIRouter(ctx, cfg, logger, RouterDeps{
		Metrics:  m,
		Health:   ProvideHealthChecker(db, cacheSvc),
		Limiter:  limiter,
		Sessions: authSvc,
		API:      ProvideAPIHandler(profiles, artifacts, ProvideActivityJournal(cfg, logger), logger),
		Auth:     ProvideAuthHandler(cfg, authSvc, logger),
	})
	if err != nil {
		return fail(fmt.Errorf("failed to build router: %w", err))
	}

	addr := ProvideAPIAddr(cfg)
	return &Runtime{
		Config:    cfg,
		Logger:    logger,
		Profiles:  profiles,
		Artifacts: artifacts,
		Limiter:   limiter,
		Router:    router,
		Addr:      addr,
		Server:    ProvideAPIServer(addr, router),
	}, cleanup, nil
}
