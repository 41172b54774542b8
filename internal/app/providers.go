package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/TanHoangarc/Admin/internal/config"
	"github.com/TanHoangarc/Admin/internal/constants"
	"github.com/TanHoangarc/Admin/internal/health"
	"github.com/TanHoangarc/Admin/internal/metrics"
	"github.com/TanHoangarc/Admin/internal/server"
	"github.com/TanHoangarc/Admin/internal/service/activity"
	"github.com/TanHoangarc/Admin/internal/service/artifact"
	"github.com/TanHoangarc/Admin/internal/service/auth"
	"github.com/TanHoangarc/Admin/internal/service/cache"
	"github.com/TanHoangarc/Admin/internal/service/compiler"
	"github.com/TanHoangarc/Admin/internal/service/database"
	"github.com/TanHoangarc/Admin/internal/service/profile"
)

// ProvideCacheService: 세션, 아티팩트 캐시, KV 저장소가 공유하는 valkey 연결
func ProvideCacheService(cfg *config.Config, logger *slog.Logger) (*cache.Service, func(), error) {
	svc, err := cache.NewCacheService(cache.Config{
		Host:     cfg.Valkey.Host,
		Port:     cfg.Valkey.Port,
		Password: cfg.Valkey.Password,
		DB:       cfg.Valkey.DB,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect valkey: %w", err)
	}
	return svc, func() { _ = svc.Close() }, nil
}

// ProvideDatabaseService: 계정 테이블은 항상 SQL DB 에 둔다.
// PROFILE_STORE 가 postgres 가 아니면 sqlite 를 쓰고, memory 면 sqlite 도 메모리에 둔다.
func ProvideDatabaseService(cfg *config.Config, logger *slog.Logger) (*database.Service, func(), error) {
	var (
		svc *database.Service
		err error
	)
	switch cfg.Store.Backend {
	case config.StorePostgres:
		svc, err = database.NewPostgresService(database.PostgresConfig{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			Database: cfg.Postgres.Database,
		}, logger)
	case config.StoreMemory:
		svc, err = database.NewSQLiteService(":memory:", logger)
	default:
		svc, err = database.NewSQLiteService(cfg.Store.SQLitePath, logger)
	}
	if err != nil {
		return nil, nil, err
	}
	return svc, func() { _ = svc.Close() }, nil
}

// ProvideProfileRepository: PROFILE_STORE 에 따라 저장소 구현을 고른다.
func ProvideProfileRepository(ctx context.Context, cfg *config.Config, db *database.Service, cacheSvc *cache.Service) (profile.Repository, error) {
	switch cfg.Store.Backend {
	case config.StoreValkey:
		return profile.NewKVRepository(profile.NewValkeyKV(cacheSvc), constants.ProfileStoreConfig.StorageKey), nil
	case config.StoreMemory:
		return profile.NewKVRepository(profile.NewMemoryKV(), constants.ProfileStoreConfig.StorageKey), nil
	default:
		repo := profile.NewGormRepository(db.GetGormDB())
		if err := repo.AutoMigrate(ctx); err != nil {
			return nil, err
		}
		return repo, nil
	}
}

// ProvideProfileService: 비어 있는 저장소는 PROFILE_SEED 가 켜져 있으면 기본 프로필로 채운다.
func ProvideProfileService(ctx context.Context, cfg *config.Config, repo profile.Repository, logger *slog.Logger) (*profile.Service, error) {
	svc := profile.NewService(repo, logger)
	if cfg.Card.Seed {
		if _, err := svc.EnsureSeed(ctx); err != nil {
			return nil, fmt.Errorf("failed to seed profiles: %w", err)
		}
	}
	return svc, nil
}

// ProvideAuthService: 계정 서비스를 만들고 관리자 계정을 보장한다.
func ProvideAuthService(ctx context.Context, cfg *config.Config, db *database.Service, cacheSvc *cache.Service, logger *slog.Logger) (*auth.Service, error) {
	svc, err := auth.NewService(ctx, db.GetGormDB(), cacheSvc, logger, auth.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create auth service: %w", err)
	}
	if err := svc.EnsureAdmin(ctx, cfg.Server.AdminUser, cfg.Server.AdminPassHash); err != nil {
		return nil, fmt.Errorf("failed to ensure admin account: %w", err)
	}
	return svc, nil
}

// ProvideCompiler: 리다이렉트 지연은 설정값을 쓴다.
func ProvideCompiler(cfg *config.Config) (*compiler.Compiler, error) {
	c, err := compiler.New(compiler.Options{RedirectDelay: cfg.Card.RedirectDelay})
	if err != nil {
		return nil, fmt.Errorf("failed to create compiler: %w", err)
	}
	return c, nil
}

// ProvideArtifactService: 캐시 TTL 은 ARTIFACT_CACHE_TTL_SECONDS 를 따른다.
func ProvideArtifactService(cfg *config.Config, c *compiler.Compiler, cacheSvc *cache.Service, m *metrics.Metrics, logger *slog.Logger) *artifact.Service {
	acfg := artifact.DefaultConfig()
	acfg.CacheTTL = cfg.Card.ArtifactTTL
	return artifact.NewService(c, cacheSvc, m, acfg, logger)
}

// ProvideHealthChecker: DB 와 valkey 를 점검 대상으로 등록한다.
func ProvideHealthChecker(db *database.Service, cacheSvc *cache.Service) *health.Checker {
	checker := health.NewChecker(constants.RequestTimeout.DatabasePing)
	checker.Register("database", db.Ping)
	checker.Register("cache", func(ctx context.Context) error {
		if !cacheSvc.IsConnected(ctx) {
			return fmt.Errorf("valkey ping failed")
		}
		return nil
	})
	return checker
}

// ProvideRateLimiter: constants.RateLimitConfig 기반 IP 제한
func ProvideRateLimiter() *server.IPRateLimiter {
	return server.NewIPRateLimiter(
		constants.RateLimitConfig.RequestsPerSecond,
		constants.RateLimitConfig.Burst,
		constants.RateLimitConfig.IdleEviction,
	)
}

// ProvideActivityJournal: 관리자 변경 이력 파일
func ProvideActivityJournal(cfg *config.Config, logger *slog.Logger) *activity.Journal {
	return activity.NewJournal(cfg.Store.ActivityLog, logger)
}

// ProvideAPIHandler: 프로필/아티팩트 핸들러
func ProvideAPIHandler(profiles *profile.Service, artifacts *artifact.Service, journal *activity.Journal, logger *slog.Logger) *server.APIHandler {
	return server.NewAPIHandler(profiles, artifacts, journal, logger)
}

// ProvideAuthHandler: 가입 허용 여부와 HTTPS 쿠키 설정을 넘긴다.
func ProvideAuthHandler(cfg *config.Config, authSvc *auth.Service, logger *slog.Logger) *server.AuthHandler {
	return server.NewAuthHandler(authSvc, cfg.Server.AllowSignup, cfg.Server.ForceHTTPS, logger)
}
