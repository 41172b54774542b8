package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/TanHoangarc/Admin/internal/config"
	"github.com/TanHoangarc/Admin/internal/constants"
	"github.com/TanHoangarc/Admin/internal/server"
	"github.com/TanHoangarc/Admin/internal/service/artifact"
	"github.com/TanHoangarc/Admin/internal/service/profile"
)

// Runtime: cardd 프로세스가 실행하는 구성요소 묶음
type Runtime struct {
	Config *config.Config
	Logger *slog.Logger

	Profiles  *profile.Service
	Artifacts *artifact.Service
	Limiter   *server.IPRateLimiter

	Router *gin.Engine
	Addr   string
	Server *http.Server

	cleanup func()
}

// Close - 런타임 리소스 정리 (DB, 캐시 연결 해제)
func (r *Runtime) Close() {
	if r != nil && r.cleanup != nil {
		r.cleanup()
	}
}

// BuildRuntime: 설정과 로거로 런타임을 조립한다.
func BuildRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	runtime, cleanup, err := InitializeRuntime(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("runtime initialization failed: %w", err)
	}
	runtime.cleanup = cleanup

	return runtime, nil
}

// Serve: ctx 가 끝나거나 서버가 실패할 때까지 블록한다. ctx 종료 시 graceful shutdown 한다.
func (r *Runtime) Serve(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		r.Logger.Info("api_server_started", slog.String("addr", r.Addr))
		if err := r.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	if r.Limiter != nil {
		g.Go(func() error {
			r.Limiter.Run(gctx)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.AppTimeout.Shutdown)
		defer cancel()
		if err := r.Server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server shutdown failed: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// Run: SIGINT/SIGTERM 을 받을 때까지 서버를 실행한다.
func (r *Runtime) Run() error {
	if r == nil {
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := r.Serve(ctx)
	if err != nil {
		r.Logger.Error("server_error", slog.Any("error", err))
	} else {
		r.Logger.Info("shutdown_complete")
	}
	return err
}
