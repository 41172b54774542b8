package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/TanHoangarc/Admin/internal/config"
	"github.com/TanHoangarc/Admin/internal/constants"
	"github.com/TanHoangarc/Admin/internal/health"
	"github.com/TanHoangarc/Admin/internal/metrics"
	"github.com/TanHoangarc/Admin/internal/server"
)

const exportPath = "/api/profiles/export"

// ProvideAPIAddr: API 서버가 리슨할 주소를 반환합니다.
func ProvideAPIAddr(cfg *config.Config) string {
	return fmt.Sprintf(":%d", cfg.Server.Port)
}

// ProvideAPIServer: HTTP 서버 인스턴스를 생성합니다.
// H2C(HTTP/2 Cleartext)를 기본으로 사용한다.
func ProvideAPIServer(addr string, router *gin.Engine) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           server.WrapH2C(router),
		ReadHeaderTimeout: constants.ServerTimeout.ReadHeader,
		ReadTimeout:       constants.ServerTimeout.Read,
		WriteTimeout:      constants.ServerTimeout.Write,
		IdleTimeout:       constants.ServerTimeout.Idle,
		MaxHeaderBytes:    constants.ServerTimeout.MaxHeaderBytes,
	}
}

// RouterDeps: 라우터가 필요로 하는 핸들러와 미들웨어 구성요소
type RouterDeps struct {
	Metrics  *metrics.Metrics
	Health   *health.Checker
	Limiter  *server.IPRateLimiter
	Sessions server.SessionResolver
	API      *server.APIHandler
	Auth     *server.AuthHandler
}

// ProvideAPIRouter: 관리 대시보드가 사용하는 Gin 라우터를 설정합니다.
func ProvideAPIRouter(ctx context.Context, cfg *config.Config, logger *slog.Logger, deps RouterDeps) (*gin.Engine, error) {
	if deps.API == nil || deps.Auth == nil || deps.Sessions == nil {
		return nil, fmt.Errorf("api, auth handlers and session resolver must not be nil")
	}

	router, err := newAPIRouter(ctx, cfg, logger, deps.Metrics)
	if err != nil {
		return nil, err
	}

	metricsCIDRs, err := server.NewIPAllowList(cfg.Server.MetricsCIDRs)
	if err != nil {
		return nil, fmt.Errorf("invalid METRICS_ALLOWED_CIDRS: %w", err)
	}
	registerAPIHealthRoutes(router, deps.Health, deps.Metrics, server.IPAllowMiddleware(metricsCIDRs, logger))
	registerAPIRoutes(router, deps)

	if !cfg.Server.AllowSignup {
		logger.Info("signup_disabled")
	}
	return router, nil
}

func newAPIRouter(ctx context.Context, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	if err := router.SetTrustedProxies(constants.ServerConfig.TrustedProxies); err != nil {
		return nil, fmt.Errorf("failed to set trusted proxies: %w", err)
	}
	router.TrustedPlatform = gin.PlatformCloudflare

	router.Use(gin.Recovery())
	router.Use(server.LoggerMiddleware(ctx, logger, m,
		"/health",
		"/metrics", // Prometheus 메트릭 폴링
	))
	router.Use(cors.New(newAPICORSConfig(cfg.Server.AllowedOrigins)))
	router.Use(server.SecurityHeadersMiddleware(cfg.Server.ForceHTTPS))
	router.Use(newAPIGzipMiddleware())

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "NOT_FOUND"})
	})

	return router, nil
}

func newAPICORSConfig(origins []string) cors.Config {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = origins
	if len(origins) == 0 {
		corsConfig.AllowOrigins = constants.CORSConfig.AllowOrigins
	}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = constants.CORSConfig.AllowMethods
	corsConfig.AllowHeaders = constants.CORSConfig.AllowHeaders
	corsConfig.ExposeHeaders = []string{"Content-Disposition", "ETag", "X-Card-Cache", "X-Card-Count", "X-Card-Skipped"}
	return corsConfig
}

func newAPIGzipMiddleware() gin.HandlerFunc {
	return gzip.Gzip(gzip.DefaultCompression, gzip.WithCustomShouldCompressFn(func(c *gin.Context) bool {
		switch c.Request.URL.Path {
		// zip 은 이미 압축됨, promhttp 는 자체 압축
		case exportPath, "/metrics", "/health":
			return false
		}
		return true
	}))
}

func registerAPIHealthRoutes(router *gin.Engine, checker *health.Checker, m *metrics.Metrics, metricsGuard gin.HandlerFunc) {
	router.GET("/health", func(c *gin.Context) {
		if checker == nil {
			c.JSON(http.StatusOK, health.Get())
			return
		}
		resp := checker.Check(c.Request.Context())
		status := http.StatusOK
		if resp.Status != health.StatusOK {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, resp)
	})

	if m != nil {
		router.GET("/metrics", metricsGuard, gin.WrapH(m.Handler()))
	}
}

func registerAPIRoutes(router *gin.Engine, deps RouterDeps) {
	api := router.Group("/api")
	if deps.Limiter != nil {
		api.Use(deps.Limiter.Middleware())
	}
	api.Use(server.BodyLimitMiddleware(constants.ServerConfig.MaxBodyBytes))

	authAPI := api.Group("/auth")
	authAPI.POST("/signup", deps.Auth.Signup)
	authAPI.POST("/login", deps.Auth.Login)
	authAPI.POST("/logout", deps.Auth.Logout)
	authAPI.POST("/refresh", deps.Auth.Refresh)
	authAPI.GET("/me", deps.Auth.Me)

	// 로그인한 사용자: 조회, 미리보기, 임시 컴파일
	protected := api.Group("")
	protected.Use(server.SessionAuthMiddleware(deps.Sessions))
	protected.GET("/profiles", deps.API.ListProfiles)
	protected.GET("/profiles/:id", deps.API.GetProfile)
	protected.GET("/profiles/:id/artifact", deps.API.GetArtifact)
	protected.GET("/profiles/:id/preview", deps.API.Preview)
	protected.GET("/profiles/:id/vcard", deps.API.VCard)
	protected.POST("/compile", deps.API.Compile)
	protected.GET("/overview", deps.API.Overview)

	// 관리자 전용: 변경과 일괄 내보내기
	admin := protected.Group("")
	admin.Use(server.RequireAdmin())
	admin.POST("/profiles", deps.API.CreateProfile)
	admin.PATCH("/profiles/:id", deps.API.UpdateProfile)
	admin.DELETE("/profiles/:id", deps.API.DeleteProfile)
	admin.GET("/profiles/export", deps.API.Export)
	admin.GET("/activity", deps.API.ListActivity)
}
