// Package artifact 는 컴파일 결과를 캐시하고 여러 카드를 묶어 내보낸다.
package artifact

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	json "github.com/goccy/go-json"

	"github.com/TanHoangarc/Admin/internal/cardruntime"
	"github.com/TanHoangarc/Admin/internal/constants"
	"github.com/TanHoangarc/Admin/internal/domain"
	"github.com/TanHoangarc/Admin/internal/metrics"
	"github.com/TanHoangarc/Admin/internal/service/cache"
	"github.com/TanHoangarc/Admin/internal/service/compiler"
	"github.com/TanHoangarc/Admin/internal/service/normalize"
	"github.com/TanHoangarc/Admin/internal/util"
	"github.com/TanHoangarc/Admin/pkg/errors"
)

// Artifact: 한 프로필의 컴파일 결과
type Artifact struct {
	ProfileID string
	Slug      string
	FileName  string
	Hash      string // 정규화 레코드와 컴파일러 지문의 sha256
	Body      []byte
	Cached    bool
}

// VCard: 연락처 파일
type VCard struct {
	FileName string
	MIME     string
	Body     string
}

// Config: 아티팩트 서비스 설정
type Config struct {
	CacheTTL         time.Duration
	CacheTimeout     time.Duration // 캐시 GET/SET/DEL 한 번의 상한
	Concurrency      int
	BreakerThreshold int
	BreakerReset     time.Duration
}

// DefaultConfig 는 constants.ArtifactConfig 값을 쓴다.
func DefaultConfig() Config {
	return Config{
		CacheTTL:         constants.ArtifactConfig.CacheTTL,
		CacheTimeout:     constants.ValkeyConfig.OpTimeout,
		Concurrency:      constants.ArtifactConfig.ExportConcurrency,
		BreakerThreshold: 3,
		BreakerReset:     30 * time.Second,
	}
}

// Service 는 컴파일러 앞단의 캐시 계층이다. cacheSvc 가 nil 이면 항상 새로 컴파일한다.
type Service struct {
	compiler *compiler.Compiler
	cacheSvc *cache.Service
	breaker  *util.CircuitBreaker
	metrics  *metrics.Metrics
	logger   *slog.Logger
	cfg      Config
}

// NewService 는 Service 를 만든다.
func NewService(c *compiler.Compiler, cacheSvc *cache.Service, m *metrics.Metrics, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = def.CacheTTL
	}
	if cfg.CacheTimeout <= 0 {
		cfg.CacheTimeout = def.CacheTimeout
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.BreakerThreshold <= 0 {
		cfg.BreakerThreshold = def.BreakerThreshold
	}
	if cfg.BreakerReset <= 0 {
		cfg.BreakerReset = def.BreakerReset
	}
	return &Service{
		compiler: c,
		cacheSvc: cacheSvc,
		breaker:  util.NewCircuitBreaker("artifact_cache", cfg.BreakerThreshold, cfg.BreakerReset, logger),
		metrics:  m,
		logger:   logger,
		cfg:      cfg,
	}
}

// Compiler 는 내부 컴파일러를 반환한다.
func (s *Service) Compiler() *compiler.Compiler {
	return s.compiler
}

// Build: 프로필을 컴파일한다. 같은 정규형과 같은 컴파일러 지문이면 캐시된 문서를 돌려준다.
func (s *Service) Build(ctx context.Context, p *domain.Profile) (*Artifact, error) {
	a, _, err := s.build(ctx, p)
	return a, err
}

func (s *Service) build(ctx context.Context, p *domain.Profile) (*Artifact, *normalize.Normalized, error) {
	start := time.Now()
	n, err := normalize.Normalize(p)
	if err != nil {
		s.metrics.ObserveCompile(metrics.ResultInvalid, time.Since(start), 0)
		return nil, nil, err
	}

	hash, err := s.hash(n)
	if err != nil {
		return nil, nil, errors.NewServiceError("artifact", "hash", err)
	}
	a := &Artifact{
		ProfileID: n.ID,
		Slug:      n.Slug,
		FileName:  compiler.FileName(),
		Hash:      hash,
	}

	if body, ok := s.lookup(ctx, hash); ok {
		a.Body = body
		a.Cached = true
		return a, n, nil
	}

	body, err := s.compiler.Compile(ctx, n)
	if err != nil {
		s.metrics.ObserveCompile(metrics.ResultError, time.Since(start), 0)
		return nil, nil, err
	}
	s.metrics.ObserveCompile(metrics.ResultOK, time.Since(start), len(body))
	a.Body = body

	s.store(ctx, hash, body)
	return a, n, nil
}

// VCard: 프로필의 연락처 파일을 지정 언어로 만든다. 알 수 없는 언어는 vi 로 처리한다.
func (s *Service) VCard(p *domain.Profile, lang domain.Language) (*VCard, error) {
	n, err := normalize.Normalize(p)
	if err != nil {
		return nil, err
	}
	return s.vcard(n, lang), nil
}

func (s *Service) vcard(n *normalize.Normalized, lang domain.Language) *VCard {
	if lang != domain.LanguageEn {
		lang = domain.LanguageVi
	}
	cfg := s.compiler.BuildConfig(n)
	content := cfg.Content.Vi
	if lang == domain.LanguageEn {
		content = cfg.Content.En
	}
	return &VCard{
		FileName: content.VCardFileName,
		MIME:     cardruntime.VCardMIME,
		Body:     cardruntime.BuildVCard(cfg, lang),
	}
}

// Invalidate 는 프로필의 현재 캐시 항목을 지운다. 캐시가 없으면 아무것도 하지 않는다.
func (s *Service) Invalidate(ctx context.Context, p *domain.Profile) error {
	if s.cacheSvc == nil {
		return nil
	}
	n, err := normalize.Normalize(p)
	if err != nil {
		return nil //nolint:nilerr // 정규화 불가 프로필은 캐시 항목이 없다
	}
	hash, err := s.hash(n)
	if err != nil {
		return errors.NewServiceError("artifact", "hash", err)
	}
	opCtx, cancel := context.WithTimeout(ctx, s.cfg.CacheTimeout)
	defer cancel()
	return s.cacheSvc.Del(opCtx, cacheKey(hash))
}

func (s *Service) hash(n *normalize.Normalized) (string, error) {
	raw, err := json.Marshal(n)
	if err != nil {
		return "", err
	}
	h := sha256.New()
	h.Write([]byte(s.compiler.Fingerprint()))
	h.Write([]byte{0})
	h.Write(raw)
	return hex.EncodeToString(h.Sum(nil)), nil
}

func cacheKey(hash string) string {
	return constants.ArtifactConfig.CacheKeyPrefix + hash
}

func (s *Service) lookup(ctx context.Context, hash string) ([]byte, bool) {
	if s.cacheSvc == nil || !s.breaker.Allow() {
		s.metrics.ObserveCache(metrics.CacheBypass)
		return nil, false
	}

	opCtx, cancel := context.WithTimeout(ctx, s.cfg.CacheTimeout)
	defer cancel()
	raw, found, err := s.cacheSvc.GetBytes(opCtx, cacheKey(hash))
	if err != nil {
		s.recordCacheFailure(ctx)
		s.metrics.ObserveCache(metrics.CacheError)
		s.logger.Warn("artifact_cache_get_failed", slog.String("hash", hash), slog.Any("error", err))
		return nil, false
	}
	s.breaker.RecordSuccess()
	if !found {
		s.metrics.ObserveCache(metrics.CacheMiss)
		return nil, false
	}

	body, err := decompress(raw)
	if err != nil {
		s.metrics.ObserveCache(metrics.CacheError)
		s.logger.Warn("artifact_cache_corrupt", slog.String("hash", hash), slog.Any("error", err))
		return nil, false
	}
	s.metrics.ObserveCache(metrics.CacheHit)
	return body, true
}

func (s *Service) store(ctx context.Context, hash string, body []byte) {
	if s.cacheSvc == nil || !s.breaker.Allow() {
		return
	}
	packed, err := compress(body)
	if err != nil {
		s.logger.Warn("artifact_compress_failed", slog.String("hash", hash), slog.Any("error", err))
		return
	}
	opCtx, cancel := context.WithTimeout(ctx, s.cfg.CacheTimeout)
	defer cancel()
	if err := s.cacheSvc.SetBytes(opCtx, cacheKey(hash), packed, s.cfg.CacheTTL); err != nil {
		s.recordCacheFailure(ctx)
		s.logger.Warn("artifact_cache_set_failed", slog.String("hash", hash), slog.Any("error", err))
		return
	}
	s.breaker.RecordSuccess()
}

// recordCacheFailure: 호출자가 취소한 요청은 캐시 장애로 세지 않는다.
func (s *Service) recordCacheFailure(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	s.breaker.RecordFailure()
}
