// Package profile 는 명함 프로필 저장소와 관리 기능(목록, 추가, 수정, 삭제, 개요)을 제공한다.
package profile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/TanHoangarc/Admin/internal/constants"
	"github.com/TanHoangarc/Admin/internal/domain"
	"github.com/TanHoangarc/Admin/internal/service/normalize"
	"github.com/TanHoangarc/Admin/internal/util"
	"github.com/TanHoangarc/Admin/pkg/errors"
)

// Service: 프로필 관리 서비스
type Service struct {
	repo      Repository
	validator *validator.Validate
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

// Option 은 Service 생성 옵션이다.
type Option func(*Service)

// WithClock: lastActive 계산용 시계 주입
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator: 프로필/링크/프로젝트 id 생성기 주입
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// NewService 는 기본 시계(time.Now)와 uuid 생성기를 쓴다.
func NewService(repo Repository, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		repo:      repo,
		validator: newValidator(),
		logger:    logger,
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Query: 목록 필터
type Query struct {
	Search string               // 이름/슬러그 부분 일치 (대소문자 무시)
	Status domain.ProfileStatus // 비어 있으면 전체
	Limit  int                  // 0 이면 MaxQueryLimit
}

// List: 생성 순서대로 필터링된 목록
func (s *Service) List(ctx context.Context, q Query) ([]*domain.Profile, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.NewServiceError("profile", "list", err)
	}
	limit := q.Limit
	if limit <= 0 || limit > constants.ProfileStoreConfig.MaxQueryLimit {
		limit = constants.ProfileStoreConfig.MaxQueryLimit
	}
	out := make([]*domain.Profile, 0, min(len(all), limit))
	for _, p := range all {
		if q.Status != "" && p.Status != q.Status {
			continue
		}
		if !util.ContainsFold(p.Name, q.Search) && !util.ContainsFold(p.Slug, q.Search) {
			continue
		}
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// Get: 단건 조회. 없으면 errors.ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*domain.Profile, error) {
	return s.repo.Get(ctx, strings.TrimSpace(id))
}

// Add: 새 프로필 등록. 서버가 관리하는 필드(id, fullUrl, 통계, 상태)는 입력값을 무시한다.
func (s *Service) Add(ctx context.Context, in *domain.Profile) (*domain.Profile, error) {
	if in == nil {
		return nil, errors.NewValidationError("", "profile is required", errors.ErrMissingIdentity)
	}
	p := in.Clone()
	p.Name = strings.TrimSpace(p.Name)
	p.ID = s.newID()
	p.Slug = canonicalSlug(p.Slug, p.Name)
	p.FullURL = normalize.FullURL(p.Slug)
	p.Visits = 0
	p.Interactions = 0
	p.LastActive = util.FormatDateICT(s.now())
	p.Status = domain.ProfileStatusActive
	normalize.UniqueIDs(p, s.newID)

	if err := s.validate(p); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, errors.NewServiceError("profile", "add", err)
	}

	s.logger.Info("profile_added", slog.String("id", p.ID), slog.String("slug", p.Slug))
	return p, nil
}

// Update: JSON 부분 갱신. 패치에 있는 필드만 덮어쓰고 링크/프로젝트 배열은 통째로 교체한다.
// id 와 통계는 바뀌지 않으며 fullUrl 은 슬러그에서 다시 계산한다.
func (s *Service) Update(ctx context.Context, id string, patch []byte) (*domain.Profile, error) {
	current, err := s.repo.Get(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(patch, &fields); err != nil {
		return nil, errors.NewValidationError("", "patch must be a JSON object", err)
	}

	next := current.Clone()
	if _, ok := fields["socialLinks"]; ok {
		next.SocialLinks = nil
	}
	if _, ok := fields["projects"]; ok {
		next.Projects = nil
	}
	if err := json.Unmarshal(patch, next); err != nil {
		return nil, errors.NewValidationError("", "invalid patch", err)
	}

	next.ID = current.ID
	next.Visits = current.Visits
	next.Interactions = current.Interactions
	next.LastActive = current.LastActive
	next.Name = strings.TrimSpace(next.Name)
	next.Slug = canonicalSlug(next.Slug, next.Name)
	next.FullURL = normalize.FullURL(next.Slug)
	normalize.UniqueIDs(next, s.newID)

	if err := s.validate(next); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, next); err != nil {
		return nil, err
	}

	if next.Slug != current.Slug {
		s.logger.Info("profile_slug_changed",
			slog.String("id", next.ID),
			slog.String("from", current.Slug),
			slog.String("to", next.Slug),
		)
	}
	return next, nil
}

// Delete: 삭제. 없으면 errors.ErrNotFound.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, strings.TrimSpace(id)); err != nil {
		return err
	}
	s.logger.Info("profile_deleted", slog.String("id", id))
	return nil
}

// EnsureSeed: 저장소가 비어 있으면 초기 프로필을 넣고 넣은 개수를 반환한다.
func (s *Service) EnsureSeed(ctx context.Context) (int, error) {
	existing, err := s.repo.List(ctx)
	if err != nil {
		return 0, errors.NewServiceError("profile", "seed", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}
	seeds, err := SeedProfiles()
	if err != nil {
		return 0, err
	}
	for _, p := range seeds {
		if err := s.repo.Create(ctx, p); err != nil {
			return 0, errors.NewServiceError("profile", "seed", fmt.Errorf("profile %s: %w", p.ID, err))
		}
	}
	s.logger.Info("profiles_seeded", slog.Int("count", len(seeds)))
	return len(seeds), nil
}

// canonicalSlug: 슬러그 입력이 비면 이름에서 만든다.
func canonicalSlug(slug, name string) string {
	if strings.TrimSpace(slug) == "" {
		return normalize.SlugFromName(name)
	}
	return normalize.Slug(slug)
}
