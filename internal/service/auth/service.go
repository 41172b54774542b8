// Package auth 는 관리 콘솔 계정(가입, 로그인, 세션)을 다룬다.
// 계정은 DB, 세션과 로그인 제한 카운터는 valkey 에 둔다.
package auth

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/TanHoangarc/Admin/internal/service/cache"
)

// Service: DB(유저) + Valkey(세션/레이트리밋) 기반 인증 서비스
type Service struct {
	db       *gorm.DB
	cacheSvc *cache.Service
	logger   *slog.Logger
	cfg      Config
	now      func() time.Time
}

// NewService: 인증 서비스를 생성하고 필요한 테이블을 준비합니다.
func NewService(ctx context.Context, db *gorm.DB, cacheSvc *cache.Service, logger *slog.Logger, cfg Config) (*Service, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if db == nil {
		return nil, fmt.Errorf("db must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SessionTTL <= 0 {
		cfg = DefaultConfig()
	}
	if cfg.ShortSessionTTL <= 0 || cfg.ShortSessionTTL > cfg.SessionTTL {
		cfg.ShortSessionTTL = cfg.SessionTTL
	}

	svc := &Service{
		db:       db,
		cacheSvc: cacheSvc,
		logger:   logger,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}

	if err := svc.createTablesIfNotExist(ctx); err != nil {
		return nil, err
	}

	return svc, nil
}

func (s *Service) createTablesIfNotExist(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Exec(`
		CREATE TABLE IF NOT EXISTS card_users (
			id TEXT PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'user',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create card_users table: %w", err)
	}
	return nil
}

// EnsureAdmin: 시스템 관리자 계정을 bcrypt 해시로 생성하거나 갱신한다.
// 해시가 바뀌면 기존 관리자 세션은 모두 폐기된다.
func (s *Service) EnsureAdmin(ctx context.Context, username, passwordHash string) error {
	username = normalizeUsername(username)
	if !validateUsername(username) {
		return newError(CodeInvalidInput, "invalid admin username", nil)
	}
	if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
		return newError(CodeInvalidInput, "admin password hash is not a bcrypt hash", err)
	}

	var existing userModel
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&existing).Error
	switch {
	case stdErrors.Is(err, gorm.ErrRecordNotFound):
		now := s.now()
		model := &userModel{
			ID:           uuid.NewString(),
			Username:     username,
			PasswordHash: passwordHash,
			Role:         string(RoleAdmin),
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
			return newError(CodeInternal, "failed to create admin", err)
		}
		s.logger.Info("admin_account_created", slog.String("username", username))
		return nil
	case err != nil:
		return newError(CodeInternal, "failed to query admin", err)
	}

	if existing.PasswordHash == passwordHash && existing.Role == string(RoleAdmin) {
		return nil
	}
	if err := s.db.WithContext(ctx).Model(&userModel{}).
		Where("id = ?", existing.ID).
		Updates(map[string]any{
			"password_hash": passwordHash,
			"role":          string(RoleAdmin),
			"updated_at":    s.now(),
		}).Error; err != nil {
		return newError(CodeInternal, "failed to update admin", err)
	}
	if err := s.revokeAllSessions(ctx, existing.ID); err != nil {
		s.logger.Warn("admin_session_revoke_failed", slog.Any("error", err))
	}
	s.logger.Info("admin_account_updated", slog.String("username", username))
	return nil
}

// Signup: 일반(user) 계정 등록
func (s *Service) Signup(ctx context.Context, username, password string) (*User, error) {
	username = normalizeUsername(username)
	if !validateUsername(username) || !validatePassword(password) {
		return nil, newError(CodeInvalidInput, "invalid username/password", nil)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, newError(CodeInternal, "password hash failed", err)
	}

	now := s.now()
	model := &userModel{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(passwordHash),
		Role:         string(RoleUser),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		if isDuplicateKeyError(err) {
			return nil, newError(CodeUsernameExists, "username already exists", err)
		}
		return nil, newError(CodeInternal, "failed to create user", err)
	}

	s.logger.Info("user_signed_up", slog.String("username", username))
	return toUser(model), nil
}

// Login: 로그인 및 세션 토큰 발급. remember 가 false 면 짧은 세션을 만든다.
func (s *Service) Login(ctx context.Context, username, password string, remember bool, clientIP string) (*Session, *User, error) {
	username = normalizeUsername(username)

	if username == "" || password == "" {
		return nil, nil, newError(CodeInvalidInput, "invalid username/password", nil)
	}

	if s.cacheSvc != nil {
		if limited, err := s.isLoginRateLimited(ctx, clientIP); err != nil {
			return nil, nil, newError(CodeInternal, "rate limit check failed", err)
		} else if limited {
			return nil, nil, newError(CodeRateLimited, "rate limited", nil)
		}

		if locked, err := s.isAccountLocked(ctx, username); err != nil {
			return nil, nil, newError(CodeInternal, "lock check failed", err)
		} else if locked {
			return nil, nil, newError(CodeAccountLocked, "account locked", nil)
		}
	}

	var user userModel
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			s.onLoginFailed(ctx, username)
			return nil, nil, newError(CodeInvalidCredentials, "invalid credentials", nil)
		}
		return nil, nil, newError(CodeInternal, "failed to query user", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		s.onLoginFailed(ctx, username)
		return nil, nil, newError(CodeInvalidCredentials, "invalid credentials", nil)
	}

	s.onLoginSucceeded(ctx, username)

	session, err := s.createSession(ctx, user.ID, remember)
	if err != nil {
		return nil, nil, err
	}

	return session, toUser(&user), nil
}

// CurrentSession: 토큰의 사용자. 토큰이 없거나 만료됐으면 (nil, nil) 이다.
func (s *Service) CurrentSession(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, nil
	}
	userID, err := s.validateSession(ctx, token)
	if err != nil {
		var ae *Error
		if stdErrors.As(err, &ae) && ae.Code == CodeUnauthorized {
			return nil, nil
		}
		return nil, err
	}

	var user userModel
	if err := s.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, newError(CodeInternal, "failed to query user", err)
	}

	return toUser(&user), nil
}

// isDuplicateKeyError: unique 제약 위반 여부 (pq 23505, sqlite 메시지)
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if stdErrors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if stdErrors.As(err, &pqErr) {
		return string(pqErr.Code) == "23505"
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}
