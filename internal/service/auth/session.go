package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"
)

const (
	sessionTokenPrefix = "sess_"

	sessionKeyPrefix        = "card:auth:sess:"
	userSessionsKeyPrefix   = "card:auth:user_sessions:"
	loginRateLimitKeyPrefix = "card:auth:rl:login:"
	loginFailKeyPrefix      = "card:auth:login_fail:"
	accountLockKeyPrefix    = "card:auth:lock:"
)

// Session: 발급된 세션 토큰. Persistent 면 쿠키에 만료 시각을 준다.
type Session struct {
	Token      string    `json:"token"`
	ExpiresAt  time.Time `json:"expiresAt"`
	Persistent bool      `json:"persistent"`
}

type sessionData struct {
	UserID     string    `json:"userId"`
	ExpiresAt  time.Time `json:"expiresAt"`
	CreatedAt  time.Time `json:"createdAt"`
	Persistent bool      `json:"persistent"`
}

func generateToken(prefix string, byteLen int) (string, error) {
	if byteLen <= 0 {
		return "", fmt.Errorf("byteLen must be positive")
	}
	b := make([]byte, byteLen)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return prefix + base64.RawURLEncoding.EncodeToString(b), nil
}

// sha256Hex: 원본 토큰은 저장하지 않고 해시만 키로 쓴다.
func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Logout: 세션 무효화
func (s *Service) Logout(ctx context.Context, token string) error {
	if s.cacheSvc == nil {
		return newError(CodeInternal, "cache service not configured", nil)
	}

	sessionHash := sha256Hex(token)
	key := sessionKeyPrefix + sessionHash

	var data sessionData
	if err := s.cacheSvc.Get(ctx, key, &data); err != nil {
		return newError(CodeInternal, "failed to read session", err)
	}
	if data.UserID == "" {
		return newError(CodeUnauthorized, "invalid session", nil)
	}

	if err := s.cacheSvc.Del(ctx, key); err != nil {
		return newError(CodeInternal, "failed to delete session", err)
	}
	_, _ = s.cacheSvc.SRem(ctx, userSessionsKeyPrefix+data.UserID, []string{sessionHash})

	return nil
}

// Refresh: 기존 세션을 무효화하고 같은 유지 정책으로 새 토큰을 발급한다.
func (s *Service) Refresh(ctx context.Context, token string) (*Session, error) {
	if s.cacheSvc == nil {
		return nil, newError(CodeInternal, "cache service not configured", nil)
	}

	sessionHash := sha256Hex(token)
	oldKey := sessionKeyPrefix + sessionHash

	var data sessionData
	if err := s.cacheSvc.Get(ctx, oldKey, &data); err != nil {
		return nil, newError(CodeInternal, "failed to read session", err)
	}
	if data.UserID == "" || s.now().After(data.ExpiresAt) {
		s.dropSession(ctx, sessionHash, data.UserID)
		return nil, newError(CodeUnauthorized, "invalid session", nil)
	}

	newSession, err := s.createSession(ctx, data.UserID, data.Persistent)
	if err != nil {
		return nil, err
	}
	s.dropSession(ctx, sessionHash, data.UserID)

	return newSession, nil
}

func (s *Service) dropSession(ctx context.Context, sessionHash, userID string) {
	_ = s.cacheSvc.Del(ctx, sessionKeyPrefix+sessionHash)
	if userID != "" {
		_, _ = s.cacheSvc.SRem(ctx, userSessionsKeyPrefix+userID, []string{sessionHash})
	}
}

func (s *Service) validateSession(ctx context.Context, token string) (string, error) {
	if s.cacheSvc == nil {
		return "", newError(CodeInternal, "cache service not configured", nil)
	}
	if token == "" {
		return "", newError(CodeUnauthorized, "missing token", nil)
	}

	sessionHash := sha256Hex(token)
	var data sessionData
	if err := s.cacheSvc.Get(ctx, sessionKeyPrefix+sessionHash, &data); err != nil {
		return "", newError(CodeInternal, "failed to read session", err)
	}
	if data.UserID == "" || s.now().After(data.ExpiresAt) {
		s.dropSession(ctx, sessionHash, data.UserID)
		return "", newError(CodeUnauthorized, "invalid session", nil)
	}
	return data.UserID, nil
}

func (s *Service) createSession(ctx context.Context, userID string, persistent bool) (*Session, error) {
	if s.cacheSvc == nil {
		return nil, newError(CodeInternal, "cache service not configured", nil)
	}
	if userID == "" {
		return nil, newError(CodeInternal, "userID is empty", nil)
	}

	var token, sessionHash, key string
	for i := 0; i < 3; i++ {
		raw, err := generateToken(sessionTokenPrefix, 32)
		if err != nil {
			return nil, newError(CodeInternal, "failed to generate session token", err)
		}
		hash := sha256Hex(raw)
		k := sessionKeyPrefix + hash

		exists, err := s.cacheSvc.Exists(ctx, k)
		if err != nil {
			return nil, newError(CodeInternal, "failed to check session existence", err)
		}
		if !exists {
			token, sessionHash, key = raw, hash, k
			break
		}
	}
	if token == "" {
		return nil, newError(CodeInternal, "failed to allocate unique session token", nil)
	}

	ttl := s.cfg.ShortSessionTTL
	if persistent {
		ttl = s.cfg.SessionTTL
	}
	now := s.now()
	data := sessionData{
		UserID:     userID,
		ExpiresAt:  now.Add(ttl),
		CreatedAt:  now,
		Persistent: persistent,
	}

	if err := s.cacheSvc.Set(ctx, key, &data, ttl); err != nil {
		return nil, newError(CodeInternal, "failed to store session", err)
	}

	// 유저별 세션 인덱스 (관리자 비밀번호 교체 시 전체 폐기 용도)
	userSessionsKey := userSessionsKeyPrefix + userID
	_, _ = s.cacheSvc.SAdd(ctx, userSessionsKey, []string{sessionHash})
	_ = s.cacheSvc.Expire(ctx, userSessionsKey, s.cfg.UserSessionsTTL)

	return &Session{Token: token, ExpiresAt: data.ExpiresAt, Persistent: persistent}, nil
}

func (s *Service) revokeAllSessions(ctx context.Context, userID string) error {
	if s.cacheSvc == nil || userID == "" {
		return nil
	}

	userSessionsKey := userSessionsKeyPrefix + userID
	hashes, err := s.cacheSvc.SMembers(ctx, userSessionsKey)
	if err != nil {
		return fmt.Errorf("cache smembers failed: %w", err)
	}

	keys := make([]string, 0, len(hashes))
	for _, h := range hashes {
		if h != "" {
			keys = append(keys, sessionKeyPrefix+h)
		}
	}
	revoked, _ := s.cacheSvc.DelMany(ctx, keys)
	_ = s.cacheSvc.Del(ctx, userSessionsKey)

	s.logger.Info("sessions_revoked", slog.String("user_id", userID), slog.Int64("count", revoked))
	return nil
}
