package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

func (s *Service) isLoginRateLimited(ctx context.Context, clientIP string) (bool, error) {
	if clientIP == "" || s.cacheSvc == nil {
		return false, nil
	}
	count, err := s.cacheSvc.IncrWithTTL(ctx, loginRateLimitKeyPrefix+clientIP, time.Minute)
	if err != nil {
		return false, err
	}
	return count > s.cfg.LoginRateLimitPerMinute, nil
}

func (s *Service) isAccountLocked(ctx context.Context, username string) (bool, error) {
	if s.cacheSvc == nil {
		return false, nil
	}
	exists, err := s.cacheSvc.Exists(ctx, accountLockKeyPrefix+username)
	if err != nil {
		return false, fmt.Errorf("cache exists failed: %w", err)
	}
	return exists, nil
}

// onLoginFailed: 윈도우 내 실패가 한도에 닿으면 계정을 잠근다.
func (s *Service) onLoginFailed(ctx context.Context, username string) {
	if s.cacheSvc == nil {
		return
	}

	key := loginFailKeyPrefix + username
	count, err := s.cacheSvc.IncrWithTTL(ctx, key, s.cfg.LoginFailWindow)
	if err != nil {
		s.logger.Warn("login_fail_increment_failed", slog.Any("error", err))
		return
	}

	if count >= s.cfg.LoginFailLimit {
		_ = s.cacheSvc.Set(ctx, accountLockKeyPrefix+username, "1", s.cfg.LoginLockDuration)
		_ = s.cacheSvc.Del(ctx, key)
		s.logger.Warn("account_locked", slog.String("username", username))
	}
}

func (s *Service) onLoginSucceeded(ctx context.Context, username string) {
	if s.cacheSvc == nil {
		return
	}
	_ = s.cacheSvc.Del(ctx, loginFailKeyPrefix+username)
	_ = s.cacheSvc.Del(ctx, accountLockKeyPrefix+username)
}
