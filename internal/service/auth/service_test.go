package auth

import (
	"context"
	stdErrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/TanHoangarc/Admin/internal/service/cache"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dbName := strings.NewReplacer("/", "_", " ", "_", ":", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", dbName)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

func newTestCache(t *testing.T) (*cache.Service, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	host, portStr, err := net.SplitHostPort(mr.Addr())
	if err != nil {
		t.Fatalf("failed to split host/port: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("failed to parse port: %v", err)
	}

	cacheSvc, err := cache.NewCacheService(cache.Config{
		Host:         host,
		Port:         port,
		DisableCache: true,
	}, newTestLogger())
	if err != nil {
		t.Fatalf("failed to create cache service: %v", err)
	}
	t.Cleanup(func() { _ = cacheSvc.Close() })

	return cacheSvc, mr
}

func newTestService(t *testing.T, cfg Config) (*Service, *miniredis.Miniredis) {
	t.Helper()
	cacheSvc, mr := newTestCache(t)
	svc, err := NewService(context.Background(), newTestDB(t), cacheSvc, newTestLogger(), cfg)
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return svc, mr
}

func assertAuthCode(t *testing.T, err error, want ErrorCode) {
	t.Helper()

	var ae *Error
	if !stdErrors.As(err, &ae) {
		t.Fatalf("expected *auth.Error, got: %T (%v)", err, err)
	}
	if ae.Code != want {
		t.Fatalf("unexpected code: got=%s want=%s", ae.Code, want)
	}
}

func TestSignup_DuplicateUsername(t *testing.T) {
	svc, err := NewService(context.Background(), newTestDB(t), nil, newTestLogger(), DefaultConfig())
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	user, err := svc.Signup(context.Background(), "0972133680", "Password1")
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}
	if user.Role != RoleUser || user.IsAdmin() {
		t.Fatalf("signup must create a plain user: %+v", user)
	}

	_, err = svc.Signup(context.Background(), " 0972133680 ", "Password2")
	assertAuthCode(t, err, CodeUsernameExists)
}

func TestSignup_InvalidInput(t *testing.T) {
	svc, err := NewService(context.Background(), newTestDB(t), nil, newTestLogger(), DefaultConfig())
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	tests := []struct{ username, password string }{
		{"ab", "Password1"},
		{"has space", "Password1"},
		{"lan", "short1"},
		{"lan", "onlyletters"},
		{"lan", strings.Repeat("a1", 40)},
	}
	for _, tt := range tests {
		_, err := svc.Signup(context.Background(), tt.username, tt.password)
		assertAuthCode(t, err, CodeInvalidInput)
	}
}

func TestLogin_SessionFlow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SessionTTL = 30 * time.Minute
	cfg.ShortSessionTTL = 5 * time.Minute
	cfg.UserSessionsTTL = 2 * time.Hour
	svc, mr := newTestService(t, cfg)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, "Lan", "Password1"); err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	session, user, err := svc.Login(ctx, "LAN", "Password1", false, "127.0.0.1")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if session.Token == "" || session.Persistent || user.Username != "lan" {
		t.Fatalf("unexpected login result: %+v %+v", session, user)
	}
	if ttl := mr.TTL(sessionKeyPrefix + sha256Hex(session.Token)); ttl != 5*time.Minute {
		t.Fatalf("short session ttl = %v", ttl)
	}

	me, err := svc.CurrentSession(ctx, session.Token)
	if err != nil || me == nil || me.ID != user.ID {
		t.Fatalf("current session failed: %+v %v", me, err)
	}

	refreshed, err := svc.Refresh(ctx, session.Token)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if refreshed.Persistent {
		t.Fatalf("refresh must keep the remember policy")
	}
	if me, err := svc.CurrentSession(ctx, session.Token); err != nil || me != nil {
		t.Fatalf("old token must be invalid after refresh: %+v %v", me, err)
	}

	if err := svc.Logout(ctx, refreshed.Token); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if me, err := svc.CurrentSession(ctx, refreshed.Token); err != nil || me != nil {
		t.Fatalf("token must be invalid after logout: %+v %v", me, err)
	}
	assertAuthCode(t, svc.Logout(ctx, refreshed.Token), CodeUnauthorized)
}

func TestLogin_RememberUsesLongSession(t *testing.T) {
	svc, mr := newTestService(t, DefaultConfig())
	ctx := context.Background()
	if _, err := svc.Signup(ctx, "lan", "Password1"); err != nil {
		t.Fatalf("signup failed: %v", err)
	}
	session, _, err := svc.Login(ctx, "lan", "Password1", true, "")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if !session.Persistent {
		t.Fatalf("remember should mark the session persistent")
	}
	if ttl := mr.TTL(sessionKeyPrefix + sha256Hex(session.Token)); ttl != 7*24*time.Hour {
		t.Fatalf("persistent session ttl = %v", ttl)
	}
}

func TestCurrentSession_ExpiredOrMissing(t *testing.T) {
	svc, _ := newTestService(t, DefaultConfig())
	ctx := context.Background()

	if me, err := svc.CurrentSession(ctx, ""); me != nil || err != nil {
		t.Fatalf("empty token: %+v %v", me, err)
	}
	if me, err := svc.CurrentSession(ctx, "sess_unknown"); me != nil || err != nil {
		t.Fatalf("unknown token: %+v %v", me, err)
	}

	if _, err := svc.Signup(ctx, "lan", "Password1"); err != nil {
		t.Fatalf("signup failed: %v", err)
	}
	session, _, err := svc.Login(ctx, "lan", "Password1", false, "")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	svc.now = func() time.Time { return time.Now().UTC().Add(13 * time.Hour) }
	if me, err := svc.CurrentSession(ctx, session.Token); me != nil || err != nil {
		t.Fatalf("expired session should read as absent: %+v %v", me, err)
	}
}

func TestLogin_RateLimited(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LoginRateLimitPerMinute = 2
	cfg.LoginFailLimit = 100 // 레이트리밋 테스트에서 락 영향 제거
	svc, _ := newTestService(t, cfg)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, "lan", "Password1"); err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		_, _, err := svc.Login(ctx, "lan", "WrongPass1", false, "1.2.3.4")
		assertAuthCode(t, err, CodeInvalidCredentials)
	}
	_, _, err := svc.Login(ctx, "lan", "WrongPass1", false, "1.2.3.4")
	assertAuthCode(t, err, CodeRateLimited)

	// 다른 IP 는 영향 없음
	if _, _, err := svc.Login(ctx, "lan", "Password1", false, "5.6.7.8"); err != nil {
		t.Fatalf("other ip should not be limited: %v", err)
	}
}

func TestLogin_AccountLocked(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LoginRateLimitPerMinute = 1000
	cfg.LoginFailLimit = 3
	cfg.LoginFailWindow = 10 * time.Minute
	cfg.LoginLockDuration = 10 * time.Minute
	svc, mr := newTestService(t, cfg)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, "lan", "Password1"); err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		_, _, err := svc.Login(ctx, "lan", "WrongPass1", false, "127.0.0.1")
		assertAuthCode(t, err, CodeInvalidCredentials)
	}

	_, _, err := svc.Login(ctx, "lan", "Password1", false, "127.0.0.1")
	assertAuthCode(t, err, CodeAccountLocked)

	mr.FastForward(11 * time.Minute)
	if _, _, err := svc.Login(ctx, "lan", "Password1", false, "127.0.0.1"); err != nil {
		t.Fatalf("lock should expire: %v", err)
	}
}

func TestEnsureAdmin(t *testing.T) {
	svc, _ := newTestService(t, DefaultConfig())
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("Hoang@2609#"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if err := svc.EnsureAdmin(ctx, "tanhoangarc", string(hash)); err != nil {
		t.Fatalf("EnsureAdmin failed: %v", err)
	}
	if err := svc.EnsureAdmin(ctx, "tanhoangarc", string(hash)); err != nil {
		t.Fatalf("EnsureAdmin must be idempotent: %v", err)
	}

	session, user, err := svc.Login(ctx, "tanhoangarc", "Hoang@2609#", true, "")
	if err != nil {
		t.Fatalf("admin login failed: %v", err)
	}
	if !user.IsAdmin() {
		t.Fatalf("seeded account must be admin: %+v", user)
	}

	_, err = svc.Signup(ctx, "tanhoangarc", "Password1")
	assertAuthCode(t, err, CodeUsernameExists)

	// 해시 교체 시 기존 세션 폐기
	rotated, _ := bcrypt.GenerateFromPassword([]byte("NewPassw0rd"), bcrypt.MinCost)
	if err := svc.EnsureAdmin(ctx, "tanhoangarc", string(rotated)); err != nil {
		t.Fatalf("rotate failed: %v", err)
	}
	if me, _ := svc.CurrentSession(ctx, session.Token); me != nil {
		t.Fatalf("admin sessions must be revoked after hash rotation")
	}
	if _, _, err := svc.Login(ctx, "tanhoangarc", "NewPassw0rd", false, ""); err != nil {
		t.Fatalf("login with rotated password failed: %v", err)
	}

	assertAuthCode(t, svc.EnsureAdmin(ctx, "tanhoangarc", "plain-text"), CodeInvalidInput)
}
