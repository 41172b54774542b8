package app

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"
	"golang.org/x/crypto/bcrypt"

	"github.com/TanHoangarc/Admin/internal/config"
	"github.com/TanHoangarc/Admin/internal/domain"
	"github.com/TanHoangarc/Admin/internal/metrics"
	"github.com/TanHoangarc/Admin/internal/server"
	"github.com/TanHoangarc/Admin/internal/service/cache"
	"github.com/TanHoangarc/Admin/internal/service/database"
	"github.com/TanHoangarc/Admin/internal/service/profile"
)

const (
	adminUser = "admin"
	adminPass = "admin-pass1"
)

type testEnv struct {
	router  *gin.Engine
	metrics *metrics.Metrics
}

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPass), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	return &config.Config{
		Server: config.ServerConfig{
			Port:          30080,
			AdminUser:     adminUser,
			AdminPassHash: string(hash),
			AllowSignup:   true,
		},
		Card: config.CardConfig{
			RedirectDelay: 1500 * time.Millisecond,
			Seed:          true,
			ArtifactTTL:   time.Hour,
		},
		Store: config.StoreConfig{
			Backend:     config.StoreMemory,
			ActivityLog: filepath.Join(t.TempDir(), "activity.jsonl"),
		},
	}
}

func newTestEnv(t *testing.T, limiter *server.IPRateLimiter) *testEnv {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := newTestConfig(t)

	mr := miniredis.RunT(t)
	host, portStr, err := net.SplitHostPort(mr.Addr())
	if err != nil {
		t.Fatalf("failed to split address: %v", err)
	}
	port, _ := strconv.Atoi(portStr)
	cacheSvc, err := cache.NewCacheService(cache.Config{Host: host, Port: port, DisableCache: true}, logger)
	if err != nil {
		t.Fatalf("failed to create cache service: %v", err)
	}
	t.Cleanup(func() { _ = cacheSvc.Close() })

	db, err := database.NewSQLiteService(":memory:", logger)
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo, err := ProvideProfileRepository(ctx, cfg, db, cacheSvc)
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	profiles, err := ProvideProfileService(ctx, cfg, repo, logger)
	if err != nil {
		t.Fatalf("failed to create profile service: %v", err)
	}
	authSvc, err := ProvideAuthService(ctx, cfg, db, cacheSvc, logger)
	if err != nil {
		t.Fatalf("failed to create auth service: %v", err)
	}
	c, err := ProvideCompiler(cfg)
	if err != nil {
		t.Fatalf("failed to create compiler: %v", err)
	}

	m := metrics.New()
	artifacts := ProvideArtifactService(cfg, c, cacheSvc, m, logger)
	if limiter == nil {
		limiter = server.NewIPRateLimiter(1000, 1000, time.Minute)
	}

	router, err := ProvideAPIRouter(ctx, cfg, logger, RouterDeps{
		Metrics:  m,
		Health:   ProvideHealthChecker(db, cacheSvc),
		Limiter:  limiter,
		Sessions: authSvc,
		API:      ProvideAPIHandler(profiles, artifacts, ProvideActivityJournal(cfg, logger), logger),
		Auth:     ProvideAuthHandler(cfg, authSvc, logger),
	})
	if err != nil {
		t.Fatalf("failed to build router: %v", err)
	}
	return &testEnv{router: router, metrics: m}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch v := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(v)
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dest); err != nil {
		t.Fatalf("invalid JSON response %q: %v", rec.Body.String(), err)
	}
}

func (e *testEnv) login(t *testing.T, username, password string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{"username": username, "password": password})
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Session struct {
			Token string `json:"token"`
		} `json:"session"`
	}
	decode(t, rec, &resp)
	return resp.Session.Token
}

func (e *testEnv) firstProfileID(t *testing.T, token string) string {
	t.Helper()
	rec := e.do(t, http.MethodGet, "/api/profiles?q=andy", token, nil)
	var resp struct {
		Profiles []domain.Profile `json:"profiles"`
	}
	decode(t, rec, &resp)
	if len(resp.Profiles) == 0 {
		t.Fatalf("seeded profile not found: %s", rec.Body.String())
	}
	return resp.Profiles[0].ID
}

func TestAuthFlow(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{"username": adminUser, "password": adminPass, "remember": true})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", rec.Code, rec.Body.String())
	}
	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == server.SessionCookieName {
			cookie = c
		}
	}
	if cookie == nil || !cookie.HttpOnly || cookie.MaxAge <= 0 {
		t.Fatalf("persistent session cookie expected: %+v", cookie)
	}

	// 쿠키만으로도 인증된다.
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: server.SessionCookieName, Value: cookie.Value})
	meRec := httptest.NewRecorder()
	env.router.ServeHTTP(meRec, req)
	var me struct {
		User *struct {
			Username string `json:"username"`
			Role     string `json:"role"`
		} `json:"user"`
	}
	decode(t, meRec, &me)
	if me.User == nil || me.User.Username != adminUser || me.User.Role != "admin" {
		t.Fatalf("unexpected me response: %s", meRec.Body.String())
	}

	if rec := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{"username": adminUser, "password": "wrong-pass1"}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password status = %d", rec.Code)
	}

	if rec := env.do(t, http.MethodPost, "/api/auth/logout", cookie.Value, nil); rec.Code != http.StatusOK {
		t.Fatalf("logout status = %d", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "/api/auth/me", cookie.Value, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"user":null`) {
		t.Fatalf("me after logout = %d %s", rec.Code, rec.Body.String())
	}
}

func TestSignupAndRoles(t *testing.T) {
	env := newTestEnv(t, nil)

	creds := map[string]any{"username": "lan.nguyen", "password": "secret123"}
	if rec := env.do(t, http.MethodPost, "/api/auth/signup", "", creds); rec.Code != http.StatusCreated {
		t.Fatalf("signup status = %d: %s", rec.Code, rec.Body.String())
	}
	if rec := env.do(t, http.MethodPost, "/api/auth/signup", "", creds); rec.Code != http.StatusConflict {
		t.Fatalf("duplicate signup status = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, "/api/auth/signup", "", map[string]any{"username": "x", "password": "short"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid signup status = %d", rec.Code)
	}

	token := env.login(t, "lan.nguyen", "secret123")
	if rec := env.do(t, http.MethodGet, "/api/profiles", token, nil); rec.Code != http.StatusOK {
		t.Fatalf("user list status = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, "/api/profiles", token, map[string]any{"name": "Lan"}); rec.Code != http.StatusForbidden {
		t.Fatalf("user create status = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/profiles/export", token, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("user export status = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/activity", token, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("user activity status = %d", rec.Code)
	}
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	env := newTestEnv(t, nil)
	for _, path := range []string{"/api/profiles", "/api/overview", "/api/profiles/1/artifact"} {
		if rec := env.do(t, http.MethodGet, path, "", nil); rec.Code != http.StatusUnauthorized {
			t.Errorf("%s without session = %d", path, rec.Code)
		}
		if rec := env.do(t, http.MethodGet, path, "bogus-token", nil); rec.Code != http.StatusUnauthorized {
			t.Errorf("%s with bogus token = %d", path, rec.Code)
		}
	}
}

func TestProfileCRUD(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.login(t, adminUser, adminPass)

	rec := env.do(t, http.MethodGet, "/api/profiles", token, nil)
	var list struct {
		Count int `json:"count"`
	}
	decode(t, rec, &list)
	if list.Count != 3 {
		t.Fatalf("seeded count = %d", list.Count)
	}

	rec = env.do(t, http.MethodPost, "/api/profiles", token, map[string]any{
		"name":   "Lan Nguyen",
		"slug":   "lan",
		"visits": 999,
		"socialLinks": []map[string]any{
			{"platform": "facebook", "url": "facebook.com/lan"},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		Profile domain.Profile `json:"profile"`
	}
	decode(t, rec, &created)
	p := created.Profile
	if p.ID == "" || p.Slug != "lan.github.io" || p.FullURL != "https://tanhoangarc.github.io/lan.github.io/" || p.Visits != 0 {
		t.Fatalf("unexpected created profile: %+v", p)
	}
	if len(p.SocialLinks) != 1 || p.SocialLinks[0].ID == "" {
		t.Fatalf("link ids should be assigned: %+v", p.SocialLinks)
	}

	rec = env.do(t, http.MethodPatch, "/api/profiles/"+p.ID, token, `{"title":"Sales","slug":"lan-nguyen"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d: %s", rec.Code, rec.Body.String())
	}
	var updated struct {
		Profile domain.Profile `json:"profile"`
	}
	decode(t, rec, &updated)
	if updated.Profile.Title != "Sales" || updated.Profile.FullURL != "https://tanhoangarc.github.io/lan-nguyen.github.io/" {
		t.Fatalf("unexpected updated profile: %+v", updated.Profile)
	}

	if rec := env.do(t, http.MethodPatch, "/api/profiles/"+p.ID, token, `{"status":"archived"}`); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid status patch = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPatch, "/api/profiles/"+p.ID, token, `{not json`); rec.Code != http.StatusUnprocessableEntity && rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed patch = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, "/api/profiles", token, map[string]any{"bio": "nameless"}); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("nameless create = %d", rec.Code)
	}

	if rec := env.do(t, http.MethodDelete, "/api/profiles/"+p.ID, token, nil); rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/profiles/"+p.ID, token, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodDelete, "/api/profiles/"+p.ID, token, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("second delete = %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/activity", token, nil)
	var journal struct {
		Enabled  bool `json:"enabled"`
		Activity []struct {
			Action    string `json:"action"`
			Actor     string `json:"actor"`
			ProfileID string `json:"profileId"`
		} `json:"activity"`
	}
	decode(t, rec, &journal)
	if !journal.Enabled || len(journal.Activity) != 3 {
		t.Fatalf("expected 3 journal entries: %s", rec.Body.String())
	}
	if journal.Activity[0].Action != "profile_deleted" || journal.Activity[2].Action != "profile_created" {
		t.Fatalf("journal should be newest first: %+v", journal.Activity)
	}
	if journal.Activity[0].Actor != adminUser || journal.Activity[0].ProfileID != p.ID {
		t.Fatalf("unexpected journal entry: %+v", journal.Activity[0])
	}
}

func TestListFilters(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.login(t, adminUser, adminPass)

	if rec := env.do(t, http.MethodGet, "/api/profiles?limit=abc", token, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad limit = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/profiles?status=gone", token, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad status = %d", rec.Code)
	}
	rec := env.do(t, http.MethodGet, "/api/profiles?limit=2&status=active", token, nil)
	var list struct {
		Count int `json:"count"`
	}
	decode(t, rec, &list)
	if list.Count != 2 {
		t.Fatalf("limited count = %d", list.Count)
	}
}

func TestArtifactEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.login(t, adminUser, adminPass)
	id := env.firstProfileID(t, token)

	rec := env.do(t, http.MethodGet, "/api/profiles/"+id+"/artifact", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("artifact status = %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Fatalf("content type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != "attachment; filename=index.html" {
		t.Fatalf("content disposition = %q", cd)
	}
	if !strings.HasPrefix(rec.Body.String(), "<!DOCTYPE html>") {
		t.Fatalf("artifact body is not a document")
	}
	etag := rec.Header().Get("ETag")
	if etag == "" || rec.Header().Get("X-Card-Cache") != "miss" {
		t.Fatalf("first build should be a miss with an etag")
	}

	rec = env.do(t, http.MethodGet, "/api/profiles/"+id+"/artifact", token, nil, "If-None-Match", etag)
	if rec.Code != http.StatusNotModified || rec.Header().Get("X-Card-Cache") != "hit" {
		t.Fatalf("conditional request = %d cache=%q", rec.Code, rec.Header().Get("X-Card-Cache"))
	}

	rec = env.do(t, http.MethodGet, "/api/profiles/"+id+"/preview", token, nil)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Disposition") != "inline" {
		t.Fatalf("preview = %d %q", rec.Code, rec.Header().Get("Content-Disposition"))
	}
	if csp := rec.Header().Get("Content-Security-Policy"); !strings.Contains(csp, "script-src 'unsafe-inline'") || !strings.Contains(csp, "connect-src 'none'") {
		t.Fatalf("preview csp = %q", csp)
	}

	rec = env.do(t, http.MethodGet, "/api/profiles/"+id+"/vcard?lang=en", token, nil)
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/vcard") {
		t.Fatalf("vcard = %d %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	if !strings.HasPrefix(rec.Body.String(), "BEGIN:VCARD\r\n") || !strings.Contains(rec.Header().Get("Content-Disposition"), ".vcf") {
		t.Fatalf("unexpected vcard response: %q", rec.Body.String())
	}
	if rec := env.do(t, http.MethodGet, "/api/profiles/"+id+"/vcard?lang=fr", token, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown lang = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/profiles/missing/artifact", token, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("missing artifact = %d", rec.Code)
	}
}

func TestCompileEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.login(t, adminUser, adminPass)

	rec := env.do(t, http.MethodPost, "/api/compile?inline=1", token, map[string]any{
		"name":  "Lan",
		"bio":   "</script><script>alert(1)</script>",
		"phone": "0900000000",
	})
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Disposition") != "inline" {
		t.Fatalf("compile = %d %s", rec.Code, rec.Body.String())
	}
	if n := strings.Count(strings.ToLower(rec.Body.String()), "</script"); n != 2 {
		t.Fatalf("script end tags = %d", n)
	}

	if rec := env.do(t, http.MethodPost, "/api/compile", token, map[string]any{"bio": "x"}); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("nameless compile = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, "/api/compile", token, "[1,2"); rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed compile = %d", rec.Code)
	}
}

func TestExportEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.login(t, adminUser, adminPass)

	rec := env.do(t, http.MethodGet, "/api/profiles/export", token, nil, "Accept-Encoding", "gzip")
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "application/zip" {
		t.Fatalf("export = %d %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	if rec.Header().Get("Content-Encoding") != "" {
		t.Fatalf("zip must not be gzip encoded")
	}
	if rec.Header().Get("X-Card-Count") != "3" || rec.Header().Get("X-Card-Skipped") != "0" {
		t.Fatalf("export counts = %q/%q", rec.Header().Get("X-Card-Count"), rec.Header().Get("X-Card-Skipped"))
	}
	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	if err != nil {
		t.Fatalf("invalid zip: %v", err)
	}
	names := map[string]bool{}
	for _, f := range zr.File {
		names[f.Name] = true
	}
	for _, want := range []string{"Andy.github.io/index.html", "Jaden.github.io/index.html", "Tan.github.io/index.html", "manifest.json"} {
		if !names[want] {
			t.Fatalf("archive missing %s: %v", want, names)
		}
	}
}

func TestOverviewEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.login(t, adminUser, adminPass)

	rec := env.do(t, http.MethodGet, "/api/overview", token, nil)
	var resp struct {
		Overview profile.Overview `json:"overview"`
	}
	decode(t, rec, &resp)
	o := resp.Overview
	if o.TotalProfiles != 3 || o.TotalVisits != 4190 || o.TopPerformer == nil || o.TopPerformer.ID != "3" {
		t.Fatalf("unexpected overview: %+v", o)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"database":"ok"`) {
		t.Fatalf("health = %d %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("security headers missing")
	}

	env.do(t, http.MethodGet, "/api/profiles", "", nil)
	rec = env.do(t, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `card_http_requests_total{method="GET",route="/api/profiles",status="401"} 1`) {
		t.Fatalf("metrics output missing request counter:\n%s", rec.Body.String())
	}

	if rec := env.do(t, http.MethodGet, "/nope", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown route = %d", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, server.NewIPRateLimiter(0.001, 2, time.Minute))
	for i := 0; i < 2; i++ {
		if rec := env.do(t, http.MethodGet, "/api/auth/me", "", nil); rec.Code != http.StatusOK {
			t.Fatalf("request %d = %d", i, rec.Code)
		}
	}
	rec := env.do(t, http.MethodGet, "/api/auth/me", "", nil)
	if rec.Code != http.StatusTooManyRequests || rec.Header().Get("Retry-After") == "" {
		t.Fatalf("third request = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/health", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("health is not rate limited, got %d", rec.Code)
	}
}

func TestBodyLimit(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.login(t, adminUser, adminPass)

	huge := `{"name":"Lan","bio":"` + strings.Repeat("a", 9<<20) + `"}`
	if rec := env.do(t, http.MethodPost, "/api/compile", token, huge); rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("oversized body = %d", rec.Code)
	}
}
