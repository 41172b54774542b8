package artifact

import (
	"archive/zip"
	"bytes"
	"context"
	stdErrors "errors"
	"io"
	"log/slog"
	"net"
	"path"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/TanHoangarc/Admin/internal/domain"
	"github.com/TanHoangarc/Admin/internal/metrics"
	"github.com/TanHoangarc/Admin/internal/service/cache"
	"github.com/TanHoangarc/Admin/internal/service/compiler"
	"github.com/TanHoangarc/Admin/pkg/errors"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T, withCache bool) (*Service, *miniredis.Miniredis, *metrics.Metrics) {
	t.Helper()
	c, err := compiler.New(compiler.Options{RedirectDelay: 1500 * time.Millisecond})
	if err != nil {
		t.Fatalf("failed to create compiler: %v", err)
	}
	m := metrics.New()

	if !withCache {
		return NewService(c, nil, m, Config{Concurrency: 2}, newTestLogger()), nil, m
	}

	mr := miniredis.RunT(t)
	host, portStr, err := net.SplitHostPort(mr.Addr())
	if err != nil {
		t.Fatalf("failed to split address: %v", err)
	}
	port, _ := strconv.Atoi(portStr)
	cacheSvc, err := cache.NewCacheService(cache.Config{Host: host, Port: port, DisableCache: true}, newTestLogger())
	if err != nil {
		t.Fatalf("failed to create cache service: %v", err)
	}
	t.Cleanup(func() { _ = cacheSvc.Close() })
	return NewService(c, cacheSvc, m, Config{Concurrency: 2, CacheTTL: time.Hour, CacheTimeout: 200 * time.Millisecond}, newTestLogger()), mr, m
}

func profile(name string) *domain.Profile {
	return &domain.Profile{ID: strings.ToLower(name), Name: name, PhoneNumber: "0972133680"}
}

func TestBuildCachesCompressedArtifact(t *testing.T) {
	svc, mr, m := newTestService(t, true)
	ctx := context.Background()

	first, err := svc.Build(ctx, profile("Andy"))
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if first.Cached || first.Slug != "Andy.github.io" || first.FileName != "index.html" {
		t.Fatalf("unexpected first artifact: %+v", first)
	}

	key := cacheKey(first.Hash)
	if !mr.Exists(key) {
		t.Fatalf("artifact should be cached under %s", key)
	}
	if ttl := mr.TTL(key); ttl != time.Hour {
		t.Fatalf("cache ttl = %v", ttl)
	}
	stored, _ := mr.Get(key)
	if len(stored) >= len(first.Body) || strings.Contains(stored, "<!DOCTYPE") {
		t.Fatalf("cached value should be compressed")
	}

	second, err := svc.Build(ctx, profile("Andy"))
	if err != nil {
		t.Fatalf("second build failed: %v", err)
	}
	if !second.Cached || !bytes.Equal(second.Body, first.Body) || second.Hash != first.Hash {
		t.Fatalf("second build should be a byte-identical cache hit")
	}
	if got := testutil.ToFloat64(m.CacheLookups.WithLabelValues(metrics.CacheHit)); got != 1 {
		t.Fatalf("cache hits = %v", got)
	}
	if got := testutil.ToFloat64(m.CompileTotal.WithLabelValues(metrics.ResultOK)); got != 1 {
		t.Fatalf("compiles = %v", got)
	}

	changed := profile("Andy")
	changed.Bio = "new bio"
	third, err := svc.Build(ctx, changed)
	if err != nil {
		t.Fatalf("third build failed: %v", err)
	}
	if third.Cached || third.Hash == first.Hash {
		t.Fatalf("changed profile must not reuse the cached artifact")
	}

	if err := svc.Invalidate(ctx, changed); err != nil {
		t.Fatalf("invalidate failed: %v", err)
	}
	if mr.Exists(cacheKey(third.Hash)) {
		t.Fatalf("invalidate should remove the entry")
	}
}

func TestBuildWithoutCache(t *testing.T) {
	svc, _, m := newTestService(t, false)
	a, err := svc.Build(context.Background(), profile("Jaden"))
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if a.Cached || len(a.Body) == 0 {
		t.Fatalf("unexpected artifact: %+v", a)
	}
	if got := testutil.ToFloat64(m.CacheLookups.WithLabelValues(metrics.CacheBypass)); got != 1 {
		t.Fatalf("bypass count = %v", got)
	}
}

func TestBuildFallsBackWhenCacheDown(t *testing.T) {
	svc, mr, m := newTestService(t, true)
	mr.Close()

	done := make(chan error, 1)
	go func() {
		for i := 0; i < 4; i++ {
			if _, err := svc.Build(context.Background(), profile("Andy")); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("build should succeed without cache: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatalf("build blocked on an unreachable cache")
	}
	if svc.breaker.Allow() {
		t.Fatalf("breaker should open after repeated cache failures")
	}
	if got := testutil.ToFloat64(m.CacheLookups.WithLabelValues(metrics.CacheBypass)); got < 1 {
		t.Fatalf("open breaker should bypass the cache")
	}
}

func TestCacheTimeoutDefault(t *testing.T) {
	svc := NewService(nil, nil, nil, Config{}, newTestLogger())
	if svc.cfg.CacheTimeout <= 0 || svc.cfg.CacheTimeout > 5*time.Second {
		t.Fatalf("cache timeout should default to a short bound, got %v", svc.cfg.CacheTimeout)
	}
}

func TestBuildMissingIdentity(t *testing.T) {
	svc, _, m := newTestService(t, false)
	_, err := svc.Build(context.Background(), &domain.Profile{Bio: "x"})
	if !stdErrors.Is(err, errors.ErrMissingIdentity) {
		t.Fatalf("expected missing identity, got %v", err)
	}
	if got := testutil.ToFloat64(m.CompileTotal.WithLabelValues(metrics.ResultInvalid)); got != 1 {
		t.Fatalf("invalid count = %v", got)
	}
}

func TestVCard(t *testing.T) {
	svc, _, _ := newTestService(t, false)
	p := profile("Lâm Ngọc Vũ")
	p.HeaderTitleEn = "Vu Lam"

	vi, err := svc.VCard(p, domain.LanguageVi)
	if err != nil {
		t.Fatalf("vcard failed: %v", err)
	}
	if vi.FileName != "Lam_Ngoc_Vu.vcf" || !strings.Contains(vi.Body, "FN:Lâm Ngọc Vũ\r\n") {
		t.Fatalf("unexpected vi vcard: %+v", vi)
	}
	en, _ := svc.VCard(p, domain.LanguageEn)
	if en.FileName != "Vu_Lam.vcf" || !strings.Contains(en.Body, "FN:Vu Lam\r\n") {
		t.Fatalf("unexpected en vcard: %+v", en)
	}
	other, _ := svc.VCard(p, domain.Language("fr"))
	if other.FileName != vi.FileName {
		t.Fatalf("unknown language should fall back to vi")
	}
}

func TestExportAll(t *testing.T) {
	svc, _, m := newTestService(t, true)
	profiles := []*domain.Profile{
		profile("Andy"),
		{ID: "broken"},
		profile("Jaden"),
		{ID: "andy-2", Name: "Andy Clone", Slug: "Andy"},
	}

	var buf bytes.Buffer
	summary, err := svc.ExportAll(context.Background(), profiles, &buf)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	var dirs []string
	for _, e := range summary.Entries {
		dirs = append(dirs, e.Dir)
	}
	if strings.Join(dirs, ",") != "Andy.github.io,Jaden.github.io,Andy.github.io-2" {
		t.Fatalf("unexpected dirs: %v", dirs)
	}
	if len(summary.Skipped) != 1 || summary.Skipped[0].ProfileID != "broken" {
		t.Fatalf("unexpected skipped: %+v", summary.Skipped)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("archive unreadable: %v", err)
	}
	files := map[string][]byte{}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		body, _ := io.ReadAll(rc)
		_ = rc.Close()
		files[f.Name] = body
	}
	for _, name := range []string{
		"Andy.github.io/index.html", "Andy.github.io/Andy.vcf",
		"Jaden.github.io/index.html", "Andy.github.io-2/index.html",
		ManifestName,
	} {
		if _, ok := files[name]; !ok {
			t.Fatalf("archive missing %s", name)
		}
	}

	var manifest ExportSummary
	if err := json.Unmarshal(files[ManifestName], &manifest); err != nil {
		t.Fatalf("manifest invalid: %v", err)
	}
	if len(manifest.Entries) != 3 || manifest.Entries[0].URL != "https://tanhoangarc.github.io/Andy.github.io/" {
		t.Fatalf("unexpected manifest: %+v", manifest)
	}

	standalone, err := svc.Build(context.Background(), profile("Andy"))
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if !bytes.Equal(files["Andy.github.io/index.html"], standalone.Body) {
		t.Fatalf("exported artifact must match a standalone build")
	}
	if got := testutil.ToFloat64(m.ExportedCards); got != 3 {
		t.Fatalf("exported count = %v", got)
	}
}

func TestExportAllKeepsEntriesInsideArchive(t *testing.T) {
	svc, _, _ := newTestService(t, false)
	profiles := []*domain.Profile{
		{ID: "a", Name: "Evil", Slug: "../../../tmp/evil"},
		{ID: "b", Name: "Abs", Slug: "/etc/passwd"},
		{ID: "c", Name: "Win", Slug: `..\..\win`},
	}

	var buf bytes.Buffer
	summary, err := svc.ExportAll(context.Background(), profiles, &buf)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if len(summary.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %+v", summary)
	}
	if summary.Entries[0].Dir != "tmpevil.github.io" {
		t.Fatalf("unexpected dir for traversal slug: %q", summary.Entries[0].Dir)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("archive unreadable: %v", err)
	}
	for _, f := range zr.File {
		name := f.Name
		if strings.HasPrefix(name, "/") || strings.ContainsAny(name, `\:`) || path.Clean(name) != name {
			t.Fatalf("unsafe archive entry %q", name)
		}
		for _, seg := range strings.Split(name, "/") {
			if seg == ".." || strings.HasPrefix(seg, ".") {
				t.Fatalf("archive entry %q escapes or hides its directory", name)
			}
		}
	}
}

func TestArchiveDir(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Andy.github.io", "Andy.github.io"},
		{"../../x", "x"},
		{"...", "card"},
		{"a/b\\c:d", "abcd"},
		{"", "card"},
	}
	for _, tt := range tests {
		if got := archiveDir(tt.in); got != tt.want {
			t.Errorf("archiveDir(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExportAllDeterministic(t *testing.T) {
	svc, _, _ := newTestService(t, false)
	profiles := []*domain.Profile{profile("Andy"), profile("Jaden"), profile("TanHoang")}

	var a, b bytes.Buffer
	if _, err := svc.ExportAll(context.Background(), profiles, &a); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if _, err := svc.ExportAll(context.Background(), profiles, &b); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Fatalf("archives differ between runs")
	}
}

func TestExportAllCanceled(t *testing.T) {
	svc, _, _ := newTestService(t, false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.ExportAll(ctx, []*domain.Profile{profile("Andy")}, io.Discard); !stdErrors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
}

func TestCompressRoundTrip(t *testing.T) {
	src := bytes.Repeat([]byte("<div class=\"card\"></div>"), 200)
	packed, err := compress(src)
	if err != nil {
		t.Fatalf("compress failed: %v", err)
	}
	out, err := decompress(packed)
	if err != nil || !bytes.Equal(out, src) {
		t.Fatalf("round trip failed: %v", err)
	}
	if _, err := decompress([]byte("not zstd")); err == nil {
		t.Fatalf("expected error for corrupt input")
	}
}
