package server

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/TanHoangarc/Admin/internal/constants"
	"github.com/TanHoangarc/Admin/internal/domain"
	"github.com/TanHoangarc/Admin/internal/service/activity"
	"github.com/TanHoangarc/Admin/internal/service/artifact"
	"github.com/TanHoangarc/Admin/internal/service/profile"
)

const (
	htmlContentType = "text/html; charset=utf-8"
	zipContentType  = "application/zip"
	exportFileName  = "cards.zip"

	// previewCSP: 컴파일된 문서는 인라인 스크립트/스타일 하나씩만 가진다. 외부 스크립트와 네트워크 요청은 막는다.
	previewCSP = "default-src 'none'; script-src 'unsafe-inline'; style-src 'unsafe-inline'; " +
		"img-src https: data:; media-src blob: mediastream:; connect-src 'none'; " +
		"form-action 'none'; base-uri 'none'; frame-ancestors 'self'"
)

func attachment(name string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": name})
}

func (h *APIHandler) loadProfile(c *gin.Context) (*domain.Profile, bool) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout.APIRequest)
	defer cancel()

	p, err := h.profiles.Get(ctx, c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return nil, false
	}
	return p, true
}

// writeArtifact: ETag 가 일치하면 304
func writeArtifact(c *gin.Context, a *artifact.Artifact, disposition string) {
	etag := strconv.Quote(a.Hash)
	c.Header("ETag", etag)
	c.Header("Cache-Control", "private, no-cache")
	c.Header("X-Card-Cache", cacheLabel(a.Cached))
	if c.GetHeader("If-None-Match") == etag {
		c.Status(http.StatusNotModified)
		return
	}
	c.Header("Content-Disposition", disposition)
	c.Data(http.StatusOK, htmlContentType, a.Body)
}

func cacheLabel(cached bool) string {
	if cached {
		return "hit"
	}
	return "miss"
}

// GetArtifact: GET /api/profiles/:id/artifact (index.html 다운로드)
func (h *APIHandler) GetArtifact(c *gin.Context) {
	p, ok := h.loadProfile(c)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout.APIRequest)
	defer cancel()

	a, err := h.artifacts.Build(ctx, p)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	writeArtifact(c, a, attachment(a.FileName))
}

// Preview: GET /api/profiles/:id/preview (브라우저 안에서 바로 렌더링)
func (h *APIHandler) Preview(c *gin.Context) {
	p, ok := h.loadProfile(c)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout.APIRequest)
	defer cancel()

	a, err := h.artifacts.Build(ctx, p)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Header("Content-Security-Policy", previewCSP)
	c.Header("X-Frame-Options", "SAMEORIGIN")
	writeArtifact(c, a, "inline")
}

// VCard: GET /api/profiles/:id/vcard?lang=vi|en
func (h *APIHandler) VCard(c *gin.Context) {
	p, ok := h.loadProfile(c)
	if !ok {
		return
	}
	lang := domain.Language(c.DefaultQuery("lang", string(domain.LanguageVi)))
	if lang != domain.LanguageVi && lang != domain.LanguageEn {
		writeBadRequest(c, "lang must be vi or en")
		return
	}

	vc, err := h.artifacts.VCard(p, lang)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Header("Content-Disposition", attachment(vc.FileName))
	c.Data(http.StatusOK, vc.MIME+"; charset=utf-8", []byte(vc.Body))
}

// Export: GET /api/profiles/export
// 전체 프로필을 zip 하나로 묶는다. 실패한 프로필 수는 X-Card-Skipped 헤더로 알린다.
func (h *APIHandler) Export(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout.Export)
	defer cancel()

	profiles, err := h.profiles.List(ctx, profile.Query{})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	var buf bytes.Buffer
	summary, err := h.artifacts.ExportAll(ctx, profiles, &buf)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	h.journal.Record(activity.ActionCardsExported, actorName(c), "",
		fmt.Sprintf("%d exported, %d skipped", len(summary.Entries), len(summary.Skipped)))

	c.Header("Content-Disposition", attachment(exportFileName))
	c.Header("X-Card-Count", strconv.Itoa(len(summary.Entries)))
	c.Header("X-Card-Skipped", strconv.Itoa(len(summary.Skipped)))
	c.Data(http.StatusOK, zipContentType, buf.Bytes())
}

// Compile: POST /api/compile
// 저장하지 않은 프로필 본문을 바로 컴파일한다. ?inline=1 이면 미리보기로 응답한다.
func (h *APIHandler) Compile(c *gin.Context) {
	var in domain.Profile
	if err := c.ShouldBindJSON(&in); err != nil {
		writeBodyError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout.APIRequest)
	defer cancel()

	a, err := h.artifacts.Build(ctx, &in)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	if c.Query("inline") == "1" {
		c.Header("Content-Security-Policy", previewCSP)
		c.Header("X-Frame-Options", "SAMEORIGIN")
		writeArtifact(c, a, "inline")
		return
	}
	writeArtifact(c, a, attachment(a.FileName))
}
