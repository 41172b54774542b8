package server

import (
	"context"
	stdErrors "errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/TanHoangarc/Admin/internal/constants"
	"github.com/TanHoangarc/Admin/internal/domain"
	"github.com/TanHoangarc/Admin/internal/service/activity"
	"github.com/TanHoangarc/Admin/internal/service/profile"
)

// ListProfiles: GET /api/profiles
// Query params:
//   - q: 이름/슬러그 검색어
//   - status: active | maintenance
//   - limit: 최대 개수
func (h *APIHandler) ListProfiles(c *gin.Context) {
	query := profile.Query{
		Search: c.Query("q"),
		Status: domain.ProfileStatus(c.Query("status")),
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeBadRequest(c, "limit must be a non-negative integer")
			return
		}
		query.Limit = limit
	}
	if query.Status != "" && !query.Status.IsValid() {
		writeBadRequest(c, "unknown status")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout.APIRequest)
	defer cancel()

	profiles, err := h.profiles.List(ctx, query)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"profiles": profiles,
		"count":    len(profiles),
	})
}

// GetProfile: GET /api/profiles/:id
func (h *APIHandler) GetProfile(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout.APIRequest)
	defer cancel()

	p, err := h.profiles.Get(ctx, c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "profile": p})
}

// CreateProfile: POST /api/profiles
func (h *APIHandler) CreateProfile(c *gin.Context) {
	var in domain.Profile
	if err := c.ShouldBindJSON(&in); err != nil {
		writeBodyError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout.APIRequest)
	defer cancel()

	p, err := h.profiles.Add(ctx, &in)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	h.journal.Record(activity.ActionProfileCreated, actorName(c), p.ID, p.Slug)
	c.JSON(http.StatusCreated, gin.H{"success": true, "profile": p})
}

// UpdateProfile: PATCH /api/profiles/:id
// 본문은 JSON merge patch. 배열 필드는 통째로 교체된다.
func (h *APIHandler) UpdateProfile(c *gin.Context) {
	patch, err := io.ReadAll(c.Request.Body)
	if err != nil {
		writeBodyError(c, err)
		return
	}
	if len(patch) == 0 {
		writeBadRequest(c, "empty patch")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout.APIRequest)
	defer cancel()

	p, err := h.profiles.Update(ctx, c.Param("id"), patch)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	h.journal.Record(activity.ActionProfileUpdated, actorName(c), p.ID, p.Slug)
	c.JSON(http.StatusOK, gin.H{"success": true, "profile": p})
}

// DeleteProfile: DELETE /api/profiles/:id
func (h *APIHandler) DeleteProfile(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout.APIRequest)
	defer cancel()

	id := c.Param("id")
	p, err := h.profiles.Get(ctx, id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if err := h.profiles.Delete(ctx, id); err != nil {
		writeError(c, h.logger, err)
		return
	}
	if err := h.artifacts.Invalidate(ctx, p); err != nil {
		h.logger.Warn("artifact_invalidate_failed", slog.String("profile_id", id), slog.Any("error", err))
	}
	h.journal.Record(activity.ActionProfileDeleted, actorName(c), p.ID, p.Slug)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Overview: GET /api/overview
func (h *APIHandler) Overview(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout.APIRequest)
	defer cancel()

	overview, err := h.profiles.Overview(ctx)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "overview": overview})
}

// writeBodyError: 크기 초과는 413, 그 외 파싱 실패는 400
func writeBodyError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if stdErrors.As(err, &tooLarge) {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
			"success": false,
			"error":   "BODY_TOO_LARGE",
		})
		return
	}
	writeBadRequest(c, "invalid JSON body")
}
