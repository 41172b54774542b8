package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 500
)

func actorName(c *gin.Context) string {
	if user := currentUser(c); user != nil {
		return user.Username
	}
	return ""
}

// ListActivity: GET /api/activity?limit=N (최신 순)
func (h *APIHandler) ListActivity(c *gin.Context) {
	limit := defaultActivityLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeBadRequest(c, "limit must be a positive integer")
			return
		}
		limit = min(n, maxActivityLimit)
	}

	entries, err := h.journal.Recent(limit)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"enabled":  h.journal.Enabled(),
		"activity": entries,
	})
}
