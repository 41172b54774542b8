package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/TanHoangarc/Admin/internal/constants"
	authsvc "github.com/TanHoangarc/Admin/internal/service/auth"
)

const userContextKey = "card_user"

// SessionResolver: 토큰으로 현재 사용자를 찾는다. 세션이 없거나 만료되면 (nil, nil).
type SessionResolver interface {
	CurrentSession(ctx context.Context, token string) (*authsvc.User, error)
}

func parseBearerToken(c *gin.Context) (string, bool) {
	raw := strings.TrimSpace(c.GetHeader("Authorization"))
	if raw == "" {
		return "", false
	}
	parts := strings.Fields(raw)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// sessionToken: Authorization 헤더가 쿠키보다 우선한다.
func sessionToken(c *gin.Context) (string, bool) {
	if token, ok := parseBearerToken(c); ok {
		return token, true
	}
	if token, err := c.Cookie(SessionCookieName); err == nil && token != "" {
		return token, true
	}
	return "", false
}

// SessionAuthMiddleware: 세션 토큰을 검증하고 사용자를 컨텍스트에 넣는다.
func SessionAuthMiddleware(sessions SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := sessionToken(c)
		if !ok {
			writeAuthError(c, http.StatusUnauthorized, authsvc.CodeUnauthorized)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout.APIRequest)
		defer cancel()

		user, err := sessions.CurrentSession(ctx, token)
		if err != nil {
			status, code := mapAuthErrorToHTTP(err)
			writeAuthError(c, status, code)
			return
		}
		if user == nil {
			writeAuthError(c, http.StatusUnauthorized, authsvc.CodeUnauthorized)
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// RequireAdmin: SessionAuthMiddleware 뒤에 둔다.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if user == nil || !user.IsAdmin() {
			writeAuthError(c, http.StatusForbidden, authsvc.CodeForbidden)
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) *authsvc.User {
	v, ok := c.Get(userContextKey)
	if !ok {
		return nil
	}
	user, _ := v.(*authsvc.User)
	return user
}
