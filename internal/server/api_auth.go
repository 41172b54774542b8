package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/TanHoangarc/Admin/internal/constants"
	authsvc "github.com/TanHoangarc/Admin/internal/service/auth"
)

// AuthHandler: /api/auth 엔드포인트를 처리하는 핸들러
type AuthHandler struct {
	auth        *authsvc.Service
	logger      *slog.Logger
	allowSignup bool
	forceHTTPS  bool
}

// NewAuthHandler: AuthHandler 인스턴스를 생성합니다.
func NewAuthHandler(auth *authsvc.Service, allowSignup, forceHTTPS bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger, allowSignup: allowSignup, forceHTTPS: forceHTTPS}
}

type signupRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Remember bool   `json:"remember"`
}

func userJSON(user *authsvc.User) gin.H {
	return gin.H{
		"id":        user.ID,
		"username":  user.Username,
		"role":      user.Role,
		"createdAt": user.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func sessionJSON(session *authsvc.Session) gin.H {
	return gin.H{
		"token":      session.Token,
		"expiresAt":  session.ExpiresAt.UTC().Format(time.RFC3339),
		"persistent": session.Persistent,
	}
}

// Signup: POST /api/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	if !h.allowSignup {
		writeAuthError(c, http.StatusForbidden, authsvc.CodeForbidden)
		return
	}

	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeAuthError(c, http.StatusBadRequest, authsvc.CodeInvalidInput)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout.APIRequest)
	defer cancel()

	user, err := h.auth.Signup(ctx, req.Username, req.Password)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"user":    userJSON(user),
	})
}

// Login: POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeAuthError(c, http.StatusBadRequest, authsvc.CodeInvalidInput)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout.APIRequest)
	defer cancel()

	session, user, err := h.auth.Login(ctx, req.Username, req.Password, req.Remember, c.ClientIP())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	setSessionCookie(c, session, isSecureRequest(c, h.forceHTTPS))
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"session": sessionJSON(session),
		"user":    userJSON(user),
	})
}

// Logout: POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	token, ok := sessionToken(c)
	if !ok {
		writeAuthError(c, http.StatusUnauthorized, authsvc.CodeUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout.APIRequest)
	defer cancel()

	clearSessionCookie(c, isSecureRequest(c, h.forceHTTPS))
	if err := h.auth.Logout(ctx, token); err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Refresh: POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	token, ok := sessionToken(c)
	if !ok {
		writeAuthError(c, http.StatusUnauthorized, authsvc.CodeUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout.APIRequest)
	defer cancel()

	session, err := h.auth.Refresh(ctx, token)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	setSessionCookie(c, session, isSecureRequest(c, h.forceHTTPS))
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"session": sessionJSON(session),
	})
}

// Me: GET /api/auth/me
// 세션이 없으면 401 대신 user=null 을 돌려준다. 대시보드가 로그인 화면 분기에 쓴다.
func (h *AuthHandler) Me(c *gin.Context) {
	token, _ := sessionToken(c)

	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout.APIRequest)
	defer cancel()

	user, err := h.auth.CurrentSession(ctx, token)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if user == nil {
		c.JSON(http.StatusOK, gin.H{"success": true, "user": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    userJSON(user),
	})
}
