package server

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	authsvc "github.com/TanHoangarc/Admin/internal/service/auth"
	"github.com/TanHoangarc/Admin/pkg/errors"
)

// 인증 외 오류 코드 (응답 error 필드)
const (
	codeValidation = "VALIDATION_FAILED"
	codeNotFound   = "NOT_FOUND"
	codeBadRequest = "BAD_REQUEST"
	codeTimeout    = "TIMEOUT"
	codeInternal   = "INTERNAL_ERROR"
)

func writeAuthError(c *gin.Context, status int, code authsvc.ErrorCode) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   code,
	})
}

func mapAuthErrorToHTTP(err error) (status int, code authsvc.ErrorCode) {
	var ae *authsvc.Error
	if !stdErrors.As(err, &ae) {
		return http.StatusInternalServerError, authsvc.CodeInternal
	}

	switch ae.Code {
	case authsvc.CodeInvalidInput:
		return http.StatusBadRequest, ae.Code
	case authsvc.CodeUsernameExists:
		return http.StatusConflict, ae.Code
	case authsvc.CodeInvalidCredentials, authsvc.CodeUnauthorized:
		return http.StatusUnauthorized, ae.Code
	case authsvc.CodeAccountLocked, authsvc.CodeForbidden:
		return http.StatusForbidden, ae.Code
	case authsvc.CodeRateLimited:
		return http.StatusTooManyRequests, ae.Code
	default:
		return http.StatusInternalServerError, authsvc.CodeInternal
	}
}

func writeBadRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   codeBadRequest,
		"message": message,
	})
}

// writeError: 서비스 에러를 HTTP 응답으로 변환한다. 5xx 만 로그를 남긴다.
func writeError(c *gin.Context, logger *slog.Logger, err error) {
	var ae *authsvc.Error
	if stdErrors.As(err, &ae) {
		status, code := mapAuthErrorToHTTP(err)
		writeAuthError(c, status, code)
		return
	}

	var ve *errors.ValidationError
	switch {
	case stdErrors.As(err, &ve):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
			"success": false,
			"error":   codeValidation,
			"field":   ve.Field,
			"message": ve.Message,
		})
	case stdErrors.Is(err, errors.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   codeNotFound,
		})
	case stdErrors.Is(err, context.DeadlineExceeded):
		logger.Warn("request_timeout", slog.String("path", c.FullPath()), slog.Any("error", err))
		c.AbortWithStatusJSON(http.StatusGatewayTimeout, gin.H{
			"success": false,
			"error":   codeTimeout,
		})
	default:
		logger.Error("request_failed",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Any("error", err),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   codeInternal,
		})
	}
}
