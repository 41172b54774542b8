package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	authsvc "github.com/TanHoangarc/Admin/internal/service/auth"
)

// SessionCookieName: 브라우저 대시보드용 세션 쿠키
const SessionCookieName = "card_session"

// setSessionCookie: 영구 세션만 Expires 를 둔다. 짧은 세션은 브라우저 종료 시 사라지는 쿠키가 된다.
func setSessionCookie(c *gin.Context, session *authsvc.Session, secure bool) {
	cookie := &http.Cookie{
		Name:     SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	if session.Persistent {
		cookie.Expires = session.ExpiresAt
		cookie.MaxAge = int(time.Until(session.ExpiresAt).Seconds())
	}
	http.SetCookie(c.Writer, cookie)
}

func clearSessionCookie(c *gin.Context, secure bool) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// isSecureRequest: TLS 종단이 프록시에 있을 때는 forceHTTPS 로 판단한다.
func isSecureRequest(c *gin.Context, forceHTTPS bool) bool {
	return forceHTTPS || c.Request.TLS != nil
}
