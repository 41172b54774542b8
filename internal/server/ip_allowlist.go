package server

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// NewIPAllowList: 허용된 IP 대역(CIDR) 목록을 파싱하여 IPNet 슬라이스를 생성한다.
// 대역 표기가 없는 주소는 단일 호스트로 취급한다.
func NewIPAllowList(allowed []string) ([]*net.IPNet, error) {
	nets := make([]*net.IPNet, 0, len(allowed))
	for _, raw := range allowed {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		if !strings.Contains(trimmed, "/") {
			if strings.Contains(trimmed, ":") {
				trimmed += "/128"
			} else {
				trimmed += "/32"
			}
		}
		_, cidr, err := net.ParseCIDR(trimmed)
		if err != nil {
			return nil, fmt.Errorf("invalid CIDR %s: %w", trimmed, err)
		}
		nets = append(nets, cidr)
	}
	return nets, nil
}

// IPAllowMiddleware: 클라이언트 IP가 허용 목록에 없으면 403. 목록이 비면 모두 허용한다.
func IPAllowMiddleware(allowed []*net.IPNet, logger *slog.Logger) gin.HandlerFunc {
	if len(allowed) == 0 {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	return func(c *gin.Context) {
		clientIP := net.ParseIP(c.ClientIP())
		if clientIP != nil {
			for _, cidr := range allowed {
				if cidr.Contains(clientIP) {
					c.Next()
					return
				}
			}
		}
		logger.Warn("ip_blocked", slog.String("ip", c.ClientIP()), slog.String("path", c.Request.URL.Path))
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "error": "FORBIDDEN"})
	}
}
