package normalize

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/TanHoangarc/Admin/internal/constants"
	"github.com/TanHoangarc/Admin/internal/domain"
)

var reScheme = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.\-]*:`)

// DefaultAvatar 는 시드(내부 이름)로 결정되는 아바타 자리표시자 URL 이다.
func DefaultAvatar(seed string) string {
	return fmt.Sprintf(constants.CardDefaults.AvatarTemplate, url.QueryEscape(seed))
}

// DefaultCover 는 시드로 결정되는 커버 자리표시자 URL 이다.
func DefaultCover(seed string) string {
	return fmt.Sprintf(constants.CardDefaults.CoverTemplate, url.PathEscape(seed))
}

// Asset 은 값이 비어 있으면 fallback 을 반환한다.
func Asset(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}

// HasScheme 은 "scheme:" 로 시작하는지 확인한다.
func HasScheme(raw string) bool {
	return reScheme.MatchString(raw)
}

// WebURL: 스킴이 없으면 https:// 를 붙인다. 스킴이 있으면 그대로 둔다 (안전성 검사는 컴파일러 몫).
func WebURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || HasScheme(raw) || strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "#") {
		return raw
	}
	return "https://" + raw
}

// LinkHref: 플랫폼별로 링크 대상을 해석한다. 빈 결과는 QR 전용 링크를 뜻한다.
func LinkHref(p domain.Platform, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if HasScheme(raw) {
		return raw
	}

	switch p {
	case domain.PlatformEmail:
		if strings.Contains(raw, "@") {
			return "mailto:" + raw
		}
		return WebURL(raw)
	case domain.PlatformZalo:
		if d := Digits(raw); d != "" && looksLikePhone(raw) {
			return "https://" + constants.CardDefaults.MessagingDomain + "/" + d
		}
		return WebURL(raw)
	case domain.PlatformWhatsApp:
		if phone := Phone(raw); phone != "" && looksLikePhone(raw) {
			return "https://wa.me/" + strings.TrimPrefix(phone, "+")
		}
		return WebURL(raw)
	case domain.PlatformMap:
		if looksLikeHost(raw) {
			return WebURL(raw)
		}
		return "https://www.google.com/maps/search/?api=1&query=" + url.QueryEscape(raw)
	case domain.PlatformFacebook, domain.PlatformInstagram, domain.PlatformTikTok,
		domain.PlatformLinkedIn, domain.PlatformWebsite, domain.PlatformWeChat,
		domain.PlatformMomo, domain.PlatformBank, domain.PlatformProfile, domain.PlatformOther:
		return WebURL(raw)
	}
	return WebURL(raw)
}

func looksLikePhone(raw string) bool {
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9', r == '+', r == ' ', r == '-', r == '.', r == '(', r == ')':
		default:
			return false
		}
	}
	return true
}

func looksLikeHost(raw string) bool {
	host := raw
	if i := strings.IndexAny(host, "/?#"); i >= 0 {
		host = host[:i]
	}
	return strings.Contains(host, ".") && !strings.ContainsAny(host, " ,")
}
