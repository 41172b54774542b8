package cardruntime

import (
	"net/url"
	"strings"

	"github.com/TanHoangarc/Admin/internal/domain"
)

// ConsultTemplateKey 는 상담 메시지 템플릿의 UI 문구 키다.
const ConsultTemplateKey = "consult_form.template"

// ConsultMessage: 템플릿의 {owner} {name} {phone} {service} {message} 를 입력값으로 채운다.
func ConsultMessage(template, owner string, f ConsultFields) string {
	return strings.NewReplacer(
		"{owner}", strings.TrimSpace(owner),
		"{name}", strings.TrimSpace(f.Name),
		"{phone}", strings.TrimSpace(f.Phone),
		"{service}", strings.TrimSpace(f.Service),
		"{message}", strings.TrimSpace(f.Message),
	).Replace(template)
}

// DeepLink: https://<메신저 도메인>/<연락처 식별자>. 이동 시점에 호출한다.
func DeepLink(c domain.CardContact) string {
	host := c.MessagingDomain
	if host == "" {
		host = "zalo.me"
	}
	return "https://" + host + "/" + url.PathEscape(c.ID)
}

// uiText 는 설정에 담긴 언어별 문구를 찾고, 없으면 키를 그대로 돌려준다.
func uiText(cfg domain.CardConfig, lang domain.Language, key string) string {
	if v, ok := cfg.UI[lang][key]; ok && v != "" {
		return v
	}
	return key
}
