package compiler

import (
	"regexp"
	"strings"

	"github.com/a-h/templ"
)

// 인라인 이미지 업로드(data URL)만 허용한다. svg 는 스크립트를 담을 수 있어 제외.
var reImageDataURL = regexp.MustCompile(`^data:image/(png|jpe?g|gif|webp);base64,[A-Za-z0-9+/=\s]+$`)

// linkURL: 이동 대상 URL. templ 의 스킴 허용 목록(http, https, mailto, tel, ftp)을 통과하지 못하면
// templ.FailedSanitizationURL 로 바뀐다.
func linkURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	return string(templ.URL(raw))
}

// imageURL: img src 용 URL. 허용된 data URL 은 그대로 둔다.
func imageURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if reImageDataURL.MatchString(raw) {
		return raw
	}
	return string(templ.URL(raw))
}

func imageURLs(raw []string) []string {
	if len(raw) == 0 {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, u := range raw {
		if safe := imageURL(u); safe != "" {
			out = append(out, safe)
		}
	}
	return out
}
