package normalize

import (
	"strings"
	"unicode"

	"github.com/TanHoangarc/Admin/internal/constants"
)

var protocolPrefixes = []string{"https://", "http://"}

// unsafeSlugRunes: URL 경로 구분자, 쿼리/프래그먼트, 따옴표류
const unsafeSlugRunes = "\\?#%\"'<>`{}|^[]"

// Slug: 사용자가 입력한 슬러그/URL 을 정규형으로 바꾼다.
// 프로토콜과 기본 호스트 접두어를 고정점에 도달할 때까지 제거한 뒤, 도메인 접미사가 없으면 붙인다.
// 결과는 경로 한 칸에 들어가는 문자만 남긴다. 공백, 제어 문자, "/" 는 제거된다.
// 정규형을 다시 넣으면 그대로 반환된다.
func Slug(raw string) string {
	baseHost := baseHostPrefix()

	s := strings.Map(dropUnsafeRune, raw)
	for {
		prev := s
		s = strings.TrimSpace(s)
		for _, prefix := range protocolPrefixes {
			s = trimPrefixFold(s, prefix)
		}
		s = trimPrefixFold(s, baseHost)
		s = strings.TrimRight(s, "/")
		if s == prev {
			break
		}
	}
	// 접두어 제거가 끝난 뒤에 남은 "/" 를 지운다. "/" 가 없으면 어떤 접두어도 다시 일치하지 않는다.
	s = strings.ReplaceAll(s, "/", "")
	if s == "" {
		return ""
	}

	suffix := constants.CardDefaults.DomainSuffix
	if !hasSuffixFold(s, suffix) {
		s += suffix
	}
	return s
}

// FullURL 은 공개 주소(기본 접두어 + 슬러그 + "/")를 만든다. 슬러그가 비면 빈 문자열.
func FullURL(slug string) string {
	if slug == "" {
		return ""
	}
	return constants.CardDefaults.BaseURLPrefix + slug + "/"
}

// SlugFromName 은 슬러그 입력이 없을 때 이름에서 슬러그를 만든다.
func SlugFromName(name string) string {
	return Slug(strings.Join(strings.Fields(name), ""))
}

// TrimSuffix 는 슬러그에서 도메인 접미사를 뗀 이름 부분이다.
func TrimSuffix(slug string) string {
	suffix := constants.CardDefaults.DomainSuffix
	if hasSuffixFold(slug, suffix) {
		return slug[:len(slug)-len(suffix)]
	}
	return slug
}

func dropUnsafeRune(r rune) rune {
	switch {
	case unicode.IsSpace(r), unicode.IsControl(r), unicode.Is(unicode.Cf, r):
		return -1
	case r == unicode.ReplacementChar, strings.ContainsRune(unsafeSlugRunes, r):
		return -1
	}
	return r
}

// baseHostPrefix: "https://tanhoangarc.github.io/" -> "tanhoangarc.github.io/"
func baseHostPrefix() string {
	base := constants.CardDefaults.BaseURLPrefix
	for _, prefix := range protocolPrefixes {
		base = trimPrefixFold(base, prefix)
	}
	return base
}

func trimPrefixFold(s, prefix string) string {
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return s[len(prefix):]
	}
	return s
}

func hasSuffixFold(s, suffix string) bool {
	return len(s) >= len(suffix) && strings.EqualFold(s[len(s)-len(suffix):], suffix)
}
