package normalize

import (
	"strings"

	"github.com/TanHoangarc/Admin/internal/domain"
)

// Resolve: 요청 언어 값이 있으면 그 값, 없으면 다른 언어 값, 둘 다 없으면 빈 문자열.
// 필드 단위로 독립 적용한다.
func Resolve(lang domain.Language, vi, en string) string {
	primary, secondary := vi, en
	if lang == domain.LanguageEn {
		primary, secondary = en, vi
	}
	if v := strings.TrimSpace(primary); v != "" {
		return v
	}
	return strings.TrimSpace(secondary)
}

// ResolveList 는 목록형 필드에 같은 규칙을 적용한다. 결과는 항상 새 슬라이스다.
func ResolveList(lang domain.Language, vi, en []string) []string {
	primary, secondary := vi, en
	if lang == domain.LanguageEn {
		primary, secondary = en, vi
	}
	if len(primary) > 0 {
		return append([]string{}, primary...)
	}
	return append([]string{}, secondary...)
}
