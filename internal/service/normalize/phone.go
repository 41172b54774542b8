package normalize

import (
	"strings"

	"github.com/TanHoangarc/Admin/internal/constants"
)

// Digits 는 ASCII 숫자만 남긴다.
func Digits(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		if c := raw[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Phone: 국제 형식(+84...)으로 전화번호를 정규화한다.
//   - 국가 코드로 시작하면 "+" 만 붙인다
//   - 선행 0 은 "+84" 로 치환한다
//   - 그 외에는 "+84" 를 앞에 붙인다
//
// 숫자가 하나도 없으면 빈 문자열을 반환한다.
func Phone(raw string) string {
	digits := Digits(raw)
	if digits == "" {
		return ""
	}

	cc := constants.CardDefaults.CountryCode
	switch {
	case strings.HasPrefix(digits, cc):
		return "+" + digits
	case strings.HasPrefix(digits, "0"):
		return "+" + cc + digits[1:]
	default:
		return "+" + cc + digits
	}
}

// ContactID: 메신저 딥링크에 쓰는 연락처 식별자. 잘로 번호의 숫자, 없으면 전화번호의 숫자.
func ContactID(zaloNumber, phoneNumber string) string {
	if id := Digits(zaloNumber); id != "" {
		return id
	}
	return Digits(phoneNumber)
}
