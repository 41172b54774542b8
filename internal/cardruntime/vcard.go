package cardruntime

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/TanHoangarc/Admin/internal/domain"
)

// VCardMIME 는 내보내기 파일의 MIME 타입이다.
const VCardMIME = "text/vcard;charset=utf-8"

const crlf = "\r\n"

var vcardEscaper = strings.NewReplacer(
	`\`, `\\`,
	",", `\,`,
	";", `\;`,
	"\r\n", `\n`,
	"\n", `\n`,
	"\r", `\n`,
)

// BuildVCard: 설정 객체로 vCard 3.0 레코드를 만든다. 줄 끝은 CRLF 이다.
// TEL 과 URL 줄은 값이 있을 때만 들어간다.
func BuildVCard(cfg domain.CardConfig, lang domain.Language) string {
	name := vcardEscaper.Replace(cfg.Content.For(lang).DisplayName)

	var b strings.Builder
	b.WriteString("BEGIN:VCARD" + crlf)
	b.WriteString("VERSION:3.0" + crlf)
	b.WriteString("FN:" + name + crlf)
	b.WriteString("N:;" + name + ";;;" + crlf)
	if phone := uriValue(cfg.Contact.Phone); phone != "" {
		b.WriteString("TEL;TYPE=CELL:" + phone + crlf)
	}
	if u := uriValue(cfg.PublicURL); u != "" {
		b.WriteString("URL:" + u + crlf)
	}
	b.WriteString("END:VCARD" + crlf)
	return b.String()
}

// uriValue: URI 값은 역슬래시 이스케이프 대상이 아니므로 줄을 끊을 수 있는 문자를 지운다.
func uriValue(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || unicode.In(r, unicode.Zl, unicode.Zp) {
			return -1
		}
		return r
	}, s)
}

// VCardFileName: 표시 이름을 ASCII 로 접고 공백을 "_" 로 바꾼 .vcf 파일명.
// "Lâm Ngọc Vũ" -> "Lam_Ngoc_Vu.vcf"
func VCardFileName(displayName string) string {
	// Chain 은 상태를 가지므로 호출마다 새로 만든다.
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, displayName)
	if err != nil {
		folded = displayName
	}
	folded = strings.NewReplacer("đ", "d", "Đ", "D").Replace(folded)

	var b strings.Builder
	for _, r := range strings.TrimSpace(folded) {
		switch {
		case r == ' ':
			b.WriteByte('_')
		case r < 0x20 || r == 0x7f || strings.ContainsRune(`/\:*?"<>|`, r):
			continue
		default:
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "contact.vcf"
	}
	return b.String() + ".vcf"
}
