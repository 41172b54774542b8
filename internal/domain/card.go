package domain

// Language 는 카드 표시 언어다.
type Language string

// Language 상수 목록.
const (
	LanguageVi Language = "vi"
	LanguageEn Language = "en"
)

// Toggle 은 반대 언어를 반환한다.
func (l Language) Toggle() Language {
	if l == LanguageEn {
		return LanguageVi
	}
	return LanguageEn
}

// CardConfig: 아티팩트에 JSON 으로 삽입되는 설정 객체.
// 런타임은 이 값만 읽으며 정규화를 다시 수행하지 않는다.
type CardConfig struct {
	Name      string `json:"name"`
	PublicURL string `json:"publicUrl,omitempty"`

	Avatar string `json:"avatar"`
	Cover  string `json:"cover"`
	MainQR string `json:"mainQr,omitempty"`

	Contact CardContact `json:"contact"`
	Content CardContent `json:"content"`

	Links    []CardLink    `json:"links"`
	Projects []CardProject `json:"projects"`

	// UI: 언어별 고정 문구 (키 정렬로 직렬화되므로 출력이 결정적이다)
	UI map[Language]map[string]string `json:"ui"`

	RedirectDelayMs int64 `json:"redirectDelayMs"`
}

// CardContact: 전화와 메신저 딥링크 재료. 딥링크 자체는 런타임이 이동 시점에 조립한다.
type CardContact struct {
	Phone           string `json:"phone,omitempty"`
	ID              string `json:"id,omitempty"`
	MessagingDomain string `json:"messagingDomain"`
}

// CardContent 는 두 언어 모두 대체 규칙이 적용된 본문이다.
type CardContent struct {
	Vi LocalizedContent `json:"vi"`
	En LocalizedContent `json:"en"`
}

// For 는 언어에 맞는 본문을 반환한다.
func (c CardContent) For(lang Language) LocalizedContent {
	if lang == LanguageEn {
		return c.En
	}
	return c.Vi
}

// LocalizedContent 는 한 언어로 해석된 표시 필드 묶음이다.
type LocalizedContent struct {
	DisplayName string `json:"displayName"`
	Title       string `json:"title"`
	Bio         string `json:"bio"`
	FooterRole  string `json:"footerRole"`

	// VCardFileName 은 컴파일러가 채운다.
	VCardFileName string `json:"vcardFileName,omitempty"`
}

// CardLink 는 렌더링 준비가 끝난 소셜 링크다.
type CardLink struct {
	ID       string   `json:"id"`
	Platform Platform `json:"platform"`
	Label    string   `json:"label"`
	Href     string   `json:"href,omitempty"`
	Icon     string   `json:"icon,omitempty"`
	QR       string   `json:"qr,omitempty"`
}

// CardProject 는 렌더링 준비가 끝난 프로젝트 항목이다.
type CardProject struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	URL         string   `json:"url,omitempty"`
	Image       string   `json:"image,omitempty"`
	Details     []string `json:"details,omitempty"`
}
