package domain

import (
	"strings"

	"github.com/goccy/go-json"
)

// Platform: 소셜 링크 종류. 닫힌 열거형이며 알 수 없는 값은 PlatformOther 로 접힌다.
type Platform string

// Platform 상수 목록.
const (
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
	PlatformTikTok    Platform = "tiktok"
	PlatformZalo      Platform = "zalo"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformWebsite   Platform = "website"
	PlatformWhatsApp  Platform = "whatsapp"
	PlatformWeChat    Platform = "wechat"
	PlatformEmail     Platform = "email"
	PlatformMap       Platform = "map"
	PlatformMomo      Platform = "momo"
	PlatformBank      Platform = "bank"
	PlatformProfile   Platform = "profile"
	PlatformOther     Platform = "other"
)

var allPlatforms = []Platform{
	PlatformFacebook, PlatformInstagram, PlatformTikTok, PlatformZalo,
	PlatformLinkedIn, PlatformWebsite, PlatformWhatsApp, PlatformWeChat,
	PlatformEmail, PlatformMap, PlatformMomo, PlatformBank,
	PlatformProfile, PlatformOther,
}

// AllPlatforms 는 선언 순서대로 모든 플랫폼을 반환한다.
func AllPlatforms() []Platform {
	return append([]Platform(nil), allPlatforms...)
}

// ParsePlatform: 임의 문자열을 플랫폼으로 변환한다. 은행 프리셋(vcb, tcb)은 bank 로 매핑된다.
func ParsePlatform(raw string) Platform {
	key := strings.ToLower(strings.TrimSpace(raw))
	switch key {
	case "vcb", "tcb", "vietcombank", "techcombank":
		return PlatformBank
	}
	for _, p := range allPlatforms {
		if string(p) == key {
			return p
		}
	}
	return PlatformOther
}

func (p Platform) String() string {
	return string(p)
}

// UnmarshalJSON 은 저장소의 레거시 값을 닫힌 열거형으로 정규화한다.
func (p *Platform) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = ParsePlatform(raw)
	return nil
}

// UnmarshalYAML 은 yaml.v3 의 문자열 디코딩 훅이다.
func (p *Platform) UnmarshalYAML(unmarshal func(any) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	*p = ParsePlatform(raw)
	return nil
}

// DefaultLabel 은 라벨이 비었을 때 쓰는 표시 이름이다.
func (p Platform) DefaultLabel() string {
	switch p {
	case PlatformFacebook:
		return "Facebook"
	case PlatformInstagram:
		return "Instagram"
	case PlatformTikTok:
		return "TikTok"
	case PlatformZalo:
		return "Zalo"
	case PlatformLinkedIn:
		return "LinkedIn"
	case PlatformWebsite:
		return "Website"
	case PlatformWhatsApp:
		return "WhatsApp"
	case PlatformWeChat:
		return "WeChat"
	case PlatformEmail:
		return "Email"
	case PlatformMap:
		return "Địa Chỉ"
	case PlatformMomo:
		return "Momo"
	case PlatformBank:
		return "Bank"
	case PlatformProfile:
		return "Profile"
	case PlatformOther:
		return "Link"
	}
	return "Link"
}

// DefaultIcon 은 아이콘 URL 이 비었을 때 쓰는 기본 아이콘이다. 빈 문자열이면 런타임이 기본 글리프를 그린다.
func (p Platform) DefaultIcon() string {
	switch p {
	case PlatformFacebook:
		return "https://i.ibb.co/67VF7N5R/Facebook.png"
	case PlatformInstagram:
		return "https://i.ibb.co/39gCrw9n/Instagram.png"
	case PlatformTikTok:
		return "https://i.ibb.co/cStFGVqG/Tiktok.png"
	case PlatformZalo:
		return "https://i.ibb.co/d4nRhVQV/Zalo.png"
	case PlatformWebsite:
		return "https://i.ibb.co/Gf69QR4R/Website.png"
	case PlatformWhatsApp:
		return "https://i.ibb.co/XxqRB3Qg/Whatsapp.png"
	case PlatformWeChat:
		return "https://i.ibb.co/Zz41gSrk/Wechat.png"
	case PlatformEmail:
		return "https://i.ibb.co/nqyMXyNM/Email.png"
	case PlatformMap:
		return "https://i.ibb.co/7dTZHSwV/Map.png"
	case PlatformMomo:
		return "https://i.ibb.co/KpRgSv04/Momo.png"
	case PlatformProfile:
		return "https://i.ibb.co/VY01h09d/Profile.png"
	case PlatformLinkedIn, PlatformBank, PlatformOther:
		return ""
	}
	return ""
}

// Preset: 관리 화면의 "링크 추가" 메뉴 항목.
type Preset struct {
	ID       string   `json:"id"`
	Platform Platform `json:"platform"`
	Label    string   `json:"label"`
	IconURL  string   `json:"iconUrl"`
}

// Presets 는 관리 화면에 노출되는 링크 프리셋 목록이다.
func Presets() []Preset {
	presets := []Preset{
		{ID: "zalo", Platform: PlatformZalo},
		{ID: "whatsapp", Platform: PlatformWhatsApp},
		{ID: "wechat", Platform: PlatformWeChat},
		{ID: "email", Platform: PlatformEmail},
		{ID: "map", Platform: PlatformMap},
		{ID: "website", Platform: PlatformWebsite},
		{ID: "profile", Platform: PlatformProfile},
		{ID: "facebook", Platform: PlatformFacebook},
		{ID: "tiktok", Platform: PlatformTikTok},
		{ID: "instagram", Platform: PlatformInstagram},
		{ID: "momo", Platform: PlatformMomo},
		{ID: "vcb", Platform: PlatformBank, Label: "VCB", IconURL: "https://i.ibb.co/WNDG8rdx/Vietcombank.png"},
		{ID: "tcb", Platform: PlatformBank, Label: "TCB", IconURL: "https://i.ibb.co/FktVzW2z/Tcb.png"},
	}
	for i := range presets {
		if presets[i].Label == "" {
			presets[i].Label = presets[i].Platform.DefaultLabel()
		}
		if presets[i].IconURL == "" {
			presets[i].IconURL = presets[i].Platform.DefaultIcon()
		}
	}
	return presets
}
