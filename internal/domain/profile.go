package domain

// ProfileStatus 는 카드 게시 상태다.
type ProfileStatus string

// ProfileStatus 상수 목록.
const (
	ProfileStatusActive      ProfileStatus = "active"
	ProfileStatusMaintenance ProfileStatus = "maintenance"
)

// IsValid 는 알려진 상태인지 확인한다.
func (s ProfileStatus) IsValid() bool {
	switch s {
	case ProfileStatusActive, ProfileStatusMaintenance:
		return true
	default:
		return false
	}
}

// Profile: 한 사람의 디지털 명함 레코드.
// 영문 필드는 저장 시점에 비워둔 채로 유지하고, 베트남어 대체는 컴파일 시점에만 적용한다.
type Profile struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Slug    string `json:"slug" yaml:"slug"`
	FullURL string `json:"fullUrl" yaml:"fullUrl"`

	Visits       int64         `json:"visits" yaml:"visits"`
	Interactions int64         `json:"interactions" yaml:"interactions"`
	LastActive   string        `json:"lastActive" yaml:"lastActive"` // YYYY-MM-DD
	Status       ProfileStatus `json:"status" yaml:"status"`

	Title         string `json:"title,omitempty" yaml:"title,omitempty"`
	TitleEn       string `json:"titleEn,omitempty" yaml:"titleEn,omitempty"`
	Bio           string `json:"bio,omitempty" yaml:"bio,omitempty"`
	BioEn         string `json:"bioEn,omitempty" yaml:"bioEn,omitempty"`
	HeaderTitleVi string `json:"headerTitleVi,omitempty" yaml:"headerTitleVi,omitempty"`
	HeaderTitleEn string `json:"headerTitleEn,omitempty" yaml:"headerTitleEn,omitempty"`
	FooterRoleVi  string `json:"footerRoleVi,omitempty" yaml:"footerRoleVi,omitempty"`
	FooterRoleEn  string `json:"footerRoleEn,omitempty" yaml:"footerRoleEn,omitempty"`

	PhoneNumber string `json:"phoneNumber,omitempty" yaml:"phoneNumber,omitempty"`
	ZaloNumber  string `json:"zaloNumber,omitempty" yaml:"zaloNumber,omitempty"`

	AvatarURL string `json:"avatarUrl,omitempty" yaml:"avatarUrl,omitempty"`
	CoverURL  string `json:"coverUrl,omitempty" yaml:"coverUrl,omitempty"`
	MainQRURL string `json:"mainQrUrl,omitempty" yaml:"mainQrUrl,omitempty"`

	SocialLinks []SocialLink `json:"socialLinks" yaml:"socialLinks"`
	Projects    []Project    `json:"projects" yaml:"projects"`
}

// SocialLink: 표시 순서가 곧 슬라이스 순서다.
type SocialLink struct {
	ID         string   `json:"id" yaml:"id"`
	Platform   Platform `json:"platform" yaml:"platform"`
	Label      string   `json:"label" yaml:"label"`
	URL        string   `json:"url" yaml:"url"`
	IconURL    string   `json:"iconUrl,omitempty" yaml:"iconUrl,omitempty"`
	QRImageURL string   `json:"qrImageUrl,omitempty" yaml:"qrImageUrl,omitempty"`
}

// Project 는 카드 하단의 포트폴리오 항목이다.
type Project struct {
	ID              string   `json:"id" yaml:"id"`
	Name            string   `json:"name" yaml:"name"`
	Description     string   `json:"description,omitempty" yaml:"description,omitempty"`
	URL             string   `json:"url,omitempty" yaml:"url,omitempty"`
	ImageURL        string   `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty"`
	DetailImageURLs []string `json:"detailImageUrls,omitempty" yaml:"detailImageUrls,omitempty"`
}

// Clone 은 슬라이스까지 복사한 사본을 반환한다.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	out := *p
	out.SocialLinks = append([]SocialLink(nil), p.SocialLinks...)
	out.Projects = make([]Project, len(p.Projects))
	for i, project := range p.Projects {
		project.DetailImageURLs = append([]string(nil), project.DetailImageURLs...)
		out.Projects[i] = project
	}
	return &out
}
