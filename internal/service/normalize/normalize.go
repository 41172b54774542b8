// Package normalize 는 프로필 레코드를 컴파일 가능한 정규형으로 바꾸는 순수 함수 모음이다.
package normalize

import (
	"strconv"
	"strings"

	"github.com/TanHoangarc/Admin/internal/domain"
	"github.com/TanHoangarc/Admin/pkg/errors"
)

// Normalized: 컴파일러 입력. 모든 기본값과 언어 대체가 이미 적용되어 있다.
type Normalized struct {
	ID      string
	Name    string
	Slug    string
	FullURL string

	Phone     string
	ContactID string

	Avatar string
	Cover  string
	MainQR string

	Content  domain.CardContent
	Links    []domain.CardLink
	Projects []domain.CardProject
}

// Normalize: 프로필 스냅샷을 정규화한다. 입력은 변경하지 않는다.
// 이름과 슬러그가 모두 비어 있을 때만 에러를 반환한다.
func Normalize(p *domain.Profile) (*Normalized, error) {
	if p == nil {
		return nil, errors.NewValidationError("profile", "profile is nil", errors.ErrMissingIdentity)
	}

	name := strings.TrimSpace(p.Name)
	slug := Slug(p.Slug)
	if name == "" && slug == "" {
		return nil, errors.NewValidationError("name", "name or slug is required", errors.ErrMissingIdentity)
	}
	if slug == "" {
		slug = SlugFromName(name)
	}
	if name == "" {
		name = TrimSuffix(slug)
	}

	n := &Normalized{
		ID:        p.ID,
		Name:      name,
		Slug:      slug,
		FullURL:   FullURL(slug),
		Phone:     Phone(p.PhoneNumber),
		ContactID: ContactID(p.ZaloNumber, p.PhoneNumber),
		Avatar:    Asset(p.AvatarURL, DefaultAvatar(name)),
		Cover:     Asset(p.CoverURL, DefaultCover(name)),
		MainQR:    strings.TrimSpace(p.MainQRURL),
		Content: domain.CardContent{
			Vi: localized(domain.LanguageVi, name, p),
			En: localized(domain.LanguageEn, name, p),
		},
		Links:    links(p.SocialLinks),
		Projects: projects(p.Projects),
	}
	return n, nil
}

func localized(lang domain.Language, name string, p *domain.Profile) domain.LocalizedContent {
	display := Resolve(lang, p.HeaderTitleVi, p.HeaderTitleEn)
	if display == "" {
		display = name
	}
	return domain.LocalizedContent{
		DisplayName: display,
		Title:       Resolve(lang, p.Title, p.TitleEn),
		Bio:         Resolve(lang, p.Bio, p.BioEn),
		FooterRole:  Resolve(lang, p.FooterRoleVi, p.FooterRoleEn),
	}
}

func links(in []domain.SocialLink) []domain.CardLink {
	out := make([]domain.CardLink, 0, len(in))
	ids := newIDSet("link")
	for i, link := range in {
		platform := domain.ParsePlatform(string(link.Platform))
		label := strings.TrimSpace(link.Label)
		if label == "" {
			label = platform.DefaultLabel()
		}
		out = append(out, domain.CardLink{
			ID:       ids.assign(link.ID, i),
			Platform: platform,
			Label:    label,
			Href:     LinkHref(platform, link.URL),
			Icon:     Asset(link.IconURL, platform.DefaultIcon()),
			QR:       strings.TrimSpace(link.QRImageURL),
		})
	}
	return out
}

func projects(in []domain.Project) []domain.CardProject {
	out := make([]domain.CardProject, 0, len(in))
	ids := newIDSet("project")
	for i, project := range in {
		details := make([]string, 0, len(project.DetailImageURLs))
		for _, u := range project.DetailImageURLs {
			if u = strings.TrimSpace(u); u != "" {
				details = append(details, u)
			}
		}
		out = append(out, domain.CardProject{
			ID:          ids.assign(project.ID, i),
			Name:        strings.TrimSpace(project.Name),
			Description: strings.TrimSpace(project.Description),
			URL:         WebURL(project.URL),
			Image:       strings.TrimSpace(project.ImageURL),
			Details:     details,
		})
	}
	return out
}

// idSet: 빈 id 는 위치 기반 id 로, 중복 id 는 접미사로 구분한다.
type idSet struct {
	prefix string
	seen   map[string]struct{}
}

func newIDSet(prefix string) *idSet {
	return &idSet{prefix: prefix, seen: make(map[string]struct{})}
}

func (s *idSet) assign(id string, index int) string {
	id = strings.TrimSpace(id)
	if id == "" {
		id = s.prefix + "-" + strconv.Itoa(index+1)
	}
	candidate := id
	for n := 2; ; n++ {
		if _, dup := s.seen[candidate]; !dup {
			break
		}
		candidate = id + "-" + strconv.Itoa(n)
	}
	s.seen[candidate] = struct{}{}
	return candidate
}

// UniqueIDs 는 저장 전 프로필의 링크/프로젝트 id 를 고유하게 맞춘다. 입력 슬라이스를 직접 수정한다.
func UniqueIDs(p *domain.Profile, newID func() string) {
	if p == nil {
		return
	}
	linkIDs := newIDSet("link")
	for i := range p.SocialLinks {
		if strings.TrimSpace(p.SocialLinks[i].ID) == "" && newID != nil {
			p.SocialLinks[i].ID = newID()
		}
		p.SocialLinks[i].ID = linkIDs.assign(p.SocialLinks[i].ID, i)
	}
	projectIDs := newIDSet("project")
	for i := range p.Projects {
		if strings.TrimSpace(p.Projects[i].ID) == "" && newID != nil {
			p.Projects[i].ID = newID()
		}
		p.Projects[i].ID = projectIDs.assign(p.Projects[i].ID, i)
	}
}
