package normalize

import (
	stdErrors "errors"
	"strings"
	"testing"

	"github.com/TanHoangarc/Admin/internal/domain"
	"github.com/TanHoangarc/Admin/pkg/errors"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"pasted base url", "https://tanhoangarc.github.io/Andy", "Andy.github.io"},
		{"bare name", "Andy", "Andy.github.io"},
		{"already canonical", "Andy.github.io", "Andy.github.io"},
		{"http and trailing slash", "http://Andy.github.io/", "Andy.github.io"},
		{"mixed case prefix", "HTTPS://TanHoangArc.GitHub.io/Andy/", "Andy.github.io"},
		{"suffix case preserved", "Andy.GITHUB.IO", "Andy.GITHUB.IO"},
		{"nested protocol", "https://http://Andy", "Andy.github.io"},
		{"surrounding spaces", "  Jaden  ", "Jaden.github.io"},
		{"empty", "", ""},
		{"only protocol", "https://", ""},
		{"line breaks dropped", "Andy\r\nEMAIL:x@evil.test\r\nX", "AndyEMAIL:x@evil.testX.github.io"},
		{"inner spaces dropped", "Lâm Ngọc Vũ", "LâmNgọcVũ.github.io"},
		{"path traversal flattened", "../../../tmp/evil", "......tmpevil.github.io"},
		{"query and fragment chars", "An<dy>?x=1#top", "Andyx=1top.github.io"},
		{"zero width", "An\u200bdy", "Andy.github.io"},
		{"only separators", " / \t/", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slug(tt.raw); got != tt.want {
				t.Fatalf("Slug(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func FuzzSlugIdempotent(f *testing.F) {
	seeds := []string{
		"", "Andy", "Andy.github.io", "https://tanhoangarc.github.io/Andy",
		"http://", "///", " https://x/ ", "tanhoangarc.github.io/", "Lâm Ngọc Vũ", "a.GitHub.IO/",
		"ht tps://x", "https:/ /tanhoangarc.github.io/ /A", "a\r\nb", "../..", "\xff\xfe",
	}
	for _, s := range seeds {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, raw string) {
		once := Slug(raw)
		if twice := Slug(once); twice != once {
			t.Fatalf("Slug not idempotent: %q -> %q -> %q", raw, once, twice)
		}
		if strings.ContainsAny(once, "/\\\r\n\t ") {
			t.Fatalf("Slug(%q) = %q keeps a separator or line break", raw, once)
		}
	})
}

func TestFullURL(t *testing.T) {
	if got := FullURL("Andy.github.io"); got != "https://tanhoangarc.github.io/Andy.github.io/" {
		t.Fatalf("unexpected full url: %s", got)
	}
	if got := FullURL(""); got != "" {
		t.Fatalf("expected empty full url, got %s", got)
	}
}

func TestPhone(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"0972133680", "+84972133680"},
		{"84972133680", "+84972133680"},
		{"+84972133680", "+84972133680"},
		{"097 213 3680", "+84972133680"},
		{"(097) 213-3680", "+84972133680"},
		{"972133680", "+84972133680"},
		{"", ""},
		{"abc", ""},
	}

	for _, tt := range tests {
		if got := Phone(tt.raw); got != tt.want {
			t.Fatalf("Phone(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestContactID(t *testing.T) {
	if got := ContactID("0972 133 680", "0909888777"); got != "0972133680" {
		t.Fatalf("expected zalo digits, got %s", got)
	}
	if got := ContactID("", "0909-888-777"); got != "0909888777" {
		t.Fatalf("expected phone fallback, got %s", got)
	}
	if got := ContactID("", ""); got != "" {
		t.Fatalf("expected empty id, got %s", got)
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name   string
		lang   domain.Language
		vi, en string
		want   string
	}{
		{"en falls back to vi", domain.LanguageEn, "X", "", "X"},
		{"en explicit", domain.LanguageEn, "X", "Y", "Y"},
		{"vi falls back to en", domain.LanguageVi, "", "Y", "Y"},
		{"blank counts as empty", domain.LanguageEn, "X", "   ", "X"},
		{"both empty", domain.LanguageVi, "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.lang, tt.vi, tt.en); got != tt.want {
				t.Fatalf("Resolve = %q, want %q", got, tt.want)
			}
		})
	}

	if got := ResolveList(domain.LanguageEn, []string{"a"}, nil); len(got) != 1 || got[0] != "a" {
		t.Fatalf("ResolveList fallback failed: %v", got)
	}
	if got := ResolveList(domain.LanguageVi, nil, nil); got == nil || len(got) != 0 {
		t.Fatalf("ResolveList should return empty non-nil slice, got %#v", got)
	}
}

func TestNormalize_FieldLevelFallback(t *testing.T) {
	p := &domain.Profile{
		Name:    "Andy",
		Slug:    "Andy",
		Title:   "Trưởng nhóm",
		TitleEn: "Team Lead",
		Bio:     "X",
	}

	n, err := Normalize(p)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if n.Content.En.Bio != "X" {
		t.Fatalf("expected english bio fallback to X, got %q", n.Content.En.Bio)
	}
	if n.Content.En.Title != "Team Lead" {
		t.Fatalf("expected explicit english title, got %q", n.Content.En.Title)
	}
	if n.Content.Vi.DisplayName != "Andy" || n.Content.En.DisplayName != "Andy" {
		t.Fatalf("expected display name fallback to name, got %+v", n.Content)
	}
	if p.BioEn != "" {
		t.Fatalf("normalize must not mutate the stored record")
	}
}

func TestNormalize_Defaults(t *testing.T) {
	p := &domain.Profile{Name: "Jaden", Slug: "https://tanhoangarc.github.io/Jaden/", PhoneNumber: "0909888777"}

	first, err := Normalize(p)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	second, _ := Normalize(p)

	if first.Avatar != "https://api.dicebear.com/7.x/avataaars/svg?seed=Jaden" {
		t.Fatalf("unexpected avatar placeholder: %s", first.Avatar)
	}
	if first.Avatar != second.Avatar || first.Cover != second.Cover {
		t.Fatalf("placeholders must be deterministic")
	}
	if first.Slug != "Jaden.github.io" || first.FullURL != "https://tanhoangarc.github.io/Jaden.github.io/" {
		t.Fatalf("unexpected slug/fullUrl: %s %s", first.Slug, first.FullURL)
	}
	if first.Phone != "+84909888777" || first.ContactID != "0909888777" {
		t.Fatalf("unexpected contact: %s %s", first.Phone, first.ContactID)
	}
}

func TestNormalize_MissingIdentity(t *testing.T) {
	_, err := Normalize(&domain.Profile{Name: "  ", Slug: "https://"})
	if err == nil {
		t.Fatalf("expected error for empty identity")
	}
	if !stdErrors.Is(err, errors.ErrMissingIdentity) {
		t.Fatalf("expected ErrMissingIdentity, got %v", err)
	}
	if !errors.IsValidation(err) {
		t.Fatalf("expected validation error, got %T", err)
	}
}

func TestNormalize_IdentityFallbacks(t *testing.T) {
	n, err := Normalize(&domain.Profile{Slug: "Tan.github.io"})
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if n.Name != "Tan" {
		t.Fatalf("expected name derived from slug, got %q", n.Name)
	}

	n, err = Normalize(&domain.Profile{Name: "Tan Hoang"})
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if n.Slug != "TanHoang.github.io" {
		t.Fatalf("expected slug derived from name, got %q", n.Slug)
	}
}

func TestNormalize_LinksKeepOrderAndUniqueIDs(t *testing.T) {
	p := &domain.Profile{
		Name: "Andy",
		SocialLinks: []domain.SocialLink{
			{ID: "s1", Platform: domain.PlatformZalo, URL: "0972133680"},
			{ID: "s1", Platform: domain.PlatformEmail, URL: "andy@example.com"},
			{Platform: domain.ParsePlatform("vcb"), QRImageURL: "https://img/qr.png"},
			{ID: "s4", Platform: domain.PlatformFacebook, URL: "facebook.com/andy"},
		},
	}

	n, err := Normalize(p)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}

	wantIDs := []string{"s1", "s1-2", "link-3", "s4"}
	wantHrefs := []string{"https://zalo.me/0972133680", "mailto:andy@example.com", "", "https://facebook.com/andy"}
	for i, link := range n.Links {
		if link.ID != wantIDs[i] {
			t.Fatalf("link %d id = %s, want %s", i, link.ID, wantIDs[i])
		}
		if link.Href != wantHrefs[i] {
			t.Fatalf("link %d href = %s, want %s", i, link.Href, wantHrefs[i])
		}
	}
	if n.Links[2].Platform != domain.PlatformBank || n.Links[2].Label != "Bank" {
		t.Fatalf("unexpected bank link: %+v", n.Links[2])
	}
	if n.Links[0].Icon != domain.PlatformZalo.DefaultIcon() {
		t.Fatalf("expected default zalo icon, got %s", n.Links[0].Icon)
	}
}

func TestLinkHrefEveryPlatform(t *testing.T) {
	for _, p := range domain.AllPlatforms() {
		if got := LinkHref(p, ""); got != "" {
			t.Fatalf("platform %s: empty url should stay empty, got %s", p, got)
		}
		if got := LinkHref(p, "https://example.com/x"); got != "https://example.com/x" {
			t.Fatalf("platform %s: absolute url changed to %s", p, got)
		}
	}
	if got := LinkHref(domain.PlatformMap, "12 Nguyễn Huệ, Quận 1"); !strings.HasPrefix(got, "https://www.google.com/maps/search/") {
		t.Fatalf("unexpected map href: %s", got)
	}
	if got := LinkHref(domain.PlatformWhatsApp, "0972 133 680"); got != "https://wa.me/84972133680" {
		t.Fatalf("unexpected whatsapp href: %s", got)
	}
}

func TestUniqueIDs(t *testing.T) {
	p := &domain.Profile{
		SocialLinks: []domain.SocialLink{{ID: "a"}, {ID: "a"}, {}},
		Projects:    []domain.Project{{}, {ID: "p"}},
	}
	counter := 0
	UniqueIDs(p, func() string {
		counter++
		return "gen" + strings.Repeat("x", counter)
	})

	seen := map[string]bool{}
	for _, l := range p.SocialLinks {
		if l.ID == "" || seen[l.ID] {
			t.Fatalf("duplicate or empty link id: %+v", p.SocialLinks)
		}
		seen[l.ID] = true
	}
	if p.Projects[0].ID == "" || p.Projects[0].ID == p.Projects[1].ID {
		t.Fatalf("unexpected project ids: %+v", p.Projects)
	}
}
