package compiler

import (
	"context"
	_ "embed"
	"io"

	"github.com/a-h/templ"

	"github.com/TanHoangarc/Admin/internal/domain"
	"github.com/TanHoangarc/Admin/internal/service/normalize"
	"github.com/TanHoangarc/Admin/internal/util"
)

// ConfigElementID 는 설정 JSON 을 담는 script 요소의 id 다.
const ConfigElementID = "card-config"

const maxDescriptionRunes = 160

//go:embed assets/runtime.js
var runtimeJS string

//go:embed assets/card.css
var cardCSS string

// document: 레이아웃에 본문을 자식으로 넘겨 문서 전체를 만든다.
func (c *Compiler) document(n *normalize.Normalized, cfg domain.CardConfig) templ.Component {
	body := templ.Join(
		appMount(),
		c.fallback(cfg),
		templ.JSONScript(ConfigElementID, cfg),
		inline("script", runtimeJS),
	)
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return layout(head(n, cfg)).Render(templ.WithChildren(ctx, body), w)
	})
}

func layout(headContent templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		children := templ.GetChildren(ctx)
		ctx = templ.ClearChildren(ctx)
		if _, err := io.WriteString(w, "<!DOCTYPE html>\n"); err != nil {
			return err
		}
		return el("html", attrs("lang", string(domain.LanguageVi)),
			el("head", nil, headContent),
			el("body", nil, children),
		).Render(ctx, w)
	})
}

func head(n *normalize.Normalized, cfg domain.CardConfig) templ.Component {
	vi := cfg.Content.Vi
	description := vi.Bio
	if description == "" {
		description = "Personal NFC Profile"
	}
	return templ.Join(
		void("meta", attrs("charset", "UTF-8")),
		void("meta", attrs("name", "viewport", "content", "width=device-width, initial-scale=1.0")),
		el("title", nil, text("NCV Card - "+n.Name)),
		void("meta", attrs("name", "description", "content", util.TruncateString(description, maxDescriptionRunes))),
		void("meta", attrs("property", "og:title", "content", vi.DisplayName)),
		when(cfg.Avatar != "", func() templ.Component {
			return void("meta", attrs("property", "og:image", "content", cfg.Avatar))
		}),
		when(cfg.PublicURL != "", func() templ.Component {
			return void("link", attrs("rel", "canonical", "href", cfg.PublicURL))
		}),
		inline("style", cardCSS),
	)
}

// appMount: 런타임이 화면을 그리는 자리
func appMount() templ.Component {
	return el("div", attrs("id", "app", "class", "card", "aria-live", "polite"))
}

// fallback: 스크립트가 꺼진 환경을 위한 베트남어 정적 렌더링.
func (c *Compiler) fallback(cfg domain.CardConfig) templ.Component {
	vi := cfg.Content.Vi
	ui := cfg.UI[domain.LanguageVi]

	return el("noscript", nil,
		el("div", attrs("class", "card static"),
			el("p", attrs("class", "notice"), text(ui["no_script"])),
			when(cfg.Cover != "", func() templ.Component {
				return void("img", attrs("class", "cover", "alt", "", "src", cfg.Cover))
			}),
			when(cfg.Avatar != "", func() templ.Component {
				return void("img", attrs("class", "avatar", "src", cfg.Avatar, "alt", vi.DisplayName))
			}),
			el("h1", nil, text(vi.DisplayName)),
			when(vi.Title != "", func() templ.Component {
				return el("p", attrs("class", "title"), text(vi.Title))
			}),
			when(vi.Bio != "", func() templ.Component {
				return el("p", attrs("class", "bio"), text(vi.Bio))
			}),
			when(cfg.Contact.Phone != "", func() templ.Component {
				return el("a", attrs("class", "btn primary", "href", linkURL("tel:"+cfg.Contact.Phone)), text(ui["call"]))
			}),
			when(len(cfg.Links) > 0, func() templ.Component {
				return staticLinks(cfg.Links)
			}),
			when(vi.FooterRole != "", func() templ.Component {
				return el("p", attrs("class", "footer-role"), text(vi.FooterRole))
			}),
		),
	)
}

func staticLinks(links []domain.CardLink) templ.Component {
	items := make([]templ.Component, 0, len(links))
	for _, link := range links {
		if link.Href == "" {
			items = append(items, el("li", nil, text(link.Label)))
			continue
		}
		items = append(items, el("li", nil,
			el("a", attrs("rel", "noopener noreferrer", "target", "_blank", "href", link.Href), text(link.Label)),
		))
	}
	return el("ul", attrs("class", "links"), items...)
}

// el 은 여는 태그, 자식, 닫는 태그 순으로 출력한다. 속성 값은 templ 이 이스케이프한다.
func el(tag string, a templ.OrderedAttributes, children ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := openTag(ctx, w, tag, a); err != nil {
			return err
		}
		for _, child := range children {
			if err := child.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</"+tag+">\n")
		return err
	})
}

// void 는 닫는 태그가 없는 요소다.
func void(tag string, a templ.OrderedAttributes) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := openTag(ctx, w, tag, a); err != nil {
			return err
		}
		_, err := io.WriteString(w, "\n")
		return err
	})
}

func openTag(ctx context.Context, w io.Writer, tag string, a templ.OrderedAttributes) error {
	if _, err := io.WriteString(w, "<"+tag); err != nil {
		return err
	}
	if err := templ.RenderAttributes(ctx, w, a); err != nil {
		return err
	}
	_, err := io.WriteString(w, ">")
	return err
}

func text(s string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, templ.EscapeString(s))
		return err
	})
}

// inline: 내장 자산만 받는다. 프로필 값은 절대 넘기지 않는다.
func inline(tag, asset string) templ.Component {
	return el(tag, nil, templ.Raw("\n"+asset))
}

func when(ok bool, build func() templ.Component) templ.Component {
	if !ok {
		return templ.NopComponent
	}
	return build()
}

// attrs: "키", "값" 쌍을 입력 순서대로 담는다.
func attrs(kv ...string) templ.OrderedAttributes {
	out := make(templ.OrderedAttributes, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, templ.KeyValue[string, any]{Key: kv[i], Value: kv[i+1]})
	}
	return out
}
