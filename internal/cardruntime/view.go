package cardruntime

import (
	"strings"

	"github.com/TanHoangarc/Admin/internal/domain"
)

// Attr 는 노드 속성이다. 순서가 보존된다.
type Attr struct {
	Key   string
	Value string
}

// Node 는 뷰 트리 노드다. Text 는 textContent 로만 출력된다.
type Node struct {
	Tag      string
	Attrs    []Attr
	Text     string
	Children []*Node
}

func el(tag string, attrs []Attr, children ...*Node) *Node {
	n := &Node{Tag: tag, Attrs: attrs}
	for _, c := range children {
		if c != nil {
			n.Children = append(n.Children, c)
		}
	}
	return n
}

func textEl(tag, text string, attrs ...Attr) *Node {
	return &Node{Tag: tag, Attrs: attrs, Text: text}
}

func a(key, value string) Attr { return Attr{Key: key, Value: value} }

// Attr 는 속성 값을 반환한다.
func (n *Node) Attr(key string) string {
	for _, at := range n.Attrs {
		if at.Key == key {
			return at.Value
		}
	}
	return ""
}

// Walk 는 전위 순회한다. fn 이 false 를 반환하면 중단한다.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if n == nil {
		return true
	}
	if !fn(n) {
		return false
	}
	for _, c := range n.Children {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

// FindAll 은 조건에 맞는 노드를 문서 순서로 모은다.
func (n *Node) FindAll(match func(*Node) bool) []*Node {
	var out []*Node
	n.Walk(func(x *Node) bool {
		if match(x) {
			out = append(out, x)
		}
		return true
	})
	return out
}

// Find 는 첫 번째로 일치하는 노드를 반환한다.
func (n *Node) Find(match func(*Node) bool) *Node {
	var found *Node
	n.Walk(func(x *Node) bool {
		if match(x) {
			found = x
			return false
		}
		return true
	})
	return found
}

// TextContent 는 하위 텍스트를 이어 붙인다.
func (n *Node) TextContent() string {
	var b strings.Builder
	n.Walk(func(x *Node) bool {
		b.WriteString(x.Text)
		return true
	})
	return b.String()
}

// ByClass 는 class 속성 매처다.
func ByClass(class string) func(*Node) bool {
	return func(n *Node) bool {
		for _, c := range strings.Fields(n.Attr("class")) {
			if c == class {
				return true
			}
		}
		return false
	}
}

// ByTag 는 태그 매처다.
func ByTag(tag string) func(*Node) bool {
	return func(n *Node) bool { return n.Tag == tag }
}

// Render 는 순수 뷰 함수다. 같은 설정과 상태는 같은 트리를 만든다.
func Render(cfg domain.CardConfig, s State) *Node {
	c := cfg.Content.For(s.Lang)
	t := func(key string) string { return uiText(cfg, s.Lang, key) }

	var actions []*Node
	if cfg.Contact.Phone != "" {
		actions = append(actions, textEl("a", t("call"), a("class", "btn primary"), a("href", "tel:"+cfg.Contact.Phone)))
	}
	actions = append(actions, textEl("button", t("save_contact"), a("class", "btn"), a("data-action", "vcard")))
	if cfg.Contact.ID != "" {
		actions = append(actions, textEl("button", t("consult"), a("class", "btn"), a("data-action", "consult")))
	}
	if cfg.MainQR != "" {
		actions = append(actions, textEl("button", t("show_qr"), a("class", "btn"), a("data-action", "qr")))
	}

	var links *Node
	if len(cfg.Links) > 0 {
		items := make([]*Node, 0, len(cfg.Links))
		for _, link := range cfg.Links {
			items = append(items, linkNode(link, t))
		}
		links = el("ul", []Attr{a("class", "links"), a("aria-label", t("links"))}, items...)
	}

	var projects *Node
	if len(cfg.Projects) > 0 {
		items := make([]*Node, 0, len(cfg.Projects))
		for _, p := range cfg.Projects {
			items = append(items, projectNode(p))
		}
		projects = el("section", nil,
			textEl("h3", t("projects"), a("class", "section-title")),
			el("div", []Attr{a("class", "projects")}, items...),
		)
	}

	root := el("div", []Attr{a("id", "app"), a("class", "card"), a("lang", string(s.Lang))},
		el("div", []Attr{a("class", "cover-wrap")},
			optional(cfg.Cover != "", func() *Node { return el("img", []Attr{a("class", "cover"), a("src", cfg.Cover)}) }),
			textEl("button", t("lang_badge"), a("class", "lang-toggle"), a("title", t("toggle_hint"))),
		),
		el("div", []Attr{a("class", "body")},
			optional(cfg.Avatar != "", func() *Node {
				return el("img", []Attr{a("class", "avatar"), a("src", cfg.Avatar), a("alt", c.DisplayName)})
			}),
			textEl("h1", c.DisplayName),
			optional(c.Title != "", func() *Node { return textEl("p", c.Title, a("class", "title")) }),
			optional(c.Bio != "", func() *Node { return textEl("p", c.Bio, a("class", "bio")) }),
			el("div", []Attr{a("class", "actions")}, actions...),
			links,
			projects,
			el("div", []Attr{a("class", "footer")},
				optional(c.FooterRole != "", func() *Node { return textEl("p", c.FooterRole, a("class", "footer-role")) }),
				textEl("p", t("footer")),
			),
		),
	)

	if s.Image.Open {
		root.Children = append(root.Children, imageModalNode(s.Image, t))
	}
	if s.Scanner.Open {
		root.Children = append(root.Children, scannerModalNode(s.Scanner, t))
	}
	if s.Consult.Open {
		root.Children = append(root.Children, consultModalNode(s.Consult, t))
	}
	return root
}

func optional(ok bool, build func() *Node) *Node {
	if !ok {
		return nil
	}
	return build()
}

func linkNode(link domain.CardLink, t func(string) string) *Node {
	var icon *Node
	if link.Icon != "" {
		icon = el("img", []Attr{a("class", "icon"), a("src", link.Icon)})
	} else {
		icon = textEl("span", "\U0001F517", a("class", "icon"), a("aria-hidden", "true"))
	}
	var qr *Node
	if link.QR != "" {
		qr = textEl("button", t("view_qr"), a("class", "qr-chip"), a("data-qr", link.QR))
	}
	inner := []*Node{icon, textEl("span", link.Label, a("class", "label")), qr}

	attrs := []Attr{a("class", "link"), a("data-platform", string(link.Platform))}
	tag := "div"
	if link.Href != "" {
		tag = "a"
		attrs = append(attrs, a("href", link.Href), a("target", "_blank"), a("rel", "noopener noreferrer"))
	}
	return el("li", nil, el(tag, attrs, inner...))
}

func projectNode(p domain.CardProject) *Node {
	var details *Node
	if len(p.Details) > 0 {
		imgs := make([]*Node, 0, len(p.Details))
		for _, src := range p.Details {
			imgs = append(imgs, el("img", []Attr{a("src", src), a("loading", "lazy")}))
		}
		details = el("div", []Attr{a("class", "details")}, imgs...)
	}
	title := textEl("h4", p.Name)
	if p.URL != "" {
		title = el("h4", nil, textEl("a", p.Name, a("href", p.URL), a("target", "_blank"), a("rel", "noopener noreferrer")))
	}
	return el("article", []Attr{a("class", "project")},
		optional(p.Image != "", func() *Node {
			return el("img", []Attr{a("class", "main"), a("src", p.Image), a("alt", p.Name)})
		}),
		el("div", []Attr{a("class", "content")},
			title,
			optional(p.Description != "", func() *Node { return textEl("p", p.Description) }),
			details,
		),
	)
}

func overlay(children ...*Node) *Node {
	return el("div", []Attr{a("class", "overlay")},
		el("div", []Attr{a("class", "modal"), a("role", "dialog"), a("aria-modal", "true")}, children...),
	)
}

func imageModalNode(m ImageModal, t func(string) string) *Node {
	var scan *Node
	if m.Scannable {
		scan = textEl("button", t("scan_qr"), a("class", "btn"), a("data-action", "scan"))
	}
	return overlay(
		el("img", []Attr{a("class", "full"), a("src", m.Src), a("alt", m.Caption)}),
		optional(m.Caption != "", func() *Node { return textEl("p", m.Caption, a("class", "status")) }),
		el("div", []Attr{a("class", "row")}, scan, textEl("button", t("close"), a("class", "btn"), a("data-action", "close"))),
	)
}

func scannerModalNode(m ScannerModal, t func(string) string) *Node {
	var body []*Node
	switch m.Status {
	case ScannerStreaming:
		body = []*Node{
			el("video", []Attr{a("playsinline", ""), a("muted", "")}),
			textEl("p", t("scanner.streaming"), a("class", "status")),
		}
	case ScannerDenied:
		body = []*Node{textEl("p", t("scanner.denied"), a("class", "error"), a("role", "alert"))}
	default:
		body = []*Node{textEl("p", t("scanner.requesting"), a("class", "status"))}
	}
	children := append([]*Node{textEl("h3", t("scanner.title"))}, body...)
	children = append(children, el("div", []Attr{a("class", "row")}, textEl("button", t("close"), a("class", "btn"), a("data-action", "close"))))
	return overlay(children...)
}

func consultModalNode(m ConsultModal, t func(string) string) *Node {
	editable := m.Status == ConsultEditing
	field := func(name, value string) *Node {
		attrs := []Attr{a("name", name), a("value", value)}
		if !editable {
			attrs = append(attrs, a("disabled", ""))
		}
		tag := "input"
		if name == "message" {
			tag = "textarea"
		}
		return el("label", nil, textEl("span", t("consult_form."+name)), el(tag, attrs))
	}

	var status *Node
	switch m.Status {
	case ConsultSubmitting:
		status = textEl("p", t("consult_form.submitting"), a("class", "status"), a("role", "status"))
	case ConsultCopied:
		status = textEl("p", t("consult_form.copied"), a("class", "status"), a("role", "status"))
	case ConsultCopyFailed:
		status = textEl("p", t("consult_form.copy_failed"), a("class", "status"), a("role", "status"))
	}

	submit := []Attr{a("type", "submit"), a("class", "btn primary")}
	if !editable {
		submit = append(submit, a("disabled", ""))
	}
	return overlay(
		textEl("h3", t("consult_form.title")),
		el("form", nil,
			field("name", m.Fields.Name),
			field("phone", m.Fields.Phone),
			field("service", m.Fields.Service),
			field("message", m.Fields.Message),
			status,
			el("div", []Attr{a("class", "row")},
				&Node{Tag: "button", Attrs: submit, Text: t("consult_form.submit")},
				textEl("button", t("close"), a("class", "btn"), a("data-action", "close")),
			),
		),
	)
}
