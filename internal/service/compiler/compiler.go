// Package compiler 는 정규화된 프로필을 단일 HTML 아티팩트로 컴파일한다.
//
// 출력은 입력에만 의존한다. 시각, 난수, 맵 순회 순서가 결과에 섞이지 않으므로
// 같은 입력은 바이트 단위로 같은 문서를 만든다.
package compiler

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"slices"
	"strconv"
	"time"

	"github.com/TanHoangarc/Admin/internal/cardruntime"
	"github.com/TanHoangarc/Admin/internal/constants"
	"github.com/TanHoangarc/Admin/internal/domain"
	"github.com/TanHoangarc/Admin/internal/service/messages"
	"github.com/TanHoangarc/Admin/internal/service/normalize"
	"github.com/TanHoangarc/Admin/pkg/errors"
)

// Options: 컴파일러 설정
type Options struct {
	// RedirectDelay: 클립보드 복사 성공 후 메신저로 이동하기 전 대기 시간
	RedirectDelay time.Duration
	// Messages: UI 문구 카탈로그 (nil 이면 내장 카탈로그)
	Messages *messages.Provider
}

// Compiler 는 상태가 없으며 여러 고루틴에서 동시에 사용해도 안전하다.
type Compiler struct {
	delay       time.Duration
	msgs        *messages.Provider
	ui          map[domain.Language]map[string]string
	fingerprint string
}

// New 는 Compiler 를 만든다.
func New(opts Options) (*Compiler, error) {
	msgs := opts.Messages
	if msgs == nil {
		var err error
		if msgs, err = messages.Default(); err != nil {
			return nil, fmt.Errorf("load message catalog: %w", err)
		}
	}
	delay := opts.RedirectDelay
	if delay < 0 {
		delay = 0
	}

	c := &Compiler{
		delay: delay,
		msgs:  msgs,
		ui: map[domain.Language]map[string]string{
			domain.LanguageVi: msgs.Table(domain.LanguageVi),
			domain.LanguageEn: msgs.Table(domain.LanguageEn),
		},
	}
	c.fingerprint = c.computeFingerprint()
	return c, nil
}

// Fingerprint: 프로필 외에 출력을 좌우하는 내장 자산과 설정의 해시. 아티팩트 캐시 키에 포함된다.
func (c *Compiler) Fingerprint() string {
	return c.fingerprint
}

func (c *Compiler) computeFingerprint() string {
	h := sha256.New()
	write := func(s string) {
		h.Write([]byte(strconv.Itoa(len(s))))
		h.Write([]byte{':'})
		h.Write([]byte(s))
	}
	write(runtimeJS)
	write(cardCSS)
	write(strconv.FormatInt(c.delay.Milliseconds(), 10))
	for _, lang := range []domain.Language{domain.LanguageVi, domain.LanguageEn} {
		table := c.ui[lang]
		keys := make([]string, 0, len(table))
		for k := range table {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		write(string(lang))
		for _, k := range keys {
			write(k)
			write(table[k])
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// FileName 은 아티팩트 파일 이름이다.
func FileName() string {
	return constants.CardDefaults.ArtifactName
}

// BuildConfig: 아티팩트에 삽입할 설정 객체를 만든다. 모든 URL 은 여기서 정화된다.
func (c *Compiler) BuildConfig(n *normalize.Normalized) domain.CardConfig {
	content := n.Content
	content.Vi.VCardFileName = cardruntime.VCardFileName(content.Vi.DisplayName)
	content.En.VCardFileName = cardruntime.VCardFileName(content.En.DisplayName)

	links := make([]domain.CardLink, 0, len(n.Links))
	for _, link := range n.Links {
		link.Href = linkURL(link.Href)
		link.Icon = imageURL(link.Icon)
		link.QR = imageURL(link.QR)
		links = append(links, link)
	}

	projects := make([]domain.CardProject, 0, len(n.Projects))
	for _, project := range n.Projects {
		project.URL = linkURL(project.URL)
		project.Image = imageURL(project.Image)
		project.Details = imageURLs(project.Details)
		projects = append(projects, project)
	}

	ui := make(map[domain.Language]map[string]string, len(c.ui))
	for lang, table := range c.ui {
		copied := make(map[string]string, len(table))
		for k, v := range table {
			copied[k] = v
		}
		ui[lang] = copied
	}

	return domain.CardConfig{
		Name:      n.Name,
		PublicURL: linkURL(n.FullURL),
		Avatar:    imageURL(n.Avatar),
		Cover:     imageURL(n.Cover),
		MainQR:    imageURL(n.MainQR),
		Contact: domain.CardContact{
			Phone:           n.Phone,
			ID:              n.ContactID,
			MessagingDomain: constants.CardDefaults.MessagingDomain,
		},
		Content:         content,
		Links:           links,
		Projects:        projects,
		UI:              ui,
		RedirectDelayMs: c.delay.Milliseconds(),
	}
}

// Render 는 문서를 w 로 스트리밍한다.
func (c *Compiler) Render(ctx context.Context, w io.Writer, n *normalize.Normalized) error {
	if n == nil {
		return errors.NewValidationError("profile", "normalized profile is nil", errors.ErrMissingIdentity)
	}
	cfg := c.BuildConfig(n)
	if err := c.document(n, cfg).Render(ctx, w); err != nil {
		return &errors.CompileError{Slug: n.Slug, Err: err}
	}
	return nil
}

// Compile: 정규화된 프로필을 완결된 HTML 문서 바이트로 만든다.
func (c *Compiler) Compile(ctx context.Context, n *normalize.Normalized) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(len(runtimeJS) + len(cardCSS) + 8<<10)
	if err := c.Render(ctx, &buf, n); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CompileProfile 은 정규화와 컴파일을 한 번에 수행한다.
func (c *Compiler) CompileProfile(ctx context.Context, p *domain.Profile) ([]byte, error) {
	n, err := normalize.Normalize(p)
	if err != nil {
		return nil, err
	}
	return c.Compile(ctx, n)
}
