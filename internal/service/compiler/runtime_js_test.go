package compiler

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/dop251/goja"
	json "github.com/goccy/go-json"

	"github.com/TanHoangarc/Admin/internal/cardruntime"
	"github.com/TanHoangarc/Admin/internal/domain"
	"github.com/TanHoangarc/Admin/internal/service/normalize"
)

// jsPage 는 내장 런타임 스크립트를 DOM 흉내 환경에서 실행한다.
type jsPage struct {
	t  *testing.T
	vm *goja.Runtime
}

func runtimeConfig(t *testing.T) domain.CardConfig {
	t.Helper()
	c := newTestCompiler(t)
	n, err := normalize.Normalize(sampleProfile())
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	cfg := c.BuildConfig(n)
	cfg.MainQR = "https://example.com/qr.png"
	// 버튼은 키 이름으로 찾는다.
	cfg.UI = map[domain.Language]map[string]string{
		domain.LanguageVi: {cardruntime.ConsultTemplateKey: "Chào {owner}: {name} / {service}"},
		domain.LanguageEn: {cardruntime.ConsultTemplateKey: "Hi {owner}: {name} / {service}"},
	}
	return cfg
}

func newJSPage(t *testing.T, cfg domain.CardConfig, setup string) *jsPage {
	t.Helper()
	shim, err := os.ReadFile(filepath.Join("testdata", "dom_shim.js"))
	if err != nil {
		t.Fatalf("failed to read dom shim: %v", err)
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("failed to marshal config: %v", err)
	}

	p := &jsPage{t: t, vm: goja.New()}
	if err := p.vm.Set("__configText", string(raw)); err != nil {
		t.Fatalf("failed to set config: %v", err)
	}
	if _, err := p.vm.RunScript("dom_shim.js", string(shim)); err != nil {
		t.Fatalf("dom shim failed: %v", err)
	}
	if setup != "" {
		p.run(setup)
	}
	if _, err := p.vm.RunScript("runtime.js", runtimeJS); err != nil {
		t.Fatalf("runtime script failed: %v", err)
	}
	return p
}

// run 은 스크립트를 실행한다. 반환 시점에 대기 중인 Promise 작업은 모두 처리된다.
func (p *jsPage) run(src string) goja.Value {
	p.t.Helper()
	v, err := p.vm.RunString(src)
	if err != nil {
		p.t.Fatalf("script %q failed: %v", src, err)
	}
	return v
}

func (p *jsPage) evalInt(src string) int64 {
	p.t.Helper()
	return p.run(src).ToInteger()
}

func (p *jsPage) evalString(src string) string {
	p.t.Helper()
	return p.run(src).String()
}

func (p *jsPage) evalBool(src string) bool {
	p.t.Helper()
	return p.run(src).ToBoolean()
}

func (p *jsPage) navigations() []string {
	p.t.Helper()
	var out []string
	if err := p.vm.ExportTo(p.run("__navigations"), &out); err != nil {
		p.t.Fatalf("failed to export navigations: %v", err)
	}
	return out
}

func TestRuntimeScriptRendersCard(t *testing.T) {
	p := newJSPage(t, runtimeConfig(t), "")

	if got := p.evalString("__walk(__app, function (n) { return n.tagName === 'H1'; }).textContent"); got != "Andy" {
		t.Fatalf("display name = %q", got)
	}
	if got := p.evalString("__textOf('title')"); got != "Giám đốc kinh doanh" {
		t.Fatalf("vi title = %q", got)
	}
	p.run("__click('lang_badge')")
	if got := p.evalString("__textOf('title')"); got != "Sales Director" {
		t.Fatalf("en title = %q", got)
	}
	if got := p.evalString("document.documentElement.getAttribute('lang')"); got != "en" {
		t.Fatalf("root lang = %q", got)
	}
}

func TestRuntimeScriptConsultNavigatesOnceWhenClipboardFails(t *testing.T) {
	p := newJSPage(t, runtimeConfig(t), "__clipboardFails = true;")

	p.run("__click('consult')")
	p.run("__input('name', ' Lan '); __input('service', 'Logistics')")
	p.run("__submit()")

	if got := p.evalString("__clipboardWrites[0]"); got != "Chào Andy: Lan / Logistics" {
		t.Fatalf("clipboard text = %q", got)
	}
	nav := p.navigations()
	if len(nav) != 1 || nav[0] != "https://zalo.me/0972133680" {
		t.Fatalf("expected one immediate navigation, got %v", nav)
	}
	if got := p.evalString("__textOf('status')"); got != "consult_form.copy_failed" {
		t.Fatalf("status = %q", got)
	}

	// 남은 타이머와 재제출은 두 번째 이동을 만들지 않는다.
	p.run("__runTimers(); __submit(); __runTimers()")
	if nav := p.navigations(); len(nav) != 1 {
		t.Fatalf("navigation must happen exactly once, got %v", nav)
	}
}

func TestRuntimeScriptConsultWaitsBeforeCopiedAndNavigation(t *testing.T) {
	p := newJSPage(t, runtimeConfig(t), "")

	p.run("__click('consult'); __input('name', 'Lan')")
	p.run("__submit()")

	if n := len(p.navigations()); n != 0 {
		t.Fatalf("navigation before the redirect delay")
	}
	if got := p.evalString("__textOf('status')"); got != "consult_form.submitting" {
		t.Fatalf("status during delay = %q", got)
	}
	if got := p.evalInt("__pendingDelays()[0]"); got != 1500 {
		t.Fatalf("redirect delay = %d", got)
	}
	if p.evalBool("__button('close').getAttribute('disabled') === null") {
		t.Fatalf("close must be disabled while submitting")
	}

	p.run("__runTimers()")
	nav := p.navigations()
	if len(nav) != 1 || nav[0] != "https://zalo.me/0972133680" {
		t.Fatalf("expected one navigation after the delay, got %v", nav)
	}
	if got := p.evalString("__textOf('status')"); got != "consult_form.copied" {
		t.Fatalf("status after delay = %q", got)
	}
}

func TestRuntimeScriptScannerStopsTracksOnClose(t *testing.T) {
	p := newJSPage(t, runtimeConfig(t), "")

	p.run("__click('show_qr'); __click('scan_qr')")
	if got := p.evalString("__textOf('status')"); got != "scanner.streaming" {
		t.Fatalf("scanner status = %q", got)
	}
	if p.evalInt("__tracks.length") != 1 || p.evalBool("__tracks[0].stopped") {
		t.Fatalf("expected one live track")
	}
	if p.evalInt("__count('VIDEO')") != 1 {
		t.Fatalf("streaming scanner should show a video element")
	}

	p.run("__click('close')")
	if !p.evalBool("__tracks[0].stopped") {
		t.Fatalf("closing the scanner must stop its tracks")
	}
	if p.evalInt("__count('VIDEO')") != 0 {
		t.Fatalf("video should be gone after close")
	}
}

func TestRuntimeScriptStopsLateCameraGrant(t *testing.T) {
	p := newJSPage(t, runtimeConfig(t), "__cameraMode = 'pending';")

	p.run("__click('show_qr'); __click('scan_qr')")
	if got := p.evalString("__textOf('status')"); got != "scanner.requesting" {
		t.Fatalf("scanner status = %q", got)
	}
	p.run("__click('close')")
	p.run("__grantPending()")

	if p.evalInt("__tracks.length") != 1 || !p.evalBool("__tracks[0].stopped") {
		t.Fatalf("a stream granted after close must be stopped at once")
	}
	if p.evalInt("__count('VIDEO')") != 0 {
		t.Fatalf("closed scanner must not render a video")
	}
}

func TestRuntimeScriptScanFromQRKeepsOpenScanner(t *testing.T) {
	p := newJSPage(t, runtimeConfig(t), "")

	p.run("__click('show_qr'); __click('scan_qr')")
	p.run("__click('show_qr'); __click('scan_qr')")

	if got := p.evalInt("__cameraRequests"); got != 1 {
		t.Fatalf("camera requested %d times", got)
	}
	if p.evalBool("__tracks[0].stopped") {
		t.Fatalf("the live stream must survive")
	}
	if got := p.evalString("__textOf('status')"); got != "scanner.streaming" {
		t.Fatalf("scanner status = %q", got)
	}
}

func TestRuntimeScriptVCardMatchesGo(t *testing.T) {
	cfg := runtimeConfig(t)
	cfg.PublicURL = "https://tanhoangarc.github.io/Andy\r\nEMAIL:attacker@evil.test\r\nX.github.io/"
	cfg.Contact.Phone = "+84972133680\nNOTE:x"
	p := newJSPage(t, cfg, "")

	p.run("__click('save_contact')")
	p.run("__click('lang_badge'); __click('save_contact')")

	for i, lang := range []domain.Language{domain.LanguageVi, domain.LanguageEn} {
		got := p.evalString("__blobs[" + strconv.Itoa(i) + "].parts[0]")
		if want := cardruntime.BuildVCard(cfg, lang); got != want {
			t.Fatalf("%s vcard differs\njs %q\ngo %q", lang, got, want)
		}
		for _, line := range strings.Split(strings.TrimSuffix(got, "\r\n"), "\r\n") {
			if strings.HasPrefix(line, "EMAIL") || strings.HasPrefix(line, "NOTE") {
				t.Fatalf("injected vCard property line %q", line)
			}
		}
	}
	if got := p.evalString("__blobs[0].type"); got != cardruntime.VCardMIME {
		t.Fatalf("blob type = %q", got)
	}
}
