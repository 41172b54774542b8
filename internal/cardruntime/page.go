package cardruntime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/TanHoangarc/Admin/internal/domain"
)

// Page 는 한 번의 문서 보기를 구동한다. 상태 전이는 mu 아래에서 직렬화되고,
// 카메라 요청과 클립보드 쓰기는 별도 고루틴에서 진행된 뒤 이벤트로 돌아온다.
type Page struct {
	cfg    domain.CardConfig
	ports  Ports
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	state     State
	session   uint64
	stream    Stream
	navigated bool
	closed    bool

	wg sync.WaitGroup
}

// NewPage 는 초기 상태의 페이지를 만든다.
func NewPage(ctx context.Context, cfg domain.CardConfig, ports Ports, logger *slog.Logger) *Page {
	if logger == nil {
		logger = slog.Default()
	}
	if ports.Sleeper == nil {
		ports.Sleeper = TimerSleeper{}
	}
	pageCtx, cancel := context.WithCancel(ctx)
	return &Page{
		cfg:    cfg,
		ports:  ports,
		logger: logger,
		ctx:    pageCtx,
		cancel: cancel,
		state:  InitialState(),
	}
}

// State 는 현재 상태 스냅샷이다.
func (p *Page) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// View 는 현재 상태의 뷰 트리다.
func (p *Page) View() *Node {
	return Render(p.cfg, p.State())
}

// ActiveStreams 는 해제되지 않은 카메라 스트림 수다.
func (p *Page) ActiveStreams() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stream != nil {
		return 1
	}
	return 0
}

// Dispatch 는 이벤트를 적용하고 부수 효과를 시작한다.
func (p *Page) Dispatch(ev Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.apply(ev)
}

// ToggleLanguage 는 vi/en 을 전환한다.
func (p *Page) ToggleLanguage() { p.Dispatch(Event{Type: EventToggleLang}) }

// OpenImage 는 이미지/QR 모달을 연다.
func (p *Page) OpenImage(src, caption string, scannable bool) {
	p.Dispatch(Event{Type: EventOpenImage, Src: src, Caption: caption, Scannable: scannable})
}

// CloseImage 는 이미지 모달을 닫는다.
func (p *Page) CloseImage() { p.Dispatch(Event{Type: EventCloseImage}) }

// OpenScanner 는 스캐너 모달을 열고 카메라를 요청한다.
func (p *Page) OpenScanner() { p.Dispatch(Event{Type: EventOpenScanner}) }

// ScanFromQR 는 QR 모달에서 스캐너로 넘어간다.
func (p *Page) ScanFromQR() { p.Dispatch(Event{Type: EventOpenScannerFromQR}) }

// CloseScanner 는 스캐너를 닫는다. 반환 전에 카메라가 해제된다.
func (p *Page) CloseScanner() { p.Dispatch(Event{Type: EventCloseScanner}) }

// OpenConsult 는 상담 폼을 연다.
func (p *Page) OpenConsult() { p.Dispatch(Event{Type: EventOpenConsult}) }

// CloseConsult 는 상담 폼을 닫는다. 제출 중에는 무시된다.
func (p *Page) CloseConsult() { p.Dispatch(Event{Type: EventCloseConsult}) }

// EditField 는 상담 폼 필드를 갱신한다.
func (p *Page) EditField(name, value string) {
	p.Dispatch(Event{Type: EventEditField, Field: name, Value: value})
}

// Submit 은 상담 폼을 제출한다.
func (p *Page) Submit() { p.Dispatch(Event{Type: EventSubmit}) }

// DownloadVCard 는 현재 언어의 vCard 를 내려준다. 실패는 기록만 하고 상태는 바뀌지 않는다.
func (p *Page) DownloadVCard() error {
	lang := p.State().Lang
	content := p.cfg.Content.For(lang)
	name := content.VCardFileName
	if name == "" {
		name = VCardFileName(content.DisplayName)
	}
	body := []byte(BuildVCard(p.cfg, lang))

	if p.ports.Downloader == nil {
		return fmt.Errorf("download vcard: downloader unavailable")
	}
	err := guard(func() error { return p.ports.Downloader.Download(name, VCardMIME, body) })
	if err != nil {
		p.logger.Warn("vcard_download_failed", slog.String("file", name), slog.Any("error", err))
		return fmt.Errorf("download vcard: %w", err)
	}
	return nil
}

// Teardown 은 페이지 종료 처리다. 카메라를 해제하고 진행 중인 요청을 취소한다.
func (p *Page) Teardown() {
	p.mu.Lock()
	p.closed = true
	p.releaseCamera()
	p.mu.Unlock()
	p.cancel()
}

// Wait 는 진행 중인 비동기 작업이 끝날 때까지 기다린다.
func (p *Page) Wait() {
	p.wg.Wait()
}

// apply: mu 를 잡은 상태에서 호출한다.
func (p *Page) apply(ev Event) {
	if p.closed {
		return
	}
	prev := p.state
	next := Transition(prev, ev)
	if next == prev {
		return
	}
	p.state = next

	if !prev.Scanner.Open && next.Scanner.Open {
		p.session++
		p.wg.Add(1)
		go p.acquire(p.session)
	}
	if prev.Scanner.Open && !next.Scanner.Open {
		p.releaseCamera()
	}
	if ev.Type == EventSubmit {
		owner := p.cfg.Content.For(next.Lang).DisplayName
		text := ConsultMessage(uiText(p.cfg, next.Lang, ConsultTemplateKey), owner, next.Consult.Fields)
		p.wg.Add(1)
		go p.submit(text)
	}
}

// releaseCamera: mu 를 잡은 상태에서 호출한다. 세션을 넘겨 늦게 도착한 스트림도 무효화한다.
func (p *Page) releaseCamera() {
	p.session++
	if p.stream != nil {
		p.stream.Stop()
		p.stream = nil
	}
}

func (p *Page) acquire(token uint64) {
	defer p.wg.Done()

	var (
		stream Stream
		err    error
	)
	if p.ports.Camera == nil {
		err = ErrNoDevice
	} else {
		err = guard(func() error {
			var acquireErr error
			stream, acquireErr = p.ports.Camera.Acquire(p.ctx)
			return acquireErr
		})
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if token != p.session || !p.state.Scanner.Open || p.closed {
		if stream != nil {
			stream.Stop()
		}
		return
	}
	if err != nil {
		p.logger.Info("camera_unavailable", slog.Any("error", err))
		if stream != nil {
			stream.Stop()
		}
		p.apply(Event{Type: EventCameraDenied, Err: cameraErrorName(err)})
		return
	}
	if stream == nil {
		p.apply(Event{Type: EventCameraDenied, Err: cameraErrorName(ErrNoDevice)})
		return
	}
	p.stream = stream
	p.apply(Event{Type: EventCameraGranted})
}

func (p *Page) submit(text string) {
	defer p.wg.Done()
	// 클립보드 결과와 무관하게 이동은 반드시 한 번 일어난다.
	defer p.navigate()

	var err error
	if p.ports.Clipboard == nil {
		err = ErrClipboardUnavailable
	} else {
		err = guard(func() error { return p.ports.Clipboard.WriteText(p.ctx, text) })
	}
	if err != nil {
		p.logger.Info("clipboard_write_failed", slog.Any("error", err))
		p.Dispatch(Event{Type: EventCopyFailed})
		return
	}

	delay := time.Duration(p.cfg.RedirectDelayMs) * time.Millisecond
	if err := guard(func() error { return p.ports.Sleeper.Sleep(p.ctx, delay) }); err != nil {
		p.logger.Debug("redirect_delay_interrupted", slog.Any("error", err))
	}
	p.Dispatch(Event{Type: EventCopyOK})
}

// navigate 는 딥링크를 이동 시점의 설정으로 조립한다. 페이지당 한 번만 이동한다.
func (p *Page) navigate() {
	p.mu.Lock()
	if p.navigated {
		p.mu.Unlock()
		return
	}
	p.navigated = true
	link := DeepLink(p.cfg.Contact)
	p.mu.Unlock()

	if p.ports.Navigator == nil {
		p.logger.Warn("navigator_unavailable", slog.String("url", link))
		return
	}
	if err := guard(func() error { p.ports.Navigator.Navigate(link); return nil }); err != nil {
		p.logger.Warn("navigate_failed", slog.String("url", link), slog.Any("error", err))
	}
}

func cameraErrorName(err error) string {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return "NotAllowedError"
	case errors.Is(err, ErrNoDevice):
		return "NotFoundError"
	default:
		return "Error"
	}
}

// guard 는 포트 호출의 panic 을 에러로 바꾼다.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("port panic: %v", r)
		}
	}()
	return fn()
}
