// Package cardruntime 는 카드 아티팩트에 내장되는 런타임의 상태 기계를 정의한다.
//
// 각 흐름은 순수 전이 함수 Transition(state, event) 와 순수 뷰 함수 Render(cfg, state) 로
// 표현된다. 카메라, 클립보드, 이동, 다운로드 같은 브라우저 기능은 포트로 주입된다.
// assets/runtime.js 는 같은 상태 기계를 브라우저에서 구현한다.
package cardruntime

import (
	"context"
	"errors"
	"time"
)

// 포트 실패 종류. 어느 것도 페이지를 중단시키지 않는다.
var (
	ErrPermissionDenied     = errors.New("camera permission denied")
	ErrNoDevice             = errors.New("camera device not available")
	ErrClipboardUnavailable = errors.New("clipboard unavailable")
)

// Stream 은 획득한 카메라 스트림이다. Stop 은 모든 트랙을 해제한다.
type Stream interface {
	Stop()
}

// Camera 는 카메라 접근 포트다.
type Camera interface {
	Acquire(ctx context.Context) (Stream, error)
}

// Clipboard 는 클립보드 쓰기 포트다.
type Clipboard interface {
	WriteText(ctx context.Context, text string) error
}

// Navigator 는 외부 이동 포트다.
type Navigator interface {
	Navigate(url string)
}

// Downloader 는 파일 다운로드 포트다.
type Downloader interface {
	Download(name, mime string, body []byte) error
}

// Sleeper 는 지연 포트다. 테스트에서는 즉시 반환하는 구현을 쓴다.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// Ports: 페이지가 쓰는 포트 묶음. nil 포트는 사용 불가로 취급한다.
type Ports struct {
	Camera     Camera
	Clipboard  Clipboard
	Navigator  Navigator
	Downloader Downloader
	Sleeper    Sleeper
}

// TimerSleeper 는 time.Timer 기반 Sleeper 다.
type TimerSleeper struct{}

// Sleep 은 d 만큼 기다리거나 ctx 가 끝나면 반환한다.
func (TimerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
