// Package health: 서비스 상태 정보
package health

import (
	"context"
	"runtime"
	"slices"
	"sync"
	"time"
)

var (
	startTime time.Time
	version   = "dev"
	initOnce  sync.Once
)

// Status 값
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
)

// Init: 서비스 시작 시 호출 (버전 정보 설정)
func Init(v string) {
	initOnce.Do(func() {
		startTime = time.Now()
		if v != "" {
			version = v
		}
	})
}

// Response: /health 엔드포인트 표준 응답
type Response struct {
	Status     string            `json:"status"`
	Version    string            `json:"version"`
	Uptime     string            `json:"uptime"`
	Goroutines int               `json:"goroutines"`
	Components map[string]string `json:"components,omitempty"`
}

// Get: 현재 상태 반환 (의존성 점검 없음)
func Get() Response {
	return Response{
		Status:     StatusOK,
		Version:    version,
		Uptime:     formatDuration(time.Since(startTime)),
		Goroutines: runtime.NumGoroutine(),
	}
}

// GetVersion: 현재 버전 반환
func GetVersion() string {
	return version
}

// GetUptime: 현재 uptime 반환 (포맷팅된 문자열)
func GetUptime() string {
	return formatDuration(time.Since(startTime))
}

// formatDuration: Duration을 사람이 읽기 쉬운 형식으로 변환
func formatDuration(d time.Duration) string {
	return d.Round(time.Second).String()
}

// CheckFunc: 의존성 하나를 점검한다. nil 이면 정상.
type CheckFunc func(ctx context.Context) error

// Checker: 등록된 의존성(DB, 캐시)을 점검해 Response 를 만든다.
type Checker struct {
	mu      sync.RWMutex
	checks  map[string]CheckFunc
	timeout time.Duration
}

// NewChecker: timeout 은 의존성 하나당 점검 시간 제한
func NewChecker(timeout time.Duration) *Checker {
	return &Checker{checks: make(map[string]CheckFunc), timeout: timeout}
}

// Register: 같은 이름이면 덮어쓴다.
func (c *Checker) Register(name string, fn CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = fn
}

// Check: 하나라도 실패하면 degraded
func (c *Checker) Check(ctx context.Context) Response {
	c.mu.RLock()
	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	checks := make(map[string]CheckFunc, len(c.checks))
	for k, v := range c.checks {
		checks[k] = v
	}
	c.mu.RUnlock()
	slices.Sort(names)

	resp := Get()
	if len(names) == 0 {
		return resp
	}
	resp.Components = make(map[string]string, len(names))
	for _, name := range names {
		cctx, cancel := context.WithTimeout(ctx, c.timeout)
		err := checks[name](cctx)
		cancel()
		if err != nil {
			resp.Components[name] = err.Error()
			resp.Status = StatusDegraded
			continue
		}
		resp.Components[name] = StatusOK
	}
	return resp
}
