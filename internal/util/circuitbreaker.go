package util

import (
	"log/slog"
	"sync"
	"time"
)

// CircuitState: 서킷 브레이커 상태
type CircuitState string

// CircuitState 상수 목록.
const (
	CircuitStateClosed   CircuitState = "CLOSED"
	CircuitStateOpen     CircuitState = "OPEN"
	CircuitStateHalfOpen CircuitState = "HALF_OPEN"
)

func (s CircuitState) String() string {
	return string(s)
}

// CircuitBreaker 는 선택적 의존성(아티팩트 캐시 등)이 연속 실패할 때 호출을 잠시 건너뛰게 한다.
// 열린 동안 호출자는 의존성 없이 동작해야 한다.
type CircuitBreaker struct {
	name             string
	failureThreshold int
	resetTimeout     time.Duration
	now              func() time.Time
	logger           *slog.Logger

	mu           sync.Mutex
	state        CircuitState
	failureCount int
	openedUntil  time.Time
}

// NewCircuitBreaker: threshold 번 연속 실패하면 resetTimeout 동안 연다.
func NewCircuitBreaker(name string, threshold int, resetTimeout time.Duration, logger *slog.Logger) *CircuitBreaker {
	if threshold <= 0 {
		threshold = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CircuitBreaker{
		name:             name,
		failureThreshold: threshold,
		resetTimeout:     resetTimeout,
		now:              time.Now,
		logger:           logger,
		state:            CircuitStateClosed,
	}
}

// State 는 현재 상태다. 열림 시간이 지났으면 반열림으로 바뀐다.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.refresh()
	return cb.state
}

// Allow 는 지금 의존성을 호출해도 되는지 알려준다.
func (cb *CircuitBreaker) Allow() bool {
	return cb.State() != CircuitStateOpen
}

// RecordSuccess: 반열림이면 닫고 실패 횟수를 초기화한다.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.refresh()
	if cb.state == CircuitStateHalfOpen {
		cb.transitionTo(CircuitStateClosed)
	}
	cb.failureCount = 0
}

// RecordFailure: 반열림에서의 실패나 임계치 도달 시 다시 연다.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.refresh()
	cb.failureCount++
	if cb.state == CircuitStateHalfOpen || cb.failureCount >= cb.failureThreshold {
		cb.openedUntil = cb.now().Add(cb.resetTimeout)
		if cb.state != CircuitStateOpen {
			cb.transitionTo(CircuitStateOpen)
		}
	}
}

// Reset 은 강제로 닫는다.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = CircuitStateClosed
	cb.failureCount = 0
	cb.openedUntil = time.Time{}
}

func (cb *CircuitBreaker) refresh() {
	if cb.state == CircuitStateOpen && !cb.now().Before(cb.openedUntil) {
		cb.transitionTo(CircuitStateHalfOpen)
	}
}

func (cb *CircuitBreaker) transitionTo(next CircuitState) {
	prev := cb.state
	cb.state = next
	cb.logger.Info("circuit_state_changed",
		slog.String("circuit", cb.name),
		slog.String("from", prev.String()),
		slog.String("to", next.String()),
		slog.Int("failure_count", cb.failureCount),
	)
}
