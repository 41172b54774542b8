package auth

import "time"

// Config: 인증 서비스 동작 파라미터
type Config struct {
	// SessionTTL: "로그인 유지" 세션 유효 기간 (기본 7일)
	SessionTTL time.Duration
	// ShortSessionTTL: 로그인 유지를 선택하지 않은 세션 유효 기간
	ShortSessionTTL time.Duration

	// LoginRateLimitPerMinute: IP 기준 로그인 요청 제한 (분당)
	LoginRateLimitPerMinute int64

	// LoginFailLimit: 사용자명 기준 연속 실패 허용 횟수
	LoginFailLimit int64
	// LoginFailWindow: 실패 카운트 집계 윈도우
	LoginFailWindow time.Duration
	// LoginLockDuration: 계정 잠금 지속 시간
	LoginLockDuration time.Duration

	// UserSessionsTTL: 유저별 세션 인덱스(Set) TTL
	UserSessionsTTL time.Duration
}

func DefaultConfig() Config {
	sessionTTL := 7 * 24 * time.Hour
	return Config{
		SessionTTL:              sessionTTL,
		ShortSessionTTL:         12 * time.Hour,
		LoginRateLimitPerMinute: 30,
		LoginFailLimit:          5,
		LoginFailWindow:         15 * time.Minute,
		LoginLockDuration:       15 * time.Minute,
		UserSessionsTTL:         sessionTTL + (24 * time.Hour),
	}
}
