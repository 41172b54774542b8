package constants

import "time"

// CardDefaults 는 카드 정규화/컴파일에 쓰이는 고정값이다.
var CardDefaults = struct {
	DomainSuffix    string
	BaseURLPrefix   string
	CountryCode     string
	MessagingDomain string
	ArtifactName    string
	RedirectDelay   time.Duration
	AvatarTemplate  string
	CoverTemplate   string
}{
	DomainSuffix:    ".github.io",
	BaseURLPrefix:   "https://tanhoangarc.github.io/",
	CountryCode:     "84",
	MessagingDomain: "zalo.me",
	ArtifactName:    "index.html",
	RedirectDelay:   1500 * time.Millisecond, // 복사 완료 토스트 노출 시간
	AvatarTemplate:  "https://api.dicebear.com/7.x/avataaars/svg?seed=%s",
	CoverTemplate:   "https://picsum.photos/seed/%s/1000/400",
}

// ArtifactConfig 는 아티팩트 캐시/일괄 내보내기 설정이다.
var ArtifactConfig = struct {
	CacheTTL          time.Duration
	CacheKeyPrefix    string
	ExportConcurrency int
}{
	CacheTTL:          24 * time.Hour,
	CacheKeyPrefix:    "card:artifact:",
	ExportConcurrency: 8,
}

// ProfileStoreConfig 는 KV 저장소 키 설정이다.
var ProfileStoreConfig = struct {
	StorageKey    string
	MaxNameLength int
	MaxQueryLimit int
}{
	StorageKey:    "nfc_admin_data",
	MaxNameLength: 120,
	MaxQueryLimit: 500,
}

// ValkeyConfig 는 패키지 변수다.
var ValkeyConfig = struct {
	ReadyTimeout      time.Duration
	DialTimeout       time.Duration
	ConnWriteTimeout  time.Duration
	OpTimeout         time.Duration
	BlockingPoolSize  int
	PipelineMultiplex int
}{
	ReadyTimeout:      5 * time.Second,
	DialTimeout:       5 * time.Second,
	ConnWriteTimeout:  3 * time.Second,
	OpTimeout:         2 * time.Second, // 캐시 단건 연산. 장애 시 재시도 대기를 끊는다
	BlockingPoolSize:  100,
	PipelineMultiplex: 4,
}

// AppTimeout 는 앱 빌드/종료 타임아웃 설정이다.
var AppTimeout = struct {
	Build    time.Duration
	Shutdown time.Duration
}{
	Build:    30 * time.Second,
	Shutdown: 10 * time.Second,
}

// ServerTimeout 는 HTTP 서버 타임아웃이다.
var ServerTimeout = struct {
	ReadHeader     time.Duration
	Read           time.Duration
	Write          time.Duration
	Idle           time.Duration
	MaxHeaderBytes int
}{
	ReadHeader:     5 * time.Second,
	Read:           30 * time.Second,
	Write:          60 * time.Second, // 일괄 zip 내보내기 고려
	Idle:           60 * time.Second,
	MaxHeaderBytes: 1 << 20,
}

// ServerConfig 는 서버 기본 설정이다.
var ServerConfig = struct {
	TrustedProxies []string
	MaxBodyBytes   int64
}{
	TrustedProxies: []string{"127.0.0.1", "::1"},
	MaxBodyBytes:   8 << 20, // data: URL 이미지 포함
}

// CORSConfig 는 CORS 기본 설정이다.
var CORSConfig = struct {
	AllowOrigins []string
	AllowMethods []string
	AllowHeaders []string
}{
	AllowOrigins: []string{"http://localhost:5173"},
	AllowMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
	AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
}

// RateLimitConfig 는 IP 단위 API 요청 제한이다.
var RateLimitConfig = struct {
	RequestsPerSecond float64
	Burst             int
	IdleEviction      time.Duration
}{
	RequestsPerSecond: 20,
	Burst:             40,
	IdleEviction:      10 * time.Minute,
}

// RequestTimeout 는 HTTP 요청 및 서비스 타임아웃 설정
var RequestTimeout = struct {
	APIRequest   time.Duration
	Export       time.Duration
	DatabasePing time.Duration
}{
	APIRequest:   10 * time.Second,
	Export:       45 * time.Second,
	DatabasePing: 5 * time.Second,
}

// DatabaseConfig 는 데이터베이스 연결 설정이다.
var DatabaseConfig = struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}{
	MaxOpenConns:    25,
	MaxIdleConns:    5,
	ConnMaxLifetime: 5 * time.Minute,
}

// DatabaseDefaults 는 PostgreSQL 기본값이다. (env 미설정 시)
var DatabaseDefaults = struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}{
	Host:     "localhost",
	Port:     5432,
	User:     "card_user",
	Password: "card_password",
	Database: "nfc_card_db",
}
