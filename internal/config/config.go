package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/TanHoangarc/Admin/internal/constants"
)

// Store backend 종류
const (
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreValkey   = "valkey"
	StoreMemory   = "memory"
)

// Config: 카드 관리 서버 전체 설정
type Config struct {
	Server   ServerConfig
	Card     CardConfig
	Store    StoreConfig
	Valkey   ValkeyConfig
	Postgres PostgresConfig
	Logging  LoggingConfig
	Version  string
}

// ServerConfig: 관리 API 서버 설정
type ServerConfig struct {
	Port           int
	AdminUser      string
	AdminPassHash  string // bcrypt 해시
	ForceHTTPS     bool
	AllowedOrigins []string
	AllowSignup    bool
	// MetricsCIDRs: /metrics 접근 허용 대역. 비어 있으면 제한 없음
	MetricsCIDRs []string
}

// CardConfig: 카드 컴파일 설정
type CardConfig struct {
	RedirectDelay time.Duration
	Seed          bool
	ArtifactTTL   time.Duration
}

// StoreConfig: 프로필 저장소 backend 선택
type StoreConfig struct {
	Backend    string
	SQLitePath string
	// ActivityLog: 관리자 변경 이력(JSON Lines) 경로. 비어 있으면 기록하지 않는다
	ActivityLog string
}

// ValkeyConfig: 세션, 아티팩트 캐시, KV 저장소용 Valkey 연결 설정
type ValkeyConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// PostgresConfig: PostgreSQL 연결 설정
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// LoggingConfig: 로그 레벨, 디렉토리, 로테이션 정책
type LoggingConfig struct {
	Level      string
	Dir        string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Load: .env 파일과 환경 변수로부터 설정을 읽고 기본값을 채운다.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnvInt("SERVER_PORT", 30080),
			AdminUser:      getEnv("ADMIN_USER", "admin"),
			AdminPassHash:  getEnv("ADMIN_PASS_HASH", ""),
			ForceHTTPS:     getEnvBool("FORCE_HTTPS", false),
			AllowedOrigins: parseCommaSeparated(getEnv("CORS_ALLOWED_ORIGINS", strings.Join(constants.CORSConfig.AllowOrigins, ","))),
			AllowSignup:    getEnvBool("ALLOW_SIGNUP", true),
			MetricsCIDRs:   parseCommaSeparated(getEnv("METRICS_ALLOWED_CIDRS", "127.0.0.1,::1")),
		},
		Card: CardConfig{
			RedirectDelay: time.Duration(getEnvInt("CARD_REDIRECT_DELAY_MS", int(constants.CardDefaults.RedirectDelay.Milliseconds()))) * time.Millisecond,
			Seed:          getEnvBool("PROFILE_SEED", true),
			ArtifactTTL:   time.Duration(getEnvInt("ARTIFACT_CACHE_TTL_SECONDS", int(constants.ArtifactConfig.CacheTTL.Seconds()))) * time.Second,
		},
		Store: StoreConfig{
			Backend:     strings.ToLower(strings.TrimSpace(getEnv("PROFILE_STORE", StorePostgres))),
			SQLitePath:  getEnv("SQLITE_PATH", "data/cards.db"),
			ActivityLog: getEnv("ACTIVITY_LOG_PATH", "data/activity.jsonl"),
		},
		Valkey: ValkeyConfig{
			Host:     getEnv("CACHE_HOST", "localhost"),
			Port:     getEnvInt("CACHE_PORT", 6379),
			Password: getEnv("CACHE_PASSWORD", ""),
			DB:       getEnvInt("CACHE_DB", 0),
		},
		Postgres: PostgresConfig{
			Host:     getEnv("POSTGRES_HOST", constants.DatabaseDefaults.Host),
			Port:     getEnvInt("POSTGRES_PORT", constants.DatabaseDefaults.Port),
			User:     getEnv("POSTGRES_USER", constants.DatabaseDefaults.User),
			Password: getEnv("POSTGRES_PASSWORD", constants.DatabaseDefaults.Password),
			Database: getEnv("POSTGRES_DB", constants.DatabaseDefaults.Database),
		},
		Logging: LoggingConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Dir:        getEnv("LOG_DIR", "logs"),
			File:       getEnv("LOG_FILE", "cardd.log"),
			MaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 100),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
			MaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 30),
			Compress:   getEnvBool("LOG_COMPRESS", true),
		},
		Version: strings.TrimSpace(getEnv("APP_VERSION", "1.0.0")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate: 필수 설정값 검증
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535")
	}
	if c.Server.AdminUser == "" {
		return fmt.Errorf("ADMIN_USER is required")
	}
	if c.Server.AdminPassHash == "" {
		return fmt.Errorf("ADMIN_PASS_HASH is required for the admin account")
	}
	if c.Card.RedirectDelay < 0 {
		return fmt.Errorf("CARD_REDIRECT_DELAY_MS must not be negative")
	}
	switch c.Store.Backend {
	case StorePostgres, StoreValkey, StoreMemory:
	case StoreSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite store")
		}
	default:
		return fmt.Errorf("unknown PROFILE_STORE %q", c.Store.Backend)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func parseCommaSeparated(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
