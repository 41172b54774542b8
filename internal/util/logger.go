package util

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig: 로그 디렉토리와 로테이션 정책
type LogConfig struct {
	Dir string

	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Validate 는 로테이션 값이 양수인지 확인한다. Dir 이 비어 있으면 검사하지 않는다.
func (c LogConfig) Validate() error {
	if c.Dir == "" {
		return nil
	}
	if c.MaxSizeMB <= 0 || c.MaxBackups <= 0 || c.MaxAgeDays <= 0 {
		return fmt.Errorf("invalid log config: size=%d backups=%d age_days=%d", c.MaxSizeMB, c.MaxBackups, c.MaxAgeDays)
	}
	return nil
}

// NewLoggerWithLevel: 콘솔(stdout) 컬러 로거
func NewLoggerWithLevel(level string) *slog.Logger {
	return slog.New(newHandler(os.Stdout, level, false))
}

// NewLoggerTo: 지정한 writer 로 쓰는 컬러 로거. CLI 는 stdout 을 결과 출력에 쓰므로 stderr 를 넘긴다.
func NewLoggerTo(w io.Writer, level string) *slog.Logger {
	return slog.New(newHandler(w, level, false))
}

// EnableFileLoggingWithLevel: stdout 과 로테이션 파일에 함께 기록하는 로거를 만들고 기본 로거로 지정한다.
// cfg.Dir 이 비어 있으면 콘솔 로거만 반환한다.
func EnableFileLoggingWithLevel(cfg LogConfig, fileName, level string) (*slog.Logger, error) {
	if cfg.Dir == "" {
		return NewLoggerWithLevel(level), nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir failed: %w", err)
	}

	logFile := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.Dir, fileName),
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}

	logger := slog.New(newHandler(io.MultiWriter(os.Stdout, logFile), level, true))
	slog.SetDefault(logger)
	logger.Info("file_logging_enabled", slog.String("path", logFile.Filename))
	return logger, nil
}

func newHandler(w io.Writer, level string, noColor bool) slog.Handler {
	return tint.NewHandler(w, &tint.Options{
		Level:      ParseLogLevel(level),
		TimeFormat: time.RFC3339,
		AddSource:  true,
		NoColor:    noColor,
	})
}

// ParseLogLevel 은 알 수 없는 값을 info 로 취급한다.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
