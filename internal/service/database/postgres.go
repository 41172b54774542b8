// Package database 는 프로필과 계정을 저장하는 gorm 연결을 만든다.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq" // PostgreSQL 드라이버 등록
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/TanHoangarc/Admin/internal/constants"
)

// Service: sql.DB 와 gorm 인스턴스를 함께 관리한다.
type Service struct {
	db     *sql.DB
	gormDB *gorm.DB
	logger *slog.Logger
	driver string
}

// PostgresConfig: PostgreSQL 접속 정보
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// DSN 은 lib/pq 형식 접속 문자열이다.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Database)
}

// NewPostgresService: PostgreSQL 연결을 만들고 Ping 으로 확인한 뒤 gorm 을 초기화한다.
func NewPostgresService(cfg PostgresConfig, logger *slog.Logger) (*Service, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(constants.DatabaseConfig.MaxOpenConns)
	db.SetMaxIdleConns(constants.DatabaseConfig.MaxIdleConns)
	db.SetConnMaxLifetime(constants.DatabaseConfig.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), constants.RequestTimeout.DatabasePing)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	logger.Info("postgres_connected",
		slog.String("host", cfg.Host),
		slog.Int("port", cfg.Port),
		slog.String("database", cfg.Database),
	)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize GORM: %w", err)
	}

	return &Service{db: db, gormDB: gormDB, logger: logger, driver: "postgres"}, nil
}

// GetDB: raw SQL 용 sql.DB
func (s *Service) GetDB() *sql.DB {
	return s.db
}

// GetGormDB: gorm 인스턴스
func (s *Service) GetGormDB() *gorm.DB {
	return s.gormDB
}

// Driver 는 "postgres" 또는 "sqlite" 다.
func (s *Service) Driver() string {
	return s.driver
}

// Close: 연결 종료
func (s *Service) Close() error {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return fmt.Errorf("failed to close %s: %w", s.driver, err)
		}
	}
	return nil
}

// Ping: 헬스 체크용
func (s *Service) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%s ping failed: %w", s.driver, err)
	}
	return nil
}
