package server

import (
	"log/slog"

	"github.com/TanHoangarc/Admin/internal/service/activity"
	"github.com/TanHoangarc/Admin/internal/service/artifact"
	"github.com/TanHoangarc/Admin/internal/service/profile"
)

// APIHandler: 프로필 관리와 카드 컴파일 요청을 처리하는 핸들러.
// 핸들러 메서드는 도메인별 파일로 분리됨:
//   - api_profile.go: 프로필 CRUD + 개요
//   - api_artifact.go: 아티팩트, 미리보기, vCard, 일괄 내보내기
//   - api_activity.go: 변경 이력 조회
type APIHandler struct {
	profiles  *profile.Service
	artifacts *artifact.Service
	journal   *activity.Journal
	logger    *slog.Logger
}

// NewAPIHandler: 새로운 API 핸들러를 생성합니다. journal 은 nil 이어도 된다.
func NewAPIHandler(profiles *profile.Service, artifacts *artifact.Service, journal *activity.Journal, logger *slog.Logger) *APIHandler {
	return &APIHandler{
		profiles:  profiles,
		artifacts: artifacts,
		journal:   journal,
		logger:    logger,
	}
}
