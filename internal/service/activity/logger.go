// Package activity 는 관리자 변경 이력을 JSON Lines 파일에 남긴다.
package activity

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	json "github.com/goccy/go-json"
)

// 기록되는 동작 종류
const (
	ActionProfileCreated = "profile_created"
	ActionProfileUpdated = "profile_updated"
	ActionProfileDeleted = "profile_deleted"
	ActionCardsExported  = "cards_exported"
)

const maxLineBytes = 64 * 1024

// Entry: 이력 한 줄
type Entry struct {
	Time      time.Time `json:"time"`
	Action    string    `json:"action"`
	Actor     string    `json:"actor"`
	ProfileID string    `json:"profileId,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}

// Journal: 파일 기반 변경 이력. path 가 비어 있으면 아무것도 기록하지 않는다.
type Journal struct {
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
	now    func() time.Time
}

// NewJournal: 이력 파일 경로로 Journal 을 만든다.
func NewJournal(path string, logger *slog.Logger) *Journal {
	if logger == nil {
		logger = slog.Default()
	}
	return &Journal{path: path, logger: logger, now: time.Now}
}

// Enabled: 기록 대상 파일이 설정되어 있는지
func (j *Journal) Enabled() bool {
	return j != nil && j.path != ""
}

// Record: 이력을 한 줄 추가한다. 기록 실패는 요청을 막지 않고 로그만 남긴다.
func (j *Journal) Record(action, actor, profileID, detail string) {
	if !j.Enabled() {
		return
	}
	line, err := json.Marshal(Entry{
		Time:      j.now().UTC(),
		Action:    action,
		Actor:     actor,
		ProfileID: profileID,
		Detail:    detail,
	})
	if err != nil {
		j.logger.Error("activity_encode_failed", slog.Any("error", err))
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(j.path), 0o755); err != nil {
		j.logger.Error("activity_dir_failed", slog.Any("error", err))
		return
	}
	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		j.logger.Error("activity_open_failed", slog.Any("error", err))
		return
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		j.logger.Error("activity_write_failed", slog.Any("error", err))
	}
}

// Recent: 최신 순으로 최대 limit 개. 깨진 줄은 건너뛴다.
func (j *Journal) Recent(limit int) ([]Entry, error) {
	if !j.Enabled() || limit <= 0 {
		return []Entry{}, nil
	}

	j.mu.RLock()
	defer j.mu.RUnlock()

	f, err := os.Open(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("failed to open activity journal: %w", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 4096), maxLineBytes)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read activity journal: %w", err)
	}

	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[len(entries)-1-i] = e
	}
	return out, nil
}
