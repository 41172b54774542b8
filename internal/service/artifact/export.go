package artifact

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"
	"unicode"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/zip"
	"github.com/sourcegraph/conc/pool"

	"github.com/TanHoangarc/Admin/internal/domain"
	"github.com/TanHoangarc/Admin/internal/service/normalize"
	"github.com/TanHoangarc/Admin/pkg/errors"
)

// ManifestName: 묶음 최상위에 기록되는 목록 파일
const ManifestName = "manifest.json"

// ExportEntry: 묶음에 포함된 카드 하나
type ExportEntry struct {
	ProfileID string `json:"id"`
	Name      string `json:"name"`
	Dir       string `json:"dir"`
	URL       string `json:"url"`
	Hash      string `json:"hash"`
	VCard     string `json:"vcard"`
}

// ExportSkip: 컴파일할 수 없어 빠진 프로필
type ExportSkip struct {
	ProfileID string `json:"id"`
	Reason    string `json:"reason"`
}

// ExportSummary: 일괄 내보내기 결과
type ExportSummary struct {
	Entries []ExportEntry `json:"entries"`
	Skipped []ExportSkip  `json:"skipped"`
}

type exportResult struct {
	artifact *Artifact
	norm     *normalize.Normalized
	err      error
}

// ExportAll: 프로필들을 병렬로 컴파일해 zip 으로 w 에 쓴다.
// 항목 순서는 입력 순서를 따르며 슬러그가 겹치면 디렉터리 이름에 번호를 붙인다.
// 컴파일 실패는 Skipped 에 기록하고 계속 진행한다. 쓰기 실패와 컨텍스트 취소만 에러로 반환한다.
func (s *Service) ExportAll(ctx context.Context, profiles []*domain.Profile, w io.Writer) (*ExportSummary, error) {
	results := make([]exportResult, len(profiles))

	p := pool.New().WithMaxGoroutines(s.cfg.Concurrency)
	for i, prof := range profiles {
		p.Go(func() {
			if err := ctx.Err(); err != nil {
				results[i].err = err
				return
			}
			a, n, err := s.build(ctx, prof)
			results[i] = exportResult{artifact: a, norm: n, err: err}
		})
	}
	p.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("export canceled: %w", err)
	}

	zw := zip.NewWriter(w)
	summary := &ExportSummary{Entries: []ExportEntry{}, Skipped: []ExportSkip{}}
	used := make(map[string]bool, len(profiles))

	for i, r := range results {
		if r.err != nil {
			id := ""
			if profiles[i] != nil {
				id = profiles[i].ID
			}
			summary.Skipped = append(summary.Skipped, ExportSkip{ProfileID: id, Reason: r.err.Error()})
			s.logger.Warn("export_profile_skipped", slog.String("profile_id", id), slog.Any("error", r.err))
			continue
		}

		dir := uniqueDir(used, archiveDir(r.artifact.Slug))
		vc := s.vcard(r.norm, domain.LanguageVi)
		if err := writeZipFile(zw, path.Join(dir, r.artifact.FileName), r.artifact.Body); err != nil {
			return nil, err
		}
		if err := writeZipFile(zw, path.Join(dir, vc.FileName), []byte(vc.Body)); err != nil {
			return nil, err
		}
		summary.Entries = append(summary.Entries, ExportEntry{
			ProfileID: r.artifact.ProfileID,
			Name:      r.norm.Name,
			Dir:       dir,
			URL:       r.norm.FullURL,
			Hash:      r.artifact.Hash,
			VCard:     vc.FileName,
		})
	}

	manifest, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return nil, errors.NewServiceError("artifact", "manifest", err)
	}
	if err := writeZipFile(zw, ManifestName, manifest); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}

	s.metrics.ObserveExport(len(summary.Entries))
	s.logger.Info("export_completed",
		slog.Int("cards", len(summary.Entries)),
		slog.Int("skipped", len(summary.Skipped)),
	)
	return summary, nil
}

// archiveDir: 슬러그를 묶음 안의 한 단계 디렉터리 이름으로 만든다.
// 경로 구분자와 제어 문자를 지우고 앞의 "." 을 떼므로 상위 경로나 숨김 항목이 생기지 않는다.
func archiveDir(slug string) string {
	dir := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ':' || unicode.IsControl(r) {
			return -1
		}
		return r
	}, slug)
	dir = strings.TrimLeft(strings.TrimSpace(dir), ".")
	if dir == "" {
		return "card"
	}
	return dir
}

func uniqueDir(used map[string]bool, slug string) string {
	dir := slug
	for n := 2; used[dir]; n++ {
		dir = fmt.Sprintf("%s-%d", slug, n)
	}
	used[dir] = true
	return dir
}

// zipEpoch: 항목 시각을 고정해서 같은 입력이 같은 묶음을 만든다.
var zipEpoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

func writeZipFile(zw *zip.Writer, name string, body []byte) error {
	fw, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: zipEpoch,
	})
	if err != nil {
		return fmt.Errorf("create archive entry %s: %w", name, err)
	}
	if _, err := fw.Write(body); err != nil {
		return fmt.Errorf("write archive entry %s: %w", name, err)
	}
	return nil
}
