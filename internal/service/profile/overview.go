package profile

import (
	"context"

	"github.com/TanHoangarc/Admin/internal/domain"
	"github.com/TanHoangarc/Admin/pkg/errors"
)

// TrafficPoint: 프로필별 방문/상호작용 막대 하나
type TrafficPoint struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Visits       int64  `json:"visits"`
	Interactions int64  `json:"interactions"`
}

// Overview: 대시보드 집계
type Overview struct {
	TotalProfiles     int             `json:"totalProfiles"`
	ActiveProfiles    int             `json:"activeProfiles"`
	TotalVisits       int64           `json:"totalVisits"`
	TotalInteractions int64           `json:"totalInteractions"`
	TopPerformer      *domain.Profile `json:"topPerformer,omitempty"`
	Traffic           []TrafficPoint  `json:"traffic"`
}

// Overview: 전체 프로필 집계. 방문 수가 같으면 나중 프로필이 top 이 된다.
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.NewServiceError("profile", "overview", err)
	}
	return Summarize(all), nil
}

// Summarize 는 저장소 없이 목록만으로 집계한다.
func Summarize(profiles []*domain.Profile) *Overview {
	out := &Overview{
		TotalProfiles: len(profiles),
		Traffic:       make([]TrafficPoint, 0, len(profiles)),
	}
	for _, p := range profiles {
		out.TotalVisits += p.Visits
		out.TotalInteractions += p.Interactions
		if p.Status == domain.ProfileStatusActive {
			out.ActiveProfiles++
		}
		if out.TopPerformer == nil || p.Visits >= out.TopPerformer.Visits {
			out.TopPerformer = p
		}
		out.Traffic = append(out.Traffic, TrafficPoint{
			ID:           p.ID,
			Name:         p.Name,
			Visits:       p.Visits,
			Interactions: p.Interactions,
		})
	}
	return out
}
