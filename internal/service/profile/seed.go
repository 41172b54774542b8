package profile

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/TanHoangarc/Admin/internal/domain"
)

//go:embed data/seed.yaml
var seedYAML []byte

type seedFile struct {
	Profiles []*domain.Profile `yaml:"profiles"`
}

var seedCache struct {
	once sync.Once
	data []*domain.Profile
	err  error
}

// SeedProfiles: 임베딩된 초기 프로필 목록. 호출마다 사본을 반환한다.
func SeedProfiles() ([]*domain.Profile, error) {
	seedCache.once.Do(func() {
		seedCache.data, seedCache.err = ParseProfiles(seedYAML)
	})
	if seedCache.err != nil {
		return nil, seedCache.err
	}
	out := make([]*domain.Profile, len(seedCache.data))
	for i, p := range seedCache.data {
		out[i] = p.Clone()
	}
	return out, nil
}

// ParseProfiles: YAML(또는 JSON) 문서를 프로필 목록으로 읽는다.
// "profiles:" 목록 형식과 프로필 하나만 있는 형식을 모두 받는다.
func ParseProfiles(data []byte) ([]*domain.Profile, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse profiles: %w", err)
	}
	if len(f.Profiles) > 0 {
		return f.Profiles, nil
	}

	var single domain.Profile
	if err := yaml.Unmarshal(data, &single); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	return []*domain.Profile{&single}, nil
}
