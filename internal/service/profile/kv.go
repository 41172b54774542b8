package profile

import (
	"context"
	"fmt"
	"sync"

	"github.com/goccy/go-json"

	"github.com/TanHoangarc/Admin/internal/constants"
	"github.com/TanHoangarc/Admin/internal/domain"
	"github.com/TanHoangarc/Admin/internal/service/cache"
	"github.com/TanHoangarc/Admin/pkg/errors"
)

// KV: 문자열 키 하나에 바이트 값을 저장하는 최소 저장소.
// Get 은 키가 없으면 (nil, false, nil) 을 반환한다.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Clear(ctx context.Context, key string) error
}

// ValkeyKV: cache.Service 위의 KV
type ValkeyKV struct {
	cache *cache.Service
}

// NewValkeyKV 는 만료 없는 valkey KV 를 만든다.
func NewValkeyKV(c *cache.Service) *ValkeyKV {
	return &ValkeyKV{cache: c}
}

func (k *ValkeyKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return k.cache.GetBytes(ctx, key)
}

func (k *ValkeyKV) Set(ctx context.Context, key string, value []byte) error {
	return k.cache.SetBytes(ctx, key, value, 0)
}

func (k *ValkeyKV) Clear(ctx context.Context, key string) error {
	return k.cache.Del(ctx, key)
}

// MemoryKV: 프로세스 메모리 KV. 테스트와 단독 실행용.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryKV 는 빈 메모리 KV 를 만든다.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemoryKV) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryKV) Clear(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// KVRepository: 전체 프로필 목록을 JSON 배열 하나로 KV 에 저장한다.
// 읽기-수정-쓰기는 프로세스 내 뮤텍스로만 직렬화되므로 인스턴스 하나에서만 쓴다.
type KVRepository struct {
	kv  KV
	key string
	mu  sync.Mutex
}

// NewKVRepository 는 key 가 비어 있으면 기본 저장 키를 쓴다.
func NewKVRepository(kv KV, key string) *KVRepository {
	if key == "" {
		key = constants.ProfileStoreConfig.StorageKey
	}
	return &KVRepository{kv: kv, key: key}
}

func (r *KVRepository) load(ctx context.Context) ([]*domain.Profile, error) {
	raw, found, err := r.kv.Get(ctx, r.key)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", r.key, err)
	}
	if !found || len(raw) == 0 {
		return []*domain.Profile{}, nil
	}
	var list []*domain.Profile
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", r.key, err)
	}
	return list, nil
}

func (r *KVRepository) save(ctx context.Context, list []*domain.Profile) error {
	raw, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", r.key, err)
	}
	if err := r.kv.Set(ctx, r.key, raw); err != nil {
		return fmt.Errorf("failed to write %s: %w", r.key, err)
	}
	return nil
}

func indexOf(list []*domain.Profile, id string) int {
	for i, p := range list {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (r *KVRepository) List(ctx context.Context) ([]*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

func (r *KVRepository) Get(ctx context.Context, id string) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	if i := indexOf(list, id); i >= 0 {
		return list[i], nil
	}
	return nil, errors.ErrNotFound
}

func (r *KVRepository) Create(ctx context.Context, p *domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	list, err := r.load(ctx)
	if err != nil {
		return err
	}
	if indexOf(list, p.ID) >= 0 {
		return fmt.Errorf("profile %s already exists", p.ID)
	}
	return r.save(ctx, append(list, p.Clone()))
}

func (r *KVRepository) Update(ctx context.Context, p *domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	list, err := r.load(ctx)
	if err != nil {
		return err
	}
	i := indexOf(list, p.ID)
	if i < 0 {
		return errors.ErrNotFound
	}
	list[i] = p.Clone()
	return r.save(ctx, list)
}

func (r *KVRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	list, err := r.load(ctx)
	if err != nil {
		return err
	}
	i := indexOf(list, id)
	if i < 0 {
		return errors.ErrNotFound
	}
	return r.save(ctx, append(list[:i], list[i+1:]...))
}
