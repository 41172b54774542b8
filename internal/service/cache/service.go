// Package cache 는 valkey 클라이언트를 감싸 세션, 프로필 KV, 아티팩트 캐시가 함께 쓰는 연산을 제공한다.
package cache

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/valkey-io/valkey-go"

	"github.com/TanHoangarc/Admin/internal/constants"
	"github.com/TanHoangarc/Admin/pkg/errors"
)

// Service: valkey 래퍼
type Service struct {
	client    valkey.Client
	logger    *slog.Logger
	closeOnce sync.Once
}

// Config: valkey 연결 설정
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int

	// DisableCache: 클라이언트 사이드 캐싱(CLIENT TRACKING) 비활성화. miniredis 는 지원하지 않는다.
	DisableCache bool
}

// Addr 은 host:port 다.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// NewCacheService: 연결을 만들고 PING 으로 확인한다.
func NewCacheService(cfg Config, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opt := valkey.ClientOption{
		InitAddress:       []string{cfg.Addr()},
		Password:          cfg.Password,
		SelectDB:          cfg.DB,
		ConnWriteTimeout:  constants.ValkeyConfig.ConnWriteTimeout,
		BlockingPoolSize:  constants.ValkeyConfig.BlockingPoolSize,
		PipelineMultiplex: constants.ValkeyConfig.PipelineMultiplex,
		Dialer:            net.Dialer{Timeout: constants.ValkeyConfig.DialTimeout},
		DisableCache:      cfg.DisableCache,
	}
	if cfg.DisableCache {
		opt.ForceSingleClient = true
	}

	client, err := valkey.NewClient(opt)
	if err != nil {
		return nil, errors.NewCacheError("init", "", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.ValkeyConfig.ReadyTimeout)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, errors.NewCacheError("ping", "", err)
	}

	logger.Info("cache_connected",
		slog.String("addr", cfg.Addr()),
		slog.Int("db", cfg.DB),
		slog.Int("pool_size", constants.ValkeyConfig.BlockingPoolSize),
	)

	return &Service{client: client, logger: logger}, nil
}

// NewFromClient 는 이미 만들어진 클라이언트를 감싼다.
func NewFromClient(client valkey.Client, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{client: client, logger: logger}
}

// IsNil 은 래핑된 에러까지 풀어 valkey nil 응답인지 확인한다.
func IsNil(err error) bool {
	for err != nil {
		if valkey.IsValkeyNil(err) {
			return true
		}
		err = stdErrors.Unwrap(err)
	}
	return false
}

// Get: JSON 값을 dest 로 읽는다. 키가 없으면 dest 를 건드리지 않고 nil 을 반환한다.
func (c *Service) Get(ctx context.Context, key string, dest any) error {
	_, err := c.get(ctx, key, dest)
	return err
}

// Lookup 은 Get 과 같지만 키 존재 여부를 함께 돌려준다.
func (c *Service) Lookup(ctx context.Context, key string, dest any) (bool, error) {
	return c.get(ctx, key, dest)
}

func (c *Service) get(ctx context.Context, key string, dest any) (bool, error) {
	raw, found, err := c.GetBytes(ctx, key)
	if err != nil || !found {
		return false, err
	}
	if dest != nil {
		if err := json.Unmarshal(raw, dest); err != nil {
			c.logger.Error("cache_unmarshal_failed", slog.String("key", key), slog.Any("error", err))
			return true, errors.NewCacheError("get", key, err)
		}
	}
	return true, nil
}

// GetBytes: 원시 값 조회
func (c *Service) GetBytes(ctx context.Context, key string) ([]byte, bool, error) {
	resp := c.client.Do(ctx, c.client.B().Get().Key(key).Build())
	if IsNil(resp.Error()) {
		return nil, false, nil
	}
	if resp.Error() != nil {
		c.logger.Error("cache_get_failed", slog.String("key", key), slog.Any("error", resp.Error()))
		return nil, false, errors.NewCacheError("get", key, resp.Error())
	}
	raw, err := resp.AsBytes()
	if err != nil {
		return nil, false, errors.NewCacheError("get", key, err)
	}
	return raw, true, nil
}

// Set: 값을 JSON 으로 저장한다. ttl <= 0 이면 만료 없음.
func (c *Service) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.NewCacheError("set", key, err)
	}
	return c.SetBytes(ctx, key, data, ttl)
}

// SetBytes: 원시 값 저장 (압축된 아티팩트 등)
func (c *Service) SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var cmd valkey.Completed
	if ttl > 0 {
		cmd = c.client.B().Set().Key(key).Value(valkey.BinaryString(value)).Px(ttl).Build()
	} else {
		cmd = c.client.B().Set().Key(key).Value(valkey.BinaryString(value)).Build()
	}
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		c.logger.Error("cache_set_failed", slog.String("key", key), slog.Any("error", err))
		return errors.NewCacheError("set", key, err)
	}
	return nil
}

// Del: 키 삭제
func (c *Service) Del(ctx context.Context, key string) error {
	if err := c.client.Do(ctx, c.client.B().Del().Key(key).Build()).Error(); err != nil {
		c.logger.Error("cache_del_failed", slog.String("key", key), slog.Any("error", err))
		return errors.NewCacheError("del", key, err)
	}
	return nil
}

// DelMany: 여러 키를 한 번에 삭제하고 삭제된 수를 반환한다.
func (c *Service) DelMany(ctx context.Context, keys []string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	resp := c.client.Do(ctx, c.client.B().Del().Key(keys...).Build())
	if resp.Error() != nil {
		c.logger.Error("cache_del_many_failed", slog.Int("count", len(keys)), slog.Any("error", resp.Error()))
		return 0, errors.NewCacheError("del", fmt.Sprintf("%d keys", len(keys)), resp.Error())
	}
	deleted, err := resp.AsInt64()
	if err != nil {
		return 0, errors.NewCacheError("del", "", err)
	}
	return deleted, nil
}

// SAdd: Set 에 멤버 추가
func (c *Service) SAdd(ctx context.Context, key string, members []string) (int64, error) {
	if len(members) == 0 {
		return 0, nil
	}
	resp := c.client.Do(ctx, c.client.B().Sadd().Key(key).Member(members...).Build())
	if resp.Error() != nil {
		c.logger.Error("cache_sadd_failed", slog.String("key", key), slog.Any("error", resp.Error()))
		return 0, errors.NewCacheError("sadd", key, resp.Error())
	}
	added, err := resp.AsInt64()
	if err != nil {
		return 0, errors.NewCacheError("sadd", key, err)
	}
	return added, nil
}

// SRem: Set 에서 멤버 제거
func (c *Service) SRem(ctx context.Context, key string, members []string) (int64, error) {
	if len(members) == 0 {
		return 0, nil
	}
	resp := c.client.Do(ctx, c.client.B().Srem().Key(key).Member(members...).Build())
	if resp.Error() != nil {
		c.logger.Error("cache_srem_failed", slog.String("key", key), slog.Any("error", resp.Error()))
		return 0, errors.NewCacheError("srem", key, resp.Error())
	}
	removed, err := resp.AsInt64()
	if err != nil {
		return 0, errors.NewCacheError("srem", key, err)
	}
	return removed, nil
}

// SMembers: Set 전체 조회
func (c *Service) SMembers(ctx context.Context, key string) ([]string, error) {
	resp := c.client.Do(ctx, c.client.B().Smembers().Key(key).Build())
	if resp.Error() != nil {
		c.logger.Error("cache_smembers_failed", slog.String("key", key), slog.Any("error", resp.Error()))
		return []string{}, errors.NewCacheError("smembers", key, resp.Error())
	}
	members, err := resp.AsStrSlice()
	if err != nil {
		return []string{}, errors.NewCacheError("smembers", key, err)
	}
	return members, nil
}

// Expire: 만료 시간 설정
func (c *Service) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := c.client.Do(ctx, c.client.B().Pexpire().Key(key).Milliseconds(ttl.Milliseconds()).Build()).Error(); err != nil {
		c.logger.Error("cache_expire_failed", slog.String("key", key), slog.Any("error", err))
		return errors.NewCacheError("expire", key, err)
	}
	return nil
}

// Exists: 키 존재 여부
func (c *Service) Exists(ctx context.Context, key string) (bool, error) {
	resp := c.client.Do(ctx, c.client.B().Exists().Key(key).Build())
	if resp.Error() != nil {
		c.logger.Error("cache_exists_failed", slog.String("key", key), slog.Any("error", resp.Error()))
		return false, errors.NewCacheError("exists", key, resp.Error())
	}
	count, err := resp.AsInt64()
	if err != nil {
		return false, errors.NewCacheError("exists", key, err)
	}
	return count > 0, nil
}

// IncrWithTTL: 카운터를 올리고, 처음 생성된 경우에만 TTL 을 건다. (고정 윈도우 카운터)
func (c *Service) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	resp := c.client.Do(ctx, c.client.B().Incr().Key(key).Build())
	if resp.Error() != nil {
		return 0, errors.NewCacheError("incr", key, resp.Error())
	}
	count, err := resp.AsInt64()
	if err != nil {
		return 0, errors.NewCacheError("incr", key, err)
	}
	if count == 1 && ttl > 0 {
		if err := c.Expire(ctx, key, ttl); err != nil {
			return count, err
		}
	}
	return count, nil
}

// IsConnected: PING 응답 여부
func (c *Service) IsConnected(ctx context.Context) bool {
	return c.client.Do(ctx, c.client.B().Ping().Build()).Error() == nil
}

// Close: 연결 종료. 여러 번 호출해도 안전하다.
func (c *Service) Close() error {
	c.closeOnce.Do(func() {
		if c.client == nil {
			return
		}
		c.client.Close()
		c.logger.Info("cache_disconnected")
	})
	return nil
}

// GetClient 는 내부 valkey 클라이언트를 반환한다.
func (c *Service) GetClient() valkey.Client {
	return c.client
}
