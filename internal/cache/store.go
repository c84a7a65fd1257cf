package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// scanDelBatch 按模式删除时单批最多删除的键数
const scanDelBatch = 1000

// Store 分布式缓存封装。所有数据通路都必须在缓存不可用时仍然可用（变慢），
// 因此调用方应把这里的错误视为可降级信号而非致命错误。
type Store struct {
	rdb     *redis.Client
	logger  *logrus.Logger
	healthy atomic.Bool
}

func NewStore(rdb *redis.Client, logger *logrus.Logger) *Store {
	s := &Store{rdb: rdb, logger: logger}
	s.healthy.Store(true)
	return s
}

// Healthy 当前健康标记，由健康检查器维护；去重/锁的本地降级依据此标记
func (s *Store) Healthy() bool { return s.healthy.Load() }

func (s *Store) SetHealthy(ok bool) { s.healthy.Store(ok) }

// Ping 健康检查探针
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Get 读取键值。键不存在返回 ("", false, nil)。
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Set 写入键值。ttl<=0 表示不过期。
func (s *Store) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return s.rdb.Set(ctx, key, value, ttl).Err()
}

// SetNX 不存在才写入，返回是否写入成功（分布式锁与幂等标记共用）
func (s *Store) SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, key, value, ttl).Result()
}

// Exists 成员存在性判断
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Del 删除指定键
func (s *Store) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.rdb.Del(ctx, keys...).Err()
}

// ScanDel 按模式删除：SCAN 游标迭代（非阻塞），每批最多1000个键批量删除
func (s *Store) ScanDel(ctx context.Context, pattern string) (int, error) {
	var (
		cursor  uint64
		deleted int
		batch   []string
	)
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, pattern, scanDelBatch).Result()
		if err != nil {
			return deleted, err
		}
		batch = append(batch, keys...)
		for len(batch) >= scanDelBatch {
			if err := s.rdb.Del(ctx, batch[:scanDelBatch]...).Err(); err != nil {
				return deleted, err
			}
			deleted += scanDelBatch
			batch = batch[scanDelBatch:]
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	if len(batch) > 0 {
		if err := s.rdb.Del(ctx, batch...).Err(); err != nil {
			return deleted, err
		}
		deleted += len(batch)
	}
	return deleted, nil
}
