package lock

import (
	"context"
	"sync"
	"time"

	"DrawSync/internal/cache"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Service 分布式互斥锁（SET NX EX + 持有者令牌），远端不健康时降级为进程内锁。
// 降级期间多进程互斥失效，由数据库唯一键兜底。
type Service struct {
	cache  *cache.Store
	logger *logrus.Logger

	mu    sync.Mutex
	local map[string]localLock
}

type localLock struct {
	token   string
	expires time.Time
}

func NewService(c *cache.Store, logger *logrus.Logger) *Service {
	return &Service{
		cache:  c,
		logger: logger,
		local:  make(map[string]localLock),
	}
}

// Acquire 非阻塞获取。成功返回持有者令牌，失败返回 ok=false（不重试，调用方直接放弃本轮）。
func (s *Service) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool) {
	token := uuid.NewString()
	if s.cache.Healthy() {
		ok, err := s.cache.SetNX(ctx, key, token, ttl)
		if err == nil {
			return token, ok
		}
		s.logger.WithError(err).WithField("key", key).Debug("远端锁获取失败，降级本地锁")
	}
	return token, s.acquireLocal(key, token, ttl)
}

// Release 释放锁。仅持有者令牌匹配时删除，过期后被他人持有的锁不会被误删。
func (s *Service) Release(ctx context.Context, key, token string) {
	s.releaseLocal(key, token)
	if !s.cache.Healthy() {
		return
	}
	val, ok, err := s.cache.Get(ctx, key)
	if err != nil || !ok || val != token {
		return
	}
	if err := s.cache.Del(ctx, key); err != nil {
		s.logger.WithError(err).WithField("key", key).Debug("远端锁释放失败，等待TTL过期")
	}
}

func (s *Service) acquireLocal(key, token string, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if held, ok := s.local[key]; ok && now.Before(held.expires) {
		return false
	}
	s.local[key] = localLock{token: token, expires: now.Add(ttl)}
	return true
}

func (s *Service) releaseLocal(key, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if held, ok := s.local[key]; ok && held.token == token {
		delete(s.local, key)
	}
}
