package service

import (
	"context"
	"time"
)

// CacheStore 服务层对分布式缓存的依赖面（*cache.Store 实现）。
// 所有实现都必须把缓存视为尽力而为：不可用时数据通路继续走库。
type CacheStore interface {
	Healthy() bool
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)
	Exists(ctx context.Context, key string) (bool, error)
	Del(ctx context.Context, keys ...string) error
	ScanDel(ctx context.Context, pattern string) (int, error)
}

// DedupStore 去重层依赖面（*dedup.Store 实现）
type DedupStore interface {
	Seen(ctx context.Context, issue string) bool
	MarkSeen(ctx context.Context, issue string)
	LastIssue(ctx context.Context) (string, bool)
	SetLastIssue(ctx context.Context, issue string)
}

// LockService 互斥锁依赖面（*lock.Service 实现）
type LockService interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool)
	Release(ctx context.Context, key, token string)
}

// LLMClient 大模型补全调用（*llm.Client 实现）
type LLMClient interface {
	Complete(ctx context.Context, system, user string) (string, error)
}
