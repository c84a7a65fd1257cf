package dedup

import (
	"context"
	"time"

	"DrawSync/internal/cache"

	"github.com/sirupsen/logrus"
)

// seenTTL 已见集合成员的远端TTL
const seenTTL = time.Hour

// Store 去重存储：分布式已见集合 + 最新期号指针，带文件持久化的本地降级层。
// 远端不健康时仅依赖本地集合，多进程部署在故障窗口内可能放行重复，
// 由数据库唯一键 upsert 吸收。
type Store struct {
	cache  *cache.Store
	keys   *cache.Keys
	local  *localSet
	logger *logrus.Logger
}

func NewStore(c *cache.Store, keys *cache.Keys, snapshotPath string, logger *logrus.Logger) *Store {
	return &Store{
		cache:  c,
		keys:   keys,
		local:  newLocalSet(snapshotPath, logger),
		logger: logger,
	}
}

// Seen 判断期号是否已处理过。远端查询失败时回退本地集合。
func (s *Store) Seen(ctx context.Context, issue string) bool {
	if s.cache.Healthy() {
		ok, err := s.cache.Exists(ctx, s.keys.SeenIssue(issue))
		if err == nil {
			return ok || s.local.seen(issue)
		}
		s.logger.WithError(err).Debug("已见集合远端查询失败，回退本地")
	}
	return s.local.seen(issue)
}

// MarkSeen 标记期号已处理（远端TTL 1小时）。本地集合恒写，
// 以便远端故障切换后仍有热数据。
func (s *Store) MarkSeen(ctx context.Context, issue string) {
	s.local.mark(issue)
	if !s.cache.Healthy() {
		return
	}
	if err := s.cache.Set(ctx, s.keys.SeenIssue(issue), "1", seenTTL); err != nil {
		s.logger.WithError(err).WithField("issue", issue).Warn("已见集合远端写入失败")
	}
}

// LastIssue 读取最新期号指针
func (s *Store) LastIssue(ctx context.Context) (string, bool) {
	if s.cache.Healthy() {
		val, ok, err := s.cache.Get(ctx, s.keys.LastIssue())
		if err == nil {
			if ok {
				return val, true
			}
			// 远端无值时回退本地快照
		} else {
			s.logger.WithError(err).Debug("最新期号指针远端读取失败，回退本地")
		}
	}
	last := s.local.getLastIssue()
	return last, last != ""
}

// SetLastIssue 发布最新期号指针（无TTL）
func (s *Store) SetLastIssue(ctx context.Context, issue string) {
	s.local.setLastIssue(issue)
	if !s.cache.Healthy() {
		return
	}
	if err := s.cache.Set(ctx, s.keys.LastIssue(), issue, 0); err != nil {
		s.logger.WithError(err).WithField("issue", issue).Warn("最新期号指针远端写入失败")
	}
}

// Close 停止后台落盘并写出最终快照
func (s *Store) Close() {
	s.local.close()
}
