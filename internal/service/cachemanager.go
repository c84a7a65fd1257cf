package service

import (
	"context"
	"sync"

	"DrawSync/internal/bus"
	"DrawSync/internal/cache"
	"DrawSync/internal/model"

	"github.com/sirupsen/logrus"
)

// CacheManager 缓存失效管理：提交事件驱动的尽力而为失效。
// 失效失败只告警——载荷键都带TTL，过期兜底。
type CacheManager struct {
	cache  CacheStore
	keys   *cache.Keys
	logger *logrus.Logger
}

func NewCacheManager(c CacheStore, keys *cache.Keys, logger *logrus.Logger) *CacheManager {
	return &CacheManager{cache: c, keys: keys, logger: logger}
}

// OnDrawCommitted 新开奖落库后并行失效全部受影响的读侧载荷
func (m *CacheManager) OnDrawCommitted(ctx context.Context, d *model.Draw) {
	if !m.cache.Healthy() {
		return
	}

	patterns := []string{
		m.keys.LatestDrawsPattern(),
		m.keys.ExcelLotteryPattern(),
		m.keys.ExcelStatsPattern(),
	}
	singles := []string{
		m.keys.Omission(),
		m.keys.DailyStats(),
	}

	var wg sync.WaitGroup
	for _, p := range patterns {
		p := p
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.cache.ScanDel(ctx, p); err != nil {
				m.logger.WithError(err).WithField("pattern", p).Warn("缓存批量失效失败")
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := m.cache.Del(ctx, singles...); err != nil {
			m.logger.WithError(err).Warn("缓存失效失败")
		}
	}()
	wg.Wait()
}

// OnPredictionCommitted 单路预测提交后失效该类型的预测列表载荷
func (m *CacheManager) OnPredictionCommitted(ctx context.Context, ev bus.PredictionEvent) {
	if !m.cache.Healthy() {
		return
	}
	pattern := m.keys.PredictionsPattern(ev.Type)
	if _, err := m.cache.ScanDel(ctx, pattern); err != nil {
		m.logger.WithError(err).WithFields(logrus.Fields{
			"issue":   ev.Issue,
			"pattern": pattern,
		}).Warn("预测缓存失效失败")
	}
}
