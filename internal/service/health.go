package service

import (
	"context"
	"sync/atomic"
	"time"

	"DrawSync/internal/cache"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// 健康检查节奏：健康态放慢，故障态加密以尽快感知恢复
const (
	healthyInterval   = 15 * time.Second
	unhealthyInterval = 3 * time.Second
	probeTimeout      = 2 * time.Second
)

// HealthStatus /health 端点载荷
type HealthStatus struct {
	Redis bool `json:"redis"`
	MySQL bool `json:"mysql"`
}

// HealthChecker 周期探活 Redis 与 MySQL。Redis 探活结果直接驱动缓存健康标记，
// 去重/锁层据此切换本地降级。
type HealthChecker struct {
	store  *cache.Store
	db     *gorm.DB
	logger *logrus.Logger

	dbHealthy atomic.Bool
}

func NewHealthChecker(store *cache.Store, db *gorm.DB, logger *logrus.Logger) *HealthChecker {
	h := &HealthChecker{store: store, db: db, logger: logger}
	h.dbHealthy.Store(true)
	return h
}

// Start 启动探活循环，ctx 取消后退出
func (h *HealthChecker) Start(ctx context.Context) {
	go h.loop(ctx)
}

func (h *HealthChecker) loop(ctx context.Context) {
	h.probe(ctx)
	for {
		interval := healthyInterval
		if !h.store.Healthy() || !h.dbHealthy.Load() {
			interval = unhealthyInterval
		}
		select {
		case <-time.After(interval):
			h.probe(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (h *HealthChecker) probe(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	wasHealthy := h.store.Healthy()
	if err := h.store.Ping(pctx); err != nil {
		h.store.SetHealthy(false)
		if wasHealthy {
			h.logger.WithError(err).Warn("Redis不可达，去重与锁切换本地降级")
		}
	} else {
		h.store.SetHealthy(true)
		if !wasHealthy {
			h.logger.Info("Redis已恢复")
		}
	}

	dbWas := h.dbHealthy.Load()
	if err := h.pingDB(pctx); err != nil {
		h.dbHealthy.Store(false)
		if dbWas {
			h.logger.WithError(err).Warn("MySQL探活失败")
		}
	} else {
		h.dbHealthy.Store(true)
		if !dbWas {
			h.logger.Info("MySQL已恢复")
		}
	}
}

func (h *HealthChecker) pingDB(ctx context.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Status 当前健康快照
func (h *HealthChecker) Status() HealthStatus {
	return HealthStatus{
		Redis: h.store.Healthy(),
		MySQL: h.dbHealthy.Load(),
	}
}
