package service

import (
	"context"
	"time"

	"DrawSync/internal/cache"
	"DrawSync/internal/enrich"
	"DrawSync/internal/model"
	"DrawSync/internal/repository"

	"github.com/sirupsen/logrus"
)

// DailyStatsEngine 日统计引擎：(日期, 分类) -> 当日开出次数。
// 逐期幂等标记仅存缓存（TTL至午夜）；缓存跨午夜故障时可能重复计数，
// 以 Rebuild 作为人工修复手段。
type DailyStatsEngine struct {
	repo   repository.DailyStatRepository
	draws  repository.DrawRepository
	cache  CacheStore
	keys   *cache.Keys
	logger *logrus.Logger
}

func NewDailyStatsEngine(repo repository.DailyStatRepository, draws repository.DrawRepository, c CacheStore, keys *cache.Keys, logger *logrus.Logger) *DailyStatsEngine {
	return &DailyStatsEngine{
		repo:   repo,
		draws:  draws,
		cache:  c,
		keys:   keys,
		logger: logger,
	}
}

// Apply 累加一期：当日各命中分类计数+1（组upsert单次往返）
func (e *DailyStatsEngine) Apply(ctx context.Context, d *model.Draw) error {
	date := d.OpenTime.In(model.CSTZone).Format("2006-01-02")
	marker := e.keys.TodayStatsProcessed(date, d.Issue)

	if e.cache.Healthy() {
		if done, err := e.cache.Exists(ctx, marker); err == nil && done {
			return nil
		}
	}

	if err := e.repo.IncrCategories(ctx, date, enrich.Categories(d)); err != nil {
		return err
	}

	if e.cache.Healthy() {
		if err := e.cache.Set(ctx, marker, "1", cache.UntilMidnight(time.Now())); err != nil {
			e.logger.WithError(err).WithField("issue", d.Issue).Warn("日统计幂等标记写入失败")
		}
	}
	return nil
}

// Rebuild 手动重建某日计数：清空后按时间正序重放该日全部开奖，并清理幂等标记。
// 对固定开奖集合重复执行结果一致。
func (e *DailyStatsEngine) Rebuild(ctx context.Context, date string) error {
	if err := e.repo.TruncateDate(ctx, date); err != nil {
		return err
	}

	draws, err := e.draws.ListByDate(ctx, date)
	if err != nil {
		return err
	}
	for _, d := range draws {
		if err := e.repo.IncrCategories(ctx, date, enrich.Categories(d)); err != nil {
			return err
		}
	}

	if e.cache.Healthy() {
		if _, err := e.cache.ScanDel(ctx, e.keys.TodayStatsProcessedPattern(date)); err != nil {
			e.logger.WithError(err).WithField("date", date).Warn("日统计幂等标记清理失败")
		}
	}

	e.logger.WithFields(logrus.Fields{
		"date":  date,
		"draws": len(draws),
	}).Info("日统计重建完成")
	return nil
}
