package service

import (
	"context"
	"strconv"
	"time"

	"DrawSync/internal/bus"
	"DrawSync/internal/cache"
	"DrawSync/internal/enrich"
	"DrawSync/internal/model"
	"DrawSync/internal/repository"
	"DrawSync/internal/tracker"
	"DrawSync/internal/utils/retrier"

	"github.com/sirupsen/logrus"
)

// 写入锁TTL与写入重试次数
const (
	writeLockTTL     = 3 * time.Second
	writeMaxAttempts = 3
)

// Coordinator 入库协调器：采集器产出经 追踪器→已见集合→分布式锁 三层去重漏斗，
// 校验、派生后写库，再驱动遗漏/日统计引擎并对外广播提交事件。
// 错误从不回传采集器——采集器下一轮tick即重试。
type Coordinator struct {
	tracker  *tracker.Tracker
	dedup    DedupStore
	locks    LockService
	keys     *cache.Keys
	draws    repository.DrawRepository
	omission *OmissionEngine
	daily    *DailyStatsEngine
	bus      *bus.Bus
	logger   *logrus.Logger
}

func NewCoordinator(
	tr *tracker.Tracker,
	dd DedupStore,
	locks LockService,
	keys *cache.Keys,
	draws repository.DrawRepository,
	omission *OmissionEngine,
	daily *DailyStatsEngine,
	b *bus.Bus,
	logger *logrus.Logger,
) *Coordinator {
	return &Coordinator{
		tracker:  tr,
		dedup:    dd,
		locks:    locks,
		keys:     keys,
		draws:    draws,
		omission: omission,
		daily:    daily,
		bus:      b,
		logger:   logger,
	}
}

// HandleRaw 处理一条采集产出。幂等重复（追踪器滤除/已见/锁被占/唯一键冲突）
// 一律静默丢弃，不产生任何日志。
func (c *Coordinator) HandleRaw(ctx context.Context, raw model.RawDraw) {
	// 1. 进程内水位闸门：吸收N个采集器毫秒级的同期风暴
	if !c.tracker.IsNew(raw.Issue) {
		return
	}

	// 2. 分布式已见集合
	if c.dedup.Seen(ctx, raw.Issue) {
		return
	}

	draw := c.commit(ctx, raw)
	if draw == nil {
		return
	}

	// 8. 对外广播。锁已释放，订阅者在派发协程上执行
	c.bus.PublishDrawCommitted(ctx, draw)
}

// commit 持锁完成一期的提交：复查、校验、派生、写库、统计推进、去重状态落位。
// 返回nil表示本期被丢弃或已由他处提交。
func (c *Coordinator) commit(ctx context.Context, raw model.RawDraw) *model.Draw {
	// 3. 每期互斥锁，非阻塞：拿不到直接放弃本轮
	lockKey := c.keys.IssueLock(raw.Issue)
	token, ok := c.locks.Acquire(ctx, lockKey, writeLockTTL)
	if !ok {
		return nil
	}
	defer c.locks.Release(ctx, lockKey, token)

	// 4. 持锁复查已见集合
	if c.dedup.Seen(ctx, raw.Issue) {
		return nil
	}

	draw, ok := c.prepare(ctx, raw)
	if !ok {
		return nil
	}

	inserted, err := c.write(ctx, draw)
	if err != nil {
		c.logger.WithError(err).WithField("issue", draw.Issue).Error("开奖写入失败")
		return nil
	}
	if !inserted {
		// 唯一键冲突：其他实例已提交本期（统计与事件也已由对方驱动），
		// 只补齐本进程的去重状态
		c.dedup.MarkSeen(ctx, raw.Issue)
		c.tracker.Update(raw.Issue)
		return nil
	}

	// 5. 统计引擎串行推进；失败记日志后吞掉，已提交的开奖不回滚
	if err := c.omission.Apply(ctx, draw); err != nil {
		c.logger.WithError(err).WithField("issue", draw.Issue).Error("遗漏计数更新失败")
	}
	if err := c.daily.Apply(ctx, draw); err != nil {
		c.logger.WithError(err).WithField("issue", draw.Issue).Error("日统计更新失败")
	}

	// 6~7. 标记已见、发布最新期号、推进水位
	c.dedup.MarkSeen(ctx, raw.Issue)
	c.dedup.SetLastIssue(ctx, raw.Issue)
	c.tracker.Update(raw.Issue)

	c.logger.WithFields(logrus.Fields{
		"issue":  draw.Issue,
		"nums":   draw.OpenNums,
		"sum":    draw.Sum,
		"source": draw.Source,
	}).Info("开奖已提交")
	return draw
}

// prepare 校验 + 非回退检查 + 派生
func (c *Coordinator) prepare(ctx context.Context, raw model.RawDraw) (*model.Draw, bool) {
	openTime, err := validateRaw(raw, time.Now())
	if err != nil {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"issue":  raw.Issue,
			"source": raw.Source,
		}).Warn("开奖校验未通过，丢弃")
		return nil, false
	}

	// 非回退检查：多源并发回补允许期号不前进，仅告警不中止
	if last, ok := c.dedup.LastIssue(ctx); ok {
		lastN, _ := strconv.ParseInt(last, 10, 64)
		curN, _ := strconv.ParseInt(raw.Issue, 10, 64)
		if curN <= lastN {
			c.logger.WithFields(logrus.Fields{
				"issue": raw.Issue,
				"last":  last,
			}).Warn("期号未前进，继续处理")
		}
	}

	draw := &model.Draw{
		Issue:    raw.Issue,
		OpenTime: openTime,
		OpenNums: raw.OpenNums,
		Sum:      raw.Sum,
		Source:   raw.Source,
	}
	enrich.Enrich(draw)
	return draw, true
}

// write 带重试的幂等写入。唯一键冲突视为成功空操作，返回 inserted=false。
func (c *Coordinator) write(ctx context.Context, draw *model.Draw) (bool, error) {
	inserted := true
	err := retrier.Do(ctx, writeMaxAttempts, retrier.IsRetriableSQL, func() error {
		err := c.draws.Insert(ctx, draw)
		if retrier.IsDuplicateEntry(err) {
			inserted = false
			return nil
		}
		return err
	})
	return inserted, err
}
