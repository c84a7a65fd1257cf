package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"DrawSync/internal/bus"
	"DrawSync/internal/cache"
	"DrawSync/internal/model"
	"DrawSync/internal/repository"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/sirupsen/logrus"
)

// 预测周期参数
const (
	predictLockTTL  = 300 * time.Second // 覆盖整个预测周期，到期自动失效
	predictPoolSize = 4                 // 四路预测并行
	historyLimit    = 50
	recentValLimit  = 10
)

// issueProgress 单期四路任务的完成进度
type issueProgress struct {
	finished atomic.Int32
	hits     atomic.Int32
}

// Orchestrator 预测编排器。开奖提交后竞争预测锁，胜出实例为下一期并行
// 发起四路独立预测；四路全部结束后广播 all-predictions-committed。
// 整个周期为旁路：任何失败只影响预测数据，不影响开奖主通路。
type Orchestrator struct {
	repo   repository.PredictionRepository
	draws  repository.DrawRepository
	llm    LLMClient
	locks  LockService
	keys   *cache.Keys
	bus    *bus.Bus
	pool   *ants.Pool
	logger *logrus.Logger

	progress sync.Map // issue -> *issueProgress
}

func NewOrchestrator(
	repo repository.PredictionRepository,
	draws repository.DrawRepository,
	llm LLMClient,
	locks LockService,
	keys *cache.Keys,
	b *bus.Bus,
	logger *logrus.Logger,
) (*Orchestrator, error) {
	pool, err := ants.NewPool(predictPoolSize, ants.WithNonblocking(false))
	if err != nil {
		return nil, fmt.Errorf("创建预测协程池失败: %w", err)
	}
	return &Orchestrator{
		repo:   repo,
		draws:  draws,
		llm:    llm,
		locks:  locks,
		keys:   keys,
		bus:    b,
		pool:   pool,
		logger: logger,
	}, nil
}

// OnDrawCommitted draw-committed 订阅入口。订阅者路径绝不能被预测周期
// 拖住（上一周期的任务可能还占着协程池），锁竞争与任务提交全部转入
// 独立协程，派发协程立即返回。
func (o *Orchestrator) OnDrawCommitted(ctx context.Context, d *model.Draw) {
	next, err := nextIssue(d.Issue)
	if err != nil {
		o.logger.WithError(err).WithField("issue", d.Issue).Warn("期号推进失败，跳过本轮预测")
		return
	}
	go o.startCycle(ctx, d.Issue, next)
}

// startCycle 竞争预测锁，胜出后为下一期并行发起四路预测
func (o *Orchestrator) startCycle(ctx context.Context, base, next string) {
	// 每期预测锁：多实例部署下只有一个实例发起预测。
	// 不主动释放，靠TTL覆盖周期，避免任务尚在执行时锁被提前让出。
	if _, ok := o.locks.Acquire(ctx, o.keys.PredictLock(next), predictLockTTL); !ok {
		return
	}

	batchID := uuid.NewString()
	o.logger.WithFields(logrus.Fields{
		"batch": batchID,
		"base":  base,
		"next":  next,
	}).Info("预测周期开始")

	prog := &issueProgress{}
	o.progress.Store(next, prog)

	for _, typ := range model.AllPredictionTypes() {
		typ := typ
		if err := o.pool.Submit(func() {
			o.runOne(ctx, batchID, next, typ, prog)
		}); err != nil {
			o.logger.WithError(err).WithFields(logrus.Fields{
				"batch": batchID,
				"type":  typ,
			}).Error("预测任务提交失败")
			o.finishOne(ctx, next, prog, false)
		}
	}
}

// runOne 单路预测：取历史与近期预测值 -> 构造提示词 -> 调用模型 -> 解析 -> 落库 -> 广播
func (o *Orchestrator) runOne(ctx context.Context, batchID, issue string, typ model.PredictionType, prog *issueProgress) {
	start := time.Now()
	ok := false
	defer func() { o.finishOne(ctx, issue, prog, ok) }()

	log := o.logger.WithFields(logrus.Fields{
		"batch": batchID,
		"issue": issue,
		"type":  typ,
	})

	history, err := o.draws.ListLatest(ctx, historyLimit)
	if err != nil {
		log.WithError(err).Error("预测历史数据加载失败")
		return
	}
	if len(history) == 0 {
		log.Warn("暂无历史开奖，跳过预测")
		return
	}

	recent, err := o.repo.ListRecentValues(ctx, typ, recentValLimit)
	if err != nil {
		// 偏置提示是锦上添花，取不到不挡预测
		log.WithError(err).Warn("近期预测值加载失败，偏置提示退化")
		recent = nil
	}

	system, user := BuildPrompt(typ, history, recent, time.Now())
	reply, err := o.llm.Complete(ctx, system, user)
	if err != nil {
		log.WithError(err).Error("模型调用失败")
		return
	}

	value, err := ParseReply(typ, reply)
	if err != nil {
		// 文法违例视为终态，不重试
		log.WithError(err).Error("模型回复解析失败")
		return
	}

	if err := o.repo.Upsert(ctx, &model.Prediction{
		Issue:          issue,
		Type:           typ,
		PredictedValue: value,
	}); err != nil {
		log.WithError(err).Error("预测落库失败")
		return
	}

	elapsed := time.Since(start)
	log.WithFields(logrus.Fields{
		"value":   value,
		"cost_ms": elapsed.Milliseconds(),
	}).Info("预测已提交")

	o.bus.PublishPredictionCommitted(ctx, bus.PredictionEvent{
		Issue:      issue,
		Type:       typ,
		Value:      value,
		DurationMS: elapsed.Milliseconds(),
	})
	ok = true
}

// finishOne 记一路完成；四路全部结束（无论成败）后回收进度并广播全量
// 完成事件，部分失败只告警——命中率刷新对账的是已落库的预测，不受影响
func (o *Orchestrator) finishOne(ctx context.Context, issue string, prog *issueProgress, succeeded bool) {
	if succeeded {
		prog.hits.Add(1)
	}
	if prog.finished.Add(1) != predictPoolSize {
		return
	}
	o.progress.Delete(issue)
	if done := int(prog.hits.Load()); done < len(model.AllPredictionTypes()) {
		o.logger.WithFields(logrus.Fields{
			"issue": issue,
			"done":  done,
		}).Warn("预测周期部分失败")
	}
	o.bus.PublishAllPredictionsCommitted(ctx, issue)
}

// Close 停机时释放协程池
func (o *Orchestrator) Close() {
	o.pool.Release()
}

// nextIssue 七位期号+1，保留前导零
func nextIssue(issue string) (string, error) {
	n, err := strconv.ParseInt(issue, 10, 64)
	if err != nil {
		return "", fmt.Errorf("期号%q不可解析: %w", issue, err)
	}
	return fmt.Sprintf("%07d", n+1), nil
}
