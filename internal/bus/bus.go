package bus

import (
	"context"
	"sync"

	"DrawSync/internal/model"

	"github.com/sirupsen/logrus"
)

// drawBuffer draw-committed 事件的有界缓冲。写入方在缓冲满时阻塞，
// 以保证事件按提交顺序全量送达（对账/验证依赖此序）。
const drawBuffer = 256

// PredictionEvent prediction-committed 事件载荷
type PredictionEvent struct {
	Issue      string
	Type       model.PredictionType
	Value      string
	DurationMS int64
}

type (
	DrawHandler       func(ctx context.Context, draw *model.Draw)
	PredictionHandler func(ctx context.Context, ev PredictionEvent)
	AllDoneHandler    func(ctx context.Context, issue string)
)

// Bus 进程内类型化事件总线。draw-committed 由独立派发协程按提交顺序依次调用
// 订阅者（注册顺序即调用顺序）；订阅者异常记录后吞掉，不回传发布方。
type Bus struct {
	logger *logrus.Logger

	drawCh   chan *model.Draw
	drawSubs []DrawHandler

	mu       sync.RWMutex
	predSubs []PredictionHandler
	allSubs  []AllDoneHandler

	wg sync.WaitGroup
}

func New(logger *logrus.Logger) *Bus {
	return &Bus{
		logger: logger,
		drawCh: make(chan *model.Draw, drawBuffer),
	}
}

// SubscribeDraw 订阅 draw-committed。须在 Start 前完成注册。
func (b *Bus) SubscribeDraw(h DrawHandler) {
	b.drawSubs = append(b.drawSubs, h)
}

// SubscribePrediction 订阅 prediction-committed
func (b *Bus) SubscribePrediction(h PredictionHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.predSubs = append(b.predSubs, h)
}

// SubscribeAllPredictionsDone 订阅 all-predictions-committed
func (b *Bus) SubscribeAllPredictionsDone(h AllDoneHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.allSubs = append(b.allSubs, h)
}

// Start 启动派发协程，ctx 取消后停止
func (b *Bus) Start(ctx context.Context) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for {
			select {
			case draw := <-b.drawCh:
				for _, h := range b.drawSubs {
					b.safeInvokeDraw(ctx, h, draw)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// PublishDrawCommitted 发布开奖提交事件。调用方不得持有该期的写入锁。
func (b *Bus) PublishDrawCommitted(ctx context.Context, draw *model.Draw) {
	select {
	case b.drawCh <- draw:
	case <-ctx.Done():
		b.logger.WithField("issue", draw.Issue).Warn("事件总线已停止，draw-committed 丢弃")
	}
}

// PublishPredictionCommitted 在发布方协程上同步调用订阅者
func (b *Bus) PublishPredictionCommitted(ctx context.Context, ev PredictionEvent) {
	b.mu.RLock()
	subs := b.predSubs
	b.mu.RUnlock()
	for _, h := range subs {
		b.safeInvokePrediction(ctx, h, ev)
	}
}

// PublishAllPredictionsCommitted 某期四路预测全部完成
func (b *Bus) PublishAllPredictionsCommitted(ctx context.Context, issue string) {
	b.mu.RLock()
	subs := b.allSubs
	b.mu.RUnlock()
	for _, h := range subs {
		b.safeInvokeAllDone(ctx, h, issue)
	}
}

// Wait 等待派发协程退出（优雅停机用）
func (b *Bus) Wait() {
	b.wg.Wait()
}

func (b *Bus) safeInvokeDraw(ctx context.Context, h DrawHandler, draw *model.Draw) {
	defer func() {
		if p := recover(); p != nil {
			b.logger.WithField("issue", draw.Issue).Errorf("draw-committed 订阅者panic: %v", p)
		}
	}()
	h(ctx, draw)
}

func (b *Bus) safeInvokePrediction(ctx context.Context, h PredictionHandler, ev PredictionEvent) {
	defer func() {
		if p := recover(); p != nil {
			b.logger.WithField("issue", ev.Issue).Errorf("prediction-committed 订阅者panic: %v", p)
		}
	}()
	h(ctx, ev)
}

func (b *Bus) safeInvokeAllDone(ctx context.Context, h AllDoneHandler, issue string) {
	defer func() {
		if p := recover(); p != nil {
			b.logger.WithField("issue", issue).Errorf("all-predictions-committed 订阅者panic: %v", p)
		}
	}()
	h(ctx, issue)
}
