package tracker

import (
	"context"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"
)

// MaxIssueReader 初始化时读取库内最大期号
type MaxIssueReader interface {
	MaxIssue(ctx context.Context) (string, error)
}

// Tracker 进程内最新期号水位线。N个采集器在毫秒级窗口内观测到同一期时，
// 只有第一个调用方能通过该闸门到达分布式层，其余直接丢弃。
type Tracker struct {
	mu     sync.Mutex
	latest int64
	ready  bool
	logger *logrus.Logger
}

func New(logger *logrus.Logger) *Tracker {
	return &Tracker{logger: logger}
}

// Initialize 读库失败时放行初始化（fail-open）：水位置"0"、标记未就绪，仍返回成功。
// 未就绪期间 IsNew 恒为 true，由下游去重层兜底。
func (t *Tracker) Initialize(ctx context.Context, reader MaxIssueReader) error {
	issue, err := reader.MaxIssue(ctx)
	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		t.latest = 0
		t.ready = false
		t.logger.WithError(err).Warn("期号追踪器初始化读库失败，降级为放行模式")
		return nil
	}
	n, convErr := strconv.ParseInt(issue, 10, 64)
	if convErr != nil {
		n = 0
	}
	t.latest = n
	t.ready = true
	t.logger.WithField("latest_issue", issue).Info("期号追踪器初始化完成")
	return nil
}

// IsNew 判断期号是否严格大于当前水位。未就绪时从不过滤。
func (t *Tracker) IsNew(issue string) bool {
	n, err := strconv.ParseInt(issue, 10, 64)
	if err != nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.ready {
		return true
	}
	return n > t.latest
}

// Update 仅接受严格递增的期号，非递增更新告警后忽略
func (t *Tracker) Update(issue string) {
	n, err := strconv.ParseInt(issue, 10, 64)
	if err != nil {
		t.logger.WithField("issue", issue).Warn("期号追踪器收到非法期号，忽略")
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ready && n <= t.latest {
		t.logger.WithFields(logrus.Fields{
			"issue":  issue,
			"latest": t.latest,
		}).Warn("期号追踪器收到非递增更新，忽略")
		return
	}
	t.latest = n
	t.ready = true
}

// Latest 当前水位（调试/健康接口用）
func (t *Tracker) Latest() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strconv.FormatInt(t.latest, 10)
}
