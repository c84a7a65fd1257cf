package adapter

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"DrawSync/internal/model"
	"DrawSync/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

// 轮询间隔钳制范围与单次拉取截止时间
const (
	minInterval  = 500 * time.Millisecond
	maxInterval  = 2 * time.Second
	fetchTimeout = 8 * time.Second
)

// EmitFunc 采集器产出回调。采集器对下游结果完全无感知：
// 失败不回传，下一轮tick即重试。
type EmitFunc func(raw model.RawDraw)

// Poller 单个采集源的定频轮询器：启动即拉一次，其后按固定间隔拉取。
// 非200、传输错误、解析无记录一律静默丢弃本轮。
type Poller struct {
	src    Source
	parser Parser
	client *http.Client
	emit   EmitFunc
	logger *logrus.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewPoller(src Source, emit EmitFunc, logger *logrus.Logger) (*Poller, error) {
	parser, ok := GetParser(src.ParserID)
	if !ok {
		return nil, fmt.Errorf("采集源%s引用了未注册的解析器%s", src.Name, src.ParserID)
	}
	if src.Interval < minInterval {
		src.Interval = minInterval
	}
	if src.Interval > maxInterval {
		src.Interval = maxInterval
	}
	client := httpclient.New(httpclient.Options{
		Timeout: fetchTimeout,
		SkipTLS: src.SkipTLS,
	}, logger)
	return &Poller{
		src:    src,
		parser: parser,
		client: client,
		emit:   emit,
		logger: logger,
	}, nil
}

// Start 启动轮询。重复调用无效。
func (p *Poller) Start(ctx context.Context) {
	if p.cancel != nil {
		return
	}
	ctx, p.cancel = context.WithCancel(ctx)
	p.wg.Add(1)
	go p.loop(ctx)
	p.logger.WithFields(logrus.Fields{
		"source":   p.src.Name,
		"interval": p.src.Interval.String(),
	}).Info("采集器已启动")
}

// Stop 停止轮询并等待在途拉取结束
func (p *Poller) Stop() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	p.wg.Wait()
	p.logger.WithField("source", p.src.Name).Info("采集器已停止")
}

func (p *Poller) loop(ctx context.Context) {
	defer p.wg.Done()

	p.fetchOnce(ctx)
	tk := time.NewTicker(p.src.Interval)
	defer tk.Stop()
	for {
		select {
		case <-tk.C:
			p.fetchOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *Poller) fetchOnce(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.src.URL, nil)
	if err != nil {
		p.logger.WithError(err).WithField("source", p.src.Name).Warn("构建请求失败")
		return
	}
	for k, v := range p.src.Headers {
		req.Header.Set(k, v)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		// 传输错误静默丢弃，下一轮重试
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body) // 读尽以复用连接
		return
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return
	}

	raw, err := p.parser(body)
	if err != nil {
		p.logger.WithError(err).WithField("source", p.src.Name).Warn("响应解析失败，丢弃本轮")
		return
	}
	if raw == nil {
		return
	}
	raw.Source = p.src.Name
	p.emit(*raw)
}
