package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"DrawSync/internal/model"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

// memCache CacheStore 的内存实现
type memCache struct {
	mu      sync.Mutex
	data    map[string]string
	healthy bool
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string]string), healthy: true}
}

func (c *memCache) Healthy() bool { return c.healthy }

func (c *memCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) SetNX(_ context.Context, key, value string, _ time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.data[key]; exists {
		return false, nil
	}
	c.data[key] = value
	return true, nil
}

func (c *memCache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok, nil
}

func (c *memCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *memCache) ScanDel(_ context.Context, pattern string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	n := 0
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
			n++
		}
	}
	return n, nil
}

// memDedup DedupStore 的内存实现
type memDedup struct {
	mu   sync.Mutex
	seen map[string]bool
	last string
}

func newMemDedup() *memDedup {
	return &memDedup{seen: make(map[string]bool)}
}

func (d *memDedup) Seen(_ context.Context, issue string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seen[issue]
}

func (d *memDedup) MarkSeen(_ context.Context, issue string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen[issue] = true
}

func (d *memDedup) LastIssue(_ context.Context) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last, d.last != ""
}

func (d *memDedup) SetLastIssue(_ context.Context, issue string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.last = issue
}

// memLocks LockService 的内存实现（SetNX语义）
type memLocks struct {
	mu    sync.Mutex
	held  map[string]string
	seq   int
}

func newMemLocks() *memLocks {
	return &memLocks{held: make(map[string]string)}
}

func (l *memLocks) Acquire(_ context.Context, key string, _ time.Duration) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[key]; busy {
		return "", false
	}
	l.seq++
	token := fmt.Sprintf("tok-%d", l.seq)
	l.held[key] = token
	return token, true
}

func (l *memLocks) Release(_ context.Context, key, token string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
	}
}

// memDrawRepo DrawRepository 的内存实现。Insert 对重复期号返回
// 携带 "Duplicate entry" 文案的错误，模拟唯一键冲突。
type memDrawRepo struct {
	mu    sync.Mutex
	draws map[string]*model.Draw
}

func newMemDrawRepo() *memDrawRepo {
	return &memDrawRepo{draws: make(map[string]*model.Draw)}
}

func (r *memDrawRepo) Insert(_ context.Context, draw *model.Draw) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.draws[draw.Issue]; exists {
		return fmt.Errorf("Error 1062: Duplicate entry '%s' for key 'uk_issue'", draw.Issue)
	}
	cp := *draw
	r.draws[draw.Issue] = &cp
	return nil
}

func (r *memDrawRepo) MaxIssue(_ context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	max := ""
	for issue := range r.draws {
		if issue > max {
			max = issue
		}
	}
	if max == "" {
		return "", gorm.ErrRecordNotFound
	}
	return max, nil
}

func (r *memDrawRepo) GetByIssue(_ context.Context, issue string) (*model.Draw, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.draws[issue]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (r *memDrawRepo) sorted() []*model.Draw {
	issues := make([]string, 0, len(r.draws))
	for issue := range r.draws {
		issues = append(issues, issue)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(issues)))
	out := make([]*model.Draw, 0, len(issues))
	for _, issue := range issues {
		cp := *r.draws[issue]
		out = append(out, &cp)
	}
	return out
}

func (r *memDrawRepo) ListLatest(_ context.Context, limit int) ([]*model.Draw, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.sorted()
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *memDrawRepo) ListPage(_ context.Context, offset, limit int) ([]*model.Draw, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.sorted()
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *memDrawRepo) ListByDate(_ context.Context, date string) ([]*model.Draw, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Draw
	for _, d := range r.draws {
		if d.OpenTime.In(model.CSTZone).Format("2006-01-02") == date {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OpenTime.Before(out[j].OpenTime) })
	return out, nil
}

// memOmissionRepo OmissionRepository 的内存实现
type memOmissionRepo struct {
	mu     sync.Mutex
	counts map[string]int
}

func newMemOmissionRepo() *memOmissionRepo {
	return &memOmissionRepo{counts: make(map[string]int)}
}

func (r *memOmissionRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.counts)), nil
}

func (r *memOmissionRepo) Seed(_ context.Context, counts map[string]int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for cat, n := range counts {
		r.counts[cat] = n
	}
	return nil
}

func (r *memOmissionRepo) ApplyDraw(_ context.Context, held []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	heldSet := make(map[string]bool, len(held))
	for _, cat := range held {
		heldSet[cat] = true
	}
	for cat := range r.counts {
		if heldSet[cat] {
			r.counts[cat] = 0
		} else {
			r.counts[cat]++
		}
	}
	return nil
}

func (r *memOmissionRepo) ListAll(_ context.Context) ([]*model.OmissionCounter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.OmissionCounter, 0, len(r.counts))
	for cat, n := range r.counts {
		out = append(out, &model.OmissionCounter{Category: cat, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

func (r *memOmissionRepo) get(cat string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[cat]
}

// memDailyRepo DailyStatRepository 的内存实现
type memDailyRepo struct {
	mu     sync.Mutex
	counts map[string]int // "date|category" -> count
}

func newMemDailyRepo() *memDailyRepo {
	return &memDailyRepo{counts: make(map[string]int)}
}

func (r *memDailyRepo) IncrCategories(_ context.Context, date string, cats []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cat := range cats {
		r.counts[date+"|"+cat]++
	}
	return nil
}

func (r *memDailyRepo) TruncateDate(_ context.Context, date string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k := range r.counts {
		if strings.HasPrefix(k, date+"|") {
			delete(r.counts, k)
		}
	}
	return nil
}

func (r *memDailyRepo) ListByDate(_ context.Context, date string) ([]*model.DailyStat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.DailyStat
	for k, n := range r.counts {
		if strings.HasPrefix(k, date+"|") {
			out = append(out, &model.DailyStat{
				Date:     date,
				Category: strings.TrimPrefix(k, date+"|"),
				Count:    n,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

func (r *memDailyRepo) get(date, cat string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[date+"|"+cat]
}

// memPredRepo PredictionRepository 的内存实现
type memPredRepo struct {
	mu   sync.Mutex
	rows map[string]*model.Prediction // "issue|type"
}

func newMemPredRepo() *memPredRepo {
	return &memPredRepo{rows: make(map[string]*model.Prediction)}
}

func predKey(issue string, typ model.PredictionType) string {
	return issue + "|" + string(typ)
}

func (r *memPredRepo) Upsert(_ context.Context, p *model.Prediction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := predKey(p.Issue, p.Type)
	if old, ok := r.rows[key]; ok {
		old.PredictedValue = p.PredictedValue
		return nil
	}
	cp := *p
	r.rows[key] = &cp
	return nil
}

func (r *memPredRepo) Get(_ context.Context, issue string, typ model.PredictionType) (*model.Prediction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[predKey(issue, typ)]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *memPredRepo) UpdateOutcome(_ context.Context, p *model.Prediction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.rows[predKey(p.Issue, p.Type)]
	if !ok {
		return fmt.Errorf("预测记录不存在: %s/%s", p.Issue, p.Type)
	}
	old.ActualNumbers = p.ActualNumbers
	old.ActualSum = p.ActualSum
	old.ActualValue = p.ActualValue
	old.Hit = p.Hit
	return nil
}

func (r *memPredRepo) byType(typ model.PredictionType) []*model.Prediction {
	var out []*model.Prediction
	for _, p := range r.rows {
		if p.Type == typ {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Issue > out[j].Issue })
	return out
}

func (r *memPredRepo) ListRecentValues(_ context.Context, typ model.PredictionType, limit int) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows := r.byType(typ)
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	values := make([]string, 0, len(rows))
	for _, p := range rows {
		values = append(values, p.PredictedValue)
	}
	return values, nil
}

func (r *memPredRepo) ListResolved(_ context.Context, typ model.PredictionType, limit int) ([]*model.Prediction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Prediction
	for _, p := range r.byType(typ) {
		if p.Hit != nil {
			out = append(out, p)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memPredRepo) ListLatest(_ context.Context, typ model.PredictionType, limit int) ([]*model.Prediction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows := r.byType(typ)
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// fakeLLM 固定回复的 LLMClient
type fakeLLM struct {
	mu      sync.Mutex
	replies map[string]string // 按system提示词匹配
	errs    map[string]error  // 按system提示词返回错误
	calls   int
}

func (f *fakeLLM) Complete(_ context.Context, system, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err, ok := f.errs[system]; ok {
		return "", err
	}
	if reply, ok := f.replies[system]; ok {
		return reply, nil
	}
	return "单", nil
}

// gateLLM 放行前一直阻塞的 LLMClient，用于占满预测协程池
type gateLLM struct {
	started chan struct{}
	release chan struct{}
}

func (g *gateLLM) Complete(_ context.Context, _, _ string) (string, error) {
	g.started <- struct{}{}
	<-g.release
	return "单", nil
}
