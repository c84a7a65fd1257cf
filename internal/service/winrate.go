package service

import (
	"context"
	"encoding/json"
	"time"

	"DrawSync/internal/cache"
	"DrawSync/internal/model"
	"DrawSync/internal/repository"

	"github.com/sirupsen/logrus"
)

// 命中率快照缓存TTL与统计窗口
const (
	winRateTTL    = 5 * time.Minute
	winRateWindow = 100
)

// WinRateService 命中率服务：按类型统计最近100条已验证预测的命中情况，
// 快照进缓存。缓存不可用时直接走库计算。
type WinRateService struct {
	repo   repository.PredictionRepository
	cache  CacheStore
	keys   *cache.Keys
	logger *logrus.Logger
}

func NewWinRateService(repo repository.PredictionRepository, c CacheStore, keys *cache.Keys, logger *logrus.Logger) *WinRateService {
	return &WinRateService{repo: repo, cache: c, keys: keys, logger: logger}
}

// Get 命中率快照，缓存读穿
func (s *WinRateService) Get(ctx context.Context, typ model.PredictionType) (*model.HitRate, error) {
	key := s.keys.WinRate(typ)
	if s.cache.Healthy() {
		if raw, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			var hr model.HitRate
			if json.Unmarshal([]byte(raw), &hr) == nil {
				return &hr, nil
			}
		}
	}

	hr, err := s.compute(ctx, typ)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, hr)
	return hr, nil
}

// RefreshAll 四路预测全部提交后重算并回填快照（all-predictions-committed 订阅）
func (s *WinRateService) RefreshAll(ctx context.Context, issue string) {
	for _, typ := range model.AllPredictionTypes() {
		hr, err := s.compute(ctx, typ)
		if err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"issue": issue,
				"type":  typ,
			}).Error("命中率重算失败")
			continue
		}
		s.store(ctx, s.keys.WinRate(typ), hr)
	}
}

func (s *WinRateService) compute(ctx context.Context, typ model.PredictionType) (*model.HitRate, error) {
	rows, err := s.repo.ListResolved(ctx, typ, winRateWindow)
	if err != nil {
		return nil, err
	}
	hr := &model.HitRate{Type: typ, Total: len(rows)}
	for _, p := range rows {
		if p.Hit != nil && *p.Hit {
			hr.Hits++
		}
	}
	hr.Misses = hr.Total - hr.Hits
	if hr.Total > 0 {
		hr.Rate = float64(hr.Hits) / float64(hr.Total)
	}
	return hr, nil
}

func (s *WinRateService) store(ctx context.Context, key string, hr *model.HitRate) {
	if !s.cache.Healthy() {
		return
	}
	raw, err := json.Marshal(hr)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(raw), winRateTTL); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("命中率快照写缓存失败")
	}
}
