package service

import (
	"context"
	"testing"

	"DrawSync/internal/bus"
	"DrawSync/internal/cache"
	"DrawSync/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheManagerDrawCommitInvalidation(t *testing.T) {
	ctx := context.Background()
	keys := cache.NewKeys("test:")
	c := newMemCache()
	m := NewCacheManager(c, keys, testLogger())

	seed := map[string]string{
		keys.LatestDraws(20):                      "[]",
		keys.LatestDraws(50):                      "[]",
		keys.Omission():                           "[]",
		keys.DailyStats():                         "[]",
		keys.ExcelLottery(100):                    "csv",
		keys.ExcelStats(7):                        "csv",
		keys.Predictions(model.PredictParity, 10): "[]",
		keys.WinRate(model.PredictParity):         "{}",
	}
	for k, v := range seed {
		require.NoError(t, c.Set(ctx, k, v, 0))
	}

	m.OnDrawCommitted(ctx, seededDraw("1000001", "3+5+8"))

	for _, k := range []string{
		keys.LatestDraws(20),
		keys.LatestDraws(50),
		keys.Omission(),
		keys.DailyStats(),
		keys.ExcelLottery(100),
		keys.ExcelStats(7),
	} {
		_, ok, err := c.Get(ctx, k)
		require.NoError(t, err)
		assert.False(t, ok, k)
	}

	// 预测侧载荷不随开奖提交失效，由 prediction-committed 单独驱动
	for _, k := range []string{
		keys.Predictions(model.PredictParity, 10),
		keys.WinRate(model.PredictParity),
	} {
		_, ok, err := c.Get(ctx, k)
		require.NoError(t, err)
		assert.True(t, ok, k)
	}
}

func TestCacheManagerPredictionCommitInvalidatesOnlyItsType(t *testing.T) {
	ctx := context.Background()
	keys := cache.NewKeys("test:")
	c := newMemCache()
	m := NewCacheManager(c, keys, testLogger())

	seed := map[string]string{
		keys.Predictions(model.PredictParity, 10):    "[]",
		keys.Predictions(model.PredictParity, 50):    "[]",
		keys.Predictions(model.PredictMagnitude, 10): "[]",
		keys.WinRate(model.PredictParity):            "{}",
		keys.LatestDraws(20):                         "[]",
	}
	for k, v := range seed {
		require.NoError(t, c.Set(ctx, k, v, 0))
	}

	m.OnPredictionCommitted(ctx, bus.PredictionEvent{
		Issue: "1000002",
		Type:  model.PredictParity,
		Value: model.LabelOdd,
	})

	for _, k := range []string{
		keys.Predictions(model.PredictParity, 10),
		keys.Predictions(model.PredictParity, 50),
	} {
		_, ok, err := c.Get(ctx, k)
		require.NoError(t, err)
		assert.False(t, ok, k)
	}

	// 其他类型与非预测载荷不受影响
	for _, k := range []string{
		keys.Predictions(model.PredictMagnitude, 10),
		keys.WinRate(model.PredictParity),
		keys.LatestDraws(20),
	} {
		_, ok, err := c.Get(ctx, k)
		require.NoError(t, err)
		assert.True(t, ok, k)
	}
}

func TestCacheManagerSkipsWhenUnhealthy(t *testing.T) {
	ctx := context.Background()
	keys := cache.NewKeys("test:")
	c := newMemCache()
	c.healthy = false
	m := NewCacheManager(c, keys, testLogger())

	require.NoError(t, c.Set(ctx, keys.Omission(), "[]", 0))

	m.OnDrawCommitted(ctx, seededDraw("1000001", "3+5+8"))

	_, ok, err := c.Get(ctx, keys.Omission())
	require.NoError(t, err)
	assert.True(t, ok, "缓存不健康时不应尝试失效")
}
