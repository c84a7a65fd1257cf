package service

import (
	"context"
	"fmt"
	"testing"

	"DrawSync/internal/cache"
	"DrawSync/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWinRateComputeAndCache(t *testing.T) {
	ctx := context.Background()
	repo := newMemPredRepo()
	c := newMemCache()
	keys := cache.NewKeys("test:")
	s := NewWinRateService(repo, c, keys, testLogger())

	// 10条已验证：7中3不中，外加1条未验证（不计入）
	for i := 0; i < 10; i++ {
		hit := i < 7
		require.NoError(t, repo.Upsert(ctx, &model.Prediction{
			Issue: fmt.Sprintf("%07d", 1000001+i), Type: model.PredictParity, PredictedValue: "单",
		}))
		require.NoError(t, repo.UpdateOutcome(ctx, &model.Prediction{
			Issue: fmt.Sprintf("%07d", 1000001+i), Type: model.PredictParity, Hit: &hit,
		}))
	}
	require.NoError(t, repo.Upsert(ctx, &model.Prediction{
		Issue: "1000099", Type: model.PredictParity, PredictedValue: "单",
	}))

	hr, err := s.Get(ctx, model.PredictParity)
	require.NoError(t, err)
	assert.Equal(t, 10, hr.Total)
	assert.Equal(t, 7, hr.Hits)
	assert.Equal(t, 3, hr.Misses)
	assert.InDelta(t, 0.7, hr.Rate, 1e-9)

	// 快照已进缓存
	_, ok, err := c.Get(ctx, keys.WinRate(model.PredictParity))
	require.NoError(t, err)
	assert.True(t, ok)

	// 二次读取走缓存：直接改库不影响结果
	falseHit := false
	require.NoError(t, repo.UpdateOutcome(ctx, &model.Prediction{
		Issue: "1000001", Type: model.PredictParity, Hit: &falseHit,
	}))
	hr2, err := s.Get(ctx, model.PredictParity)
	require.NoError(t, err)
	assert.Equal(t, 7, hr2.Hits)
}

func TestWinRateRefreshAll(t *testing.T) {
	ctx := context.Background()
	repo := newMemPredRepo()
	c := newMemCache()
	keys := cache.NewKeys("test:")
	s := NewWinRateService(repo, c, keys, testLogger())

	hit := true
	require.NoError(t, repo.Upsert(ctx, &model.Prediction{
		Issue: "1000001", Type: model.PredictKill, PredictedValue: "大单",
	}))
	require.NoError(t, repo.UpdateOutcome(ctx, &model.Prediction{
		Issue: "1000001", Type: model.PredictKill, Hit: &hit,
	}))

	s.RefreshAll(ctx, "1000002")

	for _, typ := range model.AllPredictionTypes() {
		_, ok, err := c.Get(ctx, keys.WinRate(typ))
		require.NoError(t, err)
		assert.True(t, ok, typ)
	}
}

func TestWinRateDegradesWithoutCache(t *testing.T) {
	ctx := context.Background()
	repo := newMemPredRepo()
	c := newMemCache()
	c.healthy = false
	s := NewWinRateService(repo, c, cache.NewKeys("test:"), testLogger())

	hr, err := s.Get(ctx, model.PredictCombo)
	require.NoError(t, err)
	assert.Equal(t, 0, hr.Total)
	assert.Zero(t, hr.Rate)
	assert.Empty(t, c.data)
}
