package lock

import (
	"context"
	"io"
	"testing"
	"time"

	"DrawSync/internal/cache"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 远端标记为不健康时走本地锁路径，无需真实Redis
func newLocalOnlyService() *Service {
	l := logrus.New()
	l.SetOutput(io.Discard)
	store := cache.NewStore(nil, l)
	store.SetHealthy(false)
	return NewService(store, l)
}

func TestLocalAcquireMutualExclusion(t *testing.T) {
	s := newLocalOnlyService()
	ctx := context.Background()

	token, ok := s.Acquire(ctx, "lock:issue:2025001", 3*time.Second)
	require.True(t, ok)

	_, ok2 := s.Acquire(ctx, "lock:issue:2025001", 3*time.Second)
	assert.False(t, ok2)

	// 不同期号互不影响
	_, ok3 := s.Acquire(ctx, "lock:issue:2025002", 3*time.Second)
	assert.True(t, ok3)

	s.Release(ctx, "lock:issue:2025001", token)
	_, ok4 := s.Acquire(ctx, "lock:issue:2025001", 3*time.Second)
	assert.True(t, ok4)
}

func TestLocalLockExpires(t *testing.T) {
	s := newLocalOnlyService()
	ctx := context.Background()

	_, ok := s.Acquire(ctx, "k", 10*time.Millisecond)
	require.True(t, ok)

	time.Sleep(20 * time.Millisecond)
	_, ok2 := s.Acquire(ctx, "k", time.Second)
	assert.True(t, ok2)
}

func TestReleaseRequiresToken(t *testing.T) {
	s := newLocalOnlyService()
	ctx := context.Background()

	token, ok := s.Acquire(ctx, "k", time.Second)
	require.True(t, ok)

	// 错误令牌不释放
	s.Release(ctx, "k", "not-the-token")
	_, ok2 := s.Acquire(ctx, "k", time.Second)
	assert.False(t, ok2)

	s.Release(ctx, "k", token)
	_, ok3 := s.Acquire(ctx, "k", time.Second)
	assert.True(t, ok3)
}
