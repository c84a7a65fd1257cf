package tracker

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

type stubReader struct {
	issue string
	err   error
}

func (s stubReader) MaxIssue(_ context.Context) (string, error) { return s.issue, s.err }

func newTestTracker() *Tracker {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return New(l)
}

func TestInitializeFromStore(t *testing.T) {
	tr := newTestTracker()
	assert.NoError(t, tr.Initialize(context.Background(), stubReader{issue: "2025100"}))

	assert.False(t, tr.IsNew("2025100"))
	assert.False(t, tr.IsNew("2025099"))
	assert.True(t, tr.IsNew("2025101"))
}

func TestInitializeFailOpen(t *testing.T) {
	tr := newTestTracker()
	assert.NoError(t, tr.Initialize(context.Background(), stubReader{err: errors.New("db down")}))

	// 未就绪：从不过滤
	assert.True(t, tr.IsNew("0000001"))
	assert.True(t, tr.IsNew("2025001"))
}

func TestUpdateMonotone(t *testing.T) {
	tr := newTestTracker()
	_ = tr.Initialize(context.Background(), stubReader{issue: "2025100"})

	tr.Update("2025101")
	assert.Equal(t, "2025101", tr.Latest())

	// 非递增更新被忽略
	tr.Update("2025100")
	assert.Equal(t, "2025101", tr.Latest())
	tr.Update("2025101")
	assert.Equal(t, "2025101", tr.Latest())
}

func TestUpdateMarksReady(t *testing.T) {
	tr := newTestTracker()
	_ = tr.Initialize(context.Background(), stubReader{err: errors.New("db down")})

	tr.Update("2025050")
	assert.False(t, tr.IsNew("2025050"))
	assert.True(t, tr.IsNew("2025051"))
}

func TestIsNewRejectsGarbage(t *testing.T) {
	tr := newTestTracker()
	_ = tr.Initialize(context.Background(), stubReader{issue: "2025100"})
	assert.False(t, tr.IsNew("abc"))
}
