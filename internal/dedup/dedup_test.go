package dedup

import (
	"fmt"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestLocalSetMarkAndSeen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen.json")
	s := newLocalSet(path, quietLogger())
	defer s.close()

	assert.False(t, s.seen("2025001"))
	s.mark("2025001")
	assert.True(t, s.seen("2025001"))
	assert.False(t, s.seen("2025002"))
}

func TestLocalSetExpiry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen.json")
	s := newLocalSet(path, quietLogger())
	defer s.close()

	s.mark("2025001")
	s.mu.Lock()
	s.entries["2025001"] = time.Now().Add(-2 * time.Hour)
	s.mu.Unlock()
	assert.False(t, s.seen("2025001"))
}

func TestLocalSetBounded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen.json")
	s := newLocalSet(path, quietLogger())
	defer s.close()

	for i := 0; i < localMaxEntries+200; i++ {
		s.mark(fmt.Sprintf("%07d", i))
	}
	s.mu.Lock()
	n := len(s.entries)
	s.mu.Unlock()
	assert.LessOrEqual(t, n, localMaxEntries)
}

func TestLocalSetPersistAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen.json")
	s := newLocalSet(path, quietLogger())
	s.mark("2025001")
	s.setLastIssue("2025001")
	s.persist()
	s.close()

	reloaded := newLocalSet(path, quietLogger())
	defer reloaded.close()
	assert.True(t, reloaded.seen("2025001"))
	assert.Equal(t, "2025001", reloaded.getLastIssue())
}

func TestLocalSetReloadDropsExpired(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen.json")
	s := newLocalSet(path, quietLogger())
	s.mu.Lock()
	s.entries["2025001"] = time.Now().Add(-2 * time.Hour)
	s.entries["2025002"] = time.Now()
	s.mu.Unlock()
	s.persist()
	s.close()

	reloaded := newLocalSet(path, quietLogger())
	defer reloaded.close()
	require.False(t, reloaded.seen("2025001"))
	assert.True(t, reloaded.seen("2025002"))
}
