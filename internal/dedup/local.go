package dedup

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	localMaxEntries = 5000
	localEntryTTL   = time.Hour
	persistEveryN   = 100
	persistInterval = 5 * time.Minute
)

// localSet 本地已见集合：分布式缓存不可用时的降级层。
// 有界（≤5000条）、条目1小时过期、每100次写入及每5分钟落盘一次。
type localSet struct {
	mu        sync.Mutex
	entries   map[string]time.Time // issue -> 写入时刻
	lastIssue string
	path      string
	dirty     int
	logger    *logrus.Logger
	stop      chan struct{}
	stopOnce  sync.Once
}

type localSnapshot struct {
	Entries   map[string]time.Time `json:"entries"`
	LastIssue string               `json:"last_issue"`
	SavedAt   time.Time            `json:"saved_at"`
}

func newLocalSet(path string, logger *logrus.Logger) *localSet {
	s := &localSet{
		entries: make(map[string]time.Time),
		path:    path,
		logger:  logger,
		stop:    make(chan struct{}),
	}
	s.load()
	go s.persistLoop()
	return s
}

func (s *localSet) seen(issue string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	at, ok := s.entries[issue]
	if !ok {
		return false
	}
	if time.Since(at) > localEntryTTL {
		delete(s.entries, issue)
		return false
	}
	return true
}

func (s *localSet) mark(issue string) {
	s.mu.Lock()
	s.entries[issue] = time.Now()
	s.evictLocked()
	s.dirty++
	shouldPersist := s.dirty >= persistEveryN
	if shouldPersist {
		s.dirty = 0
	}
	s.mu.Unlock()
	if shouldPersist {
		s.persist()
	}
}

func (s *localSet) setLastIssue(issue string) {
	s.mu.Lock()
	s.lastIssue = issue
	s.mu.Unlock()
}

func (s *localSet) getLastIssue() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastIssue
}

// evictLocked 超界时先清过期条目，仍超界则删最旧的
func (s *localSet) evictLocked() {
	if len(s.entries) <= localMaxEntries {
		return
	}
	now := time.Now()
	for k, at := range s.entries {
		if now.Sub(at) > localEntryTTL {
			delete(s.entries, k)
		}
	}
	for len(s.entries) > localMaxEntries {
		var oldestKey string
		var oldestAt time.Time
		for k, at := range s.entries {
			if oldestKey == "" || at.Before(oldestAt) {
				oldestKey, oldestAt = k, at
			}
		}
		delete(s.entries, oldestKey)
	}
}

func (s *localSet) persistLoop() {
	tk := time.NewTicker(persistInterval)
	defer tk.Stop()
	for {
		select {
		case <-tk.C:
			s.persist()
		case <-s.stop:
			s.persist()
			return
		}
	}
}

func (s *localSet) persist() {
	if s.path == "" {
		return
	}
	s.mu.Lock()
	snap := localSnapshot{
		Entries:   make(map[string]time.Time, len(s.entries)),
		LastIssue: s.lastIssue,
		SavedAt:   time.Now(),
	}
	for k, v := range s.entries {
		snap.Entries[k] = v
	}
	s.mu.Unlock()

	data, err := json.Marshal(snap)
	if err != nil {
		s.logger.WithError(err).Warn("本地已见集合序列化失败")
		return
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		s.logger.WithError(err).Warn("本地已见集合落盘失败")
		return
	}
	if err := os.Rename(tmp, s.path); err != nil {
		s.logger.WithError(err).Warn("本地已见集合落盘失败")
	}
}

func (s *localSet) load() {
	if s.path == "" {
		return
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.WithError(err).Warn("本地已见集合读取失败，使用空集合")
		}
		return
	}
	var snap localSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.logger.WithError(err).Warn("本地已见集合解析失败，使用空集合")
		return
	}
	now := time.Now()
	for k, at := range snap.Entries {
		if now.Sub(at) <= localEntryTTL {
			s.entries[k] = at
		}
	}
	s.lastIssue = snap.LastIssue
	s.logger.WithField("entries", len(s.entries)).Info("本地已见集合已加载")
}

func (s *localSet) close() {
	s.stopOnce.Do(func() { close(s.stop) })
}
