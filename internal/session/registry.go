package session

import (
	"time"

	"globe-quiz/internal/logger"
	"globe-quiz/internal/metrics"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Registry：进程内会话表（容量 + 空闲过期双重淘汰）
// 约束：只在内存中；进程重启即清空，分数不落盘；quiz_sessions_active 随创建与淘汰增减
type Registry struct {
	lru *expirable.LRU[string, *Session]
}

// NewRegistry：size<=0 时取 10000，ttl<=0 时取 2 小时
func NewRegistry(size int, ttl time.Duration) *Registry {
	if size <= 0 {
		size = 10000
	}
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	onEvict := func(id string, s *Session) {
		metrics.SessionsActive.Dec()
		logger.L().Debug("session_evicted", "id", id, "score", s.Snapshot().Score)
	}
	return &Registry{lru: expirable.NewLRU[string, *Session](size, onEvict, ttl)}
}

// Create：新建会话
func (r *Registry) Create() *Session {
	s := newSession(uuid.NewString())
	metrics.SessionsActive.Inc()
	r.lru.Add(s.ID, s)
	return s
}

// Get：取会话并刷新其过期时间
func (r *Registry) Get(id string) (*Session, error) {
	s, ok := r.lru.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	r.lru.Add(id, s)
	return s, nil
}

// Remove：显式丢弃（玩家结束游戏）
func (r *Registry) Remove(id string) bool {
	return r.lru.Remove(id)
}

func (r *Registry) Len() int { return r.lru.Len() }
