package observer

import (
	"sync"
	"time"

	"f2v2f-service/ddd/domain/entity"
	"f2v2f-service/ddd/domain/vo"
)

// throttle 进度更新按任务限流，状态变化总是放行
type throttle struct {
	interval time.Duration
	now      func() time.Time

	mu   sync.Mutex
	last map[string]throttleEntry
}

type throttleEntry struct {
	status vo.JobStatus
	at     time.Time
}

func newThrottle(interval time.Duration) *throttle {
	return &throttle{
		interval: interval,
		now:      time.Now,
		last:     make(map[string]throttleEntry),
	}
}

func (t *throttle) allow(s entity.JobSnapshot) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	prev, seen := t.last[s.ID]
	if s.Status.IsFinalStatus() {
		delete(t.last, s.ID)
		return true
	}
	if seen && prev.status == s.Status && now.Sub(prev.at) < t.interval {
		return false
	}
	t.last[s.ID] = throttleEntry{status: s.Status, at: now}
	return true
}
