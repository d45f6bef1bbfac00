package observer

import (
	"context"
	"encoding/json"
	"time"

	"f2v2f-service/ddd/domain/entity"
	"f2v2f-service/ddd/domain/port"
	"f2v2f-service/pkg/logger"
	"f2v2f-service/pkg/redisclient"
)

// statusWriter 写入一条带过期时间的任务状态
type statusWriter interface {
	PutStatus(ctx context.Context, jobID string, fields map[string]interface{}) error
}

// RedisStatusMirror 把任务状态镜像到 Redis hash，供其他实例读取
type RedisStatusMirror struct {
	writer   statusWriter
	throttle *throttle
}

var _ port.JobObserver = (*RedisStatusMirror)(nil)

// NewRedisStatusMirror client 为 nil 时返回 nil
func NewRedisStatusMirror(client *redisclient.Client, progressThrottle time.Duration) *RedisStatusMirror {
	if client == nil {
		return nil
	}
	return newRedisStatusMirror(client, progressThrottle)
}

func newRedisStatusMirror(w statusWriter, interval time.Duration) *RedisStatusMirror {
	return &RedisStatusMirror{
		writer:   w,
		throttle: newThrottle(interval),
	}
}

func (m *RedisStatusMirror) OnJobUpdate(ctx context.Context, snapshot entity.JobSnapshot) {
	if !m.throttle.allow(snapshot) {
		return
	}
	ev := NewJobEvent(snapshot)
	fields := map[string]interface{}{
		"job_id":     ev.JobID,
		"operation":  ev.Operation,
		"status":     ev.Status,
		"progress":   ev.Progress,
		"updated_at": ev.UpdatedAt.UnixMilli(),
	}
	if ev.ResultURL != "" {
		fields["result_url"] = ev.ResultURL
	}
	if ev.ErrorKind != "" {
		fields["error_kind"] = ev.ErrorKind
		fields["error"] = ev.Error
	}
	if raw, err := json.Marshal(ev); err == nil {
		fields["event"] = string(raw)
	}
	if err := m.writer.PutStatus(ctx, ev.JobID, fields); err != nil {
		logger.Warn("Mirror job status to redis failed", map[string]interface{}{
			"job_id": ev.JobID,
			"status": ev.Status,
			"error":  err.Error(),
		})
	}
}
