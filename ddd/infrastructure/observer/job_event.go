// Package observer publishes job state changes to Redis and Kafka.
package observer

import (
	"time"

	"f2v2f-service/ddd/domain/entity"
)

// JobEvent 任务状态的对外表示，Redis 与 Kafka 共用
type JobEvent struct {
	JobID      string    `json:"job_id"`
	Operation  string    `json:"operation"`
	Status     string    `json:"status"`
	Progress   int       `json:"progress"`
	OriginName string    `json:"origin_name,omitempty"`
	TotalSize  *int64    `json:"total_size,omitempty"`
	ErrorKind  string    `json:"error_kind,omitempty"`
	Error      string    `json:"error,omitempty"`
	ResultURL  string    `json:"result_url,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewJobEvent 由快照构造事件
func NewJobEvent(s entity.JobSnapshot) JobEvent {
	ev := JobEvent{
		JobID:      s.ID,
		Operation:  s.Operation.String(),
		Status:     s.Status.String(),
		Progress:   s.Progress,
		OriginName: s.OriginName,
		TotalSize:  s.TotalSize,
		ResultURL:  s.ResultRef,
		UpdatedAt:  s.UpdatedAt,
	}
	if s.Err != nil {
		ev.ErrorKind = s.Err.Kind.String()
		ev.Error = s.Err.Message
	}
	return ev
}
