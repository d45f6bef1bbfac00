package observer

import (
	"context"
	"encoding/json"

	"f2v2f-service/ddd/domain/entity"
	"f2v2f-service/ddd/domain/port"
	"f2v2f-service/pkg/logger"
)

// Producer 消息发送接口，*kafka.Client 实现了它
type Producer interface {
	Produce(ctx context.Context, topic string, key, value []byte) error
}

// KafkaEventReporter 只在状态变化时发布任务事件，进度更新不发送
type KafkaEventReporter struct {
	producer Producer
	topic    string
}

var _ port.JobObserver = (*KafkaEventReporter)(nil)

func NewKafkaEventReporter(producer Producer, topic string) *KafkaEventReporter {
	if producer == nil || topic == "" {
		return nil
	}
	return &KafkaEventReporter{producer: producer, topic: topic}
}

func (r *KafkaEventReporter) OnJobUpdate(ctx context.Context, snapshot entity.JobSnapshot) {
	if !isTransition(snapshot) {
		return
	}
	ev := NewJobEvent(snapshot)
	value, err := json.Marshal(ev)
	if err != nil {
		logger.Warnf("Marshal job event failed job_id=%s error=%v", ev.JobID, err)
		return
	}
	if err := r.producer.Produce(ctx, r.topic, []byte(ev.JobID), value); err != nil {
		logger.Warn("Publish job event failed", map[string]interface{}{
			"job_id": ev.JobID,
			"topic":  r.topic,
			"status": ev.Status,
			"error":  err.Error(),
		})
	}
}

// isTransition 进度为 0 的 pending/running 快照和所有终态快照都对应一次状态变化
func isTransition(s entity.JobSnapshot) bool {
	if s.Status.IsFinalStatus() {
		return true
	}
	return s.Progress == 0
}
