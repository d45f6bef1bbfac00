package queue

import (
	"sync"

	"f2v2f-service/pkg/config"
)

var (
	queueOnce    sync.Once
	defaultQueue *MemoryJobQueue
)

// DefaultJobQueue 获取默认任务队列，容量来自 jobs.queue_capacity
func DefaultJobQueue() *MemoryJobQueue {
	queueOnce.Do(func() {
		capacity := 64
		if cfg := config.GetGlobalConfig(); cfg != nil && cfg.Jobs.QueueCapacity > 0 {
			capacity = cfg.Jobs.QueueCapacity
		}
		defaultQueue = NewMemoryJobQueue(capacity)
	})
	return defaultQueue
}
