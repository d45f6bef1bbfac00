package port

import (
	"context"

	"f2v2f-service/ddd/domain/entity"
)

// JobScheduler 调度任务执行
type JobScheduler interface {
	// Schedule 提交任务ID，队列满或已关闭时返回错误
	Schedule(ctx context.Context, jobID string) error
}

// JobObserver 接收任务状态变化，失败只记录日志，不影响任务
type JobObserver interface {
	OnJobUpdate(ctx context.Context, snapshot entity.JobSnapshot)
}
