package repo

import (
	"context"

	"f2v2f-service/ddd/domain/entity"
)

// JobRepository 任务仓储接口，实现需保证快照读取不会看到部分更新
type JobRepository interface {
	// Create 保存新任务
	Create(ctx context.Context, job *entity.Job) error
	// Get 返回任务快照，不存在时返回 (nil, nil)
	Get(ctx context.Context, id string) (*entity.JobSnapshot, error)
	// Update 在锁内对任务执行 fn，fn 中的多字段修改对读者原子可见
	Update(ctx context.Context, id string, fn func(job *entity.Job) error) (*entity.JobSnapshot, error)
	// List 返回全部任务快照，按创建时间倒序
	List(ctx context.Context) ([]entity.JobSnapshot, error)
}
