package memory

import (
	"context"
	"sort"
	"sync"

	"f2v2f-service/ddd/domain/entity"
	"f2v2f-service/ddd/domain/repo"
	"f2v2f-service/pkg/errno"
)

// JobRepository 内存任务仓储，进程重启后任务丢失
type JobRepository struct {
	mu   sync.RWMutex
	jobs map[string]*entity.Job
}

var _ repo.JobRepository = (*JobRepository)(nil)

// NewJobRepository 创建内存任务仓储
func NewJobRepository() *JobRepository {
	return &JobRepository{jobs: make(map[string]*entity.Job)}
}

func (r *JobRepository) Create(ctx context.Context, job *entity.Job) error {
	if job == nil || job.ID() == "" {
		return errno.NewBizError(errno.ErrJobIDRequired, nil)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.jobs[job.ID()]; exists {
		return errno.NewBizError(errno.ErrInvalidOperation, nil)
	}
	r.jobs[job.ID()] = job
	return nil
}

func (r *JobRepository) Get(ctx context.Context, id string) (*entity.JobSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, nil
	}
	s := job.Snapshot()
	return &s, nil
}

// Update 在写锁内执行 fn，fn 返回错误时修改仍然保留在实体上，调用方应在 fn 内先校验再修改
func (r *JobRepository) Update(ctx context.Context, id string, fn func(job *entity.Job) error) (*entity.JobSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, errno.NewBizError(errno.ErrJobNotFound, nil)
	}
	if err := fn(job); err != nil {
		return nil, err
	}
	s := job.Snapshot()
	return &s, nil
}

func (r *JobRepository) List(ctx context.Context) ([]entity.JobSnapshot, error) {
	r.mu.RLock()
	out := make([]entity.JobSnapshot, 0, len(r.jobs))
	for _, job := range r.jobs {
		out = append(out, job.Snapshot())
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
