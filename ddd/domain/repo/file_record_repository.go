package repo

import (
	"context"

	"f2v2f-service/ddd/domain/entity"
)

// FileRecordRepository 文件记录仓储接口
type FileRecordRepository interface {
	// Create 持久化一条记录
	Create(ctx context.Context, record *entity.FileRecord) error
	// Get 按ID查询，不存在时返回 (nil, nil)
	Get(ctx context.Context, id string) (*entity.FileRecord, error)
	// FindLatestByArtifactRef 查找 artifact_ref 匹配的最新记录
	FindLatestByArtifactRef(ctx context.Context, artifactRef string) (*entity.FileRecord, error)
	// List 按创建时间倒序返回所有记录
	List(ctx context.Context) ([]*entity.FileRecord, error)
	// DeleteWith 在同一事务中删除记录并执行 fn；fn 返回错误时回滚
	DeleteWith(ctx context.Context, id string, fn func(record *entity.FileRecord) error) error
}
