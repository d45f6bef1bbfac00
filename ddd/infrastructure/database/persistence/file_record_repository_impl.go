package persistence

import (
	"context"

	"gorm.io/gorm"

	"f2v2f-service/ddd/domain/entity"
	"f2v2f-service/ddd/domain/repo"
	"f2v2f-service/ddd/infrastructure/database/convertor"
	"f2v2f-service/ddd/infrastructure/database/dao"
	"f2v2f-service/internal/resource"
	"f2v2f-service/pkg/errno"
)

type fileRecordRepositoryImpl struct {
	dao       *dao.FileRecordDAO
	convertor *convertor.FileRecordConvertor
}

// NewFileRecordRepository 基于给定连接创建仓储
func NewFileRecordRepository(db *gorm.DB) repo.FileRecordRepository {
	return &fileRecordRepositoryImpl{
		dao:       dao.NewFileRecordDAO(db),
		convertor: convertor.NewFileRecordConvertor(),
	}
}

// DefaultFileRecordRepository 使用全局数据库资源
func DefaultFileRecordRepository() repo.FileRecordRepository {
	return NewFileRecordRepository(resource.DefaultDatabaseResource().MainDB())
}

func (r *fileRecordRepositoryImpl) Create(ctx context.Context, record *entity.FileRecord) error {
	if err := r.dao.Create(ctx, r.convertor.ToPO(record)); err != nil {
		return errno.NewBizError(errno.ErrDatabase, err)
	}
	return nil
}

func (r *fileRecordRepositoryImpl) Get(ctx context.Context, id string) (*entity.FileRecord, error) {
	p, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return nil, errno.NewBizError(errno.ErrDatabase, err)
	}
	return r.convertor.ToEntity(p), nil
}

func (r *fileRecordRepositoryImpl) FindLatestByArtifactRef(ctx context.Context, artifactRef string) (*entity.FileRecord, error) {
	p, err := r.dao.FindLatestByVideoURL(ctx, artifactRef)
	if err != nil {
		return nil, errno.NewBizError(errno.ErrDatabase, err)
	}
	return r.convertor.ToEntity(p), nil
}

func (r *fileRecordRepositoryImpl) List(ctx context.Context) ([]*entity.FileRecord, error) {
	list, err := r.dao.List(ctx)
	if err != nil {
		return nil, errno.NewBizError(errno.ErrDatabase, err)
	}
	return r.convertor.ToEntities(list), nil
}

// DeleteWith 删除行后执行 fn，fn 失败则整个事务回滚
func (r *fileRecordRepositoryImpl) DeleteWith(ctx context.Context, id string, fn func(record *entity.FileRecord) error) error {
	return r.dao.Transaction(ctx, func(tx *dao.FileRecordDAO) error {
		p, err := tx.FindByID(ctx, id)
		if err != nil {
			return errno.NewBizError(errno.ErrDatabase, err)
		}
		if p == nil {
			return errno.NewBizError(errno.ErrFileRecordNotFound, nil)
		}
		if _, err := tx.DeleteByID(ctx, id); err != nil {
			return errno.NewBizError(errno.ErrDatabase, err)
		}
		if fn == nil {
			return nil
		}
		return fn(r.convertor.ToEntity(p))
	})
}
