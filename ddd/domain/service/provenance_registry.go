package service

import (
	"context"
	"fmt"
	"path"

	"f2v2f-service/ddd/domain/entity"
	"f2v2f-service/ddd/domain/gateway"
	"f2v2f-service/ddd/domain/repo"
	"f2v2f-service/pkg/errno"
	"f2v2f-service/pkg/logger"
)

// ProvenanceRegistry 产物登记服务，记录产物与原始文件的对应关系
type ProvenanceRegistry interface {
	// Record 登记一条新记录，分配ID与创建时间
	Record(ctx context.Context, draft entity.FileRecordDraft) (*entity.FileRecord, error)
	// FindOriginName 返回 artifactRef 最新一条记录的原始文件名
	FindOriginName(ctx context.Context, artifactRef string) (string, bool, error)
	// FindLatest 返回 artifactRef 最新一条记录，不存在时为 nil
	FindLatest(ctx context.Context, artifactRef string) (*entity.FileRecord, error)
	// List 按创建时间倒序
	List(ctx context.Context) ([]*entity.FileRecord, error)
	Get(ctx context.Context, id string) (*entity.FileRecord, error)
	// Delete 删除记录及其产物，任一步失败则记录保留
	Delete(ctx context.Context, id string) error
}

type provenanceRegistryImpl struct {
	records repo.FileRecordRepository
	store   gateway.ResultStore
	mirror  gateway.ArtifactMirror
}

// NewProvenanceRegistry mirror 可为 nil
func NewProvenanceRegistry(records repo.FileRecordRepository, store gateway.ResultStore, mirror gateway.ArtifactMirror) ProvenanceRegistry {
	return &provenanceRegistryImpl{
		records: records,
		store:   store,
		mirror:  mirror,
	}
}

func (r *provenanceRegistryImpl) Record(ctx context.Context, draft entity.FileRecordDraft) (*entity.FileRecord, error) {
	if !draft.Kind.IsValid() {
		return nil, errno.NewBizError(errno.ErrInvalidParam, fmt.Errorf("unknown file kind %q", draft.Kind))
	}
	if draft.ArtifactRef == "" {
		return nil, errno.NewBizError(errno.ErrInvalidParam, fmt.Errorf("artifact ref is required"))
	}
	record := entity.NewFileRecord(draft)
	if err := r.records.Create(ctx, record); err != nil {
		return nil, err
	}
	logger.Info("File record added", map[string]interface{}{
		"id":           record.ID,
		"name":         record.Name,
		"kind":         record.Kind.String(),
		"artifact_ref": record.ArtifactRef,
	})
	return record, nil
}

func (r *provenanceRegistryImpl) FindLatest(ctx context.Context, artifactRef string) (*entity.FileRecord, error) {
	if artifactRef == "" {
		return nil, nil
	}
	return r.records.FindLatestByArtifactRef(ctx, artifactRef)
}

func (r *provenanceRegistryImpl) FindOriginName(ctx context.Context, artifactRef string) (string, bool, error) {
	record, err := r.FindLatest(ctx, artifactRef)
	if err != nil {
		return "", false, err
	}
	if record == nil || record.OriginName == "" {
		return "", false, nil
	}
	return record.OriginName, true, nil
}

func (r *provenanceRegistryImpl) List(ctx context.Context) ([]*entity.FileRecord, error) {
	return r.records.List(ctx)
}

func (r *provenanceRegistryImpl) Get(ctx context.Context, id string) (*entity.FileRecord, error) {
	record, err := r.records.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, errno.NewBizError(errno.ErrFileRecordNotFound, nil)
	}
	return record, nil
}

func (r *provenanceRegistryImpl) Delete(ctx context.Context, id string) error {
	var removed []string
	err := r.records.DeleteWith(ctx, id, func(record *entity.FileRecord) error {
		removed = removed[:0]
		for _, locator := range r.artifactLocators(record) {
			if err := r.store.Delete(locator); err != nil {
				return errno.NewBizError(errno.ErrStorage, fmt.Errorf("delete %s: %w", locator, err))
			}
			removed = append(removed, locator)
		}
		logger.Infof("File record deleted id=%s name=%s", record.ID, record.Name)
		return nil
	})
	if err != nil {
		return err
	}
	// 对象存储副本在事务提交后尽力删除
	if r.mirror != nil {
		for _, locator := range removed {
			if err := r.mirror.Remove(ctx, path.Base(locator)); err != nil {
				logger.Warnf("Remove mirrored artifact failed locator=%s error=%v", locator, err)
			}
		}
	}
	return nil
}

// artifactLocators 记录关联的产物：输出文件以及保留的原始上传
func (r *provenanceRegistryImpl) artifactLocators(record *entity.FileRecord) []string {
	var locators []string
	if locator, ok := r.store.LocatorFromRef(record.ArtifactRef); ok {
		locators = append(locators, locator)
	}
	if record.InputRef != "" {
		locators = append(locators, record.InputRef)
	}
	return locators
}
