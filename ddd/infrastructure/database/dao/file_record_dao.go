package dao

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"f2v2f-service/ddd/infrastructure/database/po"
)

type FileRecordDAO struct {
	db *gorm.DB
}

func NewFileRecordDAO(db *gorm.DB) *FileRecordDAO {
	return &FileRecordDAO{db: db}
}

// Transaction 在事务中执行 fn，fn 返回错误时回滚
func (d *FileRecordDAO) Transaction(ctx context.Context, fn func(tx *FileRecordDAO) error) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&FileRecordDAO{db: tx})
	})
}

func (d *FileRecordDAO) Create(ctx context.Context, record *po.FileRecord) error {
	return d.db.WithContext(ctx).Create(record).Error
}

// FindByID 不存在时返回 (nil, nil)
func (d *FileRecordDAO) FindByID(ctx context.Context, id string) (*po.FileRecord, error) {
	var record po.FileRecord
	err := d.db.WithContext(ctx).Where("id = ?", id).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindLatestByVideoURL 同一 video_url 取最新一条
func (d *FileRecordDAO) FindLatestByVideoURL(ctx context.Context, videoURL string) (*po.FileRecord, error) {
	var record po.FileRecord
	err := d.db.WithContext(ctx).
		Where("video_url = ?", videoURL).
		Order("created_at DESC").Order("seq DESC").
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (d *FileRecordDAO) List(ctx context.Context) ([]*po.FileRecord, error) {
	var records []*po.FileRecord
	err := d.db.WithContext(ctx).
		Order("created_at DESC").Order("seq DESC").
		Find(&records).Error
	return records, err
}

// DeleteByID 返回删除行数
func (d *FileRecordDAO) DeleteByID(ctx context.Context, id string) (int64, error) {
	res := d.db.WithContext(ctx).Where("id = ?", id).Delete(&po.FileRecord{})
	return res.RowsAffected, res.Error
}
