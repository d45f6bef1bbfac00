package convertor

import (
	"f2v2f-service/ddd/domain/entity"
	"f2v2f-service/ddd/domain/vo"
	"f2v2f-service/ddd/infrastructure/database/po"
)

// FileRecordConvertor 文件记录转换器
type FileRecordConvertor struct{}

// NewFileRecordConvertor 创建文件记录转换器
func NewFileRecordConvertor() *FileRecordConvertor {
	return &FileRecordConvertor{}
}

// ToEntity 将PO转换为Entity
func (c *FileRecordConvertor) ToEntity(p *po.FileRecord) *entity.FileRecord {
	if p == nil {
		return nil
	}
	return &entity.FileRecord{
		ID:          p.ID,
		Name:        p.Name,
		Kind:        vo.FileKind(p.Type),
		Size:        p.Size,
		CreatedAt:   p.CreatedAt,
		ArtifactRef: p.VideoURL,
		OriginName:  p.OriginalFile,
		Checksum:    p.Checksum,
		InputRef:    p.InputRef,
		ChunkSize:   p.ChunkSize,
	}
}

// ToPO 将Entity转换为PO
func (c *FileRecordConvertor) ToPO(e *entity.FileRecord) *po.FileRecord {
	if e == nil {
		return nil
	}
	return &po.FileRecord{
		ID:           e.ID,
		Name:         e.Name,
		Type:         string(e.Kind),
		Size:         e.Size,
		CreatedAt:    e.CreatedAt,
		VideoURL:     e.ArtifactRef,
		OriginalFile: e.OriginName,
		Checksum:     e.Checksum,
		ChunkSize:    e.ChunkSize,
		InputRef:     e.InputRef,
	}
}

// ToEntities 批量转换
func (c *FileRecordConvertor) ToEntities(list []*po.FileRecord) []*entity.FileRecord {
	out := make([]*entity.FileRecord, 0, len(list))
	for _, p := range list {
		out = append(out, c.ToEntity(p))
	}
	return out
}
