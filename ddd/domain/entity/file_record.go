package entity

import (
	"time"

	"github.com/google/uuid"

	"f2v2f-service/ddd/domain/vo"
)

// FileRecordDraft 待登记的文件记录
type FileRecordDraft struct {
	Name        string
	Kind        vo.FileKind
	Size        int64
	ArtifactRef string
	OriginName  string
	Checksum    string // 仅解码产物
	InputRef    string // 保留的原始上传，可为空
	ChunkSize   int
}

// FileRecord 产物登记记录
type FileRecord struct {
	ID          string
	Name        string
	Kind        vo.FileKind
	Size        int64
	CreatedAt   time.Time
	ArtifactRef string
	OriginName  string
	Checksum    string
	InputRef    string
	ChunkSize   int
}

// NewFileRecord 为草稿分配ID和创建时间
func NewFileRecord(d FileRecordDraft) *FileRecord {
	return &FileRecord{
		ID:          uuid.NewString(),
		Name:        d.Name,
		Kind:        d.Kind,
		Size:        d.Size,
		CreatedAt:   time.Now(),
		ArtifactRef: d.ArtifactRef,
		OriginName:  d.OriginName,
		Checksum:    d.Checksum,
		InputRef:    d.InputRef,
		ChunkSize:   d.ChunkSize,
	}
}
