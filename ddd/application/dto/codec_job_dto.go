package dto

import (
	"time"

	"f2v2f-service/ddd/domain/entity"
)

// SubmitJobDTO 提交结果
type SubmitJobDTO struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// JobDTO 任务状态
type JobDTO struct {
	JobID       string     `json:"job_id"`
	Operation   string     `json:"operation"`
	Status      string     `json:"status"`
	Progress    int        `json:"progress"`
	TotalSize   *int64     `json:"total_size,omitempty"`
	Error       string     `json:"error,omitempty"`
	ErrorKind   string     `json:"error_kind,omitempty"`
	ResultURL   string     `json:"result_url,omitempty"`
	OriginName  string     `json:"origin_name,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewJobDTO 由任务快照构造
func NewJobDTO(s *entity.JobSnapshot) *JobDTO {
	if s == nil {
		return nil
	}
	d := &JobDTO{
		JobID:       s.ID,
		Operation:   s.Operation.String(),
		Status:      s.Status.String(),
		Progress:    s.Progress,
		TotalSize:   s.TotalSize,
		ResultURL:   s.ResultRef,
		OriginName:  s.OriginName,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
		StartedAt:   s.StartedAt,
		CompletedAt: s.CompletedAt,
	}
	if s.Err != nil {
		d.Error = s.Err.Message
		d.ErrorKind = s.Err.Kind.String()
	}
	return d
}

// FileRecordDTO 产物登记记录
type FileRecordDTO struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Type         string    `json:"type"`
	Size         int64     `json:"size"`
	CreatedAt    time.Time `json:"created_at"`
	VideoURL     string    `json:"video_url"`
	OriginalFile string    `json:"original_file,omitempty"`
	Checksum     string    `json:"checksum,omitempty"`
	ChunkSize    int       `json:"chunk_size,omitempty"`
}

// NewFileRecordDTO 由登记记录构造
func NewFileRecordDTO(r *entity.FileRecord) *FileRecordDTO {
	if r == nil {
		return nil
	}
	return &FileRecordDTO{
		ID:           r.ID,
		Name:         r.Name,
		Type:         r.Kind.String(),
		Size:         r.Size,
		CreatedAt:    r.CreatedAt,
		VideoURL:     r.ArtifactRef,
		OriginalFile: r.OriginName,
		Checksum:     r.Checksum,
		ChunkSize:    r.ChunkSize,
	}
}

// FileListDTO 记录列表
type FileListDTO struct {
	Files []*FileRecordDTO `json:"files"`
	Total int              `json:"total"`
}

// CleanupDTO 清理结果
type CleanupDTO struct {
	DeletedFiles int    `json:"deleted_files"`
	MaxAge       string `json:"max_age"`
}

// VersionDTO 版本信息
type VersionDTO struct {
	Service   string `json:"service"`
	Codec     string `json:"codec"`
	Container string `json:"container"`
}
