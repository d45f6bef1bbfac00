package po

import "time"

// FileRecord files 表持久化对象。seq 保证同一时间戳内的插入顺序。
type FileRecord struct {
	Seq          uint64    `gorm:"column:seq;primaryKey;autoIncrement" json:"-"`
	ID           string    `gorm:"column:id;type:varchar(36);uniqueIndex;not null" json:"id"`
	Name         string    `gorm:"column:name;type:varchar(255);not null" json:"name"`
	Type         string    `gorm:"column:type;type:varchar(16);not null" json:"type"`
	Size         int64     `gorm:"column:size;not null" json:"size"`
	CreatedAt    time.Time `gorm:"column:created_at;index:idx_files_created_at" json:"created_at"`
	VideoURL     string    `gorm:"column:video_url;type:varchar(512);index:idx_files_video_url" json:"video_url"`
	OriginalFile string    `gorm:"column:original_file;type:varchar(255)" json:"original_file"`
	Checksum     string    `gorm:"column:checksum;type:varchar(64)" json:"checksum"`
	ChunkSize    int       `gorm:"column:chunk_size" json:"chunk_size"`
	InputRef     string    `gorm:"column:input_ref;type:varchar(512)" json:"input_ref"`
}

// TableName 指定表名
func (FileRecord) TableName() string {
	return "files"
}
