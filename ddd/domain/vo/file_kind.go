package vo

// FileKind 文件记录类型
type FileKind string

const (
	// FileKindOriginal 解码恢复出的原始文件
	FileKindOriginal FileKind = "original"
	// FileKindEncoded 编码生成的视频
	FileKindEncoded FileKind = "encoded"
)

func (k FileKind) String() string {
	return string(k)
}

// IsValid 检查类型是否有效
func (k FileKind) IsValid() bool {
	return k == FileKindOriginal || k == FileKindEncoded
}
