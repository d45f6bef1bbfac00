package gateway

import (
	"context"
	"io"
	"time"
)

// ResultStore 管理上传和产物文件的生命周期。
// locator 是仓库内部引用（如 outputs/<name>），artifact ref 是对外引用（/api/download/<name>）。
type ResultStore interface {
	// Materialize 将上传内容落盘，返回输入 locator
	Materialize(ctx context.Context, suggestedName string, src io.Reader) (string, error)
	// AllocateOutputLocator 为即将运行的任务分配输出位置
	AllocateOutputLocator(suggestedName string) string
	Exists(locator string) bool
	Size(locator string) (int64, error)
	// Delete 删除文件，文件不存在不视为错误
	Delete(locator string) error
	// Release 释放任务输入，retain 为 true 时保留上传文件
	Release(locator string, retain bool) error
	// Sweep 删除早于 maxAge 的输出产物，返回删除数量
	Sweep(ctx context.Context, maxAge time.Duration) (int, error)
	// LocalPath 返回 locator 对应的本地文件路径
	LocalPath(locator string) string
	// ArtifactRef 把输出 locator 转为对外引用
	ArtifactRef(locator string) string
	// LocatorFromRef 把对外引用转回输出 locator
	LocatorFromRef(ref string) (string, bool)
	// Open 打开输出产物用于下载
	Open(name string) (io.ReadSeekCloser, int64, error)
}

// ArtifactMirror 可选的对象存储镜像
type ArtifactMirror interface {
	Mirror(ctx context.Context, localPath, objectKey string) error
	Remove(ctx context.Context, objectKey string) error
}

// ArtifactSource 按对象键读取外部输入
type ArtifactSource interface {
	Fetch(ctx context.Context, objectKey string) (io.ReadCloser, error)
}
