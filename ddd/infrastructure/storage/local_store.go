package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"f2v2f-service/ddd/domain/gateway"
	"f2v2f-service/pkg/config"
	"f2v2f-service/pkg/errno"
	"f2v2f-service/pkg/logger"
)

const (
	uploadPrefix = "uploads/"
	outputPrefix = "outputs/"

	// DownloadRefPrefix 对外产物引用前缀，与下载路由一致
	DownloadRefPrefix = "/api/download/"
)

// LocalStore 本地文件系统上的 ResultStore
type LocalStore struct {
	uploadDir string
	outputDir string
}

var _ gateway.ResultStore = (*LocalStore)(nil)

// NewLocalStore 创建本地存储并确保目录存在
func NewLocalStore(cfg config.StorageConfig) (*LocalStore, error) {
	s := &LocalStore{uploadDir: cfg.UploadDir, outputDir: cfg.OutputDir}
	for _, dir := range []string{s.uploadDir, s.outputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir %s: %w", dir, err)
		}
	}
	return s, nil
}

// SanitizeName 只保留文件名部分，拒绝空名和路径穿越
func SanitizeName(name string) (string, error) {
	base := filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	switch base {
	case "", ".", "..", "/":
		return "", errno.NewBizError(errno.ErrFileNameIllegal, fmt.Errorf("illegal file name %q", name))
	}
	return base, nil
}

// Materialize 把上传内容写入 uploads 目录，文件名加 uuid 前缀避免冲突
func (s *LocalStore) Materialize(ctx context.Context, suggestedName string, src io.Reader) (string, error) {
	base, err := SanitizeName(suggestedName)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := uuid.NewString() + "_" + base

	tmp, err := os.CreateTemp(s.uploadDir, ".upload-*")
	if err != nil {
		return "", errno.NewBizError(errno.ErrStorage, err)
	}
	written, err := io.Copy(tmp, src)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return "", errno.NewBizError(errno.ErrUploadError, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.uploadDir, name)); err != nil {
		_ = os.Remove(tmp.Name())
		return "", errno.NewBizError(errno.ErrStorage, err)
	}

	logger.Debug("Upload materialized", map[string]interface{}{
		"name": name,
		"size": written,
	})
	return uploadPrefix + name, nil
}

// AllocateOutputLocator 输出 locator，文件在任务成功后才出现
func (s *LocalStore) AllocateOutputLocator(suggestedName string) string {
	base, err := SanitizeName(suggestedName)
	if err != nil {
		base = uuid.NewString() + ".bin"
	}
	return outputPrefix + base
}

// LocalPath 返回 locator 对应的本地路径，未知前缀返回空字符串
func (s *LocalStore) LocalPath(locator string) string {
	switch {
	case strings.HasPrefix(locator, uploadPrefix):
		return filepath.Join(s.uploadDir, filepath.Base(strings.TrimPrefix(locator, uploadPrefix)))
	case strings.HasPrefix(locator, outputPrefix):
		return filepath.Join(s.outputDir, filepath.Base(strings.TrimPrefix(locator, outputPrefix)))
	default:
		return ""
	}
}

func (s *LocalStore) Exists(locator string) bool {
	p := s.LocalPath(locator)
	if p == "" {
		return false
	}
	st, err := os.Stat(p)
	return err == nil && st.Mode().IsRegular()
}

func (s *LocalStore) Size(locator string) (int64, error) {
	p := s.LocalPath(locator)
	if p == "" {
		return 0, errno.NewBizError(errno.ErrInvalidParam, fmt.Errorf("unknown locator %q", locator))
	}
	st, err := os.Stat(p)
	if err != nil {
		return 0, err
	}
	return st.Size(), nil
}

// Delete 删除文件，文件不存在不视为错误
func (s *LocalStore) Delete(locator string) error {
	p := s.LocalPath(locator)
	if p == "" {
		return nil
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errno.NewBizError(errno.ErrStorage, err)
	}
	return nil
}

// Release 任务结束后释放输入
func (s *LocalStore) Release(locator string, retain bool) error {
	if retain {
		return nil
	}
	return s.Delete(locator)
}

// Sweep 删除 outputs 下修改时间早于 maxAge 的文件
func (s *LocalStore) Sweep(ctx context.Context, maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.outputDir)
	if err != nil {
		return 0, errno.NewBizError(errno.ErrStorage, err)
	}
	cutoff := time.Now().Add(-maxAge)
	deleted := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return deleted, err
		}
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.outputDir, entry.Name())); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				logger.Warnf("Sweep failed to delete file=%s error=%v", entry.Name(), err)
			}
			continue
		}
		deleted++
	}
	if deleted > 0 {
		logger.Infof("Sweep removed %d output files older than %s", deleted, maxAge)
	}
	return deleted, nil
}

// ArtifactRef 把输出 locator 转为下载引用
func (s *LocalStore) ArtifactRef(locator string) string {
	return DownloadRefPrefix + strings.TrimPrefix(locator, outputPrefix)
}

// LocatorFromRef 解析下载引用，也接受裸文件名
func (s *LocalStore) LocatorFromRef(ref string) (string, bool) {
	name := strings.TrimPrefix(ref, DownloadRefPrefix)
	base, err := SanitizeName(name)
	if err != nil || base != name {
		return "", false
	}
	return outputPrefix + base, true
}

// Open 打开输出产物用于下载
func (s *LocalStore) Open(name string) (io.ReadSeekCloser, int64, error) {
	base, err := SanitizeName(name)
	if err != nil || base != name || strings.HasPrefix(base, ".") {
		return nil, 0, errno.NewBizError(errno.ErrArtifactNotFound, nil)
	}
	f, err := os.Open(filepath.Join(s.outputDir, base))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, errno.NewBizError(errno.ErrArtifactNotFound, nil)
		}
		return nil, 0, errno.NewBizError(errno.ErrStorage, err)
	}
	st, err := f.Stat()
	if err != nil || !st.Mode().IsRegular() {
		_ = f.Close()
		return nil, 0, errno.NewBizError(errno.ErrArtifactNotFound, err)
	}
	return f, st.Size(), nil
}
