package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"

	"f2v2f-service/ddd/domain/gateway"
	"f2v2f-service/pkg/errno"
	"f2v2f-service/pkg/logger"
)

// MinioMirror 把产物镜像到 MinIO，本地文件仍是权威副本
type MinioMirror struct {
	client     *minio.Client
	bucketName string
	prefix     string
}

var (
	_ gateway.ArtifactMirror = (*MinioMirror)(nil)
	_ gateway.ArtifactSource = (*MinioMirror)(nil)
)

// NewMinioMirror 创建MinIO镜像
func NewMinioMirror(client *minio.Client, bucketName, prefix string) *MinioMirror {
	return &MinioMirror{client: client, bucketName: bucketName, prefix: strings.Trim(prefix, "/")}
}

func (s *MinioMirror) key(objectKey string) string {
	if s.prefix == "" {
		return objectKey
	}
	return path.Join(s.prefix, objectKey)
}

// Mirror 上传本地文件
func (s *MinioMirror) Mirror(ctx context.Context, localPath, objectKey string) error {
	file, err := os.Open(localPath)
	if err != nil {
		logger.Error("Failed to open local file", map[string]interface{}{
			"local_path": localPath,
			"error":      err.Error(),
		})
		return fmt.Errorf("open local file failed: %w", err)
	}
	defer file.Close()

	fileInfo, err := file.Stat()
	if err != nil {
		return fmt.Errorf("get file info failed: %w", err)
	}

	key := s.key(objectKey)
	_, err = s.client.PutObject(ctx, s.bucketName, key, file, fileInfo.Size(), minio.PutObjectOptions{
		ContentType: getContentTypeFromExtension(objectKey),
	})
	if err != nil {
		logger.Error("Failed to mirror artifact to MinIO", map[string]interface{}{
			"local_path": localPath,
			"object_key": key,
			"error":      err.Error(),
		})
		return fmt.Errorf("upload artifact to minio failed: %w", err)
	}

	logger.Info("Artifact mirrored", map[string]interface{}{
		"object_key": key,
		"size":       fileInfo.Size(),
	})
	return nil
}

// Remove 删除镜像对象，对象不存在不视为错误
func (s *MinioMirror) Remove(ctx context.Context, objectKey string) error {
	key := s.key(objectKey)
	if err := s.client.RemoveObject(ctx, s.bucketName, key, minio.RemoveObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil
		}
		return fmt.Errorf("remove object from minio failed: %w", err)
	}
	return nil
}

// Fetch 读取 bucket 中的对象，供消息触发的任务使用
func (s *MinioMirror) Fetch(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucketName, s.key(objectKey), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object from minio failed: %w", err)
	}
	// GetObject 是惰性的，Stat 才会暴露不存在等错误
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, errno.NewBizError(errno.ErrArtifactNotFound, err)
		}
		return nil, fmt.Errorf("stat object failed: %w", err)
	}
	return obj, nil
}

// getContentTypeFromExtension 根据文件扩展名获取内容类型
func getContentTypeFromExtension(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".y4m":
		return "video/x-yuv4mpeg"
	case ".mp4":
		return "video/mp4"
	case ".mkv":
		return "video/x-matroska"
	case ".pdf":
		return "application/pdf"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
