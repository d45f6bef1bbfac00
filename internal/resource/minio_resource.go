package resource

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"

	"f2v2f-service/pkg/assert"
	"f2v2f-service/pkg/config"
	"f2v2f-service/pkg/logger"
	"f2v2f-service/pkg/manager"
)

const artifactExpiryRuleID = "f2v2f-artifact-expiry"

var (
	minioResourceOnce      sync.Once
	singletonMinioResource *MinioResource
)

// MinioResource 产物镜像使用的对象存储
type MinioResource struct {
	client     *minio.Client
	bucketName string
}

// DefaultMinioResource 获取MinIO资源单例
func DefaultMinioResource() *MinioResource {
	assert.NotCircular()
	minioResourceOnce.Do(func() {
		singletonMinioResource = &MinioResource{}
	})
	assert.NotNil(singletonMinioResource)
	return singletonMinioResource
}

// MustOpen 初始化MinIO资源，未启用时跳过
func (r *MinioResource) MustOpen() {
	cfg := config.GetGlobalConfig()
	if cfg == nil {
		panic("global config not initialized before MinioResource")
	}
	if !cfg.Minio.Enabled {
		return
	}

	client, err := newMinioClient(cfg.Minio)
	if err != nil {
		panic(err.Error())
	}
	r.client = client
	r.bucketName = cfg.Minio.BucketName

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	r.ensureBucket(ctx)
	if cfg.Retention.Enabled {
		r.applyExpiry(ctx, cfg.Minio.Prefix, cfg.Retention.MaxAge)
	}

	logger.Info("MinIO resource initialized", map[string]interface{}{
		"endpoint":    cfg.Minio.Endpoint,
		"bucket_name": r.bucketName,
		"prefix":      cfg.Minio.Prefix,
	})
}

func newMinioClient(c config.MinioConfig) (*minio.Client, error) {
	if c.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if c.BucketName == "" {
		return nil, fmt.Errorf("minio bucket_name is required")
	}
	client, err := minio.New(c.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(c.AccessKeyID, c.SecretAccessKey, ""),
		Secure: c.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return client, nil
}

// ensureBucket 确保桶存在
func (r *MinioResource) ensureBucket(ctx context.Context) {
	exists, err := r.client.BucketExists(ctx, r.bucketName)
	if err != nil {
		panic(fmt.Sprintf("failed to check minio bucket: %v", err))
	}
	if exists {
		return
	}
	if err := r.client.MakeBucket(ctx, r.bucketName, minio.MakeBucketOptions{}); err != nil {
		panic(fmt.Sprintf("failed to create minio bucket: %v", err))
	}
}

// applyExpiry 镜像产物随本地保留策略一起过期，失败只告警
func (r *MinioResource) applyExpiry(ctx context.Context, prefix string, maxAge time.Duration) {
	lc := expiryLifecycle(prefix, maxAge)
	if err := r.client.SetBucketLifecycle(ctx, r.bucketName, lc); err != nil {
		logger.Warnf("Set minio lifecycle failed bucket=%s error=%v", r.bucketName, err)
	}
}

// expiryLifecycle 生命周期规则以天为单位，向上取整且至少一天
func expiryLifecycle(prefix string, maxAge time.Duration) *lifecycle.Configuration {
	days := int((maxAge + 24*time.Hour - 1) / (24 * time.Hour))
	if days < 1 {
		days = 1
	}
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	lc := lifecycle.NewConfiguration()
	lc.Rules = []lifecycle.Rule{{
		ID:         artifactExpiryRuleID,
		Status:     "Enabled",
		RuleFilter: lifecycle.Filter{Prefix: prefix},
		Expiration: lifecycle.Expiration{Days: lifecycle.ExpirationDays(days)},
	}}
	return lc
}

// GetClient 获取MinIO客户端，未启用时为 nil
func (r *MinioResource) GetClient() *minio.Client {
	return r.client
}

func (r *MinioResource) GetBucketName() string {
	return r.bucketName
}

// Close minio-go 客户端无需关闭连接
func (r *MinioResource) Close() {}

// MinioResourcePlugin MinIO资源插件
type MinioResourcePlugin struct{}

func (p *MinioResourcePlugin) Name() string {
	return "minioResource"
}

func (p *MinioResourcePlugin) MustCreateResource() manager.Resource {
	return DefaultMinioResource()
}
