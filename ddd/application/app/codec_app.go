package app

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"f2v2f-service/ddd/application/cqe"
	"f2v2f-service/ddd/application/dto"
	"f2v2f-service/ddd/domain/gateway"
	"f2v2f-service/ddd/domain/port"
	"f2v2f-service/ddd/domain/service"
	"f2v2f-service/ddd/domain/vo"
	"f2v2f-service/ddd/infrastructure/codec"
	"f2v2f-service/ddd/infrastructure/codec/native"
	"f2v2f-service/ddd/infrastructure/codec/y4m"
	"f2v2f-service/ddd/infrastructure/database/persistence"
	"f2v2f-service/ddd/infrastructure/memory"
	"f2v2f-service/ddd/infrastructure/observer"
	"f2v2f-service/ddd/infrastructure/queue"
	"f2v2f-service/ddd/infrastructure/storage"
	"f2v2f-service/internal/resource"
	"f2v2f-service/pkg/assert"
	"f2v2f-service/pkg/config"
	"f2v2f-service/pkg/errno"
	"f2v2f-service/pkg/kafka"
	"f2v2f-service/pkg/logger"
)

const serviceName = "f2v2f-service"

var (
	singleCodecApp CodecApp
	onceCodecApp   sync.Once
)

// CodecApp 编解码应用服务，面向 HTTP 与消息入口
type CodecApp interface {
	// SubmitJob 落盘输入并提交任务
	SubmitJob(ctx context.Context, req *cqe.SubmitJobReq) (*dto.SubmitJobDTO, error)
	// GetJobStatus 查询任务状态
	GetJobStatus(ctx context.Context, jobID string) (*dto.JobDTO, error)
	ListJobs(ctx context.Context) ([]*dto.JobDTO, error)
	// ListFiles 产物登记列表，新的在前
	ListFiles(ctx context.Context) (*dto.FileListDTO, error)
	// DeleteFile 删除登记记录及其产物
	DeleteFile(ctx context.Context, id string) error
	// Cleanup 删除过期产物
	Cleanup(ctx context.Context, req *cqe.CleanupReq) (*dto.CleanupDTO, error)
	// OpenArtifact 打开产物用于下载
	OpenArtifact(name string) (io.ReadSeekCloser, int64, error)
	Version() *dto.VersionDTO

	// ExecuteJob / AbandonJob 供 worker 调用
	ExecuteJob(ctx context.Context, jobID string) error
	AbandonJob(ctx context.Context, jobID, reason string)
	Close()
}

type codecAppImpl struct {
	jobs      service.JobManager
	registry  service.ProvenanceRegistry
	store     gateway.ResultStore
	source    gateway.ArtifactSource
	codec     port.CodecBridge
	retention config.RetentionConfig
}

// DefaultCodecApp 按全局配置与资源组装应用服务
func DefaultCodecApp() CodecApp {
	assert.NotCircular()
	onceCodecApp.Do(func() {
		cfg := config.GetGlobalConfig()
		if cfg == nil {
			cfg = config.Default()
		}
		app, err := buildCodecApp(cfg)
		if err != nil {
			panic(fmt.Sprintf("build codec app: %v", err))
		}
		singleCodecApp = app
	})
	assert.NotNil(singleCodecApp)
	return singleCodecApp
}

// NewCodecAppWith 使用给定组件创建应用服务，source 可为 nil
func NewCodecAppWith(jobs service.JobManager, registry service.ProvenanceRegistry, store gateway.ResultStore,
	source gateway.ArtifactSource, bridge port.CodecBridge, retention config.RetentionConfig) CodecApp {
	return &codecAppImpl{
		jobs:      jobs,
		registry:  registry,
		store:     store,
		source:    source,
		codec:     bridge,
		retention: retention,
	}
}

func buildCodecApp(cfg *config.Config) (CodecApp, error) {
	engine, err := NewEngine(cfg.Codec)
	if err != nil {
		return nil, err
	}
	bridge, err := codec.NewBridge(engine)
	if err != nil {
		return nil, err
	}
	store, err := storage.NewLocalStore(cfg.Storage)
	if err != nil {
		return nil, err
	}

	var (
		mirror gateway.ArtifactMirror
		source gateway.ArtifactSource
	)
	if client := resource.DefaultMinioResource().GetClient(); client != nil {
		m := storage.NewMinioMirror(client, resource.DefaultMinioResource().GetBucketName(), cfg.Minio.Prefix)
		mirror, source = m, m
	}

	var observers []port.JobObserver
	if rm := observer.NewRedisStatusMirror(resource.DefaultRedisResource().Client(), cfg.Jobs.ProgressThrottle); rm != nil {
		observers = append(observers, rm)
	}
	if kafka.DefaultClient().IsOpen() {
		if kr := observer.NewKafkaEventReporter(kafka.DefaultClient(), cfg.Kafka.Topics.JobEvents); kr != nil {
			observers = append(observers, kr)
		}
	}

	registry := service.NewProvenanceRegistry(persistence.DefaultFileRecordRepository(), store, mirror)
	jobs := service.NewJobManager(service.JobManagerDeps{
		Jobs:      memory.NewJobRepository(),
		Scheduler: queue.DefaultJobQueue(),
		Codec:     bridge,
		Store:     store,
		Registry:  registry,
		Mirror:    mirror,
		Observers: observers,
		Defaults: vo.CodecParams{
			Width:     cfg.Codec.Width,
			Height:    cfg.Codec.Height,
			FPS:       cfg.Codec.FPS,
			ChunkSize: cfg.Codec.ChunkSize,
		},
		RetainUploads: cfg.Storage.RetainUploads,
	})

	logger.Info("Codec app initialized", map[string]interface{}{
		"engine":    cfg.Codec.Engine,
		"version":   bridge.Version(),
		"observers": len(observers),
		"mirror":    mirror != nil,
	})
	return NewCodecAppWith(jobs, registry, store, source, bridge, cfg.Retention), nil
}

// NewEngine 按配置选择编解码引擎
func NewEngine(cfg config.CodecConfig) (codec.Engine, error) {
	switch strings.ToLower(cfg.Engine) {
	case "", "y4m":
		e, err := y4m.New(y4m.Options{Compression: cfg.Compression})
		if err != nil {
			return nil, err
		}
		return e, nil
	case "native":
		return native.New(native.Options{
			UseCompression:   !strings.EqualFold(cfg.Compression, "none"),
			CompressionLevel: cfg.CompressionLevel,
		})
	default:
		return nil, fmt.Errorf("unknown codec engine %q", cfg.Engine)
	}
}

func (a *codecAppImpl) SubmitJob(ctx context.Context, req *cqe.SubmitJobReq) (*dto.SubmitJobDTO, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	name, err := storage.SanitizeName(req.FileName)
	if err != nil {
		return nil, err
	}

	content := req.Content
	if content == nil {
		if a.source == nil {
			return nil, errno.NewBizError(errno.ErrMissingFile, fmt.Errorf("object storage is not configured"))
		}
		rc, err := a.source.Fetch(ctx, req.ObjectKey)
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		content = rc
	}

	input, err := a.store.Materialize(ctx, name, content)
	if err != nil {
		return nil, err
	}

	op, _ := vo.ParseOperation(req.Operation)
	jobID, err := a.jobs.Submit(ctx, service.SubmitRequest{
		Operation:    op,
		InputLocator: input,
		DisplayName:  name,
		OutputName:   req.OutputName,
		SourceRef:    a.sourceRef(req.ObjectKey),
		Params:       req.Params(),
	})
	if err != nil {
		// 已创建的任务由任务管理释放输入，任务 id 随错误一起返回以便查询失败原因
		if jobID == "" {
			_ = a.store.Delete(input)
			return nil, err
		}
		return &dto.SubmitJobDTO{
			JobID:   jobID,
			Status:  vo.JobStatusFailed.String(),
			Message: err.Error(),
		}, err
	}
	return &dto.SubmitJobDTO{
		JobID:   jobID,
		Status:  vo.JobStatusPending.String(),
		Message: fmt.Sprintf("%s job queued", op),
	}, nil
}

// sourceRef 对象存储输入按对象键定位产物记录，镜像对象与本地输出同名
func (a *codecAppImpl) sourceRef(objectKey string) string {
	if objectKey == "" {
		return ""
	}
	return a.store.ArtifactRef(a.store.AllocateOutputLocator(path.Base(objectKey)))
}

func (a *codecAppImpl) GetJobStatus(ctx context.Context, jobID string) (*dto.JobDTO, error) {
	snap, err := a.jobs.Status(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return dto.NewJobDTO(snap), nil
}

func (a *codecAppImpl) ListJobs(ctx context.Context) ([]*dto.JobDTO, error) {
	snaps, err := a.jobs.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.JobDTO, 0, len(snaps))
	for i := range snaps {
		out = append(out, dto.NewJobDTO(&snaps[i]))
	}
	return out, nil
}

func (a *codecAppImpl) ListFiles(ctx context.Context) (*dto.FileListDTO, error) {
	records, err := a.registry.List(ctx)
	if err != nil {
		return nil, err
	}
	list := &dto.FileListDTO{Files: make([]*dto.FileRecordDTO, 0, len(records))}
	for _, r := range records {
		list.Files = append(list.Files, dto.NewFileRecordDTO(r))
	}
	list.Total = len(list.Files)
	return list, nil
}

func (a *codecAppImpl) DeleteFile(ctx context.Context, id string) error {
	if id == "" {
		return errno.NewBizError(errno.ErrInvalidParam, fmt.Errorf("file id is required"))
	}
	return a.registry.Delete(ctx, id)
}

func (a *codecAppImpl) Cleanup(ctx context.Context, req *cqe.CleanupReq) (*dto.CleanupDTO, error) {
	maxAge := a.retention.MaxAge
	if req != nil && req.MaxAge != "" {
		d, err := time.ParseDuration(req.MaxAge)
		if err != nil || d <= 0 {
			return nil, errno.NewBizError(errno.ErrInvalidParam, fmt.Errorf("max_age %q", req.MaxAge))
		}
		maxAge = d
	}
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}
	deleted, err := a.store.Sweep(ctx, maxAge)
	if err != nil {
		return nil, err
	}
	return &dto.CleanupDTO{DeletedFiles: deleted, MaxAge: maxAge.String()}, nil
}

func (a *codecAppImpl) OpenArtifact(name string) (io.ReadSeekCloser, int64, error) {
	return a.store.Open(name)
}

func (a *codecAppImpl) Version() *dto.VersionDTO {
	return &dto.VersionDTO{
		Service:   serviceName,
		Codec:     a.codec.Version(),
		Container: a.codec.Container(),
	}
}

func (a *codecAppImpl) ExecuteJob(ctx context.Context, jobID string) error {
	return a.jobs.ExecuteJob(ctx, jobID)
}

func (a *codecAppImpl) AbandonJob(ctx context.Context, jobID, reason string) {
	a.jobs.AbandonJob(ctx, jobID, reason)
}

func (a *codecAppImpl) Close() {
	a.jobs.Close()
}
