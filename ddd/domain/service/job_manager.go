package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"f2v2f-service/ddd/domain/entity"
	"f2v2f-service/ddd/domain/gateway"
	"f2v2f-service/ddd/domain/port"
	"f2v2f-service/ddd/domain/repo"
	"f2v2f-service/ddd/domain/vo"
	"f2v2f-service/pkg/errno"
	"f2v2f-service/pkg/logger"
)

const (
	// unknownTotalProgress 输入大小未知时的进度
	unknownTotalProgress = 50
	decodedFallbackName  = "decoded.bin"
	encodedFallbackStem  = "encoded"
)

var errJobNotPending = errors.New("job is not pending")

// SubmitRequest 提交任务请求
type SubmitRequest struct {
	Operation    vo.Operation
	InputLocator string
	// DisplayName 上传文件名，编码时作为原始文件名登记
	DisplayName string
	// OutputName 解码时显式指定的输出文件名
	OutputName string
	// SourceRef 解码输入的产物引用，为空时由 DisplayName 推出
	SourceRef string
	Params    vo.CodecParams
}

// JobManager 编解码任务管理
type JobManager interface {
	// Submit 创建 Pending 任务并调度，立即返回任务ID
	Submit(ctx context.Context, req SubmitRequest) (string, error)
	// Status 返回任务快照，不会等待执行中的任务
	Status(ctx context.Context, jobID string) (*entity.JobSnapshot, error)
	List(ctx context.Context) ([]entity.JobSnapshot, error)
	// ExecuteJob 执行一个任务，由 worker 调用
	ExecuteJob(ctx context.Context, jobID string) error
	// AbandonJob 把未开始的任务标记为失败并释放输入
	AbandonJob(ctx context.Context, jobID, reason string)
	// Close 等待观察者通知投递完成
	Close()
}

// JobManagerDeps 任务管理依赖
type JobManagerDeps struct {
	Jobs      repo.JobRepository
	Scheduler port.JobScheduler
	Codec     port.CodecBridge
	Store     gateway.ResultStore
	Registry  ProvenanceRegistry
	// Mirror 可选，成功产物的对象存储副本
	Mirror    gateway.ArtifactMirror
	Observers []port.JobObserver
	Defaults  vo.CodecParams
	// RetainUploads 为 true 时任务结束后保留上传文件
	RetainUploads bool
}

type jobManagerImpl struct {
	deps     JobManagerDeps
	notifier *jobNotifier
}

// NewJobManager 创建任务管理服务
func NewJobManager(deps JobManagerDeps) JobManager {
	deps.Defaults = deps.Defaults.WithDefaults(vo.DefaultCodecParams())
	return &jobManagerImpl{
		deps:     deps,
		notifier: newJobNotifier(deps.Observers),
	}
}

func (m *jobManagerImpl) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	if _, ok := vo.ParseOperation(req.Operation.String()); !ok {
		return "", errno.NewBizError(errno.ErrInvalidOperation, fmt.Errorf("operation %q", req.Operation))
	}
	if req.InputLocator == "" {
		return "", errno.NewBizError(errno.ErrInputLocatorEmpty, nil)
	}
	params := req.Params.WithDefaults(m.deps.Defaults)
	validate := params.Validate
	if req.Operation == vo.OperationDecode {
		validate = params.ValidateGeometry
	}
	if err := validate(); err != nil {
		return "", errno.NewBizError(errno.ErrCodecParamsRange, err)
	}

	originName, outputName := m.planOutput(ctx, req)
	job := entity.NewJob(req.Operation, req.InputLocator, m.deps.Store.AllocateOutputLocator(outputName), originName, params)
	if err := m.deps.Jobs.Create(ctx, job); err != nil {
		return "", err
	}
	m.notifier.publish(job.Snapshot(), false)

	logger.Info("Job submitted", map[string]interface{}{
		"job_id":    job.ID(),
		"operation": req.Operation.String(),
		"input":     req.InputLocator,
		"output":    job.OutputLocator(),
	})

	if err := m.deps.Scheduler.Schedule(ctx, job.ID()); err != nil {
		m.AbandonJob(ctx, job.ID(), "job was not scheduled: "+err.Error())
		return job.ID(), err
	}
	return job.ID(), nil
}

// planOutput 选择原始文件名和输出文件名。
// 编码：<uuid>_<stem><container>；解码：显式名称，否则按登记的原始文件名，否则 <uuid>_decoded.bin。
func (m *jobManagerImpl) planOutput(ctx context.Context, req SubmitRequest) (origin, output string) {
	prefix := uuid.NewString() + "_"
	if req.Operation == vo.OperationEncode {
		stem := stemOf(req.DisplayName)
		if stem == "" {
			stem = encodedFallbackStem
		}
		return req.DisplayName, prefix + stem + m.deps.Codec.Container()
	}

	ref := req.SourceRef
	if ref == "" && req.DisplayName != "" {
		ref = m.deps.Store.ArtifactRef(m.deps.Store.AllocateOutputLocator(req.DisplayName))
	}
	if m.deps.Registry != nil && ref != "" {
		name, ok, err := m.deps.Registry.FindOriginName(ctx, ref)
		if err != nil {
			logger.Warnf("Could not look up original filename ref=%s error=%v", ref, err)
		} else if ok {
			origin = name
		}
	}
	switch {
	case req.OutputName != "":
		output = prefix + filepath.Base(req.OutputName)
	case origin != "":
		output = prefix + stemOf(origin) + filepath.Ext(origin)
	default:
		output = prefix + decodedFallbackName
	}
	return origin, output
}

func stemOf(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (m *jobManagerImpl) Status(ctx context.Context, jobID string) (*entity.JobSnapshot, error) {
	if jobID == "" {
		return nil, errno.NewBizError(errno.ErrJobIDRequired, nil)
	}
	snap, err := m.deps.Jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, errno.NewBizError(errno.ErrJobNotFound, fmt.Errorf("job %s", jobID))
	}
	return snap, nil
}

func (m *jobManagerImpl) List(ctx context.Context) ([]entity.JobSnapshot, error) {
	return m.deps.Jobs.List(ctx)
}

func (m *jobManagerImpl) ExecuteJob(ctx context.Context, jobID string) (err error) {
	snap, err := m.deps.Jobs.Update(ctx, jobID, func(j *entity.Job) error {
		if err := j.Start(); err != nil {
			return err
		}
		if size, err := m.deps.Store.Size(j.InputLocator()); err == nil {
			j.SetTotalSize(size)
		}
		return nil
	})
	if err != nil {
		return err
	}
	m.notifier.publish(*snap, false)
	logger.Infof("Job started job_id=%s operation=%s", jobID, snap.Operation)

	defer m.releaseInput(snap.ID, snap.InputLocator)
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("Job panic recovered job_id=%s: %v", jobID, r)
			msg := fmt.Sprintf("unexpected fault: %v", r)
			m.fail(ctx, jobID, vo.ErrorKindUnknown, msg)
			err = errors.New(msg)
		}
	}()

	resultRef, kind, runErr := m.run(ctx, *snap)
	if runErr != nil {
		m.fail(ctx, jobID, kind, failureMessage(runErr))
		return runErr
	}

	done, err := m.deps.Jobs.Update(ctx, jobID, func(j *entity.Job) error { return j.Complete(resultRef) })
	if err != nil {
		logger.Errorf("Complete job failed job_id=%s error=%v", jobID, err)
		return err
	}
	m.notifier.publish(*done, false)
	logger.Infof("Job completed job_id=%s result=%s", jobID, resultRef)
	return nil
}

// run 执行编解码并登记产物，返回产物引用；失败时返回错误类型
func (m *jobManagerImpl) run(ctx context.Context, snap entity.JobSnapshot) (string, vo.ErrorKind, error) {
	store := m.deps.Store
	if snap.TotalSize == nil || !store.Exists(snap.InputLocator) {
		return "", vo.ErrorKindIO, fmt.Errorf("input artifact %s is unavailable", snap.InputLocator)
	}
	total := *snap.TotalSize

	session, err := m.createSession(snap)
	if err != nil {
		return "", kindOf(err, vo.ErrorKindConfig), err
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			logger.Warnf("Close codec session failed job_id=%s error=%v", snap.ID, cerr)
		}
	}()

	inPath := store.LocalPath(snap.InputLocator)
	outPath := store.LocalPath(snap.OutputLocator)
	sink := m.progressSink(ctx, snap.ID, total)
	if snap.Operation == vo.OperationEncode {
		err = m.deps.Codec.Encode(session, inPath, outPath, sink)
	} else {
		err = m.deps.Codec.Decode(session, inPath, outPath, sink)
	}
	if err != nil {
		return "", kindOf(err, vo.ErrorKindUnknown), err
	}

	size, err := store.Size(snap.OutputLocator)
	if err != nil || size == 0 {
		return "", vo.ErrorKindIO, fmt.Errorf("codec did not create output %s", filepath.Base(outPath))
	}

	resultRef := store.ArtifactRef(snap.OutputLocator)
	m.bookkeep(ctx, snap, outPath, resultRef, size)
	return resultRef, "", nil
}

func (m *jobManagerImpl) createSession(snap entity.JobSnapshot) (port.CodecSession, error) {
	if snap.Operation == vo.OperationEncode {
		return m.deps.Codec.CreateEncoder(snap.Params)
	}
	return m.deps.Codec.CreateDecoder(snap.Params)
}

// progressSink 在编解码线程上同步调用，只做内存更新
func (m *jobManagerImpl) progressSink(ctx context.Context, jobID string, total int64) port.ProgressSink {
	return func(bytesProcessed, _ uint64, _ string) {
		progress := unknownTotalProgress
		if total > 0 {
			ratio := bytesProcessed * 100 / uint64(total)
			if ratio > 100 {
				ratio = 100
			}
			progress = int(ratio)
		}
		changed := false
		snap, err := m.deps.Jobs.Update(ctx, jobID, func(j *entity.Job) error {
			changed = j.AdvanceProgress(progress)
			return nil
		})
		if err == nil && changed {
			m.notifier.publish(*snap, true)
		}
	}
}

// bookkeep 登记产物并上传镜像；失败只记录日志，不影响任务结果
func (m *jobManagerImpl) bookkeep(ctx context.Context, snap entity.JobSnapshot, outPath, resultRef string, size int64) {
	draft := entity.FileRecordDraft{
		Size:        size,
		ArtifactRef: resultRef,
		OriginName:  snap.OriginName,
	}
	if snap.Operation == vo.OperationEncode {
		draft.Kind = vo.FileKindEncoded
		draft.Name = snap.OriginName
		draft.ChunkSize = snap.Params.ChunkSize
		if m.deps.RetainUploads {
			draft.InputRef = snap.InputLocator
		}
	} else {
		draft.Kind = vo.FileKindOriginal
		draft.Name = snap.OriginName
		if draft.Name == "" {
			draft.Name = filepath.Base(outPath)
		}
		sum, err := fileChecksum(outPath)
		if err != nil {
			logger.Warnf("Checksum of decoded output failed job_id=%s error=%v", snap.ID, err)
		}
		draft.Checksum = sum
	}
	if draft.Name == "" {
		draft.Name = filepath.Base(outPath)
	}

	if m.deps.Registry != nil {
		if _, err := m.deps.Registry.Record(ctx, draft); err != nil {
			logger.Warn("Could not add to registry", map[string]interface{}{
				"job_id": snap.ID,
				"error":  err.Error(),
			})
		}
	}
	if m.deps.Mirror != nil {
		if err := m.deps.Mirror.Mirror(ctx, outPath, filepath.Base(outPath)); err != nil {
			logger.Warnf("Mirror artifact failed job_id=%s error=%v", snap.ID, err)
		}
	}
}

func (m *jobManagerImpl) fail(ctx context.Context, jobID string, kind vo.ErrorKind, message string) {
	snap, err := m.deps.Jobs.Update(ctx, jobID, func(j *entity.Job) error { return j.Fail(kind, message) })
	if err != nil {
		logger.Errorf("Mark job failed error job_id=%s error=%v", jobID, err)
		return
	}
	m.notifier.publish(*snap, false)
	logger.Warn("Job failed", map[string]interface{}{
		"job_id":     jobID,
		"error_kind": kind.String(),
		"error":      message,
	})
}

func (m *jobManagerImpl) AbandonJob(ctx context.Context, jobID, reason string) {
	snap, err := m.deps.Jobs.Update(ctx, jobID, func(j *entity.Job) error {
		if j.Status() != vo.JobStatusPending {
			return errJobNotPending
		}
		return j.Fail(vo.ErrorKindUnknown, reason)
	})
	if err != nil {
		if !errors.Is(err, errJobNotPending) {
			logger.Warnf("Abandon job failed job_id=%s error=%v", jobID, err)
		}
		return
	}
	m.notifier.publish(*snap, false)
	logger.Warnf("Job abandoned job_id=%s reason=%s", jobID, reason)
	m.releaseInput(jobID, snap.InputLocator)
}

func (m *jobManagerImpl) releaseInput(jobID, locator string) {
	if err := m.deps.Store.Release(locator, m.deps.RetainUploads); err != nil {
		logger.Warnf("Release job input failed job_id=%s locator=%s error=%v", jobID, locator, err)
	}
}

func (m *jobManagerImpl) Close() {
	m.notifier.close()
}

// failureMessage 编解码错误只保留引擎信息，不带类型前缀
func failureMessage(err error) string {
	var failure port.CodecFailure
	if errors.As(err, &failure) {
		return failure.Detail()
	}
	return err.Error()
}

func kindOf(err error, fallback vo.ErrorKind) vo.ErrorKind {
	var failure port.CodecFailure
	if errors.As(err, &failure) {
		return failure.ErrorKind()
	}
	return fallback
}

func fileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
