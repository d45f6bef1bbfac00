package entity

import (
	"time"

	"github.com/google/uuid"

	"f2v2f-service/ddd/domain/vo"
)

// JobError 失败任务的错误信息
type JobError struct {
	Kind    vo.ErrorKind
	Message string
}

// Job 编解码任务实体
type Job struct {
	id            string         // 任务ID
	operation     vo.Operation   // encode | decode
	inputLocator  string         // 输入产物
	outputLocator string         // 输出产物，创建时确定
	originName    string         // 输入文件展示名
	params        vo.CodecParams // 会话参数
	status        vo.JobStatus   // 任务状态
	progress      int            // 0-100
	totalSize     *int64         // 输入字节数，开始执行后可用
	err           *JobError      // 仅 Failed 时存在
	resultRef     string         // 仅 Completed 时存在
	createdAt     time.Time
	updatedAt     time.Time
	startedAt     *time.Time
	completedAt   *time.Time
}

// NewJob 创建 Pending 状态的任务
func NewJob(op vo.Operation, inputLocator, outputLocator, originName string, params vo.CodecParams) *Job {
	now := time.Now()
	return &Job{
		id:            uuid.NewString(),
		operation:     op,
		inputLocator:  inputLocator,
		outputLocator: outputLocator,
		originName:    originName,
		params:        params,
		status:        vo.JobStatusPending,
		createdAt:     now,
		updatedAt:     now,
	}
}

// Getters
func (j *Job) ID() string                { return j.id }
func (j *Job) Operation() vo.Operation   { return j.operation }
func (j *Job) InputLocator() string      { return j.inputLocator }
func (j *Job) OutputLocator() string     { return j.outputLocator }
func (j *Job) OriginName() string        { return j.originName }
func (j *Job) Params() vo.CodecParams    { return j.params }
func (j *Job) Status() vo.JobStatus      { return j.status }
func (j *Job) Progress() int             { return j.progress }
func (j *Job) TotalSize() *int64         { return j.totalSize }
func (j *Job) Err() *JobError            { return j.err }
func (j *Job) ResultRef() string         { return j.resultRef }
func (j *Job) CreatedAt() time.Time      { return j.createdAt }
func (j *Job) UpdatedAt() time.Time      { return j.updatedAt }
func (j *Job) StartedAt() *time.Time     { return j.startedAt }
func (j *Job) CompletedAt() *time.Time   { return j.completedAt }
func (j *Job) IsFinal() bool             { return j.status.IsFinalStatus() }

// Start 开始执行
func (j *Job) Start() error {
	if !j.status.CanTransitionTo(vo.JobStatusRunning) {
		return NewDomainError("cannot start job in status " + j.status.String())
	}
	now := time.Now()
	j.status = vo.JobStatusRunning
	j.startedAt = &now
	j.updatedAt = now
	return nil
}

// SetTotalSize 记录输入大小
func (j *Job) SetTotalSize(size int64) {
	j.totalSize = &size
	j.updatedAt = time.Now()
}

// AdvanceProgress 更新进度，只增不减，范围 [0,100]。
// 返回进度是否发生变化。
func (j *Job) AdvanceProgress(progress int) bool {
	if j.status != vo.JobStatusRunning {
		return false
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	if progress <= j.progress {
		return false
	}
	j.progress = progress
	j.updatedAt = time.Now()
	return true
}

// Complete 完成任务，进度置为 100
func (j *Job) Complete(resultRef string) error {
	if !j.status.CanTransitionTo(vo.JobStatusCompleted) {
		return NewDomainError("cannot complete job in status " + j.status.String())
	}
	now := time.Now()
	j.status = vo.JobStatusCompleted
	j.progress = 100
	j.resultRef = resultRef
	j.completedAt = &now
	j.updatedAt = now
	return nil
}

// Fail 任务失败
func (j *Job) Fail(kind vo.ErrorKind, message string) error {
	if !j.status.CanTransitionTo(vo.JobStatusFailed) {
		return NewDomainError("cannot fail job in status " + j.status.String())
	}
	if message == "" {
		message = kind.DefaultMessage()
	}
	now := time.Now()
	j.status = vo.JobStatusFailed
	j.err = &JobError{Kind: kind, Message: message}
	j.completedAt = &now
	j.updatedAt = now
	return nil
}

// Snapshot 返回任务的时点副本
func (j *Job) Snapshot() JobSnapshot {
	s := JobSnapshot{
		ID:            j.id,
		Operation:     j.operation,
		InputLocator:  j.inputLocator,
		OutputLocator: j.outputLocator,
		OriginName:    j.originName,
		Params:        j.params,
		Status:        j.status,
		Progress:      j.progress,
		ResultRef:     j.resultRef,
		CreatedAt:     j.createdAt,
		UpdatedAt:     j.updatedAt,
	}
	if j.totalSize != nil {
		size := *j.totalSize
		s.TotalSize = &size
	}
	if j.err != nil {
		e := *j.err
		s.Err = &e
	}
	if j.startedAt != nil {
		t := *j.startedAt
		s.StartedAt = &t
	}
	if j.completedAt != nil {
		t := *j.completedAt
		s.CompletedAt = &t
	}
	return s
}

// JobSnapshot 任务的只读副本，不与实体共享任何可变状态
type JobSnapshot struct {
	ID            string
	Operation     vo.Operation
	InputLocator  string
	OutputLocator string
	OriginName    string
	Params        vo.CodecParams
	Status        vo.JobStatus
	Progress      int
	TotalSize     *int64
	Err           *JobError
	ResultRef     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	StartedAt     *time.Time
	CompletedAt   *time.Time
}

// DomainError 领域错误
type DomainError struct {
	message string
}

func NewDomainError(message string) *DomainError {
	return &DomainError{message: message}
}

func (e *DomainError) Error() string {
	return e.message
}
