package vo

// JobStatus 编解码任务状态
type JobStatus string

const (
	// JobStatusPending 待处理
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning 处理中
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted 已完成
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed 失败
	JobStatusFailed JobStatus = "failed"
)

// IsValid 检查状态是否有效
func (s JobStatus) IsValid() bool {
	switch s {
	case JobStatusPending, JobStatusRunning, JobStatusCompleted, JobStatusFailed:
		return true
	default:
		return false
	}
}

// String 返回状态字符串
func (s JobStatus) String() string {
	return string(s)
}

// IsFinalStatus 检查是否为最终状态
func (s JobStatus) IsFinalStatus() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// CanTransitionTo 检查是否可以转换到目标状态。
// Pending→Failed 仅用于入队失败的任务。
func (s JobStatus) CanTransitionTo(target JobStatus) bool {
	switch s {
	case JobStatusPending:
		return target == JobStatusRunning || target == JobStatusFailed
	case JobStatusRunning:
		return target == JobStatusCompleted || target == JobStatusFailed
	default:
		return false // 最终状态不能转换
	}
}

// Operation 任务类型
type Operation string

const (
	OperationEncode Operation = "encode"
	OperationDecode Operation = "decode"
)

// ParseOperation 解析任务类型
func ParseOperation(s string) (Operation, bool) {
	switch Operation(s) {
	case OperationEncode:
		return OperationEncode, true
	case OperationDecode:
		return OperationDecode, true
	default:
		return "", false
	}
}

func (o Operation) String() string {
	return string(o)
}
