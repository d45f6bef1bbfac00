package vo

// ErrorKind classifies every failure a job can end with.
type ErrorKind string

const (
	ErrorKindInvalidInput        ErrorKind = "invalid_input"
	ErrorKindIO                  ErrorKind = "io"
	ErrorKindEncoding            ErrorKind = "encoding"
	ErrorKindDecoding            ErrorKind = "decoding"
	ErrorKindConfig              ErrorKind = "config"
	ErrorKindOperationInProgress ErrorKind = "operation_in_progress"
	ErrorKindInvalidHandle       ErrorKind = "invalid_handle"
	ErrorKindUnknown             ErrorKind = "unknown"
)

func (k ErrorKind) String() string {
	return string(k)
}

// DefaultMessage 每种错误在引擎未提供详细信息时使用的固定描述
func (k ErrorKind) DefaultMessage() string {
	switch k {
	case ErrorKindInvalidInput:
		return "invalid input"
	case ErrorKindIO:
		return "I/O error"
	case ErrorKindEncoding:
		return "encoding failed"
	case ErrorKindDecoding:
		return "decoding failed"
	case ErrorKindConfig:
		return "invalid codec configuration"
	case ErrorKindOperationInProgress:
		return "an operation is already in progress on this handle"
	case ErrorKindInvalidHandle:
		return "invalid or destroyed codec handle"
	default:
		return "unknown error"
	}
}
