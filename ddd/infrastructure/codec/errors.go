package codec

import (
	"fmt"

	"f2v2f-service/ddd/domain/vo"
)

var codeKinds = map[int32]vo.ErrorKind{
	StatusInvalidInput:        vo.ErrorKindInvalidInput,
	StatusIOError:             vo.ErrorKindIO,
	StatusEncodingError:       vo.ErrorKindEncoding,
	StatusDecodingError:       vo.ErrorKindDecoding,
	StatusConfigError:         vo.ErrorKindConfig,
	StatusOperationInProgress: vo.ErrorKindOperationInProgress,
	StatusInvalidHandle:       vo.ErrorKindInvalidHandle,
	StatusUnknown:             vo.ErrorKindUnknown,
}

var kindCodes = func() map[vo.ErrorKind]int32 {
	m := make(map[vo.ErrorKind]int32, len(codeKinds))
	for code, kind := range codeKinds {
		m[kind] = code
	}
	return m
}()

// KindForCode maps an engine status code to its error kind. Unlisted codes are Unknown.
func KindForCode(code int32) vo.ErrorKind {
	if kind, ok := codeKinds[code]; ok {
		return kind
	}
	return vo.ErrorKindUnknown
}

// Error is the only error type the bridge returns.
type Error struct {
	Kind    vo.ErrorKind
	Code    int32
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// ErrorKind implements port.CodecFailure.
func (e *Error) ErrorKind() vo.ErrorKind {
	return e.Kind
}

// Detail implements port.CodecFailure.
func (e *Error) Detail() string {
	return e.Message
}

// newError builds an Error, falling back to the kind's default message.
func newError(kind vo.ErrorKind, message string) *Error {
	if message == "" {
		message = kind.DefaultMessage()
	}
	return &Error{Kind: kind, Code: kindCodes[kind], Message: message}
}

func errorFromCode(code int32, message string) *Error {
	e := newError(KindForCode(code), message)
	e.Code = code
	return e
}
