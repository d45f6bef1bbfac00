package errno

import (
	"errors"
	"fmt"
)

// BizError 携带错误码和底层原因的业务错误
type BizError struct {
	Errno *Errno
	Cause error
}

// NewBizError wraps cause with a caller-facing code.
func NewBizError(no *Errno, cause error) *BizError {
	return &BizError{Errno: no, Cause: cause}
}

func (e *BizError) Error() string {
	if e.Cause == nil {
		return e.Errno.Message
	}
	return fmt.Sprintf("%s: %v", e.Errno.Message, e.Cause)
}

func (e *BizError) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is match a BizError against its Errno.
func (e *BizError) Is(target error) bool {
	t, ok := target.(*Errno)
	return ok && t == e.Errno
}

// Decode 从任意错误中提取错误码，未知错误归为 ErrInternalServer
func Decode(err error) *Errno {
	if err == nil {
		return OK
	}
	var biz *BizError
	if errors.As(err, &biz) {
		return biz.Errno
	}
	var no *Errno
	if errors.As(err, &no) {
		return no
	}
	return ErrInternalServer
}
