package xerrors

import (
	"context"
	"errors"
)

// Normalize 将任意错误转换为 *Error：
// 链首已是 *Error 时原样返回；链中挂有哨兵错误时派生出同类实例并以原始错误的描述作为对外消息；
// 上下文超时与取消分别映射为 DeadlineExceeded 与 Unavailable；其余归为内部错误。
func Normalize(err error) *Error {
	if err == nil {
		return nil
	}

	var direct *Error
	if errors.As(err, &direct) && direct == err {
		return direct
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return New(ErrDeadlineExceeded, 504, "request deadline exceeded", "", err)
	case errors.Is(err, context.Canceled):
		return New(ErrUnavailable, 503, "request canceled", "", err)
	}

	if sentinel, ok := FromError(err); ok {
		return Derive(sentinel, err.Error(), err)
	}
	return Internal("internal error", err)
}
