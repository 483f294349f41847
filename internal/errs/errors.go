package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// ==================== 错误类别 ====================

// Kind 领域错误类别，决定 HTTP 状态码
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUnpublished
	KindInsufficientStock
	KindPrefixConflict
	KindPermissionDenied
	KindAuthRequired
	KindAuthExpired
)

// HTTPStatus 类别到 HTTP 状态码的映射
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnpublished, KindInsufficientStock, KindPrefixConflict:
		return http.StatusUnprocessableEntity
	case KindPermissionDenied:
		return http.StatusForbidden
	case KindAuthRequired, KindAuthExpired:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// ==================== 领域错误 ====================

// Error 带类别的领域错误
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New 创建领域错误
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap 包装底层错误
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf 取出错误类别，非领域错误一律按 Internal 处理
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// ==================== 便捷构造 ====================

func Validation(format string, args ...interface{}) *Error {
	return New(KindValidation, format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return New(KindNotFound, format, args...)
}

func Conflict(format string, args ...interface{}) *Error {
	return New(KindConflict, format, args...)
}

func Unpublished(format string, args ...interface{}) *Error {
	return New(KindUnpublished, format, args...)
}

func InsufficientStock(format string, args ...interface{}) *Error {
	return New(KindInsufficientStock, format, args...)
}

func PrefixConflict(format string, args ...interface{}) *Error {
	return New(KindPrefixConflict, format, args...)
}

func PermissionDenied(format string, args ...interface{}) *Error {
	return New(KindPermissionDenied, format, args...)
}
