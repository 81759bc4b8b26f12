package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind 错误分类，决定对外暴露的 HTTP 状态码
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUpstream:
		return "upstream"
	default:
		return "internal"
	}
}

// HTTPStatus 分类对应的 HTTP 状态码
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error 带分类的业务错误
// 同一 Kind 的 sentinel 之间用指针相等区分，errors.Is 对 Kind 哨兵（Message 为空）按分类匹配
type Error struct {
	Kind    Kind
	Message string
	// Status 上游返回的 HTTP 状态码，仅 KindUpstream 使用，0 表示未收到响应（超时/网络错误）
	Status int
	Err    error
}

// New 创建带分类的 sentinel 错误
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Upstream 创建上游服务错误
func Upstream(status int, err error) *Error {
	msg := "upstream service error"
	if status > 0 {
		msg = fmt.Sprintf("upstream service error (status %d)", status)
	}
	return &Error{Kind: KindUpstream, Message: msg, Status: status, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is 支持 errors.Is(err, ErrNotFound) 这类按分类匹配
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Message == "" {
		return e.Kind == t.Kind
	}
	return e == t
}

// 分类哨兵：用于 errors.Is 按分类判断
var (
	ErrValidation      = &Error{Kind: KindValidation}
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated}
	ErrForbidden       = &Error{Kind: KindForbidden}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrConflict        = &Error{Kind: KindConflict}
	ErrUpstream        = &Error{Kind: KindUpstream}
)

// KindOf 提取错误分类，非 *Error 一律视为内部错误
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message 提取对外消息；内部错误返回通用文案，避免泄露细节
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		if e.Message != "" {
			return e.Message
		}
		return e.Kind.String()
	}
	return "internal server error"
}

// UpstreamStatus 提取上游状态码
func UpstreamStatus(err error) int {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindUpstream {
		return e.Status
	}
	return 0
}
