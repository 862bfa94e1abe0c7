package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindUnknown         Kind = "UNKNOWN"
	KindNotFound        Kind = "NOT_FOUND"
	KindUnauthenticated Kind = "UNAUTHENTICATED"
	KindForbidden       Kind = "PERMISSION_DENIED"
	KindInvalid         Kind = "INVALID_ARGUMENT"
)

// Error 领域错误：只携带类型和上下文（实体、ID、字段），不含本地化文案
type Error struct {
	Kind    Kind   `json:"kind"`
	Entity  string `json:"entity,omitempty"`
	ID      any    `json:"id,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := string(e.Kind) + ": " + e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// Is 同类型即视为相等，便于 errors.Is(err, apperr.ErrNotFound) 之类的判断
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Field != "" && t.Field != e.Field {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrNotFound        = &Error{Kind: KindNotFound, Message: "not found"}
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated, Message: "unauthenticated"}
	ErrForbidden       = &Error{Kind: KindForbidden, Message: "permission denied"}
	ErrInvalid         = &Error{Kind: KindInvalid, Message: "invalid argument"}
)

func NotFound(entity string, id any) error {
	return &Error{
		Kind:    KindNotFound,
		Entity:  entity,
		ID:      id,
		Message: fmt.Sprintf("%s %v not found", entity, id),
	}
}

func Unauthenticated(msg string) error {
	return &Error{Kind: KindUnauthenticated, Message: msg}
}

func Forbidden(msg string) error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func Invalid(field, msg string) error {
	return &Error{Kind: KindInvalid, Field: field, Message: msg}
}

// Duplicate 唯一键冲突，例如频道 slug 已存在
func Duplicate(entity, field string, value any) error {
	return &Error{
		Kind:    KindInvalid,
		Entity:  entity,
		Field:   field,
		ID:      value,
		Message: fmt.Sprintf("%s with %s %v already exists", entity, field, value),
	}
}

func Wrap(kind Kind, msg string, cause error) error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// KindOf 取出错误链上第一个领域错误的类型
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
