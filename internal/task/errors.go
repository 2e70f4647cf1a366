package task

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind 错误类别
type Kind string

const (
	KindValidation     Kind = "VALIDATION_ERROR"
	KindNotFound       Kind = "NOT_FOUND"
	KindForbidden      Kind = "FORBIDDEN"
	KindInvalidState   Kind = "INVALID_STATE"
	KindPartialFailure Kind = "PARTIAL_FAILURE"
)

// ItemError 批量操作中单个条目的错误
type ItemError struct {
	Index   int               `json:"index"`
	Kind    Kind              `json:"kind"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Error 领域错误
type Error struct {
	Kind    Kind
	Message string
	// Fields 字段级校验信息,key 为字段名
	Fields map[string]string
	// Items 批量创建时逐条的失败信息
	Items []ItemError
	// Created 批量创建时已成功写入的任务
	Created []*Task
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

// NewValidationError 创建校验错误
func NewValidationError(message string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

// NewNotFound 创建资源不存在错误
func NewNotFound(resource, id string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %q not found", resource, id)}
}

// NewForbidden 创建权限错误
func NewForbidden(format string, args ...interface{}) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

// NewInvalidState 创建状态冲突错误
func NewInvalidState(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

// NewPartialFailure 创建批量部分失败错误
func NewPartialFailure(created []*Task, items []ItemError) *Error {
	return &Error{
		Kind:    KindPartialFailure,
		Message: fmt.Sprintf("%d of %d tasks failed", len(items), len(items)+len(created)),
		Items:   items,
		Created: created,
	}
}

// KindOf 返回错误类别,非领域错误返回空字符串
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind 判断错误是否属于指定类别
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// FieldErrors 收集字段级校验信息
type FieldErrors map[string]string

// Add 记录一个字段错误,同一字段只保留第一条
func (f FieldErrors) Add(field, message string) {
	if _, exists := f[field]; !exists {
		f[field] = message
	}
}

// Err 没有错误时返回 nil
func (f FieldErrors) Err() error {
	if len(f) == 0 {
		return nil
	}
	return NewValidationError("validation failed", map[string]string(f))
}
