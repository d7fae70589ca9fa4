package services

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedPayload 请求体不是合法的JSON对象
	ErrMalformedPayload = errors.New("Invalid JSON")
	// ErrUpstream 第三方接口调用失败
	ErrUpstream = errors.New("upstream request failed")
	// ErrNotConfigured 缺少第三方接口密钥
	ErrNotConfigured = errors.New("not configured")
)

// FieldErrorKind 字段错误类型
type FieldErrorKind int

const (
	FieldMissing FieldErrorKind = iota
	FieldNotNumber
)

// FieldError 第一个不合法的字段
type FieldError struct {
	Field string
	Kind  FieldErrorKind
}

func (e *FieldError) Error() string {
	if e.Kind == FieldMissing {
		return fmt.Sprintf("Missing field: %s", e.Field)
	}
	return fmt.Sprintf("%s must be a number", e.Field)
}

// StorageError 持久化失败，本次结果作废
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsValidationError 是否为可由用户修正的请求错误
func IsValidationError(err error) bool {
	var fe *FieldError
	return errors.Is(err, ErrMalformedPayload) || errors.As(err, &fe)
}
