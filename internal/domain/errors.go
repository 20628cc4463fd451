package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrStorageUnavailable 任意存储查询失败；调用方决定是否重试
	ErrStorageUnavailable = errors.New("storage unavailable")

	ErrUnknownLocation  = errors.New("unknown location")
	ErrInvalidCheckType = errors.New("invalid check type")
	ErrInvalidCondition = errors.New("invalid apar condition")
	ErrInvalidDay       = errors.New("invalid operational day")
	ErrInvalidRequest   = errors.New("invalid request")
)

// StorageError 包装存储层错误，同时保留原始错误链
func StorageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorageUnavailable, op, err)
}
