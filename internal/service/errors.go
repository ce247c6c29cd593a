package service

import (
	"errors"
	"sort"
	"strings"

	"github.com/newshub/internal/db"
)

var (
	ErrPostNotFound       = errors.New("post not found")
	ErrCommentNotFound    = errors.New("comment not found")
	ErrImageNotFound      = errors.New("image not found")
	ErrForbidden          = errors.New("operation not allowed for this user")
	ErrImageCountInvalid  = errors.New("exactly two images are required")
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrInvalidStatus 与模型层共用同一个哨兵错误。
	ErrInvalidStatus = db.ErrInvalidStatus
	ErrInvalidSlug   = db.ErrInvalidSlug
)

// ValidationError 汇总字段级校验失败信息，键为 JSON 字段名。
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func newValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}
