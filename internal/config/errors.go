package config

import (
	"errors"
	"strings"
)

// ErrInvalidConfig 是所有语义校验错误的公共根因，调用方可用 errors.Is 判断。
var ErrInvalidConfig = errors.New("invalid config")

// FieldError 指出出错的配置键（如 Remote.Repository）与原因。
type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Reason
}

func (e FieldError) Unwrap() error { return ErrInvalidConfig }

func newFieldError(field, reason string) error {
	return FieldError{Field: field, Reason: reason}
}

// sectionField 以 "." 拼接配置段与键名，段为空时直接返回键名。
func sectionField(section, field string) string {
	return strings.TrimPrefix(section+"."+field, ".")
}
