package remote

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound 表示远端不存在该路径。
	ErrNotFound = errors.New("remote: not found")
	// ErrConflict 表示条件写入的 SHA 与远端当前版本不一致。
	ErrConflict = errors.New("remote: revision conflict")
	// ErrAlreadyExists 表示创建时路径已被占用，是 ErrConflict 的一种。
	ErrAlreadyExists = errors.New("remote: path already exists")
	// ErrUnavailable 表示网络、鉴权或远端服务故障。
	ErrUnavailable = errors.New("remote: unavailable")
)

// ConflictError 携带冲突发生时的路径与期望 SHA。
type ConflictError struct {
	Path          string
	ExpectedSHA   string
	CurrentSHA    string
	AlreadyExists bool
	Err           error
}

func (e *ConflictError) Error() string {
	if e.AlreadyExists {
		return fmt.Sprintf("remote: %s already exists", e.Path)
	}
	if e.CurrentSHA != "" {
		return fmt.Sprintf("remote: %s is at %s but expected %s", e.Path, e.CurrentSHA, e.ExpectedSHA)
	}
	return fmt.Sprintf("remote: %s does not match expected revision %s", e.Path, e.ExpectedSHA)
}

// Is 让 errors.Is 同时匹配 ErrConflict 与（创建冲突时）ErrAlreadyExists。
func (e *ConflictError) Is(target error) bool {
	if target == ErrConflict {
		return true
	}
	return e.AlreadyExists && target == ErrAlreadyExists
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}

func notFound(op, path string) error {
	return fmt.Errorf("%s %s: %w", op, path, ErrNotFound)
}

func unavailable(op, path string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%s %s: %w", op, path, ErrUnavailable)
	}
	return fmt.Errorf("%s %s: %w: %w", op, path, ErrUnavailable, cause)
}
