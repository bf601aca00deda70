package article

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument 表示请求参数缺失或非法，调用方应修正后重试。
var ErrInvalidArgument = errors.New("article: invalid argument")

// RenameStep 标识重命名流程中失败的步骤。
type RenameStep string

const (
	StepReadSource   RenameStep = "read_source"
	StepCreateTarget RenameStep = "create_target"
	StepDeleteSource RenameStep = "delete_source"
)

// RenameError 记录重命名在哪一步失败。delete_source 失败时新旧路径同时存在，
// 需要人工清理，远端不会回滚已完成的创建。
type RenameError struct {
	Step    RenameStep
	Path    string
	NewPath string
	Err     error
}

func (e *RenameError) Error() string {
	if e.Step == StepDeleteSource {
		return fmt.Sprintf("rename %s: both %s and %s now exist and need manual cleanup: %v", e.Step, e.Path, e.NewPath, e.Err)
	}
	return fmt.Sprintf("rename %s failed for %s: %v", e.Step, e.Path, e.Err)
}

func (e *RenameError) Unwrap() error {
	return e.Err
}

// Partial 表示远端已经留下了部分结果（目标已创建，源未删除）。
func (e *RenameError) Partial() bool {
	return e.Step == StepDeleteSource
}

func invalidArgument(err error) error {
	return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
}
