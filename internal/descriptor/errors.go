package descriptor

import (
	"errors"
	"fmt"
)

// 运行时查询错误，使用 errors.Is 匹配
var (
	ErrUnknownSkeleton  = errors.New("unknown skeleton")
	ErrUnknownAnimation = errors.New("unknown animation")
	ErrUnknownBone      = errors.New("unknown bone")
	ErrSkeletonMismatch = errors.New("animation bound to a different skeleton")
)

// ParseError 描述文件文本或结构格式错误
type ParseError struct {
	// Source 输入来源（如文件路径），内存数据为空
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("parse descriptor: %v", e.Err)
	}
	return fmt.Sprintf("parse descriptor %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError 引用悬空、数值越界或关键帧名无法解析
// Path 定位出错字段，例如 "animations[1].muscles[0].timeline[2].key"
type ValidationError struct {
	Path string
	Msg  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid descriptor at %s: %s", e.Path, e.Msg)
}

func invalid(path, format string, args ...any) *ValidationError {
	return &ValidationError{Path: path, Msg: fmt.Sprintf(format, args...)}
}

// RuntimeError 运行时查询了不存在的 id
type RuntimeError struct {
	Kind error
	ID   string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%v: %q", e.Kind, e.ID)
}

func (e *RuntimeError) Unwrap() error { return e.Kind }

// NewRuntimeError 创建指定类型的 RuntimeError
func NewRuntimeError(kind error, id string) *RuntimeError {
	return &RuntimeError{Kind: kind, ID: id}
}
