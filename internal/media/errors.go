package media

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed 句柄已关闭后仍被使用或重复关闭
	ErrClosed = errors.New("media: handle already closed")
	// ErrOutOfRange 截取范围超出片段时长
	ErrOutOfRange = errors.New("media: range outside clip")
	ErrNoAudio    = errors.New("media: source has no audio stream")
	ErrNoVideo    = errors.New("media: source has no video stream")
	ErrEmpty      = errors.New("media: nothing to concatenate")
)

// OpenError 文件不可读或容器无法识别
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("open %s: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// WriteError 编码或写出失败
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
