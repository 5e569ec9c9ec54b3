package translator

import "errors"

// Common errors
var (
	// ErrProviderTimeout 翻译调用超时错误
	ErrProviderTimeout = errors.New("translation provider timeout")

	// ErrPendingCleared 排队任务在开始前被清空
	ErrPendingCleared = errors.New("pending task cleared before start")

	// ErrSegmentMismatch 译文分段数与片段数不一致
	ErrSegmentMismatch = errors.New("translated segment count mismatch")

	// ErrEmptyText 文本为空错误
	ErrEmptyText = errors.New("empty text")
)
