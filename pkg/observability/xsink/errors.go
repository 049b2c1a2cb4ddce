package xsink

import "errors"

// 配置校验与状态错误。
var (
	// ErrEmptyFilename 文件名为空。
	ErrEmptyFilename = errors.New("xsink: filename is required")

	// ErrInvalidMaxSize MaxSizeMB 值无效（必须在 1~10240 范围内）。
	ErrInvalidMaxSize = errors.New("xsink: invalid MaxSizeMB")

	// ErrInvalidMaxBackups MaxBackups 值无效（必须在 0~1024 范围内）。
	ErrInvalidMaxBackups = errors.New("xsink: invalid MaxBackups")

	// ErrInvalidMaxAge MaxAgeDays 值无效（必须在 0~3650 范围内）。
	ErrInvalidMaxAge = errors.New("xsink: invalid MaxAgeDays")

	// ErrNoCleanupPolicy MaxBackups 和 MaxAgeDays 不能同时为 0。
	ErrNoCleanupPolicy = errors.New("xsink: no cleanup policy configured")

	// ErrClosed 输出目标已关闭。
	ErrClosed = errors.New("xsink: sink is closed")
)
