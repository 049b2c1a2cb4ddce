package xsink

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"

	"gopkg.in/natefinch/lumberjack.v2"
)

// 编译时断言：Sink 接口是 io.WriteCloser 的超集
var _ io.WriteCloser = (Sink)(nil)

// 默认配置值。报表文件远小于服务日志，默认阈值相应收紧。
const (
	// DefaultMaxSizeMB 默认单个报表文件最大大小（MB）。
	DefaultMaxSizeMB = 64

	// DefaultMaxBackups 默认保留的备份文件数量。
	DefaultMaxBackups = 7

	// DefaultMaxAgeDays 默认保留备份的天数。
	DefaultMaxAgeDays = 30

	// DefaultCompress 默认是否压缩备份。
	DefaultCompress = false

	// 上限，防御性约束与解析错误兜底。
	maxSizeMB  = 10240
	maxBackups = 1024
	maxAgeDays = 3650
)

// Sink 报表输出目标接口。
//
// 隐式实现 [io.WriteCloser]，可直接传给 xmeasure 的 Print。
// 所有实现都必须是并发安全的；Close 后的 Write/Rotate 返回 [ErrClosed]。
type Sink interface {
	// Write 追加报表数据，达到大小阈值时自动轮转。
	Write(p []byte) (n int, err error)

	// Close 关闭输出目标，释放资源。重复调用返回 [ErrClosed]。
	Close() error

	// Rotate 手动触发轮转：当前文件转为备份，新建报表文件。
	Rotate() error
}

// New 创建基于 lumberjack 的报表输出目标。
// 自动创建不存在的父目录（权限 0750）。
func New(filename string, opts ...Option) (Sink, error) {
	if filename == "" {
		return nil, ErrEmptyFilename
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	path := filepath.Clean(filename)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("xsink: create directory %s: %w", dir, err)
		}
	}

	return &lumberjackSink{
		logger: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
			LocalTime:  cfg.LocalTime,
		},
	}, nil
}

// lumberjackSink 基于 lumberjack 的 Sink 实现。
type lumberjackSink struct {
	logger *lumberjack.Logger
	closed atomic.Bool
}

// Write 实现 io.Writer 接口。
func (s *lumberjackSink) Write(p []byte) (int, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}

	n, err := s.logger.Write(p)
	if err != nil && s.closed.Load() {
		// Write 通过前置检查后 Close 可能已完成；
		// 后置检查保证调用方始终得到 ErrClosed 而非底层 I/O 错误。
		return n, ErrClosed
	}
	return n, err
}

// Close 实现 io.Closer 接口。
// 使用 CAS 标记关闭状态：即使底层 Close 返回错误也不重置标记，
// 保证关闭后不会有新的写入到达底层 logger。
func (s *lumberjackSink) Close() error {
	if s.closed.Swap(true) {
		return ErrClosed
	}
	return s.logger.Close()
}

// Rotate 手动触发轮转。
func (s *lumberjackSink) Rotate() error {
	if s.closed.Load() {
		return ErrClosed
	}

	if err := s.logger.Rotate(); err != nil {
		if s.closed.Load() {
			return ErrClosed
		}
		return err
	}
	return nil
}
