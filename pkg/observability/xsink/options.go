package xsink

import "fmt"

// config 输出目标配置。
type config struct {
	// MaxSizeMB 单个报表文件最大大小（MB），超过时触发轮转。必须 > 0。
	MaxSizeMB int

	// MaxBackups 保留的备份文件数量，0 表示不按数量清理（仍受 MaxAgeDays 约束）。
	MaxBackups int

	// MaxAgeDays 保留备份的天数，0 表示不按天数清理（仍受 MaxBackups 约束）。
	MaxAgeDays int

	// Compress 是否 gzip 压缩备份文件。
	Compress bool

	// LocalTime 备份文件名是否使用本地时间，false 时使用 UTC。
	LocalTime bool
}

// Option 配置选项函数。
type Option func(*config)

func defaultConfig() *config {
	return &config{
		MaxSizeMB:  DefaultMaxSizeMB,
		MaxBackups: DefaultMaxBackups,
		MaxAgeDays: DefaultMaxAgeDays,
		Compress:   DefaultCompress,
	}
}

// validate 校验配置范围与清理策略。
func (c *config) validate() error {
	if c.MaxSizeMB <= 0 || c.MaxSizeMB > maxSizeMB {
		return fmt.Errorf("%w: got %d, want 1~%d", ErrInvalidMaxSize, c.MaxSizeMB, maxSizeMB)
	}
	if c.MaxBackups < 0 || c.MaxBackups > maxBackups {
		return fmt.Errorf("%w: got %d, want 0~%d", ErrInvalidMaxBackups, c.MaxBackups, maxBackups)
	}
	if c.MaxAgeDays < 0 || c.MaxAgeDays > maxAgeDays {
		return fmt.Errorf("%w: got %d, want 0~%d", ErrInvalidMaxAge, c.MaxAgeDays, maxAgeDays)
	}
	if c.MaxBackups == 0 && c.MaxAgeDays == 0 {
		return fmt.Errorf("%w: MaxBackups and MaxAgeDays cannot both be 0", ErrNoCleanupPolicy)
	}
	return nil
}

// WithMaxSize 设置单个报表文件最大大小（MB）。
func WithMaxSize(mb int) Option {
	return func(c *config) {
		c.MaxSizeMB = mb
	}
}

// WithMaxBackups 设置保留的备份文件数量。
func WithMaxBackups(n int) Option {
	return func(c *config) {
		c.MaxBackups = n
	}
}

// WithMaxAge 设置保留备份的天数。
func WithMaxAge(days int) Option {
	return func(c *config) {
		c.MaxAgeDays = days
	}
}

// WithCompress 设置是否压缩备份文件。
func WithCompress(compress bool) Option {
	return func(c *config) {
		c.Compress = compress
	}
}

// WithLocalTime 设置备份文件名是否使用本地时间。
func WithLocalTime(local bool) Option {
	return func(c *config) {
		c.LocalTime = local
	}
}
