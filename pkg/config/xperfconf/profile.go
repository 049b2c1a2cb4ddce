package xperfconf

import "fmt"

// Profile 是一次测量运行的完整剖面。
type Profile struct {
	// Enabled 测量总开关。关闭时调用方应绑定 nil Measurer
	// （Holder 的空操作语义），埋点代码无需改动。
	Enabled bool `koanf:"enabled"`

	// Report 报表输出配置。
	Report ReportConfig `koanf:"report"`

	// Flops 区域名到单区间运算量的映射，用于吞吐（GFlops）统计。
	// 未列出的区域不统计吞吐。
	Flops map[string]int64 `koanf:"flops"`

	// OTel OpenTelemetry 导出配置。
	OTel OTelConfig `koanf:"otel"`
}

// ReportConfig 报表输出配置。
type ReportConfig struct {
	// Path 报表文件路径。为空时报表写标准输出。
	Path string `koanf:"path"`

	// IntervalSeconds 周期性报表间隔（秒）。0 表示只在结束时输出一次。
	IntervalSeconds int `koanf:"interval_seconds"`

	// MaxSizeMB 报表文件轮转阈值（MB），仅在 Path 非空时生效。必须 > 0。
	MaxSizeMB int `koanf:"max_size_mb"`

	// MaxBackups 保留的报表备份数量。与 MaxAgeDays 不可同时为 0。
	MaxBackups int `koanf:"max_backups"`

	// MaxAgeDays 报表备份保留天数。与 MaxBackups 不可同时为 0。
	MaxAgeDays int `koanf:"max_age_days"`

	// Compress 是否压缩报表备份。
	Compress bool `koanf:"compress"`
}

// OTelConfig OpenTelemetry 导出配置。
type OTelConfig struct {
	// Enabled 是否在每次报表时同步导出 OTel 指标。
	Enabled bool `koanf:"enabled"`
}

// Default 返回默认剖面：测量开启，报表写标准输出，不导出 OTel。
func Default() Profile {
	return Profile{
		Enabled: true,
		Report: ReportConfig{
			MaxSizeMB:  64,
			MaxBackups: 7,
			MaxAgeDays: 30,
		},
	}
}

// FlopFor 返回区域的单区间运算量，未配置时返回 0（不统计吞吐）。
func (p Profile) FlopFor(name string) int64 {
	return p.Flops[name]
}

// validate 校验剖面字段范围。
// 轮转字段的约束与 xsink 的校验一致，让配置错误在加载时
// 而非基准跑完写报表时暴露。
func (p Profile) validate() error {
	if p.Report.IntervalSeconds < 0 {
		return fmt.Errorf("%w: report.interval_seconds must be >= 0, got %d",
			ErrInvalidProfile, p.Report.IntervalSeconds)
	}
	if p.Report.MaxSizeMB <= 0 {
		return fmt.Errorf("%w: report.max_size_mb must be > 0, got %d",
			ErrInvalidProfile, p.Report.MaxSizeMB)
	}
	if p.Report.MaxBackups < 0 {
		return fmt.Errorf("%w: report.max_backups must be >= 0, got %d",
			ErrInvalidProfile, p.Report.MaxBackups)
	}
	if p.Report.MaxAgeDays < 0 {
		return fmt.Errorf("%w: report.max_age_days must be >= 0, got %d",
			ErrInvalidProfile, p.Report.MaxAgeDays)
	}
	if p.Report.MaxBackups == 0 && p.Report.MaxAgeDays == 0 {
		return fmt.Errorf("%w: report.max_backups and report.max_age_days cannot both be 0",
			ErrInvalidProfile)
	}
	for name, flop := range p.Flops {
		if flop < 0 {
			return fmt.Errorf("%w: flops[%q] must be >= 0, got %d",
				ErrInvalidProfile, name, flop)
		}
	}
	return nil
}
