package xmeasure

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	defaultInstrumentationName = "github.com/omeyang/xperf/xmeasure"

	metricRegionIntervals = "xperf.region.intervals"
	metricRegionDuration  = "xperf.region.duration"
)

type otelConfig struct {
	instrumentationName string
	meterProvider       metric.MeterProvider
}

// OTelOption 定义 OTel 导出器的配置选项。
type OTelOption func(*otelConfig)

// WithInstrumentationName 设置 OTel instrumentation 名称。
func WithInstrumentationName(name string) OTelOption {
	return func(cfg *otelConfig) {
		if name != "" {
			cfg.instrumentationName = name
		}
	}
}

// WithMeterProvider 设置 MeterProvider，默认使用全局 provider。
func WithMeterProvider(provider metric.MeterProvider) OTelOption {
	return func(cfg *otelConfig) {
		if provider != nil {
			cfg.meterProvider = provider
		}
	}
}

// OTelExporter 把合并后的区域统计发布为 OpenTelemetry 指标。
//
// 这是可选的外部协作者：不创建导出器时，Print/GetCombined 的
// 数值报表完全不受影响。
type OTelExporter struct {
	intervals metric.Int64Counter
	duration  metric.Float64Histogram

	mu       sync.Mutex
	exported map[string]int64 // 区域名 -> 上次导出时的累计区间数
}

// NewOTelExporter 创建 OTel 导出器。
func NewOTelExporter(opts ...OTelOption) (*OTelExporter, error) {
	cfg := &otelConfig{
		instrumentationName: defaultInstrumentationName,
		meterProvider:       otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	meter := cfg.meterProvider.Meter(cfg.instrumentationName)

	intervals, err := meter.Int64Counter(
		metricRegionIntervals,
		metric.WithDescription("completed measurement intervals"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("xmeasure: create counter failed: %w", err)
	}

	duration, err := meter.Float64Histogram(
		metricRegionDuration,
		metric.WithDescription("average interval duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("xmeasure: create histogram failed: %w", err)
	}

	return &OTelExporter{
		intervals: intervals,
		duration:  duration,
		exported:  make(map[string]int64),
	}, nil
}

// Export 把 storage 当前的合并统计记录到 OTel 指标，
// 区域名作为 region 属性。
//
// 计数器按增量上报：导出器记住每个区域上次导出时的累计区间数，
// 只 Add 新增部分，周期性调用得到的累计值始终等于真实区间数。
// 某区域自上次导出后没有新区间时，本轮跳过该区域（含直方图），
// 避免重复记录同一份平均值。Storage 被 Clear 后计数回退，
// 此时视为从零重新累计。
//
// 并发调用同一导出器是安全的。ctx 为 nil 时使用 context.Background()。
func (e *OTelExporter) Export(ctx context.Context, s *Storage) {
	if e == nil || s == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, pm := range s.Combined() {
		delta := pm.Count() - e.exported[pm.Name()]
		if delta < 0 {
			// Clear 之后区域从零重新累计
			delta = pm.Count()
		}
		if delta == 0 {
			continue
		}
		e.exported[pm.Name()] = pm.Count()

		attrs := metric.WithAttributes(attribute.String("region", pm.Name()))
		e.intervals.Add(ctx, delta, attrs)
		e.duration.Record(ctx, pm.Average()/1000, attrs)
	}
}
