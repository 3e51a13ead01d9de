package telemetry

import (
	"context"
	"log/slog"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v4/process"
)

var meter = Meter("go.perf_stats")
var cpuGauge, _ = meter.Float64Gauge("cpu_usage")
var rssGauge, _ = meter.Int64Gauge("rss_mb")
var memoryGauge, _ = meter.Int64Gauge("allocated_mb")

// RecordProcessStats takes a single sample of this process' resource usage,
// it is meant to be called right before shutdown of a short lived run.
func RecordProcessStats(ctx context.Context) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	memoryGauge.Record(ctx, int64(memStats.Alloc/1_000_000))

	proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		slog.DebugContext(ctx, "failed to inspect process", "err", err)
		return
	}
	cpuUsage, err := proc.CPUPercentWithContext(ctx)
	if err == nil {
		cpuGauge.Record(ctx, cpuUsage)
	} else {
		slog.DebugContext(ctx, "failed to read cpu usage", "err", err)
	}
	mem, err := proc.MemoryInfoWithContext(ctx)
	if err == nil {
		rssGauge.Record(ctx, int64(mem.RSS/1_000_000))
	} else {
		slog.DebugContext(ctx, "failed to read memory usage", "err", err)
	}
}
