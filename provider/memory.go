package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/perflens/perflens/model"
	"github.com/perflens/perflens/util"
)

// MemoryProvider reads /proc/meminfo and emits used-memory percent and
// swap usage in MB.
type MemoryProvider struct{}

// NewMemoryProvider creates the /proc/meminfo provider.
func NewMemoryProvider() *MemoryProvider { return &MemoryProvider{} }

func (p *MemoryProvider) Name() string { return "memory" }

func (p *MemoryProvider) Sample(ctx context.Context) ([]model.MetricSample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lines, err := util.ReadFileLines("/proc/meminfo")
	if err != nil {
		return nil, errOf(p.Name(), kindForFile(err), fmt.Errorf("read /proc/meminfo: %w", err))
	}
	kv := util.ParseKeyValueLines(lines)

	total := util.ParseUint64(kv["MemTotal"])
	avail := util.ParseUint64(kv["MemAvailable"])
	if total == 0 {
		return nil, errOf(p.Name(), KindParse, fmt.Errorf("MemTotal missing in /proc/meminfo"))
	}

	now := time.Now()
	usedPct := float64(total-avail) / float64(total) * 100

	samples := []model.MetricSample{
		model.NewSample(now, model.MetricMemoryUsage, usedPct, "memory"),
	}

	swapTotal := util.ParseUint64(kv["SwapTotal"])
	if swapTotal > 0 {
		swapFree := util.ParseUint64(kv["SwapFree"])
		swapUsedMB := float64(swapTotal-swapFree) / 1024
		samples = append(samples, model.NewSample(now, model.MetricMemorySwapUsage, swapUsedMB, "memory"))
	}
	return samples, nil
}
