package provider

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/perflens/perflens/model"
	"github.com/perflens/perflens/util"
)

// cpuTimes holds the jiffy counters of one "cpu" line in /proc/stat.
type cpuTimes struct {
	User, Nice, System, Idle, IOWait, IRQ, SoftIRQ, Steal uint64
}

func (c cpuTimes) total() uint64 {
	return c.User + c.Nice + c.System + c.Idle + c.IOWait + c.IRQ + c.SoftIRQ + c.Steal
}

func (c cpuTimes) active() uint64 {
	return c.total() - c.Idle - c.IOWait
}

// CPUProvider derives overall and per-core utilization from /proc/stat
// deltas. The first call primes the counters and emits nothing.
type CPUProvider struct {
	mu       sync.Mutex
	prevAll  cpuTimes
	prevCore []cpuTimes
	primed   bool
}

// NewCPUProvider creates the /proc/stat utilization provider.
func NewCPUProvider() *CPUProvider { return &CPUProvider{} }

func (p *CPUProvider) Name() string { return "cpu" }

func (p *CPUProvider) Sample(ctx context.Context) ([]model.MetricSample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lines, err := util.ReadFileLines("/proc/stat")
	if err != nil {
		return nil, errOf(p.Name(), kindForFile(err), fmt.Errorf("read /proc/stat: %w", err))
	}

	var all cpuTimes
	var cores []cpuTimes
	for _, line := range lines {
		if strings.HasPrefix(line, "cpu ") {
			all = parseCPULine(line)
		} else if strings.HasPrefix(line, "cpu") {
			cores = append(cores, parseCPULine(line))
		}
	}
	if all.total() == 0 {
		return nil, errOf(p.Name(), KindParse, fmt.Errorf("no cpu line in /proc/stat"))
	}

	now := time.Now()

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.primed {
		p.prevAll, p.prevCore, p.primed = all, cores, true
		return nil, nil
	}

	samples := make([]model.MetricSample, 0, len(cores)+1)
	if pct, ok := utilizationPct(p.prevAll, all); ok {
		samples = append(samples, model.NewSample(now, model.MetricCPUUtilization, pct, "cpu"))
	}
	for i, core := range cores {
		if i >= len(p.prevCore) {
			break // core count changed mid-session (hotplug); re-prime below
		}
		if pct, ok := utilizationPct(p.prevCore[i], core); ok {
			samples = append(samples, model.NewSample(now, model.MetricCPUUtilizationPerCore, pct,
				fmt.Sprintf("cpu-core-%d", i)))
		}
	}
	p.prevAll, p.prevCore = all, cores
	return samples, nil
}

// utilizationPct computes busy percent across a counter delta.
func utilizationPct(prev, curr cpuTimes) (float64, bool) {
	dTotal := curr.total() - prev.total()
	if curr.total() < prev.total() || dTotal == 0 {
		return 0, false
	}
	dActive := curr.active() - prev.active()
	return float64(dActive) / float64(dTotal) * 100, true
}

func parseCPULine(line string) cpuTimes {
	fields := strings.Fields(line)
	var ct cpuTimes
	get := func(i int) uint64 {
		if i < len(fields) {
			return util.ParseUint64(fields[i])
		}
		return 0
	}
	ct.User = get(1)
	ct.Nice = get(2)
	ct.System = get(3)
	ct.Idle = get(4)
	ct.IOWait = get(5)
	ct.IRQ = get(6)
	ct.SoftIRQ = get(7)
	ct.Steal = get(8)
	return ct
}

// kindForFile maps a filesystem error to a provider error kind.
func kindForFile(err error) ErrorKind {
	switch {
	case os.IsPermission(err):
		return KindPermission
	case os.IsNotExist(err):
		return KindUnavailable
	default:
		return KindUnavailable
	}
}
