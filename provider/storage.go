package provider

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/perflens/perflens/model"
	"github.com/perflens/perflens/util"
)

const sectorSize = 512 // /proc/diskstats sector counters are always 512-byte units

// StorageProvider sums /proc/diskstats over physical block devices and
// emits delta-based read/write throughput plus the in-flight queue depth.
type StorageProvider struct {
	mu        sync.Mutex
	readRate  util.CounterRate
	writeRate util.CounterRate
}

// NewStorageProvider creates the /proc/diskstats provider.
func NewStorageProvider() *StorageProvider { return &StorageProvider{} }

func (p *StorageProvider) Name() string { return "storage" }

func (p *StorageProvider) Sample(ctx context.Context) ([]model.MetricSample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lines, err := util.ReadFileLines("/proc/diskstats")
	if err != nil {
		return nil, errOf(p.Name(), kindForFile(err), fmt.Errorf("read /proc/diskstats: %w", err))
	}

	var sectorsRead, sectorsWritten, inFlight uint64
	seen := 0
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < 14 {
			continue
		}
		name := fields[2]
		if !isPhysicalDisk(name) {
			continue
		}
		seen++
		sectorsRead += util.ParseUint64(fields[5])
		sectorsWritten += util.ParseUint64(fields[9])
		inFlight += util.ParseUint64(fields[11])
	}
	if seen == 0 {
		return nil, errOf(p.Name(), KindUnavailable, fmt.Errorf("no physical disks in /proc/diskstats"))
	}

	now := time.Now()

	p.mu.Lock()
	readMBs, readOK := observeMBs(&p.readRate, sectorsRead, now)
	writeMBs, writeOK := observeMBs(&p.writeRate, sectorsWritten, now)
	p.mu.Unlock()

	samples := []model.MetricSample{
		model.NewSample(now, model.MetricStorageQueueDepth, float64(inFlight), "storage"),
	}
	if readOK {
		samples = append(samples, model.NewSample(now, model.MetricStorageReadThroughput, readMBs, "storage"))
	}
	if writeOK {
		samples = append(samples, model.NewSample(now, model.MetricStorageWriteThroughput, writeMBs, "storage"))
	}
	return samples, nil
}

func observeMBs(r *util.CounterRate, sectors uint64, at time.Time) (float64, bool) {
	rate, ok := r.Observe(sectors, at)
	if !ok {
		return 0, false
	}
	return rate * sectorSize / (1024 * 1024), true
}

// isPhysicalDisk filters out partitions and virtual devices so device and
// partition counters are not double-counted.
func isPhysicalDisk(name string) bool {
	for _, prefix := range []string{"loop", "ram", "zram", "dm-", "md", "sr"} {
		if strings.HasPrefix(name, prefix) {
			return false
		}
	}
	// nvme0n1p1 / sda1 are partitions of nvme0n1 / sda.
	if strings.HasPrefix(name, "nvme") {
		return !strings.Contains(name, "p")
	}
	last := name[len(name)-1]
	return last < '0' || last > '9'
}
