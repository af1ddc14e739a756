package provider

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/perflens/perflens/model"
	"github.com/perflens/perflens/util"
)

// GPUProvider reads GPU load, VRAM, temperature and clock from the amdgpu
// sysfs interface. Machines without a supported GPU yield an unavailable
// error, which the sampler downgrades to a skipped family.
type GPUProvider struct {
	// card sysfs device dir, e.g. /sys/class/drm/card0/device.
	// Resolved lazily on first successful sample.
	device string
}

// NewGPUProvider creates the sysfs GPU provider.
func NewGPUProvider() *GPUProvider { return &GPUProvider{} }

func (p *GPUProvider) Name() string { return "gpu" }

func (p *GPUProvider) Sample(ctx context.Context) ([]model.MetricSample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.device == "" {
		dev, err := findGPUDevice()
		if err != nil {
			return nil, errOf(p.Name(), KindUnavailable, err)
		}
		p.device = dev
	}

	now := time.Now()
	var samples []model.MetricSample

	if busy, err := util.ReadFileString(filepath.Join(p.device, "gpu_busy_percent")); err == nil {
		samples = append(samples, model.NewSample(now, model.MetricGPUUtilization,
			util.ParseFloat64(busy), "gpu0"))
	}
	if used, err := util.ReadFileString(filepath.Join(p.device, "mem_info_vram_used")); err == nil {
		usedMB := util.ParseFloat64(used) / (1024 * 1024)
		samples = append(samples, model.NewSample(now, model.MetricGPUVRAMUsage, usedMB, "gpu0"))
	}

	// Temperature and clock live under the card's hwmon node.
	if hwmon := findHwmon(p.device); hwmon != "" {
		if raw, err := util.ReadFileString(filepath.Join(hwmon, "temp1_input")); err == nil {
			samples = append(samples, model.NewSample(now, model.MetricGPUTemperature,
				util.ParseFloat64(raw)/1000, "gpu0"))
		}
		if raw, err := util.ReadFileString(filepath.Join(hwmon, "freq1_input")); err == nil {
			samples = append(samples, model.NewSample(now, model.MetricGPUClock,
				util.ParseFloat64(raw)/1e6, "gpu0"))
		}
	}

	if len(samples) == 0 {
		return nil, errOf(p.Name(), KindUnavailable,
			fmt.Errorf("gpu device %s exposes no readable metrics", p.device))
	}
	return samples, nil
}

// findGPUDevice locates the first DRM card with a busy-percent interface.
func findGPUDevice() (string, error) {
	cards, err := filepath.Glob("/sys/class/drm/card[0-9]/device")
	if err != nil || len(cards) == 0 {
		return "", fmt.Errorf("no DRM cards in /sys/class/drm")
	}
	for _, dev := range cards {
		if _, err := os.Stat(filepath.Join(dev, "gpu_busy_percent")); err == nil {
			return dev, nil
		}
	}
	return "", fmt.Errorf("no DRM card exposes gpu_busy_percent")
}

// findHwmon returns the first hwmon dir under the device, or "".
func findHwmon(device string) string {
	matches, _ := filepath.Glob(filepath.Join(device, "hwmon", "hwmon*"))
	if len(matches) == 0 {
		return ""
	}
	return matches[0]
}
