package provider

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/perflens/perflens/model"
	"github.com/perflens/perflens/util"
)

// ThermalProvider reads /sys/class/hwmon temperature and fan sensors.
// It emits the hottest package/CPU temperature and each fan tach reading.
type ThermalProvider struct{}

// NewThermalProvider creates the hwmon thermal provider.
func NewThermalProvider() *ThermalProvider { return &ThermalProvider{} }

func (p *ThermalProvider) Name() string { return "thermal" }

// gpuSensorNames are hwmon chips already covered by the GPU provider.
var gpuSensorNames = map[string]bool{"amdgpu": true, "nouveau": true}

func (p *ThermalProvider) Sample(ctx context.Context) ([]model.MetricSample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	chips, _ := filepath.Glob("/sys/class/hwmon/hwmon*")
	if len(chips) == 0 {
		return nil, errOf(p.Name(), KindUnavailable, fmt.Errorf("no chips in /sys/class/hwmon"))
	}

	now := time.Now()
	var samples []model.MetricSample
	maxTemp := -1.0

	for _, chip := range chips {
		name, _ := util.ReadFileString(filepath.Join(chip, "name"))
		name = strings.TrimSpace(name)
		if gpuSensorNames[name] {
			continue
		}

		temps, _ := filepath.Glob(filepath.Join(chip, "temp*_input"))
		for _, t := range temps {
			raw, err := util.ReadFileString(t)
			if err != nil {
				continue
			}
			if c := util.ParseFloat64(raw) / 1000; c > maxTemp {
				maxTemp = c
			}
		}

		fans, _ := filepath.Glob(filepath.Join(chip, "fan*_input"))
		for i, f := range fans {
			raw, err := util.ReadFileString(f)
			if err != nil {
				continue
			}
			samples = append(samples, model.NewSample(now, model.MetricFanSpeed,
				util.ParseFloat64(raw), fmt.Sprintf("%s-fan%d", name, i)))
		}
	}

	if maxTemp >= 0 {
		samples = append(samples, model.NewSample(now, model.MetricTemperature, maxTemp, "package"))
	}
	if len(samples) == 0 {
		return nil, errOf(p.Name(), KindUnavailable, fmt.Errorf("no readable hwmon sensors"))
	}
	return samples, nil
}
