package engine

import "github.com/perflens/perflens/model"

// Thresholds are the effective limits one analysis call runs against.
// Utilization limits are percent; temperatures are °C.
type Thresholds struct {
	CPUHigh  float64
	GPUHigh  float64
	RAMHigh  float64
	VRAMHigh float64

	TempWarn float64
	TempCrit float64

	StorageQueue      float64 // requests
	StorageThroughput float64 // MB/s
}

// defaultThresholds are the global limits used when neither the workload
// nor the profile says otherwise.
func defaultThresholds() Thresholds {
	return Thresholds{
		CPUHigh:           85,
		GPUHigh:           90,
		RAMHigh:           90,
		VRAMHigh:          90,
		TempWarn:          80,
		TempCrit:          90,
		StorageQueue:      10,
		StorageThroughput: 2000,
	}
}

// applyWorkload layers workload-specific defaults over the globals.
// Rendering tolerates pegged compute; ai workloads treat the GPU as the
// primary resource and give VRAM more headroom.
func (t *Thresholds) applyWorkload(w model.WorkloadType) {
	switch w {
	case model.WorkloadRendering:
		t.CPUHigh = 95
		t.GPUHigh = 95
	case model.WorkloadAI:
		t.GPUHigh = 85
		t.VRAMHigh = 95
	}
}

// applyOverrides layers explicit profile overrides on top. Nil fields keep
// the current value.
func (t *Thresholds) applyOverrides(o *model.ThresholdOverrides) {
	if o == nil {
		return
	}
	if o.CPUHigh != nil {
		t.CPUHigh = *o.CPUHigh
	}
	if o.GPUHigh != nil {
		t.GPUHigh = *o.GPUHigh
	}
	if o.RAMHigh != nil {
		t.RAMHigh = *o.RAMHigh
	}
	if o.VRAMHigh != nil {
		t.VRAMHigh = *o.VRAMHigh
	}
}

// effectiveThresholds resolves the three-layer precedence for a profile:
// profile overrides beat workload defaults beat globals.
func effectiveThresholds(profile *model.WorkloadProfile) Thresholds {
	t := defaultThresholds()
	if profile == nil {
		return t
	}
	t.applyWorkload(profile.Workload)
	t.applyOverrides(profile.Overrides)
	return t
}

// severityWeights balance how much sustained exceedance versus mean height
// contribute to the score for one workload type.
type severityWeights struct {
	sustained float64
	mean      float64
}

func weightsFor(w model.WorkloadType) severityWeights {
	switch w {
	case model.WorkloadGaming, model.WorkloadAI:
		return severityWeights{sustained: 0.5, mean: 0.5}
	case model.WorkloadRendering:
		return severityWeights{sustained: 0.55, mean: 0.45}
	}
	return severityWeights{sustained: 0.6, mean: 0.4}
}
