package model

// WorkloadType classifies what the machine is being used for during a run.
// Rule selection and severity weights key off this.
type WorkloadType string

const (
	WorkloadGaming       WorkloadType = "gaming"
	WorkloadRendering    WorkloadType = "rendering"
	WorkloadAI           WorkloadType = "ai"
	WorkloadProductivity WorkloadType = "productivity"
	WorkloadGeneral      WorkloadType = "general"
)

// Valid reports whether w is a known workload type.
func (w WorkloadType) Valid() bool {
	switch w {
	case WorkloadGaming, WorkloadRendering, WorkloadAI, WorkloadProductivity, WorkloadGeneral:
		return true
	}
	return false
}

// ThresholdOverrides replaces selected default thresholds for one analysis
// call. Nil fields keep the workload/global default.
type ThresholdOverrides struct {
	CPUHigh  *float64 `json:"cpu_high,omitempty" yaml:"cpu_high,omitempty"`
	GPUHigh  *float64 `json:"gpu_high,omitempty" yaml:"gpu_high,omitempty"`
	RAMHigh  *float64 `json:"ram_high,omitempty" yaml:"ram_high,omitempty"`
	VRAMHigh *float64 `json:"vram_high,omitempty" yaml:"vram_high,omitempty"`
}

// WorkloadProfile bundles a workload type with free-form parameters
// (target_fps, resolution, vram_total_mb, ...) and optional threshold
// overrides. Profiles are read-only inputs to analysis.
type WorkloadProfile struct {
	ID         string              `json:"id" yaml:"id"`
	Name       string              `json:"name" yaml:"name"`
	Workload   WorkloadType        `json:"workload_type" yaml:"workload_type"`
	Parameters map[string]any      `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Overrides  *ThresholdOverrides `json:"threshold_overrides,omitempty" yaml:"threshold_overrides,omitempty"`
}

// FloatParam returns a numeric profile parameter, handling the types that
// JSON and YAML decoding produce.
func (p *WorkloadProfile) FloatParam(key string) (float64, bool) {
	if p == nil || p.Parameters == nil {
		return 0, false
	}
	switch v := p.Parameters[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	}
	return 0, false
}
