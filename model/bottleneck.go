package model

import "time"

// SchemaVersion tags persisted results; the core emits it and never
// interprets it.
const SchemaVersion = 1

// BottleneckType names the resource diagnosed as constraining.
type BottleneckType string

const (
	BottleneckCPU       BottleneckType = "cpu"
	BottleneckGPU       BottleneckType = "gpu"
	BottleneckRAM       BottleneckType = "ram"
	BottleneckVRAM      BottleneckType = "vram"
	BottleneckStorage   BottleneckType = "storage"
	BottleneckThermal   BottleneckType = "thermal"
	BottleneckBandwidth BottleneckType = "bandwidth"
)

// AllBottleneckTypes returns the candidate types in evaluation order.
func AllBottleneckTypes() []BottleneckType {
	return []BottleneckType{
		BottleneckCPU,
		BottleneckGPU,
		BottleneckRAM,
		BottleneckVRAM,
		BottleneckStorage,
		BottleneckThermal,
		BottleneckBandwidth,
	}
}

// EvidenceItem is the minimal tuple justifying a diagnosis: which metric
// crossed which threshold, the value that triggered it, and when.
type EvidenceItem struct {
	Type      MetricType `json:"metric_type"`
	Threshold float64    `json:"threshold"`
	Actual    float64    `json:"actual_value"`
	Start     time.Time  `json:"time_range_start"`
	End       time.Time  `json:"time_range_end"`
}

// Bottleneck is one scored diagnosis. Every emitted bottleneck carries at
// least one EvidenceItem.
type Bottleneck struct {
	Type     BottleneckType `json:"bottleneck_type"`
	Severity int            `json:"severity"` // 0..100
	Evidence []EvidenceItem `json:"evidence"`
	Summary  string         `json:"summary"`
	Details  string         `json:"details"`
}

// AnalysisResult is the output of one analysis call. An empty bottleneck
// list means no resource is significantly constraining the workload.
type AnalysisResult struct {
	Bottlenecks   []Bottleneck `json:"bottlenecks"`
	Timestamp     time.Time    `json:"timestamp"`
	SchemaVersion int          `json:"schema_version"`
}

// Find returns the bottleneck of the given type, or nil.
func (r *AnalysisResult) Find(t BottleneckType) *Bottleneck {
	if r == nil {
		return nil
	}
	for i := range r.Bottlenecks {
		if r.Bottlenecks[i].Type == t {
			return &r.Bottlenecks[i]
		}
	}
	return nil
}

// MaxSeverity returns the highest severity in the result (0 when empty).
func (r *AnalysisResult) MaxSeverity() int {
	max := 0
	if r == nil {
		return 0
	}
	for _, b := range r.Bottlenecks {
		if b.Severity > max {
			max = b.Severity
		}
	}
	return max
}

// UserFacingInsights is the rendered, human-readable view of a result.
type UserFacingInsights struct {
	Summary         string   `json:"summary"`
	Recommendations []string `json:"recommendations"`
	Severity        int      `json:"severity"`
}
