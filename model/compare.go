package model

// BottleneckStatus describes how one bottleneck type changed between runs.
type BottleneckStatus string

const (
	StatusNew       BottleneckStatus = "new"       // absent in run1, present in run2
	StatusResolved  BottleneckStatus = "resolved"  // present in run1, absent in run2
	StatusImproved  BottleneckStatus = "improved"  // severity decreased
	StatusWorsened  BottleneckStatus = "worsened"  // severity increased
	StatusUnchanged BottleneckStatus = "unchanged" // severity equal
)

// MetricDelta is the per-metric-type average movement between two runs.
type MetricDelta struct {
	Type         MetricType `json:"metric_type"`
	Run1Avg      float64    `json:"run1_avg"`
	Run2Avg      float64    `json:"run2_avg"`
	Delta        float64    `json:"delta"`
	DeltaPercent float64    `json:"delta_percent"`
	Unit         string     `json:"unit"`
}

// BottleneckChange records a bottleneck-type transition between two runs.
// Severities are nil when that run did not report the type.
type BottleneckChange struct {
	Type          BottleneckType   `json:"bottleneck_type"`
	Run1Severity  *int             `json:"run1_severity"`
	Run2Severity  *int             `json:"run2_severity"`
	SeverityDelta int              `json:"severity_delta"`
	Status        BottleneckStatus `json:"status"`
}

// ComparisonResult is the full run1 vs run2 report.
type ComparisonResult struct {
	Run1ID            string                     `json:"run1_id"`
	Run2ID            string                     `json:"run2_id"`
	MetricDeltas      map[MetricType]MetricDelta `json:"metric_deltas"`
	BottleneckChanges []BottleneckChange         `json:"bottleneck_changes"`
	Summary           string                     `json:"summary"`
}
