package model

import "time"

// MetricType identifies one metric family. The set is closed: providers may
// only emit types listed here, and the store rejects anything else.
type MetricType string

const (
	MetricCPUUtilization         MetricType = "cpu_utilization"
	MetricCPUUtilizationPerCore  MetricType = "cpu_utilization_per_core"
	MetricGPUUtilization         MetricType = "gpu_utilization"
	MetricGPUVRAMUsage           MetricType = "gpu_vram_usage"
	MetricGPUTemperature         MetricType = "gpu_temperature"
	MetricGPUClock               MetricType = "gpu_clock"
	MetricMemoryUsage            MetricType = "memory_usage"
	MetricMemorySwapUsage        MetricType = "memory_swap_usage"
	MetricStorageReadThroughput  MetricType = "storage_read_throughput"
	MetricStorageWriteThroughput MetricType = "storage_write_throughput"
	MetricStorageQueueDepth      MetricType = "storage_queue_depth"
	MetricTemperature            MetricType = "temperature"
	MetricFanSpeed               MetricType = "fan_speed"
	MetricFPS                    MetricType = "fps"
	MetricFrameTime              MetricType = "frame_time"
	MetricRenderTime             MetricType = "render_time"
)

// metricUnits maps each metric type to its fixed unit.
var metricUnits = map[MetricType]string{
	MetricCPUUtilization:         "percent",
	MetricCPUUtilizationPerCore:  "percent",
	MetricGPUUtilization:         "percent",
	MetricGPUVRAMUsage:           "MB",
	MetricGPUTemperature:         "°C",
	MetricGPUClock:               "MHz",
	MetricMemoryUsage:            "percent",
	MetricMemorySwapUsage:        "MB",
	MetricStorageReadThroughput:  "MB/s",
	MetricStorageWriteThroughput: "MB/s",
	MetricStorageQueueDepth:      "requests",
	MetricTemperature:            "°C",
	MetricFanSpeed:               "RPM",
	MetricFPS:                    "fps",
	MetricFrameTime:              "ms",
	MetricRenderTime:             "ms",
}

// AllMetricTypes returns every known metric type in declaration order.
func AllMetricTypes() []MetricType {
	return []MetricType{
		MetricCPUUtilization,
		MetricCPUUtilizationPerCore,
		MetricGPUUtilization,
		MetricGPUVRAMUsage,
		MetricGPUTemperature,
		MetricGPUClock,
		MetricMemoryUsage,
		MetricMemorySwapUsage,
		MetricStorageReadThroughput,
		MetricStorageWriteThroughput,
		MetricStorageQueueDepth,
		MetricTemperature,
		MetricFanSpeed,
		MetricFPS,
		MetricFrameTime,
		MetricRenderTime,
	}
}

// Valid reports whether t is a known metric type.
func (t MetricType) Valid() bool {
	_, ok := metricUnits[t]
	return ok
}

// Unit returns the fixed unit for this metric type ("" for unknown types).
func (t MetricType) Unit() string {
	return metricUnits[t]
}

// MetricSample is one timestamped reading from a provider.
// Samples are immutable once created; the store hands out copies only.
type MetricSample struct {
	Timestamp time.Time  `json:"timestamp"`
	Type      MetricType `json:"metric_type"`
	Value     float64    `json:"value"`
	Unit      string     `json:"unit"`
	Source    string     `json:"source_component"`
}

// NewSample builds a sample with the type's fixed unit.
func NewSample(ts time.Time, t MetricType, value float64, source string) MetricSample {
	return MetricSample{
		Timestamp: ts,
		Type:      t,
		Value:     value,
		Unit:      t.Unit(),
		Source:    source,
	}
}
