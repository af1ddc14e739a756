package model

import "time"

// HardwareConfig is the immutable hardware snapshot attached to a session.
// It is context for the reader of a run, never an input to the rule
// evaluator (rules operate purely on samples and the profile).
type HardwareConfig struct {
	CPU           CPUInfo       `json:"cpu"`
	GPUs          []GPUInfo     `json:"gpus"`
	Memory        MemoryInfo    `json:"memory"`
	Storage       []StorageInfo `json:"storage_devices"`
	Platform      string        `json:"platform"`
	DetectedAt    time.Time     `json:"detection_time"`
	Warnings      []string      `json:"warnings,omitempty"`
	SchemaVersion int           `json:"schema_version"`
}

// CPUInfo describes the installed CPU.
type CPUInfo struct {
	Model   string `json:"model"`
	Vendor  string `json:"vendor,omitempty"`
	Cores   int    `json:"cores"`
	Threads int    `json:"threads"`
}

// GPUInfo describes one installed GPU.
type GPUInfo struct {
	Model       string `json:"model"`
	Vendor      string `json:"vendor,omitempty"`
	VRAMTotalMB uint64 `json:"vram_total_mb,omitempty"`
	Driver      string `json:"driver_version,omitempty"`
}

// MemoryInfo describes installed system memory.
type MemoryInfo struct {
	TotalMB  uint64 `json:"total_mb"`
	SpeedMHz uint64 `json:"speed_mhz,omitempty"`
}

// StorageInfo describes one storage device.
type StorageInfo struct {
	Model      string `json:"model"`
	CapacityMB uint64 `json:"capacity_mb"`
	Kind       string `json:"storage_type"` // "ssd", "hdd", "nvme", "unknown"
}
