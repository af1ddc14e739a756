package model

import (
	"time"

	"github.com/google/uuid"
)

// Run is one measurement interval: the metric streams captured during it
// and, once analyzed, its analysis result.
type Run struct {
	ID       uuid.UUID                     `json:"id"`
	Name     string                        `json:"name"`
	Streams  map[MetricType][]MetricSample `json:"metrics_streams"`
	Analysis *AnalysisResult               `json:"analysis_result,omitempty"`
	Notes    string                        `json:"notes,omitempty"`
}

// NewRun creates an empty named run.
func NewRun(name string) *Run {
	return &Run{
		ID:      uuid.New(),
		Name:    name,
		Streams: make(map[MetricType][]MetricSample),
	}
}

// Average returns the mean value of one stream (0 when absent or empty).
func (r *Run) Average(t MetricType) float64 {
	samples := r.Streams[t]
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s.Value
	}
	return sum / float64(len(samples))
}

// Session groups runs that share one hardware snapshot and one profile.
type Session struct {
	ID       uuid.UUID        `json:"id"`
	Start    time.Time        `json:"start_time"`
	End      *time.Time       `json:"end_time,omitempty"`
	Hardware *HardwareConfig  `json:"hardware_config_snapshot,omitempty"`
	Profile  *WorkloadProfile `json:"profile,omitempty"`
	Runs     []*Run           `json:"runs"`
}

// NewSession starts a session at the given time.
func NewSession(start time.Time) *Session {
	return &Session{ID: uuid.New(), Start: start}
}

// Active reports whether the session has not been ended yet.
func (s *Session) Active() bool {
	return s != nil && s.End == nil
}
