package engine

import (
	"time"

	"github.com/perflens/perflens/model"
)

// summary holds the per-stream aggregates the rules consume. Built once per
// analysis; rules never walk raw samples twice.
type summary struct {
	samples []model.MetricSample
	mean    float64
	max     float64
	min     float64
	first   time.Time
	last    time.Time
}

func summarize(samples []model.MetricSample) *summary {
	if len(samples) == 0 {
		return nil
	}
	s := &summary{
		samples: samples,
		max:     samples[0].Value,
		min:     samples[0].Value,
		first:   samples[0].Timestamp,
		last:    samples[len(samples)-1].Timestamp,
	}
	var sum float64
	for _, smp := range samples {
		sum += smp.Value
		if smp.Value > s.max {
			s.max = smp.Value
		}
		if smp.Value < s.min {
			s.min = smp.Value
		}
	}
	s.mean = sum / float64(len(samples))
	return s
}

// fracAbove returns the fraction of samples strictly above thr.
func (s *summary) fracAbove(thr float64) float64 {
	if s == nil || len(s.samples) == 0 {
		return 0
	}
	n := 0
	for _, smp := range s.samples {
		if smp.Value > thr {
			n++
		}
	}
	return float64(n) / float64(len(s.samples))
}

// slope returns the least-squares slope in value units per second.
// Zero for fewer than two samples or a degenerate time spread.
func (s *summary) slope() float64 {
	if s == nil || len(s.samples) < 2 {
		return 0
	}
	base := s.samples[0].Timestamp
	var sumX, sumY, sumXY, sumXX float64
	for _, smp := range s.samples {
		x := smp.Timestamp.Sub(base).Seconds()
		sumX += x
		sumY += smp.Value
		sumXY += x * smp.Value
		sumXX += x * x
	}
	n := float64(len(s.samples))
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

// spread returns max-min.
func (s *summary) spread() float64 {
	if s == nil {
		return 0
	}
	return s.max - s.min
}

// normalize returns a smooth 0..1 score for a metric value.
// Returns 0 below warn, linear ramp to 1 at crit, capped at 1.
func normalize(value, warn, crit float64) float64 {
	if crit <= warn {
		// Degenerate: treat as binary threshold at warn
		if value >= warn {
			return 1
		}
		return 0
	}
	if value <= warn {
		return 0
	}
	if value >= crit {
		return 1
	}
	return (value - warn) / (crit - warn)
}
