// Package engine turns captured metric streams into diagnoses: summary
// statistics, threshold resolution, rule evaluation, severity scoring,
// insights, run comparison and Prometheus export. Everything here is pure
// over its inputs; the engine never touches /proc, the store or the clock
// beyond stamping results.
package engine

import (
	"errors"
	"time"

	"github.com/perflens/perflens/model"
)

// ErrNegativeWindow rejects analysis calls with a window below zero.
var ErrNegativeWindow = errors.New("engine: analysis window must not be negative")

// DefaultFloor is the minimum severity a bottleneck must reach to be
// reported at all.
const DefaultFloor = 20

// Options tune one analysis call.
type Options struct {
	// Floor suppresses diagnoses scoring below it. Non-positive values
	// fall back to DefaultFloor; a zero floor is never allowed since it
	// would report noise.
	Floor int
}

func (o Options) floor() int {
	if o.Floor <= 0 {
		return DefaultFloor
	}
	return o.Floor
}

// Analyze evaluates the rule set over the streams restricted to the last
// `window` of captured time and returns the scored diagnoses in fixed rule
// order. A nil profile analyzes with general-workload defaults. An empty
// window yields an empty result, not an error.
func Analyze(streams map[model.MetricType][]model.MetricSample, window time.Duration,
	profile *model.WorkloadProfile, opts Options) (*model.AnalysisResult, error) {

	if window < 0 {
		return nil, ErrNegativeWindow
	}
	result := &model.AnalysisResult{
		Bottlenecks:   []model.Bottleneck{},
		Timestamp:     time.Now(),
		SchemaVersion: model.SchemaVersion,
	}
	if window == 0 {
		return result, nil
	}

	stats := make(map[model.MetricType]*summary, len(streams))
	for t, samples := range streams {
		if s := summarize(clipWindow(samples, window)); s != nil {
			stats[t] = s
		}
	}
	if len(stats) == 0 {
		return result, nil
	}

	workload := model.WorkloadGeneral
	if profile != nil {
		workload = profile.Workload
	}
	ctx := &ruleContext{
		stats:   stats,
		thr:     effectiveThresholds(profile),
		profile: profile,
		weights: weightsFor(workload),
	}

	floor := opts.floor()
	for _, rule := range rules() {
		b := rule(ctx)
		if b == nil || b.Severity < floor {
			continue
		}
		result.Bottlenecks = append(result.Bottlenecks, *b)
	}
	return result, nil
}

// clipWindow keeps samples within `window` of the stream's newest sample.
// Anchoring on captured time rather than the wall clock keeps analysis of
// recorded runs deterministic.
func clipWindow(samples []model.MetricSample, window time.Duration) []model.MetricSample {
	if len(samples) == 0 {
		return nil
	}
	cutoff := samples[len(samples)-1].Timestamp.Add(-window)
	for i, s := range samples {
		if !s.Timestamp.Before(cutoff) {
			return samples[i:]
		}
	}
	return nil
}
