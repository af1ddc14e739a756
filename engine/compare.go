package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/perflens/perflens/model"
)

// significantMovePct is the relative average change that counts as a
// notable metric move in the comparison summary.
const significantMovePct = 5

// CompareRuns reports how run2 differs from run1: per-metric average
// deltas over the union of both runs' streams, and per-bottleneck-type
// transitions between the runs' analyses. Pure and deterministic.
func CompareRuns(run1, run2 *model.Run) model.ComparisonResult {
	result := model.ComparisonResult{
		Run1ID:       run1.ID.String(),
		Run2ID:       run2.ID.String(),
		MetricDeltas: make(map[model.MetricType]model.MetricDelta),
	}

	types := lo.Union(lo.Keys(run1.Streams), lo.Keys(run2.Streams))
	significant := 0
	for _, t := range types {
		a, b := run1.Average(t), run2.Average(t)
		delta := model.MetricDelta{
			Type:    t,
			Run1Avg: a,
			Run2Avg: b,
			Delta:   b - a,
			Unit:    t.Unit(),
		}
		if a != 0 {
			delta.DeltaPercent = (b - a) / a * 100
		}
		result.MetricDeltas[t] = delta
		if delta.DeltaPercent > significantMovePct || delta.DeltaPercent < -significantMovePct {
			significant++
		}
	}

	result.BottleneckChanges = compareBottlenecks(run1.Analysis, run2.Analysis)
	result.Summary = comparisonSummary(significant, result.BottleneckChanges)
	return result
}

func compareBottlenecks(a1, a2 *model.AnalysisResult) []model.BottleneckChange {
	var changes []model.BottleneckChange
	for _, t := range model.AllBottleneckTypes() {
		b1, b2 := a1.Find(t), a2.Find(t)
		if b1 == nil && b2 == nil {
			continue
		}
		change := model.BottleneckChange{Type: t}
		switch {
		case b1 == nil:
			sev := b2.Severity
			change.Run2Severity = &sev
			change.Status = model.StatusNew
		case b2 == nil:
			sev := b1.Severity
			change.Run1Severity = &sev
			change.Status = model.StatusResolved
		default:
			s1, s2 := b1.Severity, b2.Severity
			change.Run1Severity = &s1
			change.Run2Severity = &s2
			change.SeverityDelta = s2 - s1
			switch {
			case s2 < s1:
				change.Status = model.StatusImproved
			case s2 > s1:
				change.Status = model.StatusWorsened
			default:
				change.Status = model.StatusUnchanged
			}
		}
		changes = append(changes, change)
	}
	return changes
}

func comparisonSummary(significantMoves int, changes []model.BottleneckChange) string {
	counts := make(map[model.BottleneckStatus]int)
	for _, c := range changes {
		counts[c.Status]++
	}

	var parts []string
	if significantMoves > 0 {
		parts = append(parts, fmt.Sprintf("%d metric(s) moved more than %d%%", significantMoves, significantMovePct))
	}
	statuses := lo.Keys(counts)
	sort.Slice(statuses, func(i, j int) bool { return statuses[i] < statuses[j] })
	for _, st := range statuses {
		parts = append(parts, fmt.Sprintf("%d bottleneck(s) %s", counts[st], st))
	}
	if len(parts) == 0 {
		return "No significant differences between the runs."
	}
	return strings.Join(parts, "; ") + "."
}
