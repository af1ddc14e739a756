package engine

import (
	"reflect"
	"strings"
	"testing"

	"github.com/perflens/perflens/model"
)

func TestGenerateInsightsEmpty(t *testing.T) {
	for name, result := range map[string]*model.AnalysisResult{
		"nil result":   nil,
		"empty result": analysisWith(),
	} {
		t.Run(name, func(t *testing.T) {
			got := GenerateInsights(result, nil)
			if !strings.Contains(got.Summary, "No significant bottlenecks") {
				t.Errorf("summary = %q", got.Summary)
			}
			if got.Severity != 0 {
				t.Errorf("severity = %d", got.Severity)
			}
			if len(got.Recommendations) == 0 {
				t.Error("no monitoring recommendation for a clean result")
			}
		})
	}
}

func TestGenerateInsightsWorkloadSpecific(t *testing.T) {
	result := analysisWith(model.Bottleneck{
		Type: model.BottleneckGPU, Severity: 75,
		Summary: "GPU is the limiting resource",
	})

	gaming := GenerateInsights(result, &model.WorkloadProfile{Workload: model.WorkloadGaming})
	generic := GenerateInsights(result, nil)

	if reflect.DeepEqual(gaming.Recommendations, generic.Recommendations) {
		t.Error("gaming profile got the generic recommendation set")
	}
	found := false
	for _, r := range gaming.Recommendations {
		if strings.Contains(r, "resolution") {
			found = true
		}
	}
	if !found {
		t.Errorf("gaming gpu recommendations = %v", gaming.Recommendations)
	}
}

func TestGenerateInsightsFallback(t *testing.T) {
	// No storage-specific entry exists for gaming; the generic set applies.
	result := analysisWith(model.Bottleneck{
		Type: model.BottleneckStorage, Severity: 40,
		Summary: "Storage is the limiting resource",
	})
	got := GenerateInsights(result, &model.WorkloadProfile{Workload: model.WorkloadGaming})
	if !reflect.DeepEqual(got.Recommendations, genericInsights[model.BottleneckStorage]) {
		t.Errorf("recommendations = %v", got.Recommendations)
	}
}

func TestGenerateInsightsSeverityAndDedup(t *testing.T) {
	result := analysisWith(
		model.Bottleneck{Type: model.BottleneckCPU, Severity: 45, Summary: "CPU is the limiting resource"},
		model.Bottleneck{Type: model.BottleneckThermal, Severity: 90, Summary: "Thermal limits are constraining performance"},
	)
	got := GenerateInsights(result, nil)

	if got.Severity != 90 {
		t.Errorf("severity = %d, want max 90", got.Severity)
	}
	if !strings.Contains(got.Summary, "severity 45") || !strings.Contains(got.Summary, "severity 90") {
		t.Errorf("summary = %q", got.Summary)
	}
	seen := make(map[string]bool)
	for _, r := range got.Recommendations {
		if seen[r] {
			t.Errorf("duplicate recommendation %q", r)
		}
		seen[r] = true
	}
}
