package engine

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/perflens/perflens/model"
)

// insightKey selects a recommendation set by diagnosis and workload. A
// missing workload entry falls back to the per-type generic set.
type insightKey struct {
	bottleneck model.BottleneckType
	workload   model.WorkloadType
}

// insightCatalog holds the workload-specific recommendations. Generic
// per-type sets live in genericInsights. All strings are vendor-free.
var insightCatalog = map[insightKey][]string{
	{model.BottleneckCPU, model.WorkloadGaming}: {
		"Lower CPU-heavy settings such as simulation distance, crowd density or physics detail.",
		"Close background applications competing for cores.",
		"Cap the frame rate to reduce per-frame CPU work.",
	},
	{model.BottleneckCPU, model.WorkloadRendering}: {
		"Switch the renderer to GPU acceleration if the project supports it.",
		"Reduce concurrent render jobs so each gets full cores.",
	},
	{model.BottleneckCPU, model.WorkloadAI}: {
		"Move preprocessing and data loading onto more worker processes or the GPU.",
		"Check that the inference or training backend is actually using the GPU.",
	},
	{model.BottleneckGPU, model.WorkloadGaming}: {
		"Lower resolution, texture quality or anti-aliasing.",
		"Enable an upscaler if the title offers one.",
	},
	{model.BottleneckGPU, model.WorkloadRendering}: {
		"Reduce sample counts or output resolution for preview renders.",
		"Split the frame range across multiple render sessions.",
	},
	{model.BottleneckGPU, model.WorkloadAI}: {
		"Reduce batch size or model precision to fit the compute budget.",
		"Profile the kernels; a single hot kernel often dominates.",
	},
	{model.BottleneckVRAM, model.WorkloadGaming}: {
		"Lower texture quality; textures dominate VRAM in most titles.",
		"Reduce render resolution or disable high-resolution asset packs.",
	},
	{model.BottleneckVRAM, model.WorkloadAI}: {
		"Reduce batch size, sequence length or model precision.",
		"Enable gradient checkpointing or model offloading.",
	},
	{model.BottleneckRAM, model.WorkloadProductivity}: {
		"Close unused browser tabs and background applications.",
		"Consider adding memory; sustained swapping makes everything slow.",
	},
}

// genericInsights are the per-type fallbacks when no workload-specific
// entry exists.
var genericInsights = map[model.BottleneckType][]string{
	model.BottleneckCPU: {
		"Reduce the number of concurrently running workloads.",
		"Check for runaway background processes consuming cores.",
	},
	model.BottleneckGPU: {
		"Reduce graphics or compute workload intensity.",
		"Verify the GPU is running at its intended power limit.",
	},
	model.BottleneckRAM: {
		"Close memory-hungry applications.",
		"Add memory if pressure is sustained across workloads.",
	},
	model.BottleneckVRAM: {
		"Reduce the working set on the GPU.",
		"Close other applications using the GPU.",
	},
	model.BottleneckStorage: {
		"Move the active dataset to a faster drive.",
		"Check for background indexing, sync or backup jobs.",
	},
	model.BottleneckThermal: {
		"Improve case airflow and clean dust filters.",
		"Check that fans react to load; a stuck fan curve causes throttling.",
		"Consider repasting or a better cooler if temperatures stay critical.",
	},
	model.BottleneckBandwidth: {
		"Avoid running bandwidth-heavy transfers alongside the workload.",
		"Check that devices negotiated their full link width and speed.",
	},
}

// GenerateInsights renders an analysis result into user-facing text.
// Deterministic: identical results and profile produce identical insights.
func GenerateInsights(result *model.AnalysisResult, profile *model.WorkloadProfile) model.UserFacingInsights {
	if result == nil || len(result.Bottlenecks) == 0 {
		return model.UserFacingInsights{
			Summary:         "No significant bottlenecks detected.",
			Recommendations: []string{"Keep monitoring; rerun the analysis under a heavier workload to expose limits."},
			Severity:        0,
		}
	}

	workload := model.WorkloadGeneral
	if profile != nil {
		workload = profile.Workload
	}

	parts := make([]string, 0, len(result.Bottlenecks))
	var recs []string
	seen := make(map[string]bool)
	for _, b := range result.Bottlenecks {
		parts = append(parts, fmt.Sprintf("%s (severity %d)", b.Summary, b.Severity))
		set, ok := insightCatalog[insightKey{b.Type, workload}]
		if !ok {
			set = genericInsights[b.Type]
		}
		for _, r := range set {
			if !seen[r] {
				seen[r] = true
				recs = append(recs, r)
			}
		}
		if extra := evidenceNote(b); extra != "" && !seen[extra] {
			seen[extra] = true
			recs = append(recs, extra)
		}
	}

	return model.UserFacingInsights{
		Summary:         strings.Join(parts, "; ") + ".",
		Recommendations: recs,
		Severity:        result.MaxSeverity(),
	}
}

// evidenceNote derives one concrete observation from the diagnosis, giving
// the generic recommendations a number to anchor on.
func evidenceNote(b model.Bottleneck) string {
	if len(b.Evidence) == 0 {
		return ""
	}
	ev := b.Evidence[0]
	switch b.Type {
	case model.BottleneckVRAM:
		return fmt.Sprintf("Observed GPU memory usage around %s.",
			humanize.IBytes(uint64(ev.Actual)*1024*1024))
	case model.BottleneckRAM:
		for _, e := range b.Evidence {
			if e.Type == model.MetricMemorySwapUsage {
				return fmt.Sprintf("Observed about %s of swap in use.",
					humanize.IBytes(uint64(e.Actual)*1024*1024))
			}
		}
	case model.BottleneckThermal:
		return fmt.Sprintf("Temperatures averaged %.1f °C against a %.0f °C limit.", ev.Actual, ev.Threshold)
	}
	return ""
}
