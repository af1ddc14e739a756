package engine

import (
	"testing"

	"github.com/perflens/perflens/model"
)

func floatPtr(v float64) *float64 { return &v }

func TestEffectiveThresholds(t *testing.T) {
	t.Run("nil profile uses globals", func(t *testing.T) {
		thr := effectiveThresholds(nil)
		if thr.CPUHigh != 85 || thr.GPUHigh != 90 || thr.RAMHigh != 90 || thr.VRAMHigh != 90 {
			t.Errorf("globals = %+v", thr)
		}
		if thr.TempWarn != 80 || thr.TempCrit != 90 {
			t.Errorf("temp defaults = %v/%v", thr.TempWarn, thr.TempCrit)
		}
	})

	t.Run("workload defaults layer over globals", func(t *testing.T) {
		thr := effectiveThresholds(&model.WorkloadProfile{Workload: model.WorkloadRendering})
		if thr.CPUHigh != 95 || thr.GPUHigh != 95 {
			t.Errorf("rendering = %v/%v, want 95/95", thr.CPUHigh, thr.GPUHigh)
		}
		if thr.RAMHigh != 90 {
			t.Errorf("rendering RAM = %v, want global 90", thr.RAMHigh)
		}

		thr = effectiveThresholds(&model.WorkloadProfile{Workload: model.WorkloadAI})
		if thr.GPUHigh != 85 || thr.VRAMHigh != 95 {
			t.Errorf("ai = %v/%v, want 85/95", thr.GPUHigh, thr.VRAMHigh)
		}
	})

	t.Run("overrides beat workload defaults", func(t *testing.T) {
		thr := effectiveThresholds(&model.WorkloadProfile{
			Workload:  model.WorkloadRendering,
			Overrides: &model.ThresholdOverrides{CPUHigh: floatPtr(70)},
		})
		if thr.CPUHigh != 70 {
			t.Errorf("CPUHigh = %v, want override 70", thr.CPUHigh)
		}
		if thr.GPUHigh != 95 {
			t.Errorf("GPUHigh = %v, want workload default 95", thr.GPUHigh)
		}
	})
}

func TestWeightsFor(t *testing.T) {
	cases := []struct {
		workload  model.WorkloadType
		sustained float64
	}{
		{model.WorkloadGeneral, 0.6},
		{model.WorkloadProductivity, 0.6},
		{model.WorkloadGaming, 0.5},
		{model.WorkloadAI, 0.5},
		{model.WorkloadRendering, 0.55},
	}
	for _, tc := range cases {
		w := weightsFor(tc.workload)
		if w.sustained != tc.sustained {
			t.Errorf("%s sustained weight = %v, want %v", tc.workload, w.sustained, tc.sustained)
		}
		if got := w.sustained + w.mean; got != 1 {
			t.Errorf("%s weights sum to %v", tc.workload, got)
		}
	}
}
