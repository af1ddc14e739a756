package engine

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/perflens/perflens/model"
)

const testWindow = 2 * time.Minute

func streams(pairs map[model.MetricType][]float64) map[model.MetricType][]model.MetricSample {
	out := make(map[model.MetricType][]model.MetricSample, len(pairs))
	for t, values := range pairs {
		out[t] = steadyStream(t, values)
	}
	return out
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestAnalyzeWindowValidation(t *testing.T) {
	in := streams(map[model.MetricType][]float64{model.MetricCPUUtilization: repeat(95, 10)})

	_, err := Analyze(in, -time.Second, nil, Options{})
	if !errors.Is(err, ErrNegativeWindow) {
		t.Fatalf("err = %v, want ErrNegativeWindow", err)
	}

	result, err := Analyze(in, 0, nil, Options{})
	if err != nil {
		t.Fatalf("zero window: %v", err)
	}
	if len(result.Bottlenecks) != 0 {
		t.Errorf("zero window reported %d bottlenecks", len(result.Bottlenecks))
	}
}

func TestAnalyzeCPUBound(t *testing.T) {
	in := streams(map[model.MetricType][]float64{
		model.MetricCPUUtilization: repeat(95, 60),
		model.MetricGPUUtilization: repeat(40, 60),
	})

	result, err := Analyze(in, testWindow, nil, Options{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(result.Bottlenecks) != 1 {
		t.Fatalf("got %d bottlenecks, want 1", len(result.Bottlenecks))
	}
	b := result.Bottlenecks[0]
	if b.Type != model.BottleneckCPU {
		t.Errorf("type = %s, want cpu", b.Type)
	}
	if b.Severity <= 50 {
		t.Errorf("severity = %d, want > 50", b.Severity)
	}
	if len(b.Evidence) == 0 {
		t.Fatal("no evidence attached")
	}
	ev := b.Evidence[0]
	if ev.Type != model.MetricCPUUtilization || ev.Threshold != 85 {
		t.Errorf("evidence = %+v", ev)
	}
	if ev.Actual != 95 {
		t.Errorf("evidence actual = %v, want mean 95", ev.Actual)
	}
	if !ev.End.After(ev.Start) {
		t.Error("evidence window bounds not ordered")
	}
}

func TestAnalyzeHealthySystem(t *testing.T) {
	in := streams(map[model.MetricType][]float64{
		model.MetricCPUUtilization: repeat(30, 60),
		model.MetricGPUUtilization: repeat(30, 60),
		model.MetricMemoryUsage:    repeat(40, 60),
		model.MetricTemperature:    repeat(55, 60),
	})

	result, err := Analyze(in, testWindow, nil, Options{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(result.Bottlenecks) != 0 {
		t.Errorf("healthy system reported %v", result.Bottlenecks)
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	in := streams(map[model.MetricType][]float64{
		model.MetricCPUUtilization: repeat(95, 30),
		model.MetricMemoryUsage:    repeat(95, 30),
		model.MetricTemperature:    repeat(86, 30),
	})

	a, err := Analyze(in, testWindow, nil, Options{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	b, err := Analyze(in, testWindow, nil, Options{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !reflect.DeepEqual(a.Bottlenecks, b.Bottlenecks) {
		t.Error("identical inputs produced different bottleneck lists")
	}
	// Fixed rule order: cpu before ram before thermal.
	var order []model.BottleneckType
	for _, bn := range a.Bottlenecks {
		order = append(order, bn.Type)
	}
	want := []model.BottleneckType{model.BottleneckCPU, model.BottleneckRAM, model.BottleneckThermal}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestAnalyzeOverrideSuppressesDiagnosis(t *testing.T) {
	in := streams(map[model.MetricType][]float64{
		model.MetricCPUUtilization: repeat(90, 60),
	})

	result, err := Analyze(in, testWindow, nil, Options{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if result.Find(model.BottleneckCPU) == nil {
		t.Fatal("cpu bottleneck should fire at the default 85 threshold")
	}

	profile := &model.WorkloadProfile{
		Workload:  model.WorkloadGeneral,
		Overrides: &model.ThresholdOverrides{CPUHigh: floatPtr(95)},
	}
	result, err = Analyze(in, testWindow, profile, Options{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if b := result.Find(model.BottleneckCPU); b != nil {
		t.Errorf("cpu bottleneck fired despite a 95 override: %+v", b)
	}
}

func TestAnalyzeGPUGate(t *testing.T) {
	t.Run("gpu bound with relaxed cpu", func(t *testing.T) {
		in := streams(map[model.MetricType][]float64{
			model.MetricCPUUtilization: repeat(30, 60),
			model.MetricGPUUtilization: repeat(97, 60),
		})
		result, err := Analyze(in, testWindow, nil, Options{})
		if err != nil {
			t.Fatalf("Analyze: %v", err)
		}
		if result.Find(model.BottleneckGPU) == nil {
			t.Error("gpu bottleneck not reported")
		}
		if result.Find(model.BottleneckCPU) != nil {
			t.Error("cpu bottleneck reported with an idle CPU")
		}
	})

	t.Run("saturated cpu vetoes gpu diagnosis", func(t *testing.T) {
		in := streams(map[model.MetricType][]float64{
			model.MetricCPUUtilization: repeat(96, 60),
			model.MetricGPUUtilization: repeat(97, 60),
		})
		result, err := Analyze(in, testWindow, nil, Options{})
		if err != nil {
			t.Fatalf("Analyze: %v", err)
		}
		if result.Find(model.BottleneckGPU) != nil {
			t.Error("gpu reported while cpu is also saturated")
		}
	})
}

func TestAnalyzeSwapBoost(t *testing.T) {
	base := map[model.MetricType][]float64{
		model.MetricMemoryUsage: repeat(95, 60),
	}
	noSwap, err := Analyze(streams(base), testWindow, nil, Options{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	base[model.MetricMemorySwapUsage] = repeat(512, 60)
	withSwap, err := Analyze(streams(base), testWindow, nil, Options{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	a, b := noSwap.Find(model.BottleneckRAM), withSwap.Find(model.BottleneckRAM)
	if a == nil || b == nil {
		t.Fatal("ram bottleneck missing")
	}
	if b.Severity != a.Severity+swapBoost {
		t.Errorf("swap severity = %d, want %d + %d", b.Severity, a.Severity, swapBoost)
	}
	if len(b.Evidence) != 2 {
		t.Errorf("swap evidence count = %d, want 2", len(b.Evidence))
	}
}

func TestAnalyzeThermalThrottle(t *testing.T) {
	base := map[model.MetricType][]float64{
		model.MetricTemperature: repeat(85, 60),
		model.MetricGPUClock:    repeat(1800, 60),
	}
	steady, err := Analyze(streams(base), testWindow, nil, Options{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	declining := make([]float64, 60)
	for i := range declining {
		declining[i] = 1800 - float64(i)*5
	}
	base[model.MetricGPUClock] = declining
	throttling, err := Analyze(streams(base), testWindow, nil, Options{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	a, b := steady.Find(model.BottleneckThermal), throttling.Find(model.BottleneckThermal)
	if a == nil || b == nil {
		t.Fatal("thermal bottleneck missing")
	}
	if b.Severity != a.Severity+throttleBoost {
		t.Errorf("throttle severity = %d, want %d + %d", b.Severity, a.Severity, throttleBoost)
	}
}

func TestAnalyzeVRAMNeedsCapacity(t *testing.T) {
	in := streams(map[model.MetricType][]float64{
		model.MetricGPUVRAMUsage: repeat(8000, 60),
	})

	result, err := Analyze(in, testWindow, nil, Options{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if result.Find(model.BottleneckVRAM) != nil {
		t.Error("vram rule fired without a known capacity")
	}

	profile := &model.WorkloadProfile{
		Workload:   model.WorkloadGaming,
		Parameters: map[string]any{"vram_total_mb": 8192},
	}
	result, err = Analyze(in, testWindow, profile, Options{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	b := result.Find(model.BottleneckVRAM)
	if b == nil {
		t.Fatal("vram bottleneck missing with capacity known")
	}
	// 8000 of 8192 MB is near-full, so the boost applies.
	if b.Severity != 100 {
		t.Errorf("severity = %d, want clamped 100", b.Severity)
	}
}

func TestAnalyzeStorageIdleGate(t *testing.T) {
	base := map[model.MetricType][]float64{
		model.MetricCPUUtilization:    repeat(20, 60),
		model.MetricStorageQueueDepth: repeat(40, 60),
	}
	result, err := Analyze(streams(base), testWindow, nil, Options{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if result.Find(model.BottleneckStorage) == nil {
		t.Error("storage bottleneck missing with idle compute")
	}

	base[model.MetricCPUUtilization] = repeat(80, 60)
	result, err = Analyze(streams(base), testWindow, nil, Options{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if result.Find(model.BottleneckStorage) != nil {
		t.Error("storage reported while the CPU was busy")
	}
}

func TestAnalyzeFloor(t *testing.T) {
	in := streams(map[model.MetricType][]float64{
		model.MetricCPUUtilization: repeat(90, 60),
	})

	result, err := Analyze(in, testWindow, nil, Options{Floor: 80})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(result.Bottlenecks) != 0 {
		t.Errorf("floor 80 still reported %v", result.Bottlenecks)
	}
}

func TestAnalyzeClipsToWindow(t *testing.T) {
	// Calm first half, saturated second half. Narrowing the window to the
	// recent samples must raise the diagnosis, not dilute it with history.
	values := append(repeat(20, 30), repeat(95, 30)...)
	in := streams(map[model.MetricType][]float64{
		model.MetricCPUUtilization: values,
	})

	full, err := Analyze(in, testWindow, nil, Options{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	diluted := full.Find(model.BottleneckCPU)
	if diluted == nil {
		t.Fatal("full window missed the sustained spike")
	}

	recent, err := Analyze(in, 20*time.Second, nil, Options{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	focused := recent.Find(model.BottleneckCPU)
	if focused == nil {
		t.Fatal("recent window missed the spike")
	}
	if focused.Severity <= diluted.Severity {
		t.Errorf("severity %d over the recent window, want above the diluted %d",
			focused.Severity, diluted.Severity)
	}
}
