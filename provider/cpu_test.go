package provider

import (
	"math"
	"testing"
)

func TestParseCPULine(t *testing.T) {
	ct := parseCPULine("cpu  4705 150 1120 16250 520 30 45 10 0 0")
	if ct.User != 4705 || ct.Idle != 16250 || ct.IOWait != 520 || ct.Steal != 10 {
		t.Errorf("parsed = %+v", ct)
	}
	if ct.total() != 4705+150+1120+16250+520+30+45+10 {
		t.Errorf("total = %d", ct.total())
	}

	short := parseCPULine("cpu 100 0 50")
	if short.User != 100 || short.System != 50 || short.Idle != 0 {
		t.Errorf("short line = %+v", short)
	}
}

func TestUtilizationPct(t *testing.T) {
	prev := cpuTimes{User: 100, System: 50, Idle: 850}
	curr := cpuTimes{User: 160, System: 70, Idle: 870}

	pct, ok := utilizationPct(prev, curr)
	if !ok {
		t.Fatal("no rate from a clean delta")
	}
	// 80 active jiffies of 100 total.
	if math.Abs(pct-80) > 1e-9 {
		t.Errorf("pct = %v, want 80", pct)
	}

	if _, ok := utilizationPct(prev, prev); ok {
		t.Error("zero delta produced a rate")
	}
	if _, ok := utilizationPct(curr, prev); ok {
		t.Error("counter regression produced a rate")
	}
}
