package engine

import (
	"fmt"

	"github.com/perflens/perflens/model"
)

const (
	// sustainMin is the fraction of the window a metric must spend above
	// its threshold before a rule may fire.
	sustainMin = 0.5

	// idleGate is the compute utilization below which CPU and GPU count
	// as idle for the storage rule.
	idleGate = 60

	swapBoost         = 15
	vramNearFullPct   = 97
	vramNearFullBoost = 10
	critTempBoost     = 10
	throttleBoost     = 15
	gamingGPUBoost    = 10

	// FPS stability bands relative to the mean: a narrow spread is a
	// plateau (frame cap or a hard bottleneck), a wide one is stutter.
	fpsPlateauSpread     = 0.10
	fpsFluctuationSpread = 0.25

	// pcieBudgetMBs is the PCIe 3.0 x16 payload budget. The bandwidth
	// rule fires only past pcieSaturation of it.
	pcieBudgetMBs  = 15760
	pcieSaturation = 0.85
)

// ruleContext bundles everything a rule may look at. Rules are pure reads
// over it.
type ruleContext struct {
	stats   map[model.MetricType]*summary
	thr     Thresholds
	profile *model.WorkloadProfile
	weights severityWeights
}

func (c *ruleContext) workload() model.WorkloadType {
	if c.profile == nil {
		return model.WorkloadGeneral
	}
	return c.profile.Workload
}

// severity applies the scoring formula: sustained exceedance and mean
// height over the threshold, weighted per workload, on a 0..100 scale.
func (c *ruleContext) severity(frac, mean, thr float64) int {
	score := 100 * (c.weights.sustained*frac + c.weights.mean*normalize(mean, thr, 100))
	return clampSeverity(int(score + 0.5))
}

func clampSeverity(s int) int {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

// evidence builds the item justifying a diagnosis from one stream summary.
func evidence(t model.MetricType, thr float64, s *summary) model.EvidenceItem {
	return model.EvidenceItem{
		Type:      t,
		Threshold: thr,
		Actual:    s.mean,
		Start:     s.first,
		End:       s.last,
	}
}

// meanBelow reports whether the stream is absent or its mean is below the
// limit. Absent streams pass: a missing sensor never vetoes a diagnosis.
func meanBelow(s *summary, limit float64) bool {
	return s == nil || s.mean < limit
}

// fpsPlateau reports a tight FPS band, fpsFluctuation a wide one. Both are
// false without FPS samples or with a zero mean.
func fpsPlateau(s *summary) bool {
	return s != nil && s.mean > 0 && s.spread() <= fpsPlateauSpread*s.mean
}

func fpsFluctuation(s *summary) bool {
	return s != nil && s.mean > 0 && s.spread() >= fpsFluctuationSpread*s.mean
}

// ruleCPU fires on sustained CPU saturation while the GPU still has
// headroom. For gaming runs with FPS data the frame-rate shape must agree.
func ruleCPU(c *ruleContext) *model.Bottleneck {
	cpu := c.stats[model.MetricCPUUtilization]
	if cpu == nil {
		return nil
	}
	frac := cpu.fracAbove(c.thr.CPUHigh)
	if frac < sustainMin {
		return nil
	}
	if !meanBelow(c.stats[model.MetricGPUUtilization], c.thr.GPUHigh) {
		return nil
	}
	if c.workload() == model.WorkloadGaming {
		if fps := c.stats[model.MetricFPS]; fps != nil && !fpsPlateau(fps) && !fpsFluctuation(fps) {
			return nil
		}
	}
	return &model.Bottleneck{
		Type:     model.BottleneckCPU,
		Severity: c.severity(frac, cpu.mean, c.thr.CPUHigh),
		Evidence: []model.EvidenceItem{evidence(model.MetricCPUUtilization, c.thr.CPUHigh, cpu)},
		Summary:  "CPU is the limiting resource",
		Details: fmt.Sprintf("CPU utilization averaged %.1f%% and stayed above %.0f%% for %.0f%% of the window while the GPU had headroom.",
			cpu.mean, c.thr.CPUHigh, frac*100),
	}
}

// ruleGPU is the mirror of ruleCPU. A stable FPS plateau with a relaxed
// CPU is the classic GPU-bound shape and reinforces the score.
func ruleGPU(c *ruleContext) *model.Bottleneck {
	gpu := c.stats[model.MetricGPUUtilization]
	if gpu == nil {
		return nil
	}
	frac := gpu.fracAbove(c.thr.GPUHigh)
	if frac < sustainMin {
		return nil
	}
	cpu := c.stats[model.MetricCPUUtilization]
	if !meanBelow(cpu, c.thr.CPUHigh) {
		return nil
	}
	sev := c.severity(frac, gpu.mean, c.thr.GPUHigh)
	if c.workload() == model.WorkloadGaming && fpsPlateau(c.stats[model.MetricFPS]) && meanBelow(cpu, idleGate) {
		sev = clampSeverity(sev + gamingGPUBoost)
	}
	return &model.Bottleneck{
		Type:     model.BottleneckGPU,
		Severity: sev,
		Evidence: []model.EvidenceItem{evidence(model.MetricGPUUtilization, c.thr.GPUHigh, gpu)},
		Summary:  "GPU is the limiting resource",
		Details: fmt.Sprintf("GPU utilization averaged %.1f%% and stayed above %.0f%% for %.0f%% of the window while the CPU had headroom.",
			gpu.mean, c.thr.GPUHigh, frac*100),
	}
}

// ruleRAM fires on sustained memory pressure. Any swap traffic means the
// working set already spilled, which is worth extra severity.
func ruleRAM(c *ruleContext) *model.Bottleneck {
	mem := c.stats[model.MetricMemoryUsage]
	if mem == nil {
		return nil
	}
	frac := mem.fracAbove(c.thr.RAMHigh)
	if frac < sustainMin {
		return nil
	}
	sev := c.severity(frac, mem.mean, c.thr.RAMHigh)
	ev := []model.EvidenceItem{evidence(model.MetricMemoryUsage, c.thr.RAMHigh, mem)}

	swap := c.stats[model.MetricMemorySwapUsage]
	details := fmt.Sprintf("Memory usage averaged %.1f%% against a %.0f%% limit.", mem.mean, c.thr.RAMHigh)
	if swap != nil && swap.mean > 0 {
		sev = clampSeverity(sev + swapBoost)
		ev = append(ev, evidence(model.MetricMemorySwapUsage, 0, swap))
		details += fmt.Sprintf(" Swap held %.0f MB on average.", swap.mean)
	}
	return &model.Bottleneck{
		Type:     model.BottleneckRAM,
		Severity: sev,
		Evidence: ev,
		Summary:  "System memory is exhausted",
		Details:  details,
	}
}

// ruleVRAM needs the card's total from the profile (vram_total_mb) to turn
// the MB stream into percent; without it the rule abstains rather than
// guessing capacity.
func ruleVRAM(c *ruleContext) *model.Bottleneck {
	used := c.stats[model.MetricGPUVRAMUsage]
	if used == nil {
		return nil
	}
	total, ok := c.profile.FloatParam("vram_total_mb")
	if !ok || total <= 0 {
		return nil
	}
	thrMB := c.thr.VRAMHigh / 100 * total
	frac := used.fracAbove(thrMB)
	if frac < sustainMin {
		return nil
	}
	meanPct := used.mean / total * 100
	sev := c.severity(frac, meanPct, c.thr.VRAMHigh)
	if used.max/total*100 >= vramNearFullPct {
		sev = clampSeverity(sev + vramNearFullBoost)
	}
	return &model.Bottleneck{
		Type:     model.BottleneckVRAM,
		Severity: sev,
		Evidence: []model.EvidenceItem{evidence(model.MetricGPUVRAMUsage, thrMB, used)},
		Summary:  "GPU memory is exhausted",
		Details: fmt.Sprintf("VRAM usage averaged %.0f MB of %.0f MB (%.1f%%).",
			used.mean, total, meanPct),
	}
}

// ruleStorage fires when disk pressure is sustained while compute sits
// idle; busy compute means the disk is keeping up with demand.
func ruleStorage(c *ruleContext) *model.Bottleneck {
	if !meanBelow(c.stats[model.MetricCPUUtilization], idleGate) ||
		!meanBelow(c.stats[model.MetricGPUUtilization], idleGate) {
		return nil
	}

	queue := c.stats[model.MetricStorageQueueDepth]
	read := c.stats[model.MetricStorageReadThroughput]
	write := c.stats[model.MetricStorageWriteThroughput]

	type signal struct {
		s    *summary
		t    model.MetricType
		thr  float64
		frac float64
	}
	candidates := []signal{
		{queue, model.MetricStorageQueueDepth, c.thr.StorageQueue, queue.fracAbove(c.thr.StorageQueue)},
		{read, model.MetricStorageReadThroughput, c.thr.StorageThroughput, read.fracAbove(c.thr.StorageThroughput)},
		{write, model.MetricStorageWriteThroughput, c.thr.StorageThroughput, write.fracAbove(c.thr.StorageThroughput)},
	}

	var best *signal
	for i := range candidates {
		cand := &candidates[i]
		if cand.s == nil || cand.frac < sustainMin {
			continue
		}
		if best == nil || cand.frac > best.frac {
			best = cand
		}
	}
	if best == nil {
		return nil
	}

	// Throughput saturation scales against twice the limit; queue depth
	// against a deep 4x backlog.
	scale := best.thr * 2
	if best.t == model.MetricStorageQueueDepth {
		scale = best.thr * 4
	}
	score := 100 * (c.weights.sustained*best.frac + c.weights.mean*normalize(best.s.mean, best.thr, scale))
	return &model.Bottleneck{
		Type:     model.BottleneckStorage,
		Severity: clampSeverity(int(score + 0.5)),
		Evidence: []model.EvidenceItem{evidence(best.t, best.thr, best.s)},
		Summary:  "Storage is the limiting resource",
		Details: fmt.Sprintf("%s averaged %.1f %s above its %.0f limit while CPU and GPU sat idle.",
			best.t, best.s.mean, best.t.Unit(), best.thr),
	}
}

// ruleThermal watches package and GPU temperature. A falling GPU clock
// alongside heat is the throttling signature.
func ruleThermal(c *ruleContext) *model.Bottleneck {
	temp := c.stats[model.MetricTemperature]
	tempType := model.MetricTemperature
	if temp == nil {
		temp = c.stats[model.MetricGPUTemperature]
		tempType = model.MetricGPUTemperature
	}
	if temp == nil {
		return nil
	}
	frac := temp.fracAbove(c.thr.TempWarn)
	if frac < sustainMin {
		return nil
	}

	score := 100 * (c.weights.sustained*frac + c.weights.mean*normalize(temp.mean, c.thr.TempWarn, c.thr.TempCrit))
	sev := clampSeverity(int(score + 0.5))
	ev := []model.EvidenceItem{evidence(tempType, c.thr.TempWarn, temp)}
	details := fmt.Sprintf("Temperature averaged %.1f °C against a %.0f °C limit.", temp.mean, c.thr.TempWarn)

	if temp.max >= c.thr.TempCrit {
		sev = clampSeverity(sev + critTempBoost)
		details += fmt.Sprintf(" Peaked at %.1f °C, past the %.0f °C critical line.", temp.max, c.thr.TempCrit)
	}
	if clock := c.stats[model.MetricGPUClock]; clock != nil && clock.slope() < 0 {
		sev = clampSeverity(sev + throttleBoost)
		ev = append(ev, evidence(model.MetricGPUClock, 0, clock))
		details += " GPU clock trended down over the window, consistent with thermal throttling."
	}
	return &model.Bottleneck{
		Type:     model.BottleneckThermal,
		Severity: sev,
		Evidence: ev,
		Summary:  "Thermal limits are constraining performance",
		Details:  details,
	}
}

// ruleBandwidth estimates PCIe pressure from combined storage throughput
// against a PCIe 3.0 x16 budget. Deliberately conservative: it only fires
// near saturation. The budget is overridable via pcie_max_mb_s.
func ruleBandwidth(c *ruleContext) *model.Bottleneck {
	read := c.stats[model.MetricStorageReadThroughput]
	write := c.stats[model.MetricStorageWriteThroughput]
	if read == nil && write == nil {
		return nil
	}
	var est float64
	var ev []model.EvidenceItem

	budget := float64(pcieBudgetMBs)
	if v, ok := c.profile.FloatParam("pcie_max_mb_s"); ok && v > 0 {
		budget = v
	}
	thr := pcieSaturation * budget

	if read != nil {
		est += read.mean
		ev = append(ev, evidence(model.MetricStorageReadThroughput, thr, read))
	}
	if write != nil {
		est += write.mean
		ev = append(ev, evidence(model.MetricStorageWriteThroughput, thr, write))
	}
	if est < thr {
		return nil
	}
	score := 100 * normalize(est, thr, budget)
	return &model.Bottleneck{
		Type:     model.BottleneckBandwidth,
		Severity: clampSeverity(int(score + 0.5)),
		Evidence: ev,
		Summary:  "Bus bandwidth is saturated",
		Details: fmt.Sprintf("Combined storage throughput of %.0f MB/s is at %.0f%% of the %.0f MB/s bus budget.",
			est, est/budget*100, budget),
	}
}

// rules returns the evaluators in their fixed order. Order is part of the
// output contract: results are deterministic for identical inputs.
func rules() []func(*ruleContext) *model.Bottleneck {
	return []func(*ruleContext) *model.Bottleneck{
		ruleCPU,
		ruleGPU,
		ruleRAM,
		ruleVRAM,
		ruleStorage,
		ruleThermal,
		ruleBandwidth,
	}
}
