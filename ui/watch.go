// Package ui renders the live watch view: current readings per metric
// family plus the standing diagnosis. It is strictly a presentation layer
// over public engine and store calls.
package ui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/perflens/perflens/engine"
	"github.com/perflens/perflens/model"
	"github.com/perflens/perflens/store"
)

type sampleMsg model.MetricSample

type subClosedMsg struct{}

type analyzeMsg time.Time

// Model is the bubbletea model for the watch view.
type Model struct {
	store   *store.Store
	sub     *store.Subscription
	profile *model.WorkloadProfile
	window  time.Duration
	opts    engine.Options

	latest   map[model.MetricType]model.MetricSample
	result   *model.AnalysisResult
	insights model.UserFacingInsights
	err      error
	width    int
}

// NewModel creates the watch view over a running store.
func NewModel(st *store.Store, profile *model.WorkloadProfile, window time.Duration, opts engine.Options) Model {
	return Model{
		store:   st,
		sub:     st.Subscribe(),
		profile: profile,
		window:  window,
		opts:    opts,
		latest:  make(map[model.MetricType]model.MetricSample),
		width:   80,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForSample(m.sub), analyzeTick())
}

func waitForSample(sub *store.Subscription) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-sub.C
		if !ok {
			return subClosedMsg{}
		}
		return sampleMsg(s)
	}
}

func analyzeTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return analyzeMsg(t)
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.sub.Close()
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case sampleMsg:
		m.latest[msg.Type] = model.MetricSample(msg)
		return m, waitForSample(m.sub)
	case subClosedMsg:
		return m, tea.Quit
	case analyzeMsg:
		result, err := engine.Analyze(m.store.SnapshotAll(m.window), m.window, m.profile, m.opts)
		if err != nil {
			m.err = err
		} else {
			m.result = result
			m.insights = engine.GenerateInsights(result, m.profile)
		}
		return m, analyzeTick()
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("perflens"))
	b.WriteString(labelStyle.Render(fmt.Sprintf("  window %s", m.window)))
	if m.profile != nil {
		b.WriteString(labelStyle.Render(fmt.Sprintf("  profile %s", m.profile.ID)))
	}
	b.WriteString("\n\n")

	b.WriteString(panelStyle.Render(m.metricsPanel()))
	b.WriteString("\n")
	b.WriteString(panelStyle.Render(m.diagnosisPanel()))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("q: quit"))
	b.WriteString("\n")
	return b.String()
}

func (m Model) metricsPanel() string {
	if len(m.latest) == 0 {
		return labelStyle.Render("waiting for samples...")
	}
	types := make([]model.MetricType, 0, len(m.latest))
	for t := range m.latest {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	lines := make([]string, 0, len(types))
	for _, t := range types {
		s := m.latest[t]
		label := labelStyle.Render(fmt.Sprintf("%-26s", t))
		lines = append(lines, label+" "+renderValue(s))
	}
	return strings.Join(lines, "\n")
}

func renderValue(s model.MetricSample) string {
	if s.Unit == "percent" {
		return utilizationColor(s.Value).Render(bar(s.Value, 20)) +
			valueStyle.Render(fmt.Sprintf(" %5.1f%%", s.Value))
	}
	if s.Unit == "MB" {
		return valueStyle.Render(humanize.IBytes(uint64(s.Value) * 1024 * 1024))
	}
	return valueStyle.Render(fmt.Sprintf("%.1f %s", s.Value, s.Unit))
}

// bar renders a fixed-width utilization bar for a 0..100 value.
func bar(pct float64, width int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int(pct / 100 * float64(width))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func (m Model) diagnosisPanel() string {
	if m.err != nil {
		return critStyle.Render(fmt.Sprintf("analysis error: %v", m.err))
	}
	if m.result == nil {
		return labelStyle.Render("analyzing...")
	}
	if len(m.result.Bottlenecks) == 0 {
		return okStyle.Render("no significant bottlenecks")
	}

	var lines []string
	for _, bn := range m.result.Bottlenecks {
		head := severityColor(bn.Severity).Render(fmt.Sprintf("[%3d] %s", bn.Severity, bn.Summary))
		lines = append(lines, head, labelStyle.Render("      "+bn.Details))
	}
	if len(m.insights.Recommendations) > 0 {
		lines = append(lines, "", titleStyle.Render("Recommendations"))
		for _, r := range m.insights.Recommendations {
			lines = append(lines, valueStyle.Render("  • "+r))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
