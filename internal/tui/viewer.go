package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/vesselsim/internal/sim"
	"github.com/san-kum/vesselsim/internal/viz"
)

// Viewer pages through the panels of a finished run. A sample cursor picks
// one grid index whose values are shown under the chart.
type Viewer struct {
	title   string
	panels  []viz.Panel
	times   []float64
	metrics map[string]float64

	panel    int
	sample   int
	overview bool

	width  int
	height int
}

func NewViewer(title string, res *sim.Result) Viewer {
	return Viewer{
		title:   title,
		panels:  viz.Panels(res),
		times:   res.Times,
		metrics: res.Metrics,
		width:   80,
		height:  24,
	}
}

func (m Viewer) Init() tea.Cmd { return nil }

func (m Viewer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}
	return m, nil
}

func (m Viewer) handleKey(msg tea.KeyMsg) (Viewer, tea.Cmd) {
	last := len(m.times) - 1
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return m, tea.Quit
	case "right", "l", "tab":
		m.panel = (m.panel + 1) % len(m.panels)
	case "left", "h", "shift+tab":
		m.panel = (m.panel + len(m.panels) - 1) % len(m.panels)
	case "1", "2", "3", "4", "5", "6":
		m.panel = int(msg.String()[0] - '1')
	case "]", ".":
		m.sample = min(m.sample+1, max(last, 0))
	case "[", ",":
		m.sample = max(m.sample-1, 0)
	case "}":
		m.sample = min(m.sample+10, max(last, 0))
	case "{":
		m.sample = max(m.sample-10, 0)
	case "home", "g":
		m.sample = 0
	case "end", "G":
		m.sample = max(last, 0)
	case "o":
		m.overview = !m.overview
	}
	return m, nil
}

func (m Viewer) Panel() int { return m.panel }

func (m Viewer) Sample() int { return m.sample }

func (m Viewer) View() string {
	if m.overview {
		return m.viewOverview()
	}

	var b strings.Builder
	p := m.panels[m.panel]

	b.WriteString(viz.Title.Render(m.title))
	b.WriteString(viz.Subtle.Render(fmt.Sprintf("  %d/%d ", m.panel+1, len(m.panels))))
	b.WriteString(viz.Selected.Render(p.Title))
	b.WriteString("\n\n")

	width := max(m.width-14, 20)
	height := max(m.height-12, 5)
	b.WriteString(viz.RenderPanel(p, width, height))
	b.WriteString("\n\n")
	b.WriteString(m.viewSample(p))
	b.WriteString("\n\n")
	b.WriteString(viz.KeyHint.Render("←/→ panel  1-6 jump  [/] sample  o overview  q quit"))
	return b.String()
}

func (m Viewer) viewSample(p viz.Panel) string {
	if len(m.times) == 0 {
		return viz.Subtle.Render("no samples")
	}
	parts := []string{viz.MetricLabel.Render("t=") + viz.MetricValue.Render(fmt.Sprintf("%.4g", m.times[m.sample]))}
	for _, s := range p.Series {
		if m.sample < len(s.Values) {
			parts = append(parts, viz.MetricLabel.Render(s.Label+"=")+viz.MetricValue.Render(fmt.Sprintf("%.6g", s.Values[m.sample])))
		}
	}
	return strings.Join(parts, "  ")
}

func (m Viewer) viewOverview() string {
	var b strings.Builder
	b.WriteString(viz.Title.Render(m.title))
	b.WriteString("\n\n")

	spark := max(m.width/2-24, 10)
	for i, p := range m.panels {
		label := fmt.Sprintf("%-20s", p.Title)
		if i == m.panel {
			label = viz.Selected.Render(label)
		} else {
			label = viz.MetricLabel.Render(label)
		}
		b.WriteString(label)
		for _, s := range p.Series {
			b.WriteString(" ")
			b.WriteString(viz.SparklineChart(s.Values, spark))
		}
		b.WriteString("\n")
	}

	if len(m.metrics) > 0 {
		b.WriteString("\n")
		b.WriteString(viz.Box.Render(viz.MetricsTable(m.metrics)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(viz.KeyHint.Render("o charts  q quit"))
	return b.String()
}

// Run opens the viewer on the alternate screen until the user quits.
func Run(title string, res *sim.Result) error {
	p := tea.NewProgram(NewViewer(title, res), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
