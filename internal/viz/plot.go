package viz

import (
	"strings"

	"github.com/guptarohit/asciigraph"
)

var seriesColors = []asciigraph.AnsiColor{asciigraph.Cyan, asciigraph.Yellow}

// RenderPanel draws one panel as an ascii chart.
func RenderPanel(p Panel, width, height int) string {
	data := make([][]float64, 0, len(p.Series))
	labels := make([]string, 0, len(p.Series))
	for _, s := range p.Series {
		if len(s.Values) == 0 {
			continue
		}
		data = append(data, widen(s.Values))
		labels = append(labels, s.Label)
	}
	if len(data) == 0 {
		return Subtle.Render(p.Title + ": no data")
	}

	opts := []asciigraph.Option{
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(p.YLabel),
		asciigraph.SeriesColors(seriesColors[:min(len(data), len(seriesColors))]...),
	}
	if len(labels) > 1 && len(labels) <= len(seriesColors) {
		opts = append(opts, asciigraph.SeriesLegends(labels...))
	}

	return asciigraph.PlotMany(data, opts...)
}

// widen repeats a lone sample so the chart has a line to draw.
func widen(values []float64) []float64 {
	if len(values) == 1 {
		return []float64{values[0], values[0]}
	}
	return values
}

// Render draws every panel of a run, one below the other.
func Render(panels []Panel, width, height int) string {
	var sb strings.Builder
	for i, p := range panels {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(HeaderStyle.Render(p.Title))
		sb.WriteString("\n")
		sb.WriteString(RenderPanel(p, width, height))
	}
	return sb.String()
}
