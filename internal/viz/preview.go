package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/atsform/internal/form"
)

// Disturbances are drawn between these bounds, the same clamp the
// simulation applies to F_i(t) = a + b·t.
const (
	DisturbanceMin = 0.1
	DisturbanceMax = 1.0
)

var seriesColors = []asciigraph.AnsiColor{
	asciigraph.Red,
	asciigraph.Green,
	asciigraph.Yellow,
	asciigraph.Blue,
	asciigraph.Magenta,
}

var legendColors = []lipgloss.Color{"#ff4444", "#00ff88", "#ffcc00", "#4488ff", "#ff00ff"}

// DisturbanceSeries samples each clamped disturbance line at n points over
// t in [0, 1]. Empty or invalid fields use the submit defaults.
func DisturbanceSeries(st form.State, n int) [][]float64 {
	if n < 2 {
		n = 2
	}
	req, _ := form.Collect(st)
	series := make([][]float64, len(req.Faks))
	for i, f := range req.Faks {
		line := make([]float64, n)
		for j := range line {
			t := float64(j) / float64(n-1)
			line[j] = clamp(f[0]+f[1]*t, DisturbanceMin, DisturbanceMax)
		}
		series[i] = line
	}
	return series
}

// DisturbancePreview plots the five disturbance lines with a legend.
func DisturbancePreview(st form.State, width, height int) string {
	if width < 10 {
		width = 10
	}
	if height < 3 {
		height = 3
	}
	chart := asciigraph.PlotMany(DisturbanceSeries(st, width),
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.LowerBound(DisturbanceMin),
		asciigraph.UpperBound(DisturbanceMax),
		asciigraph.Precision(2),
		asciigraph.SeriesColors(seriesColors...),
		asciigraph.Caption("F(t), t ∈ [0, 1]"))

	legend := make([]string, 0, form.FakCount)
	for i := 0; i < form.FakCount; i++ {
		name := fmt.Sprintf("F%s %s", form.Subscript(i+1), form.FactorLabels[i])
		legend = append(legend, lipgloss.NewStyle().Foreground(legendColors[i]).Render("■ "+name))
	}
	return chart + "\n" + strings.Join(legend, "\n")
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
