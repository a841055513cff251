package charts

import (
	"github.com/chrissnell/fcfreview/pkg/epoch"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Style holds everything about how charts look. It is passed to the
// Emitter explicitly and never modified while charts render.
type Style struct {
	Width  int
	Height int
	DPI    float64

	TitleFontSize  float64
	AxisFontSize   float64
	LegendFontSize float64
	NoteFontSize   float64

	// Palette colours targets in first-seen order, wrapping around
	Palette []drawing.Color

	// EpochDotWidths sizes scatter points by coarse epoch
	EpochDotWidths  map[string]float64
	DefaultDotWidth float64

	ReferenceColor drawing.Color
	ReferenceWidth float64
	ReferenceDash  []float64

	GridColor drawing.Color

	NoteBackground drawing.Color

	HistogramFill   drawing.Color
	HistogramStroke drawing.Color
	KDEColor        drawing.Color

	FitColor drawing.Color

	EventColors map[string]drawing.Color
	EventDash   []float64
}

// DefaultStyle is the look used for the operations meeting
func DefaultStyle() Style {
	return Style{
		Width:  1200,
		Height: 800,
		DPI:    100,

		TitleFontSize:  16,
		AxisFontSize:   10,
		LegendFontSize: 9,
		NoteFontSize:   11,

		Palette: []drawing.Color{
			drawing.ColorFromHex("1f77b4"),
			drawing.ColorFromHex("ff7f0e"),
			drawing.ColorFromHex("2ca02c"),
			drawing.ColorFromHex("d62728"),
			drawing.ColorFromHex("9467bd"),
			drawing.ColorFromHex("8c564b"),
			drawing.ColorFromHex("e377c2"),
			drawing.ColorFromHex("7f7f7f"),
			drawing.ColorFromHex("bcbd22"),
			drawing.ColorFromHex("17becf"),
		},

		EpochDotWidths: map[string]float64{
			epoch.PreFilterChange:  2.5,
			epoch.PostFilterChange: 4,
			epoch.PostSMUFix:       5.5,
		},
		DefaultDotWidth: 3,

		ReferenceColor: drawing.ColorBlack,
		ReferenceWidth: 2,
		ReferenceDash:  []float64{6, 4},

		GridColor: drawing.ColorFromHex("e6e6e6"),

		NoteBackground: drawing.ColorFromHex("fdf5e6"),

		HistogramFill:   drawing.ColorFromHex("1f77b4").WithAlpha(90),
		HistogramStroke: drawing.ColorFromHex("1f77b4"),
		KDEColor:        drawing.ColorFromHex("1f77b4"),

		FitColor: drawing.ColorBlack,

		EventColors: map[string]drawing.Color{
			epoch.KindMilestone:   drawing.ColorFromHex("d62728").WithAlpha(160),
			epoch.KindRxAWarmup:   drawing.ColorFromHex("ff7f0e").WithAlpha(70),
			epoch.KindRxACooldown: drawing.ColorFromHex("17becf").WithAlpha(70),
		},
		EventDash: []float64{2, 3},
	}
}

// TargetColor returns the palette colour for the i-th target
func (s Style) TargetColor(i int) drawing.Color {
	if len(s.Palette) == 0 {
		return chart.DefaultColorPalette.GetSeriesColor(i)
	}
	return s.Palette[i%len(s.Palette)]
}

// DotWidth returns the point radius for a coarse epoch
func (s Style) DotWidth(coarse string) float64 {
	if w, ok := s.EpochDotWidths[coarse]; ok {
		return w
	}
	return s.DefaultDotWidth
}

func (s Style) referenceStyle() chart.Style {
	return chart.Style{
		StrokeColor:     s.ReferenceColor,
		StrokeWidth:     s.ReferenceWidth,
		StrokeDashArray: s.ReferenceDash,
	}
}

func (s Style) axisStyles() (grid chart.Style, text chart.Style) {
	grid = chart.Style{StrokeColor: s.GridColor, StrokeWidth: 1}
	text = chart.Style{FontSize: s.AxisFontSize}
	return grid, text
}
