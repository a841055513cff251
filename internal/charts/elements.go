package charts

import (
	"github.com/chrissnell/fcfreview/pkg/epoch"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// lineSeries is a styled polyline in data coordinates
func lineSeries(name string, xs, ys []float64, style chart.Style) chart.ContinuousSeries {
	return chart.ContinuousSeries{Name: name, XValues: xs, YValues: ys, Style: style}
}

// anchorSeries draws nothing. It keeps a chart renderable when every point
// falls outside the plotted limits.
func anchorSeries(a plotArea) chart.ContinuousSeries {
	return chart.ContinuousSeries{
		XValues: []float64{a.xMin, a.xMax},
		YValues: []float64{a.yMin, a.yMax},
		Style:   chart.Style{StrokeWidth: chart.Disabled},
	}
}

func hLine(a plotArea, y float64, name string, style chart.Style) (chart.ContinuousSeries, bool) {
	if !a.containsY(y) {
		return chart.ContinuousSeries{}, false
	}
	return lineSeries(name, []float64{a.xMin, a.xMax}, []float64{y, y}, style), true
}

func vLine(a plotArea, x float64, name string, style chart.Style) (chart.ContinuousSeries, bool) {
	if !a.containsX(x) {
		return chart.ContinuousSeries{}, false
	}
	return lineSeries(name, []float64{x, x}, []float64{a.yMin, a.yMax}, style), true
}

// identityLine is y = x clipped to the plot area
func identityLine(a plotArea, style chart.Style) (chart.ContinuousSeries, bool) {
	lo := max(a.xMin, a.yMin)
	hi := min(a.xMax, a.yMax)
	if lo >= hi {
		return chart.ContinuousSeries{}, false
	}
	return lineSeries("1:1", []float64{lo, hi}, []float64{lo, hi}, style), true
}

// noteRenderable draws boxed text centred on a data coordinate
func noteRenderable(a plotArea, note Note, s Style) chart.Renderable {
	return func(r chart.Renderer, cb chart.Box, defaults chart.Style) {
		if note.Text == "" || !a.contains(note.X, note.Y) {
			return
		}
		text := chart.Style{
			Font:      defaults.Font,
			FontSize:  s.NoteFontSize,
			FontColor: drawing.ColorBlack,
		}
		tb := chart.Draw.MeasureText(r, note.Text, text)
		cx, cy := a.px(cb, note.X), a.py(cb, note.Y)
		pad := 6
		box := chart.Box{
			Left:   cx - tb.Width()/2 - pad,
			Right:  cx + tb.Width()/2 + pad,
			Top:    cy - tb.Height()/2 - pad,
			Bottom: cy + tb.Height()/2 + pad,
		}
		chart.Draw.Box(r, box, chart.Style{FillColor: s.NoteBackground, StrokeColor: s.NoteBackground, StrokeWidth: 1})
		chart.Draw.Text(r, note.Text, cx-tb.Width()/2, cy+tb.Height()/2, text)
	}
}

// eventsRenderable marks events inside the plotted date range with faint
// vertical lines. Event x values are chart.TimeToFloat64 instants.
func eventsRenderable(a plotArea, events []epoch.Event, s Style) chart.Renderable {
	return func(r chart.Renderer, cb chart.Box, defaults chart.Style) {
		for _, ev := range events {
			x := chart.TimeToFloat64(ev.Time)
			if !a.containsX(x) {
				continue
			}
			col, ok := s.EventColors[ev.Kind]
			if !ok {
				continue
			}
			px := a.px(cb, x)
			r.SetStrokeColor(col)
			r.SetStrokeWidth(1)
			r.SetStrokeDashArray(s.EventDash)
			r.MoveTo(px, cb.Top)
			r.LineTo(px, cb.Bottom)
			r.Stroke()
		}
		r.ResetStyle()
	}
}

// legendEntry is one row of a legend: a dot, a line, or both
type legendEntry struct {
	Label    string
	Color    drawing.Color
	DotWidth float64
	Line     bool
	Dash     []float64
}

type legendCorner int

const (
	legendUpperLeft legendCorner = iota
	legendUpperRight
)

// legendRenderable draws entries in a boxed legend in one corner of the
// canvas. go-chart's own legend only draws line samples, which says
// nothing about point colour or size.
func legendRenderable(entries []legendEntry, corner legendCorner, s Style) chart.Renderable {
	return func(r chart.Renderer, cb chart.Box, defaults chart.Style) {
		if len(entries) == 0 {
			return
		}
		text := chart.Style{Font: defaults.Font, FontSize: s.LegendFontSize, FontColor: drawing.ColorBlack}

		const (
			pad    = 6
			sample = 22
			gap    = 6
			margin = 8
		)
		width, rowHeight := 0, 0
		for _, e := range entries {
			tb := chart.Draw.MeasureText(r, e.Label, text)
			width = max(width, tb.Width())
			rowHeight = max(rowHeight, tb.Height())
		}
		rowHeight += 6

		box := chart.Box{Top: cb.Top + margin}
		box.Bottom = box.Top + 2*pad + rowHeight*len(entries)
		boxWidth := 2*pad + sample + gap + width
		if corner == legendUpperRight {
			box.Right = cb.Right - margin
			box.Left = box.Right - boxWidth
		} else {
			box.Left = cb.Left + margin
			box.Right = box.Left + boxWidth
		}
		chart.Draw.Box(r, box, chart.Style{
			FillColor:   drawing.ColorWhite.WithAlpha(220),
			StrokeColor: drawing.ColorFromHex("cccccc"),
			StrokeWidth: 1,
		})

		for i, e := range entries {
			mid := box.Top + pad + i*rowHeight + rowHeight/2
			sx := box.Left + pad
			if e.Line {
				r.SetStrokeColor(e.Color)
				r.SetStrokeWidth(2)
				r.SetStrokeDashArray(e.Dash)
				r.MoveTo(sx, mid)
				r.LineTo(sx+sample, mid)
				r.Stroke()
				r.SetStrokeDashArray(nil)
			}
			if e.DotWidth > 0 {
				r.SetFillColor(e.Color)
				r.SetStrokeColor(e.Color)
				r.SetStrokeWidth(1)
				r.Circle(e.DotWidth, sx+sample/2, mid)
				r.FillStroke()
			}
			tb := chart.Draw.MeasureText(r, e.Label, text)
			chart.Draw.Text(r, e.Label, sx+sample+gap, mid+tb.Height()/2, text)
		}
		r.ResetStyle()
	}
}
