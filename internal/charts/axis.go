package charts

import (
	"math"
	"strconv"
	"time"

	"github.com/wcharczuk/go-chart/v2"
)

// axisMargin pads data-driven axis ends by this fraction of the span
const axisMargin = 0.05

// targetTicks is the approximate number of labelled ticks per axis
const targetTicks = 8

// plotArea is the data window of a chart. go-chart takes the axis range
// from the first and last tick, so every axis gets explicit ticks that
// start and end on these values.
type plotArea struct {
	xMin, xMax float64
	yMin, yMax float64
}

func (a plotArea) contains(x, y float64) bool {
	return x >= a.xMin && x <= a.xMax && y >= a.yMin && y <= a.yMax
}

func (a plotArea) containsX(x float64) bool {
	return x >= a.xMin && x <= a.xMax
}

func (a plotArea) containsY(y float64) bool {
	return y >= a.yMin && y <= a.yMax
}

// px maps a data x to a canvas pixel the same way chart.ContinuousRange does
func (a plotArea) px(cb chart.Box, x float64) int {
	return cb.Left + int(math.Ceil((x-a.xMin)/(a.xMax-a.xMin)*float64(cb.Width())))
}

func (a plotArea) py(cb chart.Box, y float64) int {
	return cb.Bottom - int(math.Ceil((y-a.yMin)/(a.yMax-a.yMin)*float64(cb.Height())))
}

// resolveRange picks an axis range from an optional bound and the data.
// Extra values such as reference lines widen a data-driven end the way they
// would in an autoscaled plot.
func resolveRange(b Bound, values []float64, extras ...float64) (lo, hi float64) {
	dataMin, dataMax := math.Inf(1), math.Inf(-1)
	for _, v := range append(append([]float64(nil), values...), extras...) {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		dataMin = math.Min(dataMin, v)
		dataMax = math.Max(dataMax, v)
	}
	haveData := !math.IsInf(dataMin, 1)

	pad := 0.0
	if haveData {
		pad = (dataMax - dataMin) * axisMargin
		if pad == 0 {
			pad = math.Max(math.Abs(dataMax)*axisMargin, 0.5)
		}
	}

	switch {
	case b.HasMin:
		lo = b.Min
	case haveData:
		lo = dataMin - pad
	}
	switch {
	case b.HasMax:
		hi = b.Max
	case haveData:
		hi = dataMax + pad
	}

	if !haveData && !b.HasMin && !b.HasMax {
		return 0, 1
	}
	if !haveData {
		if !b.HasMin {
			lo = hi - 1
		}
		if !b.HasMax {
			hi = lo + 1
		}
	}

	if lo >= hi {
		span := math.Max(math.Abs(hi)*0.25, 1)
		switch {
		case b.HasMax && !b.HasMin:
			lo = hi - span
		case b.HasMin && !b.HasMax:
			hi = lo + span
		default:
			lo, hi = lo-0.5, hi+0.5
		}
	}
	return lo, hi
}

// niceStep rounds raw up to 1, 2, 2.5 or 5 times a power of ten
func niceStep(raw float64) float64 {
	if raw <= 0 || math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 1
	}
	exp := math.Floor(math.Log10(raw))
	base := math.Pow(10, exp)
	frac := raw / base
	switch {
	case frac <= 1:
		return base
	case frac <= 2:
		return 2 * base
	case frac <= 2.5:
		return 2.5 * base
	case frac <= 5:
		return 5 * base
	}
	return 10 * base
}

func stepDecimals(step float64) int {
	d := 0
	for d < 6 && math.Abs(step*math.Pow(10, float64(d))-math.Round(step*math.Pow(10, float64(d)))) > 1e-9 {
		d++
	}
	return d
}

// snapOut moves data-driven ends outward to the tick grid
func snapOut(lo, hi float64, b Bound) (float64, float64) {
	step := niceStep((hi - lo) / targetTicks)
	if !b.HasMin {
		lo = math.Floor(lo/step+1e-9) * step
	}
	if !b.HasMax {
		hi = math.Ceil(hi/step-1e-9) * step
	}
	return lo, hi
}

// numericTicks returns ticks on a nice grid between lo and hi. The end
// ticks are always present; they are left unlabelled when they fall off
// the grid.
func numericTicks(lo, hi float64) []chart.Tick {
	step := niceStep((hi - lo) / targetTicks)
	dec := stepDecimals(step)
	label := func(v float64) string {
		if v == 0 {
			v = 0 // no "-0"
		}
		return strconv.FormatFloat(v, 'f', dec, 64)
	}
	onGrid := func(v float64) bool {
		r := v / step
		return math.Abs(r-math.Round(r)) < 1e-6
	}

	ticks := []chart.Tick{{Value: lo}}
	if onGrid(lo) {
		ticks[0].Label = label(lo)
	}
	for v := math.Ceil(lo/step-1e-9) * step; v < hi-step*1e-6; v += step {
		if v <= lo+step*1e-6 {
			continue
		}
		ticks = append(ticks, chart.Tick{Value: v, Label: label(math.Round(v/step) * step)})
	}
	end := chart.Tick{Value: hi}
	if onGrid(hi) {
		end.Label = label(hi)
	}
	return append(ticks, end)
}

// monthInterval is the spacing of date ticks for a data span in months
func monthInterval(months, divisor float64) int {
	if divisor <= 0 {
		divisor = 5
	}
	n := int(math.Round(months / divisor))
	if n < 1 {
		n = 1
	}
	return n
}

// monthTicks labels the first of every interval-th month, starting at the
// month of first and running until last is covered.
func monthTicks(first, last time.Time, interval int) []chart.Tick {
	if interval < 1 {
		interval = 1
	}
	first, last = first.UTC(), last.UTC()
	start := time.Date(first.Year(), first.Month(), 1, 0, 0, 0, 0, time.UTC)

	var ticks []chart.Tick
	for i := 0; i < 1200; i++ {
		t := start.AddDate(0, i*interval, 0)
		ticks = append(ticks, chart.Tick{Value: chart.TimeToFloat64(t), Label: t.Format("2006-01")})
		if len(ticks) >= 2 && !t.Before(last) {
			break
		}
	}
	return ticks
}

func tickBounds(ticks []chart.Tick) (lo, hi float64) {
	return ticks[0].Value, ticks[len(ticks)-1].Value
}
