package charts

import (
	"fmt"
	"math"
	"sort"

	"github.com/wcharczuk/go-chart/v2"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	maxBins     = 50
	fallbackBin = 10
	kdeSamples  = 200
	// densityHeadroom leaves space above the tallest bar for the legend
	densityHeadroom = 1.1
)

// binDividers returns histogram bin edges for sorted values using the
// Freedman-Diaconis rule. The last edge is nudged up so that the maximum
// value falls inside the last bin.
func binDividers(sorted []float64) []float64 {
	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		return []float64{lo - 0.5, math.Nextafter(lo+0.5, math.Inf(1))}
	}

	n := fallbackBin
	iqr := stat.Quantile(0.75, stat.Empirical, sorted, nil) - stat.Quantile(0.25, stat.Empirical, sorted, nil)
	if iqr > 0 {
		width := 2 * iqr / math.Cbrt(float64(len(sorted)))
		n = int(math.Ceil((hi - lo) / width))
	}
	n = min(max(n, 1), maxBins)

	dividers := make([]float64, n+1)
	step := (hi - lo) / float64(n)
	for i := range dividers {
		dividers[i] = lo + float64(i)*step
	}
	dividers[n] = math.Nextafter(hi, math.Inf(1))
	return dividers
}

// densities converts bin counts to a normalised density
func densities(counts, dividers []float64, total int) []float64 {
	out := make([]float64, len(counts))
	for i, c := range counts {
		width := dividers[i+1] - dividers[i]
		if width > 0 && total > 0 {
			out[i] = c / (float64(total) * width)
		}
	}
	return out
}

// scottBandwidth is the Gaussian KDE bandwidth used by scipy and seaborn
func scottBandwidth(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	sd := math.Sqrt(stat.Variance(values, nil))
	return sd * math.Pow(float64(len(values)), -0.2)
}

// kde evaluates a Gaussian kernel density estimate at each x
func kde(values []float64, bandwidth float64, xs []float64) []float64 {
	out := make([]float64, len(xs))
	if bandwidth <= 0 {
		return out
	}
	kernels := make([]distuv.Normal, len(values))
	for i, v := range values {
		kernels[i] = distuv.Normal{Mu: v, Sigma: bandwidth}
	}
	for i, x := range xs {
		var sum float64
		for _, k := range kernels {
			sum += k.Prob(x)
		}
		out[i] = sum / float64(len(values))
	}
	return out
}

// stepOutline traces the top of the bars from the baseline and back. Bars
// outside the plot area are dropped and bars crossing its edge are cut, so
// the outline never runs along the frame.
func stepOutline(dividers, heights []float64, a plotArea) (xs, ys []float64) {
	for i, h := range heights {
		l, r := math.Max(dividers[i], a.xMin), math.Min(dividers[i+1], a.xMax)
		if l >= r {
			continue
		}
		if len(xs) == 0 {
			xs = append(xs, l)
			ys = append(ys, 0)
		}
		xs = append(xs, l, r)
		ys = append(ys, h, h)
	}
	if len(xs) > 0 {
		xs = append(xs, xs[len(xs)-1])
		ys = append(ys, 0)
	}
	return xs, ys
}

// visibleTop is the tallest bar that is at least partly inside the area
func visibleTop(dividers, heights []float64, a plotArea) float64 {
	top := 0.0
	for i, h := range heights {
		if dividers[i+1] > a.xMin && dividers[i] < a.xMax {
			top = math.Max(top, h)
		}
	}
	return top
}

func histogramChart(job Job, s Style) (*chart.Chart, int, error) {
	spec := job.Spec
	lim := spec.limits(job.Band)

	// Bins and the KDE use every value; limits only crop the view.
	var values []float64
	outside := 0
	for _, o := range job.Rows {
		v, ok := spec.X.Value(o)
		if !ok {
			continue
		}
		if (lim.X.HasMin && v < lim.X.Min) || (lim.X.HasMax && v > lim.X.Max) {
			outside++
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return nil, 0, nil
	}
	sort.Float64s(values)

	dividers := binDividers(values)
	counts := stat.Histogram(nil, dividers, values, nil)
	heights := densities(counts, dividers, len(values))

	ref, hasRef := job.Nominal.value(spec.Ref)
	var xExtras []float64
	if hasRef {
		xExtras = append(xExtras, ref)
	}
	xt := numericAxis(lim.X, values, xExtras...)
	var area plotArea
	area.xMin, area.xMax = tickBounds(xt)

	kx := make([]float64, kdeSamples)
	for i := range kx {
		kx[i] = area.xMin + (area.xMax-area.xMin)*float64(i)/float64(kdeSamples-1)
	}
	bw := scottBandwidth(values)
	ky := kde(values, bw, kx)

	top := visibleTop(dividers, heights, area)
	for _, y := range ky {
		top = math.Max(top, y)
	}
	if top <= 0 {
		top = 1
	}
	yt := numericTicks(0, top*densityHeadroom)
	area.yMin, area.yMax = tickBounds(yt)

	ch := s.baseChart(spec.TitleFor(job.Band), spec.xLabel(), spec.yLabel(), xt, yt)
	ch.Series = append(ch.Series, anchorSeries(area))

	if ox, oy := stepOutline(dividers, heights, area); len(ox) > 0 {
		ch.Series = append(ch.Series, lineSeries("histogram", ox, oy, chart.Style{
			StrokeColor: s.HistogramStroke,
			StrokeWidth: 1.5,
			FillColor:   s.HistogramFill,
		}))
	}

	mean, sd := stat.MeanStdDev(values, nil)
	if len(values) < 2 {
		sd = 0
	}
	legend := []legendEntry{{
		Label:    fmt.Sprintf("n = %d, mean = %.4g, sd = %.3g", len(values), mean, sd),
		Color:    s.HistogramStroke,
		DotWidth: s.DefaultDotWidth + 1,
	}}
	if outside > 0 {
		legend = append(legend, legendEntry{
			Label:    fmt.Sprintf("%d beyond axis limits, not shown", outside),
			Color:    s.HistogramStroke,
			DotWidth: s.DefaultDotWidth,
		})
	}

	if bw > 0 {
		ch.Series = append(ch.Series, lineSeries("kde", kx, ky, chart.Style{
			StrokeColor: s.KDEColor,
			StrokeWidth: 2,
		}))
		legend = append(legend, legendEntry{Label: "Gaussian KDE", Color: s.KDEColor, Line: true})
	}

	if hasRef {
		if line, ok := vLine(area, ref, "nominal", s.referenceStyle()); ok {
			ch.Series = append(ch.Series, line)
			label := spec.RefLabel
			if label == "" {
				label = fmt.Sprintf("Nominal = %g", ref)
			}
			legend = append(legend, legendEntry{
				Label: fmt.Sprintf("%s (%g)", label, ref),
				Color: s.ReferenceColor,
				Line:  true,
				Dash:  s.ReferenceDash,
			})
		}
	}

	ch.Elements = append(ch.Elements, legendRenderable(legend, legendUpperRight, s))
	return &ch, len(values), nil
}
