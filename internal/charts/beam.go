package charts

import (
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
)

// beamTitleSuffix is appended to the beam-fit title with the fitted and
// expected FWHM in arcsec
const beamTitleSuffix = ` = %.1f", Expected = %.1f ± %.1f"`

func beamChart(job Job, s Style) (*chart.Chart, int, error) {
	fit := job.Fit
	if fit == nil || len(fit.Points) == 0 {
		return nil, 0, nil
	}
	spec := job.Spec
	lim := spec.limits(job.Band)

	xs := make([]float64, len(fit.Points))
	ys := make([]float64, len(fit.Points))
	for i, p := range fit.Points {
		xs[i], ys[i] = p.X, p.Y
	}

	xt := numericAxis(lim.X, xs)
	var area plotArea
	area.xMin, area.xMax = tickBounds(xt)
	fitY := []float64{fit.Predict(area.xMin), fit.Predict(area.xMax)}
	yt := numericAxis(lim.Y, ys, fitY...)
	area.yMin, area.yMax = tickBounds(yt)

	title := spec.TitleFor(job.Band) + fmt.Sprintf(beamTitleSuffix, fit.BeamFWHM, job.Expected.FWHM, job.Expected.Err)
	ch := s.baseChart(title, spec.xLabel(), spec.yLabel(), xt, yt)
	ch.Series = append(ch.Series, anchorSeries(area))

	col := s.TargetColor(0)
	groups := make(map[string]*pointGroup)
	var order []string
	for _, p := range fit.Points {
		if !area.contains(p.X, p.Y) {
			continue
		}
		g, ok := groups[p.Epoch]
		if !ok {
			g = &pointGroup{target: p.Target, epoch: p.Epoch}
			groups[p.Epoch] = g
			order = append(order, p.Epoch)
		}
		g.xs = append(g.xs, p.X)
		g.ys = append(g.ys, p.Y)
	}
	var legend []legendEntry
	for _, e := range order {
		g := groups[e]
		ch.Series = append(ch.Series, chart.ContinuousSeries{
			Name:    fmt.Sprintf("%s (%s)", g.target, e),
			XValues: g.xs,
			YValues: g.ys,
			Style: chart.Style{
				StrokeWidth: chart.Disabled,
				DotColor:    col.WithAlpha(190),
				DotWidth:    s.DotWidth(e),
			},
		})
		legend = append(legend, legendEntry{
			Label:    fmt.Sprintf("%s, %s (%d)", fit.Target, e, len(g.xs)),
			Color:    col,
			DotWidth: s.DotWidth(e),
		})
	}

	ch.Series = append(ch.Series, lineSeries("fit", []float64{area.xMin, area.xMax}, fitY, chart.Style{
		StrokeColor: s.FitColor,
		StrokeWidth: 2,
	}))
	legend = append(legend, legendEntry{
		Label: fmt.Sprintf("FCF Peak = %.1f × FCF Arcsec %+.1f, R² = %.3f", fit.Slope, fit.Intercept, fit.RSquared),
		Color: s.FitColor,
		Line:  true,
	})

	ch.Elements = append(ch.Elements, legendRenderable(legend, legendUpperLeft, s))
	return &ch, fit.N, nil
}
