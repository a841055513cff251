package charts

import (
	"fmt"
	"sort"

	"github.com/chrissnell/fcfreview/internal/derive"
	"github.com/chrissnell/fcfreview/internal/types"
	"github.com/chrissnell/fcfreview/pkg/epoch"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

type xyPoint struct {
	x, y   float64
	target string
	epoch  string
}

// pointGroup is one drawn series: a single target in a single coarse epoch
type pointGroup struct {
	target string
	epoch  string
	xs, ys []float64
}

// coarseOrder fixes the legend order of coarse epochs
var coarseOrder = map[string]int{
	epoch.PreFilterChange:  0,
	epoch.PostFilterChange: 1,
	epoch.PostSMUFix:       2,
}

func collectPoints(rows []types.Observation, xf, yf Field) []xyPoint {
	var pts []xyPoint
	for _, o := range rows {
		x, okx := xf.Value(o)
		y, oky := yf.Value(o)
		if !okx || !oky {
			continue
		}
		pts = append(pts, xyPoint{x: x, y: y, target: o.Target, epoch: o.Epoch})
	}
	return pts
}

// groupPoints splits the points inside the area by target and coarse epoch
func groupPoints(pts []xyPoint, a plotArea) []*pointGroup {
	type key struct{ target, epoch string }
	index := make(map[key]*pointGroup)
	var groups []*pointGroup
	for _, p := range pts {
		if !a.contains(p.x, p.y) {
			continue
		}
		k := key{p.target, p.epoch}
		g, ok := index[k]
		if !ok {
			g = &pointGroup{target: p.target, epoch: p.epoch}
			index[k] = g
			groups = append(groups, g)
		}
		g.xs = append(g.xs, p.x)
		g.ys = append(g.ys, p.y)
	}
	return groups
}

func scatterChart(job Job, s Style) (*chart.Chart, int, error) {
	spec := job.Spec
	pts := collectPoints(job.Rows, spec.X, spec.Y)
	if len(pts) == 0 {
		return nil, 0, nil
	}
	lim := spec.limits(job.Band)

	xs := make([]float64, len(pts))
	ys := make([]float64, len(pts))
	for i, p := range pts {
		xs[i], ys[i] = p.x, p.y
	}

	var yExtras []float64
	ref, hasRef := job.Nominal.value(spec.Ref)
	if hasRef {
		yExtras = append(yExtras, ref)
	}

	var xt []chart.Tick
	if spec.X.IsDate() {
		first, last, months := derive.DateSpan(job.Rows)
		xt = monthTicks(first, last, monthInterval(months, spec.MonthTickDivisor))
	} else {
		xt = numericAxis(lim.X, xs, spec.VLines...)
	}
	yt := numericAxis(lim.Y, ys, yExtras...)

	var area plotArea
	area.xMin, area.xMax = tickBounds(xt)
	area.yMin, area.yMax = tickBounds(yt)

	ch := s.baseChart(spec.TitleFor(job.Band), spec.xLabel(), spec.yLabel(), xt, yt)
	ch.Series = append(ch.Series, anchorSeries(area))

	if spec.Events {
		ch.Elements = append(ch.Elements, eventsRenderable(area, job.Events, s))
	}

	targetColors := make(map[string]drawing.Color)
	var legend []legendEntry
	for i, name := range types.Targets(job.Rows) {
		targetColors[name] = s.TargetColor(i)
	}

	plotted := 0
	groups := groupPoints(pts, area)
	seenTargets := make(map[string]bool)
	seenEpochs := make(map[string]bool)
	for _, g := range groups {
		col := targetColors[g.target]
		ch.Series = append(ch.Series, chart.ContinuousSeries{
			Name:    fmt.Sprintf("%s (%s)", g.target, g.epoch),
			XValues: g.xs,
			YValues: g.ys,
			Style: chart.Style{
				StrokeWidth: chart.Disabled,
				DotColor:    col.WithAlpha(190),
				DotWidth:    s.DotWidth(g.epoch),
			},
		})
		plotted += len(g.xs)
		seenTargets[g.target] = true
		seenEpochs[g.epoch] = true
	}

	for _, name := range types.Targets(job.Rows) {
		if seenTargets[name] {
			legend = append(legend, legendEntry{Label: name, Color: targetColors[name], DotWidth: s.DefaultDotWidth})
		}
	}
	epochs := make([]string, 0, len(seenEpochs))
	for e := range seenEpochs {
		epochs = append(epochs, e)
	}
	sort.Slice(epochs, func(i, j int) bool {
		oi, iok := coarseOrder[epochs[i]]
		oj, jok := coarseOrder[epochs[j]]
		if iok != jok {
			return iok
		}
		if oi != oj {
			return oi < oj
		}
		return epochs[i] < epochs[j]
	})
	grey := drawing.ColorFromHex("7f7f7f")
	for _, e := range epochs {
		legend = append(legend, legendEntry{Label: e, Color: grey, DotWidth: s.DotWidth(e)})
	}

	refStyle := s.referenceStyle()
	if hasRef {
		if line, ok := hLine(area, ref, "nominal", refStyle); ok {
			ch.Series = append(ch.Series, line)
			label := spec.RefLabel
			if label == "" {
				label = fmt.Sprintf("Nominal = %g", ref)
			}
			legend = append(legend, legendEntry{Label: label, Color: s.ReferenceColor, Line: true, Dash: s.ReferenceDash})
		}
	}
	for _, v := range spec.VLines {
		if line, ok := vLine(area, v, fmt.Sprintf("x=%g", v), refStyle); ok {
			ch.Series = append(ch.Series, line)
		}
	}
	if spec.Identity {
		if line, ok := identityLine(area, refStyle); ok {
			ch.Series = append(ch.Series, line)
			legend = append(legend, legendEntry{Label: "1:1", Color: s.ReferenceColor, Line: true, Dash: s.ReferenceDash})
		}
	}

	if note, ok := spec.Notes[job.Band]; ok {
		ch.Elements = append(ch.Elements, noteRenderable(area, note, s))
	}
	ch.Elements = append(ch.Elements, legendRenderable(legend, legendUpperLeft, s))

	return &ch, plotted, nil
}
