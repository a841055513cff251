// Package charts renders the review plots. Each chart is described by a
// Spec; the Emitter turns a Spec and one band's observations into a PNG.
package charts

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/chrissnell/fcfreview/internal/beamfit"
	"github.com/chrissnell/fcfreview/internal/types"
	"github.com/chrissnell/fcfreview/pkg/epoch"
	"github.com/wcharczuk/go-chart/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Nominal holds the recommended FCFs for a band
type Nominal struct {
	Arcsec float64
	Peak   float64
}

func (n Nominal) value(r RefLine) (float64, bool) {
	switch r {
	case RefArcsec:
		return n.Arcsec, n.Arcsec > 0
	case RefPeak:
		return n.Peak, n.Peak > 0
	}
	return 0, false
}

// Expected is the published beam size quoted on the beam-fit chart
type Expected struct {
	FWHM float64
	Err  float64
}

// Job is one chart for one band. Rows must not be modified while the job
// is running.
type Job struct {
	Spec     Spec
	Band     types.Band
	Rows     []types.Observation
	Nominal  Nominal
	Expected Expected
	// Fit is only used by KindBeamFit; nil means the fit was skipped
	Fit    *beamfit.Result
	Events []epoch.Event
}

// Outcome reports what happened to a Job
type Outcome struct {
	Name    string
	Band    types.Band
	Kind    Kind
	Path    string
	Points  int
	Skipped bool
	Err     error
}

// Written reports whether a PNG was produced
func (o Outcome) Written() bool {
	return !o.Skipped && o.Err == nil
}

// Emitter writes charts into a single output directory
type Emitter struct {
	Dir     string
	Style   Style
	Workers int
	logger  *zap.SugaredLogger
}

// NewEmitter creates an Emitter. Workers <= 0 means one per CPU.
func NewEmitter(dir string, style Style, workers int, logger *zap.SugaredLogger) *Emitter {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Emitter{Dir: dir, Style: style, Workers: workers, logger: logger}
}

// Emit renders one job. A job with nothing to plot produces no file and
// an Outcome with Skipped set.
func (e *Emitter) Emit(job Job) (out Outcome) {
	name := job.Spec.FileName(job.Band)
	out = Outcome{Name: name, Band: job.Band, Kind: job.Spec.Kind}

	defer func() {
		if r := recover(); r != nil {
			out.Err = fmt.Errorf("render %s: panic: %v", name, r)
			e.logger.Errorw("chart failed", "chart", name, "error", out.Err)
		}
	}()

	ch, points, err := build(job, e.Style)
	if err != nil {
		out.Err = fmt.Errorf("build %s: %w", name, err)
		e.logger.Errorw("chart failed", "chart", name, "error", err)
		return out
	}
	out.Points = points
	if ch == nil {
		out.Skipped = true
		e.logger.Debugw("nothing to plot", "chart", name)
		return out
	}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		out.Err = fmt.Errorf("render %s: %w", name, err)
		e.logger.Errorw("chart failed", "chart", name, "error", err)
		return out
	}

	path := filepath.Join(e.Dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		out.Err = fmt.Errorf("write %s: %w", name, err)
		e.logger.Errorw("chart failed", "chart", name, "error", err)
		return out
	}
	out.Path = path
	e.logger.Debugw("wrote chart", "chart", name, "points", points)
	return out
}

// EmitAll renders jobs with at most Workers running at once. Outcomes are
// returned in job order. A failing job never stops the others; jobs not
// yet started when ctx is cancelled report ctx.Err().
func (e *Emitter) EmitAll(ctx context.Context, jobs []Job) []Outcome {
	outcomes := make([]Outcome, len(jobs))

	var g errgroup.Group
	g.SetLimit(e.Workers)
	for i, job := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				outcomes[i] = Outcome{
					Name: job.Spec.FileName(job.Band),
					Band: job.Band,
					Kind: job.Spec.Kind,
					Err:  err,
				}
				return nil
			}
			outcomes[i] = e.Emit(job)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

// build returns the chart for a job and the number of points plotted, or
// a nil chart when there is nothing to draw.
func build(job Job, s Style) (*chart.Chart, int, error) {
	switch job.Spec.Kind {
	case KindScatter:
		return scatterChart(job, s)
	case KindHistogram:
		return histogramChart(job, s)
	case KindBeamFit:
		return beamChart(job, s)
	}
	return nil, 0, fmt.Errorf("unknown chart kind %d", job.Spec.Kind)
}

// baseChart sets up a chart whose axes span exactly the given ticks
func (s Style) baseChart(title, xName, yName string, xt, yt []chart.Tick) chart.Chart {
	grid, text := s.axisStyles()
	name := chart.Style{FontSize: s.AxisFontSize + 2}
	return chart.Chart{
		Title:      title,
		TitleStyle: chart.Style{FontSize: s.TitleFontSize},
		Width:      s.Width,
		Height:     s.Height,
		DPI:        s.DPI,
		Background: chart.Style{Padding: chart.Box{Top: 60, Left: 20, Right: 20, Bottom: 20}},
		XAxis: chart.XAxis{
			Name:           xName,
			NameStyle:      name,
			Style:          text,
			Ticks:          xt,
			GridMajorStyle: grid,
			GridMinorStyle: grid,
		},
		YAxis: chart.YAxis{
			Name:           yName,
			NameStyle:      name,
			Style:          text,
			Ticks:          yt,
			GridMajorStyle: grid,
			GridMinorStyle: grid,
		},
	}
}

// numericAxis picks ticks for a value axis from its bound and the data
func numericAxis(b Bound, values []float64, extras ...float64) []chart.Tick {
	lo, hi := resolveRange(b, values, extras...)
	lo, hi = snapOut(lo, hi, b)
	return numericTicks(lo, hi)
}
