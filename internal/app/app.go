// Package app runs one review: load the catalog, label it, fit the beams,
// draw the charts and leave a summary next to them.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chrissnell/fcfreview/internal/beamfit"
	"github.com/chrissnell/fcfreview/internal/catalog"
	"github.com/chrissnell/fcfreview/internal/charts"
	"github.com/chrissnell/fcfreview/internal/derive"
	"github.com/chrissnell/fcfreview/internal/metrics"
	"github.com/chrissnell/fcfreview/internal/types"
	"github.com/chrissnell/fcfreview/pkg/config"
	"github.com/chrissnell/fcfreview/pkg/epoch"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DirPrefix starts the name of every run directory
const DirPrefix = "ops_meeting_plots_"

// DirTimeLayout formats the run start time in the directory name
const DirTimeLayout = "2006-01-02_15:04:05"

// Output file names inside the run directory
const (
	SummaryFile = "summary.yaml"
	MetricsFile = "fcfreview.prom"
)

// Options control where and how a run writes its output
type Options struct {
	OutputRoot string
	// Workers limits concurrent chart rendering; <= 0 means one per CPU
	Workers int
	Style   charts.Style
	// Specs defaults to charts.SpecsFor(the site's reference target)
	Specs []charts.Spec
	// Now defaults to time.Now
	Now func() time.Time
}

// App represents one configured review generator
type App struct {
	cfg    *config.ConfigData
	opts   Options
	logger *zap.SugaredLogger
}

// New creates a new application instance
func New(cfg *config.ConfigData, opts Options, logger *zap.SugaredLogger) *App {
	if opts.OutputRoot == "" {
		opts.OutputRoot = "."
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Specs == nil {
		opts.Specs = charts.SpecsFor(cfg.Site.ReferenceTarget)
	}
	if opts.Style.Width == 0 {
		opts.Style = charts.DefaultStyle()
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &App{cfg: cfg, opts: opts, logger: logger}
}

// Run produces one review from source. Errors returned are fatal to the
// run; everything else is logged and listed in the summary.
func (a *App) Run(ctx context.Context, source catalog.Source) (*Summary, error) {
	start := a.opts.Now()
	runID := uuid.NewString()
	logger := a.logger.With("run_id", runID)
	rec := metrics.NewRecorder()

	tl, err := a.cfg.EpochTimeline()
	if err != nil {
		return nil, err
	}
	builder, err := derive.NewBuilder(a.cfg.Site.Timezone)
	if err != nil {
		return nil, err
	}

	res, err := source.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", source.Name(), err)
	}

	dir, err := makeRunDir(a.opts.OutputRoot, DirPrefix+start.Format(DirTimeLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	logger.Infow("starting review", "input", source.Name(), "output", dir)

	summary := &Summary{
		RunID:     runID,
		Input:     source.Name(),
		Directory: dir,
		Started:   start.Format(time.RFC3339),
		Rows:      res.Rows,
		Dropped:   res.Dropped,
	}
	rec.RowsLoaded.Add(float64(res.Rows))
	rec.RowsDropped.Add(float64(res.Dropped))
	for _, pe := range res.Errors {
		logger.Warnw("could not parse value", "line", pe.Line, "column", pe.Column, "value", pe.Value, "error", pe.Err)
		rec.ParseErrors.WithLabelValues(pe.Column).Inc()
		summary.ParseErrors = append(summary.ParseErrors, pe.Error())
	}

	decorated, gapErrs := builder.Decorate(res.Observations, tl)
	for _, err := range gapErrs {
		var gap *epoch.GapError
		if errors.As(err, &gap) {
			logger.Errorw("observation outside the epoch timeline", "time", gap.Time, "error", err)
		} else {
			logger.Errorw("could not classify observation", "error", err)
		}
		rec.GapErrors.Inc()
		summary.GapErrors = append(summary.GapErrors, err.Error())
	}
	summary.Observations = len(decorated)

	estimator := &beamfit.Estimator{
		Target:    a.cfg.Site.ReferenceTarget,
		Window:    beamfit.Window{Start: a.cfg.Site.StableStart, End: a.cfg.Site.StableEnd},
		MinPoints: beamfit.DefaultMinPoints,
	}
	events := a.cfg.EpochEvents()

	var jobs []charts.Job
	for _, band := range types.Bands {
		rows := types.FilterBand(decorated, band)
		bs := BandSummary{
			Band:         int(band),
			Observations: len(rows),
			Epochs:       countLabels(rows, func(o types.Observation) string { return o.Epoch }),
			Detailed:     countLabels(rows, func(o types.Observation) string { return o.DetailedEpoch }),
		}
		for e, n := range bs.Epochs {
			rec.Observations.WithLabelValues(band.String(), e).Set(float64(n))
		}

		bandCfg, ok := a.cfg.Band(int(band))
		if !ok {
			logger.Warnw("no configuration for band, reference values omitted", "band", band)
		}

		fit, err := estimator.Estimate(band, rows)
		var skip *beamfit.SkipError
		switch {
		case err == nil:
			logger.Infow("empirical beam", "band", band, "fwhm", fit.BeamFWHM, "points", fit.N, "r2", fit.RSquared)
			rec.BeamFWHM.WithLabelValues(band.String()).Set(fit.BeamFWHM)
			bs.Beam = &BeamSummary{
				Target:        fit.Target,
				Points:        fit.N,
				Slope:         fit.Slope,
				Intercept:     fit.Intercept,
				RSquared:      fit.RSquared,
				FWHM:          fit.BeamFWHM,
				Expected:      bandCfg.BeamFWHM,
				ExpectedError: bandCfg.BeamFWHMError,
			}
		case errors.As(err, &skip):
			logger.Warnw("beam fit skipped", "band", band, "target", skip.Target, "reason", string(skip.Reason), "points", skip.Points)
			rec.BeamSkips.WithLabelValues(band.String(), string(skip.Reason)).Inc()
			bs.BeamSkipped = string(skip.Reason)
		default:
			return nil, fmt.Errorf("beam fit for band %s: %w", band, err)
		}

		for _, spec := range a.opts.Specs {
			jobs = append(jobs, charts.Job{
				Spec:     a.siteSpec(spec),
				Band:     band,
				Rows:     rows,
				Nominal:  charts.Nominal{Arcsec: bandCfg.FCFArcsec, Peak: bandCfg.FCFPeak},
				Expected: charts.Expected{FWHM: bandCfg.BeamFWHM, Err: bandCfg.BeamFWHMError},
				Fit:      fit,
				Events:   events,
			})
		}
		summary.Bands = append(summary.Bands, bs)
	}

	emitter := charts.NewEmitter(dir, a.opts.Style, a.opts.Workers, logger)
	outcomes := emitter.EmitAll(ctx, jobs)
	for _, out := range outcomes {
		bs := summary.band(int(out.Band))
		switch {
		case out.Err != nil:
			rec.ChartOutcome(out.Band.String(), metrics.OutcomeFailed)
			bs.Failed = append(bs.Failed, ChartFailure{Chart: out.Name, Error: out.Err.Error()})
		case out.Skipped:
			rec.ChartOutcome(out.Band.String(), metrics.OutcomeSkipped)
			bs.Skipped = append(bs.Skipped, out.Name)
		default:
			rec.ChartOutcome(out.Band.String(), metrics.OutcomeWritten)
			bs.Written = append(bs.Written, out.Name)
		}
	}

	end := a.opts.Now()
	summary.Duration = end.Sub(start).Round(time.Millisecond).String()
	rec.Finish(start, end)

	if err := summary.WriteFile(filepath.Join(dir, SummaryFile)); err != nil {
		logger.Errorw("could not write run summary", "error", err)
	}
	if err := rec.WriteTextfile(filepath.Join(dir, MetricsFile)); err != nil {
		logger.Errorw("could not write run metrics", "error", err)
	}

	logger.Infof("%d charts written, %d skipped, %d failed", summary.Written(), summary.Skipped(), summary.Failed())
	logger.Infof("Plots are in %s", dir)

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

// siteSpec moves the time-of-night stability markers to the configured window
func (a *App) siteSpec(spec charts.Spec) charts.Spec {
	if spec.X == charts.FieldHoursFromMidnight && len(spec.VLines) == 2 {
		spec.VLines = []float64{a.cfg.Site.StableStart, a.cfg.Site.StableEnd}
	}
	return spec
}

// maxRunDirAttempts bounds the suffixes tried when runs share a start second
const maxRunDirAttempts = 100

// makeRunDir creates a new run directory under root. A directory left by an
// earlier run is never reused; the name gets a numeric suffix instead.
func makeRunDir(root, name string) (string, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return "", err
	}
	for i := 1; i <= maxRunDirAttempts; i++ {
		dir := filepath.Join(root, name)
		if i > 1 {
			dir = fmt.Sprintf("%s_%d", dir, i)
		}
		err := os.Mkdir(dir, 0755)
		if err == nil {
			return dir, nil
		}
		if !os.IsExist(err) {
			return "", err
		}
	}
	return "", fmt.Errorf("%s already exists %d times under %s", name, maxRunDirAttempts, root)
}

func countLabels(rows []types.Observation, label func(types.Observation) string) map[string]int {
	if len(rows) == 0 {
		return nil
	}
	counts := make(map[string]int)
	for _, o := range rows {
		counts[label(o)]++
	}
	return counts
}
